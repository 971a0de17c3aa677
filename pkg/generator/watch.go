package generator

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces the burst of fs events editors produce on save.
const debounceDelay = 200 * time.Millisecond

// Watch regenerates the script whenever the spreadsheet changes, until ctx is
// canceled. the parent directory is watched because editors typically replace
// files on save instead of writing in place. each regeneration outcome is
// passed to onUpdate; a generation already in flight skips the trigger.
func (g *Generator) Watch(ctx context.Context, filePath, projectURL string, onUpdate func(script string, err error)) error {
	if err := Validate(filePath, projectURL); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("resolve watch path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	g.log.Print("watching %s for changes", filePath)

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	trigger := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})

		case <-trigger:
			script, genErr := g.Generate(ctx, filePath, projectURL)
			if genErr != nil {
				g.log.Warn("regeneration failed: %v", genErr)
			}
			if onUpdate != nil {
				onUpdate(script, genErr)
			}

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			g.log.Warn("watch error: %v", watchErr)
		}
	}
}
