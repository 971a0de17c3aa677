package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// framePrefix marks lines of the run stream that carry JSON event frames.
// lines without it are surfaced verbatim rather than discarded.
const framePrefix = "data: "

// RunRequest holds the payload for a container test run.
type RunRequest struct {
	TestScript string `json:"test_script"`
	ProjectURL string `json:"project_url"`
}

// RunHandler receives each run event in arrival order. log and raw events
// carry display text; a result event carries the pass/fail summary.
type RunHandler func(ev RunEvent)

// RunTests posts the script for container execution and consumes the chunked
// response line by line until EOF. prefixed lines are parsed as event frames;
// a prefixed line with an unparseable payload falls back to a raw event, so a
// single bad frame never fails the whole stream.
func (c *Client) RunTests(ctx context.Context, r RunRequest, handler RunHandler) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal run request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/run_docker_tests", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create run request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("run request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("backend returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024) // log lines can be long
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		handler(parseRunLine(line))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read run stream: %w", err)
	}
	return nil
}

// parseRunLine turns one stream line into a run event. unprefixed lines and
// prefixed lines with broken JSON both degrade to raw events.
func parseRunLine(line string) RunEvent {
	payload, ok := strings.CutPrefix(line, framePrefix)
	if !ok {
		return RunEvent{Type: EventRaw, Message: line}
	}

	var ev RunEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return RunEvent{Type: EventRaw, Message: line}
	}
	return ev
}
