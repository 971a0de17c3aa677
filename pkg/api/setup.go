package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tmaxmax/go-sse"
)

// SetupHandler receives each parsed log entry from the setup stream in
// arrival order. malformed payloads are delivered as error-typed entries
// rather than aborting the stream.
type SetupHandler func(entry LogEntry)

// SetupProject opens the setup stream for the given target path and feeds
// parsed entries to the handler until the completion marker arrives or the
// transport fails. returns nil on the marker, the transport error otherwise.
//
// there is no reconnect and no deadline: a dropped connection ends the run,
// and a stream that never emits the marker blocks until ctx is canceled.
func (c *Client) SetupProject(ctx context.Context, path string, handler SetupHandler) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	endpoint := c.baseURL + "/setup_playwright_project?path=" + url.QueryEscape(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("create setup request: %w", err)
	}

	client := &sse.Client{
		HTTPClient: c.http,
		Backoff:    sse.Backoff{MaxRetries: -1}, // never reconnect, a dropped stream ends the run
	}

	completed := false
	conn := client.NewConnection(req)
	unsubscribe := conn.SubscribeMessages(func(ev sse.Event) {
		var entry LogEntry
		if jsonErr := json.Unmarshal([]byte(ev.Data), &entry); jsonErr != nil {
			// degrade instead of crashing the consumer on a bad frame
			entry = LogEntry{Type: EntryError, Message: "malformed event: " + ev.Data}
		}
		handler(entry)

		if IsSetupComplete(entry.Message) {
			completed = true
			cancel() // tear down the stream, setup is done
		}
	})
	defer unsubscribe()

	if connErr := conn.Connect(); connErr != nil && !completed {
		return fmt.Errorf("setup stream: %w", connErr)
	}
	return nil
}
