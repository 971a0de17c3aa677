package session

import "sync"

// ScriptHolder keeps the single generated script. exactly one script is held
// at a time: a later generation overwrites the previous one with no history,
// and a failed generation stores the failure text in place of a script.
type ScriptHolder struct {
	mu     sync.Mutex
	text   string
	failed bool
}

// Set stores a freshly generated script, overwriting any previous content.
func (h *ScriptHolder) Set(script string) {
	h.mu.Lock()
	h.text = script
	h.failed = false
	h.mu.Unlock()
}

// SetError stores a generation failure. the display text replaces the script
// slot rather than going to a separate error channel.
func (h *ScriptHolder) SetError(err error) {
	h.mu.Lock()
	h.text = "Error: " + err.Error()
	h.failed = true
	h.mu.Unlock()
}

// Get returns the held text and whether it is a usable script
// (false when empty or holding a failure message).
func (h *ScriptHolder) Get() (text string, usable bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.text, h.text != "" && !h.failed
}
