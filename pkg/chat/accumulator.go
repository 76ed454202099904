package chat

import (
	"encoding/json"
	"strings"
	"time"
)

// ApplySnapshot folds one stream event payload into the current message
// text. Events carry the full text so far (snapshot semantics), never a
// delta:
//   - a JSON object with a "response" field replaces the text with that
//     field's value
//   - a bare JSON string replaces the text with itself
//   - anything that fails to parse replaces the text verbatim
//   - blank payloads leave the text unchanged
func ApplySnapshot(current, payload string) string {
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" {
		return current
	}

	var keyed struct {
		Response *string `json:"response"`
	}
	if err := json.Unmarshal([]byte(trimmed), &keyed); err == nil && keyed.Response != nil {
		return *keyed.Response
	}

	var scalar string
	if err := json.Unmarshal([]byte(trimmed), &scalar); err == nil {
		return scalar
	}

	return payload
}

// Accumulator tracks the in-progress text of one streaming bot message.
// It holds no state beyond the most recent applied snapshot.
type Accumulator struct {
	content    string
	eventCount int
	lastUpdate time.Time
}

// NewAccumulator creates an accumulator for a fresh stream
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Apply folds an event payload into the accumulated text and returns the
// resulting full text.
func (a *Accumulator) Apply(payload string) string {
	if strings.TrimSpace(payload) == "" {
		return a.content
	}

	a.content = ApplySnapshot(a.content, payload)
	a.eventCount++
	a.lastUpdate = time.Now()
	return a.content
}

// Content returns the current accumulated text
func (a *Accumulator) Content() string {
	return a.content
}

// EventCount returns how many non-blank events have been applied
func (a *Accumulator) EventCount() int {
	return a.eventCount
}

// LastUpdate returns when the last event was applied
func (a *Accumulator) LastUpdate() time.Time {
	return a.lastUpdate
}
