package model

import (
	"bytes"
	"encoding/json"
)

// Envelope is the wrapper every backend response uses.
type Envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// HasData reports whether the envelope carries a non-null payload.
func (e Envelope) HasData() bool {
	d := bytes.TrimSpace(e.Data)
	return len(d) > 0 && !bytes.Equal(d, []byte("null"))
}

// DataText renders the payload for display. String payloads are unquoted;
// anything else is shown as compact JSON.
func (e Envelope) DataText() string {
	if !e.HasData() {
		return ""
	}
	var s string
	if err := json.Unmarshal(e.Data, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, e.Data); err != nil {
		return string(e.Data)
	}
	return buf.String()
}
