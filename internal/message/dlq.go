package message

import (
	"encoding/json"
	"time"

	"fleetstream/pkg/errors"
)

// DLQRecord captures a rejected input for offline inspection. OriginalPayload
// keeps the inbound bytes untouched when they were valid JSON; non-JSON input
// is wrapped as a JSON string so the record itself always marshals cleanly.
type DLQRecord struct {
	ID              string            `json:"id"`
	OriginalPayload json.RawMessage   `json:"original_payload"`
	ErrorReason     string            `json:"error_reason"`
	ErrorType       errors.ErrorType  `json:"error_type"`
	DeviceID        string            `json:"device_id"`
	Timestamp       time.Time         `json:"timestamp"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// WrapPayload returns the raw bytes unchanged when they already form a valid
// JSON document and a JSON-encoded string of them otherwise.
func WrapPayload(payload []byte) json.RawMessage {
	if json.Valid(payload) {
		return json.RawMessage(append([]byte(nil), payload...))
	}
	quoted, err := json.Marshal(string(payload))
	if err != nil {
		// Marshal of a string cannot fail on valid UTF-8; fall back to
		// an empty document for anything pathological.
		return json.RawMessage(`""`)
	}
	return json.RawMessage(quoted)
}
