package message

import (
	"encoding/json"
	"fmt"

	"fleetstream/internal/constants"
)

// ParseTelemetry decodes raw bytes into a Telemetry. A decode failure here is
// a json_error for the dead-letter sink; structural checks come later.
func ParseTelemetry(payload []byte) (*Telemetry, error) {
	var t Telemetry
	if err := json.Unmarshal(payload, &t); err != nil {
		return nil, fmt.Errorf("telemetry payload is not valid JSON: %w", err)
	}
	return &t, nil
}

func ParseEvent(payload []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, fmt.Errorf("event payload is not valid JSON: %w", err)
	}
	return &e, nil
}

func ParseV2X(payload []byte) (*V2X, error) {
	var v V2X
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, fmt.Errorf("v2x payload is not valid JSON: %w", err)
	}
	if v.TTLSeconds == 0 {
		v.TTLSeconds = constants.DefaultV2XTTLSeconds
	}
	return &v, nil
}
