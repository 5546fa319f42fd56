package ingest

import (
	"fmt"
	"strings"

	"fleetstream/internal/message"
)

// TopicInfo is the addressing extracted from an inbound topic of the form
// /org/<orgId>/device/<deviceId>/<kind>.
type TopicInfo struct {
	OrgID    string
	DeviceID string
	Kind     message.Kind
}

// ParseTopic validates the inbound topic shape. Malformed topics cannot be
// attributed to a device, so callers drop them without a DLQ record.
func ParseTopic(topic string) (TopicInfo, error) {
	parts := strings.Split(topic, "/")
	// Leading slash yields an empty first element.
	if len(parts) != 6 || parts[0] != "" || parts[1] != "org" || parts[3] != "device" {
		return TopicInfo{}, fmt.Errorf("topic %q does not match /org/<org>/device/<device>/<kind>", topic)
	}

	info := TopicInfo{
		OrgID:    parts[2],
		DeviceID: parts[4],
		Kind:     message.Kind(parts[5]),
	}

	if info.OrgID == "" {
		return TopicInfo{}, fmt.Errorf("topic %q has an empty org id", topic)
	}
	if info.DeviceID == "" {
		return TopicInfo{}, fmt.Errorf("topic %q has an empty device id", topic)
	}
	if !info.Kind.Valid() {
		return TopicInfo{}, fmt.Errorf("topic %q has unknown message kind %q", topic, parts[5])
	}

	return info, nil
}
