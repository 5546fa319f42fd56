package enrich

import (
	"time"

	"fleetstream/internal/message"
)

// MatchedSegment is the road-segment attachment produced by map matching.
type MatchedSegment struct {
	SegmentID  string `json:"segment_id"`
	SpeedLimit int    `json:"speed_limit"`
	RoadType   string `json:"road_type"`
	TollZone   bool   `json:"toll_zone"`
}

// SpeedViolation is attached when the reported speed exceeds the matched
// segment's limit by more than 10%.
type SpeedViolation struct {
	ExceededBy float64 `json:"exceeded_by"`
	Severity   string  `json:"severity"`
}

const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
)

// Event severities use the device-facing uppercase vocabulary.
const (
	EventSeverityHigh   = "HIGH"
	EventSeverityMedium = "MEDIUM"
	EventSeverityLow    = "LOW"
)

// DrivingBehavior flags derived driving patterns. Attached only when the
// vehicle is moving.
type DrivingBehavior struct {
	AggressiveAcceleration bool `json:"aggressive_acceleration"`
	HighSpeed              bool `json:"high_speed"`
	EcoDriving             bool `json:"eco_driving"`
}

// Telemetry is the enriched form of an inbound telemetry sample. The input
// fields pass through unchanged; enrichment only adds.
type Telemetry struct {
	message.Telemetry

	ProcessedAt           time.Time        `json:"processed_at"`
	ValidatorVersion      string           `json:"validator_version"`
	AccelerationMagnitude float64          `json:"acceleration_magnitude"`
	LateralAcceleration   float64          `json:"lateral_acceleration"`
	JerkEstimate          float64          `json:"jerk_estimate"`
	Behavior              *DrivingBehavior `json:"driving_behavior,omitempty"`
	RoadSegment           *MatchedSegment  `json:"road_segment,omitempty"`
	SpeedViolation        *SpeedViolation  `json:"speed_violation,omitempty"`
	Geofences             []string         `json:"geofences,omitempty"`
}

// Event is the enriched form of a driving event.
type Event struct {
	message.Event

	ProcessedAt      time.Time `json:"processed_at"`
	ValidatorVersion string    `json:"validator_version"`
	Severity         string    `json:"severity"`
}

// V2X carries the advisory plus its computed expiry.
type V2X struct {
	message.V2X

	ProcessedAt  time.Time `json:"processed_at"`
	TTLExpiresAt time.Time `json:"ttl_expires_at"`
}
