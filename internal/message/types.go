package message

import "time"

// Kind discriminates the three inbound message families. It is derived from
// the last segment of the inbound topic, never from the payload.
type Kind string

const (
	KindTelemetry Kind = "telemetry"
	KindEvents    Kind = "events"
	KindV2X       Kind = "v2x"
)

func (k Kind) Valid() bool {
	switch k {
	case KindTelemetry, KindEvents, KindV2X:
		return true
	}
	return false
}

type Location struct {
	Lat      float64  `json:"lat"`
	Lon      float64  `json:"lon"`
	Altitude *float64 `json:"altitude,omitempty"`
}

type Acceleration struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type Gyroscope struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type EngineData struct {
	RPM        *float64 `json:"rpm,omitempty"`
	FuelLevel  *float64 `json:"fuelLevel,omitempty"`
	EngineTemp *float64 `json:"engineTemp,omitempty"`
}

type Diagnostics struct {
	ErrorCodes     []string `json:"errorCodes,omitempty"`
	BatteryVoltage *float64 `json:"batteryVoltage,omitempty"`
}

// Telemetry is a periodic vehicle state sample. Optional sensor fields stay
// nil when the device did not report them, so enrichment and persistence can
// tell "absent" from "zero".
type Telemetry struct {
	DeviceID       string        `json:"deviceId"`
	Timestamp      string        `json:"timestamp"`
	Location       *Location     `json:"location"`
	SpeedKmph      *float64      `json:"speedKmph"`
	Heading        *float64      `json:"heading,omitempty"`
	Acceleration   *Acceleration `json:"acceleration"`
	FuelLevel      *float64      `json:"fuelLevel,omitempty"`
	EngineData     *EngineData   `json:"engineData,omitempty"`
	Diagnostics    *Diagnostics  `json:"diagnostics,omitempty"`
	Gyroscope      *Gyroscope    `json:"gyroscope,omitempty"`
	VehicleType    string        `json:"vehicleType,omitempty"`
	DriverBehavior string        `json:"driverBehavior,omitempty"`
}

// Event is a discrete driving occurrence reported by the device.
type Event struct {
	DeviceID    string                 `json:"deviceId"`
	EventType   string                 `json:"eventType"`
	Timestamp   string                 `json:"timestamp"`
	Location    *Location              `json:"location,omitempty"`
	SpeedBefore *float64               `json:"speedBefore,omitempty"`
	SpeedAfter  *float64               `json:"speedAfter,omitempty"`
	AccelPeak   *float64               `json:"accelPeak,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// V2X is a short-lived peer advisory. It only ever reaches the cache, never
// durable storage.
type V2X struct {
	DeviceID   string                 `json:"deviceId"`
	Type       string                 `json:"type"`
	Pos        *Location              `json:"pos"`
	TTLSeconds int                    `json:"ttl_seconds"`
	Timestamp  string                 `json:"timestamp,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// ParseTimestamp returns the message timestamp as a time.Time. Devices send
// RFC 3339; a bare "Z"-less offset form is also accepted.
func ParseTimestamp(ts string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", ts)
}
