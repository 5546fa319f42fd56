package message

import (
	"fmt"
	"regexp"
)

var deviceIDPattern = regexp.MustCompile(`^[A-Z0-9_]{8,32}$`)

// FieldError describes a single structural violation at a JSON path.
type FieldError struct {
	Path   string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

func fieldErr(path, format string, args ...interface{}) FieldError {
	return FieldError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// CheckStructure verifies field presence and numeric ranges for a telemetry
// message. It returns the first violation found, walking fields in declaration
// order so errors are stable across runs.
func (t *Telemetry) CheckStructure() *FieldError {
	if t.DeviceID == "" {
		e := fieldErr("deviceId", "is required")
		return &e
	}
	if !deviceIDPattern.MatchString(t.DeviceID) {
		e := fieldErr("deviceId", "must match [A-Z0-9_]{8,32}, got %q", t.DeviceID)
		return &e
	}
	if t.Timestamp == "" {
		e := fieldErr("timestamp", "is required")
		return &e
	}
	if t.Location == nil {
		e := fieldErr("location", "is required")
		return &e
	}
	if err := t.Location.check("location"); err != nil {
		return err
	}
	if t.SpeedKmph == nil {
		e := fieldErr("speedKmph", "is required")
		return &e
	}
	if *t.SpeedKmph < 0 || *t.SpeedKmph > 300 {
		e := fieldErr("speedKmph", "must be within [0, 300], got %v", *t.SpeedKmph)
		return &e
	}
	if t.Heading != nil && (*t.Heading < 0 || *t.Heading > 360) {
		e := fieldErr("heading", "must be within [0, 360], got %v", *t.Heading)
		return &e
	}
	if t.Acceleration == nil {
		e := fieldErr("acceleration", "is required")
		return &e
	}
	if err := t.Acceleration.check("acceleration"); err != nil {
		return err
	}
	if t.FuelLevel != nil && *t.FuelLevel > 100 {
		e := fieldErr("fuelLevel", "must be within [0, 100], got %v", *t.FuelLevel)
		return &e
	}
	return nil
}

func (l *Location) check(path string) *FieldError {
	if l.Lat < -90 || l.Lat > 90 {
		e := fieldErr(path+".lat", "must be within [-90, 90], got %v", l.Lat)
		return &e
	}
	if l.Lon < -180 || l.Lon > 180 {
		e := fieldErr(path+".lon", "must be within [-180, 180], got %v", l.Lon)
		return &e
	}
	return nil
}

func (a *Acceleration) check(path string) *FieldError {
	for _, axis := range []struct {
		name string
		v    float64
	}{{"x", a.X}, {"y", a.Y}, {"z", a.Z}} {
		if axis.v < -50 || axis.v > 50 {
			e := fieldErr(path+"."+axis.name, "must be within [-50, 50], got %v", axis.v)
			return &e
		}
	}
	return nil
}

func (e *Event) CheckStructure() *FieldError {
	if e.DeviceID == "" {
		fe := fieldErr("deviceId", "is required")
		return &fe
	}
	if !deviceIDPattern.MatchString(e.DeviceID) {
		fe := fieldErr("deviceId", "must match [A-Z0-9_]{8,32}, got %q", e.DeviceID)
		return &fe
	}
	if e.EventType == "" {
		fe := fieldErr("eventType", "is required")
		return &fe
	}
	if e.Timestamp == "" {
		fe := fieldErr("timestamp", "is required")
		return &fe
	}
	if e.Location != nil {
		if err := e.Location.check("location"); err != nil {
			return err
		}
	}
	return nil
}

func (v *V2X) CheckStructure() *FieldError {
	if v.DeviceID == "" {
		fe := fieldErr("deviceId", "is required")
		return &fe
	}
	if !deviceIDPattern.MatchString(v.DeviceID) {
		fe := fieldErr("deviceId", "must match [A-Z0-9_]{8,32}, got %q", v.DeviceID)
		return &fe
	}
	if v.Type == "" {
		fe := fieldErr("type", "is required")
		return &fe
	}
	if v.Pos == nil {
		fe := fieldErr("pos", "is required")
		return &fe
	}
	if err := v.Pos.check("pos"); err != nil {
		return err
	}
	if v.TTLSeconds < 1 || v.TTLSeconds > 300 {
		fe := fieldErr("ttl_seconds", "must be within [1, 300], got %d", v.TTLSeconds)
		return &fe
	}
	return nil
}
