package validate

import (
	"fmt"
	"math"
	"time"

	"fleetstream/internal/enrich"
	"fleetstream/internal/message"
	"fleetstream/pkg/metrics"
)

const unrealisticAccelMagnitude = 20.0

// Result is the outcome of validating (and, when valid, enriching) one
// telemetry message. Errors is empty iff Valid; Warnings may be non-empty
// either way.
type Result struct {
	Valid    bool
	Enriched *enrich.Telemetry
	Errors   []string
	Warnings []string
}

// Validator runs the structural, business-rule and data-quality stages.
type Validator struct {
	engine        *enrich.Engine
	maxFutureSkew time.Duration
	now           func() time.Time
}

func New(engine *enrich.Engine, maxFutureSkew time.Duration) *Validator {
	return &Validator{
		engine:        engine,
		maxFutureSkew: maxFutureSkew,
		now:           time.Now,
	}
}

// NewWithClock pins the wall clock, for deterministic tests.
func NewWithClock(engine *enrich.Engine, maxFutureSkew time.Duration, now func() time.Time) *Validator {
	v := New(engine, maxFutureSkew)
	v.now = now
	return v
}

// ValidateAndEnrich checks a telemetry sample in three stages, short-circuiting
// on the first failing stage. Structural and business-rule failures make the
// result invalid; data-quality findings only attach warnings.
func (v *Validator) ValidateAndEnrich(t message.Telemetry) Result {
	if ferr := t.CheckStructure(); ferr != nil {
		metrics.ValidationFailuresTotal.WithLabelValues(string(message.KindTelemetry)).Inc()
		return Result{Errors: []string{ferr.Error()}}
	}

	if errs := v.businessRules(t); len(errs) > 0 {
		metrics.ValidationFailuresTotal.WithLabelValues(string(message.KindTelemetry)).Inc()
		return Result{Errors: errs}
	}

	warnings := qualityWarnings(t)
	if len(warnings) > 0 {
		metrics.ValidationWarningsTotal.Add(float64(len(warnings)))
	}

	enriched := v.engine.EnrichTelemetry(t)
	return Result{
		Valid:    true,
		Enriched: &enriched,
		Warnings: warnings,
	}
}

func (v *Validator) businessRules(t message.Telemetry) []string {
	var errs []string

	if t.Acceleration != nil && t.SpeedKmph != nil {
		a := t.Acceleration
		magnitude := math.Sqrt(a.X*a.X + a.Y*a.Y + a.Z*a.Z)
		if magnitude > unrealisticAccelMagnitude && *t.SpeedKmph > 0 {
			errs = append(errs, fmt.Sprintf(
				"acceleration magnitude %.2f is unrealistic for a moving vehicle", magnitude))
		}
	}

	if t.FuelLevel != nil && *t.FuelLevel < 0 {
		errs = append(errs, fmt.Sprintf("fuelLevel must not be negative, got %v", *t.FuelLevel))
	}

	ts, err := message.ParseTimestamp(t.Timestamp)
	if err != nil {
		errs = append(errs, fmt.Sprintf("timestamp %q is not parsable", t.Timestamp))
	} else if ts.After(v.now().Add(v.maxFutureSkew)) {
		errs = append(errs, fmt.Sprintf(
			"timestamp %s is more than %s in the future", t.Timestamp, v.maxFutureSkew))
	}

	return errs
}

func qualityWarnings(t message.Telemetry) []string {
	var warnings []string

	if t.Location != nil && t.Location.Lat == 0 && t.Location.Lon == 0 {
		warnings = append(warnings, "GPS position is exactly (0,0), likely a fix failure")
	}

	if a := t.Acceleration; a != nil && a.X == a.Y && a.Y == a.Z {
		warnings = append(warnings, "all acceleration axes are identical, sensor may be stuck")
	}

	if t.Heading == nil {
		warnings = append(warnings, "heading is missing")
	}
	if t.FuelLevel == nil {
		warnings = append(warnings, "fuelLevel is missing")
	}

	return warnings
}

// ValidateEvent runs structural checks on a driving event.
func (v *Validator) ValidateEvent(e message.Event) []string {
	if ferr := e.CheckStructure(); ferr != nil {
		metrics.ValidationFailuresTotal.WithLabelValues(string(message.KindEvents)).Inc()
		return []string{ferr.Error()}
	}
	return nil
}

// ValidateV2X runs structural checks on a peer advisory.
func (v *Validator) ValidateV2X(m message.V2X) []string {
	if ferr := m.CheckStructure(); ferr != nil {
		metrics.ValidationFailuresTotal.WithLabelValues(string(message.KindV2X)).Inc()
		return []string{ferr.Error()}
	}
	return nil
}
