package enrich

import (
	"math"
	"time"

	"fleetstream/internal/constants"
	"fleetstream/internal/message"
	"fleetstream/internal/roadnet"
	"fleetstream/pkg/metrics"
)

const (
	speedViolationTolerance = 1.1
	speedViolationHighBand  = 1.5

	aggressiveMagnitudeThreshold = 8.0
	highSpeedThreshold           = 80.0
	ecoSpeedThreshold            = 60.0
	ecoMagnitudeThreshold        = 2.0
)

// Engine derives additional fields from validated messages. It is pure apart
// from the clock and the read-only road-network snapshot.
type Engine struct {
	roadnet *roadnet.Provider
	now     func() time.Time
}

func NewEngine(provider *roadnet.Provider) *Engine {
	return &Engine{
		roadnet: provider,
		now:     time.Now,
	}
}

// NewEngineWithClock pins the wall clock, for deterministic tests.
func NewEngineWithClock(provider *roadnet.Provider, now func() time.Time) *Engine {
	return &Engine{
		roadnet: provider,
		now:     now,
	}
}

// EnrichTelemetry adds derived metrics, map-matching, speed-violation and
// geofence data to a structurally valid telemetry sample.
func (e *Engine) EnrichTelemetry(t message.Telemetry) Telemetry {
	started := time.Now()
	defer func() {
		metrics.ObserveEnrichmentDuration(string(message.KindTelemetry), time.Since(started))
	}()

	enriched := Telemetry{
		Telemetry:        t,
		ProcessedAt:      e.now().UTC(),
		ValidatorVersion: constants.ValidatorVersion,
	}

	var magnitude float64
	if t.Acceleration != nil {
		a := t.Acceleration
		magnitude = math.Sqrt(a.X*a.X + a.Y*a.Y + a.Z*a.Z)
		enriched.AccelerationMagnitude = round3(magnitude)
		enriched.LateralAcceleration = round3(math.Sqrt(a.X*a.X + a.Y*a.Y))
	}

	// Jerk needs the previous sample per device; the pipeline is stateless
	// per message, so it stays zero.
	enriched.JerkEstimate = 0.0

	speed := 0.0
	if t.SpeedKmph != nil {
		speed = *t.SpeedKmph
	}
	if speed > 0 {
		enriched.Behavior = &DrivingBehavior{
			AggressiveAcceleration: magnitude > aggressiveMagnitudeThreshold,
			HighSpeed:              speed > highSpeedThreshold,
			EcoDriving:             speed < ecoSpeedThreshold && magnitude < ecoMagnitudeThreshold,
		}
	}

	if t.Location != nil {
		e.matchRoadSegment(&enriched, t.Location.Lat, t.Location.Lon, speed)
		enriched.Geofences = e.roadnet.GeofencesContaining(t.Location.Lat, t.Location.Lon)
	}

	return enriched
}

func (e *Engine) matchRoadSegment(enriched *Telemetry, lat, lon, speed float64) {
	segment, distance, ok := e.roadnet.Nearest(lat, lon)
	if !ok || distance >= roadnet.MatchThreshold {
		metrics.RoadSegmentMatchesTotal.WithLabelValues("miss").Inc()
		return
	}
	metrics.RoadSegmentMatchesTotal.WithLabelValues("hit").Inc()

	enriched.RoadSegment = &MatchedSegment{
		SegmentID:  segment.SegmentID,
		SpeedLimit: segment.SpeedLimit,
		RoadType:   segment.RoadType,
		TollZone:   segment.TollZone,
	}

	limit := float64(segment.SpeedLimit)
	if speed > limit*speedViolationTolerance {
		severity := SeverityMedium
		if speed > limit*speedViolationHighBand {
			severity = SeverityHigh
		}
		enriched.SpeedViolation = &SpeedViolation{
			ExceededBy: round3(speed - limit),
			Severity:   severity,
		}
		metrics.SpeedViolationsTotal.WithLabelValues(severity).Inc()
	}
}

// EnrichEvent stamps processing metadata and computes severity from the event
// type and acceleration peak.
func (e *Engine) EnrichEvent(ev message.Event) Event {
	started := time.Now()
	defer func() {
		metrics.ObserveEnrichmentDuration(string(message.KindEvents), time.Since(started))
	}()

	return Event{
		Event:            ev,
		ProcessedAt:      e.now().UTC(),
		ValidatorVersion: constants.ValidatorVersion,
		Severity:         eventSeverity(ev),
	}
}

func eventSeverity(ev message.Event) string {
	switch ev.EventType {
	case "HARSH_BRAKE", "HARSH_ACCEL":
		peak := 0.0
		if ev.AccelPeak != nil {
			peak = math.Abs(*ev.AccelPeak)
		}
		switch {
		case peak > 8:
			return EventSeverityHigh
		case peak > 6:
			return EventSeverityMedium
		}
	}
	return EventSeverityLow
}

// EnrichV2X computes the advisory's absolute expiry from its TTL.
func (e *Engine) EnrichV2X(v message.V2X) V2X {
	started := time.Now()
	defer func() {
		metrics.ObserveEnrichmentDuration(string(message.KindV2X), time.Since(started))
	}()

	now := e.now().UTC()
	return V2X{
		V2X:          v,
		ProcessedAt:  now,
		TTLExpiresAt: now.Add(time.Duration(v.TTLSeconds) * time.Second),
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
