package enrich

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetstream/internal/logger"
	"fleetstream/internal/message"
	"fleetstream/internal/roadnet"
)

func floatPtr(v float64) *float64 { return &v }

func testProvider() *roadnet.Provider {
	provider := roadnet.NewProvider(nil, logger.NopLogger())
	provider.Seed(
		[]roadnet.Segment{
			{SegmentID: "SEG_URBAN", SpeedLimit: 50, RoadType: "urban", Lat: 20.2961, Lon: 85.8245},
			{SegmentID: "SEG_HIGHWAY", SpeedLimit: 100, RoadType: "highway", TollZone: true, Lat: 20.35, Lon: 85.9},
		},
		[]roadnet.Geofence{
			{Name: "city_center", Lat: 20.2961, Lon: 85.8245, Radius: 0.005},
		},
	)
	return provider
}

func testEngine() *Engine {
	fixed := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	return NewEngineWithClock(testProvider(), func() time.Time { return fixed })
}

func telemetryAt(lat, lon, speed float64) message.Telemetry {
	return message.Telemetry{
		DeviceID:     "DEVICE_0001",
		Timestamp:    "2026-08-28T09:59:00Z",
		Location:     &message.Location{Lat: lat, Lon: lon},
		SpeedKmph:    floatPtr(speed),
		Acceleration: &message.Acceleration{X: 2, Y: 1, Z: 9.8},
	}
}

func TestEnrichTelemetryDerivedMetrics(t *testing.T) {
	engine := testEngine()

	enriched := engine.EnrichTelemetry(telemetryAt(10, 10, 40))

	wantMagnitude := math.Sqrt(2*2 + 1*1 + 9.8*9.8)
	assert.InDelta(t, wantMagnitude, enriched.AccelerationMagnitude, 0.001)
	assert.InDelta(t, math.Sqrt(2*2+1*1), enriched.LateralAcceleration, 0.001)
	assert.Equal(t, 0.0, enriched.JerkEstimate)
	assert.Equal(t, "1.0.0", enriched.ValidatorVersion)
}

func TestEnrichTelemetryDrivingBehavior(t *testing.T) {
	engine := testEngine()

	moving := engine.EnrichTelemetry(telemetryAt(10, 10, 90))
	require.NotNil(t, moving.Behavior)
	assert.True(t, moving.Behavior.HighSpeed)
	assert.True(t, moving.Behavior.AggressiveAcceleration)
	assert.False(t, moving.Behavior.EcoDriving)

	stopped := telemetryAt(10, 10, 0)
	assert.Nil(t, engine.EnrichTelemetry(stopped).Behavior)
}

func TestMapMatchingAtSegmentCoordinates(t *testing.T) {
	engine := testEngine()

	enriched := engine.EnrichTelemetry(telemetryAt(20.2961, 85.8245, 40))

	require.NotNil(t, enriched.RoadSegment)
	assert.Equal(t, "SEG_URBAN", enriched.RoadSegment.SegmentID)
	assert.Equal(t, 50, enriched.RoadSegment.SpeedLimit)
	assert.Nil(t, enriched.SpeedViolation)
}

func TestMapMatchingFarFromAnySegment(t *testing.T) {
	engine := testEngine()

	// ~5 km north of the nearest segment.
	enriched := engine.EnrichTelemetry(telemetryAt(20.3411, 85.8245, 40))

	assert.Nil(t, enriched.RoadSegment)
	assert.Nil(t, enriched.SpeedViolation)
}

func TestSpeedViolationSeverity(t *testing.T) {
	engine := testEngine()

	// 120 km/h on a 50 km/h urban segment.
	enriched := engine.EnrichTelemetry(telemetryAt(20.2961, 85.8245, 120))

	require.NotNil(t, enriched.SpeedViolation)
	assert.Equal(t, SeverityHigh, enriched.SpeedViolation.Severity)
	assert.InDelta(t, 70, enriched.SpeedViolation.ExceededBy, 0.001)

	// 60 km/h exceeds the 10% tolerance but not the high band.
	medium := engine.EnrichTelemetry(telemetryAt(20.2961, 85.8245, 60))
	require.NotNil(t, medium.SpeedViolation)
	assert.Equal(t, SeverityMedium, medium.SpeedViolation.Severity)

	// 55 km/h is within tolerance.
	tolerated := engine.EnrichTelemetry(telemetryAt(20.2961, 85.8245, 55))
	assert.Nil(t, tolerated.SpeedViolation)
}

func TestGeofences(t *testing.T) {
	engine := testEngine()

	inside := engine.EnrichTelemetry(telemetryAt(20.2961, 85.8245, 40))
	assert.Equal(t, []string{"city_center"}, inside.Geofences)

	outside := engine.EnrichTelemetry(telemetryAt(21, 86, 40))
	assert.Empty(t, outside.Geofences)
}

func TestEnrichTelemetryDeterministic(t *testing.T) {
	engine := testEngine()
	input := telemetryAt(20.2961, 85.8245, 120)

	first, err := json.Marshal(engine.EnrichTelemetry(input))
	require.NoError(t, err)
	second, err := json.Marshal(engine.EnrichTelemetry(input))
	require.NoError(t, err)

	assert.JSONEq(t, string(first), string(second))
}

func TestEventSeverity(t *testing.T) {
	engine := testEngine()

	tests := []struct {
		name      string
		eventType string
		accelPeak *float64
		want      string
	}{
		{"harsh brake high peak", "HARSH_BRAKE", floatPtr(-9.5), EventSeverityHigh},
		{"harsh accel medium peak", "HARSH_ACCEL", floatPtr(7), EventSeverityMedium},
		{"harsh brake low peak", "HARSH_BRAKE", floatPtr(3), EventSeverityLow},
		{"harsh brake without peak", "HARSH_BRAKE", nil, EventSeverityLow},
		{"sharp turn always low", "SHARP_TURN", floatPtr(12), EventSeverityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enriched := engine.EnrichEvent(message.Event{
				DeviceID:  "DEVICE_0001",
				EventType: tt.eventType,
				Timestamp: "2026-08-28T09:59:00Z",
				AccelPeak: tt.accelPeak,
			})
			assert.Equal(t, tt.want, enriched.Severity)
		})
	}
}

func TestEnrichV2XExpiry(t *testing.T) {
	engine := testEngine()

	enriched := engine.EnrichV2X(message.V2X{
		DeviceID:   "DEVICE_0001",
		Type:       "hazard",
		Pos:        &message.Location{Lat: 20.3, Lon: 85.8},
		TTLSeconds: 30,
	})

	assert.Equal(t, enriched.ProcessedAt.Add(30*time.Second), enriched.TTLExpiresAt)
}
