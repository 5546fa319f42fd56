package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func validTelemetry() Telemetry {
	return Telemetry{
		DeviceID:     "DEVICE_0001",
		Timestamp:    "2026-08-28T10:00:00Z",
		Location:     &Location{Lat: 20.2961, Lon: 85.8245},
		SpeedKmph:    floatPtr(42),
		Acceleration: &Acceleration{X: 1, Y: 2, Z: 9.8},
	}
}

func TestTelemetryCheckStructure(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Telemetry)
		wantErr string
	}{
		{
			name:   "valid message passes",
			mutate: func(*Telemetry) {},
		},
		{
			name:    "missing device id",
			mutate:  func(m *Telemetry) { m.DeviceID = "" },
			wantErr: "deviceId",
		},
		{
			name:    "lowercase device id rejected",
			mutate:  func(m *Telemetry) { m.DeviceID = "device_0001" },
			wantErr: "deviceId",
		},
		{
			name:    "device id too short",
			mutate:  func(m *Telemetry) { m.DeviceID = "DEV_1" },
			wantErr: "deviceId",
		},
		{
			name:    "latitude out of range",
			mutate:  func(m *Telemetry) { m.Location.Lat = 95 },
			wantErr: "location.lat",
		},
		{
			name:    "longitude out of range",
			mutate:  func(m *Telemetry) { m.Location.Lon = 200 },
			wantErr: "location.lon",
		},
		{
			name:    "missing location",
			mutate:  func(m *Telemetry) { m.Location = nil },
			wantErr: "location",
		},
		{
			name:    "speed above bound",
			mutate:  func(m *Telemetry) { m.SpeedKmph = floatPtr(301) },
			wantErr: "speedKmph",
		},
		{
			name:    "negative speed",
			mutate:  func(m *Telemetry) { m.SpeedKmph = floatPtr(-1) },
			wantErr: "speedKmph",
		},
		{
			name:    "heading above bound",
			mutate:  func(m *Telemetry) { m.Heading = floatPtr(361) },
			wantErr: "heading",
		},
		{
			name:    "acceleration axis out of range",
			mutate:  func(m *Telemetry) { m.Acceleration.Z = 55 },
			wantErr: "acceleration.z",
		},
		{
			name:    "missing acceleration",
			mutate:  func(m *Telemetry) { m.Acceleration = nil },
			wantErr: "acceleration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validTelemetry()
			tt.mutate(&m)

			err := m.CheckStructure()
			if tt.wantErr == "" {
				assert.Nil(t, err)
				return
			}
			require.NotNil(t, err)
			assert.Equal(t, tt.wantErr, err.Path)
		})
	}
}

func TestEventCheckStructure(t *testing.T) {
	ev := Event{
		DeviceID:  "DEVICE_0001",
		EventType: "HARSH_BRAKE",
		Timestamp: "2026-08-28T10:00:00Z",
	}
	assert.Nil(t, ev.CheckStructure())

	ev.EventType = ""
	err := ev.CheckStructure()
	require.NotNil(t, err)
	assert.Equal(t, "eventType", err.Path)
}

func TestV2XCheckStructure(t *testing.T) {
	v := V2X{
		DeviceID:   "DEVICE_0001",
		Type:       "hazard_warning",
		Pos:        &Location{Lat: 20.3, Lon: 85.8},
		TTLSeconds: 5,
	}
	assert.Nil(t, v.CheckStructure())

	v.TTLSeconds = 301
	err := v.CheckStructure()
	require.NotNil(t, err)
	assert.Equal(t, "ttl_seconds", err.Path)

	v.TTLSeconds = 0
	err = v.CheckStructure()
	require.NotNil(t, err)
	assert.Equal(t, "ttl_seconds", err.Path)
}

func TestParseV2XDefaultsTTL(t *testing.T) {
	v, err := ParseV2X([]byte(`{"deviceId":"DEVICE_0001","type":"hazard","pos":{"lat":1,"lon":2}}`))
	require.NoError(t, err)
	assert.Equal(t, 5, v.TTLSeconds)
}

func TestParseTelemetryRejectsNonJSON(t *testing.T) {
	_, err := ParseTelemetry([]byte("not json"))
	assert.Error(t, err)
}
