package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"fleetstream/internal/enrich"
	"fleetstream/internal/message"
)

// TelemetryStore bulk-inserts enriched telemetry rows. The unique key on
// (device_id, time) with ON CONFLICT DO NOTHING makes redelivered batches a
// no-op, which the at-least-once contract requires.
type TelemetryStore struct {
	db *sql.DB
}

func NewTelemetryStore(db *sql.DB) *TelemetryStore {
	return &TelemetryStore{db: db}
}

func (s *TelemetryStore) Name() string {
	return "telemetry"
}

func (s *TelemetryStore) Write(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	const columns = 10
	placeholders := make([]string, 0, len(records))
	args := make([]interface{}, 0, len(records)*columns)

	n := 0
	for _, record := range records {
		var t enrich.Telemetry
		if err := json.Unmarshal(record.Value, &t); err != nil {
			// A corrupt record on the output topic cannot become a row;
			// skipping keeps the rest of the batch writable.
			continue
		}

		ts, err := message.ParseTimestamp(t.Timestamp)
		if err != nil {
			ts = t.ProcessedAt
		}

		base := n * columns
		placeholders = append(placeholders, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10))

		var lat, lon float64
		if t.Location != nil {
			lat, lon = t.Location.Lat, t.Location.Lon
		}
		var speed float64
		if t.SpeedKmph != nil {
			speed = *t.SpeedKmph
		}
		var segmentID sql.NullString
		if t.RoadSegment != nil {
			segmentID = sql.NullString{String: t.RoadSegment.SegmentID, Valid: true}
		}

		args = append(args,
			t.DeviceID,
			ts.UTC(),
			lat,
			lon,
			speed,
			nullFloat(t.Heading),
			nullFloat(t.FuelLevel),
			t.AccelerationMagnitude,
			segmentID,
			record.Value,
		)
		n++
	}

	if n == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO telemetry (
			device_id, time, lat, lon, speed_kmph,
			heading, fuel_level, acceleration_magnitude, road_segment_id, payload
		) VALUES %s
		ON CONFLICT (device_id, time) DO NOTHING`,
		strings.Join(placeholders, ", "))

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert telemetry batch: %w", err)
	}
	return nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
