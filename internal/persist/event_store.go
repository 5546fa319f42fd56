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

// EventStore bulk-inserts enriched driving events, duplicate-tolerant on
// (device_id, event_type, time).
type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

func (s *EventStore) Name() string {
	return "events"
}

func (s *EventStore) Write(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	const columns = 8
	placeholders := make([]string, 0, len(records))
	args := make([]interface{}, 0, len(records)*columns)

	n := 0
	for _, record := range records {
		var ev enrich.Event
		if err := json.Unmarshal(record.Value, &ev); err != nil {
			continue
		}

		ts, err := message.ParseTimestamp(ev.Timestamp)
		if err != nil {
			ts = ev.ProcessedAt
		}

		metadata, err := json.Marshal(ev.Metadata)
		if err != nil || ev.Metadata == nil {
			metadata = []byte("{}")
		}

		base := n * columns
		placeholders = append(placeholders, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8))

		args = append(args,
			ev.DeviceID,
			ev.EventType,
			ts.UTC(),
			ev.Severity,
			nullFloat(ev.SpeedBefore),
			nullFloat(ev.SpeedAfter),
			nullFloat(ev.AccelPeak),
			metadata,
		)
		n++
	}

	if n == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO events (
			device_id, event_type, time, severity,
			speed_before, speed_after, accel_peak, metadata
		) VALUES %s
		ON CONFLICT (device_id, event_type, time) DO NOTHING`,
		strings.Join(placeholders, ", "))

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert events batch: %w", err)
	}
	return nil
}
