package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"fleetstream/internal/message"
)

// DLQStore persists dead-letter records for offline inspection. Record ids
// are assigned at rejection time, so replays collide on the primary key and
// insert nothing.
type DLQStore struct {
	db *sql.DB
}

func NewDLQStore(db *sql.DB) *DLQStore {
	return &DLQStore{db: db}
}

func (s *DLQStore) Name() string {
	return "dlq"
}

func (s *DLQStore) Write(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	const columns = 7
	placeholders := make([]string, 0, len(records))
	args := make([]interface{}, 0, len(records)*columns)

	n := 0
	for _, record := range records {
		var r message.DLQRecord
		if err := json.Unmarshal(record.Value, &r); err != nil {
			continue
		}

		metadata, err := json.Marshal(r.Metadata)
		if err != nil || r.Metadata == nil {
			metadata = []byte("{}")
		}

		base := n * columns
		placeholders = append(placeholders, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7))

		args = append(args,
			r.ID,
			r.DeviceID,
			string(r.ErrorType),
			r.ErrorReason,
			[]byte(r.OriginalPayload),
			r.Timestamp.UTC(),
			metadata,
		)
		n++
	}

	if n == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO dead_letter_queue (
			id, device_id, error_type, error_reason,
			original_payload, time, metadata
		) VALUES %s
		ON CONFLICT (id) DO NOTHING`,
		strings.Join(placeholders, ", "))

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert dlq batch: %w", err)
	}
	return nil
}
