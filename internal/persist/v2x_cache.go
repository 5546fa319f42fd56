package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fleetstream/internal/constants"
	"fleetstream/internal/enrich"
)

// V2XCache is the sink for the v2x channel. Advisories are last-value
// overwrites with the message's own TTL; the device's latest position is
// mirrored under a fixed key for the dashboard collaborator.
type V2XCache struct {
	client *redis.Client
}

func NewV2XCache(client *redis.Client) *V2XCache {
	return &V2XCache{client: client}
}

func (c *V2XCache) Name() string {
	return "v2x"
}

type cachedPosition struct {
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Timestamp time.Time `json:"timestamp"`
}

func (c *V2XCache) Write(ctx context.Context, records []Record) error {
	pipe := c.client.Pipeline()

	for _, record := range records {
		var v enrich.V2X
		if err := json.Unmarshal(record.Value, &v); err != nil {
			continue
		}

		ttl := time.Duration(v.TTLSeconds) * time.Second
		advisoryKey := fmt.Sprintf("%s%s:%s", constants.CacheKeyPrefixV2X, v.DeviceID, v.Type)
		pipe.Set(ctx, advisoryKey, record.Value, ttl)

		if v.Pos != nil {
			position, err := json.Marshal(cachedPosition{
				Lat:       v.Pos.Lat,
				Lon:       v.Pos.Lon,
				Timestamp: v.ProcessedAt,
			})
			if err == nil {
				positionKey := constants.CacheKeyPrefixPosition + v.DeviceID
				pipe.Set(ctx, positionKey, position, constants.PositionTTL)
			}
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write v2x cache batch: %w", err)
	}
	return nil
}
