package roadnet

import (
	"context"
	"math"
	"sync"
	"time"

	"fleetstream/internal/logger"
	"fleetstream/pkg/metrics"
)

// MatchThreshold is the maximum planar distance, in degrees, at which a
// telemetry point is considered to lie on a segment (~1 km).
const MatchThreshold = 0.01

// Repository loads reference data from a backing store.
type Repository interface {
	LoadSegments(ctx context.Context) ([]Segment, error)
	LoadGeofences(ctx context.Context) ([]Geofence, error)
}

// Provider holds the current road-network snapshot. Reads take the lock
// briefly to grab the slice headers; enrichment then works on an immutable
// snapshot, so a concurrent refresh never changes data mid-message.
type Provider struct {
	mu        sync.RWMutex
	segments  []Segment
	geofences []Geofence

	repo   Repository
	logger logger.Logger
}

func NewProvider(repo Repository, log logger.Logger) *Provider {
	return &Provider{
		repo:   repo,
		logger: log,
	}
}

// Seed installs an initial snapshot without touching the repository. Used
// when reference data ships in the config file.
func (p *Provider) Seed(segments []Segment, geofences []Geofence) {
	p.mu.Lock()
	p.segments = segments
	p.geofences = geofences
	p.mu.Unlock()
	metrics.SetRoadSegmentsLoaded(len(segments))
}

// Refresh replaces the snapshot from the repository. An empty result is
// treated as a load problem and the previous snapshot is kept.
func (p *Provider) Refresh(ctx context.Context) error {
	if p.repo == nil {
		return nil
	}

	segments, err := p.repo.LoadSegments(ctx)
	if err != nil {
		return err
	}
	geofences, err := p.repo.LoadGeofences(ctx)
	if err != nil {
		return err
	}

	if len(segments) == 0 {
		p.logger.Warn("road segment refresh returned no rows, keeping previous snapshot")
		return nil
	}

	p.mu.Lock()
	p.segments = segments
	p.geofences = geofences
	p.mu.Unlock()

	metrics.SetRoadSegmentsLoaded(len(segments))
	p.logger.Infow("road network snapshot refreshed",
		"segments", len(segments),
		"geofences", len(geofences))
	return nil
}

// StartReloader refreshes the snapshot on a fixed interval until ctx ends.
func (p *Provider) StartReloader(ctx context.Context, interval time.Duration) {
	if p.repo == nil || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Refresh(ctx); err != nil {
				p.logger.Errorw("road network refresh failed", "error", err)
			}
		}
	}
}

func (p *Provider) snapshot() ([]Segment, []Geofence) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.segments, p.geofences
}

// SegmentCount reports the size of the current snapshot.
func (p *Provider) SegmentCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.segments)
}

// Nearest returns the segment closest to (lat, lon) and its planar distance
// in degrees. ok is false when the snapshot is empty.
func (p *Provider) Nearest(lat, lon float64) (Segment, float64, bool) {
	segments, _ := p.snapshot()
	if len(segments) == 0 {
		return Segment{}, 0, false
	}

	best := segments[0]
	bestDist := planarDistance(lat, lon, best.Lat, best.Lon)
	for _, seg := range segments[1:] {
		if d := planarDistance(lat, lon, seg.Lat, seg.Lon); d < bestDist {
			best = seg
			bestDist = d
		}
	}
	return best, bestDist, true
}

// GeofencesContaining returns the names of every zone whose radius covers the
// point, in configuration order.
func (p *Provider) GeofencesContaining(lat, lon float64) []string {
	_, geofences := p.snapshot()

	var names []string
	for _, gf := range geofences {
		if planarDistance(lat, lon, gf.Lat, gf.Lon) <= gf.Radius {
			names = append(names, gf.Name)
		}
	}
	return names
}

func planarDistance(lat1, lon1, lat2, lon2 float64) float64 {
	return math.Sqrt((lat1-lat2)*(lat1-lat2) + (lon1-lon2)*(lon1-lon2))
}
