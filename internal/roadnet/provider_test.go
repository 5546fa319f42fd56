package roadnet

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetstream/internal/logger"
)

func seededProvider() *Provider {
	p := NewProvider(nil, logger.NopLogger())
	p.Seed(
		[]Segment{
			{SegmentID: "SEG_A", SpeedLimit: 50, RoadType: "urban", Lat: 20.2961, Lon: 85.8245},
			{SegmentID: "SEG_B", SpeedLimit: 100, RoadType: "highway", Lat: 20.35, Lon: 85.9},
		},
		[]Geofence{
			{Name: "city_center", Lat: 20.2961, Lon: 85.8245, Radius: 0.005},
			{Name: "industrial_zone", Lat: 20.30, Lon: 85.83, Radius: 0.008},
		},
	)
	return p
}

func TestNearestReturnsClosestSegment(t *testing.T) {
	p := seededProvider()

	seg, dist, ok := p.Nearest(20.2961, 85.8245)
	require.True(t, ok)
	assert.Equal(t, "SEG_A", seg.SegmentID)
	assert.Zero(t, dist)

	seg, _, ok = p.Nearest(20.35, 85.89)
	require.True(t, ok)
	assert.Equal(t, "SEG_B", seg.SegmentID)
}

func TestNearestOnEmptySnapshot(t *testing.T) {
	p := NewProvider(nil, logger.NopLogger())

	_, _, ok := p.Nearest(20, 85)
	assert.False(t, ok)
}

func TestGeofencesContaining(t *testing.T) {
	p := seededProvider()

	assert.Equal(t, []string{"city_center"}, p.GeofencesContaining(20.2961, 85.8245))
	assert.Empty(t, p.GeofencesContaining(21, 86))
}

type staticRepo struct {
	segments  []Segment
	geofences []Geofence
	err       error
}

func (r *staticRepo) LoadSegments(context.Context) ([]Segment, error) {
	return r.segments, r.err
}

func (r *staticRepo) LoadGeofences(context.Context) ([]Geofence, error) {
	return r.geofences, r.err
}

func TestRefreshSwapsSnapshot(t *testing.T) {
	repo := &staticRepo{
		segments: []Segment{{SegmentID: "SEG_NEW", SpeedLimit: 30, RoadType: "residential", Lat: 1, Lon: 1}},
	}
	p := NewProvider(repo, logger.NopLogger())

	require.NoError(t, p.Refresh(context.Background()))
	assert.Equal(t, 1, p.SegmentCount())

	seg, _, ok := p.Nearest(1, 1)
	require.True(t, ok)
	assert.Equal(t, "SEG_NEW", seg.SegmentID)
}

func TestRefreshKeepsSnapshotOnEmptyResult(t *testing.T) {
	repo := &staticRepo{}
	p := NewProvider(repo, logger.NopLogger())
	p.Seed([]Segment{{SegmentID: "SEG_OLD", SpeedLimit: 50, RoadType: "urban"}}, nil)

	require.NoError(t, p.Refresh(context.Background()))
	assert.Equal(t, 1, p.SegmentCount())
}

func TestRefreshPropagatesLoadError(t *testing.T) {
	repo := &staticRepo{err: fmt.Errorf("connection refused")}
	p := NewProvider(repo, logger.NopLogger())

	assert.Error(t, p.Refresh(context.Background()))
}
