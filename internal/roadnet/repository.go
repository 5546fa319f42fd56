package roadnet

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	segmentsCollection  = "road_segments"
	geofencesCollection = "geofences"

	loadTimeout = 10 * time.Second
)

// MongoRepository reads the road-segment and geofence reference collections.
type MongoRepository struct {
	db *mongo.Database
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{db: db}
}

func (r *MongoRepository) LoadSegments(ctx context.Context) ([]Segment, error) {
	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()

	cursor, err := r.db.Collection(segmentsCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to query road segments: %w", err)
	}
	defer cursor.Close(ctx)

	var segments []Segment
	if err := cursor.All(ctx, &segments); err != nil {
		return nil, fmt.Errorf("failed to decode road segments: %w", err)
	}
	return segments, nil
}

func (r *MongoRepository) LoadGeofences(ctx context.Context) ([]Geofence, error) {
	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()

	cursor, err := r.db.Collection(geofencesCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to query geofences: %w", err)
	}
	defer cursor.Close(ctx)

	var geofences []Geofence
	if err := cursor.All(ctx, &geofences); err != nil {
		return nil, fmt.Errorf("failed to decode geofences: %w", err)
	}
	return geofences, nil
}
