package roadnet

// Segment is one row of the road-segment reference table. Segments are
// immutable once loaded; the provider swaps whole snapshots on refresh.
type Segment struct {
	SegmentID  string  `bson:"segment_id" json:"segment_id"`
	SpeedLimit int     `bson:"speed_limit" json:"speed_limit"`
	RoadType   string  `bson:"road_type" json:"road_type"`
	TollZone   bool    `bson:"toll_zone" json:"toll_zone"`
	Lat        float64 `bson:"lat" json:"lat"`
	Lon        float64 `bson:"lon" json:"lon"`
}

// Geofence is a named circular zone. Radius is in degrees, matching the
// planar distance used for map matching.
type Geofence struct {
	Name   string  `bson:"name" json:"name"`
	Lat    float64 `bson:"lat" json:"lat"`
	Lon    float64 `bson:"lon" json:"lon"`
	Radius float64 `bson:"radius" json:"radius"`
}
