// internal/domain/models/geo.go
package models

// GeoPoint is a GeoJSON Point as stored in MongoDB 2dsphere-indexed fields.
//
// Coordinates are [longitude, latitude] per the GeoJSON spec, which is the
// order Mongo's $near operator expects. Use NewGeoPoint and the Lat/Lng
// accessors rather than indexing Coordinates directly.
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

// NewGeoPoint builds a GeoJSON Point from a latitude/longitude pair.
func NewGeoPoint(lat, lng float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}}
}

// Lat returns the latitude, or 0 for a malformed point.
func (p GeoPoint) Lat() float64 {
	if len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[1]
}

// Lng returns the longitude, or 0 for a malformed point.
func (p GeoPoint) Lng() float64 {
	if len(p.Coordinates) < 1 {
		return 0
	}
	return p.Coordinates[0]
}

// IsZero reports whether the point carries no coordinates.
func (p GeoPoint) IsZero() bool {
	return len(p.Coordinates) == 0
}
