// README: Shared value objects (identifiers, geographic points) used across modules.
package types

import "fmt"

type ID string

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate reports whether the point lies inside the valid lat/lng ranges.
// NaN and infinities are rejected.
func (p Point) Validate() error {
	if !(p.Lat >= -90 && p.Lat <= 90) {
		return fmt.Errorf("lat %v out of range [-90,90]", p.Lat)
	}
	if !(p.Lng >= -180 && p.Lng <= 180) {
		return fmt.Errorf("lng %v out of range [-180,180]", p.Lng)
	}
	return nil
}

func (p Point) String() string {
	return fmt.Sprintf("(%.6f,%.6f)", p.Lat, p.Lng)
}
