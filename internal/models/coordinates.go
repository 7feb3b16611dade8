package models

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidCoordinate is returned when a coordinate is malformed.
// This is a permanent input error: callers must not retry it or proceed
// to any cache or network lookup.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Coordinate represents a geographical point defined by its latitude and longitude.
type Coordinate struct {
	Latitude  float64 // Latitude of the geographical point.
	Longitude float64 // Longitude of the geographical point.
}

// Validate reports whether the coordinate is a well-formed geographical point.
// Both components must be finite, with latitude in [-90, 90] and longitude
// in [-180, 180].
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0) ||
		math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0) {
		return fmt.Errorf("%w: latitude and longitude must be finite", ErrInvalidCoordinate)
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v is out of range [-90, 90]", ErrInvalidCoordinate, c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v is out of range [-180, 180]", ErrInvalidCoordinate, c.Longitude)
	}

	return nil
}
