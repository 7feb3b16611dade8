package models

import (
	"fmt"
	"math"
)

// keyPrecision rounds coordinates to 4 decimal places (~11m resolution) so
// that near-identical queries collapse to one cache entry.
const keyPrecision = 1e4

// RouteKey derives a stable cache key for an (origin, destination) pair.
// Both coordinates are validated first; a validation failure is permanent and
// the caller must not proceed to any cache or network lookup.
//
// The key has the form "originLat,originLng_to_destLat,destLng" with every
// component rounded to 4 decimal places, so identical geographic intent always
// yields the same key regardless of floating-point representation noise.
func RouteKey(origin, destination Coordinate) (string, error) {
	if err := origin.Validate(); err != nil {
		return "", fmt.Errorf("origin: %w", err)
	}
	if err := destination.Validate(); err != nil {
		return "", fmt.Errorf("destination: %w", err)
	}

	return keyPart(origin) + "_to_" + keyPart(destination), nil
}

func keyPart(c Coordinate) string {
	return fmt.Sprintf("%.4f,%.4f", roundComponent(c.Latitude), roundComponent(c.Longitude))
}

// roundComponent rounds to key precision and normalizes negative zero, so
// values straddling zero within the rounding tolerance share one key.
func roundComponent(v float64) float64 {
	rounded := math.Round(v*keyPrecision) / keyPrecision
	if rounded == 0 {
		return 0
	}

	return rounded
}
