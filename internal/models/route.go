package models

import "time"

// Provider identifies the routing service that produced a RouteResult.
type Provider string

const (
	// ProviderGoogle represents the Google Directions routing provider.
	ProviderGoogle Provider = "google"
	// ProviderORS represents the OpenRouteService routing provider.
	ProviderORS Provider = "openrouteservice"
	// ProviderFallback marks a synthesized result carrying no route metrics.
	ProviderFallback Provider = "fallback"
	// ProviderNone means no provider credential is configured.
	ProviderNone Provider = ""
)

// RouteQuery holds the origin and destination for a single route resolution.
// It is ephemeral and constructed per call.
type RouteQuery struct {
	Origin      Coordinate
	Destination Coordinate
}

// RouteResult is the normalized answer to a route query, regardless of which
// provider or transport produced it.
//
// When Provider is ProviderFallback, DurationSec and DistanceMeters carry no
// meaning and are zero: the caller must treat the result as "no metrics, use
// external navigation". Instructions and Geometry are opaque pass-through
// fields; the engine never interprets them.
type RouteResult struct {
	DurationSec    float64   `json:"duration_sec,omitempty"`
	DistanceMeters float64   `json:"distance_meters,omitempty"`
	Instructions   []string  `json:"instructions,omitempty"`
	Geometry       string    `json:"geometry,omitempty"`
	Provider       Provider  `json:"provider"`
	CachedAt       time.Time `json:"cached_at"`
}

// IsFallback reports whether the result was synthesized without any provider
// data. Fallback results must never be written to the route cache.
func (r *RouteResult) IsFallback() bool {
	return r.Provider == ProviderFallback
}

// CacheEntry is the persisted form of a RouteResult. StoredAt is the write
// time used for TTL comparison; it is independent of the result's CachedAt,
// which is rewritten to the retrieval time on every read.
type CacheEntry struct {
	Key      string      `json:"key"`
	Value    RouteResult `json:"value"`
	StoredAt time.Time   `json:"stored_at"`
}

// ResolutionState is the session-scoped state exposed to the screen layer.
// It is mutated only by the owning resolver and read by the UI as a snapshot.
type ResolutionState struct {
	IsLoading    bool         `json:"is_loading"`
	CurrentRoute *RouteResult `json:"current_route,omitempty"`
	Err          string       `json:"error,omitempty"`
	IsOffline    bool         `json:"is_offline"`
	RetryCount   int          `json:"retry_count"`
	LastRetryAt  time.Time    `json:"last_retry_at,omitempty"`
}
