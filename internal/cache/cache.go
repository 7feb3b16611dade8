package cache

import (
	"context"
	"errors"
	"time"

	"github.com/UnknownOlympus/wayfinder/internal/models"
)

// DefaultTTL is the time-to-live for cache entries. An entry older than this
// is treated as absent and deleted lazily on read; there is no background
// eviction.
const DefaultTTL = 24 * time.Hour

// voiceGuidanceKey is the auxiliary preference key sharing the cache storage
// substrate. The resolution engine never reads it.
const voiceGuidanceKey = "voice_guidance"

// ErrFallbackResult is returned by Put when a caller attempts to cache a
// synthesized fallback result. Fallback results must never poison the cache.
var ErrFallbackResult = errors.New("fallback results must not be cached")

// Store is a persistent key->RouteResult store with a fixed time-to-live.
// It is the only component consulted while offline.
type Store interface {
	// Get reads the entry for key. It returns (nil, nil) when the entry is
	// absent or expired; an expired entry is deleted on read. The returned
	// result's CachedAt is rewritten to the retrieval time.
	Get(ctx context.Context, key string) (*models.RouteResult, error)

	// Put overwrites any existing entry unconditionally. It must never be
	// called with a fallback-provider result.
	Put(ctx context.Context, key string, result *models.RouteResult) error

	// SetVoiceGuidance persists the voice-guidance preference flag.
	SetVoiceGuidance(ctx context.Context, enabled bool) error

	// VoiceGuidance reads the voice-guidance preference flag; absent means off.
	VoiceGuidance(ctx context.Context) (bool, error)
}
