package cache

import (
	"context"
	"time"

	"github.com/UnknownOlympus/wayfinder/internal/models"
	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore is an in-process Store implementation backed by go-cache.
// It offers no durability across restarts and is used when no database is
// configured, and as a lightweight double in tests. Expiry is handled lazily
// by go-cache on read, matching the get-and-expire contract.
type MemoryStore struct {
	entries *gocache.Cache
	ttl     time.Duration
}

// NewMemoryStore creates an in-memory Store with the default 24h TTL.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithTTL(DefaultTTL)
}

// NewMemoryStoreWithTTL creates an in-memory Store with a custom TTL.
// Tests use short TTLs to exercise expiry without simulated clocks.
func NewMemoryStoreWithTTL(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: gocache.New(ttl, 2*ttl),
		ttl:     ttl,
	}
}

// Get reads the entry for key; go-cache drops expired entries on access.
func (s *MemoryStore) Get(_ context.Context, key string) (*models.RouteResult, error) {
	raw, found := s.entries.Get(key)
	if !found {
		return nil, nil //nolint:nilnil // absence is not an error for a cache
	}

	entry, ok := raw.(models.CacheEntry)
	if !ok {
		return nil, nil //nolint:nilnil // foreign value under a route key, treat as absent
	}

	result := entry.Value
	result.CachedAt = time.Now()

	return &result, nil
}

// Put overwrites any existing entry unconditionally.
func (s *MemoryStore) Put(_ context.Context, key string, result *models.RouteResult) error {
	if result.IsFallback() {
		return ErrFallbackResult
	}

	entry := models.CacheEntry{Key: key, Value: *result, StoredAt: time.Now()}
	s.entries.Set(key, entry, s.ttl)

	return nil
}

// SetVoiceGuidance persists the voice-guidance preference flag for the
// lifetime of the process.
func (s *MemoryStore) SetVoiceGuidance(_ context.Context, enabled bool) error {
	s.entries.Set(voiceGuidanceKey, enabled, gocache.NoExpiration)
	return nil
}

// VoiceGuidance reads the voice-guidance preference flag; absent means off.
func (s *MemoryStore) VoiceGuidance(_ context.Context) (bool, error) {
	raw, found := s.entries.Get(voiceGuidanceKey)
	if !found {
		return false, nil
	}

	enabled, ok := raw.(bool)
	if !ok {
		return false, nil
	}

	return enabled, nil
}
