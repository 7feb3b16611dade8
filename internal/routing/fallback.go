package routing

import (
	"time"

	"github.com/UnknownOlympus/wayfinder/internal/models"
)

// FallbackResult synthesizes a provider-less route result with no duration or
// distance. It never fails and never blocks: it is the guaranteed terminal
// step of a resolution, so the caller always receives a usable value. The UI
// detects this case via the provider tag and offers external navigation
// instead of an ETA.
func FallbackResult(now time.Time) *models.RouteResult {
	return &models.RouteResult{
		Provider: models.ProviderFallback,
		CachedAt: now,
	}
}
