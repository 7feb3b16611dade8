package routing

import "github.com/UnknownOlympus/wayfinder/internal/models"

// Credentials holds the provider API keys supplied by the credential store.
// Presence of a key is the only signal the selector acts on; the keys are
// otherwise opaque to the engine.
type Credentials struct {
	GoogleAPIKey string
	ORSAPIKey    string
}

// SelectProvider chooses which routing provider to use for a resolution.
// Google is always preferred over OpenRouteService when both credentials are
// configured. The priority order is a fixed business decision, not a
// performance optimization. ProviderNone short-circuits the transport chain
// entirely and jumps straight to the degraded synthesizer.
func SelectProvider(creds Credentials) models.Provider {
	switch {
	case creds.GoogleAPIKey != "":
		return models.ProviderGoogle
	case creds.ORSAPIKey != "":
		return models.ProviderORS
	default:
		return models.ProviderNone
	}
}
