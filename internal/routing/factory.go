package routing

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/wayfinder/internal/models"
	"googlemaps.github.io/maps"
)

// ProviderConfig holds configuration for creating a routing provider.
type ProviderConfig struct {
	Type      models.Provider // Type of provider to create
	APIKey    string          // API key (required by both providers)
	RateLimit int             // Rate limit for requests per second
	Logger    *slog.Logger    // Logger for the provider
}

// NewProvider creates a routing provider based on the provided configuration.
// It applies the Factory pattern to decouple provider instantiation from
// business logic.
//
// Supported provider types:
// - "google": Google Directions API (requires API key)
// - "openrouteservice": OpenRouteService directions API (requires API key)
//
// Returns an error if the provider type is unsupported or if provider creation fails.
func NewProvider(config ProviderConfig) (Provider, error) {
	switch config.Type {
	case models.ProviderGoogle:
		return newGoogleProvider(config)
	case models.ProviderORS:
		return newORSProvider(config)
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", config.Type)
	}
}

// newGoogleProvider creates a Google Directions routing provider.
func newGoogleProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("API key is required for Google provider")
	}

	clientOpts := []maps.ClientOption{
		maps.WithAPIKey(config.APIKey),
	}

	// Apply rate limiting if specified
	if config.RateLimit > 0 {
		clientOpts = append(clientOpts, maps.WithRateLimit(config.RateLimit))
	}

	client, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return NewGoogleProvider(client, config.Logger), nil
}

// newORSProvider creates an OpenRouteService routing provider.
func newORSProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("API key is required for OpenRouteService provider")
	}

	if config.RateLimit == 0 {
		config.RateLimit = 5
		config.Logger.Warn("Rate limit for OpenRouteService API not set, set a default value", "value", config.RateLimit)
	}

	return NewORSProvider(config.APIKey, config.RateLimit, config.Logger), nil
}
