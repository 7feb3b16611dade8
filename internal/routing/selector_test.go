package routing_test

import (
	"log/slog"
	"testing"

	"github.com/UnknownOlympus/wayfinder/internal/models"
	"github.com/UnknownOlympus/wayfinder/internal/routing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectProvider(t *testing.T) {
	t.Run("google preferred when both credentials present", func(t *testing.T) {
		creds := routing.Credentials{GoogleAPIKey: "g-key", ORSAPIKey: "o-key"}

		assert.Equal(t, models.ProviderGoogle, routing.SelectProvider(creds))
	})

	t.Run("google only", func(t *testing.T) {
		creds := routing.Credentials{GoogleAPIKey: "g-key"}

		assert.Equal(t, models.ProviderGoogle, routing.SelectProvider(creds))
	})

	t.Run("openrouteservice when google credential absent", func(t *testing.T) {
		creds := routing.Credentials{ORSAPIKey: "o-key"}

		assert.Equal(t, models.ProviderORS, routing.SelectProvider(creds))
	})

	t.Run("none when no credentials configured", func(t *testing.T) {
		assert.Equal(t, models.ProviderNone, routing.SelectProvider(routing.Credentials{}))
	})
}

func TestNewProvider(t *testing.T) {
	logger := slog.Default()

	t.Run("create Google provider successfully", func(t *testing.T) {
		config := routing.ProviderConfig{
			Type:      models.ProviderGoogle,
			APIKey:    "test-api-key",
			RateLimit: 10,
			Logger:    logger,
		}

		provider, err := routing.NewProvider(config)

		require.NoError(t, err)
		require.NotNil(t, provider)
		// Verify it's a GoogleProvider by type assertion
		_, ok := provider.(*routing.GoogleProvider)
		assert.True(t, ok, "expected provider to be *GoogleProvider")
	})

	t.Run("create Google provider without API key fails", func(t *testing.T) {
		config := routing.ProviderConfig{
			Type:   models.ProviderGoogle,
			APIKey: "",
			Logger: logger,
		}

		provider, err := routing.NewProvider(config)

		require.Error(t, err)
		require.Nil(t, provider)
		assert.Contains(t, err.Error(), "API key is required for Google provider")
	})

	t.Run("create OpenRouteService provider successfully", func(t *testing.T) {
		config := routing.ProviderConfig{
			Type:      models.ProviderORS,
			APIKey:    "test-api-key",
			RateLimit: 5,
			Logger:    logger,
		}

		provider, err := routing.NewProvider(config)

		require.NoError(t, err)
		require.NotNil(t, provider)
		_, ok := provider.(*routing.ORSProvider)
		assert.True(t, ok, "expected provider to be *ORSProvider")
	})

	t.Run("create OpenRouteService provider without API key fails", func(t *testing.T) {
		config := routing.ProviderConfig{
			Type:   models.ProviderORS,
			APIKey: "",
			Logger: logger,
		}

		provider, err := routing.NewProvider(config)

		require.Error(t, err)
		require.Nil(t, provider)
		assert.Contains(t, err.Error(), "API key is required for OpenRouteService provider")
	})

	t.Run("create OpenRouteService provider without rate limit", func(t *testing.T) {
		config := routing.ProviderConfig{
			Type:   models.ProviderORS,
			APIKey: "test-api-key",
			Logger: logger,
		}

		provider, err := routing.NewProvider(config)

		require.NoError(t, err)
		require.NotNil(t, provider)
	})

	t.Run("unsupported provider type", func(t *testing.T) {
		config := routing.ProviderConfig{
			Type:   models.Provider("unsupported"),
			Logger: logger,
		}

		provider, err := routing.NewProvider(config)

		require.Error(t, err)
		require.Nil(t, provider)
		assert.Contains(t, err.Error(), "unsupported provider type: unsupported")
	})
}

func TestProvider_Constants(t *testing.T) {
	// Verify that provider type constants are correctly defined
	assert.Equal(t, "google", string(models.ProviderGoogle))
	assert.Equal(t, "openrouteservice", string(models.ProviderORS))
	assert.Equal(t, "fallback", string(models.ProviderFallback))
	assert.Empty(t, string(models.ProviderNone))
}
