package routing_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/UnknownOlympus/wayfinder/internal/metrics"
	"github.com/UnknownOlympus/wayfinder/internal/models"
	"github.com/UnknownOlympus/wayfinder/internal/routing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider is a scriptable direct provider for chain tests.
type fakeProvider struct {
	name   models.Provider
	result *models.RouteResult
	err    error
	// block makes Route wait for context cancellation, simulating a hung
	// upstream for timeout tests.
	block bool
	calls int
}

func (f *fakeProvider) Name() models.Provider { return f.name }

func (f *fakeProvider) Route(ctx context.Context, _ models.RouteQuery) (*models.RouteResult, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newChainMetrics(t *testing.T) *metrics.Metrics {
	t.Helper()
	return metrics.NewMetrics(prometheus.NewRegistry())
}

func staticCreds(creds routing.Credentials) func() routing.Credentials {
	return func() routing.Credentials { return creds }
}

func successfulRelay(t *testing.T, calls *int) *routing.RelayClient {
	t.Helper()
	mockClient := &mockHTTPClient{
		doFunc: func(_ *http.Request) (*http.Response, error) {
			*calls++
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewBufferString(`{"durationSec": 3600, "distanceMeters": 50000}`)),
			}, nil
		},
	}
	return routing.NewRelayClientWithClient(mockClient, "https://relay.example.com/route", slog.Default())
}

func failingRelay(t *testing.T, calls *int) *routing.RelayClient {
	t.Helper()
	mockClient := &mockHTTPClient{
		doFunc: func(_ *http.Request) (*http.Response, error) {
			*calls++
			return nil, assert.AnError
		},
	}
	return routing.NewRelayClientWithClient(mockClient, "https://relay.example.com/route", slog.Default())
}

func TestChain_Fetch(t *testing.T) {
	ctx := t.Context()
	logger := slog.Default()
	creds := routing.Credentials{GoogleAPIKey: "g-key"}

	query := models.RouteQuery{
		Origin:      models.Coordinate{Latitude: 50.4501, Longitude: 30.5234},
		Destination: models.Coordinate{Latitude: 49.8397, Longitude: 24.0297},
	}

	t.Run("direct success short-circuits", func(t *testing.T) {
		live := &models.RouteResult{
			DurationSec:    3600,
			DistanceMeters: 50000,
			Provider:       models.ProviderGoogle,
			CachedAt:       time.Now(),
		}
		direct := &fakeProvider{name: models.ProviderGoogle, result: live}
		relayCalls := 0
		relay := successfulRelay(t, &relayCalls)

		chain := routing.NewChain(
			staticCreds(creds),
			map[models.Provider]routing.Provider{models.ProviderGoogle: direct},
			relay, logger, newChainMetrics(t),
		)

		result, err := chain.Fetch(ctx, query)

		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, live, result)
		assert.Equal(t, 1, direct.calls)
		assert.Zero(t, relayCalls, "relay must not be attempted after direct success")
	})

	t.Run("direct failure falls through to relay", func(t *testing.T) {
		direct := &fakeProvider{name: models.ProviderGoogle, err: assert.AnError}
		relayCalls := 0
		relay := successfulRelay(t, &relayCalls)

		chain := routing.NewChain(
			staticCreds(creds),
			map[models.Provider]routing.Provider{models.ProviderGoogle: direct},
			relay, logger, newChainMetrics(t),
		)

		result, err := chain.Fetch(ctx, query)

		require.NoError(t, err)
		require.NotNil(t, result)
		// The relayed result keeps the originally selected provider's tag.
		assert.Equal(t, models.ProviderGoogle, result.Provider)
		assert.InEpsilon(t, 3600.0, result.DurationSec, 0.0001)
		assert.Equal(t, 1, direct.calls)
		assert.Equal(t, 1, relayCalls)
	})

	t.Run("direct timeout falls through to relay", func(t *testing.T) {
		direct := &fakeProvider{name: models.ProviderGoogle, block: true}
		relayCalls := 0
		relay := successfulRelay(t, &relayCalls)

		chain := routing.NewChain(
			staticCreds(creds),
			map[models.Provider]routing.Provider{models.ProviderGoogle: direct},
			relay, logger, newChainMetrics(t),
			routing.WithTimeouts(20*time.Millisecond, 20*time.Millisecond),
		)

		start := time.Now()
		result, err := chain.Fetch(ctx, query)

		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, models.ProviderGoogle, result.Provider)
		assert.Equal(t, 1, relayCalls)
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	})

	t.Run("both transports fail returns no result with last error", func(t *testing.T) {
		direct := &fakeProvider{name: models.ProviderGoogle, err: assert.AnError}
		relayCalls := 0
		relay := failingRelay(t, &relayCalls)

		chain := routing.NewChain(
			staticCreds(creds),
			map[models.Provider]routing.Provider{models.ProviderGoogle: direct},
			relay, logger, newChainMetrics(t),
		)

		result, err := chain.Fetch(ctx, query)

		assert.Nil(t, result)
		require.Error(t, err)
		require.ErrorIs(t, err, assert.AnError)
		assert.Equal(t, 1, direct.calls)
		assert.Equal(t, 1, relayCalls)
	})

	t.Run("no relay configured", func(t *testing.T) {
		direct := &fakeProvider{name: models.ProviderGoogle, err: assert.AnError}

		chain := routing.NewChain(
			staticCreds(creds),
			map[models.Provider]routing.Provider{models.ProviderGoogle: direct},
			nil, logger, newChainMetrics(t),
		)

		result, err := chain.Fetch(ctx, query)

		assert.Nil(t, result)
		require.ErrorIs(t, err, assert.AnError)
	})

	t.Run("no credentials skips chain entirely", func(t *testing.T) {
		direct := &fakeProvider{name: models.ProviderGoogle, result: &models.RouteResult{}}
		relayCalls := 0
		relay := successfulRelay(t, &relayCalls)

		chain := routing.NewChain(
			staticCreds(routing.Credentials{}),
			map[models.Provider]routing.Provider{models.ProviderGoogle: direct},
			relay, logger, newChainMetrics(t),
		)

		start := time.Now()
		result, err := chain.Fetch(ctx, query)

		require.NoError(t, err)
		assert.Nil(t, result)
		assert.Zero(t, direct.calls)
		assert.Zero(t, relayCalls)
		assert.Less(t, time.Since(start), time.Second, "the no-provider path must not consume timeouts")
	})

	t.Run("secondary provider selected when primary credential absent", func(t *testing.T) {
		orsResult := &models.RouteResult{
			DurationSec: 1200,
			Provider:    models.ProviderORS,
			CachedAt:    time.Now(),
		}
		google := &fakeProvider{name: models.ProviderGoogle, result: &models.RouteResult{}}
		ors := &fakeProvider{name: models.ProviderORS, result: orsResult}

		chain := routing.NewChain(
			staticCreds(routing.Credentials{ORSAPIKey: "o-key"}),
			map[models.Provider]routing.Provider{
				models.ProviderGoogle: google,
				models.ProviderORS:    ors,
			},
			nil, logger, newChainMetrics(t),
		)

		result, err := chain.Fetch(ctx, query)

		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, models.ProviderORS, result.Provider)
		assert.Zero(t, google.calls)
		assert.Equal(t, 1, ors.calls)
	})
}

func TestFallbackResult(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	result := routing.FallbackResult(now)

	require.NotNil(t, result)
	assert.True(t, result.IsFallback())
	assert.Zero(t, result.DurationSec)
	assert.Zero(t, result.DistanceMeters)
	assert.Empty(t, result.Instructions)
	assert.Empty(t, result.Geometry)
	assert.Equal(t, now, result.CachedAt)
}
