package routing_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/UnknownOlympus/wayfinder/internal/models"
	"github.com/UnknownOlympus/wayfinder/internal/routing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelayClient_Route(t *testing.T) {
	ctx := t.Context()
	logger := slog.Default()
	relayURL := "https://backend.example.com/api/route"

	query := models.RouteQuery{
		Origin:      models.Coordinate{Latitude: 50.4501, Longitude: 30.5234},
		Destination: models.Coordinate{Latitude: 49.8397, Longitude: 24.0297},
	}

	t.Run("successful relayed routing", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				assert.Equal(t, http.MethodPost, req.Method)
				assert.Equal(t, relayURL, req.URL.String())
				assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

				body, err := io.ReadAll(req.Body)
				require.NoError(t, err)
				var parsed struct {
					Origin      struct{ Lat, Lon float64 } `json:"origin"`
					Destination struct{ Lat, Lon float64 } `json:"destination"`
					Provider    string                     `json:"provider"`
					Profile     string                     `json:"profile"`
				}
				require.NoError(t, json.Unmarshal(body, &parsed))
				assert.InEpsilon(t, 50.4501, parsed.Origin.Lat, 0.0001)
				assert.InEpsilon(t, 24.0297, parsed.Destination.Lon, 0.0001)
				assert.Equal(t, "google", parsed.Provider)
				assert.Equal(t, "driving-car", parsed.Profile)

				responseBody := `{"durationSec": 19440, "distanceMeters": 540300}`
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(responseBody)),
				}, nil
			},
		}

		relay := routing.NewRelayClientWithClient(mockClient, relayURL, logger)
		result, err := relay.Route(ctx, query, models.ProviderGoogle)

		require.NoError(t, err)
		require.NotNil(t, result)
		// The result carries the original provider's tag, not a "relay" tag.
		assert.Equal(t, models.ProviderGoogle, result.Provider)
		assert.InEpsilon(t, 19440.0, result.DurationSec, 0.0001)
		assert.InEpsilon(t, 540300.0, result.DistanceMeters, 0.0001)
	})

	t.Run("relay failure status", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusBadGateway,
					Body:       io.NopCloser(bytes.NewBufferString(`upstream unavailable`)),
				}, nil
			},
		}

		relay := routing.NewRelayClientWithClient(mockClient, relayURL, logger)
		result, err := relay.Route(ctx, query, models.ProviderORS)

		require.Error(t, err)
		assert.Nil(t, result)
		assert.ErrorContains(t, err, "status 502")
	})

	t.Run("network error", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return nil, assert.AnError
			},
		}

		relay := routing.NewRelayClientWithClient(mockClient, relayURL, logger)
		result, err := relay.Route(ctx, query, models.ProviderGoogle)

		require.Error(t, err)
		require.ErrorIs(t, err, assert.AnError)
		assert.Nil(t, result)
	})

	t.Run("empty response", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(`{}`)),
				}, nil
			},
		}

		relay := routing.NewRelayClientWithClient(mockClient, relayURL, logger)
		result, err := relay.Route(ctx, query, models.ProviderGoogle)

		require.Error(t, err)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, routing.ErrRelayEmptyResponse)
	})

	t.Run("invalid json", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(`not-json`)),
				}, nil
			},
		}

		relay := routing.NewRelayClientWithClient(mockClient, relayURL, logger)
		result, err := relay.Route(ctx, query, models.ProviderGoogle)

		require.Error(t, err)
		assert.Nil(t, result)
		assert.ErrorContains(t, err, "failed to decode")
	})
}
