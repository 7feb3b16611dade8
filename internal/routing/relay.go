package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/UnknownOlympus/wayfinder/internal/models"
)

// defaultProfile is the routing profile forwarded to the relay.
const defaultProfile = "driving-car"

// RelayClient calls the backend relay, an intermediary that performs the
// provider request server-side. It is used when the direct device-to-provider
// call fails or times out. The relay returns only duration and distance; the
// caller stamps the originally selected provider's tag on the result.
type RelayClient struct {
	client  HTTPClient   // HTTP client for making requests
	baseURL string       // Relay endpoint URL
	log     *slog.Logger // Logger for logging operations
}

// ErrRelayEmptyResponse is returned when the relay responds without route metrics.
var ErrRelayEmptyResponse = errors.New("relay returned empty response")

type relayPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type relayRequest struct {
	Origin      relayPoint `json:"origin"`
	Destination relayPoint `json:"destination"`
	Provider    string     `json:"provider"`
	Profile     string     `json:"profile"`
}

type relayResponse struct {
	DurationSec    float64 `json:"durationSec"`
	DistanceMeters float64 `json:"distanceMeters"`
}

// NewRelayClient creates a relay client for the given endpoint URL.
func NewRelayClient(baseURL string, log *slog.Logger) *RelayClient {
	const timeout = 10

	return &RelayClient{
		client: &http.Client{
			Timeout: timeout * time.Second,
		},
		baseURL: baseURL,
		log:     log,
	}
}

// NewRelayClientWithClient allows injecting custom HTTP client.
func NewRelayClientWithClient(client HTTPClient, baseURL string, log *slog.Logger) *RelayClient {
	return &RelayClient{client: client, baseURL: baseURL, log: log}
}

// Route asks the relay to perform the provider request server-side and
// normalizes the reply. The result carries the tag of the provider the relay
// was asked to use, not a separate "relay" provider.
func (rc *RelayClient) Route(
	ctx context.Context,
	query models.RouteQuery,
	provider models.Provider,
) (*models.RouteResult, error) {
	rc.log.DebugContext(ctx, "Routing through backend relay", "provider", provider)

	payload, err := json.Marshal(relayRequest{
		Origin:      relayPoint{Lat: query.Origin.Latitude, Lon: query.Origin.Longitude},
		Destination: relayPoint{Lat: query.Destination.Latitude, Lon: query.Destination.Longitude},
		Provider:    string(provider),
		Profile:     defaultProfile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal relay request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rc.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := rc.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute relay request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		rc.log.ErrorContext(ctx, "Relay error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("relay returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed relayResponse
	if err = json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode relay response: %w", err)
	}

	if parsed.DurationSec == 0 && parsed.DistanceMeters == 0 {
		return nil, ErrRelayEmptyResponse
	}

	return &models.RouteResult{
		DurationSec:    parsed.DurationSec,
		DistanceMeters: parsed.DistanceMeters,
		Provider:       provider,
		CachedAt:       time.Now(),
	}, nil
}
