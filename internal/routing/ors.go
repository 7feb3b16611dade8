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
	"golang.org/x/time/rate"
)

// ORSBaseURL -- OpenRouteService directions endpoint for the driving profile.
const ORSBaseURL = "https://api.openrouteservice.org/v2/directions/driving-car"

// ORSProvider implements routing using the OpenRouteService API.
type ORSProvider struct {
	client  HTTPClient    // HTTP client for making requests
	baseURL string        // Base URL for the OpenRouteService API
	apiKey  string        // API key with directions access
	log     *slog.Logger  // Logger for logging operations
	limiter *rate.Limiter // Rate limiter
}

// Common errors for OpenRouteService provider.
var (
	ErrORSEmptyResponse = errors.New("openrouteservice API returned empty response")
	ErrORSUnauthorized  = errors.New("openrouteservice API unauthorized (invalid API key)")
)

// orsRequest is the request body for the directions endpoint.
// Coordinates are [longitude, latitude] pairs, origin first.
type orsRequest struct {
	Coordinates [][]float64 `json:"coordinates"`
}

// OpenRouteService directions response (simplified for the route-resolution use-case).
type orsResponse struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"` // meters
			Duration float64 `json:"duration"` // seconds
		} `json:"summary"`
		Segments []struct {
			Steps []struct {
				Instruction string `json:"instruction"`
			} `json:"steps"`
		} `json:"segments"`
		Geometry string `json:"geometry"` // encoded polyline
	} `json:"routes"`
}

// NewORSProvider creates a new OpenRouteService routing provider.
func NewORSProvider(apiKey string, rateLimit int, log *slog.Logger) *ORSProvider {
	const timeout = 10

	return &ORSProvider{
		client: &http.Client{
			Timeout: timeout * time.Second,
		},
		baseURL: ORSBaseURL,
		apiKey:  apiKey,
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
	}
}

// NewORSProviderWithClient allows injecting custom HTTP client.
func NewORSProviderWithClient(
	client HTTPClient,
	apiKey string,
	limiter *rate.Limiter,
	log *slog.Logger,
) *ORSProvider {
	return &ORSProvider{
		client:  client,
		baseURL: ORSBaseURL,
		apiKey:  apiKey,
		log:     log,
		limiter: limiter,
	}
}

// Name returns the provider tag stamped on results from this provider.
func (op *ORSProvider) Name() models.Provider {
	return models.ProviderORS
}

// Route computes a driving route between the query's coordinates using the
// OpenRouteService directions API and normalizes the first returned route.
func (op *ORSProvider) Route(ctx context.Context, query models.RouteQuery) (*models.RouteResult, error) {
	// Rate limit
	if err := op.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	op.log.DebugContext(ctx, "Routing using OpenRouteService",
		"origin", formatLatLng(query.Origin), "destination", formatLatLng(query.Destination))

	reqBody := orsRequest{
		Coordinates: [][]float64{
			{query.Origin.Longitude, query.Origin.Latitude},
			{query.Destination.Longitude, query.Destination.Latitude},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		op.baseURL,
		bytes.NewReader(payload),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Headers
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", op.apiKey)

	resp, err := op.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute routing request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// continue
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrORSUnauthorized
	default:
		body, _ := io.ReadAll(resp.Body)
		op.log.ErrorContext(ctx, "OpenRouteService API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("openrouteservice API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	op.log.DebugContext(ctx, "OpenRouteService raw response", "body", string(body))

	var parsed orsResponse
	if err = json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode openrouteservice response: %w", err)
	}

	if len(parsed.Routes) == 0 {
		return nil, ErrORSEmptyResponse
	}
	route := parsed.Routes[0]

	result := &models.RouteResult{
		DurationSec:    route.Summary.Duration,
		DistanceMeters: route.Summary.Distance,
		Geometry:       route.Geometry,
		Provider:       models.ProviderORS,
		CachedAt:       time.Now(),
	}
	for _, segment := range route.Segments {
		for _, step := range segment.Steps {
			if step.Instruction != "" {
				result.Instructions = append(result.Instructions, step.Instruction)
			}
		}
	}

	op.log.InfoContext(ctx, "OpenRouteService found route",
		"duration_sec", result.DurationSec, "distance_meters", result.DistanceMeters)

	return result, nil
}
