package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/wayfinder/internal/models"
	"googlemaps.github.io/maps"
)

// GoogleProvider is a struct that holds the client for Google Maps API
// and a logger for logging purposes. It is used to compute routes via
// the Google Directions service.
type GoogleProvider struct {
	client GoogleAPIClient // client is the Google Maps API client
	log    *slog.Logger    // log is the logger for logging operations
}

type GoogleAPIClient interface {
	Directions(ctx context.Context, r *maps.DirectionsRequest) ([]maps.Route, []maps.GeocodedWaypoint, error)
}

// ErrGoogleEmptyResponse is returned when the Directions API responds with no routes.
var ErrGoogleEmptyResponse = errors.New("get empty response from Google Directions API")

// NewGoogleProvider initializes a new GoogleProvider with the given API client and logger.
func NewGoogleProvider(client GoogleAPIClient, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, log: log}
}

// Name returns the provider tag stamped on results from this provider.
func (gp *GoogleProvider) Name() models.Provider {
	return models.ProviderGoogle
}

// Route computes driving duration and distance between the query's origin and
// destination using the Google Directions API, and normalizes the first leg of
// the first returned route into a RouteResult. Step instructions and the
// overview polyline are carried opaquely when present.
func (gp *GoogleProvider) Route(ctx context.Context, query models.RouteQuery) (*models.RouteResult, error) {
	gp.log.DebugContext(ctx, "Routing using Google Directions",
		"origin", formatLatLng(query.Origin), "destination", formatLatLng(query.Destination))

	req := &maps.DirectionsRequest{
		Origin:      formatLatLng(query.Origin),
		Destination: formatLatLng(query.Destination),
		Mode:        maps.TravelModeDriving,
	}

	routes, _, err := gp.client.Directions(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch directions: %w", err)
	}

	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return nil, ErrGoogleEmptyResponse
	}
	leg := routes[0].Legs[0]

	result := &models.RouteResult{
		DurationSec:    leg.Duration.Seconds(),
		DistanceMeters: float64(leg.Distance.Meters),
		Geometry:       routes[0].OverviewPolyline.Points,
		Provider:       models.ProviderGoogle,
		CachedAt:       time.Now(),
	}
	for _, step := range leg.Steps {
		if step.HTMLInstructions != "" {
			result.Instructions = append(result.Instructions, step.HTMLInstructions)
		}
	}

	return result, nil
}

func formatLatLng(c models.Coordinate) string {
	return fmt.Sprintf("%f,%f", c.Latitude, c.Longitude)
}
