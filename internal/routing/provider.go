package routing

import (
	"context"
	"net/http"

	"github.com/UnknownOlympus/wayfinder/internal/models"
)

// Provider is an interface that defines a method for computing a route.
// The Route method takes a context and a route query as input, and returns
// the normalized route result and an error if any occurs. Provider-specific
// response shapes are translated at the edge; nothing outside this package
// ever sees raw provider payloads.
type Provider interface {
	Name() models.Provider
	Route(ctx context.Context, query models.RouteQuery) (*models.RouteResult, error)
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
