package routing

import (
	"context"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/wayfinder/internal/metrics"
	"github.com/UnknownOlympus/wayfinder/internal/models"
)

// Default per-attempt timeouts. Each attempt runs under its own deadline, so
// a slow direct call never consumes the relay attempt's budget. A timeout
// only stops the wait; the underlying request is not guaranteed to be
// aborted network-side.
const (
	DirectTimeout = 5 * time.Second
	RelayTimeout  = 3 * time.Second
)

// Chain selects a provider per fetch and attempts transports in a fixed
// order, short-circuiting on first success:
//
//  1. Direct call to the selected provider's public endpoint (DirectTimeout).
//  2. Relayed call through the backend intermediary (RelayTimeout).
//
// When both fail the chain returns no result rather than an error the caller
// must handle: its job is to attempt, not to guarantee. The last transient
// error is returned alongside the nil result for diagnostics only.
type Chain struct {
	creds         func() Credentials // credential store, consulted once per fetch
	providers     map[models.Provider]Provider
	relay         *RelayClient // may be nil when no relay is configured
	log           *slog.Logger
	metrics       *metrics.Metrics
	directTimeout time.Duration
	relayTimeout  time.Duration
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithTimeouts overrides the per-attempt timeouts. Used in tests to avoid
// multi-second waits.
func WithTimeouts(direct, relay time.Duration) ChainOption {
	return func(c *Chain) {
		c.directTimeout = direct
		c.relayTimeout = relay
	}
}

// NewChain creates a transport fallback chain over the given provider clients.
// creds is consulted on every fetch so the selection always reflects the
// current credential store.
func NewChain(
	creds func() Credentials,
	providers map[models.Provider]Provider,
	relay *RelayClient,
	log *slog.Logger,
	m *metrics.Metrics,
	opts ...ChainOption,
) *Chain {
	chain := &Chain{
		creds:         creds,
		providers:     providers,
		relay:         relay,
		log:           log,
		metrics:       m,
		directTimeout: DirectTimeout,
		relayTimeout:  RelayTimeout,
	}
	for _, opt := range opts {
		opt(chain)
	}

	return chain
}

// Fetch runs the provider selection and the transport attempts for one query.
// A (nil, nil) return means no provider credential is configured; (nil, err)
// means every transport failed, with err describing the last failure.
func (c *Chain) Fetch(ctx context.Context, query models.RouteQuery) (*models.RouteResult, error) {
	selected := SelectProvider(c.creds())
	if selected == models.ProviderNone {
		c.log.DebugContext(ctx, "No provider credentials configured, skipping transport chain")
		return nil, nil //nolint:nilnil // "no result" is a valid chain outcome, not an error
	}

	var lastErr error

	if direct, ok := c.providers[selected]; ok {
		result, err := c.attemptDirect(ctx, direct, query)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}

	if c.relay != nil {
		result, err := c.attemptRelay(ctx, selected, query)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}

	c.log.WarnContext(ctx, "All transports exhausted", "provider", selected, "error", lastErr)

	return nil, lastErr
}

func (c *Chain) attemptDirect(
	ctx context.Context,
	direct Provider,
	query models.RouteQuery,
) (*models.RouteResult, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.directTimeout)
	defer cancel()

	startTime := time.Now()
	result, err := direct.Route(attemptCtx, query)
	c.metrics.TransportSeconds.WithLabelValues(string(direct.Name()), "direct").
		Observe(time.Since(startTime).Seconds())

	if err != nil {
		c.metrics.TransportErrors.WithLabelValues("direct").Inc()
		c.log.WarnContext(ctx, "Direct provider call failed",
			"provider", direct.Name(), "error", err)
		return nil, err
	}

	return result, nil
}

func (c *Chain) attemptRelay(
	ctx context.Context,
	selected models.Provider,
	query models.RouteQuery,
) (*models.RouteResult, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.relayTimeout)
	defer cancel()

	startTime := time.Now()
	result, err := c.relay.Route(attemptCtx, query, selected)
	c.metrics.TransportSeconds.WithLabelValues(string(selected), "relay").
		Observe(time.Since(startTime).Seconds())

	if err != nil {
		c.metrics.TransportErrors.WithLabelValues("relay").Inc()
		c.log.WarnContext(ctx, "Relay call failed", "provider", selected, "error", err)
		return nil, err
	}

	return result, nil
}
