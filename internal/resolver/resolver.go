package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/UnknownOlympus/wayfinder/internal/cache"
	"github.com/UnknownOlympus/wayfinder/internal/metrics"
	"github.com/UnknownOlympus/wayfinder/internal/models"
	"github.com/UnknownOlympus/wayfinder/internal/routing"
)

const (
	// RetryCooldown is the hard minimum interval between manual retry
	// invocations. Calls inside the window are silent no-ops.
	RetryCooldown = 2000 * time.Millisecond

	// MaxRetryAttempts is the number of manual attempts after which the
	// exhaustion message is shown instead of a per-attempt one.
	MaxRetryAttempts = 3
)

// Advisory error messages surfaced to the screen layer. None of them block
// rendering; a fallback route may coexist with any of them.
const (
	msgOffline     = "offline: no cached route available, use external navigation"
	msgDegraded    = "network unavailable, using basic mode"
	msgExhausted   = "routing unavailable after %d attempts, keep using basic mode"
	msgRetryFailed = "retry %d/%d failed: %s"
)

// Fetcher runs provider selection and the transport fallback chain for one
// query. A (nil, nil) return means no provider is configured; (nil, err)
// means every transport failed with err as diagnostics.
type Fetcher interface {
	Fetch(ctx context.Context, query models.RouteQuery) (*models.RouteResult, error)
}

// ConnectivityMonitor supplies the read-only online signal. Any false value
// means the engine must not attempt network.
type ConnectivityMonitor interface {
	Online(ctx context.Context) bool
}

// OnlineFunc adapts a plain function to the ConnectivityMonitor interface.
type OnlineFunc func(ctx context.Context) bool

func (f OnlineFunc) Online(ctx context.Context) bool { return f(ctx) }

// Resolver orchestrates cache, provider chain and degraded synthesis into a
// single resolve operation, and owns the mutable session state read by the
// UI. One Resolver exists per active navigation session; concurrent sessions
// never share state.
type Resolver struct {
	log     *slog.Logger
	store   cache.Store
	fetcher Fetcher
	monitor ConnectivityMonitor
	metrics *metrics.Metrics

	// now is a clock function; overridable in tests.
	now func() time.Time

	mu    sync.Mutex
	state models.ResolutionState
}

// Option configures a Resolver.
type Option func(*Resolver)

// withClock injects a fake clock for unit testing.
func withClock(fn func() time.Time) Option {
	return func(r *Resolver) { r.now = fn }
}

// New creates a Resolver for one navigation session.
func New(
	log *slog.Logger,
	store cache.Store,
	fetcher Fetcher,
	monitor ConnectivityMonitor,
	m *metrics.Metrics,
	opts ...Option,
) *Resolver {
	resolver := &Resolver{
		log:     log,
		store:   store,
		fetcher: fetcher,
		monitor: monitor,
		metrics: m,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(resolver)
	}

	return resolver
}

// Resolve produces a best-effort route for the coordinate pair and records it
// in the session state. It always settles with a usable current route except
// on the permanent input-validation error:
//
//  1. Malformed coordinates fail fast before any cache or network I/O.
//  2. A fresh cache hit returns with zero network activity.
//  3. Offline with a cold cache synthesizes a fallback with an offline message.
//  4. A live chain result is written through to the cache and resets the
//     retry counter.
//  5. Chain exhaustion synthesizes a fallback with a non-fatal advisory.
func (r *Resolver) Resolve(ctx context.Context, origin, destination models.Coordinate) {
	r.setLoading(true)
	defer r.setLoading(false)

	key, err := models.RouteKey(origin, destination)
	if err != nil {
		r.log.ErrorContext(ctx, "Rejected route query with malformed coordinates", "error", err)
		r.metrics.ResolutionsTotal.WithLabelValues("invalid").Inc()
		r.setError(err.Error())
		return
	}

	cached, err := r.store.Get(ctx, key)
	if err != nil {
		r.log.WarnContext(ctx, "Cache read failed, continuing without it", "key", key, "error", err)
	}
	if cached != nil {
		r.log.DebugContext(ctx, "Serving route from cache", "key", key, "provider", cached.Provider)
		r.metrics.ResolutionsTotal.WithLabelValues("cache").Inc()
		r.setRoute(cached, "")
		return
	}

	if !r.monitor.Online(ctx) {
		r.log.InfoContext(ctx, "Offline with cold cache, synthesizing fallback", "key", key)
		r.metrics.ResolutionsTotal.WithLabelValues("fallback").Inc()
		r.setOffline(true)
		r.setRoute(routing.FallbackResult(r.now()), msgOffline)
		return
	}
	r.setOffline(false)

	query := models.RouteQuery{Origin: origin, Destination: destination}
	result, fetchErr := r.fetcher.Fetch(ctx, query)
	if result != nil {
		r.cacheResult(ctx, key, result)
		r.metrics.ResolutionsTotal.WithLabelValues("live").Inc()
		r.completeLive(result)
		return
	}

	if fetchErr != nil {
		r.log.WarnContext(ctx, "Transport chain exhausted, synthesizing fallback",
			"key", key, "error", fetchErr)
	}
	r.metrics.ResolutionsTotal.WithLabelValues("fallback").Inc()
	r.setRoute(routing.FallbackResult(r.now()), msgDegraded)
}

// Retry re-runs the network-only path, bypassing the cache read: a retry is
// explicitly "try the network again", even when a stale entry exists. Calls
// within RetryCooldown of the previous retry are rejected as silent no-ops.
// A live success writes through to the cache and resets the retry counter;
// a failure sets an attempt-numbered advisory message and leaves the current
// route untouched.
func (r *Resolver) Retry(ctx context.Context, origin, destination models.Coordinate) {
	r.mu.Lock()
	now := r.now()
	if !r.state.LastRetryAt.IsZero() && now.Sub(r.state.LastRetryAt) < RetryCooldown {
		r.mu.Unlock()
		r.log.DebugContext(ctx, "Retry suppressed by cooldown")
		return
	}
	r.state.RetryCount++
	r.state.LastRetryAt = now
	r.state.IsLoading = true
	attempt := r.state.RetryCount
	r.mu.Unlock()
	defer r.setLoading(false)

	r.metrics.Retries.Inc()
	r.log.InfoContext(ctx, "Manual retry", "attempt", attempt, "max", MaxRetryAttempts)

	key, err := models.RouteKey(origin, destination)
	if err != nil {
		r.log.ErrorContext(ctx, "Rejected retry with malformed coordinates", "error", err)
		r.setError(err.Error())
		return
	}

	if !r.monitor.Online(ctx) {
		r.setOffline(true)
		r.setError(r.retryFailureMessage(attempt, "offline"))
		return
	}
	r.setOffline(false)

	query := models.RouteQuery{Origin: origin, Destination: destination}
	result, fetchErr := r.fetcher.Fetch(ctx, query)
	if result != nil {
		r.cacheResult(ctx, key, result)
		r.metrics.ResolutionsTotal.WithLabelValues("live").Inc()
		r.completeLive(result)
		return
	}

	if fetchErr != nil {
		r.log.WarnContext(ctx, "Retry attempt failed", "attempt", attempt, "error", fetchErr)
	}
	r.setError(r.retryFailureMessage(attempt, "provider unavailable"))
}

// Clear resets the current route and error to empty. It does not touch the
// cache or the retry counter.
func (r *Resolver) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.CurrentRoute = nil
	r.state.Err = ""
}

// Snapshot returns a copy of the session state for rendering. The current
// route is copied so the UI cannot mutate engine state.
func (r *Resolver) Snapshot() models.ResolutionState {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := r.state
	if r.state.CurrentRoute != nil {
		route := *r.state.CurrentRoute
		snapshot.CurrentRoute = &route
	}

	return snapshot
}

func (r *Resolver) retryFailureMessage(attempt int, reason string) string {
	if attempt >= MaxRetryAttempts {
		return fmt.Sprintf(msgExhausted, MaxRetryAttempts)
	}

	return fmt.Sprintf(msgRetryFailed, attempt, MaxRetryAttempts, reason)
}

func (r *Resolver) cacheResult(ctx context.Context, key string, result *models.RouteResult) {
	if err := r.store.Put(ctx, key, result); err != nil {
		r.log.WarnContext(ctx, "Failed to cache route result", "key", key, "error", err)
	}
}

// completeLive records a successful live resolution: route set, error
// cleared, retry counter reset. Cache hits and fallback results never reset
// the counter.
func (r *Resolver) completeLive(result *models.RouteResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.CurrentRoute = result
	r.state.Err = ""
	r.state.RetryCount = 0
}

func (r *Resolver) setRoute(result *models.RouteResult, advisory string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.CurrentRoute = result
	r.state.Err = advisory
}

func (r *Resolver) setError(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.Err = msg
}

func (r *Resolver) setLoading(loading bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.IsLoading = loading
}

func (r *Resolver) setOffline(offline bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.IsOffline = offline
}
