// Package observability provides hooks for metrics and request logging.
//
// Libraries emit events through package-level hooks that default to no-ops,
// so pkg/pipeline and pkg/cache carry no dependency on a metrics backend.
// The server registers a Prometheus implementation (see [NewMetrics]) at
// startup; the CLI leaves the defaults in place.
//
// # Usage
//
// Register hooks at application startup:
//
//	m := observability.NewMetrics(prometheus.NewRegistry())
//	observability.Register(m)
//
// Libraries call hooks to emit events:
//
//	observability.Minimize().OnMinimizeStart(ctx, cubes)
//	// ... run the minimizer ...
//	observability.Minimize().OnMinimizeComplete(ctx, before, after, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Minimize Hooks
// =============================================================================

// MinimizeHooks receives events from the minimization pipeline.
type MinimizeHooks interface {
	// Minimize events
	OnMinimizeStart(ctx context.Context, cubes int)
	OnMinimizeComplete(ctx context.Context, before, after int, duration time.Duration, err error)

	// OnPass is called after every pass of the reduction schedule.
	OnPass(ctx context.Context, phase string, dist, gain int)

	// OnVerifyComplete is called after an equivalence check.
	OnVerifyComplete(ctx context.Context, method string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP service.
type HTTPHooks interface {
	// OnRequest records an incoming request.
	OnRequest(ctx context.Context, method, route string)

	// OnResponse records the response written for a request.
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)

	// OnError records a request that failed with an error code.
	OnError(ctx context.Context, method, route string, code string)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopMinimizeHooks is a no-op implementation of MinimizeHooks.
type NoopMinimizeHooks struct{}

func (NoopMinimizeHooks) OnMinimizeStart(context.Context, int)                              {}
func (NoopMinimizeHooks) OnMinimizeComplete(context.Context, int, int, time.Duration, error) {}
func (NoopMinimizeHooks) OnPass(context.Context, string, int, int)                          {}
func (NoopMinimizeHooks) OnVerifyComplete(context.Context, string, time.Duration, error)    {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string)                {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	minimizeHooks MinimizeHooks = NoopMinimizeHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	hooksMu       sync.RWMutex
)

// SetMinimizeHooks registers custom minimize hooks.
// This should be called once at application startup before any pipeline runs.
func SetMinimizeHooks(h MinimizeHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		minimizeHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before serving.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Minimize returns the registered minimize hooks.
func Minimize() MinimizeHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return minimizeHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	minimizeHooks = NoopMinimizeHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
