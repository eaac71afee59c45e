package observability

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/exorcism/pkg/errors"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Minimize hooks
	p := NoopMinimizeHooks{}
	p.OnMinimizeStart(ctx, 100)
	p.OnMinimizeComplete(ctx, 100, 40, time.Second, nil)
	p.OnPass(ctx, "light", 2, 3)
	p.OnVerifyComplete(ctx, "bdd", time.Second, nil)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "result")
	c.OnCacheMiss(ctx, "verify")
	c.OnCacheSet(ctx, "render", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "/v1/minimize")
	h.OnResponse(ctx, "POST", "/v1/minimize", 200, time.Second)
	h.OnError(ctx, "POST", "/v1/minimize", "INVALID_INPUT")
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Minimize().(NoopMinimizeHooks); !ok {
		t.Error("Minimize() should return NoopMinimizeHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customMinimize := &testMinimizeHooks{}
	SetMinimizeHooks(customMinimize)
	if Minimize() != customMinimize {
		t.Error("SetMinimizeHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Minimize().(NoopMinimizeHooks); !ok {
		t.Error("Reset() should restore NoopMinimizeHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testMinimizeHooks{}
	SetMinimizeHooks(custom)

	// Setting nil should be ignored
	SetMinimizeHooks(nil)

	if Minimize() != custom {
		t.Error("SetMinimizeHooks(nil) should be ignored")
	}

	Reset()
}

func TestMetrics(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	Register(m)
	defer Reset()

	Minimize().OnMinimizeStart(ctx, 10)
	if got := testutil.ToFloat64(m.inflight); got != 1 {
		t.Errorf("inflight = %v, want 1", got)
	}
	Minimize().OnMinimizeComplete(ctx, 10, 4, time.Millisecond, nil)
	Minimize().OnMinimizeStart(ctx, 10)
	Minimize().OnMinimizeComplete(ctx, 10, 0, time.Millisecond, errors.New(errors.ErrCodeTooManyCubes, "too many"))

	if got := testutil.ToFloat64(m.inflight); got != 0 {
		t.Errorf("inflight = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues(Succeeded)); got != 1 {
		t.Errorf("succeeded runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues(Failed)); got != 1 {
		t.Errorf("failed runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.cubesRemoved); got != 6 {
		t.Errorf("cubes removed = %v, want 6", got)
	}

	Minimize().OnPass(ctx, "heavy", 4, 2)
	Minimize().OnPass(ctx, "heavy", 4, 0)
	if got := testutil.ToFloat64(m.passGain.WithLabelValues("heavy", "4")); got != 2 {
		t.Errorf("pass gain = %v, want 2", got)
	}

	Minimize().OnVerifyComplete(ctx, "sat", time.Millisecond, errors.New(errors.ErrCodeNotEquivalent, "differs"))
	if got := testutil.ToFloat64(m.verifies.WithLabelValues("sat", "mismatch")); got != 1 {
		t.Errorf("mismatches = %v, want 1", got)
	}

	Cache().OnCacheHit(ctx, "result")
	Cache().OnCacheMiss(ctx, "result")
	Cache().OnCacheMiss(ctx, "result")
	Cache().OnCacheSet(ctx, "result", 512)
	if got := testutil.ToFloat64(m.cacheRequests.WithLabelValues("result", "miss")); got != 2 {
		t.Errorf("cache misses = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.cacheBytes.WithLabelValues("result")); got != 512 {
		t.Errorf("cache bytes = %v, want 512", got)
	}

	HTTP().OnResponse(ctx, "POST", "/v1/minimize", 413, time.Millisecond)
	HTTP().OnError(ctx, "POST", "/v1/minimize", "TOO_MANY_CUBES")
	if got := testutil.ToFloat64(m.requests.WithLabelValues("POST", "/v1/minimize", "413")); got != 1 {
		t.Errorf("requests = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.requestErrors.WithLabelValues("/v1/minimize", "TOO_MANY_CUBES")); got != 1 {
		t.Errorf("request errors = %v, want 1", got)
	}
}

// Test implementations
type testMinimizeHooks struct{ NoopMinimizeHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
