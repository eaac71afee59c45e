package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sugawarayuuta/sonnet"

	"github.com/matzehuels/exorcism/pkg/cache"
	"github.com/matzehuels/exorcism/pkg/cover"
	"github.com/matzehuels/exorcism/pkg/errors"
	"github.com/matzehuels/exorcism/pkg/esop"
	"github.com/matzehuels/exorcism/pkg/observability"
	"github.com/matzehuels/exorcism/pkg/render"
	"github.com/matzehuels/exorcism/pkg/verify"
)

// Cache TTLs per entry kind.
const (
	TTLResult = cache.DefaultTTL
	TTLVerify = 30 * 24 * time.Hour
	TTLRender = cache.DefaultTTL
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use it so the caching logic lives in one place.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides the per-kind cache TTLs when positive.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache("no cache given")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// resultEntry is the cached form of a minimization.
type resultEntry struct {
	Output     []byte    `json:"output"`
	Before     esop.Size `json:"before"`
	After      esop.Size `json:"after"`
	Iterations int       `json:"iterations"`
}

// Execute runs the complete parse → minimize → verify → encode pipeline
// with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result := &Result{}

	// Stage 1: Parse
	parseStart := time.Now()
	in, canonical, err := Parse(opts)
	if err != nil {
		return nil, err
	}
	result.Input = in
	result.InputHash = cache.Hash(canonical)
	result.Stats.ParseTime = time.Since(parseStart)

	opts.Logger.Debug("parsed cover",
		"inputs", in.Inputs,
		"outputs", in.Outputs,
		"cubes", in.Len(),
		"duration", result.Stats.ParseTime)

	// Stage 2 and 3: Lookup, Minimize
	key := r.Keyer.ResultKey(result.InputHash, opts.ResultKeyOpts())
	hit := false
	if !opts.Refresh {
		hit = r.lookupResult(ctx, key, opts.Format, result)
	}
	if !hit {
		if err := r.minimize(ctx, in, opts, result); err != nil {
			return nil, err
		}
	}
	result.CacheInfo.ResultHit = hit

	// Stage 4: Verify
	if m := opts.Method(); m != verify.None {
		verifyStart := time.Now()
		vhit, err := r.verifyCached(ctx, in, result.Cover, result.InputHash, cache.Hash(result.Output), m)
		result.Stats.VerifyTime = time.Since(verifyStart)
		if err != nil {
			return nil, err
		}
		result.Verified = m.Resolve(in.Inputs)
		result.CacheInfo.VerifyHit = vhit
		opts.Logger.Debug("verified result", "method", result.Verified, "cached", vhit, "duration", result.Stats.VerifyTime)
	}

	// Stage 5: Store
	if !hit {
		entry := resultEntry{
			Output:     result.Output,
			Before:     result.Stats.Before,
			After:      result.Stats.After,
			Iterations: result.Stats.Iterations,
		}
		if data, err := sonnet.Marshal(entry); err == nil {
			if err := r.Cache.Set(ctx, key, data, r.ttl(TTLResult)); err != nil {
				opts.Logger.Warn("caching result failed", "error", err)
			} else {
				observability.Cache().OnCacheSet(ctx, "result", len(data))
			}
		}
	}

	opts.Logger.Info("minimized cover",
		"cubes", fmt.Sprintf("%d -> %d", result.Stats.Before.Cubes, result.Stats.After.Cubes),
		"literals", fmt.Sprintf("%d -> %d", result.Stats.Before.Literals, result.Stats.After.Literals),
		"cached", hit,
		"duration", result.Stats.MinimizeTime)

	return result, nil
}

// lookupResult fills result from the cache entry under key. It reports a
// miss for absent, unreadable and undecodable entries alike.
func (r *Runner) lookupResult(ctx context.Context, key, format string, result *Result) bool {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "result")
		return false
	}
	var entry resultEntry
	if err := sonnet.Unmarshal(data, &entry); err != nil {
		observability.Cache().OnCacheMiss(ctx, "result")
		return false
	}
	c, err := cover.Decode(entry.Output, format)
	if err != nil {
		observability.Cache().OnCacheMiss(ctx, "result")
		return false
	}
	observability.Cache().OnCacheHit(ctx, "result")
	result.Cover = c
	result.Output = entry.Output
	result.Stats.Before = entry.Before
	result.Stats.After = entry.After
	result.Stats.Iterations = entry.Iterations
	return true
}

// minimize runs the minimizer and encodes its result.
func (r *Runner) minimize(ctx context.Context, in *cover.Cover, opts Options, result *Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := opts.Config(in.Inputs, in.Outputs)
	cfg.Progress = func(ps esop.PassStats) {
		observability.Minimize().OnPass(ctx, ps.Phase, ps.Dist, ps.Gain)
		if opts.Progress != nil {
			opts.Progress(ps)
		}
	}
	s, err := esop.New(cfg)
	if err != nil {
		return err
	}

	observability.Minimize().OnMinimizeStart(ctx, in.Len())
	start := time.Now()
	res, err := s.Run(in)
	result.Stats.MinimizeTime = time.Since(start)
	if err != nil {
		observability.Minimize().OnMinimizeComplete(ctx, in.Len(), in.Len(), result.Stats.MinimizeTime, err)
		return err
	}
	observability.Minimize().OnMinimizeComplete(ctx, res.Before.Cubes, res.After.Cubes, result.Stats.MinimizeTime, nil)

	result.Cover = res.Cover
	result.Stats.Before = res.Before
	result.Stats.After = res.After
	result.Stats.Iterations = res.Iterations
	result.Stats.Passes = res.Passes

	encodeStart := time.Now()
	out, err := cover.Encode(res.Cover, opts.Format)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encoding result")
	}
	result.Output = out
	result.Stats.EncodeTime = time.Since(encodeStart)
	return nil
}

// Verify checks that a and b compute the same function, consulting the
// cache for an earlier positive verdict. It reports whether the verdict
// came from the cache.
func (r *Runner) Verify(ctx context.Context, a, b *cover.Cover, m verify.Method) (bool, error) {
	ha, err := canonicalHash(a)
	if err != nil {
		return false, err
	}
	hb, err := canonicalHash(b)
	if err != nil {
		return false, err
	}
	return r.verifyCached(ctx, a, b, ha, hb, m)
}

func (r *Runner) verifyCached(ctx context.Context, a, b *cover.Cover, ha, hb string, m verify.Method) (bool, error) {
	m = m.Resolve(a.Inputs)
	key := r.Keyer.VerifyKey(ha, hb, string(m))
	if _, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "verify")
		return true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "verify")

	start := time.Now()
	err := verify.Check(ctx, a, b, m)
	observability.Minimize().OnVerifyComplete(ctx, string(m), time.Since(start), err)
	if err != nil {
		return false, err
	}
	// Only equivalences are cached; a mismatch is rechecked every time.
	if err := r.Cache.Set(ctx, key, []byte(m), r.ttl(TTLVerify)); err == nil {
		observability.Cache().OnCacheSet(ctx, "verify", len(m))
	}
	return false, nil
}

// Graph renders the adjacency graph of c with caching.
func (r *Runner) Graph(ctx context.Context, c *cover.Cover, format string, opts render.Options) ([]byte, bool, error) {
	if err := render.ValidateOptions(format, opts); err != nil {
		return nil, false, err
	}
	h, err := canonicalHash(c)
	if err != nil {
		return nil, false, err
	}
	key := r.Keyer.RenderKey(h, cache.RenderKeyOpts{Format: format, MaxDistance: opts.MaxDistance})
	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "render")
		return data, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "render")

	data, err := render.Render(ctx, render.ToDOT(c, opts), format)
	if err != nil {
		return nil, false, err
	}
	if format != render.FormatDOT {
		if err := r.Cache.Set(ctx, key, data, r.ttl(TTLRender)); err == nil {
			observability.Cache().OnCacheSet(ctx, "render", len(data))
		}
	}
	return data, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
