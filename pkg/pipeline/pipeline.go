// Package pipeline provides the minimization pipeline shared by the CLI and
// the HTTP service.
//
// # Architecture
//
// A run goes through five stages:
//
//  1. Parse: decode the input cover (PLA or JSON)
//  2. Lookup: look the canonical cover up in the result cache
//  3. Minimize: run the ESOP minimizer on a cache miss
//  4. Verify: optionally check the result against the input
//  5. Encode: write the result in the requested format and store it
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.DefaultOptions()
//	opts.Input = data
//	opts.Verify = "auto"
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.Stdout.Write(result.Output)
package pipeline

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/exorcism/pkg/cache"
	"github.com/matzehuels/exorcism/pkg/cover"
	"github.com/matzehuels/exorcism/pkg/errors"
	"github.com/matzehuels/exorcism/pkg/esop"
	"github.com/matzehuels/exorcism/pkg/esop/link"
	"github.com/matzehuels/exorcism/pkg/verify"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultFormat is the default output format.
	DefaultFormat = "pla"

	// DefaultVerify is the default verification method.
	DefaultVerify = string(verify.None)

	// DefaultOrder is the default group visiting order for every distance.
	DefaultOrder = "min"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Input options
	Input       []byte       `json:"-"`
	Cover       *cover.Cover `json:"-"` // Already parsed input; takes precedence over Input
	InputFormat string       `json:"input_format,omitempty"`

	// Minimize options
	Quality       int            `json:"quality"`
	AlternateCost bool           `json:"alt_cost,omitempty"`
	MaxCubes      int            `json:"max_cubes,omitempty"`
	Order         []string       `json:"order,omitempty"` // Group order for distances 2, 3 and 4
	Schedule      *esop.Schedule `json:"schedule,omitempty"`
	Verbosity     int            `json:"verbosity,omitempty"`

	// Output options
	Format  string `json:"format,omitempty"`
	Verify  string `json:"verify,omitempty"`
	Refresh bool   `json:"refresh,omitempty"` // Skip the cache lookup

	// Runtime options (not serialized)
	MaxMemory int64                `json:"-"`
	Logger    *log.Logger          `json:"-"`
	Progress  func(esop.PassStats) `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
	orders    [3]link.Order
	method    verify.Method
}

// DefaultOptions returns options with the default quality, format and
// verification method.
func DefaultOptions() Options {
	return Options{
		Quality: esop.DefaultQuality,
		Format:  DefaultFormat,
		Verify:  DefaultVerify,
	}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Input is the parsed input cover.
	Input *cover.Cover

	// Cover is the minimized cover.
	Cover *cover.Cover

	// InputHash is the content hash of the canonical input text.
	InputHash string

	// Output is Cover encoded in Options.Format.
	Output []byte

	// Verified is the method that checked the result, empty when none ran.
	Verified verify.Method

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Before       esop.Size        `json:"before"`
	After        esop.Size        `json:"after"`
	Iterations   int              `json:"iterations"`
	Passes       []esop.PassStats `json:"passes,omitempty"`
	ParseTime    time.Duration    `json:"parse_time"`
	MinimizeTime time.Duration    `json:"minimize_time"`
	VerifyTime   time.Duration    `json:"verify_time"`
	EncodeTime   time.Duration    `json:"encode_time"`
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ResultHit bool `json:"result_hit"` // Whether the minimized cover came from cache
	VerifyHit bool `json:"verify_hit"` // Whether the equivalence verdict came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks every field and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Input == nil && o.Cover == nil {
		return errors.New(errors.ErrCodeInvalidInput, "input cover is required")
	}
	if o.InputFormat != "" {
		if err := errors.ValidateFormat(o.InputFormat); err != nil {
			return err
		}
	}
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	o.Format = strings.ToLower(o.Format)
	if err := errors.ValidateFormat(o.Format); err != nil {
		return err
	}
	if err := errors.ValidateQuality(o.Quality); err != nil {
		return err
	}
	if err := errors.ValidateVerbosity(o.Verbosity); err != nil {
		return err
	}
	if o.MaxCubes < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "max cubes must be >= 0, got %d", o.MaxCubes)
	}
	if o.Verify == "" {
		o.Verify = DefaultVerify
	}
	m, err := verify.ParseMethod(o.Verify)
	if err != nil {
		return err
	}
	o.method = m

	if len(o.Order) > 3 {
		return errors.New(errors.ErrCodeInvalidConfig, "order takes at most 3 entries, got %d", len(o.Order))
	}
	for i := range o.orders {
		name := DefaultOrder
		if i < len(o.Order) {
			name = o.Order[i]
		} else if len(o.Order) > 0 {
			name = o.Order[len(o.Order)-1]
		}
		ord, err := link.ParseOrder(name)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "order")
		}
		o.orders[i] = ord
	}
	if o.Schedule != nil {
		if err := o.Schedule.Validate(); err != nil {
			return err
		}
	}

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// Method returns the verification method after ValidateAndSetDefaults.
func (o *Options) Method() verify.Method { return o.method }

// Config returns the minimizer configuration for a cover of the given shape.
func (o *Options) Config(inputs, outputs int) esop.Config {
	return esop.Config{
		Inputs:        inputs,
		Outputs:       outputs,
		MaxCubes:      o.MaxCubes,
		Quality:       o.Quality,
		Verbosity:     o.Verbosity,
		AlternateCost: o.AlternateCost,
		Order:         o.orders,
		Schedule:      o.Schedule,
		MaxMemory:     o.MaxMemory,
		Logger:        o.Logger,
	}
}

// ResultKeyOpts returns cache key options for the minimized cover.
func (o *Options) ResultKeyOpts() cache.ResultKeyOpts {
	order := make([]string, len(o.orders))
	for i, ord := range o.orders {
		order[i] = ord.String()
	}
	opts := cache.ResultKeyOpts{
		Quality:       o.Quality,
		AlternateCost: o.AlternateCost,
		MaxCubes:      o.MaxCubes,
		Order:         strings.Join(order, ","),
		Format:        o.Format,
	}
	if o.Schedule != nil {
		opts.Schedule = scheduleText(*o.Schedule)
	}
	return opts
}

func scheduleText(s esop.Schedule) string {
	var b strings.Builder
	for _, steps := range [][]esop.Step{s.Light, s.Heavy, s.Final} {
		for i, st := range steps {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(st.String())
		}
		b.WriteByte('|')
	}
	fmt.Fprintf(&b, "%d|%d", s.HeavyAfter, s.StopAfter)
	return b.String()
}
