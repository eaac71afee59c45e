package esop

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/exorcism/pkg/esop/cube"
	"github.com/matzehuels/exorcism/pkg/esop/link"
	"github.com/matzehuels/exorcism/pkg/errors"
)

const (
	// DefaultMaxCubes bounds the size of a starting cover.
	DefaultMaxCubes = 20000
	// DefaultQuality is the quality level used by the command line tools.
	DefaultQuality = 2
	// DefaultMaxMemory bounds the arena and queue allocation of one run.
	DefaultMaxMemory int64 = 2 << 30

	// extraCubes is the pool headroom above the starting cover: one full
	// distance-4 rewrite materializes 32 raw cubes while the rewritten pair
	// is detached.
	extraCubes = 40
)

// Config configures a [Session].
type Config struct {
	Inputs  int
	Outputs int

	// MaxCubes rejects larger starting covers. Zero means DefaultMaxCubes.
	MaxCubes int
	// Quality controls how many iterations without improvement are
	// tolerated before the search stops.
	Quality int
	// Verbosity 1 logs one line per iteration, 2 also logs every pass.
	Verbosity int

	// AlternateCost ranks rewrites by Cost instead of literal count.
	AlternateCost bool
	// Cost is the alternate per-cube cost. Nil means cube.QuantumCost.
	Cost cube.CostFunc
	// Order is the group visiting order for distances 2, 3 and 4.
	Order [3]link.Order
	// Schedule overrides DefaultSchedule(Quality).
	Schedule *Schedule

	// MaxMemory bounds the allocation of one run. Zero means
	// DefaultMaxMemory, negative means unlimited.
	MaxMemory int64

	Logger *log.Logger
	// Progress, when set, is called after every pass.
	Progress func(PassStats)
}

func (c *Config) validate() error {
	if err := errors.ValidateDimensions(c.Inputs, c.Outputs); err != nil {
		return err
	}
	if err := errors.ValidateQuality(c.Quality); err != nil {
		return err
	}
	if err := errors.ValidateVerbosity(c.Verbosity); err != nil {
		return err
	}
	if c.MaxCubes < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "max cubes must be >= 0, got %d", c.MaxCubes)
	}
	if c.Schedule != nil {
		if err := c.Schedule.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.MaxCubes == 0 {
		c.MaxCubes = DefaultMaxCubes
	}
	if c.Cost == nil {
		c.Cost = cube.QuantumCost
	}
	if c.MaxMemory == 0 {
		c.MaxMemory = DefaultMaxMemory
	}
	if c.Logger == nil {
		c.Logger = log.New(io.Discard)
	}
}
