// Package esop minimizes multi-output exclusive-sum-of-products covers.
//
// The minimizer keeps the cover as a set of packed cubes and repeatedly
// rewrites pairs of cubes at distance 2, 3 or 4 into equivalent groups of
// cubes (ExorLink), keeping a rewrite when some cube of the group merges
// with or cancels against the rest of the cover. Every rewrite preserves the
// function computed by the cover, and no rewrite increases the number of
// cubes.
//
// A [Session] holds a validated [Config]; [Session.Run] minimizes one cover:
//
//	s, err := esop.New(esop.Config{Inputs: 4, Outputs: 1, Quality: 2})
//	if err != nil {
//		return err
//	}
//	res, err := s.Run(c)
//
// Runs are single-threaded. A Session may be shared by goroutines running
// different covers.
package esop

import (
	stderrors "errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/exorcism/pkg/cover"
	"github.com/matzehuels/exorcism/pkg/esop/cube"
	"github.com/matzehuels/exorcism/pkg/esop/link"
	"github.com/matzehuels/exorcism/pkg/esop/store"
	"github.com/matzehuels/exorcism/pkg/errors"
)

// Session minimizes covers of one shape.
type Session struct {
	cfg    Config
	layout cube.Layout
	sched  Schedule
}

// New validates cfg and returns a session for covers of its shape.
func New(cfg Config) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	s := &Session{cfg: cfg, layout: cube.NewLayout(cfg.Inputs, cfg.Outputs)}
	if cfg.Schedule != nil {
		s.sched = *cfg.Schedule
	} else {
		s.sched = DefaultSchedule(cfg.Quality)
	}
	return s, nil
}

// Config returns the configuration with defaults applied.
func (s *Session) Config() Config { return s.cfg }

// Schedule returns the schedule runs follow.
func (s *Session) Schedule() Schedule { return s.sched }

// Size is the cube count, literal count and cost of a cover.
type Size struct {
	Cubes    int `json:"cubes"`
	Literals int `json:"literals"`
	Cost     int `json:"cost"`
}

// Timers break down the wall time of a run.
type Timers struct {
	Load     time.Duration `json:"load"`
	Minimize time.Duration `json:"minimize"`
	Extract  time.Duration `json:"extract"`
	Total    time.Duration `json:"total"`
}

// Result is the outcome of [Session.Run].
type Result struct {
	Cover      *cover.Cover `json:"-"`
	Before     Size         `json:"before"`
	After      Size         `json:"after"`
	Iterations int          `json:"iterations"`
	Passes     []PassStats  `json:"passes,omitempty"`
	Timers     Timers       `json:"timers"`
}

// Run minimizes c and returns an equivalent cover with at most as many
// cubes. c is not modified. Terms that drive no output are dropped.
//
// c must be valid for the session's shape (see [cover.Cover.Validate]).
// Run fails with [errors.ErrCodeTooManyCubes] before allocating anything
// when c has more than MaxCubes terms, and with [errors.ErrCodeOutOfMemory]
// when the pool and queues would exceed MaxMemory.
func (s *Session) Run(c *cover.Cover) (*Result, error) {
	start := time.Now()
	if c.Inputs != s.cfg.Inputs || c.Outputs != s.cfg.Outputs {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"cover has %d inputs and %d outputs, session expects %d and %d",
			c.Inputs, c.Outputs, s.cfg.Inputs, s.cfg.Outputs)
	}
	if n := len(c.Terms); n > s.cfg.MaxCubes {
		return nil, errors.New(errors.ErrCodeTooManyCubes, "cover has %d cubes, limit is %d", n, s.cfg.MaxCubes)
	}

	n := 0
	for _, t := range c.Terms {
		if len(t.Outputs) > 0 {
			n++
		}
	}
	st, err := store.New(store.Options{
		Layout:   s.layout,
		Capacity: n + extraCubes,
		Cost:     s.cfg.Cost,
		MaxBytes: max(s.cfg.MaxMemory, 0),
	})
	if err != nil {
		if stderrors.Is(err, store.ErrOutOfMemory) {
			return nil, errors.Wrap(errors.ErrCodeOutOfMemory, err, "allocating %d cubes", n+extraCubes)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "allocating store")
	}
	defer st.Close()

	res := &Result{Before: s.sizeOf(c)}
	m := &minimizer{
		st:  st,
		lk:  link.New(st, s.cfg.AlternateCost, s.cfg.Order),
		cfg: &s.cfg,
		log: s.cfg.Logger,
		res: res,
	}

	m.load(c)
	res.Timers.Load = time.Since(start)
	if s.cfg.Verbosity > 0 {
		lits, cost := st.Totals()
		m.log.Info("loaded cover", "cubes", res.Before.Cubes, "after_merge", st.Len(), "literals", lits, "cost", cost)
	}

	t := time.Now()
	m.reduce(s.sched)
	res.Timers.Minimize = time.Since(t)

	t = time.Now()
	res.Cover = m.extract(c)
	res.After = s.sizeOf(res.Cover)
	res.Timers.Extract = time.Since(t)
	res.Timers.Total = time.Since(start)

	if s.cfg.Verbosity > 0 {
		m.log.Info("minimized",
			"cubes", res.After.Cubes,
			"literals", res.After.Literals,
			"cost", res.After.Cost,
			"iterations", res.Iterations,
			"elapsed", res.Timers.Total.Round(time.Millisecond))
	}
	return res, nil
}

func (s *Session) sizeOf(c *cover.Cover) Size {
	var sz Size
	for _, t := range c.Terms {
		if len(t.Outputs) == 0 {
			continue
		}
		negs := 0
		for _, l := range t.Lits {
			if l.IsNeg() {
				negs++
			}
		}
		sz.Cubes++
		sz.Literals += len(t.Lits)
		sz.Cost += s.cfg.Cost(len(t.Lits), negs)
	}
	return sz
}

// minimizer is the state of one run.
type minimizer struct {
	st  *store.Store
	lk  *link.Engine
	cfg *Config
	log *log.Logger
	res *Result

	iter  int
	phase string
}

// load packs the terms of c into the store. Each new cube is compared with
// the cubes loaded before it, so duplicates cancel and distance-1 pairs
// merge right away; only distance-2 pairs are queued.
func (m *minimizer) load(c *cover.Cover) {
	m.st.Enable(store.Dist2)
	layout := m.st.Layout()
	for _, t := range c.Terms {
		if len(t.Outputs) == 0 {
			continue
		}
		r := m.st.Get()
		b := m.st.Bits(r)
		layout.Clear(b)
		for _, l := range t.Lits {
			if l.IsNeg() {
				cube.Set(b, l.Var(), cube.Neg)
			} else {
				cube.Set(b, l.Var(), cube.Pos)
			}
		}
		for _, o := range t.Outputs {
			cube.SetOutput(b, o)
		}
		m.st.Refresh(r)
		m.st.FindClose(r, true)
		m.st.Forget()
	}
}

// extract converts the active cubes back into a cover carrying the names of
// the input cover.
func (m *minimizer) extract(in *cover.Cover) *cover.Cover {
	out := cover.New(in.Inputs, in.Outputs)
	out.InputNames = append([]string(nil), in.InputNames...)
	out.OutputNames = append([]string(nil), in.OutputNames...)
	out.Terms = make([]cover.Term, 0, m.st.Len())
	for r := range m.st.All() {
		b := m.st.Bits(r)
		var t cover.Term
		for v := 0; v < in.Inputs; v++ {
			switch cube.Get(b, v) {
			case cube.Neg:
				t.Lits = append(t.Lits, cover.Neg(v))
			case cube.Pos:
				t.Lits = append(t.Lits, cover.Pos(v))
			}
		}
		for o := 0; o < in.Outputs; o++ {
			if cube.HasOutput(b, o) {
				t.Outputs = append(t.Outputs, o)
			}
		}
		out.Terms = append(out.Terms, t)
	}
	return out
}
