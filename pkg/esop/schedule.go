package esop

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/exorcism/pkg/esop/store"
	"github.com/matzehuels/exorcism/pkg/errors"
)

// Step is one pass over the queued pairs at distance Dist.
type Step struct {
	Dist int
	// Enable selects the pair classes recorded while the pass runs.
	Enable store.Classes
	// Reshape lets a distance-2 rewrite without gain replace the pair with
	// the last group it tried.
	Reshape bool
}

// String renders s as "2:23" (distance 2, classes 2 and 3). A distance-2
// step that reshapes gets a ":reshape" suffix.
func (s Step) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d:", s.Dist)
	for d := 2; d <= 4; d++ {
		if s.Enable.Has(d) {
			b.WriteByte(byte('0' + d))
		}
	}
	if s.Dist == 2 && s.Reshape {
		b.WriteString(":reshape")
	}
	return b.String()
}

// ParseStep parses the form produced by [Step.String].
func ParseStep(text string) (Step, error) {
	parts := strings.Split(strings.TrimSpace(text), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Step{}, errors.New(errors.ErrCodeInvalidConfig, "step %q: want <dist>:<classes>[:reshape]", text)
	}
	d, err := strconv.Atoi(parts[0])
	if err != nil || d < 2 || d > 4 {
		return Step{}, errors.New(errors.ErrCodeInvalidConfig, "step %q: distance must be 2, 3 or 4", text)
	}
	s := Step{Dist: d}
	for _, ch := range parts[1] {
		switch ch {
		case '2':
			s.Enable |= store.Dist2
		case '3':
			s.Enable |= store.Dist3
		case '4':
			s.Enable |= store.Dist4
		default:
			return Step{}, errors.New(errors.ErrCodeInvalidConfig, "step %q: unknown class %q", text, ch)
		}
	}
	if len(parts) == 3 {
		if parts[2] != "reshape" || d != 2 {
			return Step{}, errors.New(errors.ErrCodeInvalidConfig, "step %q: only distance-2 steps take :reshape", text)
		}
		s.Reshape = true
	}
	return s, nil
}

// MarshalText implements encoding.TextMarshaler.
func (s Step) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler, so schedules can be
// read from TOML and JSON documents.
func (s *Step) UnmarshalText(text []byte) error {
	st, err := ParseStep(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// ParseSteps parses a list of steps.
func ParseSteps(texts []string) ([]Step, error) {
	steps := make([]Step, 0, len(texts))
	for _, t := range texts {
		s, err := ParseStep(t)
		if err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, nil
}

// Schedule drives the outer loop of a run. Every iteration runs Light; once
// more than HeavyAfter iterations in a row removed no cube, Heavy runs too.
// The loop stops after StopAfter iterations without gain, then Final runs
// once with rewrites restricted to those that do not increase the cost.
type Schedule struct {
	Light      []Step `json:"light" toml:"light"`
	Heavy      []Step `json:"heavy" toml:"heavy"`
	Final      []Step `json:"final" toml:"final"`
	HeavyAfter int    `json:"heavy_after" toml:"heavy_after"`
	StopAfter  int    `json:"stop_after" toml:"stop_after"`
}

// DefaultSchedule returns the schedule used for the given quality level.
// Light iterations only take rewrites that remove cubes; reshaping and
// distance-4 rewrites are left to the heavy steps.
func DefaultSchedule(quality int) Schedule {
	s := Schedule{
		HeavyAfter: 0,
		StopAfter:  2 + quality,
	}
	if quality > 0 {
		s.HeavyAfter = 1
	}
	for range 6 {
		s.Light = append(s.Light,
			Step{Dist: 2, Enable: store.Dist2 | store.Dist3},
			Step{Dist: 3, Enable: store.Dist2 | store.Dist3},
		)
	}
	heavy := []Step{
		{Dist: 2, Enable: store.Dist2 | store.Dist3, Reshape: true},
		{Dist: 3, Enable: store.Dist2 | store.Dist3},
		{Dist: 2, Enable: store.AllClasses, Reshape: true},
		{Dist: 4, Enable: store.AllClasses},
		{Dist: 2, Enable: store.AllClasses, Reshape: true},
		{Dist: 4, Enable: store.Dist2 | store.Dist3},
	}
	for range 2 {
		s.Heavy = append(s.Heavy, heavy...)
	}
	for range 2 {
		s.Final = append(s.Final,
			Step{Dist: 2, Enable: store.Dist2 | store.Dist3, Reshape: true},
			Step{Dist: 3, Enable: store.Dist2 | store.Dist3},
		)
	}
	return s
}

// Validate checks the distances and loop bounds of s.
func (s *Schedule) Validate() error {
	if len(s.Light) == 0 && len(s.Heavy) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "schedule has no light or heavy steps")
	}
	if s.StopAfter < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "schedule stop_after must be >= 1, got %d", s.StopAfter)
	}
	if s.HeavyAfter < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "schedule heavy_after must be >= 0, got %d", s.HeavyAfter)
	}
	for _, steps := range [][]Step{s.Light, s.Heavy, s.Final} {
		for _, st := range steps {
			if st.Dist < 2 || st.Dist > 4 {
				return errors.New(errors.ErrCodeInvalidConfig, "schedule step %v: distance must be 2, 3 or 4", st)
			}
			if st.Enable&^store.AllClasses != 0 {
				return errors.New(errors.ErrCodeInvalidConfig, "schedule step %v: unknown classes", st)
			}
		}
	}
	return nil
}
