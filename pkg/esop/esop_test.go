package esop

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/exorcism/pkg/cover"
	"github.com/matzehuels/exorcism/pkg/errors"
)

func run(t *testing.T, cfg Config, c *cover.Cover) *Result {
	t.Helper()
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := s.Run(c)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

func randomCover(r *rand.Rand, inputs, outputs, terms int) *cover.Cover {
	c := cover.New(inputs, outputs)
	for range terms {
		var lits []cover.Lit
		for v := 0; v < inputs; v++ {
			switch r.IntN(4) {
			case 0:
				lits = append(lits, cover.Neg(v))
			case 1:
				lits = append(lits, cover.Pos(v))
			}
		}
		var outs []int
		for o := 0; o < outputs; o++ {
			if r.IntN(2) == 0 {
				outs = append(outs, o)
			}
		}
		if len(outs) == 0 {
			outs = append(outs, r.IntN(outputs))
		}
		c.Add(lits, outs...)
	}
	return c
}

// assertEquivalent compares a and b on every assignment when there are at
// most 12 inputs and on random assignments otherwise.
func assertEquivalent(t *testing.T, r *rand.Rand, a, b *cover.Cover) {
	t.Helper()
	x := make([]bool, a.Inputs)
	check := func() bool {
		if got, want := b.Eval(x), a.Eval(x); !cmp.Equal(got, want) {
			t.Errorf("outputs differ at %v: got %v, want %v", x, got, want)
			return false
		}
		return true
	}
	if a.Inputs <= 12 {
		for m := 0; m < 1<<a.Inputs; m++ {
			for v := range x {
				x[v] = m>>v&1 == 1
			}
			if !check() {
				return
			}
		}
		return
	}
	for range 4096 {
		for v := range x {
			x[v] = r.IntN(2) == 1
		}
		if !check() {
			return
		}
	}
}

func TestAdjacentCubesMerge(t *testing.T) {
	c := cover.New(2, 1)
	c.Add([]cover.Lit{cover.Pos(0), cover.Pos(1)}, 0)
	c.Add([]cover.Lit{cover.Pos(0), cover.Neg(1)}, 0)

	res := run(t, Config{Inputs: 2, Outputs: 1}, c)
	want := []cover.Term{{Lits: []cover.Lit{cover.Pos(0)}, Outputs: []int{0}}}
	if diff := cmp.Diff(want, res.Cover.Terms); diff != "" {
		t.Errorf("terms mismatch (-want +got):\n%s", diff)
	}
	if res.Before != (Size{Cubes: 2, Literals: 4, Cost: 10}) {
		t.Errorf("Before = %+v", res.Before)
	}
	if res.After.Cubes != 1 || res.After.Literals != 1 {
		t.Errorf("After = %+v", res.After)
	}
}

func TestDuplicateCubesCancel(t *testing.T) {
	c := cover.New(3, 2)
	c.Add([]cover.Lit{cover.Pos(0), cover.Neg(2)}, 1)
	c.Add([]cover.Lit{cover.Pos(0), cover.Neg(2)}, 1)

	res := run(t, Config{Inputs: 3, Outputs: 2}, c)
	if len(res.Cover.Terms) != 0 {
		t.Errorf("terms = %v, want none", res.Cover.Terms)
	}
}

func TestTooManyCubes(t *testing.T) {
	c := randomCover(rand.New(rand.NewPCG(1, 2)), 4, 1, 3)
	orig := c.Clone()

	s, err := New(Config{Inputs: 4, Outputs: 1, MaxCubes: 2})
	if err != nil {
		t.Fatal(err)
	}
	res, err := s.Run(c)
	if !errors.Is(err, errors.ErrCodeTooManyCubes) {
		t.Fatalf("err = %v, want TOO_MANY_CUBES", err)
	}
	if res != nil {
		t.Errorf("res = %+v, want nil", res)
	}
	if diff := cmp.Diff(orig, c); diff != "" {
		t.Errorf("cover mutated (-want +got):\n%s", diff)
	}
}

func TestOutOfMemory(t *testing.T) {
	c := randomCover(rand.New(rand.NewPCG(3, 4)), 8, 2, 10)
	s, err := New(Config{Inputs: 8, Outputs: 2, MaxMemory: 512})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Run(c); !errors.Is(err, errors.ErrCodeOutOfMemory) {
		t.Errorf("err = %v, want OUT_OF_MEMORY", err)
	}
}

func TestShapeMismatch(t *testing.T) {
	s, err := New(Config{Inputs: 4, Outputs: 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Run(cover.New(5, 1)); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero inputs", Config{Outputs: 1}},
		{"zero outputs", Config{Inputs: 1}},
		{"negative quality", Config{Inputs: 1, Outputs: 1, Quality: -1}},
		{"verbosity", Config{Inputs: 1, Outputs: 1, Verbosity: 3}},
		{"negative max cubes", Config{Inputs: 1, Outputs: 1, MaxCubes: -1}},
		{"bad schedule", Config{Inputs: 1, Outputs: 1, Schedule: &Schedule{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestMintermsCollapse(t *testing.T) {
	c := cover.New(3, 1)
	for _, m := range []string{"100", "101", "110", "111"} {
		term, err := c.ParseRow(m, "1")
		if err != nil {
			t.Fatal(err)
		}
		c.Terms = append(c.Terms, term)
	}
	res := run(t, Config{Inputs: 3, Outputs: 1}, c)
	if got := len(res.Cover.Terms); got != 1 {
		t.Fatalf("got %d terms: %v", got, res.Cover.Terms)
	}
	if got := c.Row(res.Cover.Terms[0]); got != "1-- 1" {
		t.Errorf("term = %q, want %q", got, "1-- 1")
	}
}

func TestRunPreservesFunction(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	tests := []struct {
		inputs, outputs, terms int
	}{
		{3, 1, 6},
		{4, 2, 12},
		{6, 1, 30},
		{8, 3, 40},
		{10, 2, 60},
		{12, 1, 80},
		{33, 2, 40},
		{70, 4, 50},
	}
	for _, tt := range tests {
		for _, alt := range []bool{false, true} {
			name := fmt.Sprintf("%dx%d/%d/alt=%v", tt.inputs, tt.outputs, tt.terms, alt)
			t.Run(name, func(t *testing.T) {
				c := randomCover(r, tt.inputs, tt.outputs, tt.terms)
				orig := c.Clone()
				res := run(t, Config{
					Inputs:        tt.inputs,
					Outputs:       tt.outputs,
					Quality:       1,
					AlternateCost: alt,
				}, c)

				if diff := cmp.Diff(orig, c); diff != "" {
					t.Fatalf("input mutated (-want +got):\n%s", diff)
				}
				if err := res.Cover.Validate(); err != nil {
					t.Fatalf("result invalid: %v", err)
				}
				if res.After.Cubes > res.Before.Cubes {
					t.Errorf("cubes grew from %d to %d", res.Before.Cubes, res.After.Cubes)
				}
				if res.After.Cubes != len(res.Cover.Terms) {
					t.Errorf("After.Cubes = %d, cover has %d terms", res.After.Cubes, len(res.Cover.Terms))
				}
				assertEquivalent(t, r, c, res.Cover)
			})
		}
	}
}

// finalMetric returns the literal or alternate cost total of a pass.
func finalMetric(ps PassStats, alt bool) int {
	if alt {
		return ps.Cost
	}
	return ps.Literals
}

func TestRandomCovers(t *testing.T) {
	seeds := 600
	if testing.Short() {
		seeds = 60
	}
	for seed := range seeds {
		r := rand.New(rand.NewPCG(uint64(seed), 0))
		inputs := 3 + r.IntN(6)
		outputs := 1 + r.IntN(3)
		terms := 4 + r.IntN(40)
		c := randomCover(r, inputs, outputs, terms)
		for _, q := range []int{0, 2} {
			alt := seed%2 == 1
			name := fmt.Sprintf("seed=%d/%dx%d/%d/q=%d", seed, inputs, outputs, terms, q)
			func() {
				defer func() {
					if v := recover(); v != nil {
						t.Fatalf("%s: panic: %v", name, v)
					}
				}()
				s, err := New(Config{Inputs: inputs, Outputs: outputs, Quality: q, AlternateCost: alt})
				if err != nil {
					t.Fatalf("%s: New: %v", name, err)
				}
				res, err := s.Run(c)
				if err != nil {
					t.Fatalf("%s: Run: %v", name, err)
				}
				if res.After.Cubes > res.Before.Cubes {
					t.Errorf("%s: cubes grew from %d to %d", name, res.Before.Cubes, res.After.Cubes)
				}

				prev := -1
				for _, ps := range res.Passes {
					cur := finalMetric(ps, alt)
					if ps.Phase == phaseFinal && prev >= 0 && cur > prev {
						t.Errorf("%s: final pass %+v raised the total from %d to %d", name, ps, prev, cur)
					}
					prev = cur
				}
				assertEquivalent(t, r, c, res.Cover)
			}()
		}
	}
}

func TestPassesNeverAddCubes(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 8))
	c := randomCover(r, 9, 2, 50)

	var seen []PassStats
	res := run(t, Config{
		Inputs:   9,
		Outputs:  2,
		Quality:  2,
		Progress: func(ps PassStats) { seen = append(seen, ps) },
	}, c)

	if diff := cmp.Diff(res.Passes, seen); diff != "" {
		t.Errorf("progress callbacks differ from recorded passes (-want +got):\n%s", diff)
	}
	phases := map[string]int{}
	prev := -1
	for _, ps := range res.Passes {
		phases[ps.Phase]++
		if ps.Gain < 0 {
			t.Errorf("pass %+v added cubes", ps)
		}
		if ps.Accepted > ps.Attempts || ps.Attempts+ps.Skipped > ps.Queued {
			t.Errorf("pass %+v: inconsistent counters", ps)
		}
		if prev >= 0 && ps.Cubes > prev {
			t.Errorf("cube count rose from %d to %d", prev, ps.Cubes)
		}
		prev = ps.Cubes
	}
	if phases[phaseLight] == 0 || phases[phaseFinal] != 4 {
		t.Errorf("phases = %v", phases)
	}
	if res.Iterations < DefaultSchedule(2).StopAfter {
		t.Errorf("Iterations = %d", res.Iterations)
	}
	assertEquivalent(t, r, c, res.Cover)
}

func TestCustomSchedule(t *testing.T) {
	r := rand.New(rand.NewPCG(9, 9))
	c := randomCover(r, 7, 1, 25)
	light, err := ParseSteps([]string{"2:234:reshape", "4:234", "3:23"})
	if err != nil {
		t.Fatal(err)
	}
	res := run(t, Config{
		Inputs:   7,
		Outputs:  1,
		Schedule: &Schedule{Light: light, StopAfter: 1},
	}, c)
	if res.Iterations < 1 || len(res.Passes) != 3*res.Iterations {
		t.Errorf("iterations %d, passes %d", res.Iterations, len(res.Passes))
	}
	assertEquivalent(t, r, c, res.Cover)
}

func TestTermsWithoutOutputsAreDropped(t *testing.T) {
	c := cover.New(2, 1)
	c.Add([]cover.Lit{cover.Pos(0)})
	c.Add([]cover.Lit{cover.Neg(1)}, 0)
	res := run(t, Config{Inputs: 2, Outputs: 1}, c)
	if res.Before.Cubes != 1 || len(res.Cover.Terms) != 1 {
		t.Errorf("before %d, after %v", res.Before.Cubes, res.Cover.Terms)
	}
}
