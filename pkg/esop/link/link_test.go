package link

import (
	"math/rand/v2"
	"testing"

	"github.com/matzehuels/exorcism/pkg/esop/cube"
	"github.com/matzehuels/exorcism/pkg/esop/store"
)

const (
	testVars = 6
	testOuts = 3
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(store.Options{
		Layout:   cube.NewLayout(testVars, testOuts),
		Capacity: 64,
		Cost:     cube.QuantumCost,
	})
	if err != nil {
		t.Fatal(err)
	}
	return st
}

// randomPair allocates two detached cubes at distance d. When withOutput is
// set the output sets are one of the differing positions.
func randomPair(r *rand.Rand, st *store.Store, d int, withOutput bool) (store.Ref, store.Ref) {
	l := st.Layout()
	a, b := st.Get(), st.Get()
	ba, bb := st.Bits(a), st.Bits(b)
	l.Clear(ba)
	for v := 0; v < l.Vars; v++ {
		cube.Set(ba, v, cube.Literal(r.IntN(3)+1))
	}
	cube.SetOutput(ba, r.IntN(l.Outputs))
	cube.Copy(bb, ba)

	vars := d
	if withOutput {
		vars--
		for cube.Equal(ba, bb) {
			cube.CopyOutputs(bb, ba)
			cube.SetOutput(bb, r.IntN(l.Outputs))
			cube.SetOutput(bb, r.IntN(l.Outputs))
		}
	}
	for _, v := range r.Perm(l.Vars)[:vars] {
		old := cube.Get(ba, v)
		next := cube.Literal(r.IntN(3) + 1)
		for next == old {
			next = cube.Literal(r.IntN(3) + 1)
		}
		cube.Set(bb, v, next)
	}
	st.Refresh(a)
	st.Refresh(b)
	return a, b
}

// function returns, for every assignment of the inputs, the set of outputs
// the cube toggles.
func function(l cube.Layout, b cube.Bits) []uint64 {
	f := make([]uint64, 1<<l.Vars)
	for x := range f {
		covered := true
		for v := 0; v < l.Vars && covered; v++ {
			bit := x>>v&1 == 1
			switch cube.Get(b, v) {
			case cube.Neg:
				covered = !bit
			case cube.Pos:
				covered = bit
			}
		}
		if covered {
			f[x] = b.Out[0]
		}
	}
	return f
}

func xorInto(dst, src []uint64) {
	for i := range dst {
		dst[i] ^= src[i]
	}
}

func TestGroupsAreExact(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for d := 2; d <= 4; d++ {
		for _, withOutput := range []bool{false, true} {
			for trial := 0; trial < 40; trial++ {
				st := newTestStore(t)
				l := st.Layout()
				a, b := randomPair(r, st, d, withOutput)
				want := function(l, st.Bits(a))
				xorInto(want, function(l, st.Bits(b)))

				e := New(st, false, [3]Order{})
				grp := e.Start(a, b, d)
				groups := 0
				for ok := true; ok; grp, ok = e.Next() {
					groups++
					got := make([]uint64, len(want))
					for _, m := range grp {
						xorInto(got, function(l, st.Bits(m)))
						if c := st.Cube(m); c.Lits != cube.CountLiterals(st.Bits(m)) {
							t.Fatalf("d=%d: member literal count %d, actual %d", d, c.Lits, cube.CountLiterals(st.Bits(m)))
						}
					}
					for x := range want {
						if got[x] != want[x] {
							t.Fatalf("d=%d output=%v group %d: XOR differs at assignment %b", d, withOutput, groups, x)
						}
					}
				}
				if groups != len(tables[d].groups) {
					t.Errorf("d=%d: visited %d groups, want %d", d, groups, len(tables[d].groups))
				}
				e.CleanUp(false)
				st.Release(a)
				st.Release(b)
				if st.Free() != st.Capacity() {
					t.Fatalf("d=%d: %d cubes leaked", d, st.Capacity()-st.Free())
				}
			}
		}
	}
}

func TestGroupOrder(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 5))
	for _, order := range []Order{MinFirst, MaxFirst} {
		st := newTestStore(t)
		a, b := randomPair(r, st, 4, false)
		e := New(st, false, [3]Order{order, order, order})
		e.Start(a, b, 4)
		prev := e.cost[e.visits[0]]
		for _, ok := e.Next(); ok; _, ok = e.Next() {
			c := e.cost[e.visits[len(e.visits)-1]]
			if order == MinFirst && c < prev || order == MaxFirst && c > prev {
				t.Fatalf("%v order: cost %d after %d", order, c, prev)
			}
			prev = c
		}
		e.CleanUp(false)
	}
}

func TestGroupCostMatchesMembers(t *testing.T) {
	r := rand.New(rand.NewPCG(9, 9))
	for _, alt := range []bool{false, true} {
		st := newTestStore(t)
		a, b := randomPair(r, st, 3, true)
		e := New(st, alt, [3]Order{})
		grp := e.Start(a, b, 3)
		sum := 0
		for _, m := range grp {
			c := st.Cube(m)
			if alt {
				sum += c.Cost
			} else {
				sum += c.Lits
			}
			if want := cube.QuantumCost(c.Lits, cube.CountNegs(st.Bits(m))); c.Cost != want {
				t.Errorf("member cost %d, want %d", c.Cost, want)
			}
		}
		if got := e.cost[e.visits[0]]; got != sum {
			t.Errorf("alt=%v: group cost %d, members sum to %d", alt, got, sum)
		}
		e.CleanUp(false)
	}
}

func TestSharedRawCubes(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 1))
	st := newTestStore(t)
	a, b := randomPair(r, st, 4, false)
	e := New(st, false, [3]Order{})
	e.Start(a, b, 4)
	for _, ok := e.Next(); ok; _, ok = e.Next() {
	}
	// 24 groups of 4 cubes share the 32 raw cubes.
	if e.Built() != 32 {
		t.Errorf("built %d raw cubes, want 32", e.Built())
	}
	if e.Visited() != 24 {
		t.Errorf("visited %d groups, want 24", e.Visited())
	}
	first := e.Pick(0)
	if len(first) != 4 {
		t.Fatalf("Pick(0) returned %d cubes", len(first))
	}
	e.CleanUp(true)
	// the last group stays allocated
	if used := st.Capacity() - st.Free(); used != 2+4 {
		t.Errorf("%d cubes in use after CleanUp(true), want 6", used)
	}
}

func TestMarksFollowRawCubes(t *testing.T) {
	r := rand.New(rand.NewPCG(4, 2))
	st := newTestStore(t)
	a, b := randomPair(r, st, 3, false)
	e := New(st, false, [3]Order{})
	e.Start(a, b, 3)
	first := e.current(0)
	e.Mark(0)
	for _, ok := e.Next(); ok; _, ok = e.Next() {
		for i := 0; i < 3; i++ {
			if e.current(i) == first && !e.Marked(i) {
				t.Error("mark lost on a shared raw cube")
			}
		}
	}
	e.CleanUp(false)
}

func TestStartRejectsWrongDistance(t *testing.T) {
	r := rand.New(rand.NewPCG(2, 2))
	st := newTestStore(t)
	a, b := randomPair(r, st, 2, false)
	e := New(st, false, [3]Order{})
	defer func() {
		if recover() == nil {
			t.Error("Start with a wrong distance must panic")
		}
	}()
	e.Start(a, b, 3)
}

func TestParseOrder(t *testing.T) {
	for in, want := range map[string]Order{"min": MinFirst, "": MinFirst, "max": MaxFirst} {
		got, err := ParseOrder(in)
		if err != nil || got != want {
			t.Errorf("ParseOrder(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseOrder("best"); err == nil {
		t.Error("expected error")
	}
}
