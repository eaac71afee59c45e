// Package link implements the ExorLink rewrite of two cubes.
//
// Two cubes A and B that differ in d positions (input variables, plus the
// output set counted as one position) can be replaced by d cubes in d!
// different ways without changing the function. Every replacement cube is
// one of d*2^(d-1) "raw" cubes; a group picks d of them. The [Engine]
// computes the cost of every group, materializes groups in cost order on
// demand, and shares raw cubes between overlapping groups.
package link

import (
	"fmt"
	"math/bits"

	"github.com/matzehuels/exorcism/pkg/esop/cube"
	"github.com/matzehuels/exorcism/pkg/esop/store"
)

// Order selects which remaining group [Engine.Next] materializes first.
type Order uint8

const (
	// MinFirst visits groups from the cheapest to the most expensive.
	MinFirst Order = iota
	// MaxFirst visits groups from the most expensive to the cheapest.
	MaxFirst
)

func (o Order) String() string {
	if o == MaxFirst {
		return "max"
	}
	return "min"
}

// ParseOrder parses "min" or "max".
func ParseOrder(s string) (Order, error) {
	switch s {
	case "min", "":
		return MinFirst, nil
	case "max":
		return MaxFirst, nil
	}
	return MinFirst, fmt.Errorf("link: unknown group order %q", s)
}

// Engine rewrites one pair of cubes at a time. It allocates the cubes it
// materializes from the store and gives them back in [Engine.CleanUp].
type Engine struct {
	st     *store.Store
	alt    bool
	orders [5]Order

	started bool
	t       *table
	c1, c2  store.Ref
	pos     [cube.MaxDistance]int
	valA    [4]cube.Literal
	valB    [4]cube.Literal

	baseLits, baseNegs  int
	litsA, litsB, litsX uint8
	negsA, negsB, negsX uint8

	rawLits [maxRaw]int
	rawCost [maxRaw]int
	raw     [maxRaw]store.Ref
	marked  [maxRaw]bool
	cost    [maxGroups]int
	visited [maxGroups]bool
	visits  []int
	members [4]store.Ref
	built   int
}

// New returns an engine working on st. When alt is set, groups are ranked
// by the alternate cost of their cubes instead of their literal count.
// orders[i] is the visiting order for distance i+2.
func New(st *store.Store, alt bool, orders [3]Order) *Engine {
	e := &Engine{st: st, alt: alt, visits: make([]int, 0, maxGroups)}
	copy(e.orders[2:], orders[:])
	return e
}

// Start prepares the rewrite of c1 and c2, which must be at distance d, and
// materializes the first group. The returned slice is reused by later calls.
func (e *Engine) Start(c1, c2 store.Ref, d int) []store.Ref {
	if e.started {
		panic("link: Start without CleanUp of the previous rewrite")
	}
	if d < 2 || d > 4 {
		panic(fmt.Sprintf("link: no rewrite for distance %d", d))
	}
	a, b := e.st.Bits(c1), e.st.Bits(c2)
	if n := cube.DiffPositions(a, b, &e.pos); n != d {
		panic(fmt.Sprintf("link: cubes %d and %d are at distance %d, not %d", c1, c2, n, d))
	}
	e.started = true
	e.t = tables[d]
	e.c1, e.c2 = c1, c2
	e.visits = e.visits[:0]
	e.built = 0

	e.litsA, e.litsB, e.litsX = 0, 0, 0
	e.negsA, e.negsB, e.negsX = 0, 0, 0
	for p := 0; p < d; p++ {
		if e.pos[p] == cube.Output {
			continue
		}
		va, vb := cube.Get(a, e.pos[p]), cube.Get(b, e.pos[p])
		e.valA[p], e.valB[p] = va, vb
		e.litsA |= flag(va.IsLiteral(), p)
		e.litsB |= flag(vb.IsLiteral(), p)
		e.litsX |= flag((va ^ vb).IsLiteral(), p)
		e.negsA |= flag(va == cube.Neg, p)
		e.negsB |= flag(vb == cube.Neg, p)
		e.negsX |= flag(va^vb == cube.Neg, p)
	}
	e.baseLits = e.st.Cube(c1).Lits - bits.OnesCount8(e.litsA)
	e.baseNegs = cube.CountNegs(a) - bits.OnesCount8(e.negsA)

	for r := range e.t.maskA {
		lits := e.baseLits + e.count(r, e.litsA, e.litsB, e.litsX)
		negs := e.baseNegs + e.count(r, e.negsA, e.negsB, e.negsX)
		e.rawLits[r] = lits
		e.rawCost[r] = e.st.CostOf(lits, negs)
		e.raw[r] = store.Nil
		e.marked[r] = false
	}
	for g, grp := range e.t.groups {
		sum := 0
		for _, r := range grp {
			sum += e.metric(int(r))
		}
		e.cost[g] = sum
		e.visited[g] = false
	}

	grp, _ := e.Next()
	return grp
}

func flag(ok bool, p int) uint8 {
	if ok {
		return 1 << p
	}
	return 0
}

func (e *Engine) count(r int, a, b, x uint8) int {
	t := e.t
	return bits.OnesCount8(a&t.maskA[r]) + bits.OnesCount8(b&t.maskB[r]) + bits.OnesCount8(x&t.maskX[r])
}

func (e *Engine) metric(r int) int {
	if e.alt {
		return e.rawCost[r]
	}
	return e.rawLits[r]
}

// Next materializes the best remaining group according to the configured
// order and returns its cubes. It returns false once every group has been
// visited.
func (e *Engine) Next() ([]store.Ref, bool) {
	if !e.started {
		panic("link: Next before Start")
	}
	best := -1
	for g := range e.t.groups {
		if e.visited[g] {
			continue
		}
		if best < 0 || e.better(e.cost[g], e.cost[best]) {
			best = g
		}
	}
	if best < 0 {
		return nil, false
	}
	e.visited[best] = true
	e.visits = append(e.visits, best)
	return e.load(best), true
}

func (e *Engine) better(a, b int) bool {
	if e.orders[e.t.d] == MaxFirst {
		return a > b
	}
	return a < b
}

// Pick returns the i-th visited group again without recomputing it. The
// cubes of earlier groups may have been modified or released since.
//
// The minimizer only walks forward with Next; Pick serves callers that
// compare groups after visiting them, such as tests and tooling that dump
// the rewrite alternatives of a pair.
func (e *Engine) Pick(i int) []store.Ref {
	return e.load(e.visits[i])
}

func (e *Engine) load(g int) []store.Ref {
	grp := e.t.groups[g]
	for j, r := range grp {
		if e.raw[r] == store.Nil {
			e.raw[r] = e.materialize(int(r))
		}
		e.members[j] = e.raw[r]
	}
	return e.members[:e.t.d]
}

func (e *Engine) materialize(r int) store.Ref {
	ref := e.st.Get()
	b := e.st.Bits(ref)
	a, other := e.st.Bits(e.c1), e.st.Bits(e.c2)
	cube.Copy(b, a)
	t := e.t
	for p := 0; p < t.d; p++ {
		bit := uint8(1) << p
		if t.maskA[r]&bit != 0 {
			continue
		}
		fromB := t.maskB[r]&bit != 0
		if e.pos[p] == cube.Output {
			if fromB {
				cube.CopyOutputs(b, other)
			} else {
				cube.XorOutputs(b, other)
			}
			continue
		}
		v := e.valA[p] ^ e.valB[p]
		if fromB {
			v = e.valB[p]
		}
		cube.Set(b, e.pos[p], v)
	}
	c := e.st.Cube(ref)
	c.Lits = e.rawLits[r]
	c.Cost = e.rawCost[r]
	c.Outs = cube.CountOutputs(b)
	e.built++
	return ref
}

// current returns the raw index of the i-th member of the last group.
func (e *Engine) current(i int) int {
	return int(e.t.groups[e.visits[len(e.visits)-1]][i])
}

// Marked reports whether the i-th member of the last group has already been
// checked without gain by an earlier group sharing it.
func (e *Engine) Marked(i int) bool { return e.marked[e.current(i)] }

// Mark records that the i-th member of the last group yields no gain.
func (e *Engine) Mark(i int) { e.marked[e.current(i)] = true }

// Built returns how many raw cubes were materialized since Start.
func (e *Engine) Built() int { return e.built }

// Visited returns how many groups were materialized since Start.
func (e *Engine) Visited() int { return len(e.visits) }

// Remaining returns how many groups [Engine.Next] can still materialize.
func (e *Engine) Remaining() int { return len(e.t.groups) - len(e.visits) }

// CleanUp gives every materialized raw cube back to the store, except the
// cubes of the last group when keepLast is set: those are either part of
// the cover now or were already released while being merged.
func (e *Engine) CleanUp(keepLast bool) {
	if !e.started {
		panic("link: CleanUp without Start")
	}
	var keep [maxRaw]bool
	if keepLast && len(e.visits) > 0 {
		for _, r := range e.t.groups[e.visits[len(e.visits)-1]] {
			keep[r] = true
		}
	}
	for r := range e.t.maskA {
		if e.raw[r] != store.Nil && !keep[r] {
			e.st.Release(e.raw[r])
		}
		e.raw[r] = store.Nil
	}
	e.started = false
}
