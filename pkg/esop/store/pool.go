// Package store holds the cubes of a cover while it is being minimized.
//
// A [Store] combines three structures that share one arena of cube records:
//
//   - the pool: a fixed-capacity arena with an index-linked free list,
//   - the active ring: the cubes of the current cover,
//   - three distance queues: candidate pairs of active cubes at distance 2, 3 and 4.
//
// Cubes are addressed by [Ref], an index into the arena. Each slot carries a
// generation counter that is bumped whenever the cube is released, so a queued
// pair referencing a recycled slot is recognized as stale and skipped.
//
// A Store is owned by a single goroutine. None of its methods are safe for
// concurrent use.
package store

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/matzehuels/exorcism/pkg/esop/cube"
)

// ErrOutOfMemory is returned by [New] when the arena and queues would exceed
// the configured memory limit. Nothing is left allocated in that case.
var ErrOutOfMemory = errors.New("store: memory limit exceeded")

// Ref addresses a cube in the arena. The zero Ref is never a valid cube.
type Ref int32

// Nil is the reference that points nowhere.
const Nil Ref = 0

type place uint8

const (
	free place = iota
	detached
	active
)

func (p place) String() string {
	switch p {
	case free:
		return "free"
	case detached:
		return "detached"
	case active:
		return "active"
	}
	return "unknown"
}

// Cube is the bookkeeping record of one arena slot. The packed literals and
// outputs live in a separate word slab and are reached through [Store.Bits].
type Cube struct {
	Lits int // number of literals
	Outs int // number of outputs driven
	Cost int // alternate cost

	gen        uint32
	prev, next Ref
	where      place
}

// Options configures a [Store].
type Options struct {
	Layout   cube.Layout
	Capacity int
	// Cost computes [Cube.Cost]. Defaults to [cube.LiteralCost].
	Cost cube.CostFunc
	// MaxBytes bounds the initial allocation. Zero means unlimited.
	MaxBytes int64
}

// Store is the arena, active ring and distance queues of one run.
type Store struct {
	layout cube.Layout
	cost   cube.CostFunc

	cubes []Cube
	words []uint64
	free  Ref
	nFree int

	head    Ref
	nActive int

	queues  [3]queue
	enabled Classes
	journal journal
}

// New allocates a store for opts.Capacity cubes. Every cube starts on the
// free list with zeroed words.
func New(opts Options) (*Store, error) {
	if opts.Capacity <= 0 {
		return nil, fmt.Errorf("store: capacity must be positive, got %d", opts.Capacity)
	}
	if opts.Cost == nil {
		opts.Cost = cube.LiteralCost
	}
	stride := opts.Layout.Stride()
	slots := opts.Capacity + 1
	poolBytes := int64(slots) * (int64(stride)*8 + int64(unsafe.Sizeof(Cube{})))
	if opts.MaxBytes > 0 && poolBytes > opts.MaxBytes {
		return nil, fmt.Errorf("%w: pool of %d cubes needs %d bytes", ErrOutOfMemory, opts.Capacity, poolBytes)
	}

	s := &Store{
		layout:  opts.Layout,
		cost:    opts.Cost,
		cubes:   make([]Cube, slots),
		words:   make([]uint64, slots*stride),
		enabled: Dist2,
	}
	for r := Ref(opts.Capacity); r > Nil; r-- {
		s.cubes[r].next = s.free
		s.free = r
	}
	s.nFree = opts.Capacity

	slotsPerQueue := queueSlots(opts.Capacity)
	queueBytes := 3 * int64(slotsPerQueue) * int64(unsafe.Sizeof(pair{}))
	if opts.MaxBytes > 0 && poolBytes+queueBytes > opts.MaxBytes {
		s.Close()
		return nil, fmt.Errorf("%w: queues need %d bytes on top of %d", ErrOutOfMemory, queueBytes, poolBytes)
	}
	for i := range s.queues {
		s.queues[i] = newQueue(slotsPerQueue)
	}
	return s, nil
}

// Close releases the arena and the queues. The store must not be used
// afterwards.
func (s *Store) Close() {
	s.cubes = nil
	s.words = nil
	for i := range s.queues {
		s.queues[i] = queue{}
	}
	s.free, s.head = Nil, Nil
	s.nFree, s.nActive = 0, 0
}

// Layout returns the word geometry of the stored cubes.
func (s *Store) Layout() cube.Layout { return s.layout }

// Capacity returns the number of cubes the arena holds.
func (s *Store) Capacity() int { return len(s.cubes) - 1 }

// Get pops a cube off the free list. The cube is detached and its words
// still hold whatever its previous owner left there: callers must overwrite
// them with [cube.Layout.Clear] or [cube.Copy].
func (s *Store) Get() Ref {
	r := s.free
	if r == Nil {
		panic("store: pool exhausted")
	}
	c := &s.cubes[r]
	s.free = c.next
	s.nFree--
	c.next = Nil
	c.where = detached
	return r
}

// Release returns a detached cube to the free list and invalidates every
// queued pair that references it.
func (s *Store) Release(r Ref) {
	c := &s.cubes[r]
	if c.where != detached {
		panic(fmt.Sprintf("store: release of %s cube %d", c.where, r))
	}
	c.gen++
	c.where = free
	c.prev = Nil
	c.next = s.free
	s.free = r
	s.nFree++
}

// revive pops r, which must be the most recently released cube, off the
// free list and restores the generation it had before its release, so that
// queued pairs referencing it become valid again.
func (s *Store) revive(r Ref, gen uint32) {
	if s.free != r {
		panic(fmt.Sprintf("store: revive of cube %d which is not the free list head", r))
	}
	s.Get()
	s.cubes[r].gen = gen
}

// Cube returns the record of r.
func (s *Store) Cube(r Ref) *Cube { return &s.cubes[r] }

// Bits returns the packed words of r.
func (s *Store) Bits(r Ref) cube.Bits {
	stride := s.layout.Stride()
	i := int(r) * stride
	return s.layout.View(s.words[i : i+stride])
}

// Refresh recomputes the literal count, output count and cost of r from its
// words.
func (s *Store) Refresh(r Ref) {
	b := s.Bits(r)
	c := &s.cubes[r]
	c.Lits = cube.CountLiterals(b)
	c.Outs = cube.CountOutputs(b)
	c.Cost = s.cost(c.Lits, cube.CountNegs(b))
}

// CostOf applies the store's cost function.
func (s *Store) CostOf(lits, negs int) int { return s.cost(lits, negs) }

// Free returns the number of cubes on the free list.
func (s *Store) Free() int { return s.nFree }

// CheckAccounting panics unless every cube is either active or free. It is
// only meaningful between rewrites, when no cube is detached.
func (s *Store) CheckAccounting() {
	if s.nActive+s.nFree != s.Capacity() {
		panic(fmt.Sprintf("store: %d active + %d free != capacity %d", s.nActive, s.nFree, s.Capacity()))
	}
}
