package store

import (
	"fmt"
	"iter"
)

// Insert links a detached cube into the active ring.
func (s *Store) Insert(r Ref) {
	c := &s.cubes[r]
	if c.where != detached {
		panic(fmt.Sprintf("store: insert of %s cube %d", c.where, r))
	}
	c.where = active
	c.prev = Nil
	c.next = s.head
	if s.head != Nil {
		s.cubes[s.head].prev = r
	}
	s.head = r
	s.nActive++
}

// Extract unlinks an active cube from the ring and leaves it detached.
func (s *Store) Extract(r Ref) {
	c := &s.cubes[r]
	if c.where != active {
		panic(fmt.Sprintf("store: extract of %s cube %d", c.where, r))
	}
	if c.prev != Nil {
		s.cubes[c.prev].next = c.next
	} else {
		s.head = c.next
	}
	if c.next != Nil {
		s.cubes[c.next].prev = c.prev
	}
	c.prev, c.next = Nil, Nil
	c.where = detached
	s.nActive--
}

// Len returns the number of active cubes.
func (s *Store) Len() int { return s.nActive }

// All yields the active cubes. The ring must not be modified while the
// sequence is being consumed.
func (s *Store) All() iter.Seq[Ref] {
	return func(yield func(Ref) bool) {
		for r := s.head; r != Nil; r = s.cubes[r].next {
			if !yield(r) {
				return
			}
		}
	}
}

// Totals returns the summed literal count and cost of the active cubes.
func (s *Store) Totals() (lits, cost int) {
	for r := range s.All() {
		lits += s.cubes[r].Lits
		cost += s.cubes[r].Cost
	}
	return lits, cost
}
