package store

import "fmt"

// Classes is a set of distance classes whose candidate pairs are recorded.
type Classes uint8

const (
	Dist2 Classes = 1 << iota
	Dist3
	Dist4

	AllClasses = Dist2 | Dist3 | Dist4
)

// Has reports whether the class of distance d is in c.
func (c Classes) Has(d int) bool {
	return d >= 2 && d <= 4 && c&(1<<(d-2)) != 0
}

func (c Classes) String() string {
	s := ""
	for d := 2; d <= 4; d++ {
		if c.Has(d) {
			if s != "" {
				s += "|"
			}
			s += fmt.Sprint(d)
		}
	}
	if s == "" {
		return "none"
	}
	return s
}

// pair is a queued candidate: two cubes and their generations at the time
// the pair was recorded.
type pair struct {
	a, b   Ref
	ga, gb uint32
}

// queue is a ring buffer of pairs addressed by absolute positions. The
// buffer length is a power of two so a position maps to a slot by masking,
// and growing the buffer keeps every position valid.
//
// Positions satisfy out <= stop <= in <= cur, and mark >= out whenever a
// rewind happens. Entries in [in, cur) are provisional: they belong to the
// findClose scan in progress and are dropped by resetRange.
type queue struct {
	buf  []pair
	out  uint64
	stop uint64
	in   uint64
	cur  uint64
	mark uint64
}

func queueSlots(capacity int) int {
	n := 64
	for n < 4*capacity {
		n <<= 1
	}
	return n
}

func newQueue(slots int) queue {
	return queue{buf: make([]pair, slots)}
}

func (q *queue) push(p pair) {
	if q.cur-q.out == uint64(len(q.buf)) {
		q.grow()
	}
	q.buf[q.cur&uint64(len(q.buf)-1)] = p
	q.cur++
}

func (q *queue) grow() {
	buf := make([]pair, 2*len(q.buf))
	oldMask, newMask := uint64(len(q.buf)-1), uint64(len(buf)-1)
	for i := q.out; i < q.cur; i++ {
		buf[i&newMask] = q.buf[i&oldMask]
	}
	q.buf = buf
}

func (q *queue) resetRange() { q.cur = q.in }
func (q *queue) commit()     { q.in = q.cur }
func (q *queue) markSet()    { q.mark = q.in }

func (q *queue) rewind() {
	if q.mark < q.out {
		panic("store: rewind behind the consumer")
	}
	q.in, q.cur = q.mark, q.mark
}

func (q *queue) begin() int {
	q.stop = q.in
	return int(q.stop - q.out)
}

func (q *queue) pop() (pair, bool) {
	if q.out == q.stop {
		return pair{}, false
	}
	p := q.buf[q.out&uint64(len(q.buf)-1)]
	q.out++
	return p, true
}

func (q *queue) len() int { return int(q.in - q.out) }

func (s *Store) queue(d int) *queue {
	if d < 2 || d > 4 {
		panic(fmt.Sprintf("store: no queue for distance %d", d))
	}
	return &s.queues[d-2]
}

// Enable sets the distance classes whose pairs findClose records.
func (s *Store) Enable(c Classes) { s.enabled = c }

// Enabled returns the distance classes currently recorded.
func (s *Store) Enabled() Classes { return s.enabled }

// Queued returns the number of committed pairs waiting in the queue of
// distance d, stale ones included.
func (s *Store) Queued(d int) int { return s.queue(d).len() }

// MarkSet snapshots the insertion position of all three queues.
func (s *Store) MarkSet() {
	for i := range s.queues {
		s.queues[i].markSet()
	}
}

// Rewind drops every pair recorded since the last [Store.MarkSet].
func (s *Store) Rewind() {
	for i := range s.queues {
		s.queues[i].rewind()
	}
}

func (s *Store) resetRange() {
	for i := range s.queues {
		s.queues[i].resetRange()
	}
}

func (s *Store) commit() {
	for i := range s.queues {
		s.queues[i].commit()
	}
}

func (s *Store) record(d int, a, b Ref) {
	if !s.enabled.Has(d) {
		return
	}
	s.queue(d).push(pair{a: a, b: b, ga: s.cubes[a].gen, gb: s.cubes[b].gen})
}

// BeginPairs starts a pass over the queue of distance d and returns the
// number of pairs it will visit at most. Pairs recorded during the pass are
// left for the next one.
func (s *Store) BeginPairs(d int) int { return s.queue(d).begin() }

// NextPair returns the next pair of the pass started by [Store.BeginPairs].
// Pairs whose cubes were released or are no longer active are skipped.
func (s *Store) NextPair(d int) (a, b Ref, ok bool) {
	q := s.queue(d)
	for {
		p, ok := q.pop()
		if !ok {
			return Nil, Nil, false
		}
		if s.valid(p) {
			return p.a, p.b, true
		}
	}
}

func (s *Store) valid(p pair) bool {
	ca, cb := &s.cubes[p.a], &s.cubes[p.b]
	return ca.gen == p.ga && cb.gen == p.gb && ca.where == active && cb.where == active
}
