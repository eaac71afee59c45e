package store

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/exorcism/pkg/esop/cube"
)

func newStore(t *testing.T, vars, outs, capacity int) *Store {
	t.Helper()
	s, err := New(Options{Layout: cube.NewLayout(vars, outs), Capacity: capacity})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

// build builds a detached cube from PLA text such as "1-0 01".
func (s *Store) build(t *testing.T, text string) Ref {
	t.Helper()
	in, out, ok := strings.Cut(text, " ")
	if !ok || len(in) != s.layout.Vars || len(out) != s.layout.Outputs {
		t.Fatalf("bad cube %q", text)
	}
	r := s.Get()
	b := s.Bits(r)
	s.layout.Clear(b)
	for v, ch := range in {
		switch ch {
		case '0':
			cube.Set(b, v, cube.Neg)
		case '1':
			cube.Set(b, v, cube.Pos)
		}
	}
	for o, ch := range out {
		if ch == '1' {
			cube.SetOutput(b, o)
		}
	}
	s.Refresh(r)
	return r
}

func (s *Store) texts() []string {
	var out []string
	for r := range s.All() {
		out = append(out, s.layout.Format(s.Bits(r)))
	}
	return out
}

func TestNewOutOfMemory(t *testing.T) {
	_, err := New(Options{Layout: cube.NewLayout(8, 1), Capacity: 1000, MaxBytes: 1024})
	if !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("err = %v, want ErrOutOfMemory", err)
	}
	if _, err := New(Options{Layout: cube.NewLayout(8, 1)}); err == nil {
		t.Fatal("expected error for zero capacity")
	}
}

func TestPoolAccounting(t *testing.T) {
	s := newStore(t, 4, 1, 5)
	if s.Free() != 5 || s.Len() != 0 {
		t.Fatalf("fresh store: free=%d active=%d", s.Free(), s.Len())
	}
	a := s.Get()
	b := s.Get()
	s.Insert(a)
	s.Insert(b)
	s.CheckAccounting()

	s.Extract(a)
	s.Release(a)
	s.CheckAccounting()
	if s.Free() != 4 || s.Len() != 1 {
		t.Errorf("free=%d active=%d", s.Free(), s.Len())
	}
	if got := s.Get(); got != a {
		t.Errorf("free list is not LIFO: got %d, want %d", got, a)
	}
}

func TestReleaseActivePanics(t *testing.T) {
	s := newStore(t, 2, 1, 2)
	r := s.Get()
	s.Insert(r)
	defer func() {
		if recover() == nil {
			t.Error("releasing an active cube must panic")
		}
	}()
	s.Release(r)
}

func TestFindCloseMergesVariable(t *testing.T) {
	s := newStore(t, 2, 1, 4)
	s.FindClose(s.build(t, "11 1"), true)
	gain := s.FindClose(s.build(t, "10 1"), true)
	if gain != 1 {
		t.Fatalf("gain = %d, want 1", gain)
	}
	got := s.texts()
	if len(got) != 1 || got[0] != "1- 1" {
		t.Errorf("cover = %v, want [1- 1]", got)
	}
	for r := range s.All() {
		if c := s.Cube(r); c.Lits != 1 || c.Outs != 1 {
			t.Errorf("stale counters: %+v", *c)
		}
	}
	s.CheckAccounting()
}

func TestFindCloseMergesOutputs(t *testing.T) {
	s := newStore(t, 2, 2, 4)
	s.FindClose(s.build(t, "1- 10"), true)
	if gain := s.FindClose(s.build(t, "1- 01"), true); gain != 1 {
		t.Fatalf("gain = %d, want 1", gain)
	}
	if got := s.texts(); len(got) != 1 || got[0] != "1- 11" {
		t.Errorf("cover = %v", got)
	}
}

func TestFindCloseCancelsDuplicates(t *testing.T) {
	s := newStore(t, 3, 1, 4)
	s.FindClose(s.build(t, "1-0 1"), true)
	if gain := s.FindClose(s.build(t, "1-0 1"), true); gain != 2 {
		t.Fatalf("gain = %d, want 2", gain)
	}
	if s.Len() != 0 {
		t.Errorf("cover = %v, want empty", s.texts())
	}
	s.CheckAccounting()
}

func TestFindCloseChainsMerges(t *testing.T) {
	// 10 ^ 11 = 1-, then 1- ^ 0- = --
	s := newStore(t, 2, 1, 4)
	s.FindClose(s.build(t, "0- 1"), true)
	s.FindClose(s.build(t, "11 1"), true)
	if gain := s.FindClose(s.build(t, "10 1"), false); gain != 2 {
		t.Fatalf("gain = %d, want 2", gain)
	}
	if got := s.texts(); len(got) != 1 || got[0] != "-- 1" {
		t.Errorf("cover = %v", got)
	}
}

func TestFindCloseRecordsEnabledClasses(t *testing.T) {
	s := newStore(t, 4, 1, 8)
	s.Enable(Dist2 | Dist3)
	s.FindClose(s.build(t, "0000 1"), true)
	s.FindClose(s.build(t, "0011 1"), true) // distance 2
	s.FindClose(s.build(t, "1110 1"), true) // distance 3 to the first, 3 to the second
	if s.Queued(2) != 1 || s.Queued(3) != 2 || s.Queued(4) != 0 {
		t.Errorf("queued = %d/%d/%d", s.Queued(2), s.Queued(3), s.Queued(4))
	}

	// outputs differ as well: distance 3 to 1110, 4 to 0011 and 0000
	s.Enable(Dist4)
	s.FindClose(s.build(t, "1101 0"), false)
	if s.Queued(4) != 2 || s.Queued(2) != 1 {
		t.Errorf("queued after dist4 scan = %d/%d", s.Queued(2), s.Queued(4))
	}
}

func TestStalePairsAreSkipped(t *testing.T) {
	s := newStore(t, 4, 1, 8)
	a := s.build(t, "0000 1")
	s.FindClose(a, true)
	b := s.build(t, "0011 1")
	s.FindClose(b, true)
	c := s.build(t, "1100 1")
	s.FindClose(c, true)

	// b is released and its slot immediately reused for a different cube.
	s.Extract(b)
	s.Release(b)
	reused := s.build(t, "0101 1")
	if reused != b {
		t.Fatalf("expected slot reuse, got %d want %d", reused, b)
	}
	s.Insert(reused)

	if n := s.BeginPairs(2); n != 2 {
		t.Fatalf("BeginPairs = %d, want 2", n)
	}
	var got [][2]Ref
	for {
		x, y, ok := s.NextPair(2)
		if !ok {
			break
		}
		got = append(got, [2]Ref{x, y})
	}
	if len(got) != 1 || got[0] != [2]Ref{c, a} {
		t.Errorf("pairs = %v, want only (c,a)", got)
	}
}

func TestMarkRewind(t *testing.T) {
	s := newStore(t, 4, 1, 8)
	s.FindClose(s.build(t, "0000 1"), true)
	s.FindClose(s.build(t, "0011 1"), true)
	s.MarkSet()
	s.FindClose(s.build(t, "1100 1"), false)
	if s.Queued(2) != 2 {
		t.Fatalf("queued = %d, want 2", s.Queued(2))
	}
	s.Rewind()
	if s.Queued(2) != 1 {
		t.Errorf("queued after rewind = %d, want 1", s.Queued(2))
	}
}

func TestUndoRestoresCover(t *testing.T) {
	s := newStore(t, 3, 1, 8)
	s.Enable(AllClasses)
	q := s.build(t, "110 1")
	s.FindClose(q, true)
	other := s.build(t, "001 1")
	s.FindClose(other, true)
	before := s.Queued(2) + s.Queued(3)

	p := s.build(t, "111 1")
	if gain := s.FindClose(p, false); gain != 1 {
		t.Fatalf("gain = %d, want 1", gain)
	}
	if lits, _ := s.Delta(); lits != 2-3-3 {
		t.Errorf("delta literals = %d, want %d", lits, 2-3-3)
	}
	s.Undo()

	if got := s.layout.Format(s.Bits(p)); got != "111 1" {
		t.Errorf("p after undo = %q", got)
	}
	if s.Cube(p).Lits != 3 {
		t.Errorf("p literals after undo = %d", s.Cube(p).Lits)
	}
	if s.Cube(q).where != active {
		t.Errorf("partner is %s after undo", s.Cube(q).where)
	}

	// pairs recorded before the merge reference q with its old generation
	// and must be valid again.
	s.BeginPairs(3)
	n := 0
	for {
		if _, _, ok := s.NextPair(3); !ok {
			break
		}
		n++
	}
	if before != 1 || n != 1 {
		t.Errorf("expected revived pairs, queued before=%d valid=%d", before, n)
	}
	s.Release(p)
	s.CheckAccounting()
}

func TestUndoRevertsChain(t *testing.T) {
	s := newStore(t, 2, 1, 8)
	s.Enable(AllClasses)
	for _, text := range []string{"11 1", "0- 1", "-- 1"} {
		s.Insert(s.build(t, text))
	}
	want := s.texts()
	slices.Sort(want)

	// 10 merges with 11, then with 0- and -- in either order, and ends by
	// cancelling against the last of them.
	p := s.build(t, "10 1")
	if gain := s.FindClose(p, false); gain != 4 {
		t.Fatalf("gain = %d, want 4", gain)
	}
	if s.Len() != 0 {
		t.Fatalf("cover = %v, want empty", s.texts())
	}
	if lits, _ := s.Delta(); lits != -5 {
		t.Errorf("delta literals = %d, want -5", lits)
	}

	s.Undo()
	got := s.texts()
	slices.Sort(got)
	if !slices.Equal(got, want) {
		t.Errorf("cover after undo = %v, want %v", got, want)
	}
	if text := s.layout.Format(s.Bits(p)); text != "10 1" || s.Cube(p).Lits != 2 {
		t.Errorf("p after undo = %q with %d literals", text, s.Cube(p).Lits)
	}
	if s.Cube(p).where != detached {
		t.Errorf("p is %s after undo", s.Cube(p).where)
	}
	if lits, cost := s.Delta(); lits != 0 || cost != 0 {
		t.Errorf("delta after undo = %d/%d", lits, cost)
	}
	s.Release(p)
	s.CheckAccounting()
}

func TestUndoWithoutChangesPanics(t *testing.T) {
	s := newStore(t, 2, 1, 4)
	s.FindClose(s.build(t, "11 1"), true)
	s.Forget()
	defer func() {
		if recover() == nil {
			t.Error("undo after forget must panic")
		}
	}()
	s.Undo()
}

func TestQueueGrowKeepsOrder(t *testing.T) {
	q := newQueue(4)
	for i := 0; i < 3; i++ {
		q.push(pair{a: Ref(i + 1)})
	}
	q.commit()
	q.begin()
	if p, _ := q.pop(); p.a != 1 {
		t.Fatalf("pop = %d", p.a)
	}
	for i := 3; i < 20; i++ {
		q.push(pair{a: Ref(i + 1)})
	}
	q.commit()
	if len(q.buf) < 19 {
		t.Fatalf("buffer did not grow: %d", len(q.buf))
	}
	q.begin()
	for want := Ref(2); want <= 20; want++ {
		p, ok := q.pop()
		if !ok || p.a != want {
			t.Fatalf("pop = %d/%v, want %d", p.a, ok, want)
		}
	}
	if _, ok := q.pop(); ok {
		t.Error("queue should be drained")
	}
}

func TestClassesString(t *testing.T) {
	tests := []struct {
		c    Classes
		want string
	}{
		{0, "none"},
		{Dist2, "2"},
		{Dist2 | Dist4, "2|4"},
		{AllClasses, "2|3|4"},
	}
	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.c, got, tt.want)
		}
	}
}
