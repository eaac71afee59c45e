package store

import "github.com/matzehuels/exorcism/pkg/esop/cube"

// change records one merge or cancellation performed by FindClose.
type change struct {
	p, q   Ref
	pGen   uint32
	qGen   uint32
	cancel bool
	v      int
	val    cube.Literal
	pLits  int
	pCost  int
	pOuts  int
}

// journal holds the changes made by FindClose since the last Forget and
// their net effect on the literal and cost totals of the cubes involved.
type journal struct {
	changes []change
	lits    int
	cost    int
}

// FindClose compares the detached cube p with every active cube and returns
// the number of cubes removed from the cover because of p:
//
//   - an active cube at distance 1 is merged into p and released, then the
//     scan restarts with the updated p (gain 1 per merge);
//   - an active duplicate cancels with p, both are released (gain 2) and the
//     pairs recorded by this call are discarded;
//   - pairs at distance 2, 3 or 4 are recorded in the enabled queues.
//
// When no merge or cancellation happens p is inserted if insert is set and
// the recorded pairs are committed. After at least one merge p is always
// inserted, unless it was cancelled. Merges and cancellations are added to
// the journal read by Delta and reverted by Undo.
func (s *Store) FindClose(p Ref, insert bool) int {
	gain := 0
	pb := s.Bits(p)
	for {
		s.resetRange()
		merged := false
		for q := s.head; q != Nil; q = s.cubes[q].next {
			d := cube.Compare(pb, s.Bits(q))
			switch d.Dist {
			case 0:
				s.cancel(p, q)
				s.resetRange()
				return gain + 2
			case 1:
				s.merge(p, q, d)
				merged = true
			case 2, 3, 4:
				s.record(d.Dist, p, q)
			}
			if merged {
				break
			}
		}
		if !merged {
			if insert {
				s.Insert(p)
			}
			s.commit()
			return gain
		}
		gain++
		insert = true
	}
}

func (s *Store) merge(p, q Ref, d cube.Diff) {
	pc, qc := &s.cubes[p], &s.cubes[q]
	u := change{
		p: p, q: q, qGen: qc.gen,
		v: d.Var, val: d.B,
		pLits: pc.Lits, pCost: pc.Cost, pOuts: pc.Outs,
	}
	s.Extract(q)
	pb, qb := s.Bits(p), s.Bits(q)
	if d.Var == cube.Output {
		cube.XorOutputs(pb, qb)
		pc.Outs = cube.CountOutputs(pb)
	} else {
		cube.Toggle(pb, d.Var, d.B)
		s.Refresh(p)
	}
	s.journal.changes = append(s.journal.changes, u)
	s.journal.lits += pc.Lits - u.pLits - qc.Lits
	s.journal.cost += pc.Cost - u.pCost - qc.Cost
	s.Release(q)
}

func (s *Store) cancel(p, q Ref) {
	pc, qc := &s.cubes[p], &s.cubes[q]
	s.journal.changes = append(s.journal.changes, change{p: p, q: q, pGen: pc.gen, qGen: qc.gen, cancel: true})
	s.journal.lits -= pc.Lits + qc.Lits
	s.journal.cost -= pc.Cost + qc.Cost
	s.Extract(q)
	s.Release(q)
	s.Release(p)
}

// Forget clears the journal of changes that Undo would revert.
func (s *Store) Forget() {
	s.journal.changes = s.journal.changes[:0]
	s.journal.lits, s.journal.cost = 0, 0
}

// Delta returns how much the merges and cancellations since the last Forget
// changed the summed literal count and cost of the cubes they touched.
func (s *Store) Delta() (lits, cost int) {
	return s.journal.lits, s.journal.cost
}

// Undo reverts every merge and cancellation since the last Forget: absorbed
// cubes are revived with their old generations and reinserted, and the
// cubes passed to FindClose are restored and left detached. No cube may be
// released between the changes and the Undo.
func (s *Store) Undo() {
	if len(s.journal.changes) == 0 {
		panic("store: undo without a recorded change")
	}
	for i := len(s.journal.changes) - 1; i >= 0; i-- {
		u := s.journal.changes[i]
		if u.cancel {
			s.revive(u.p, u.pGen)
			s.revive(u.q, u.qGen)
			s.Insert(u.q)
			continue
		}
		if s.cubes[u.p].where == active {
			s.Extract(u.p)
		}
		s.revive(u.q, u.qGen)
		s.Insert(u.q)

		pb := s.Bits(u.p)
		if u.v == cube.Output {
			cube.XorOutputs(pb, s.Bits(u.q))
		} else {
			cube.Toggle(pb, u.v, u.val)
		}
		pc := &s.cubes[u.p]
		pc.Lits, pc.Cost, pc.Outs = u.pLits, u.pCost, u.pOuts
	}
	s.Forget()
}
