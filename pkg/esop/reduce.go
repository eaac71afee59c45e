package esop

import (
	"time"

	"github.com/matzehuels/exorcism/pkg/esop/cube"
	"github.com/matzehuels/exorcism/pkg/esop/store"
)

// PassStats summarizes one pass of a schedule step.
type PassStats struct {
	Iteration int           `json:"iteration"`
	Phase     string        `json:"phase"`
	Dist      int           `json:"dist"`
	Queued    int           `json:"queued"`
	Attempts  int           `json:"attempts"`
	Skipped   int           `json:"skipped"`
	Accepted  int           `json:"accepted"`
	Gain      int           `json:"gain"`
	Cubes     int           `json:"cubes"`
	Literals  int           `json:"literals"`
	Cost      int           `json:"cost"`
	Elapsed   time.Duration `json:"elapsed"`
}

const (
	phaseLight = "light"
	phaseHeavy = "heavy"
	phaseFinal = "final"
)

// reduce runs the schedule until StopAfter iterations in a row remove no
// cube, then runs the final steps.
func (m *minimizer) reduce(sched Schedule) {
	stagnation := 0
	for stagnation < sched.StopAfter {
		m.iter++
		before := m.st.Len()
		m.steps(sched.Light, phaseLight, false)
		if stagnation > sched.HeavyAfter {
			m.steps(sched.Heavy, phaseHeavy, false)
		}
		gain := before - m.st.Len()
		if gain > 0 {
			stagnation = 0
		} else {
			stagnation++
		}
		if m.cfg.Verbosity > 0 {
			lits, cost := m.st.Totals()
			m.log.Info("iteration", "n", m.iter, "gain", gain, "cubes", m.st.Len(), "literals", lits, "cost", cost, "stagnation", stagnation)
		}
	}
	m.res.Iterations = m.iter
	m.steps(sched.Final, phaseFinal, true)
}

func (m *minimizer) steps(steps []Step, phase string, decreaseOnly bool) {
	m.phase = phase
	for _, s := range steps {
		m.pass(s, Mode{DecreaseOnly: decreaseOnly, Reshape: s.Reshape})
	}
}

// pass rewrites every pair queued at distance s.Dist when the pass starts.
// Pairs recorded during the pass wait for a later one. A cube merged in
// place keeps its generation, so a queued pair can outlive its distance;
// such pairs are skipped.
func (m *minimizer) pass(s Step, mode Mode) {
	start := time.Now()
	m.st.Enable(s.Enable)
	before := m.st.Len()
	ps := PassStats{
		Iteration: m.iter,
		Phase:     m.phase,
		Dist:      s.Dist,
		Queued:    m.st.BeginPairs(s.Dist),
	}
	for {
		c1, c2, ok := m.st.NextPair(s.Dist)
		if !ok {
			break
		}
		if cube.Distance(m.st.Bits(c1), m.st.Bits(c2)) != s.Dist {
			ps.Skipped++
			continue
		}
		ps.Attempts++
		if m.rewrite(c1, c2, s.Dist, mode) {
			ps.Accepted++
		}
	}
	m.st.CheckAccounting()

	ps.Gain = before - m.st.Len()
	ps.Cubes = m.st.Len()
	ps.Literals, ps.Cost = m.st.Totals()
	ps.Elapsed = time.Since(start)
	m.res.Passes = append(m.res.Passes, ps)

	if m.cfg.Verbosity > 1 {
		m.log.Info("pass",
			"phase", ps.Phase,
			"dist", ps.Dist,
			"queued", ps.Queued,
			"attempts", ps.Attempts,
			"skipped", ps.Skipped,
			"accepted", ps.Accepted,
			"gain", ps.Gain,
			"cubes", ps.Cubes,
			"literals", ps.Literals)
	}
	if m.cfg.Progress != nil {
		m.cfg.Progress(ps)
	}
}

func (m *minimizer) metric(r store.Ref) int {
	c := m.st.Cube(r)
	if m.cfg.AlternateCost {
		return c.Cost
	}
	return c.Lits
}

// delta is the metric change caused by the merges since the last Forget.
func (m *minimizer) delta() int {
	lits, cost := m.st.Delta()
	if m.cfg.AlternateCost {
		return cost
	}
	return lits
}

func (m *minimizer) sum(grp []store.Ref) int {
	total := 0
	for _, r := range grp {
		total += m.metric(r)
	}
	return total
}

// rewrite tries the ExorLink groups of c1 and c2 and reports whether the
// pair was replaced. On rejection the pair is back in the cover and the
// queues hold what they held before the attempt, apart from the pair
// itself.
func (m *minimizer) rewrite(c1, c2 store.Ref, d int, mode Mode) bool {
	m.st.Extract(c1)
	m.st.Extract(c2)
	m.st.MarkSet()
	m.st.Forget()
	pairCost := m.metric(c1) + m.metric(c2)

	grp := m.lk.Start(c1, c2, d)
	var ok bool
	if d == 4 {
		ok = m.rewriteGroups(grp, pairCost, mode)
	} else {
		ok = m.rewriteMembers(d, grp, pairCost, mode)
	}
	if !ok {
		m.st.Rewind()
		m.st.Insert(c1)
		m.st.Insert(c2)
		m.lk.CleanUp(false)
		return false
	}
	m.lk.CleanUp(true)
	m.st.Release(c1)
	m.st.Release(c2)
	return true
}

// rewriteMembers handles distances 2 and 3: a group is taken as soon as one
// of its members merges with the cover.
func (m *minimizer) rewriteMembers(d int, grp []store.Ref, pairCost int, mode Mode) bool {
	for {
		m.st.Forget()
		base := m.sum(grp)
		for i, r := range grp {
			if d == 3 && m.lk.Marked(i) {
				continue
			}
			gain := m.st.FindClose(r, false)
			if gain == 0 {
				if d == 3 {
					m.lk.Mark(i)
				}
				continue
			}
			ev := Evaluation{Dist: d, Gain: gain, PairCost: pairCost, GroupCost: base + m.delta(), Last: m.lk.Remaining() == 0}
			switch Decide(ev, mode) {
			case Accept:
				m.insertOthers(grp, i)
				return true
			case Reject:
				m.st.Undo()
				return false
			}
			m.st.Undo()
			break
		}

		if m.lk.Remaining() == 0 {
			ev := Evaluation{Dist: d, PairCost: pairCost, GroupCost: base, Last: true}
			if Decide(ev, mode) != Accept {
				return false
			}
			// Reshape only happens at distance 2, where every member of the
			// last group went through FindClose and has its pairs queued.
			for _, r := range grp {
				m.st.Insert(r)
			}
			return true
		}
		m.st.Rewind()
		grp, _ = m.lk.Next()
	}
}

// insertOthers adds every member of grp except the i-th to the cover.
func (m *minimizer) insertOthers(grp []store.Ref, i int) {
	for j, r := range grp {
		if j != i {
			m.st.FindClose(r, true)
		}
	}
}

// rewriteGroups handles distance 4: a group is taken when its members
// remove at least two cubes together.
func (m *minimizer) rewriteGroups(grp []store.Ref, pairCost int, mode Mode) bool {
	for {
		m.st.Forget()
		base := m.sum(grp)
		var inserted [4]bool
		total := 0
		for i, r := range grp {
			if m.lk.Marked(i) {
				continue
			}
			gain := m.st.FindClose(r, false)
			inserted[i] = gain > 0
			total += gain
		}
		ev := Evaluation{Dist: 4, Gain: total, PairCost: pairCost, GroupCost: base + m.delta(), Last: m.lk.Remaining() == 0}
		v := Decide(ev, mode)
		if v == Accept {
			for i, r := range grp {
				if !inserted[i] {
					m.st.FindClose(r, true)
				}
			}
			return true
		}
		switch total {
		case 0:
			for i := range grp {
				m.lk.Mark(i)
			}
		case 1:
			m.st.Undo()
			for i := range grp {
				if !inserted[i] {
					m.lk.Mark(i)
				}
			}
		default:
			m.st.Undo()
		}
		if v == Reject {
			return false
		}
		m.st.Rewind()
		grp, _ = m.lk.Next()
	}
}
