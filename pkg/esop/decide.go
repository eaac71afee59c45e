package esop

// Verdict is the outcome of evaluating one group of an ExorLink rewrite.
type Verdict uint8

const (
	// TryNext undoes the group and moves on to the next one.
	TryNext Verdict = iota
	// Accept replaces the pair with the group.
	Accept
	// Reject gives up on the pair and puts it back.
	Reject
)

func (v Verdict) String() string {
	switch v {
	case TryNext:
		return "try-next"
	case Accept:
		return "accept"
	case Reject:
		return "reject"
	}
	return "unknown"
}

// Mode holds the policy switches of a pass.
type Mode struct {
	// DecreaseOnly rejects rewrites that would not lower the cost metric.
	DecreaseOnly bool
	// Reshape allows a distance-2 rewrite without gain to keep its last
	// group.
	Reshape bool
}

// Evaluation describes the state of a rewrite after a group was tried.
type Evaluation struct {
	Dist int
	// Gain is the number of cubes removed by the group so far. For distance
	// 2 and 3 it is the gain of the member that merged first, for distance 4
	// the total over all members.
	Gain int
	// PairCost is the metric of the rewritten pair.
	PairCost int
	// GroupCost is the summed metric of the group's cubes, corrected by
	// what their merges so far added and absorbed. Inserting the remaining
	// members never raises it, so it bounds the cost after an accept.
	GroupCost int
	// Last is set when no group is left to try.
	Last bool
}

// Decide is the acceptance policy shared by all distances.
func Decide(ev Evaluation, m Mode) Verdict {
	need := 1
	if ev.Dist == 4 {
		need = 2
	}
	switch {
	case ev.Gain < need:
		if !ev.Last {
			return TryNext
		}
		if ev.Dist == 2 && ev.Gain == 0 && m.Reshape && !(m.DecreaseOnly && ev.GroupCost >= ev.PairCost) {
			return Accept
		}
		return Reject
	case m.DecreaseOnly && ev.GroupCost > ev.PairCost:
		if ev.Last {
			return Reject
		}
		return TryNext
	}
	return Accept
}
