package cube

// CostFunc returns the alternate cost of a product term with lits literals,
// negs of which are negative. Implementations must be pure: the minimizer
// caches the result per cube and recomputes it only when the literals change.
type CostFunc func(lits, negs int) int

// LiteralCost is the default comparison basis: the literal count itself.
func LiteralCost(lits, _ int) int { return lits }

// QuantumCost estimates the number of elementary quantum gates needed to
// realize a cube as a multiple-controlled Toffoli gate. Small gates use
// tabulated values; a negative control costs an extra pair of NOT gates
// once more than half of the controls are negative.
func QuantumCost(lits, negs int) int {
	switch lits {
	case 0:
		return 1
	case 1:
		if negs == 0 {
			return 1
		}
		return 2
	case 2:
		if negs <= 1 {
			return 5
		}
		return 6
	case 3:
		switch {
		case negs <= 1:
			return 14
		case negs == 2:
			return 16
		default:
			return 18
		}
	}
	cost := 20 * (lits - 2)
	if extra := negs - lits/2; extra > 0 {
		cost += 2 * extra
	}
	return cost
}
