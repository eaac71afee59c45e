package cube

import "math/bits"

// MaxDistance is the value every distance greater than 4 is reported as.
// No rewrite needs to tell those distances apart.
const MaxDistance = 5

// Output is the position index used for "the output sets differ" in the
// result of [DiffPositions] and in [Diff.Var].
const Output = -1

// differs folds every 2-bit field of x onto its low bit.
func differs(x uint64) uint64 { return (x | x>>1) & lowBits }

// Distance returns the number of input variables at which a and b carry
// different literals, plus one if their output sets differ. Results above 4
// are clamped to [MaxDistance].
func Distance(a, b Bits) int {
	d := 0
	for i := range a.In {
		if x := a.In[i] ^ b.In[i]; x != 0 {
			d += bits.OnesCount64(differs(x))
			if d > 4 {
				return MaxDistance
			}
		}
	}
	if !equalWords(a.Out, b.Out) {
		d++
	}
	return min(d, MaxDistance)
}

// Diff is the result of [Compare].
type Diff struct {
	Dist int
	// Var is the differing variable when Dist is 1, or [Output] when only
	// the output sets differ. It is meaningless for other distances.
	Var int
	// A and B are the literals of Var in the two compared cubes.
	A, B Literal
}

// Compare is [Distance] extended with the information needed to merge a
// distance-1 pair in place.
func Compare(a, b Bits) Diff {
	d := Diff{Var: Output}
	for i := range a.In {
		x := a.In[i] ^ b.In[i]
		if x == 0 {
			continue
		}
		m := differs(x)
		d.Dist += bits.OnesCount64(m)
		if d.Dist > 4 {
			return Diff{Dist: MaxDistance, Var: Output}
		}
		if d.Dist == 1 {
			d.Var = i*varsPerWord + bits.TrailingZeros64(m)/2
		}
	}
	if !equalWords(a.Out, b.Out) {
		d.Dist++
		if d.Dist > 1 {
			d.Var = Output
		}
	}
	if d.Dist == 1 && d.Var != Output {
		d.A, d.B = Get(a, d.Var), Get(b, d.Var)
	}
	return d
}

// DiffPositions writes the differing positions of a and b into out, input
// variables in ascending order followed by [Output] if the output sets
// differ, and returns their number. As soon as a fifth position is found it
// returns [MaxDistance] and the content of out is unspecified.
func DiffPositions(a, b Bits, out *[MaxDistance]int) int {
	n := 0
	for i := range a.In {
		m := differs(a.In[i] ^ b.In[i])
		for m != 0 {
			if n == 4 {
				return MaxDistance
			}
			out[n] = i*varsPerWord + bits.TrailingZeros64(m)/2
			n++
			m &= m - 1
		}
	}
	if !equalWords(a.Out, b.Out) {
		out[n] = Output
		n++
	}
	return n
}

// CountLiterals returns the number of constrained variables of b.
func CountLiterals(b Bits) int {
	n := 0
	for _, w := range b.In {
		n += bits.OnesCount64((w ^ w>>1) & lowBits)
	}
	return n
}

// CountNegs returns the number of negative literals of b.
func CountNegs(b Bits) int {
	n := 0
	for _, w := range b.In {
		n += bits.OnesCount64(w &^ (w >> 1) & lowBits)
	}
	return n
}

// CountOutputs returns the number of outputs b drives.
func CountOutputs(b Bits) int {
	n := 0
	for _, w := range b.Out {
		n += bits.OnesCount64(w)
	}
	return n
}
