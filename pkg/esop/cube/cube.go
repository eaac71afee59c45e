// Package cube implements the packed word representation of ESOP product terms.
//
// Every input variable occupies a 2-bit field holding one of three [Literal]
// values, 32 variables to a uint64 word. Every output occupies a single bit,
// 64 outputs to a word. The encoding is chosen so that the XOR of two distinct
// literal values is the third value: Neg^Pos == Absent, Neg^Absent == Pos and
// Pos^Absent == Neg. The ExorLink rewrite relies on this to form the "XOR"
// replacement value of a differing variable without branching.
//
// This package is the only place that reads or writes raw cube words. All other
// packages go through [Bits] and the functions defined here.
package cube

import (
	"fmt"
	"strings"
)

// Literal is the state of one input variable inside a cube.
type Literal uint8

const (
	// Neg requires the variable to be 0.
	Neg Literal = 1
	// Pos requires the variable to be 1.
	Pos Literal = 2
	// Absent leaves the variable unconstrained.
	Absent Literal = 3
)

// IsLiteral reports whether l constrains its variable.
func (l Literal) IsLiteral() bool { return l == Neg || l == Pos }

// String returns the PLA character for l.
func (l Literal) String() string {
	switch l {
	case Neg:
		return "0"
	case Pos:
		return "1"
	case Absent:
		return "-"
	}
	return fmt.Sprintf("Literal(%d)", uint8(l))
}

const (
	varsPerWord = 32
	outsPerWord = 64

	// lowBits selects the low bit of every 2-bit field.
	lowBits uint64 = 0x5555555555555555
)

// Layout describes the word geometry shared by every cube of one cover.
// Cubes built with different layouts must never be compared.
type Layout struct {
	Vars     int
	Outputs  int
	InWords  int
	OutWords int
}

// NewLayout returns the layout for covers with the given dimensions.
func NewLayout(vars, outputs int) Layout {
	return Layout{
		Vars:     vars,
		Outputs:  outputs,
		InWords:  (vars + varsPerWord - 1) / varsPerWord,
		OutWords: (outputs + outsPerWord - 1) / outsPerWord,
	}
}

// Stride is the number of words one cube occupies.
func (l Layout) Stride() int { return l.InWords + l.OutWords }

// View splits a stride-sized word slice into a [Bits] view. The view aliases
// words; writes through it modify the caller's storage.
func (l Layout) View(words []uint64) Bits {
	s := l.Stride()
	return Bits{
		In:  words[:l.InWords:l.InWords],
		Out: words[l.InWords:s:s],
	}
}

// Bits is a view on the words of a single cube.
type Bits struct {
	In  []uint64
	Out []uint64
}

// Clear resets b to the cube with no literals that drives no output.
// Padding fields past l.Vars are left zero so they never count as
// differences or literals.
func (l Layout) Clear(b Bits) {
	for i := range b.In {
		b.In[i] = 0
	}
	for v := 0; v < l.Vars; v++ {
		b.In[v/varsPerWord] |= uint64(Absent) << shift(v)
	}
	for i := range b.Out {
		b.Out[i] = 0
	}
}

// Copy overwrites dst with src.
func Copy(dst, src Bits) {
	copy(dst.In, src.In)
	copy(dst.Out, src.Out)
}

func shift(v int) uint { return uint(v%varsPerWord) * 2 }

// Get returns the literal of variable v.
func Get(b Bits, v int) Literal {
	return Literal(b.In[v/varsPerWord] >> shift(v) & 3)
}

// Set stores lit as the literal of variable v.
func Set(b Bits, v int, lit Literal) {
	w := &b.In[v/varsPerWord]
	s := shift(v)
	*w = *w&^(3<<s) | uint64(lit)<<s
}

// Toggle XORs lit into the field of variable v. Toggling with the other
// cube's value turns a field into the XOR of both values, which is how a
// distance-1 pair is merged in place.
func Toggle(b Bits, v int, lit Literal) {
	b.In[v/varsPerWord] ^= uint64(lit) << shift(v)
}

// HasOutput reports whether the cube drives output o.
func HasOutput(b Bits, o int) bool {
	return b.Out[o/outsPerWord]>>(o%outsPerWord)&1 == 1
}

// SetOutput makes the cube drive output o.
func SetOutput(b Bits, o int) {
	b.Out[o/outsPerWord] |= 1 << (o % outsPerWord)
}

// XorOutputs replaces the output set of dst with its symmetric difference
// with the output set of src.
func XorOutputs(dst, src Bits) {
	for i := range dst.Out {
		dst.Out[i] ^= src.Out[i]
	}
}

// CopyOutputs overwrites the output set of dst with that of src.
func CopyOutputs(dst, src Bits) {
	copy(dst.Out, src.Out)
}

// Equal reports whether a and b are the same cube.
func Equal(a, b Bits) bool {
	return equalWords(a.In, b.In) && equalWords(a.Out, b.Out)
}

func equalWords(a, b []uint64) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Format renders b in PLA notation: one character per input, a space, one
// character per output.
func (l Layout) Format(b Bits) string {
	var sb strings.Builder
	sb.Grow(l.Vars + l.Outputs + 1)
	for v := 0; v < l.Vars; v++ {
		sb.WriteString(Get(b, v).String())
	}
	sb.WriteByte(' ')
	for o := 0; o < l.Outputs; o++ {
		if HasOutput(b, o) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
