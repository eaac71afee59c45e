// Package cover defines the in-memory shape of a multi-output ESOP cover and
// its text encodings.
//
// A [Cover] is a list of product terms over Inputs variables. Each [Term]
// XORs its product into every output it lists, so the value of output o for
// an assignment is the parity of the terms that list o and are satisfied by
// the assignment.
//
// Two encodings are supported: the PLA format with `.type esop` used by
// logic synthesis tools (see [ReadPLA] and [WritePLA]) and a JSON document
// (see [ReadJSON] and [WriteJSON]).
package cover

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/exorcism/pkg/esop/cube"
	"github.com/matzehuels/exorcism/pkg/errors"
)

// Lit is a signed reference to an input variable, packed as var<<1 | neg.
type Lit int32

// Pos returns the positive literal of variable v.
func Pos(v int) Lit { return Lit(v << 1) }

// Neg returns the negative literal of variable v.
func Neg(v int) Lit { return Lit(v<<1 | 1) }

// Var returns the variable index of l.
func (l Lit) Var() int { return int(l >> 1) }

// IsNeg reports whether l is a negative literal.
func (l Lit) IsNeg() bool { return l&1 == 1 }

// Not returns the complement of l.
func (l Lit) Not() Lit { return l ^ 1 }

func (l Lit) String() string {
	if l.IsNeg() {
		return fmt.Sprintf("!x%d", l.Var())
	}
	return fmt.Sprintf("x%d", l.Var())
}

// Term is a product of literals XORed into a set of outputs.
type Term struct {
	Lits    []Lit
	Outputs []int
}

// Cover is a multi-output ESOP.
type Cover struct {
	Inputs  int
	Outputs int
	Terms   []Term

	// Optional signal names, as given by .ilb and .ob.
	InputNames  []string
	OutputNames []string
}

// New returns an empty cover.
func New(inputs, outputs int) *Cover {
	return &Cover{Inputs: inputs, Outputs: outputs}
}

// Add appends a term.
func (c *Cover) Add(lits []Lit, outputs ...int) {
	c.Terms = append(c.Terms, Term{Lits: lits, Outputs: outputs})
}

// Len returns the number of terms.
func (c *Cover) Len() int { return len(c.Terms) }

// Clone returns a deep copy of c.
func (c *Cover) Clone() *Cover {
	out := &Cover{
		Inputs:      c.Inputs,
		Outputs:     c.Outputs,
		Terms:       make([]Term, len(c.Terms)),
		InputNames:  slices.Clone(c.InputNames),
		OutputNames: slices.Clone(c.OutputNames),
	}
	for i, t := range c.Terms {
		out.Terms[i] = Term{Lits: slices.Clone(t.Lits), Outputs: slices.Clone(t.Outputs)}
	}
	return out
}

// Validate checks that every literal and output is in range, that no term
// mentions a variable twice and that no term lists an output twice.
func (c *Cover) Validate() error {
	if err := errors.ValidateDimensions(c.Inputs, c.Outputs); err != nil {
		return err
	}
	if n := len(c.InputNames); n != 0 && n != c.Inputs {
		return errors.New(errors.ErrCodeInvalidInput, "%d input names for %d inputs", n, c.Inputs)
	}
	if n := len(c.OutputNames); n != 0 && n != c.Outputs {
		return errors.New(errors.ErrCodeInvalidInput, "%d output names for %d outputs", n, c.Outputs)
	}
	seenVar := make([]int, c.Inputs)
	seenOut := make([]int, c.Outputs)
	for i, t := range c.Terms {
		stamp := i + 1
		for _, l := range t.Lits {
			v := l.Var()
			if v < 0 || v >= c.Inputs {
				return errors.New(errors.ErrCodeInvalidInput, "term %d: variable %d out of range", i, v)
			}
			if seenVar[v] == stamp {
				return errors.New(errors.ErrCodeInvalidInput, "term %d: variable %d appears twice", i, v)
			}
			seenVar[v] = stamp
		}
		for _, o := range t.Outputs {
			if o < 0 || o >= c.Outputs {
				return errors.New(errors.ErrCodeInvalidInput, "term %d: output %d out of range", i, o)
			}
			if seenOut[o] == stamp {
				return errors.New(errors.ErrCodeInvalidInput, "term %d: output %d listed twice", i, o)
			}
			seenOut[o] = stamp
		}
	}
	return nil
}

// Eval returns the value of every output under the assignment x, which must
// have one entry per input.
func (c *Cover) Eval(x []bool) []bool {
	out := make([]bool, c.Outputs)
	for _, t := range c.Terms {
		if t.Covers(x) {
			for _, o := range t.Outputs {
				out[o] = !out[o]
			}
		}
	}
	return out
}

// Covers reports whether the product of t is true under x.
func (t Term) Covers(x []bool) bool {
	for _, l := range t.Lits {
		if x[l.Var()] == l.IsNeg() {
			return false
		}
	}
	return true
}

// Stats summarizes the size of a cover.
type Stats struct {
	Cubes    int `json:"cubes"`
	Literals int `json:"literals"`
	Negative int `json:"negative"`
	// QuantumCost is the summed cube.QuantumCost of the terms.
	QuantumCost int `json:"quantum_cost"`
}

// Stats computes size statistics for c.
func (c *Cover) Stats() Stats {
	var s Stats
	for _, t := range c.Terms {
		negs := 0
		for _, l := range t.Lits {
			if l.IsNeg() {
				negs++
			}
		}
		s.Cubes++
		s.Literals += len(t.Lits)
		s.Negative += negs
		s.QuantumCost += cube.QuantumCost(len(t.Lits), negs)
	}
	return s
}

// Row renders t as a PLA cube line such as "1-0 01".
func (c *Cover) Row(t Term) string {
	in := []byte(strings.Repeat("-", c.Inputs))
	for _, l := range t.Lits {
		if l.IsNeg() {
			in[l.Var()] = '0'
		} else {
			in[l.Var()] = '1'
		}
	}
	out := []byte(strings.Repeat("0", c.Outputs))
	for _, o := range t.Outputs {
		out[o] = '1'
	}
	return string(in) + " " + string(out)
}

// ParseRow parses the input and output parts of a PLA cube line into a term.
func (c *Cover) ParseRow(in, out string) (Term, error) {
	if len(in) != c.Inputs {
		return Term{}, fmt.Errorf("%w: %d input columns, want %d", ErrSyntax, len(in), c.Inputs)
	}
	if len(out) != c.Outputs {
		return Term{}, fmt.Errorf("%w: %d output columns, want %d", ErrSyntax, len(out), c.Outputs)
	}
	var t Term
	for v := 0; v < len(in); v++ {
		switch in[v] {
		case '0':
			t.Lits = append(t.Lits, Neg(v))
		case '1':
			t.Lits = append(t.Lits, Pos(v))
		case '-', '2', 'x', 'X':
		default:
			return Term{}, fmt.Errorf("%w: bad input character %q", ErrSyntax, in[v])
		}
	}
	for o := 0; o < len(out); o++ {
		switch out[o] {
		case '1':
			t.Outputs = append(t.Outputs, o)
		case '0', '-', '~':
		default:
			return Term{}, fmt.Errorf("%w: bad output character %q", ErrSyntax, out[o])
		}
	}
	return t, nil
}
