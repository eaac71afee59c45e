package verify

import (
	"context"

	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"

	"github.com/matzehuels/exorcism/pkg/cover"
	"github.com/matzehuels/exorcism/pkg/errors"
)

// CheckSAT builds a miter circuit whose root for output o is the XOR of all
// products of a and b driving o, and solves each root under an assumption.
// A satisfying model is a distinguishing assignment.
func CheckSAT(ctx context.Context, a, b *cover.Cover) error {
	c := logic.NewC()
	in := make([]z.Lit, a.Inputs)
	for v := range in {
		in[v] = c.Lit()
	}

	roots := make([]z.Lit, a.Outputs)
	for o, terms := range byOutput(miter(a, b), a.Outputs) {
		root := c.F
		for _, t := range terms {
			ms := make([]z.Lit, len(t.Lits))
			for i, l := range t.Lits {
				ms[i] = in[l.Var()]
				if l.IsNeg() {
					ms[i] = ms[i].Not()
				}
			}
			root = c.Xor(root, c.Ands(ms...))
		}
		roots[o] = root
	}

	g := gini.New()
	c.ToCnfFrom(g, roots...)
	for o, root := range roots {
		if err := ctx.Err(); err != nil {
			return err
		}
		if root == c.F {
			continue
		}
		g.Assume(root)
		switch g.Solve() {
		case -1:
			continue
		case 1:
			m := &Mismatch{Output: o, Assignment: make([]bool, a.Inputs)}
			for v, l := range in {
				m.Assignment[v] = g.Value(l)
			}
			return mismatch(m)
		default:
			return errors.New(errors.ErrCodeInternal, "SAT solver gave up on output %d", o)
		}
	}
	return nil
}
