package verify

import (
	"context"
	stderrors "errors"

	"github.com/dalzilio/rudd"

	"github.com/matzehuels/exorcism/pkg/cover"
	"github.com/matzehuels/exorcism/pkg/errors"
)

// DefaultMaxNodes bounds the node table of [CheckBDD].
const DefaultMaxNodes = 1 << 22

var errFound = stderrors.New("assignment found")

// CheckBDD compares a and b with binary decision diagrams, one per output,
// over the variable order x0 < x1 < ... . maxNodes bounds the node table;
// zero means DefaultMaxNodes. Exceeding it fails with
// [errors.ErrCodeUnsupported].
func CheckBDD(ctx context.Context, a, b *cover.Cover, maxNodes int) error {
	if maxNodes <= 0 {
		maxNodes = DefaultMaxNodes
	}
	n := a.Inputs
	bdd, err := rudd.New(n,
		rudd.Nodesize(min(maxNodes, 1<<16)),
		rudd.Maxnodesize(maxNodes),
		rudd.Cachesize(1<<14))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "creating BDD")
	}
	pos := make([]rudd.Node, n)
	neg := make([]rudd.Node, n)
	for v := 0; v < n; v++ {
		pos[v] = bdd.Ithvar(v)
		neg[v] = bdd.NIthvar(v)
	}

	for o, terms := range byOutput(miter(a, b), a.Outputs) {
		if err := ctx.Err(); err != nil {
			return err
		}
		f := bdd.False()
		for _, t := range terms {
			p := bdd.True()
			for _, l := range t.Lits {
				if l.IsNeg() {
					p = bdd.And(p, neg[l.Var()])
				} else {
					p = bdd.And(p, pos[l.Var()])
				}
			}
			f = bdd.Apply(f, p, rudd.OPxor)
		}
		if msg := bdd.Error(); msg != "" || f == nil {
			return errors.New(errors.ErrCodeUnsupported, "BDD for output %d exceeds %d nodes: %s", o, maxNodes, msg)
		}
		if bdd.Equal(f, bdd.False()) {
			continue
		}

		m := &Mismatch{Output: o, Assignment: make([]bool, n)}
		err := bdd.Allsat(func(vals []int) error {
			for v, val := range vals {
				m.Assignment[v] = val == 1
			}
			return errFound
		}, f)
		if err != nil && !stderrors.Is(err, errFound) {
			return errors.Wrap(errors.ErrCodeInternal, err, "enumerating BDD for output %d", o)
		}
		return mismatch(m)
	}
	return nil
}
