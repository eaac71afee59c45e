package verify

import (
	"context"

	"github.com/matzehuels/exorcism/pkg/cover"
	"github.com/matzehuels/exorcism/pkg/errors"
)

// CheckExhaustive evaluates a and b on all 2^n assignments.
func CheckExhaustive(ctx context.Context, a, b *cover.Cover) error {
	n := a.Inputs
	if n > MaxExhaustiveInputs {
		return errors.New(errors.ErrCodeUnsupported, "exhaustive check limited to %d inputs, cover has %d", MaxExhaustiveInputs, n)
	}
	m := &cover.Cover{Inputs: n, Outputs: a.Outputs, Terms: miter(a, b)}
	x := make([]bool, n)
	for v := uint64(0); v < 1<<n; v++ {
		if v&0xfff == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		for i := range x {
			x[i] = v>>i&1 == 1
		}
		for o, diff := range m.Eval(x) {
			if diff {
				return mismatch(&Mismatch{Output: o, Assignment: append([]bool(nil), x...)})
			}
		}
	}
	return nil
}
