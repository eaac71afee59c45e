// Package verify checks that two ESOP covers compute the same function.
//
// Three methods are available. [Exhaustive] evaluates both covers on every
// input assignment and is the reference for small covers. [BDD] builds the
// XOR of both covers per output as a binary decision diagram and checks it
// against constant false. [SAT] encodes the same XOR as a miter circuit and
// asks a SAT solver for a distinguishing assignment.
//
// All methods report a difference as a [*Mismatch] wrapped in an error with
// code [errors.ErrCodeNotEquivalent]:
//
//	err := verify.Check(ctx, before, after, verify.Auto)
//	var m *verify.Mismatch
//	if stderrors.As(err, &m) {
//		fmt.Println("outputs differ at", m.Assignment)
//	}
package verify

import (
	"context"
	"fmt"
	"strings"

	"github.com/matzehuels/exorcism/pkg/cover"
	"github.com/matzehuels/exorcism/pkg/errors"
)

// Method selects an equivalence checking algorithm.
type Method string

const (
	None       Method = "none"
	Auto       Method = "auto"
	Exhaustive Method = "exhaustive"
	BDD        Method = "bdd"
	SAT        Method = "sat"
)

const (
	// MaxExhaustiveInputs bounds the number of inputs [Exhaustive] accepts.
	MaxExhaustiveInputs = 24
	// autoExhaustiveInputs is the largest cover Auto checks exhaustively.
	autoExhaustiveInputs = 16
)

// ParseMethod parses a method name. The empty string means Auto.
func ParseMethod(s string) (Method, error) {
	if s == "" {
		return Auto, nil
	}
	if err := errors.ValidateMethod(s); err != nil {
		return "", err
	}
	return Method(strings.ToLower(s)), nil
}

// Resolve returns the method Auto stands for on covers with the given number
// of inputs. Other methods are returned unchanged.
func (m Method) Resolve(inputs int) Method {
	if m != Auto {
		return m
	}
	if inputs <= autoExhaustiveInputs {
		return Exhaustive
	}
	return BDD
}

// Mismatch describes an input assignment on which two covers differ.
type Mismatch struct {
	Output     int
	Assignment []bool
}

func (m *Mismatch) Error() string {
	var b strings.Builder
	for _, v := range m.Assignment {
		if v {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return fmt.Sprintf("output %d differs at input %s", m.Output, b.String())
}

func mismatch(m *Mismatch) error {
	return errors.Wrap(errors.ErrCodeNotEquivalent, m, "covers are not equivalent")
}

// Check compares a and b with method m. It returns nil when they are
// equivalent.
func Check(ctx context.Context, a, b *cover.Cover, m Method) error {
	if a.Inputs != b.Inputs || a.Outputs != b.Outputs {
		return errors.New(errors.ErrCodeInvalidInput, "cannot compare a %dx%d cover with a %dx%d cover",
			a.Inputs, a.Outputs, b.Inputs, b.Outputs)
	}
	switch m.Resolve(a.Inputs) {
	case None:
		return nil
	case Exhaustive:
		return CheckExhaustive(ctx, a, b)
	case BDD:
		err := CheckBDD(ctx, a, b, 0)
		if m == Auto && errors.Is(err, errors.ErrCodeUnsupported) {
			return CheckSAT(ctx, a, b)
		}
		return err
	case SAT:
		return CheckSAT(ctx, a, b)
	}
	return errors.New(errors.ErrCodeInvalidConfig, "unknown verification method %q", m)
}

// miter returns the terms of a followed by the terms of b. The XOR of all
// of them is zero on every output exactly when a and b are equivalent.
func miter(a, b *cover.Cover) []cover.Term {
	terms := make([]cover.Term, 0, len(a.Terms)+len(b.Terms))
	terms = append(terms, a.Terms...)
	return append(terms, b.Terms...)
}

// byOutput groups terms per output.
func byOutput(terms []cover.Term, outputs int) [][]cover.Term {
	out := make([][]cover.Term, outputs)
	for _, t := range terms {
		for _, o := range t.Outputs {
			out[o] = append(out[o], t)
		}
	}
	return out
}
