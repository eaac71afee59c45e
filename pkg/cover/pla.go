package cover

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrSyntax is wrapped by every parse error of [ReadPLA] and [ReadJSON].
var ErrSyntax = stderrors.New("cover: syntax error")

// ReadPLA parses a PLA file holding an ESOP. The .i and .o directives must
// precede the first cube; .p is checked when present; a .type other than
// esop is rejected because its cubes would not combine by XOR.
func ReadPLA(r io.Reader) (*Cover, error) {
	var (
		c        = &Cover{Inputs: -1, Outputs: -1}
		declared = -1
		sc       = bufio.NewScanner(r)
		line     = 0
	)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: line %d: %s", ErrSyntax, line, fmt.Sprintf(format, args...))
	}

	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = strings.TrimSpace(text[:i])
		}
		if text == "" {
			continue
		}
		fields := strings.Fields(text)

		if strings.HasPrefix(fields[0], ".") {
			switch fields[0] {
			case ".i", ".o", ".p":
				if len(fields) != 2 {
					return nil, fail("%s takes one argument", fields[0])
				}
				n, err := strconv.Atoi(fields[1])
				if err != nil || n < 0 {
					return nil, fail("bad count %q", fields[1])
				}
				switch fields[0] {
				case ".i":
					c.Inputs = n
				case ".o":
					c.Outputs = n
				case ".p":
					declared = n
				}
			case ".type":
				if len(fields) != 2 || fields[1] != "esop" {
					return nil, fail("unsupported cover type %q", strings.Join(fields[1:], " "))
				}
			case ".ilb":
				c.InputNames = fields[1:]
			case ".ob":
				c.OutputNames = fields[1:]
			case ".e", ".end":
				return finishPLA(c, declared)
			default:
				// .phase, .model and friends carry nothing the cover needs.
			}
			continue
		}

		if c.Inputs < 0 || c.Outputs < 0 {
			return nil, fail("cube before .i and .o")
		}
		var in, out string
		switch len(fields) {
		case 1:
			if len(fields[0]) != c.Inputs+c.Outputs {
				return nil, fail("cube %q has %d columns, want %d", fields[0], len(fields[0]), c.Inputs+c.Outputs)
			}
			in, out = fields[0][:c.Inputs], fields[0][c.Inputs:]
		case 2:
			in, out = fields[0], fields[1]
		default:
			return nil, fail("cube has %d fields", len(fields))
		}
		t, err := c.ParseRow(in, out)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		c.Terms = append(c.Terms, t)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("cover: reading PLA: %w", err)
	}
	return finishPLA(c, declared)
}

func finishPLA(c *Cover, declared int) (*Cover, error) {
	if c.Inputs < 0 || c.Outputs < 0 {
		return nil, fmt.Errorf("%w: missing .i or .o", ErrSyntax)
	}
	if declared >= 0 && declared != len(c.Terms) {
		return nil, fmt.Errorf("%w: .p declares %d cubes, found %d", ErrSyntax, declared, len(c.Terms))
	}
	return c, nil
}

// WritePLA writes c as a PLA file with .type esop.
func WritePLA(w io.Writer, c *Cover) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, ".i %d\n.o %d\n", c.Inputs, c.Outputs)
	if len(c.InputNames) > 0 {
		fmt.Fprintf(bw, ".ilb %s\n", strings.Join(c.InputNames, " "))
	}
	if len(c.OutputNames) > 0 {
		fmt.Fprintf(bw, ".ob %s\n", strings.Join(c.OutputNames, " "))
	}
	fmt.Fprintf(bw, ".p %d\n.type esop\n", len(c.Terms))
	for _, t := range c.Terms {
		bw.WriteString(c.Row(t))
		bw.WriteByte('\n')
	}
	bw.WriteString(".e\n")
	return bw.Flush()
}
