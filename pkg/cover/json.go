package cover

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/sugawarayuuta/sonnet"
)

type jsonCover struct {
	Inputs      int        `json:"inputs"`
	Outputs     int        `json:"outputs"`
	InputNames  []string   `json:"input_names,omitempty"`
	OutputNames []string   `json:"output_names,omitempty"`
	Terms       []jsonTerm `json:"terms"`
}

type jsonTerm struct {
	In  string `json:"in"`
	Out string `json:"out"`
}

// MarshalJSON encodes c with one {"in","out"} object per term, using the
// same column characters as the PLA format.
func (c *Cover) MarshalJSON() ([]byte, error) {
	doc := jsonCover{
		Inputs:      c.Inputs,
		Outputs:     c.Outputs,
		InputNames:  c.InputNames,
		OutputNames: c.OutputNames,
		Terms:       make([]jsonTerm, len(c.Terms)),
	}
	for i, t := range c.Terms {
		in, out, _ := strings.Cut(c.Row(t), " ")
		doc.Terms[i] = jsonTerm{In: in, Out: out}
	}
	return sonnet.Marshal(doc)
}

// UnmarshalJSON decodes the document written by MarshalJSON.
func (c *Cover) UnmarshalJSON(data []byte) error {
	var doc jsonCover
	if err := sonnet.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	out := Cover{
		Inputs:      doc.Inputs,
		Outputs:     doc.Outputs,
		InputNames:  doc.InputNames,
		OutputNames: doc.OutputNames,
		Terms:       make([]Term, 0, len(doc.Terms)),
	}
	for i, jt := range doc.Terms {
		t, err := out.ParseRow(jt.In, jt.Out)
		if err != nil {
			return fmt.Errorf("term %d: %w", i, err)
		}
		out.Terms = append(out.Terms, t)
	}
	*c = out
	return nil
}

// ReadJSON decodes a cover from r.
func ReadJSON(r io.Reader) (*Cover, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("cover: reading JSON: %w", err)
	}
	c := &Cover{}
	if err := c.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return c, nil
}

// WriteJSON encodes c to w followed by a newline.
func WriteJSON(w io.Writer, c *Cover) error {
	data, err := c.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// Read decodes a cover in the named format ("pla" or "json").
func Read(r io.Reader, format string) (*Cover, error) {
	switch strings.ToLower(format) {
	case "pla", "esop", "":
		return ReadPLA(r)
	case "json":
		return ReadJSON(r)
	}
	return nil, fmt.Errorf("cover: unknown format %q", format)
}

// Write encodes c in the named format.
func Write(w io.Writer, c *Cover, format string) error {
	switch strings.ToLower(format) {
	case "pla", "esop", "":
		return WritePLA(w, c)
	case "json":
		return WriteJSON(w, c)
	}
	return fmt.Errorf("cover: unknown format %q", format)
}

// Encode is Write into a byte slice.
func Encode(c *Cover, format string) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, c, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode is Read from a byte slice. The format is sniffed from the first
// non-blank byte when empty: '{' means JSON, anything else PLA.
func Decode(data []byte, format string) (*Cover, error) {
	if format == "" {
		if t := bytes.TrimSpace(data); len(t) > 0 && t[0] == '{' {
			format = "json"
		}
	}
	return Read(bytes.NewReader(data), format)
}

// FormatFromPath guesses a format from a file name extension.
func FormatFromPath(path string) string {
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return "json"
	}
	return "pla"
}
