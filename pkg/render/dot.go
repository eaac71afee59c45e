// Package render draws the adjacency graph of an ESOP cover.
//
// Every term becomes a node labelled with its PLA row. Two nodes are joined
// when their cubes are at most MaxDistance apart, which shows at a glance
// which pairs the minimizer could still rewrite:
//
//	dot := render.ToDOT(c, render.Options{MaxDistance: 2})
//	svg, err := render.Render(ctx, dot, render.FormatSVG)
package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/exorcism/pkg/cover"
	"github.com/matzehuels/exorcism/pkg/errors"
	"github.com/matzehuels/exorcism/pkg/esop/cube"
)

// Output formats.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPNG = "png"
)

// DefaultMaxDistance is the largest distance drawn when Options leaves it zero.
const DefaultMaxDistance = 2

// Options configures adjacency graph rendering.
type Options struct {
	// MaxDistance is the largest cube distance drawn as an edge, 1 to 4.
	MaxDistance int
	// Detailed adds the literal count and output list to node labels.
	Detailed bool
}

// edgeStyles holds the DOT attributes of an edge per distance.
var edgeStyles = [...]string{
	1: `color="#d62728", penwidth=2.5`,
	2: `color="#1f77b4", penwidth=1.5`,
	3: `color="#7f7f7f", style=dashed`,
	4: `color="#c7c7c7", style=dotted`,
}

// Edge joins two terms of a cover.
type Edge struct {
	From, To int
	Dist     int
}

// Edges returns every pair of terms of c at distance 1 to maxDist. A pair
// with distance 0 (a duplicated term) is reported with Dist 0.
func Edges(c *cover.Cover, maxDist int) []Edge {
	layout := cube.NewLayout(c.Inputs, c.Outputs)
	stride := layout.Stride()
	words := make([]uint64, stride*len(c.Terms))
	cubes := make([]cube.Bits, len(c.Terms))
	for i, t := range c.Terms {
		b := layout.View(words[i*stride : (i+1)*stride])
		layout.Clear(b)
		for _, l := range t.Lits {
			if l.IsNeg() {
				cube.Set(b, l.Var(), cube.Neg)
			} else {
				cube.Set(b, l.Var(), cube.Pos)
			}
		}
		for _, o := range t.Outputs {
			cube.SetOutput(b, o)
		}
		cubes[i] = b
	}

	var edges []Edge
	for i := range cubes {
		for j := i + 1; j < len(cubes); j++ {
			if d := cube.Distance(cubes[i], cubes[j]); d <= maxDist {
				edges = append(edges, Edge{From: i, To: j, Dist: d})
			}
		}
	}
	return edges
}

// ToDOT converts the adjacency graph of c to Graphviz DOT format.
// The result can be rendered with [Render].
func ToDOT(c *cover.Cover, opts Options) string {
	maxDist := opts.MaxDistance
	if maxDist == 0 {
		maxDist = DefaultMaxDistance
	}

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"monospace\", fontsize=14];\n")
	buf.WriteString("\n")

	for i, t := range c.Terms {
		fmt.Fprintf(&buf, "  t%d [label=%q];\n", i, fmtLabel(c, t, opts.Detailed))
	}

	buf.WriteString("\n")
	for _, e := range Edges(c, maxDist) {
		style := `color=black, penwidth=3`
		if e.Dist > 0 {
			style = edgeStyles[e.Dist]
		}
		fmt.Fprintf(&buf, "  t%d -- t%d [%s, tooltip=\"distance %d\"];\n", e.From, e.To, style, e.Dist)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(c *cover.Cover, t cover.Term, detailed bool) string {
	row := c.Row(t)
	if !detailed {
		return row
	}
	outs := make([]string, len(t.Outputs))
	for i, o := range t.Outputs {
		if o < len(c.OutputNames) {
			outs[i] = c.OutputNames[o]
		} else {
			outs[i] = strconv.Itoa(o)
		}
	}
	return fmt.Sprintf("%s\nliterals: %d\noutputs: %s", row, len(t.Lits), strings.Join(outs, ","))
}

// ValidateOptions checks the format and distance of a render request.
func ValidateOptions(format string, opts Options) error {
	switch format {
	case FormatDOT, FormatSVG, FormatPNG:
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unknown graph format %q (want dot, svg or png)", format)
	}
	if opts.MaxDistance < 0 || opts.MaxDistance > 4 {
		return errors.New(errors.ErrCodeInvalidConfig, "max distance must be between 1 and 4, got %d", opts.MaxDistance)
	}
	return nil
}

// Render lays out a DOT graph with Graphviz and encodes it as format.
// FormatDOT returns the input unchanged.
func Render(ctx context.Context, dot string, format string) ([]byte, error) {
	var gvFormat graphviz.Format
	switch format {
	case FormatDOT:
		return []byte(dot), nil
	case FormatSVG:
		gvFormat = graphviz.SVG
	case FormatPNG:
		gvFormat = graphviz.PNG
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown graph format %q", format)
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, gvFormat, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	if format == FormatSVG {
		return normalizeViewBox(buf.Bytes()), nil
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the pt-sized svg element Graphviz writes with
// one sized in pixels with a zero-origin viewBox.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
