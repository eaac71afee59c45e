package render

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/exorcism/pkg/cover"
	"github.com/matzehuels/exorcism/pkg/errors"
)

func mustParse(t *testing.T, text string) *cover.Cover {
	t.Helper()
	c, err := cover.ReadPLA(strings.NewReader(text))
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestEdges(t *testing.T) {
	c := mustParse(t, `.i 3
.o 1
110 1
111 1
100 1
011 1
110 1
`)
	got := Edges(c, 2)
	want := []Edge{
		{From: 0, To: 1, Dist: 1},
		{From: 0, To: 2, Dist: 1},
		{From: 0, To: 3, Dist: 2},
		{From: 0, To: 4, Dist: 0},
		{From: 1, To: 2, Dist: 2},
		{From: 1, To: 3, Dist: 1},
		{From: 1, To: 4, Dist: 1},
		{From: 2, To: 4, Dist: 1},
		{From: 3, To: 4, Dist: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Edges mismatch (-want +got):\n%s", diff)
	}
}

func TestEdgesCountOutputDifference(t *testing.T) {
	c := mustParse(t, `.i 2
.o 2
11 10
11 01
`)
	got := Edges(c, 1)
	if len(got) != 1 || got[0].Dist != 1 {
		t.Errorf("Edges = %v, want one distance-1 edge", got)
	}
	if got := Edges(c, 0); len(got) != 0 {
		t.Errorf("Edges(max 0) = %v", got)
	}
}

func TestToDOT_Basic(t *testing.T) {
	c := mustParse(t, ".i 2\n.o 1\n10 1\n11 1\n")
	dot := ToDOT(c, Options{})

	if !strings.Contains(dot, "graph G") {
		t.Error("ToDOT() output missing graph declaration")
	}
	if !strings.Contains(dot, `t0 [label="10 1"]`) {
		t.Error("ToDOT() output missing node t0")
	}
	if !strings.Contains(dot, "t0 -- t1") {
		t.Error("ToDOT() output missing edge")
	}
	if !strings.Contains(dot, `tooltip="distance 1"`) {
		t.Error("ToDOT() edge missing distance tooltip")
	}
}

func TestToDOT_Detailed(t *testing.T) {
	c := mustParse(t, ".i 2\n.o 2\n.ob f g\n1- 11\n")
	dot := ToDOT(c, Options{Detailed: true})

	if !strings.Contains(dot, `literals: 1`) {
		t.Error("ToDOT() detailed output missing literal count")
	}
	if !strings.Contains(dot, `outputs: f,g`) {
		t.Error("ToDOT() detailed output missing output names")
	}
}

func TestToDOT_MaxDistance(t *testing.T) {
	c := mustParse(t, ".i 4\n.o 1\n0000 1\n1111 1\n")
	if dot := ToDOT(c, Options{MaxDistance: 2}); strings.Contains(dot, "--") {
		t.Error("distance-4 edge drawn with MaxDistance 2")
	}
	if dot := ToDOT(c, Options{MaxDistance: 4}); !strings.Contains(dot, "style=dotted") {
		t.Error("distance-4 edge missing with MaxDistance 4")
	}
}

func TestValidateOptions(t *testing.T) {
	tests := []struct {
		format string
		dist   int
		code   errors.Code
	}{
		{"svg", 2, ""},
		{"png", 4, ""},
		{"dot", 0, ""},
		{"pdf", 2, errors.ErrCodeInvalidFormat},
		{"svg", 5, errors.ErrCodeInvalidConfig},
		{"svg", -1, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		err := ValidateOptions(tt.format, Options{MaxDistance: tt.dist})
		if got := errors.GetCode(err); got != tt.code {
			t.Errorf("ValidateOptions(%q, %d) code = %q, want %q", tt.format, tt.dist, got, tt.code)
		}
	}
}

func TestRenderDOTPassthrough(t *testing.T) {
	out, err := Render(context.Background(), "graph G {}\n", FormatDOT)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "graph G {}\n" {
		t.Errorf("Render(dot) = %q", out)
	}
	if _, err := Render(context.Background(), "graph G {}\n", "gif"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Render(gif) err = %v", err)
	}
}

func TestRenderSVG(t *testing.T) {
	c := mustParse(t, ".i 2\n.o 1\n10 1\n11 1\n")
	svg, err := Render(context.Background(), ToDOT(c, Options{}), FormatSVG)
	if err != nil {
		t.Fatalf("Render(svg): %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("SVG output missing svg element")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="62pt" height="44pt" viewBox="0.00 0.00 62.00 44.00"><g/></svg>`)
	got := string(normalizeViewBox(in))
	if !strings.Contains(got, `viewBox="0 0 62.00 44.00" width="62" height="44"`) {
		t.Errorf("normalizeViewBox() = %s", got)
	}
	if got := normalizeViewBox([]byte("<svg/>")); string(got) != "<svg/>" {
		t.Errorf("normalizeViewBox() without viewBox changed input: %s", got)
	}
}
