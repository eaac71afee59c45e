package esop

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sugawarayuuta/sonnet"

	"github.com/matzehuels/exorcism/pkg/esop/store"
	"github.com/matzehuels/exorcism/pkg/errors"
)

func TestParseStep(t *testing.T) {
	tests := []struct {
		in   string
		want Step
	}{
		{"2:23", Step{Dist: 2, Enable: store.Dist2 | store.Dist3}},
		{"2:234:reshape", Step{Dist: 2, Enable: store.AllClasses, Reshape: true}},
		{"4:2", Step{Dist: 4, Enable: store.Dist2}},
		{" 3:32 ", Step{Dist: 3, Enable: store.Dist2 | store.Dist3}},
	}
	for _, tt := range tests {
		got, err := ParseStep(tt.in)
		if err != nil {
			t.Errorf("ParseStep(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStep(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseStepErrors(t *testing.T) {
	for _, in := range []string{"", "2", "5:23", "x:23", "2:25", "3:23:reshape", "2:23:fast", "2:2:3:4"} {
		_, err := ParseStep(in)
		if !errors.Is(err, errors.ErrCodeInvalidConfig) {
			t.Errorf("ParseStep(%q) err = %v, want INVALID_CONFIG", in, err)
		}
	}
}

func TestStepStringRoundTrip(t *testing.T) {
	s := DefaultSchedule(2)
	for _, steps := range [][]Step{s.Light, s.Heavy, s.Final} {
		texts := make([]string, len(steps))
		for i, st := range steps {
			texts[i] = st.String()
		}
		got, err := ParseSteps(texts)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(steps, got); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestDefaultSchedule(t *testing.T) {
	tests := []struct {
		quality               int
		heavyAfter, stopAfter int
	}{
		{0, 0, 2},
		{1, 1, 3},
		{2, 1, 4},
		{5, 1, 7},
	}
	for _, tt := range tests {
		s := DefaultSchedule(tt.quality)
		if s.HeavyAfter != tt.heavyAfter || s.StopAfter != tt.stopAfter {
			t.Errorf("quality %d: heavy after %d stop after %d, want %d and %d",
				tt.quality, s.HeavyAfter, s.StopAfter, tt.heavyAfter, tt.stopAfter)
		}
		if err := s.Validate(); err != nil {
			t.Errorf("quality %d: %v", tt.quality, err)
		}
	}

	s := DefaultSchedule(0)
	for _, st := range s.Light {
		if st.Reshape || st.Dist == 4 {
			t.Errorf("light step %v reshapes or links distance 4", st)
		}
	}
	if len(s.Light) != 12 || len(s.Heavy) != 12 || len(s.Final) != 4 {
		t.Errorf("step counts = %d/%d/%d", len(s.Light), len(s.Heavy), len(s.Final))
	}
}

func TestScheduleValidate(t *testing.T) {
	tests := []struct {
		name string
		s    Schedule
	}{
		{"empty", Schedule{StopAfter: 1}},
		{"no stop", Schedule{Light: []Step{{Dist: 2}}}},
		{"negative heavy", Schedule{Light: []Step{{Dist: 2}}, StopAfter: 1, HeavyAfter: -1}},
		{"bad dist", Schedule{Light: []Step{{Dist: 5}}, StopAfter: 1}},
		{"bad classes", Schedule{Final: []Step{{Dist: 2, Enable: 8}}, Light: []Step{{Dist: 2}}, StopAfter: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.s.Validate(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestScheduleFromJSON(t *testing.T) {
	doc := `{"light":["2:23","3:23"],"heavy":["2:234:reshape","4:234"],"final":["2:23"],"heavy_after":1,"stop_after":3}`
	var s Schedule
	if err := sonnet.Unmarshal([]byte(doc), &s); err != nil {
		t.Fatal(err)
	}
	if err := s.Validate(); err != nil {
		t.Fatal(err)
	}
	want := Schedule{
		Light:      []Step{{Dist: 2, Enable: store.Dist2 | store.Dist3}, {Dist: 3, Enable: store.Dist2 | store.Dist3}},
		Heavy:      []Step{{Dist: 2, Enable: store.AllClasses, Reshape: true}, {Dist: 4, Enable: store.AllClasses}},
		Final:      []Step{{Dist: 2, Enable: store.Dist2 | store.Dist3}},
		HeavyAfter: 1,
		StopAfter:  3,
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("schedule mismatch (-want +got):\n%s", diff)
	}

	out, err := sonnet.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != doc {
		t.Errorf("Marshal = %s", out)
	}

	if err := sonnet.Unmarshal([]byte(`{"light":["5:23"]}`), &s); err == nil {
		t.Error("bad step accepted")
	}
}
