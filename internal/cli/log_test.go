package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

// runLogged executes the root command like testEnv.run but keeps the log.
func (e *testEnv) runLogged(level log.Level, args ...string) (string, error) {
	e.t.Helper()
	var logs bytes.Buffer
	c := New(&logs, level)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return logs.String(), err
}

func TestSetLogLevelFiltersPipelineLogs(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)
	c.Logger.Debug("load", "cubes", 4)
	if buf.Len() != 0 {
		t.Fatalf("debug line at info level: %q", buf.String())
	}

	c.SetLogLevel(LogDebug)
	c.Logger.Debug("load", "cubes", 4)
	out := buf.String()
	if !strings.Contains(out, "load") || !strings.Contains(out, "cubes=4") {
		t.Errorf("debug output = %q", out)
	}
	if !strings.Contains(out, "log_test.go") {
		t.Errorf("debug output should report the caller: %q", out)
	}
}

func TestLoggerFromContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("a bare context should yield the default logger")
	}

	var buf bytes.Buffer
	l := newLogger(&buf, log.InfoLevel)
	ctx := withLogger(context.Background(), l)
	if loggerFromContext(ctx) != l {
		t.Fatal("attached logger not returned")
	}

	fileLogger(ctx, "dir/adder.pla").Info("minimized")
	fileLogger(ctx, "-").Info("minimized")
	out := buf.String()
	if !strings.Contains(out, "file=adder.pla") {
		t.Errorf("missing base name in %q", out)
	}
	if !strings.Contains(out, "file=stdin") {
		t.Errorf("stdin not named in %q", out)
	}
}

func TestStageLogsDuration(t *testing.T) {
	var buf bytes.Buffer
	st := startStage(newLogger(&buf, log.InfoLevel), "checked equivalence")
	st.done("method", "bdd")

	out := buf.String()
	for _, want := range []string{"checked equivalence", "method=bdd", "took="} {
		if !strings.Contains(out, want) {
			t.Errorf("stage output %q lacks %q", out, want)
		}
	}
}

func TestCommandsLogStages(t *testing.T) {
	env := newTestEnv(t)
	a := env.write("a.pla", minterms)
	b := env.write("b.pla", ".i 3\n.o 1\n1-- 1\n")

	logs, err := env.runLogged(LogInfo, "graph", "--no-cache", "-o", env.path("a.dot"), a)
	if err != nil {
		t.Fatalf("graph: %v", err)
	}
	for _, want := range []string{"rendered adjacency graph", "file=a.pla", "format=dot", "cached=false"} {
		if !strings.Contains(logs, want) {
			t.Errorf("graph log %q lacks %q", logs, want)
		}
	}

	logs, err = env.runLogged(LogInfo, "verify", "--no-cache", "-m", "exhaustive", a, b)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	for _, want := range []string{"checked equivalence", "file=a.pla", "against=b.pla", "method=exhaustive"} {
		if !strings.Contains(logs, want) {
			t.Errorf("verify log %q lacks %q", logs, want)
		}
	}
}
