package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

const minterms = `.i 3
.o 1
100 1
101 1
110 1
111 1
`

const collapsed = ".i 3\n.o 1\n.p 1\n.type esop\n1-- 1\n.e\n"

// testEnv isolates a command run from the user's config and cache.
type testEnv struct {
	t         *testing.T
	dir       string
	cacheHome string
	ui        bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{t: t, dir: t.TempDir(), cacheHome: t.TempDir()}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", env.cacheHome)
	t.Setenv(envCacheURL, "")

	prev := uiOut
	uiOut = &env.ui
	t.Cleanup(func() { uiOut = prev })
	return env
}

// write creates a file in the test directory and returns its path.
func (e *testEnv) write(name, content string) string {
	e.t.Helper()
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		e.t.Fatal(err)
	}
	return path
}

func (e *testEnv) path(name string) string {
	return filepath.Join(e.dir, name)
}

func (e *testEnv) read(name string) string {
	e.t.Helper()
	data, err := os.ReadFile(e.path(name))
	if err != nil {
		e.t.Fatal(err)
	}
	return string(data)
}

// run executes the root command with args and returns what it wrote to
// the command's stdout.
func (e *testEnv) run(args ...string) (string, error) {
	e.t.Helper()
	var out bytes.Buffer
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()

	want := []string{"cache", "completion", "graph", "minimize", "serve", "stats", "verify"}
	for _, name := range want {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)

	c.Logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatal("debug message logged at info level")
	}
	c.SetLogLevel(LogDebug)
	c.Logger.Debug("shown")
	if buf.Len() == 0 {
		t.Error("debug message not logged after SetLogLevel(LogDebug)")
	}
}

func TestCompletionCommand(t *testing.T) {
	env := newTestEnv(t)
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		out, err := env.run("completion", shell)
		if err != nil {
			t.Fatalf("completion %s: %v", shell, err)
		}
		if len(out) == 0 {
			t.Errorf("completion %s wrote nothing", shell)
		}
	}
	if _, err := env.run("completion", "tcsh"); err == nil {
		t.Error("completion tcsh: expected error")
	}
}
