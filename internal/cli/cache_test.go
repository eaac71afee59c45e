package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/exorcism/pkg/cache"
)

func TestCacheDir(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)

	c := New(os.Stderr, LogInfo)
	dir, err := c.cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join(xdg, "exorcism"); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCacheDirFromConfig(t *testing.T) {
	c := New(os.Stderr, LogInfo)
	c.config.Cache.URL = "file:///srv/exorcism-cache"

	dir, err := c.cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if dir != "/srv/exorcism-cache" {
		t.Errorf("cacheDir() = %q, want /srv/exorcism-cache", dir)
	}
}

func TestCacheClearCommand(t *testing.T) {
	env := newTestEnv(t)
	dir := filepath.Join(env.cacheHome, "exorcism")

	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, key := range []string{"a", "b"} {
		if err := fc.Set(ctx, key, []byte(key), time.Hour); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := env.run("cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if !strings.Contains(env.ui.String(), "Cleared 2 cached entries") {
		t.Errorf("output = %q, want cleared count", env.ui.String())
	}
	if _, hit, _ := fc.Get(ctx, "a"); hit {
		t.Error("entry survived cache clear")
	}
}

func TestCacheClearEmpty(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.run("cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if !strings.Contains(env.ui.String(), "Cache is empty") {
		t.Errorf("output = %q, want empty notice", env.ui.String())
	}
}

func TestCachePathCommand(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run("cache", "path")
	if err != nil {
		t.Fatalf("cache path: %v", err)
	}
	if want := filepath.Join(env.cacheHome, "exorcism") + "\n"; out != want {
		t.Errorf("cache path = %q, want %q", out, want)
	}
}
