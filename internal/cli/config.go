package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"

	"github.com/matzehuels/exorcism/pkg/esop"
	"github.com/matzehuels/exorcism/pkg/pipeline"
)

// envCacheURL overrides the cache URL of the config file.
const envCacheURL = "EXORCISM_CACHE_URL"

// Config is the content of the optional TOML config file. Command-line
// flags override every value set here.
type Config struct {
	Minimize MinimizeConfig `toml:"minimize"`
	Schedule *esop.Schedule `toml:"schedule"`
	Cache    CacheConfig    `toml:"cache"`
	Verify   VerifyConfig   `toml:"verify"`
	Server   ServerConfig   `toml:"server"`
}

// MinimizeConfig holds the [minimize] table.
type MinimizeConfig struct {
	Quality       int      `toml:"quality"`
	Verbosity     int      `toml:"verbosity"`
	AlternateCost bool     `toml:"alternate_cost"`
	MaxCubes      int      `toml:"max_cubes"`
	Order         []string `toml:"order"`
	Format        string   `toml:"format"`
	Jobs          int      `toml:"jobs"`
}

// CacheConfig holds the [cache] table.
type CacheConfig struct {
	URL string        `toml:"url"`
	TTL time.Duration `toml:"ttl"`
}

// VerifyConfig holds the [verify] table.
type VerifyConfig struct {
	Method string `toml:"method"`
}

// ServerConfig holds the [server] table.
type ServerConfig struct {
	Addr         string `toml:"addr"`
	MaxBodyBytes int64  `toml:"max_body_bytes"`
}

// defaultConfig returns the values used when no config file sets them.
func defaultConfig() Config {
	return Config{
		Minimize: MinimizeConfig{
			Quality: esop.DefaultQuality,
			Format:  pipeline.DefaultFormat,
			Jobs:    runtime.NumCPU(),
		},
		Verify: VerifyConfig{Method: pipeline.DefaultVerify},
		Server: ServerConfig{Addr: ":8080", MaxBodyBytes: 32 << 20},
	}
}

// defaultConfigPath returns $XDG_CONFIG_HOME/exorcism/config.toml, falling
// back to the user config directory.
func defaultConfigPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		var err error
		if base, err = os.UserConfigDir(); err != nil {
			return ""
		}
	}
	return filepath.Join(base, appName, "config.toml")
}

// loadConfig reads the config file at path on top of the defaults. An empty
// path reads the default location if a file exists there. Unknown keys are
// rejected so that typos do not go unnoticed.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
	}
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		switch {
		case err == nil:
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				keys := make([]string, len(undecoded))
				for i, k := range undecoded {
					keys[i] = k.String()
				}
				return cfg, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
			}
		case os.IsNotExist(err) && !explicit:
		default:
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if url := os.Getenv(envCacheURL); url != "" {
		cfg.Cache.URL = url
	}
	return cfg, nil
}

// overrideInt replaces *dst with the config value unless the flag was set.
func overrideInt(fs *pflag.FlagSet, name string, dst *int, value int) {
	if !fs.Changed(name) {
		*dst = value
	}
}

func overrideBool(fs *pflag.FlagSet, name string, dst *bool, value bool) {
	if !fs.Changed(name) {
		*dst = value
	}
}

func overrideString(fs *pflag.FlagSet, name string, dst *string, value string) {
	if !fs.Changed(name) && value != "" {
		*dst = value
	}
}
