package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Dir            string   `toml:"dir"`
	CacheDir       string   `toml:"cache_dir"`
	PackagesDir    string   `toml:"packages_dir"`
	StateFile      string   `toml:"state_file"`
	LogLevel       string   `toml:"log_level"`
	MaxParallel    int      `toml:"max_parallel"`
	PollIntervalMS int      `toml:"poll_interval_ms"`
	Backends       Backends `toml:"backends"`
}

// Backends are the external tools the archive backends shell out to.
type Backends struct {
	Tar     string `toml:"tar"`
	Zipinfo string `toml:"zipinfo"`
	Unzip   string `toml:"unzip"`
}

func (c *Config) PollInterval() time.Duration {
	if c.PollIntervalMS <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

func baseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".unarc"
	}
	return filepath.Join(home, ".unarc")
}

// DefaultPath is ~/.unarc/config.toml.
func DefaultPath() string {
	return filepath.Join(baseDir(), "config.toml")
}

func DefaultConfig() *Config {
	base := baseDir()

	return &Config{
		Dir:            base,
		CacheDir:       filepath.Join(base, "cache"),
		PackagesDir:    filepath.Join(base, "packages"),
		StateFile:      filepath.Join(base, "state.db"),
		LogLevel:       "info",
		MaxParallel:    4,
		PollIntervalMS: 100,
		Backends: Backends{
			Tar:     "tar",
			Zipinfo: "zipinfo",
			Unzip:   "unzip",
		},
	}
}

// Load reads path over the defaults. An empty path means DefaultPath. A
// missing file yields the defaults and a best-effort attempt to write them
// out for the user to edit.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = DefaultPath()
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		_ = Save(path, cfg)
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if cfg.MaxParallel < 1 {
		cfg.MaxParallel = 1
	}

	return cfg, nil
}

func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
