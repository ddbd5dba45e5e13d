// Package config loads the harness configuration file smoketester.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"smoketester/internal/probe"
)

// FileName is the configuration file looked up by Find.
const FileName = "smoketester.toml"

// ErrInvalid is wrapped by every validation failure of Load.
var ErrInvalid = errors.New("invalid configuration")

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// Config is the decoded configuration. Paths are absolute once loaded from
// a file; Default leaves them relative to the working directory.
type Config struct {
	// Path is the file the configuration was read from, or "" for defaults.
	Path string `toml:"-"`

	Definitions DefinitionsConfig `toml:"definitions"`
	ChipDB      ChipDBConfig      `toml:"chipdb"`
	Probe       ProbeConfig       `toml:"probe"`
	Log         LogConfig         `toml:"log"`
}

type DefinitionsConfig struct {
	Dir  string `toml:"dir"`
	Jobs int    `toml:"jobs"`
}

type ChipDBConfig struct {
	// Path is a target directory, a target family file or a snapshot.
	// Empty means the built-in targets only.
	Path string `toml:"path"`
}

type ProbeConfig struct {
	Sysfs string `toml:"sysfs"`
	Devfs string `toml:"devfs"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	return Config{
		Definitions: DefinitionsConfig{Dir: ".", Jobs: 1},
		Probe:       ProbeConfig{Sysfs: probe.DefaultSysfsRoot, Devfs: probe.DefaultDevRoot},
		Log:         LogConfig{Level: "info", Format: "text"},
	}
}

// Find walks up from startDir looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover loads the nearest configuration file above startDir, or returns
// Default when there is none.
func Discover(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Load reads path on top of Default. Relative paths in the file are
// resolved against the file's directory.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: %s: unknown key %s", ErrInvalid, path, undecoded[0])
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	cfg.Path = abs
	root := filepath.Dir(abs)
	if meta.IsDefined("definitions", "dir") {
		cfg.Definitions.Dir = resolve(root, cfg.Definitions.Dir)
	} else {
		cfg.Definitions.Dir = root
	}
	if cfg.ChipDB.Path != "" {
		cfg.ChipDB.Path = resolve(root, cfg.ChipDB.Path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges. Flag overrides should be validated again.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Definitions.Dir) == "" {
		return fmt.Errorf("%w: [definitions].dir must not be empty", ErrInvalid)
	}
	if c.Definitions.Jobs < 1 {
		return fmt.Errorf("%w: [definitions].jobs must be at least 1, got %d", ErrInvalid, c.Definitions.Jobs)
	}
	if !slices.Contains(logLevels, c.Log.Level) {
		return fmt.Errorf("%w: [log].level must be one of %s, got %q", ErrInvalid, strings.Join(logLevels, "|"), c.Log.Level)
	}
	if !slices.Contains(logFormats, c.Log.Format) {
		return fmt.Errorf("%w: [log].format must be one of %s, got %q", ErrInvalid, strings.Join(logFormats, "|"), c.Log.Format)
	}
	return nil
}

func resolve(root, p string) string {
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}
