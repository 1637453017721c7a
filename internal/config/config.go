package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk YAML configuration shape for hermit. Nil fields
// were not set and fall through to the next layer.
type FileConfig struct {
	Rules    *string `yaml:"rules,omitempty"`
	FailOn   *string `yaml:"fail_on,omitempty"`
	JSONOut  *string `yaml:"json_out,omitempty"`
	SARIFOut *string `yaml:"sarif_out,omitempty"`
	Include  *string `yaml:"include,omitempty"`
	Exclude  *string `yaml:"exclude,omitempty"`
	Threads  *int    `yaml:"threads,omitempty"`
	MaxBytes *int64  `yaml:"max_bytes,omitempty"`
	NoColor  *bool   `yaml:"no_color,omitempty"`
	// MatchTimeout bounds a single regex evaluation, e.g. "250ms".
	MatchTimeout *string `yaml:"match_timeout,omitempty"`
}

// LocalNames lists the repo-local config file names in search order.
var LocalNames = []string{".hermit.yml", ".hermit.yaml", "hermit.yml", "hermit.yaml"}

// ErrNotFound is returned by LoadLocal and LoadGlobal when no file exists.
var ErrNotFound = errors.New("config not found")

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if _, err := cfg.Timeout(); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadLocal searches dir for a config file named in LocalNames.
func LoadLocal(dir string) (FileConfig, error) {
	for _, name := range LocalNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return FileConfig{}, ErrNotFound
}

// GlobalPath returns $XDG_CONFIG_HOME/hermit/config.yml, falling back to
// ~/.config when XDG_CONFIG_HOME is unset. It is empty when neither exists.
func GlobalPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return ""
	}
	return filepath.Join(base, "hermit", "config.yml")
}

// LoadGlobal loads the global config file from XDG base directory or ~/.config.
func LoadGlobal() (FileConfig, error) {
	p := GlobalPath()
	if p == "" {
		return FileConfig{}, ErrNotFound
	}
	if _, err := os.Stat(p); err != nil {
		return FileConfig{}, ErrNotFound
	}
	return LoadFile(p)
}

// FromEnv builds a config layer from HERMIT_* environment variables. Unset
// or empty variables leave the field nil.
func FromEnv() (FileConfig, error) {
	var cfg FileConfig
	cfg.FailOn = envString("HERMIT_FAIL_ON")
	cfg.Rules = envString("HERMIT_RULES")
	if s := envString("HERMIT_THREADS"); s != nil {
		n, err := strconv.Atoi(*s)
		if err != nil {
			return cfg, fmt.Errorf("HERMIT_THREADS: %w", err)
		}
		cfg.Threads = &n
	}
	if s := envString("HERMIT_MAX_BYTES"); s != nil {
		n, err := strconv.ParseInt(*s, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("HERMIT_MAX_BYTES: %w", err)
		}
		cfg.MaxBytes = &n
	}
	if s := envString("HERMIT_NO_COLOR"); s != nil {
		b, err := strconv.ParseBool(*s)
		if err != nil {
			return cfg, fmt.Errorf("HERMIT_NO_COLOR: %w", err)
		}
		cfg.NoColor = &b
	}
	return cfg, nil
}

func envString(key string) *string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	return &v
}

// Timeout parses MatchTimeout. An unset value yields zero.
func (fc FileConfig) Timeout() (time.Duration, error) {
	if fc.MatchTimeout == nil || *fc.MatchTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(*fc.MatchTimeout)
	if err != nil {
		return 0, fmt.Errorf("match_timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("match_timeout: negative duration %s", d)
	}
	return d, nil
}

// Merge overlays layers from highest to lowest precedence: the first
// non-nil value for each field wins.
func Merge(layers ...FileConfig) FileConfig {
	var out FileConfig
	for _, l := range layers {
		out.Rules = firstString(out.Rules, l.Rules)
		out.FailOn = firstString(out.FailOn, l.FailOn)
		out.JSONOut = firstString(out.JSONOut, l.JSONOut)
		out.SARIFOut = firstString(out.SARIFOut, l.SARIFOut)
		out.Include = firstString(out.Include, l.Include)
		out.Exclude = firstString(out.Exclude, l.Exclude)
		out.MatchTimeout = firstString(out.MatchTimeout, l.MatchTimeout)
		if out.Threads == nil {
			out.Threads = l.Threads
		}
		if out.MaxBytes == nil {
			out.MaxBytes = l.MaxBytes
		}
		if out.NoColor == nil {
			out.NoColor = l.NoColor
		}
	}
	return out
}

func firstString(cur, next *string) *string {
	if cur != nil {
		return cur
	}
	return next
}
