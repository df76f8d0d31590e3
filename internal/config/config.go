// Package config holds the settings flash runs with and the rules for
// combining command-line values with a YAML config file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/TFMV/flash/internal/logging"
	"github.com/TFMV/flash/internal/policy"
	"gopkg.in/yaml.v3"
)

// Watch backends.
const (
	BackendFsnotify = "fsnotify"
	BackendNotify   = "notify"
)

// Defaults applied when neither the command line nor a config file sets a
// value.
const (
	DefaultWatch         = "."
	DefaultDebounce      = 100 // milliseconds
	DefaultStatsInterval = 10  // seconds
	DefaultBackend       = BackendFsnotify
)

// Config is the complete, validated run configuration.
type Config struct {
	Command       []string
	Watch         []string
	Ext           string
	Patterns      []string
	Ignore        []string
	Debounce      uint64 // milliseconds
	Initial       bool
	Clear         bool
	Restart       bool
	Stats         bool
	StatsInterval uint64 // seconds
	FastStartup   bool
	Backend       string
	LogLevel      logging.LogLevel
}

// Default returns a Config with every documented default applied.
func Default() Config {
	return Config{
		Watch:         []string{DefaultWatch},
		Debounce:      DefaultDebounce,
		StatsInterval: DefaultStatsInterval,
		Backend:       DefaultBackend,
		LogLevel:      logging.LogLevelInfo,
	}
}

// DebounceWindow returns the debounce window as a duration.
func (c Config) DebounceWindow() time.Duration {
	return time.Duration(c.Debounce) * time.Millisecond
}

// StatsPeriod returns the stats interval as a duration.
func (c Config) StatsPeriod() time.Duration {
	return time.Duration(c.StatsInterval) * time.Second
}

// Validate checks the configuration before anything is started. All problems
// are reported together.
func (c Config) Validate() error {
	var errs []error
	if len(c.Command) == 0 {
		errs = append(errs, ErrNoCommand)
	}
	for _, group := range [][]string{c.Patterns, c.Ignore} {
		for _, p := range group {
			if _, err := policy.Compile(p); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if c.Backend != BackendFsnotify && c.Backend != BackendNotify {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidBackend, c.Backend))
	}
	if c.Stats && c.StatsInterval == 0 {
		errs = append(errs, ErrInvalidInterval)
	}
	return errors.Join(errs...)
}

// File is the on-disk YAML config. Pointer fields distinguish an absent key
// from an explicit zero value.
type File struct {
	Command       []string  `yaml:"command"`
	Watch         *[]string `yaml:"watch"`
	Ext           *string   `yaml:"ext"`
	Pattern       *[]string `yaml:"pattern"`
	Ignore        *[]string `yaml:"ignore"`
	Debounce      *uint64   `yaml:"debounce"`
	Initial       *bool     `yaml:"initial"`
	Clear         *bool     `yaml:"clear"`
	Restart       *bool     `yaml:"restart"`
	Stats         *bool     `yaml:"stats"`
	StatsInterval *uint64   `yaml:"stats_interval"`
	FastStartup   *bool     `yaml:"fast_startup"`
	Backend       *string   `yaml:"backend"`
	LogLevel      *string   `yaml:"log_level"`
}

// LoadFile reads and decodes a YAML config file. Unknown keys are rejected.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("%w: %s: %w", ErrConfigRead, path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes YAML config content.
func Parse(data []byte) (File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return File{}, fmt.Errorf("%w: %w", ErrInvalidYAML, err)
	}
	return f, nil
}

// Merge fills cfg from f. A value given on the command line wins unless it
// still equals its default, in which case the file value, when present, is
// used. Passing a default explicitly on the command line therefore cannot
// override the file.
func Merge(cfg *Config, f File) {
	if len(cfg.Command) == 0 && len(f.Command) > 0 {
		cfg.Command = f.Command
	}
	if slices.Equal(cfg.Watch, []string{DefaultWatch}) && f.Watch != nil {
		cfg.Watch = *f.Watch
	}
	if cfg.Ext == "" && f.Ext != nil {
		cfg.Ext = *f.Ext
	}
	if len(cfg.Patterns) == 0 && f.Pattern != nil {
		cfg.Patterns = *f.Pattern
	}
	if len(cfg.Ignore) == 0 && f.Ignore != nil {
		cfg.Ignore = *f.Ignore
	}
	if cfg.Debounce == DefaultDebounce && f.Debounce != nil {
		cfg.Debounce = *f.Debounce
	}
	mergeBool(&cfg.Initial, f.Initial)
	mergeBool(&cfg.Clear, f.Clear)
	mergeBool(&cfg.Restart, f.Restart)
	mergeBool(&cfg.Stats, f.Stats)
	if cfg.StatsInterval == DefaultStatsInterval && f.StatsInterval != nil {
		cfg.StatsInterval = *f.StatsInterval
	}
	mergeBool(&cfg.FastStartup, f.FastStartup)
	if cfg.Backend == DefaultBackend && f.Backend != nil {
		cfg.Backend = *f.Backend
	}
	if cfg.LogLevel == logging.LogLevelInfo && f.LogLevel != nil {
		cfg.LogLevel = logging.ParseLevel(*f.LogLevel)
	}
}

func mergeBool(dst *bool, src *bool) {
	if !*dst && src != nil {
		*dst = *src
	}
}
