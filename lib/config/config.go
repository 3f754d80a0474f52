// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/termdrift/lib/drift"
	"github.com/bureau-foundation/termdrift/lib/snapshot"
	"github.com/bureau-foundation/termdrift/lib/termproto"
	"github.com/bureau-foundation/termdrift/lib/transcript"
)

// EnvironmentVariable names the config file when --config is not given.
const EnvironmentVariable = "TERMDRIFT_CONFIG"

// Config is the termdrift configuration.
type Config struct {
	// Modes are the DEC private modes a capture queries.
	// Default: 1000,1002,1003,1004,1005,1006,1015,1016,1049,2004,2026
	Modes []int `yaml:"modes" json:"modes"`

	// SuspiciousModes are the modes whose enabling during a session is
	// reported as drift.
	// Default: every default mode except 1000
	SuspiciousModes []int `yaml:"suspicious_modes" json:"suspicious_modes"`

	// PerQueryTimeoutMS is the read window for each mode query.
	// Default: 120
	PerQueryTimeoutMS int `yaml:"per_query_timeout_ms" json:"per_query_timeout_ms"`

	// KittyTimeoutMS is the read window for the kitty keyboard query.
	// Default: 120
	KittyTimeoutMS int `yaml:"kitty_timeout_ms" json:"kitty_timeout_ms"`

	// UnsupportedTerms are TERM values that are never queried, in
	// addition to empty and "dumb".
	UnsupportedTerms []string `yaml:"unsupported_terms" json:"unsupported_terms"`

	// MarkerPrefix is the prefix of the harness's transcript markers.
	// Default: ISSUE26
	MarkerPrefix string `yaml:"marker_prefix" json:"marker_prefix"`
}

// Default returns the default configuration. A loaded file is decoded
// over these values, so fields the file omits keep their defaults.
func Default() *Config {
	return &Config{
		Modes:             modeNumbers(snapshot.DefaultModes),
		SuspiciousModes:   modeNumbers(drift.DefaultSuspiciousModes),
		PerQueryTimeoutMS: int(snapshot.DefaultQueryTimeout / time.Millisecond),
		KittyTimeoutMS:    int(snapshot.DefaultKeyboardTimeout / time.Millisecond),
		MarkerPrefix:      transcript.DefaultMarkerPrefix,
	}
}

// Load resolves the configuration file: flagPath when non-empty, else
// TERMDRIFT_CONFIG, else none. With no file it returns Default. The
// second result is the path that was loaded, or "".
//
// There is no discovery: a file in the working directory or home
// directory is never read implicitly.
func Load(flagPath string) (*Config, string, error) {
	path := flagPath
	if path == "" {
		path = os.Getenv(EnvironmentVariable)
	}
	if path == "" {
		return Default(), "", nil
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// LoadFile loads and validates a configuration file. The format follows
// the extension: .yaml and .yml are YAML; .json and .jsonc are JSON
// with comments and trailing commas allowed. Unknown keys are errors.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	switch extension := strings.ToLower(filepath.Ext(path)); extension {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".json", ".jsonc":
		decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("config %s: unsupported extension %q (want .yaml, .yml, .json, or .jsonc)", path, extension)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

var markerPrefixPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Modes) == 0 {
		errs = append(errs, fmt.Errorf("modes must not be empty"))
	}
	for _, mode := range c.Modes {
		if mode <= 0 {
			errs = append(errs, fmt.Errorf("modes: %d is not a positive DEC private mode number", mode))
		}
	}
	for _, mode := range c.SuspiciousModes {
		if mode <= 0 {
			errs = append(errs, fmt.Errorf("suspicious_modes: %d is not a positive DEC private mode number", mode))
		}
	}

	if c.PerQueryTimeoutMS <= 0 {
		errs = append(errs, fmt.Errorf("per_query_timeout_ms must be positive, got %d", c.PerQueryTimeoutMS))
	}
	if c.KittyTimeoutMS <= 0 {
		errs = append(errs, fmt.Errorf("kitty_timeout_ms must be positive, got %d", c.KittyTimeoutMS))
	}

	if !markerPrefixPattern.MatchString(c.MarkerPrefix) {
		errs = append(errs, fmt.Errorf("marker_prefix %q must be letters, digits, and underscores", c.MarkerPrefix))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ModeList returns Modes as typed mode numbers.
func (c *Config) ModeList() []termproto.Mode {
	return typedModes(c.Modes)
}

// SuspiciousModeList returns SuspiciousModes as typed mode numbers. An
// explicitly empty list disables suspicious-enable detection.
func (c *Config) SuspiciousModeList() []termproto.Mode {
	return typedModes(c.SuspiciousModes)
}

// QueryTimeout returns PerQueryTimeoutMS as a duration.
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.PerQueryTimeoutMS) * time.Millisecond
}

// KeyboardTimeout returns KittyTimeoutMS as a duration.
func (c *Config) KeyboardTimeout() time.Duration {
	return time.Duration(c.KittyTimeoutMS) * time.Millisecond
}

func modeNumbers(modes []termproto.Mode) []int {
	numbers := make([]int, len(modes))
	for index, mode := range modes {
		numbers[index] = int(mode)
	}
	return numbers
}

func typedModes(numbers []int) []termproto.Mode {
	modes := make([]termproto.Mode, len(numbers))
	for index, number := range numbers {
		modes[index] = termproto.Mode(number)
	}
	return modes
}
