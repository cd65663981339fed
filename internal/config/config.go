// Package config loads discfg settings from YAML files and DISCFG_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"

	"discfg/internal/cfg"
	"discfg/internal/disasm"
	"discfg/internal/render"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid")

// Config holds the defaults that command-line flags start from.
type Config struct {
	Arch     string `yaml:"arch" json:"arch" jsonschema:"title=Architecture,enum=arm64,enum=x86-64,enum=x86,description=Instruction set used for raw input"`
	Format   string `yaml:"format" json:"format" jsonschema:"title=Format,description=Default dump format"`
	Theme    string `yaml:"theme" json:"theme" jsonschema:"title=Theme,description=Color theme for themed DOT output"`
	Style    string `yaml:"style" json:"style" jsonschema:"title=Style,description=Chroma style for colored listings"`
	MaxBytes int    `yaml:"max_bytes" json:"maxBytes" jsonschema:"title=Max Bytes,minimum=0,description=Upper bound on the bytes of one instruction stream"`
	MaxSteps int    `yaml:"max_steps" json:"maxSteps" jsonschema:"title=Max Steps,minimum=0,description=Upper bound on decoded instructions per function"`
	LogLevel string `yaml:"log_level" json:"logLevel" jsonschema:"title=Log Level,enum=debug,enum=info,enum=warn,enum=error"`
	Color    bool   `yaml:"color" json:"color" jsonschema:"title=Color,description=Colorize listings on a terminal"`
	OutDir   string `yaml:"out_dir" json:"outDir" jsonschema:"title=Output Directory"`
}

// Formats lists the dump formats the CLI understands.
var Formats = []string{"dump", "dot", "dot-insts", "themed", "lattice", "listing", "json"}

// Default returns a Config with the built-in defaults.
func Default() *Config {
	return &Config{
		Arch:     "arm64",
		Format:   "dump",
		Theme:    "nasa",
		Style:    "monokai",
		MaxBytes: cfg.DefaultMaxBytes,
		MaxSteps: 0,
		LogLevel: "info",
		Color:    true,
		OutDir:   "out",
	}
}

// GlobalPath returns ~/.discfg/config.yaml.
func GlobalPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".discfg", "config.yaml")
	}
	return filepath.Join(home, ".discfg", "config.yaml")
}

// ProjectPath returns the project-level config file, ./.discfg.yaml.
func ProjectPath() string {
	return ".discfg.yaml"
}

// Load reads configuration with the following priority (highest to lowest):
//  1. Environment variables (DISCFG_*)
//  2. Project-level config (./.discfg.yaml)
//  3. Global config (~/.discfg/config.yaml)
//  4. Defaults
func Load() (*Config, error) {
	c := Default()
	for _, path := range []string{GlobalPath(), ProjectPath()} {
		if err := c.merge(path, true); err != nil {
			return nil, err
		}
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFromFile reads configuration from one YAML file, then applies
// environment overrides. The file must exist.
func LoadFromFile(path string) (*Config, error) {
	c := Default()
	if err := c.merge(path, false); err != nil {
		return nil, err
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) merge(path string, optional bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("DISCFG_ARCH"); v != "" {
		c.Arch = v
	}
	if v := os.Getenv("DISCFG_FORMAT"); v != "" {
		c.Format = v
	}
	if v := os.Getenv("DISCFG_THEME"); v != "" {
		c.Theme = v
	}
	if v := os.Getenv("DISCFG_STYLE"); v != "" {
		c.Style = v
	}
	if v := os.Getenv("DISCFG_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("DISCFG_OUT_DIR"); v != "" {
		c.OutDir = v
	}
	if os.Getenv("DISCFG_NO_COLOR") != "" {
		c.Color = false
	}
	for name, dst := range map[string]*int{
		"DISCFG_MAX_BYTES": &c.MaxBytes,
		"DISCFG_MAX_STEPS": &c.MaxSteps,
	} {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
		*dst = n
	}
	return nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if _, err := disasm.ParseArch(c.Arch); err != nil {
		return fmt.Errorf("%w: arch: %v", ErrInvalid, err)
	}
	if !slices.Contains(Formats, c.Format) {
		return fmt.Errorf("%w: format %q", ErrInvalid, c.Format)
	}
	if _, ok := render.ThemeByName(c.Theme); !ok {
		return fmt.Errorf("%w: theme %q", ErrInvalid, c.Theme)
	}
	if c.MaxBytes < 0 || c.MaxSteps < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalid)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
	}
	return nil
}

// Save writes the configuration to path as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("config: mkdir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
