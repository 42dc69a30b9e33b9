// Package config loads the input method configuration: core tuning values,
// the code to text dataset, the translation dictionary and the scripted
// translators.
//
// Files are TOML unless their extension says YAML or JSON. Entries keep the
// order in which they are written, and an entry of the form
// { path = "..." } pulls in the same table from another file, resolved
// relative to the including one.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"glyphkey/internal/logging"
	"glyphkey/internal/memory"
	"glyphkey/internal/translator"
)

// ErrInvalidEntry is returned for a table entry of an unsupported shape.
var ErrInvalidEntry = errors.New("invalid entry")

// Settings are the scalar sections of a configuration file.
type Settings struct {
	// Info describes the dataset.
	Info InfoConfig `toml:"info" json:"info" yaml:"info"`

	// Core holds the engine tuning values.
	Core CoreConfig `toml:"core" json:"core" yaml:"core"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`

	// Journal configuration for the usage journal.
	Journal JournalConfig `toml:"journal" json:"journal" yaml:"journal"`
}

// InfoConfig is free-form metadata about the dataset.
type InfoConfig struct {
	Name        string   `toml:"name" json:"name" yaml:"name"`
	Description string   `toml:"description" json:"description" yaml:"description"`
	Version     string   `toml:"version" json:"version" yaml:"version"`
	Maintainors []string `toml:"maintainors" json:"maintainors" yaml:"maintainors"`
	Homepage    string   `toml:"homepage" json:"homepage" yaml:"homepage"`
}

// CoreConfig holds the engine tuning values.
type CoreConfig struct {
	// BufferSize is the number of keystrokes the cursor remembers.
	BufferSize int `toml:"buffer_size" json:"buffer_size" yaml:"buffer_size"`

	// AutoCapitalize adds an upper-case variant of every lower-case code.
	AutoCapitalize bool `toml:"auto_capitalize" json:"auto_capitalize" yaml:"auto_capitalize"`

	// PageSize is the number of candidates per page.
	PageSize int `toml:"page_size" json:"page_size" yaml:"page_size"`

	// AutoCommit applies exact dictionary matches immediately.
	AutoCommit bool `toml:"auto_commit" json:"auto_commit" yaml:"auto_commit"`

	// Inhibit removes typed keys as soon as they reach the field.
	Inhibit bool `toml:"inhibit" json:"inhibit" yaml:"inhibit"`

	// SimilarityThreshold enables fuzzy matching when in (0, 1).
	SimilarityThreshold float64 `toml:"similarity_threshold" json:"similarity_threshold" yaml:"similarity_threshold"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is the log format: "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is the log output: "stdout", "stderr" or "file".
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the path to the log file when Output is "file".
	FilePath string `toml:"file" json:"file" yaml:"file"`
}

// JournalConfig controls the usage journal.
type JournalConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled" yaml:"enabled"`
	Path    string `toml:"path" json:"path" yaml:"path"`
}

// ScriptRef names a translator script.
type ScriptRef struct {
	Name string
	Path string
}

// Config is a fully resolved configuration.
type Config struct {
	Settings

	path        string
	data        *orderedmap.OrderedMap[string, string]
	translation *translator.Dictionary
	translators *orderedmap.OrderedMap[string, string]
}

// DefaultSettings returns the values used for keys a file leaves out.
func DefaultSettings() Settings {
	return Settings{
		Core: CoreConfig{
			BufferSize:     DefaultBufferSize,
			AutoCapitalize: true,
			PageSize:       DefaultPageSize,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// DefaultConfig returns an empty configuration with default settings.
func DefaultConfig() *Config {
	return &Config{
		Settings:    DefaultSettings(),
		data:        orderedmap.New[string, string](),
		translation: translator.NewDictionary(),
		translators: orderedmap.New[string, string](),
	}
}

// Load reads the configuration at path from disk.
func Load(path string) (*Config, error) {
	return LoadFS(path, OSFileSystem{})
}

// LoadFS reads the configuration at path through fsys.
func LoadFS(path string, fsys FileSystem) (*Config, error) {
	return load(path, fsys, 0)
}

// Path returns the file the configuration was loaded from.
func (c *Config) Path() string { return c.path }

// Data returns the code to text pairs in file order.
func (c *Config) Data() []memory.Pair {
	pairs := make([]memory.Pair, 0, c.data.Len())
	for p := c.data.Oldest(); p != nil; p = p.Next() {
		pairs = append(pairs, memory.Pair{Code: p.Key, Text: p.Value})
	}
	return pairs
}

// Translation returns a copy of the translation dictionary.
func (c *Config) Translation() *translator.Dictionary {
	d := translator.NewDictionary()
	c.translation.Each(func(code string, texts []string) bool {
		d.Set(code, append([]string(nil), texts...)...)
		return true
	})
	return d
}

// Translators returns the translator scripts in file order.
func (c *Config) Translators() []ScriptRef {
	refs := make([]ScriptRef, 0, c.translators.Len())
	for p := c.translators.Oldest(); p != nil; p = p.Next() {
		refs = append(refs, ScriptRef{Name: p.Key, Path: p.Value})
	}
	return refs
}

// Validate checks the settings for errors.
func (c *Config) Validate() error {
	return ValidateSettings(&c.Settings)
}

// ApplyEnvOverrides applies GLYPHKEY_* environment variables. Values that
// do not parse are ignored.
func (c *Config) ApplyEnvOverrides() {
	if v, err := strconv.Atoi(os.Getenv("GLYPHKEY_BUFFER_SIZE")); err == nil {
		c.Core.BufferSize = v
	}
	if v, err := strconv.Atoi(os.Getenv("GLYPHKEY_PAGE_SIZE")); err == nil {
		c.Core.PageSize = v
	}
	if v, err := strconv.ParseBool(os.Getenv("GLYPHKEY_AUTO_COMMIT")); err == nil {
		c.Core.AutoCommit = v
	}
	if v, err := strconv.ParseBool(os.Getenv("GLYPHKEY_INHIBIT")); err == nil {
		c.Core.Inhibit = v
	}
	if v := os.Getenv("GLYPHKEY_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("GLYPHKEY_JOURNAL_PATH"); v != "" {
		c.Journal.Path = v
	}
}

// JournalPath returns the journal location, falling back to the platform default.
func (c *Config) JournalPath() string {
	if c.Journal.Path != "" {
		return c.Journal.Path
	}
	return DefaultJournalPath()
}

// LoggerConfig converts the logging section for the logging package.
func (c *Config) LoggerConfig() (*logging.Config, error) {
	cfg := logging.DefaultConfig()
	level, err := logging.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}
	cfg.Level = level
	if c.Logging.Format == "json" {
		cfg.Format = logging.FormatJSON
	}
	if c.Logging.Output != "" {
		cfg.Output = c.Logging.Output
	}
	if c.Logging.FilePath != "" {
		cfg.FilePath = c.Logging.FilePath
	}
	return cfg, nil
}

// FileSystem reads configuration files. fstest.MapFS satisfies it.
type FileSystem interface {
	ReadFile(name string) ([]byte, error)
}

// OSFileSystem reads from disk.
type OSFileSystem struct{}

// ReadFile reads the named file.
func (OSFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// maxIncludeDepth bounds nested { path = ... } includes, which also stops
// a file from including itself forever.
const maxIncludeDepth = 16

func load(path string, fsys FileSystem, depth int) (*Config, error) {
	if depth > maxIncludeDepth {
		return nil, fmt.Errorf("load %s: includes nested deeper than %d", path, maxIncludeDepth)
	}

	content, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	doc, err := decode(path, content)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	cfg.Settings = doc.settings
	cfg.path = path

	r := resolver{cfg: cfg, dir: filepath.Dir(path), fsys: fsys, depth: depth}
	if err := r.resolve(doc); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}
