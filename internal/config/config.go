package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	smerrors "github.com/Aman-CERP/searchmark/internal/errors"
)

// Project config file names, in lookup order.
const (
	ProjectConfigFile    = ".searchmark.yaml"
	ProjectConfigFileAlt = ".searchmark.yml"
)

// Config is the complete searchmark CLI configuration. The highlight
// engine never reads it; the CLI converts it into explicit options.
type Config struct {
	Version   int             `yaml:"version" json:"version"`
	Highlight HighlightConfig `yaml:"highlight" json:"highlight"`
	Limits    LimitsConfig    `yaml:"limits" json:"limits"`
	Batch     BatchConfig     `yaml:"batch" json:"batch"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Output    OutputConfig    `yaml:"output" json:"output"`
}

// HighlightConfig holds settings applied to every field, plus per-field
// profiles keyed by field name (title, content, author, tags).
type HighlightConfig struct {
	CaseSensitive   *bool                   `yaml:"case_sensitive,omitempty" json:"case_sensitive,omitempty"`
	ShowEllipsis    *bool                   `yaml:"show_ellipsis,omitempty" json:"show_ellipsis,omitempty"`
	TrailingContext *int                    `yaml:"trailing_context,omitempty" json:"trailing_context,omitempty"`
	SnapWindow      *int                    `yaml:"snap_window,omitempty" json:"snap_window,omitempty"`
	Fields          map[string]FieldProfile `yaml:"fields,omitempty" json:"fields,omitempty"`
}

// FieldProfile overrides the built-in profile of one field.
type FieldProfile struct {
	MaxLength     *int   `yaml:"max_length,omitempty" json:"max_length,omitempty"`
	CaseSensitive *bool  `yaml:"case_sensitive,omitempty" json:"case_sensitive,omitempty"`
	ShowEllipsis  *bool  `yaml:"show_ellipsis,omitempty" json:"show_ellipsis,omitempty"`
	SingleColor   *bool  `yaml:"single_color,omitempty" json:"single_color,omitempty"`
	Variant       string `yaml:"variant,omitempty" json:"variant,omitempty"`
}

// LimitsConfig bounds CLI input.
type LimitsConfig struct {
	// MaxInputBytes rejects input files larger than this.
	MaxInputBytes int64 `yaml:"max_input_bytes" json:"max_input_bytes"`

	// MaxBatchItems rejects batch files with more items than this.
	MaxBatchItems int `yaml:"max_batch_items" json:"max_batch_items"`
}

// BatchConfig configures batch highlighting.
type BatchConfig struct {
	Workers   int `yaml:"workers" json:"workers"`
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// TelemetryConfig configures local highlight metrics.
type TelemetryConfig struct {
	Enabled       bool   `yaml:"enabled" json:"enabled"`
	DBPath        string `yaml:"db_path" json:"db_path"`
	FlushInterval string `yaml:"flush_interval" json:"flush_interval"`
}

// LoggingConfig configures the log file.
type LoggingConfig struct {
	Level     string `yaml:"level" json:"level"`
	File      string `yaml:"file" json:"file"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
}

// OutputConfig configures CLI output.
type OutputConfig struct {
	// Color is auto, always or never.
	Color string `yaml:"color" json:"color"`
	// Format is text, json or html.
	Format string `yaml:"format" json:"format"`
}

// NewConfig creates a Config with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Highlight: HighlightConfig{
			Fields: map[string]FieldProfile{},
		},
		Limits: LimitsConfig{
			MaxInputBytes: 64 << 20,
			MaxBatchItems: 100000,
		},
		Batch: BatchConfig{
			Workers:   runtime.NumCPU(),
			CacheSize: 1024,
		},
		Telemetry: TelemetryConfig{
			Enabled:       false,
			DBPath:        filepath.Join(DataDir(), "telemetry.db"),
			FlushInterval: "60s",
		},
		Logging: LoggingConfig{
			Level:     "info",
			File:      filepath.Join(DataDir(), "logs", "searchmark.log"),
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
		Output: OutputConfig{
			Color:  "auto",
			Format: "text",
		},
	}
}

// DataDir returns ~/.searchmark, the home of logs and telemetry.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".searchmark")
	}
	return filepath.Join(home, ".searchmark")
}

// GetUserConfigPath returns the path to the user configuration file:
//   - $XDG_CONFIG_HOME/searchmark/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/searchmark/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "searchmark", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "searchmark", "config.yaml")
	}
	return filepath.Join(home, ".config", "searchmark", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// LoadUserConfig loads the user configuration file.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil
	}

	var cfg Config
	if err := readYAML(configPath, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load loads configuration for the project in dir.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config (~/.config/searchmark/config.yaml)
//  3. Project config (.searchmark.yaml in dir)
//  4. Environment variables (SEARCHMARK_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	userCfg, err := LoadUserConfig()
	if err != nil {
		return nil, err
	}
	if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if path := ProjectConfigPath(dir); path != "" {
		var projectCfg Config
		if err := readYAML(path, &projectCfg); err != nil {
			return nil, err
		}
		cfg.mergeWith(&projectCfg)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ProjectConfigPath returns the project config file in dir, or "" if none.
// The .yaml name takes precedence over .yml.
func ProjectConfigPath(dir string) string {
	for _, name := range []string{ProjectConfigFile, ProjectConfigFileAlt} {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return path
		}
	}
	return ""
}

func readYAML(path string, out *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		code := smerrors.ErrCodeConfigNotFound
		if os.IsPermission(err) {
			code = smerrors.ErrCodeConfigPermission
		}
		return smerrors.New(code, "failed to read config file "+path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return smerrors.ConfigError("failed to parse config file "+path, err).
			WithDetail("path", path).
			WithSuggestion("check the YAML syntax, or run 'searchmark config init --force'")
	}
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	h := &other.Highlight
	if h.CaseSensitive != nil {
		c.Highlight.CaseSensitive = h.CaseSensitive
	}
	if h.ShowEllipsis != nil {
		c.Highlight.ShowEllipsis = h.ShowEllipsis
	}
	if h.TrailingContext != nil {
		c.Highlight.TrailingContext = h.TrailingContext
	}
	if h.SnapWindow != nil {
		c.Highlight.SnapWindow = h.SnapWindow
	}
	if len(h.Fields) > 0 && c.Highlight.Fields == nil {
		c.Highlight.Fields = make(map[string]FieldProfile, len(h.Fields))
	}
	for name, p := range h.Fields {
		c.Highlight.Fields[name] = c.Highlight.Fields[name].merge(p)
	}

	if other.Limits.MaxInputBytes > 0 {
		c.Limits.MaxInputBytes = other.Limits.MaxInputBytes
	}
	if other.Limits.MaxBatchItems > 0 {
		c.Limits.MaxBatchItems = other.Limits.MaxBatchItems
	}

	if other.Batch.Workers > 0 {
		c.Batch.Workers = other.Batch.Workers
	}
	if other.Batch.CacheSize > 0 {
		c.Batch.CacheSize = other.Batch.CacheSize
	}

	// enabled is a plain bool: a file can switch telemetry on, only env can
	// switch it back off.
	if other.Telemetry.Enabled {
		c.Telemetry.Enabled = true
	}
	if other.Telemetry.DBPath != "" {
		c.Telemetry.DBPath = other.Telemetry.DBPath
	}
	if other.Telemetry.FlushInterval != "" {
		c.Telemetry.FlushInterval = other.Telemetry.FlushInterval
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.File != "" {
		c.Logging.File = other.Logging.File
	}
	if other.Logging.MaxSizeMB > 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxFiles > 0 {
		c.Logging.MaxFiles = other.Logging.MaxFiles
	}

	if other.Output.Color != "" {
		c.Output.Color = other.Output.Color
	}
	if other.Output.Format != "" {
		c.Output.Format = other.Output.Format
	}
}

func (p FieldProfile) merge(over FieldProfile) FieldProfile {
	if over.MaxLength != nil {
		p.MaxLength = over.MaxLength
	}
	if over.CaseSensitive != nil {
		p.CaseSensitive = over.CaseSensitive
	}
	if over.ShowEllipsis != nil {
		p.ShowEllipsis = over.ShowEllipsis
	}
	if over.SingleColor != nil {
		p.SingleColor = over.SingleColor
	}
	if over.Variant != "" {
		p.Variant = over.Variant
	}
	return p
}

// applyEnvOverrides applies SEARCHMARK_* environment variable overrides.
// Unparseable values are ignored.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SEARCHMARK_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SEARCHMARK_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
	if v := os.Getenv("SEARCHMARK_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Batch.Workers = n
		}
	}
	if v := os.Getenv("SEARCHMARK_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Batch.CacheSize = n
		}
	}
	if v := os.Getenv("SEARCHMARK_TELEMETRY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Telemetry.Enabled = b
		}
	}
	if v := os.Getenv("SEARCHMARK_TELEMETRY_DB"); v != "" {
		c.Telemetry.DBPath = v
	}
	if v := os.Getenv("SEARCHMARK_CASE_SENSITIVE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Highlight.CaseSensitive = &b
		}
	}
	if v := os.Getenv("SEARCHMARK_COLOR"); v != "" {
		c.Output.Color = v
	}
	if v := os.Getenv("SEARCHMARK_OUTPUT_FORMAT"); v != "" {
		c.Output.Format = v
	}
}

// FindProjectRoot walks up from startDir looking for a .git directory or a
// project config file. It returns startDir (absolute) when neither is found.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if dirExists(filepath.Join(currentDir, ".git")) || ProjectConfigPath(currentDir) != "" {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return smerrors.ConfigError("invalid configuration: "+fmt.Sprintf(format, args...), nil)
	}

	if v := c.Highlight.TrailingContext; v != nil && *v < 0 {
		return invalid("highlight.trailing_context must be non-negative, got %d", *v)
	}
	if v := c.Highlight.SnapWindow; v != nil && *v < 0 {
		return invalid("highlight.snap_window must be non-negative, got %d", *v)
	}
	for name, p := range c.Highlight.Fields {
		if _, ok := fieldByName(name); !ok {
			return invalid("highlight.fields: unknown field %q (use title, content, author or tags)", name)
		}
		if p.MaxLength != nil && *p.MaxLength < 0 {
			return invalid("highlight.fields.%s.max_length must be non-negative, got %d", name, *p.MaxLength)
		}
		if !validVariant(p.Variant) {
			return invalid("highlight.fields.%s.variant must be none, title, author or tag, got %s", name, p.Variant)
		}
	}

	if c.Limits.MaxInputBytes < 0 {
		return invalid("limits.max_input_bytes must be non-negative, got %d", c.Limits.MaxInputBytes)
	}
	if c.Limits.MaxBatchItems < 0 {
		return invalid("limits.max_batch_items must be non-negative, got %d", c.Limits.MaxBatchItems)
	}
	if c.Batch.Workers < 0 {
		return invalid("batch.workers must be non-negative, got %d", c.Batch.Workers)
	}
	if c.Batch.CacheSize < 0 {
		return invalid("batch.cache_size must be non-negative, got %d", c.Batch.CacheSize)
	}

	if c.Telemetry.FlushInterval != "" {
		if d, err := time.ParseDuration(c.Telemetry.FlushInterval); err != nil || d < 0 {
			return invalid("telemetry.flush_interval must be a duration like 60s, got %s", c.Telemetry.FlushInterval)
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return invalid("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	validColors := map[string]bool{"auto": true, "always": true, "never": true}
	if !validColors[strings.ToLower(c.Output.Color)] {
		return invalid("output.color must be 'auto', 'always', or 'never', got %s", c.Output.Color)
	}
	validFormats := map[string]bool{"text": true, "json": true, "html": true}
	if !validFormats[strings.ToLower(c.Output.Format)] {
		return invalid("output.format must be 'text', 'json', or 'html', got %s", c.Output.Format)
	}

	return nil
}

// FlushInterval parses Telemetry.FlushInterval, defaulting to 60 seconds.
func (c *Config) FlushInterval() time.Duration {
	d, err := time.ParseDuration(c.Telemetry.FlushInterval)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return smerrors.InternalError("failed to marshal config", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return smerrors.New(smerrors.ErrCodeConfigPermission, "failed to create config directory", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return smerrors.New(smerrors.ErrCodeConfigPermission, "failed to write config file", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
