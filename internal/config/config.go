// Package config handles configuration loading and defaults for dailies.
// Configuration is loaded from XDG-compliant paths (typically
// ~/.config/dailies/config.yaml), then environment overrides are applied.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"dailies/internal/fsutil"
)

// Environment variables that override the file.
const (
	EnvDataDir  = "DAILIES_DATA_DIR"
	EnvLogLevel = "DAILIES_LOG_LEVEL"
)

// Config represents the application configuration.
type Config struct {
	// DataDir overrides the default data directory (~/.dailies)
	DataDir string `yaml:"data_dir,omitempty"`

	Log       LogConfig      `yaml:"log,omitempty"`
	Reminders ReminderConfig `yaml:"reminders,omitempty"`
	Widget    WidgetConfig   `yaml:"widget,omitempty"`
	Sync      SyncConfig     `yaml:"sync,omitempty"`
	Backup    BackupConfig   `yaml:"backup,omitempty"`
	Theme     ThemeConfig    `yaml:"theme,omitempty"`
}

// LogConfig controls the application log.
type LogConfig struct {
	// Level is debug, info, warn or error
	Level string `yaml:"level,omitempty"`

	// File enables the rotating JSON log under <data_dir>/logs
	File bool `yaml:"file"`

	// MaxAgeDays is how long rotated files are kept
	MaxAgeDays int `yaml:"max_age_days,omitempty"`
}

// ReminderConfig controls reminder scheduling and delivery.
type ReminderConfig struct {
	Enabled bool `yaml:"enabled"`

	// DefaultDueTime applies to tasks with a due date but no time (HH:MM)
	DefaultDueTime string `yaml:"default_due_time,omitempty"`

	// PollInterval is how often `dailies reminders run` checks the queue
	PollInterval string `yaml:"poll_interval,omitempty"`

	// Sound plays the default notification sound
	Sound bool `yaml:"sound,omitempty"`
}

// WidgetConfig controls the widget payload file.
type WidgetConfig struct {
	Enabled bool `yaml:"enabled"`

	// Path overrides <data_dir>/widget/today.json
	Path string `yaml:"path,omitempty"`
}

// SyncConfig defines git synchronization settings.
type SyncConfig struct {
	// Enabled enables/disables git sync
	Enabled bool `yaml:"enabled,omitempty"`

	// AutoCommit automatically commits changes after saves
	AutoCommit bool `yaml:"auto_commit"`

	// AutoPush automatically pushes after each commit
	AutoPush bool `yaml:"auto_push,omitempty"`

	// PullOnStartup pulls latest changes when the CLI starts
	PullOnStartup bool `yaml:"pull_on_startup,omitempty"`

	// CommitMessage is the commit message template ("auto" for auto-generated)
	CommitMessage string `yaml:"commit_message,omitempty"`
}

// BackupConfig controls `dailies backup`.
type BackupConfig struct {
	// Keep is how many backups are retained; 0 keeps all
	Keep int `yaml:"keep"`
}

// ThemeConfig defines colors for CLI output.
type ThemeConfig struct {
	Primary string `yaml:"primary,omitempty"`
	Accent  string `yaml:"accent,omitempty"`
	Muted   string `yaml:"muted,omitempty"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		DataDir: defaultDataDir(),
		Log: LogConfig{
			Level:      "info",
			File:       true,
			MaxAgeDays: 14,
		},
		Reminders: ReminderConfig{
			Enabled:        true,
			DefaultDueTime: "09:00",
			PollInterval:   "30s",
			Sound:          false,
		},
		Widget: WidgetConfig{
			Enabled: true,
		},
		Sync: SyncConfig{
			Enabled:       false,
			AutoCommit:    true,
			AutoPush:      false,
			PullOnStartup: false,
			CommitMessage: "auto",
		},
		Backup: BackupConfig{
			Keep: 10,
		},
		Theme: ThemeConfig{
			Primary: "#7C3AED", // Violet
			Accent:  "#10B981", // Emerald
			Muted:   "#6B7280", // Gray
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dailies"
	}
	return filepath.Join(home, ".dailies")
}

// Dir returns the configuration directory (XDG compliant).
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "dailies")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "dailies")
}

// Path returns the path to the config file.
func Path() string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// LoadEnv loads KEY=value pairs from a .env file in the config directory and
// then from the working directory. Variables already set are left alone, and
// missing files are not an error.
func LoadEnv() {
	var files []string
	if dir := Dir(); dir != "" {
		files = append(files, filepath.Join(dir, ".env"))
	}
	files = append(files, ".env")
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}
}

// Load reads configuration from the default path, merging with defaults,
// and applies environment overrides. If no config file exists, the defaults
// are used.
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom is Load with an explicit config file path.
func LoadFrom(path string) (*Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadFile reads path over the defaults without environment overrides or
// validation. Use it to edit and SaveTo the file itself.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			var userCfg Config
			if err := yaml.Unmarshal(data, &userCfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
			var doc yaml.Node
			_ = yaml.Unmarshal(data, &doc) // best-effort; fall back to conservative merge if this fails
			cfg.mergeFromYAML(&userCfg, &doc)
		case !os.IsNotExist(err):
			return nil, err
		}
	}

	return cfg, nil
}

// envOverrides lists the environment variables that override the file.
// Tags must stay in step with EnvDataDir and EnvLogLevel.
type envOverrides struct {
	DataDir  string `env:"DAILIES_DATA_DIR"`
	LogLevel string `env:"DAILIES_LOG_LEVEL"`
}

func (c *Config) applyEnv() error {
	var env envOverrides
	if err := cleanenv.ReadEnv(&env); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}
	if v := strings.TrimSpace(env.DataDir); v != "" {
		c.DataDir = v
	}
	if v := strings.TrimSpace(env.LogLevel); v != "" {
		c.Log.Level = v
	}
	return nil
}

// Validate checks values that would otherwise fail much later.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	if _, err := time.Parse("15:04", c.Reminders.DefaultDueTime); err != nil {
		return fmt.Errorf("reminders.default_due_time: %q is not HH:MM", c.Reminders.DefaultDueTime)
	}
	if _, err := c.PollInterval(); err != nil {
		return err
	}
	if c.Backup.Keep < 0 {
		return fmt.Errorf("backup.keep must not be negative")
	}
	return nil
}

// PollInterval returns reminders.poll_interval as a duration.
func (c *Config) PollInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Reminders.PollInterval)
	if err != nil || d < time.Second {
		return 0, fmt.Errorf("reminders.poll_interval: %q must be a duration of at least 1s", c.Reminders.PollInterval)
	}
	return d, nil
}

// mergeNonEmpty applies non-empty values from other to c.
// It intentionally does not touch booleans (those require presence-aware merging).
func (c *Config) mergeNonEmpty(other *Config) {
	setStr := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setStr(&c.DataDir, other.DataDir)
	setStr(&c.Log.Level, other.Log.Level)
	setStr(&c.Reminders.DefaultDueTime, other.Reminders.DefaultDueTime)
	setStr(&c.Reminders.PollInterval, other.Reminders.PollInterval)
	setStr(&c.Widget.Path, other.Widget.Path)
	setStr(&c.Sync.CommitMessage, other.Sync.CommitMessage)
	setStr(&c.Theme.Primary, other.Theme.Primary)
	setStr(&c.Theme.Accent, other.Theme.Accent)
	setStr(&c.Theme.Muted, other.Theme.Muted)

	if other.Log.MaxAgeDays > 0 {
		c.Log.MaxAgeDays = other.Log.MaxAgeDays
	}
	if other.Backup.Keep > 0 {
		c.Backup.Keep = other.Backup.Keep
	}
}

func (c *Config) mergeFromYAML(other *Config, doc *yaml.Node) {
	c.mergeNonEmpty(other)

	// Without a node tree, presence is unknown; keep the default booleans.
	if doc == nil || len(doc.Content) == 0 {
		return
	}

	bools := []struct {
		path []string
		dst  *bool
		src  bool
	}{
		{[]string{"log", "file"}, &c.Log.File, other.Log.File},
		{[]string{"reminders", "enabled"}, &c.Reminders.Enabled, other.Reminders.Enabled},
		{[]string{"reminders", "sound"}, &c.Reminders.Sound, other.Reminders.Sound},
		{[]string{"widget", "enabled"}, &c.Widget.Enabled, other.Widget.Enabled},
		{[]string{"sync", "enabled"}, &c.Sync.Enabled, other.Sync.Enabled},
		{[]string{"sync", "auto_commit"}, &c.Sync.AutoCommit, other.Sync.AutoCommit},
		{[]string{"sync", "auto_push"}, &c.Sync.AutoPush, other.Sync.AutoPush},
		{[]string{"sync", "pull_on_startup"}, &c.Sync.PullOnStartup, other.Sync.PullOnStartup},
	}
	for _, b := range bools {
		if yamlHasPath(doc, b.path...) {
			*b.dst = b.src
		}
	}

	// backup.keep: 0 is meaningful (keep all) when written explicitly.
	if yamlHasPath(doc, "backup", "keep") {
		c.Backup.Keep = other.Backup.Keep
	}
}

func yamlHasPath(doc *yaml.Node, path ...string) bool {
	if doc == nil || len(path) == 0 {
		return false
	}

	// Document -> root mapping.
	n := doc
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	for _, key := range path {
		if n == nil || n.Kind != yaml.MappingNode {
			return false
		}
		var next *yaml.Node
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind == yaml.ScalarNode && k.Value == key {
				next = n.Content[i+1]
				break
			}
		}
		if next == nil {
			return false
		}
		n = next
	}
	return true
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(Path())
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), fsutil.DirPerm); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, data, fsutil.FilePerm)
}

// GetDataDir returns the resolved data directory path, expanding a leading ~.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return defaultDataDir()
	}
	if c.DataDir == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return c.DataDir
	}
	if strings.HasPrefix(c.DataDir, "~/") || strings.HasPrefix(c.DataDir, `~\`) {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, c.DataDir[2:])
		}
	}
	return c.DataDir
}
