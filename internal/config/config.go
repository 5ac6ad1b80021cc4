package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harrison/mpcdata/internal/export"
	"github.com/harrison/mpcdata/internal/parser"
)

// ParseConfig holds parser options as written in the config file
type ParseConfig struct {
	// Layout is how sessions are separated: auto, multi or single
	Layout string `yaml:"layout"`

	// Box selects how the Box header is kept: text or numeric
	Box string `yaml:"box"`

	// OnError is stop or skip
	OnError string `yaml:"on_error"`

	// NameConflict is last-wins or reject
	NameConflict string `yaml:"name_conflict"`
}

// ExportConfig controls converted output
type ExportConfig struct {
	// Format is one of xlsx, json, csv, markdown, html
	Format string `yaml:"format"`

	// OutputDir receives exported files; empty means next to each source
	OutputDir string `yaml:"output_dir"`

	// Overwrite replaces existing output files
	Overwrite bool `yaml:"overwrite"`
}

// StoreConfig locates the session catalog
type StoreConfig struct {
	// DBPath is the SQLite catalog; empty means $MPCDATA_HOME/sessions.db
	DBPath string `yaml:"db_path"`
}

// WatchConfig controls the watch command
type WatchConfig struct {
	// Pattern is a glob on file names that are converted when they change
	Pattern string `yaml:"pattern"`

	// Debounce is how long a file must be quiet before it is converted
	Debounce time.Duration `yaml:"debounce"`

	// Import also stores converted sessions in the catalog
	Import bool `yaml:"import"`
}

// Config represents mpcdata configuration options
type Config struct {
	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is where per-run log files are written; empty means logs/ under the
	// mpcdata home directory
	LogDir string `yaml:"log_dir"`

	Parse  ParseConfig  `yaml:"parse"`
	Export ExportConfig `yaml:"export"`
	Store  StoreConfig  `yaml:"store"`
	Watch  WatchConfig  `yaml:"watch"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		LogDir:   "",
		Parse: ParseConfig{
			Layout:       parser.LayoutAuto.String(),
			Box:          parser.BoxText.String(),
			OnError:      parser.StopOnError.String(),
			NameConflict: parser.ConflictLastWins.String(),
		},
		Export: ExportConfig{
			Format: export.FormatXLSX,
		},
		Watch: WatchConfig{
			Pattern:  "*",
			Debounce: 500 * time.Millisecond,
		},
	}
}

// LoadConfig loads configuration from path on top of the defaults.
// A missing file yields the defaults; a malformed one is an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Keys absent from the file keep their default value.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// ConfigPath returns the location of the config file inside dir
func ConfigPath(dir string) string {
	return filepath.Join(dir, ".mpcdata", "config.yaml")
}

// LoadConfigFromDir loads .mpcdata/config.yaml from dir
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(ConfigPath(dir))
}

// Flags carries CLI flag values; nil fields were not set on the command line
type Flags struct {
	LogLevel     *string
	LogDir       *string
	Layout       *string
	Box          *string
	OnError      *string
	NameConflict *string
	Format       *string
	OutputDir    *string
	Overwrite    *bool
	DBPath       *string
}

// MergeWithFlags lets explicitly set CLI flags override file values
func (c *Config) MergeWithFlags(f Flags) {
	setString(&c.LogLevel, f.LogLevel)
	setString(&c.LogDir, f.LogDir)
	setString(&c.Parse.Layout, f.Layout)
	setString(&c.Parse.Box, f.Box)
	setString(&c.Parse.OnError, f.OnError)
	setString(&c.Parse.NameConflict, f.NameConflict)
	setString(&c.Export.Format, f.Format)
	setString(&c.Export.OutputDir, f.OutputDir)
	setString(&c.Store.DBPath, f.DBPath)
	if f.Overwrite != nil {
		c.Export.Overwrite = *f.Overwrite
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// ParseOptions converts the parse section into parser options
func (c *Config) ParseOptions() (parser.Options, error) {
	var opts parser.Options
	var err error

	if opts.Layout, err = parser.ParseLayout(c.Parse.Layout); err != nil {
		return opts, fmt.Errorf("parse.layout: %w", err)
	}
	if opts.BoxMode, err = parser.ParseBoxMode(c.Parse.Box); err != nil {
		return opts, fmt.Errorf("parse.box: %w", err)
	}
	if opts.OnError, err = parser.ParseErrorPolicy(c.Parse.OnError); err != nil {
		return opts, fmt.Errorf("parse.on_error: %w", err)
	}
	if opts.NameConflict, err = parser.ParseConflictPolicy(c.Parse.NameConflict); err != nil {
		return opts, fmt.Errorf("parse.name_conflict: %w", err)
	}
	return opts, nil
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if _, err := c.ParseOptions(); err != nil {
		return err
	}

	if _, err := export.NewExporter(c.Export.Format); err != nil {
		return fmt.Errorf("export.format: %w", err)
	}

	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must be >= 0, got %v", c.Watch.Debounce)
	}
	if _, err := filepath.Match(c.Watch.Pattern, ""); err != nil {
		return fmt.Errorf("watch.pattern %q: %w", c.Watch.Pattern, err)
	}

	return nil
}
