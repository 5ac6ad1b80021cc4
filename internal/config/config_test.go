package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harrison/mpcdata/internal/parser"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := ConfigPath(dir)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// TestDefaultConfig verifies default configuration values
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.Export.Format != "xlsx" {
		t.Errorf("Export.Format = %q, want xlsx", cfg.Export.Format)
	}
	if cfg.Export.Overwrite {
		t.Error("Export.Overwrite should default to false")
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("Watch.Debounce = %v, want 500ms", cfg.Watch.Debounce)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}

	opts, err := cfg.ParseOptions()
	if err != nil {
		t.Fatalf("ParseOptions() error = %v", err)
	}
	if opts != (parser.Options{}) {
		t.Errorf("default parse options = %+v, want zero value", opts)
	}
}

func TestLoadConfigFromDir(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `log_level: debug
parse:
  layout: multi
  box: numeric
export:
  format: csv
  output_dir: /tmp/out
  overwrite: true
store:
  db_path: /tmp/catalog.db
watch:
  pattern: "*.txt"
  debounce: 2s
  import: true
`)

	cfg, err := LoadConfigFromDir(dir)
	if err != nil {
		t.Fatalf("LoadConfigFromDir() error = %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.Parse.Layout != "multi" || cfg.Parse.Box != "numeric" {
		t.Errorf("Parse = %+v", cfg.Parse)
	}
	if cfg.Parse.OnError != "stop" {
		t.Errorf("unset parse.on_error should keep default, got %q", cfg.Parse.OnError)
	}
	if cfg.Export.Format != "csv" || cfg.Export.OutputDir != "/tmp/out" || !cfg.Export.Overwrite {
		t.Errorf("Export = %+v", cfg.Export)
	}
	if cfg.Store.DBPath != "/tmp/catalog.db" {
		t.Errorf("Store.DBPath = %q", cfg.Store.DBPath)
	}
	if cfg.Watch.Pattern != "*.txt" || cfg.Watch.Debounce != 2*time.Second || !cfg.Watch.Import {
		t.Errorf("Watch = %+v", cfg.Watch)
	}

	opts, err := cfg.ParseOptions()
	if err != nil {
		t.Fatalf("ParseOptions() error = %v", err)
	}
	if opts.Layout != parser.LayoutMulti || opts.BoxMode != parser.BoxNumeric {
		t.Errorf("ParseOptions() = %+v", opts)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected defaults, got LogLevel %q", cfg.LogLevel)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "bad yaml", content: "parse: [layout"},
		{name: "bad duration", content: "watch:\n  debounce: soon\n"},
		{name: "wrong type", content: "export:\n  overwrite: maybe\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeConfig(t, dir, tt.content)
			if _, err := LoadConfig(path); err == nil {
				t.Error("expected parse error")
			}
		})
	}
}

func TestMergeWithFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Export.Format = "json"
	cfg.Parse.Layout = "multi"

	level := "warn"
	layout := "single"
	overwrite := true
	cfg.MergeWithFlags(Flags{LogLevel: &level, Layout: &layout, Overwrite: &overwrite})

	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
	if cfg.Parse.Layout != "single" {
		t.Errorf("Parse.Layout = %q, want single", cfg.Parse.Layout)
	}
	if !cfg.Export.Overwrite {
		t.Error("Export.Overwrite should be set by flag")
	}
	if cfg.Export.Format != "json" {
		t.Errorf("unset flag must not override file value, got %q", cfg.Export.Format)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "bad log level", modify: func(c *Config) { c.LogLevel = "loud" }, wantErr: "log_level"},
		{name: "bad layout", modify: func(c *Config) { c.Parse.Layout = "stacked" }, wantErr: "parse.layout"},
		{name: "bad box", modify: func(c *Config) { c.Parse.Box = "roman" }, wantErr: "parse.box"},
		{name: "bad on_error", modify: func(c *Config) { c.Parse.OnError = "ignore" }, wantErr: "parse.on_error"},
		{name: "bad conflict", modify: func(c *Config) { c.Parse.NameConflict = "merge" }, wantErr: "parse.name_conflict"},
		{name: "bad format", modify: func(c *Config) { c.Export.Format = "ods" }, wantErr: "export.format"},
		{name: "negative debounce", modify: func(c *Config) { c.Watch.Debounce = -time.Second }, wantErr: "watch.debounce"},
		{name: "bad pattern", modify: func(c *Config) { c.Watch.Pattern = "[" }, wantErr: "watch.pattern"},
		{name: "upper-case level", modify: func(c *Config) { c.LogLevel = "DEBUG" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestGetHome(t *testing.T) {
	home := filepath.Join(t.TempDir(), "mpchome")
	t.Setenv(HomeEnv, home)

	got, err := GetHome()
	if err != nil {
		t.Fatalf("GetHome() error = %v", err)
	}
	if got != home {
		t.Errorf("GetHome() = %q, want %q", got, home)
	}
	if info, err := os.Stat(home); err != nil || !info.IsDir() {
		t.Errorf("home directory not created: %v", err)
	}

	cfg := DefaultConfig()
	storePath, err := cfg.GetStorePath()
	if err != nil {
		t.Fatalf("GetStorePath() error = %v", err)
	}
	if storePath != filepath.Join(home, "sessions.db") {
		t.Errorf("GetStorePath() = %q", storePath)
	}

	logDir, err := cfg.GetLogDir()
	if err != nil {
		t.Fatalf("GetLogDir() error = %v", err)
	}
	if logDir != filepath.Join(home, "logs") {
		t.Errorf("GetLogDir() = %q", logDir)
	}

	cfg.Store.DBPath = "/custom/catalog.db"
	if p, _ := cfg.GetStorePath(); p != "/custom/catalog.db" {
		t.Errorf("GetStorePath() with db_path = %q", p)
	}
}
