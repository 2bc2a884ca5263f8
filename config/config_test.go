package config

import (
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/kbukum/spikekit/logger"
)

type detectorSection struct {
	Algorithm     string   `mapstructure:"algorithm"`
	MinPeakHeight *float64 `mapstructure:"min_peak_height"`
}

type testConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Detector      detectorSection `yaml:"detector" mapstructure:"detector"`
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
		if cfg.Logging.Level != "info" {
			t.Errorf("expected logging defaults, got level %q", cfg.Logging.Level)
		}
	})

	t.Run("production environment keeps debug false", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	valid := logger.Config{Level: "info", Format: "json"}

	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr bool
		errMsg  string
	}{
		{"valid development", ServiceConfig{Name: "svc", Environment: "development", Logging: valid}, false, ""},
		{"valid production", ServiceConfig{Name: "svc", Environment: "production", Logging: valid}, false, ""},
		{"missing name", ServiceConfig{Environment: "production", Logging: valid}, true, "config.name: is required"},
		{"invalid environment", ServiceConfig{Name: "svc", Environment: "invalid", Logging: valid}, true, "config.environment: must be one of"},
		{"invalid logging", ServiceConfig{Name: "svc", Environment: "staging", Logging: logger.Config{Level: "loud", Format: "json"}}, true, "config.logging"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), tc.errMsg) {
					t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := writeFile(t, dir, "config.yml", `
name: spikes
environment: staging
logging:
  level: warn
detector:
  algorithm: distance
  min_peak_height: 2.5
`)

	var cfg testConfig
	if err := LoadConfig("spikes", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Name != "spikes" || cfg.Environment != "staging" {
		t.Errorf("unexpected service section: %+v", cfg.ServiceConfig)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected logging.level 'warn', got %q", cfg.Logging.Level)
	}
	if cfg.Detector.Algorithm != "distance" {
		t.Errorf("expected detector.algorithm 'distance', got %q", cfg.Detector.Algorithm)
	}
	if cfg.Detector.MinPeakHeight == nil || *cfg.Detector.MinPeakHeight != 2.5 {
		t.Errorf("expected detector.min_peak_height 2.5, got %v", cfg.Detector.MinPeakHeight)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg testConfig
	// With no config file found, LoadConfig should still succeed (just empty config)
	err := LoadConfig("nonexistent-service", &cfg, WithConfigFile("/nonexistent/path.yml"))
	if err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
	if cfg.Detector.MinPeakHeight != nil {
		t.Error("unset keys should stay nil")
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	configPath := writeFile(t, dir, "config.yml", `
name: spikes
logging:
  level: info
detector:
  algorithm: distance
`)
	t.Setenv("LOGGING_LEVEL", "warn")
	t.Setenv("DETECTOR_ALGORITHM", "threshold")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "error", "")
	flags.String("algorithm", "default", "")
	flags.Float64("min-peak-height", 0, "")
	if err := flags.Parse([]string{"--log-level=debug", "--min-peak-height=4"}); err != nil {
		t.Fatalf("flag parse: %v", err)
	}
	keys := map[string]string{
		"log-level":       "logging.level",
		"algorithm":       "detector.algorithm",
		"min-peak-height": "detector.min_peak_height",
	}

	var cfg testConfig
	err := LoadConfig("spikes", &cfg,
		WithConfigFile(configPath),
		WithFlags(flags, keys),
		WithDefaults(map[string]any{"environment": "production"}),
	)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("set flag should win over env: got %q", cfg.Logging.Level)
	}
	if cfg.Detector.Algorithm != "threshold" {
		t.Errorf("env should win over file and unset flag: got %q", cfg.Detector.Algorithm)
	}
	if cfg.Detector.MinPeakHeight == nil || *cfg.Detector.MinPeakHeight != 4 {
		t.Errorf("expected min_peak_height 4 from flag, got %v", cfg.Detector.MinPeakHeight)
	}
	if cfg.Environment != "production" {
		t.Errorf("expected default environment, got %q", cfg.Environment)
	}
}

func TestLoadConfigEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := writeFile(t, dir, ".env", "SPIKES_ENV_MARKER=from-dotenv\n")
	t.Cleanup(func() { os.Unsetenv("SPIKES_ENV_MARKER") })

	type dotenvConfig struct {
		Spikes struct {
			Env struct {
				Marker string `mapstructure:"marker"`
			} `mapstructure:"env"`
		} `mapstructure:"spikes"`
	}

	var cfg dotenvConfig
	if err := LoadConfig("spikes", &cfg, WithConfigFile("/nonexistent.yml"), WithEnvFile(envPath)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Spikes.Env.Marker != "from-dotenv" {
		t.Errorf("expected value from .env, got %q", cfg.Spikes.Env.Marker)
	}
}

func TestResolver_SearchOrder(t *testing.T) {
	tests := []struct {
		name       string
		files      []string
		wantConfig string
		wantEnv    string
	}{
		{"nothing found", nil, "", ""},
		{"service file in cwd", []string{"spikes.yml", "config/config.yml"}, "spikes.yml", ""},
		{"yaml extension", []string{"spikes.yaml", "config.yml"}, "spikes.yaml", ""},
		{"config dir", []string{"config/config.yml", ".env"}, "config/config.yml", ".env"},
		{"user config dir", []string{"/home/u/.config/spikes/config.yml"}, "/home/u/.config/spikes/config.yml", ""},
		{"service env first", []string{".env", ".env.spikes"}, "", ".env.spikes"},
		{"env in config dir", []string{"config/.env"}, "", "config/.env"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fs := newMockFS(tc.files...)
			got := (&Resolver{FileSystem: fs}).ResolveFiles("spikes", LoaderConfig{})
			if got.ConfigFile != tc.wantConfig || got.EnvFile != tc.wantEnv {
				t.Errorf("ResolveFiles() = %+v, want config %q env %q", got, tc.wantConfig, tc.wantEnv)
			}
		})
	}
}

func TestResolver_ExplicitPathsWin(t *testing.T) {
	fs := newMockFS("spikes.yml", ".env")
	got := (&Resolver{FileSystem: fs}).ResolveFiles("spikes", LoaderConfig{ConfigFile: "/etc/spikes.yml", EnvFile: "/etc/spikes.env"})
	if got.ConfigFile != "/etc/spikes.yml" || got.EnvFile != "/etc/spikes.env" {
		t.Errorf("explicit paths should win, got %+v", got)
	}
}

func TestResolver_NoUserConfigDir(t *testing.T) {
	fs := newMockFS("/home/u/.config/spikes/config.yml")
	fs.noHome = true
	if got := (&Resolver{FileSystem: fs}).ResolveFiles("spikes", LoaderConfig{}); got.ConfigFile != "" {
		t.Errorf("expected the user config dir to be skipped, got %q", got.ConfigFile)
	}
}

type mockFS struct {
	files  map[string]bool
	noHome bool
	loaded []string
}

func newMockFS(paths ...string) *mockFS {
	m := &mockFS{files: make(map[string]bool)}
	for _, p := range paths {
		m.files[p] = true
	}
	return m
}

func (m *mockFS) Exists(path string) bool { return m.files[path] }

func (m *mockFS) LoadEnv(path string) error {
	m.loaded = append(m.loaded, path)
	return nil
}

func (m *mockFS) UserConfigDir() (string, error) {
	if m.noHome {
		return "", os.ErrNotExist
	}
	return "/home/u/.config", nil
}

func TestLoadConfig_UsesFileSystemForEnv(t *testing.T) {
	fs := newMockFS(".env.spikes")
	var cfg testConfig
	if err := LoadConfig("spikes", &cfg, WithFileSystem(fs)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if len(fs.loaded) != 1 || fs.loaded[0] != ".env.spikes" {
		t.Errorf("expected .env.spikes to be loaded, got %v", fs.loaded)
	}
}

func TestStructKeys(t *testing.T) {
	got := structKeys(reflect.TypeOf(&testConfig{}), "")
	want := []string{
		"name", "environment", "version", "debug",
		"logging.level", "logging.format", "logging.output",
		"logging.no_color", "logging.timestamp", "logging.caller",
		"detector.algorithm", "detector.min_peak_height",
	}
	if !slices.Equal(got, want) {
		t.Errorf("structKeys() = %v\nwant %v", got, want)
	}
}

func TestLoaderOptions(t *testing.T) {
	var lc LoaderConfig
	fs := &mockFS{}
	flags := pflag.NewFlagSet("x", pflag.ContinueOnError)

	for _, opt := range []LoaderOption{
		WithFileSystem(fs),
		WithConfigFile("/path/to/config.yml"),
		WithEnvFile("/path/to/.env"),
		WithFlags(flags, map[string]string{"a": "b"}),
		WithDefaults(map[string]any{"k": 1}),
	} {
		opt(&lc)
	}

	if lc.FileSystem == nil || lc.ConfigFile != "/path/to/config.yml" || lc.EnvFile != "/path/to/.env" {
		t.Errorf("file options not applied: %+v", lc)
	}
	if lc.Flags != flags || lc.FlagKeys["a"] != "b" || lc.Defaults["k"] != 1 {
		t.Errorf("flag/default options not applied: %+v", lc)
	}
}
