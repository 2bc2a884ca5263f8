package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kbukum/spikekit/logger"
)

// FileSystem is the slice of the OS the loader touches; tests swap it.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
	// UserConfigDir is os.UserConfigDir; an error skips that search root.
	UserConfigDir() (string, error)
}

// RealFileSystem is the FileSystem backed by the running process.
type RealFileSystem struct{}

func (RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadEnv exports the file's variables without overriding ones already set.
func (RealFileSystem) LoadEnv(path string) error { return godotenv.Load(path) }

func (RealFileSystem) UserConfigDir() (string, error) { return os.UserConfigDir() }

// Resolver finds the config and .env files for a service.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles holds the chosen paths; an empty path means none was found.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles keeps explicit paths from opts and searches for the rest.
//
// Config files are looked up as <service>.yml, <service>.yaml and config.yml
// in the working directory, ./config and <user config dir>/<service>, first
// match wins. Env files are .env.<service> then .env in the working
// directory and ./config.
func (r *Resolver) ResolveFiles(service string, opts LoaderConfig) ResolvedFiles {
	files := ResolvedFiles{ConfigFile: opts.ConfigFile, EnvFile: opts.EnvFile}
	if files.ConfigFile == "" {
		names := []string{service + ".yml", service + ".yaml", "config.yml"}
		files.ConfigFile = r.first(r.searchDirs(service), names)
	}
	if files.EnvFile == "" {
		files.EnvFile = r.first([]string{".", "config"}, []string{".env." + service, ".env"})
	}
	return files
}

func (r *Resolver) searchDirs(service string) []string {
	dirs := []string{".", "config"}
	if home, err := r.FileSystem.UserConfigDir(); err == nil && home != "" {
		dirs = append(dirs, filepath.Join(home, service))
	}
	return dirs
}

// first returns the first existing dir/name pair, iterating names within
// each directory before moving on.
func (r *Resolver) first(dirs, names []string) string {
	for _, dir := range dirs {
		for _, name := range names {
			if p := filepath.Join(dir, name); r.FileSystem.Exists(p) {
				return p
			}
		}
	}
	return ""
}

// LoaderConfig collects what LoadConfig was asked to do.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string

	// Flags are layered over everything else once the user sets them.
	Flags *pflag.FlagSet
	// FlagKeys maps flag names to config keys. Unmapped flags bind to their
	// name with dashes replaced by underscores.
	FlagKeys map[string]string
	// Defaults seeds keys before anything is loaded.
	Defaults map[string]any
}

type LoaderOption func(*LoaderConfig)

func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile skips the search for a config file. A missing file is
// logged and otherwise ignored.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithFlags binds a parsed flag set. keys maps flag names to config keys
// (e.g. "min-peak-height" -> "detector.min_peak_height").
func WithFlags(fs *pflag.FlagSet, keys map[string]string) LoaderOption {
	return func(lc *LoaderConfig) {
		lc.Flags = fs
		lc.FlagKeys = keys
	}
}

// WithDefaults seeds default values by config key.
func WithDefaults(defaults map[string]any) LoaderOption {
	return func(lc *LoaderConfig) { lc.Defaults = defaults }
}

// LoadConfig fills cfg, a pointer to a mapstructure-tagged struct, for the
// named service. Precedence, lowest first: flag defaults, WithDefaults,
// config file, environment (including the .env file), flags the user set.
//
// Every key cfg declares can be set from the environment by upper-casing it
// and replacing dots with underscores: detector.min_peak_height is read from
// DETECTOR_MIN_PEAK_HEIGHT.
func LoadConfig(service string, cfg any, opts ...LoaderOption) error {
	lc := LoaderConfig{FileSystem: RealFileSystem{}}
	for _, opt := range opts {
		opt(&lc)
	}
	files := (&Resolver{FileSystem: lc.FileSystem}).ResolveFiles(service, lc)

	v := viper.New()
	for key, val := range lc.Defaults {
		v.SetDefault(key, val)
	}

	if files.ConfigFile != "" {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			logger.Warn("config file not loaded", logger.Fields("file", files.ConfigFile, logger.FieldError, err.Error()))
		}
	}
	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			logger.Warn("env file not loaded", logger.Fields("file", files.EnvFile, logger.FieldError, err.Error()))
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range structKeys(reflect.TypeOf(cfg), "") {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	if lc.Flags != nil {
		var bindErr error
		lc.Flags.VisitAll(func(f *pflag.Flag) {
			if bindErr == nil {
				bindErr = v.BindPFlag(flagKey(f.Name, lc.FlagKeys), f)
			}
		})
		if bindErr != nil {
			return fmt.Errorf("binding flags for %s: %w", service, bindErr)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("decoding config for %s: %w", service, err)
	}
	return nil
}

func flagKey(name string, keys map[string]string) string {
	if k, ok := keys[name]; ok {
		return k
	}
	return strings.ReplaceAll(name, "-", "_")
}

// structKeys lists the dotted mapstructure keys of every leaf field of t.
// Squashed structs contribute their fields without a prefix.
func structKeys(t reflect.Type, prefix string) []string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var keys []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, rest, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "-" {
			continue
		}
		if strings.Contains(rest, "squash") {
			keys = append(keys, structKeys(f.Type, prefix)...)
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		key := prefix + name

		ft := f.Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct && ft.PkgPath() != "time" {
			keys = append(keys, structKeys(ft, key+".")...)
			continue
		}
		keys = append(keys, key)
	}
	return keys
}
