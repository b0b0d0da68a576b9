// SPDX-License-Identifier: MPL-2.0

// Package config loads the engine configuration: built-in defaults, an
// optional CUE config file validated against an embedded schema, and
// MCPBOOT_* environment overrides, in that precedence order. The result is
// an immutable Config value threaded explicitly through every component;
// nothing downstream reads ambient process state.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"

	"github.com/mcpboot/mcpboot/internal/cueutil"
	"github.com/mcpboot/mcpboot/internal/issue"
)

const (
	// AppName is the application name, used for platform directory layout.
	AppName = "mcpboot"
	// ConfigFileName is the optional config file under the config dir.
	ConfigFileName = "config.cue"

	// DefaultBaseURL is the installer download base. The install script is
	// fetched from <base>/install.sh.
	DefaultBaseURL = "https://astral.sh/uv"

	// DefaultMaxArtifactAge is the cache freshness threshold.
	DefaultMaxArtifactAge = 24 * time.Hour
	// DefaultInstallRetries bounds tier-3 install attempts.
	DefaultInstallRetries = 3
	// DefaultRetryDelay is the fixed delay between install retries.
	// No backoff: the retry budget is small and bounded.
	DefaultRetryDelay = 2 * time.Second
	// DefaultProbeTimeout bounds each runner verification probe.
	DefaultProbeTimeout = 10 * time.Second
)

//go:embed config_schema.cue
var configSchema []byte

// Config is the effective engine configuration for one invocation.
type Config struct {
	// CacheDir is the user-scoped cache root holding downloaded artifacts,
	// the isolated runner install, and the decision log.
	CacheDir string
	// BaseURL is the remote-source base for the installer download.
	BaseURL string
	// NoCache disables artifact reuse.
	NoCache bool
	// ForceRefresh marks every cached artifact stale.
	ForceRefresh bool
	// Debug widens diagnostic verbosity (engine log level and RUST_LOG for
	// the launched runner).
	Debug bool

	// MaxArtifactAge is the freshness threshold for cached artifacts.
	MaxArtifactAge time.Duration
	// InstallRetries bounds tier-3 download-and-install attempts.
	InstallRetries int
	// RetryDelay is the fixed delay between install retries.
	RetryDelay time.Duration
	// ProbeTimeout bounds each verification probe invocation.
	ProbeTimeout time.Duration
}

// Default returns the built-in configuration with the platform cache dir.
func Default() Config {
	return Config{
		CacheDir:       defaultCacheDir(),
		BaseURL:        DefaultBaseURL,
		MaxArtifactAge: DefaultMaxArtifactAge,
		InstallRetries: DefaultInstallRetries,
		RetryDelay:     DefaultRetryDelay,
		ProbeTimeout:   DefaultProbeTimeout,
	}
}

// Load builds the effective configuration. configPath, when non-empty,
// names an explicit config file that must exist; otherwise the default
// location is tried and silently skipped when absent.
func Load(configPath string) (Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("cache_dir", def.CacheDir)
	v.SetDefault("base_url", def.BaseURL)
	v.SetDefault("max_age_hours", int(def.MaxArtifactAge.Hours()))
	v.SetDefault("install_retries", def.InstallRetries)
	v.SetDefault("retry_delay_seconds", int(def.RetryDelay.Seconds()))
	v.SetDefault("probe_timeout_seconds", int(def.ProbeTimeout.Seconds()))
	v.SetDefault("debug", false)
	v.SetDefault("no_cache", false)
	v.SetDefault("force_refresh", false)

	path := configPath
	if path == "" {
		if dir, err := configDir(); err == nil {
			candidate := filepath.Join(dir, ConfigFileName)
			if fileExists(candidate) {
				path = candidate
			}
		}
	} else if !fileExists(path) {
		return Config{}, issue.NewContext().
			Operation("load configuration").
			Resource(path).
			Suggest("verify the file path is correct").
			Suggest("run 'mcpboot config show' to see the effective defaults").
			Wrap(fmt.Errorf("config file not found"))
	}
	if path != "" {
		if err := mergeCUEFile(v, path); err != nil {
			return Config{}, issue.NewContext().
				Operation("load configuration").
				Resource(path).
				Suggest("check that the file contains valid CUE syntax").
				Suggest("verify the values match the schema in 'mcpboot config show --schema'").
				Wrap(err)
		}
	}

	// Environment overrides, highest precedence.
	v.SetEnvPrefix("MCPBOOT")
	for _, key := range []string{"cache_dir", "base_url", "no_cache", "force_refresh", "debug"} {
		// BindEnv error only fires for an empty key; keys here are fixed.
		_ = v.BindEnv(key)
	}

	// Read through viper's cast layer so env-provided strings ("1", "true")
	// coerce cleanly into bools and ints.
	cfg := Config{
		CacheDir:       v.GetString("cache_dir"),
		BaseURL:        v.GetString("base_url"),
		NoCache:        v.GetBool("no_cache"),
		ForceRefresh:   v.GetBool("force_refresh"),
		Debug:          v.GetBool("debug"),
		MaxArtifactAge: time.Duration(v.GetInt("max_age_hours")) * time.Hour,
		InstallRetries: v.GetInt("install_retries"),
		RetryDelay:     time.Duration(v.GetInt("retry_delay_seconds")) * time.Second,
		ProbeTimeout:   time.Duration(v.GetInt("probe_timeout_seconds")) * time.Second,
	}

	return cfg, nil
}

// mergeCUEFile validates path against the #Config schema and merges the
// concrete fields into viper below the env-override layer.
func mergeCUEFile(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	fields, err := cueutil.Decode[map[string]any](configSchema, data, "#Config", path)
	if err != nil {
		return err
	}
	return v.MergeConfigMap(*fields)
}

// configDir returns the mcpboot configuration directory using platform
// conventions: %APPDATA% on Windows, ~/Library/Application Support on
// macOS, $XDG_CONFIG_HOME (default ~/.config) elsewhere.
func configDir() (string, error) {
	var base string

	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		base = filepath.Join(home, "Library", "Application Support")
	default:
		base = os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("resolving home directory: %w", err)
			}
			base = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(base, AppName), nil
}

// defaultCacheDir returns the platform cache directory for mcpboot:
// %LOCALAPPDATA% on Windows, ~/Library/Caches on macOS, $XDG_CACHE_HOME
// (default ~/.cache) elsewhere. Falls back to a temp-dir location when the
// home directory cannot be resolved.
func defaultCacheDir() string {
	switch runtime.GOOS {
	case "windows":
		if base := os.Getenv("LOCALAPPDATA"); base != "" {
			return filepath.Join(base, AppName, "cache")
		}
	case "darwin":
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, "Library", "Caches", AppName)
		}
	default:
		if base := os.Getenv("XDG_CACHE_HOME"); base != "" {
			return filepath.Join(base, AppName)
		}
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, ".cache", AppName)
		}
	}
	return filepath.Join(os.TempDir(), AppName+"-cache")
}

// Schema returns the embedded CUE schema text.
func Schema() []byte {
	return configSchema
}

// FilePath returns the default config file location, whether or not the
// file exists.
func FilePath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
