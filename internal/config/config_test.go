// SPDX-License-Identifier: MPL-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.MaxArtifactAge != DefaultMaxArtifactAge {
		t.Errorf("MaxArtifactAge = %v, want %v", cfg.MaxArtifactAge, DefaultMaxArtifactAge)
	}
	if cfg.InstallRetries != DefaultInstallRetries {
		t.Errorf("InstallRetries = %d, want %d", cfg.InstallRetries, DefaultInstallRetries)
	}
	if cfg.CacheDir == "" {
		t.Error("CacheDir should always resolve to something")
	}
	if cfg.NoCache || cfg.ForceRefresh || cfg.Debug {
		t.Error("boolean toggles should default to false")
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.cue")
	content := `
cache_dir: "/opt/mcpboot-cache"
base_url: "https://mirror.example.com/uv"
max_age_hours: 6
install_retries: 5
debug: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.CacheDir != "/opt/mcpboot-cache" {
		t.Errorf("CacheDir = %q", cfg.CacheDir)
	}
	if cfg.BaseURL != "https://mirror.example.com/uv" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.MaxArtifactAge != 6*time.Hour {
		t.Errorf("MaxArtifactAge = %v", cfg.MaxArtifactAge)
	}
	if cfg.InstallRetries != 5 {
		t.Errorf("InstallRetries = %d", cfg.InstallRetries)
	}
	if !cfg.Debug {
		t.Error("Debug should be true")
	}
}

func TestLoad_ConfigFileSchemaViolation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.cue")
	if err := os.WriteFile(path, []byte(`max_age_hours: 9999`), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected schema violation error")
	}
	if !strings.Contains(err.Error(), "max_age_hours") {
		t.Errorf("error should name the offending field: %v", err)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.cue")); err == nil {
		t.Fatal("explicitly named config file must exist")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MCPBOOT_CACHE_DIR", "/env/cache")
	t.Setenv("MCPBOOT_BASE_URL", "https://env.example.com/uv")
	t.Setenv("MCPBOOT_NO_CACHE", "1")
	t.Setenv("MCPBOOT_FORCE_REFRESH", "true")
	t.Setenv("MCPBOOT_DEBUG", "1")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.CacheDir != "/env/cache" {
		t.Errorf("CacheDir = %q, want env override", cfg.CacheDir)
	}
	if cfg.BaseURL != "https://env.example.com/uv" {
		t.Errorf("BaseURL = %q, want env override", cfg.BaseURL)
	}
	if !cfg.NoCache || !cfg.ForceRefresh || !cfg.Debug {
		t.Errorf("env toggles not applied: %+v", cfg)
	}
}

func TestLoad_EnvBeatsConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.cue")
	if err := os.WriteFile(path, []byte(`cache_dir: "/from/file"`), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MCPBOOT_CACHE_DIR", "/from/env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.CacheDir != "/from/env" {
		t.Errorf("CacheDir = %q, env must beat the config file", cfg.CacheDir)
	}
}
