// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"slices"
	"testing"
)

func TestBuildEnv_Overlay(t *testing.T) {
	t.Parallel()

	base := []string{"PATH=/usr/bin", "HTTPS_PROXY=http://proxy:3128", "LANG=en_US.UTF-8"}
	env := BuildEnv(base, EnvOptions{CacheRoot: "/tmp/cache"})

	for _, want := range []string{
		"PATH=/usr/bin",
		"HTTPS_PROXY=http://proxy:3128",
		"PYTHONUNBUFFERED=1",
		"PYTHONIOENCODING=utf-8",
		"LC_ALL=C.UTF-8",
		"LANG=C.UTF-8",
		"UV_CACHE_DIR=/tmp/cache/uv-cache",
	} {
		if !slices.Contains(env, want) {
			t.Errorf("env missing %q", want)
		}
	}
	if slices.Contains(env, "LANG=en_US.UTF-8") {
		t.Error("inherited LANG must be replaced, not duplicated")
	}
	if slices.Contains(env, "RUST_LOG=uv=debug") {
		t.Error("RUST_LOG must only be set in debug mode")
	}
}

func TestBuildEnv_Debug(t *testing.T) {
	t.Parallel()

	env := BuildEnv(nil, EnvOptions{Debug: true})
	if !slices.Contains(env, "RUST_LOG=uv=debug") {
		t.Error("debug mode must enable runner diagnostics")
	}
}

func TestBuildEnv_NoCacheRoot(t *testing.T) {
	t.Parallel()

	for _, kv := range BuildEnv(nil, EnvOptions{}) {
		if kv == "UV_CACHE_DIR=" {
			t.Error("empty cache root must not produce an empty UV_CACHE_DIR")
		}
	}
}

func TestBuildEnv_DoesNotMutateBase(t *testing.T) {
	t.Parallel()

	base := []string{"LANG=en_US.UTF-8"}
	_ = BuildEnv(base, EnvOptions{})
	if base[0] != "LANG=en_US.UTF-8" {
		t.Errorf("base mutated: %q", base[0])
	}
}

func TestWorkdir_NeverEmpty(t *testing.T) {
	if Workdir() == "" {
		t.Error("Workdir must always return a usable directory")
	}
}
