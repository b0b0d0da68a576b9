// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"os"
	"strings"

	"github.com/mcpboot/mcpboot/internal/cache"
)

// EnvOptions selects the overlay applied on top of the inherited environment.
type EnvOptions struct {
	// CacheRoot is the engine cache directory. When set, the runner's own
	// package cache is pinned under it.
	CacheRoot string
	// Debug turns on verbose runner diagnostics.
	Debug bool
}

// BuildEnv returns the child environment: the inherited base with the
// launch overlay applied on top. The base is never replaced, so credential,
// proxy and locale-adjacent variables pass through untouched. Overlay keys
// win over inherited values.
func BuildEnv(base []string, opts EnvOptions) []string {
	env := make([]string, len(base))
	copy(env, base)

	// Unbuffered UTF-8 stdio keeps the JSON-RPC framing intact even on
	// hosts with a minimal or legacy locale.
	env = setEnv(env, "PYTHONUNBUFFERED", "1")
	env = setEnv(env, "PYTHONIOENCODING", "utf-8")
	env = setEnv(env, "LC_ALL", "C.UTF-8")
	env = setEnv(env, "LANG", "C.UTF-8")

	if opts.CacheRoot != "" {
		env = setEnv(env, "UV_CACHE_DIR", cache.RunnerCacheDir(opts.CacheRoot))
	}
	if opts.Debug {
		env = setEnv(env, "RUST_LOG", "uv=debug")
	}
	return env
}

// Workdir returns the directory the server process starts in. Servers are
// launched from a stable location rather than wherever the MCP host happened
// to spawn the engine.
func Workdir() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return home
	}
	return os.TempDir()
}

// setEnv replaces an existing KEY=value entry or appends a new one.
func setEnv(env []string, key, value string) []string {
	prefix := key + "="
	for i, kv := range env {
		if strings.HasPrefix(kv, prefix) {
			env[i] = prefix + value
			return env
		}
	}
	return append(env, prefix+value)
}
