// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/mcpboot/mcpboot/internal/botlog"
	"github.com/mcpboot/mcpboot/internal/resolver"
	"github.com/mcpboot/mcpboot/internal/spec"
)

func mustParse(t *testing.T, raw string) *spec.PackageSpec {
	t.Helper()
	pkg, err := spec.Parse(raw)
	if err != nil {
		t.Fatalf("Parse(%q): %v", raw, err)
	}
	return pkg
}

func TestBuildInvocation(t *testing.T) {
	t.Parallel()

	uvx := &resolver.RunnerHandle{Path: "/opt/uv/uvx", Tool: resolver.ToolUVX}
	uv := &resolver.RunnerHandle{Path: "/opt/uv/uv", Tool: resolver.ToolUV}

	tests := []struct {
		name     string
		handle   *resolver.RunnerHandle
		raw      string
		fromExe  string
		args     []string
		wantPath string
		wantArgs []string
	}{
		{
			name:     "registry single form",
			handle:   uvx,
			raw:      "mcp-server-web",
			wantPath: "/opt/uv/uvx",
			wantArgs: []string{"mcp-server-web"},
		},
		{
			name:     "registry with constraint keeps raw spec",
			handle:   uvx,
			raw:      "example-pkg==1.2.0",
			args:     []string{"--port", "8080"},
			wantPath: "/opt/uv/uvx",
			wantArgs: []string{"example-pkg==1.2.0", "--port", "8080"},
		},
		{
			name:     "uv handle gets tool run injected",
			handle:   uv,
			raw:      "mcp-server-web",
			wantPath: "/opt/uv/uv",
			wantArgs: []string{"tool", "run", "mcp-server-web"},
		},
		{
			name:     "git spec with build tag uses two-part form",
			handle:   uvx,
			raw:      "git+https://example.com/user/test-server-ab12345678.git",
			wantPath: "/opt/uv/uvx",
			wantArgs: []string{"--from", "git+https://example.com/user/test-server-ab12345678.git", "test-server"},
		},
		{
			name:     "explicit executable override forces two-part form",
			handle:   uvx,
			raw:      "mcp-server-web",
			fromExe:  "web-server",
			wantPath: "/opt/uv/uvx",
			wantArgs: []string{"--from", "mcp-server-web", "web-server"},
		},
		{
			name:     "local python file runs in script mode",
			handle:   uv,
			raw:      "./servers/my_server.py",
			args:     []string{"--verbose"},
			wantPath: "/opt/uv/uv",
			wantArgs: []string{"run", "./servers/my_server.py", "--verbose"},
		},
		{
			name:     "script mode on a uvx handle uses the sibling uv",
			handle:   uvx,
			raw:      "/srv/app.py",
			wantPath: filepath.Join("/opt/uv", "uv"),
			wantArgs: []string{"run", "/srv/app.py"},
		},
		{
			name:     "editable package uses two-part form",
			handle:   uvx,
			raw:      "-e /home/dev/my-server",
			wantPath: "/opt/uv/uvx",
			wantArgs: []string{"--from", "/home/dev/my-server", "my-server"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			pkg := mustParse(t, tt.raw)
			inv := BuildInvocation(tt.handle, pkg, tt.fromExe, tt.args, []string{"PATH=/usr/bin"}, "/home/user")
			if inv.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", inv.Path, tt.wantPath)
			}
			if !slices.Equal(inv.Args, tt.wantArgs) {
				t.Errorf("Args = %q, want %q", inv.Args, tt.wantArgs)
			}
			if inv.Dir != "/home/user" {
				t.Errorf("Dir = %q", inv.Dir)
			}
		})
	}
}

func TestBuildInvocation_RawFileUsesCachePayload(t *testing.T) {
	t.Parallel()

	pkg := mustParse(t, "https://github.com/u/r/blob/main/my_server.py").WithPath("/cache/my-server.py")

	inv := BuildInvocation(&resolver.RunnerHandle{Path: "/opt/uv/uv", Tool: resolver.ToolUV}, pkg, "", nil, nil, "")
	want := []string{"run", "/cache/my-server.py"}
	if !slices.Equal(inv.Args, want) {
		t.Errorf("Args = %q, want %q", inv.Args, want)
	}
}

func TestInvocationValidate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bin := filepath.Join(dir, "uvx")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	plain := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(plain, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"executable file", bin, false},
		{"missing file", filepath.Join(dir, "gone"), true},
		{"directory", dir, true},
		{"non-executable file", plain, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Invocation{Path: tt.path}.Validate()
			if tt.wantErr && !errors.Is(err, ErrNotExecutable) {
				t.Errorf("error = %v, want ErrNotExecutable", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestSpawnAndMonitor(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("no sh available")
	}

	t.Run("propagates child exit code", func(t *testing.T) {
		inv := Invocation{Path: sh, Args: []string{"-c", "exit 3"}, Env: os.Environ(), Dir: t.TempDir()}
		code, err := SpawnAndMonitor(context.Background(), botlog.Discard(), inv, time.Minute)
		if code != 3 {
			t.Errorf("exit code = %d, want 3", code)
		}
		if !errors.Is(err, ErrDownstream) {
			t.Errorf("error = %v, want ErrDownstream", err)
		}
	})

	t.Run("clean exit", func(t *testing.T) {
		inv := Invocation{Path: sh, Args: []string{"-c", "true"}, Env: os.Environ(), Dir: t.TempDir()}
		code, err := SpawnAndMonitor(context.Background(), botlog.Discard(), inv, time.Minute)
		if code != 0 || err != nil {
			t.Errorf("got (%d, %v), want (0, nil)", code, err)
		}
	})

	t.Run("unusable binary reports unavailable", func(t *testing.T) {
		inv := Invocation{Path: filepath.Join(t.TempDir(), "gone")}
		code, err := SpawnAndMonitor(context.Background(), botlog.Discard(), inv, time.Minute)
		if code != ExitUnavailable {
			t.Errorf("exit code = %d, want %d", code, ExitUnavailable)
		}
		if !errors.Is(err, ErrNotExecutable) {
			t.Errorf("error = %v, want ErrNotExecutable", err)
		}
	})
}
