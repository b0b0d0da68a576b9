// SPDX-License-Identifier: MPL-2.0

package spec

import (
	"errors"
	"testing"
)

func TestParse_KindClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want Kind
	}{
		{name: "git https", raw: "git+https://github.com/user/repo.git", want: KindVersionControl},
		{name: "git ssh", raw: "git+ssh://git@github.com/user/repo.git", want: KindVersionControl},
		{name: "git with ref fragment", raw: "git+https://github.com/user/repo.git#main", want: KindVersionControl},
		{name: "github blob url", raw: "https://github.com/user/repo/blob/main/server.py", want: KindRawFile},
		{name: "github raw url", raw: "https://raw.githubusercontent.com/user/repo/main/server.py", want: KindRawFile},
		{name: "gitlab raw url", raw: "https://gitlab.com/user/project/-/raw/main/file.py", want: KindRawFile},
		{name: "bitbucket raw url", raw: "https://bitbucket.org/user/repo/raw/main/file.py", want: KindRawFile},
		{name: "absolute path", raw: "/abs/path/to/package", want: KindLocalPath},
		{name: "relative path", raw: "./relative/path", want: KindLocalPath},
		{name: "parent-relative path", raw: "../parent/path", want: KindLocalPath},
		{name: "bare python file", raw: "server.py", want: KindLocalPath},
		{name: "editable marker", raw: "-e ./my-package", want: KindEditable},
		{name: "plain registry name", raw: "mcp-server-filesystem", want: KindRegistry},
		{name: "registry with constraint", raw: "mcp-server-database==1.2.0", want: KindRegistry},
		{name: "registry with extras", raw: "package[extra1,extra2]", want: KindRegistry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Parse(tt.raw)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.raw, err)
			}
			if got.Kind != tt.want {
				t.Errorf("Kind = %v, want %v", got.Kind, tt.want)
			}
		})
	}
}

func TestParse_EmptySpec(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "   ", "\t"} {
		if _, err := Parse(raw); !errors.Is(err, ErrEmptySpec) {
			t.Errorf("Parse(%q) error = %v, want ErrEmptySpec", raw, err)
		}
	}
}

func TestParse_Registry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		raw            string
		wantName       string
		wantConstraint string
	}{
		{name: "plain", raw: "mcp-server-filesystem", wantName: "mcp-server-filesystem"},
		{name: "exact pin", raw: "example-pkg==1.2.0", wantName: "example-pkg", wantConstraint: "==1.2.0"},
		{name: "minimum bound", raw: "some-package>=2.0.0", wantName: "some-package", wantConstraint: ">=2.0.0"},
		{name: "compatible release", raw: "pkg~=1.0", wantName: "pkg", wantConstraint: "~=1.0"},
		{name: "extras stripped", raw: "package[extra1,extra2]", wantName: "package"},
		{name: "extras with constraint", raw: "package[cli]==2.1", wantName: "package", wantConstraint: "==2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Parse(tt.raw)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.raw, err)
			}
			if got.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", got.Name, tt.wantName)
			}
			if got.VersionConstraint != tt.wantConstraint {
				t.Errorf("VersionConstraint = %q, want %q", got.VersionConstraint, tt.wantConstraint)
			}
			if got.TwoPartForm() {
				t.Error("registry spec should use the single-argument form")
			}
		})
	}
}

func TestParse_VersionControl(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      string
		wantName string
		wantExec string
		wantRef  string
		twoPart  bool
	}{
		{
			name:     "build tag stripped from executable",
			raw:      "git+https://example.com/user/test-server-ab12345678.git",
			wantName: "test-server-ab12345678",
			wantExec: "test-server",
			twoPart:  true,
		},
		{
			name:     "no build tag keeps repo name",
			raw:      "git+https://github.com/user/mcp-server-web.git",
			wantName: "mcp-server-web",
			wantExec: "mcp-server-web",
			twoPart:  false,
		},
		{
			name:     "hash ref captured",
			raw:      "git+https://github.com/user/repo.git#v1.0.0",
			wantName: "repo",
			wantExec: "repo",
			wantRef:  "v1.0.0",
			twoPart:  false,
		},
		{
			name:     "pip-style rev pin",
			raw:      "git+https://github.com/user/repo.git@deadbeef",
			wantName: "repo",
			wantExec: "repo",
			wantRef:  "deadbeef",
			twoPart:  false,
		},
		{
			name:     "ref does not disturb inference",
			raw:      "git+https://example.com/user/example-server-ab12345678.git#main",
			wantName: "example-server-ab12345678",
			wantExec: "example-server",
			wantRef:  "main",
			twoPart:  true,
		},
		{
			name:     "nine digits is not a build tag",
			raw:      "git+https://github.com/user/server-ab123456789.git",
			wantName: "server-ab123456789",
			wantExec: "server-ab123456789",
			twoPart:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Parse(tt.raw)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.raw, err)
			}
			if got.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", got.Name, tt.wantName)
			}
			if got.Executable != tt.wantExec {
				t.Errorf("Executable = %q, want %q", got.Executable, tt.wantExec)
			}
			if got.Ref != tt.wantRef {
				t.Errorf("Ref = %q, want %q", got.Ref, tt.wantRef)
			}
			if got.TwoPartForm() != tt.twoPart {
				t.Errorf("TwoPartForm() = %v, want %v", got.TwoPartForm(), tt.twoPart)
			}
		})
	}
}

func TestParse_RawFile(t *testing.T) {
	t.Parallel()

	got, err := Parse("https://github.com/user/repo/blob/main/my_server.py")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if got.Name != "my-server" {
		t.Errorf("Name = %q, want %q", got.Name, "my-server")
	}
	if !got.IsScriptFile() {
		t.Error("raw file should launch in script mode")
	}
}

func TestParse_LocalAndEditable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		raw        string
		wantName   string
		wantPath   string
		scriptFile bool
	}{
		{name: "local python file", raw: "./src/my_server.py", wantName: "my_server", wantPath: "./src/my_server.py", scriptFile: true},
		{name: "local directory", raw: "./my-package", wantName: "my-package", wantPath: "./my-package"},
		{name: "editable directory", raw: "-e ./my-package", wantName: "my-package", wantPath: "./my-package"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Parse(tt.raw)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.raw, err)
			}
			if got.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", got.Name, tt.wantName)
			}
			if got.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", got.Path, tt.wantPath)
			}
			if got.IsScriptFile() != tt.scriptFile {
				t.Errorf("IsScriptFile() = %v, want %v", got.IsScriptFile(), tt.scriptFile)
			}
		})
	}
}

func TestWithPathReturnsDerivedCopy(t *testing.T) {
	t.Parallel()

	pkg, err := Parse("https://raw.githubusercontent.com/u/r/main/my_server.py")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	derived := pkg.WithPath("/cache/my_server.py")
	if derived.Path != "/cache/my_server.py" {
		t.Errorf("derived Path = %q", derived.Path)
	}
	if pkg.Path != "" {
		t.Errorf("receiver Path mutated to %q", pkg.Path)
	}
	if derived.Raw != pkg.Raw || derived.Kind != pkg.Kind || derived.Name != pkg.Name {
		t.Errorf("derived copy diverged: %+v vs %+v", derived, pkg)
	}
}
