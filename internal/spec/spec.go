// SPDX-License-Identifier: MPL-2.0

// Package spec parses a caller-supplied package specification string into a
// classified, immutable PackageSpec. Classification order is deterministic:
// version-control prefix first, then well-known raw-file hosts, then
// filesystem paths, then the editable marker, with anything unmatched
// defaulting to a registry package.
package spec

import (
	"errors"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// Kind constants for PackageSpec.Kind.
const (
	// KindRegistry is a PyPI package name, optionally with extras and a
	// version constraint ("mcp-server-fetch", "example-pkg==1.2.0").
	KindRegistry Kind = "registry"
	// KindVersionControl is a git+ URL, optionally with a ref fragment.
	KindVersionControl Kind = "version-control"
	// KindRawFile is a single server file hosted on a known forge
	// (github blob/raw, gitlab raw, bitbucket raw).
	KindRawFile Kind = "raw-file"
	// KindLocalPath is an absolute or relative filesystem path, or a bare
	// .py filename.
	KindLocalPath Kind = "local-path"
	// KindEditable is a local path behind the "-e " editable marker.
	KindEditable Kind = "editable"
)

// ErrEmptySpec is returned by Parse for an empty or blank specification.
// An empty reference is the one parse-time failure that is fatal; every
// other oddity degrades to a best-effort classification.
var ErrEmptySpec = errors.New("empty package specification")

type (
	// Kind classifies what a package specification refers to.
	Kind string

	// PackageSpec is the parsed form of the first positional argument.
	// It is immutable once parsed; exactly one is created per invocation.
	PackageSpec struct {
		// Raw is the specification exactly as supplied by the caller.
		Raw string
		// Kind is the classified specification kind.
		Kind Kind
		// Name is the canonical package name (version constraints, extras,
		// refs and VCS suffixes stripped).
		Name string
		// VersionConstraint is the trailing constraint of a registry spec
		// ("==1.2.0", ">=2.0"), empty when absent.
		VersionConstraint string
		// Ref is the branch/tag/commit fragment of a version-control spec,
		// empty when absent.
		Ref string
		// Executable is the inferred in-package entry point. When it
		// differs from Name the runner must be invoked in the two-part
		// --from form; see TwoPartForm.
		Executable string
		// Path is the local filesystem path for local and editable kinds.
		// For raw files it is empty at parse time; the fetch step derives
		// a copy carrying the materialized payload path via WithPath.
		Path string
	}
)

// vcsBuildTagPattern matches a repository name carrying a disambiguating
// build tag: a short alphabetic code followed by exactly 8 digits
// ("test-server-ab12345678"). The tag is not part of the program's real
// command name and is stripped during executable inference.
var vcsBuildTagPattern = regexp.MustCompile(`^(.+)-[a-z]{1,4}[0-9]{8}$`)

// rawFileHosts are URL prefixes recognized as raw-file hosting, checked
// after the git+ prefix so "git+https://github.com/..." stays VCS.
var rawFileHosts = []string{
	"https://github.com/",
	"http://github.com/",
	"https://raw.githubusercontent.com/",
	"https://gitlab.com/",
	"http://gitlab.com/",
	"https://bitbucket.org/",
	"http://bitbucket.org/",
}

// Parse classifies raw and derives the canonical name and, when possible,
// the entry-point executable. The only fatal condition is a blank input;
// failed executable inference is soft and leaves Executable equal to Name.
func Parse(raw string) (*PackageSpec, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, ErrEmptySpec
	}

	s := &PackageSpec{Raw: trimmed}

	switch {
	case strings.HasPrefix(trimmed, "git+"):
		s.Kind = KindVersionControl
		parseVersionControl(s, trimmed)
	case isRawFileURL(trimmed):
		s.Kind = KindRawFile
		parseRawFile(s, trimmed)
	case isLocalPath(trimmed):
		s.Kind = KindLocalPath
		s.Path = trimmed
		s.Name = pathStem(trimmed)
		s.Executable = s.Name
	case strings.HasPrefix(trimmed, "-e ") || strings.HasPrefix(trimmed, "-e\t"):
		s.Kind = KindEditable
		s.Path = strings.TrimSpace(trimmed[2:])
		s.Name = pathStem(s.Path)
		s.Executable = s.Name
	default:
		s.Kind = KindRegistry
		parseRegistry(s, trimmed)
	}

	return s, nil
}

// TwoPartForm reports whether the runner must be invoked in the explicit
// two-part form (runner --from <spec> <executable>). Required whenever the
// inferred executable differs from the package's own name, and always for
// local and editable kinds where the spec argument is a path.
func (s *PackageSpec) TwoPartForm() bool {
	switch s.Kind {
	case KindLocalPath, KindEditable:
		return !s.IsScriptFile()
	default:
		return s.Executable != "" && s.Executable != s.Name
	}
}

// WithPath returns a copy of the spec carrying the given payload path.
// The receiver is left untouched.
func (s *PackageSpec) WithPath(path string) *PackageSpec {
	out := *s
	out.Path = path
	return &out
}

// IsScriptFile reports whether the spec points at a single server file
// rather than an installable package. Script files are launched in the
// runner's script mode instead of the package forms.
func (s *PackageSpec) IsScriptFile() bool {
	switch s.Kind {
	case KindRawFile:
		return true
	case KindLocalPath, KindEditable:
		return strings.HasSuffix(s.Path, ".py")
	default:
		return false
	}
}

func isRawFileURL(raw string) bool {
	for _, prefix := range rawFileHosts {
		if strings.HasPrefix(raw, prefix) {
			return true
		}
	}
	return false
}

func isLocalPath(raw string) bool {
	return strings.HasPrefix(raw, "/") ||
		strings.HasPrefix(raw, "./") ||
		strings.HasPrefix(raw, "../") ||
		strings.HasSuffix(raw, ".py")
}

// parseRegistry splits a registry spec into name and version constraint.
// Extras ("pkg[extra1,extra2]") are stripped from the name first, then the
// constraint begins at the first comparison operator character.
func parseRegistry(s *PackageSpec, raw string) {
	name := raw
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	if i := strings.IndexAny(name, "><=!~"); i >= 0 {
		s.VersionConstraint = strings.TrimSpace(name[i:])
		name = name[:i]
	} else if i := strings.IndexAny(raw, "><=!~"); i >= 0 {
		// Constraint after the extras bracket: "pkg[extra]==1.0".
		s.VersionConstraint = strings.TrimSpace(raw[i:])
	}
	s.Name = strings.TrimSpace(name)
	s.Executable = s.Name
}

// parseVersionControl derives the repository base name, the optional ref,
// and the inferred executable from a git+ URL.
func parseVersionControl(s *PackageSpec, raw string) {
	ref := ""
	rest := strings.TrimPrefix(raw, "git+")
	if i := strings.IndexByte(rest, '#'); i >= 0 {
		ref = rest[i+1:]
		rest = rest[:i]
	}

	base := path.Base(rest)
	// pip-style rev pinning: ...repo.git@v1.2.0
	if i := strings.LastIndexByte(base, '@'); i >= 0 {
		if ref == "" {
			ref = base[i+1:]
		}
		base = base[:i]
	}
	base = strings.TrimSuffix(base, ".git")

	s.Name = base
	s.Ref = ref
	s.Executable = base
	// Repository names sometimes carry a disambiguating build tag that is
	// not part of the real command name; strip it when present.
	if m := vcsBuildTagPattern.FindStringSubmatch(base); m != nil {
		s.Executable = m[1]
	}
}

// parseRawFile derives the server name from the hosted file's stem, with
// underscores normalized to hyphens ("my_server.py" -> "my-server").
func parseRawFile(s *PackageSpec, raw string) {
	base := path.Base(raw)
	if i := strings.IndexAny(base, "?#"); i >= 0 {
		base = base[:i]
	}
	stem := strings.TrimSuffix(base, path.Ext(base))
	s.Name = strings.ReplaceAll(stem, "_", "-")
	s.Executable = s.Name
}

// pathStem returns the final path element without its extension.
func pathStem(p string) string {
	base := filepath.Base(p)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
