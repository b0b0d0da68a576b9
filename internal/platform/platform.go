// SPDX-License-Identifier: MPL-2.0

// Package platform classifies the host into a normalized (OS, arch family,
// shell family) triple. Classification is a pure function of the supplied
// inputs: unknown values degrade to explicit *Unknown constants so callers
// can still attempt a best-effort strategy, never an error.
package platform

import (
	"path/filepath"
	"runtime"
	"strings"
)

// OS family constants for Platform.OS.
const (
	OSLinux   OSFamily = "linux"
	OSDarwin  OSFamily = "darwin"
	OSWindows OSFamily = "windows"
	OSUnknown OSFamily = "unknown"
)

// Arch family constants for Platform.Arch.
const (
	ArchAMD64   ArchFamily = "amd64"
	ArchARM64   ArchFamily = "arm64"
	ArchX86     ArchFamily = "x86"
	ArchARM     ArchFamily = "arm"
	ArchUnknown ArchFamily = "unknown"
)

// Shell family constants for Platform.Shell.
const (
	// ShellPOSIX covers sh, bash, zsh, ksh and dash: anything that accepts
	// a POSIX `sh -c` invocation.
	ShellPOSIX ShellFamily = "posix"
	// ShellFish is fish, which is interactive-compatible but not POSIX.
	ShellFish ShellFamily = "fish"
	// ShellPowerShell covers both Windows PowerShell and pwsh.
	ShellPowerShell ShellFamily = "powershell"
	// ShellCmd is the legacy Windows command interpreter.
	ShellCmd ShellFamily = "cmd"
	// ShellUnknown is the degraded tag when no interpreter hint is present.
	ShellUnknown ShellFamily = "unknown"
)

type (
	// OSFamily is the normalized operating system tag.
	OSFamily string

	// ArchFamily is the normalized CPU architecture tag.
	ArchFamily string

	// ShellFamily is the active command-interpreter family, derived from
	// parent-process hints (SHELL, COMSPEC, PSModulePath).
	ShellFamily string

	// Platform is the classified host triple. It is a value type: construct
	// it once per invocation and thread it through explicitly rather than
	// re-inspecting ambient state.
	Platform struct {
		OS    OSFamily
		Arch  ArchFamily
		Shell ShellFamily
	}
)

// posixShells maps SHELL basenames to the POSIX family.
var posixShells = map[string]bool{
	"sh":   true,
	"bash": true,
	"zsh":  true,
	"ksh":  true,
	"dash": true,
	"ash":  true,
}

// String returns the triple in "os/arch/shell" form for log output.
func (p Platform) String() string {
	return string(p.OS) + "/" + string(p.Arch) + "/" + string(p.Shell)
}

// IsWindows reports whether the host is a Windows system. Process hand-off
// is unavailable there and the launcher degrades to spawn-and-wait.
func (p Platform) IsWindows() bool {
	return p.OS == OSWindows
}

// Classify inspects the current process's build target and environment and
// returns the host triple. Equivalent to ClassifyFrom(runtime.GOOS,
// runtime.GOARCH, os.Getenv-backed lookup).
func Classify(getenv func(string) string) Platform {
	return ClassifyFrom(runtime.GOOS, runtime.GOARCH, getenv)
}

// ClassifyFrom is the injectable core of Classify. goos and goarch follow
// the runtime.GOOS/GOARCH vocabulary; getenv supplies interpreter hints.
func ClassifyFrom(goos, goarch string, getenv func(string) string) Platform {
	return Platform{
		OS:    classifyOS(goos),
		Arch:  classifyArch(goarch),
		Shell: classifyShell(classifyOS(goos), getenv),
	}
}

func classifyOS(goos string) OSFamily {
	switch goos {
	case "linux":
		return OSLinux
	case "darwin":
		return OSDarwin
	case "windows":
		return OSWindows
	default:
		return OSUnknown
	}
}

func classifyArch(goarch string) ArchFamily {
	switch goarch {
	case "amd64":
		return ArchAMD64
	case "arm64":
		return ArchARM64
	case "386":
		return ArchX86
	case "arm":
		return ArchARM
	default:
		return ArchUnknown
	}
}

// classifyShell maps interpreter hints to a ShellFamily. On POSIX hosts the
// SHELL variable names the user's login shell; on Windows the presence of
// PSModulePath distinguishes PowerShell sessions from plain cmd.
func classifyShell(os OSFamily, getenv func(string) string) ShellFamily {
	if shell := getenv("SHELL"); shell != "" {
		name := strings.TrimSuffix(strings.ToLower(filepath.Base(shell)), ".exe")
		switch {
		case posixShells[name]:
			return ShellPOSIX
		case name == "fish":
			return ShellFish
		case name == "pwsh" || name == "powershell":
			return ShellPowerShell
		case name == "cmd":
			return ShellCmd
		}
	}
	if os == OSWindows {
		if getenv("PSModulePath") != "" {
			return ShellPowerShell
		}
		if getenv("COMSPEC") != "" {
			return ShellCmd
		}
	}
	return ShellUnknown
}
