// SPDX-License-Identifier: MPL-2.0

// Package cache manages the user-scoped cache root: downloaded artifacts
// with their structured descriptors, the isolated runner install tree, the
// runner's private package cache, and the engine decision log.
//
// The cache is a shared file-based resource with no locking. Concurrent
// invocations may race on writes to the same entry; the payload and its
// descriptor are written payload-first so a torn write surfaces as a
// missing descriptor (stale) rather than a corrupt one. This is an accepted
// limitation, not a safety guarantee.
package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// descriptorSuffix is appended to the payload filename for the sidecar.
const descriptorSuffix = ".meta.toml"

type (
	// Descriptor is the structured capability record attached to every
	// cached artifact. Capability membership is compared by set inclusion,
	// never by substring probing of the payload.
	Descriptor struct {
		// SourceURL is where the payload was fetched from.
		SourceURL string `toml:"source_url"`
		// FetchedAt is the download timestamp.
		FetchedAt time.Time `toml:"fetched_at"`
		// EngineVersion is the mcpboot version that wrote the entry.
		EngineVersion string `toml:"engine_version"`
		// Capabilities are the feature markers the payload provides.
		Capabilities []string `toml:"capabilities"`
	}

	// Artifact addresses one cached payload and its descriptor sidecar
	// inside a cache root.
	Artifact struct {
		// Root is the cache root directory.
		Root string
		// Name is the payload filename relative to Root.
		Name string
	}
)

// PayloadPath returns the absolute payload location.
func (a Artifact) PayloadPath() string {
	return filepath.Join(a.Root, a.Name)
}

// DescriptorPath returns the absolute sidecar location.
func (a Artifact) DescriptorPath() string {
	return a.PayloadPath() + descriptorSuffix
}

// Exists reports whether both the payload and its descriptor are present.
func (a Artifact) Exists() bool {
	if _, err := os.Stat(a.PayloadPath()); err != nil {
		return false
	}
	_, err := os.Stat(a.DescriptorPath())
	return err == nil
}

// Store writes the payload and then its descriptor, creating the cache
// root as needed. perm applies to the payload (0o755 for scripts that will
// be executed, 0o644 otherwise).
func (a Artifact) Store(payload []byte, desc Descriptor, perm fs.FileMode) error {
	if err := os.MkdirAll(a.Root, 0o755); err != nil {
		return fmt.Errorf("creating cache root: %w", err)
	}
	if err := os.WriteFile(a.PayloadPath(), payload, perm); err != nil {
		return fmt.Errorf("writing cache payload: %w", err)
	}
	meta, err := toml.Marshal(desc)
	if err != nil {
		return fmt.Errorf("encoding artifact descriptor: %w", err)
	}
	if err := os.WriteFile(a.DescriptorPath(), meta, 0o644); err != nil {
		return fmt.Errorf("writing artifact descriptor: %w", err)
	}
	return nil
}

// LoadDescriptor reads and decodes the sidecar. A missing sidecar returns
// fs.ErrNotExist so callers can treat it as a stale entry.
func (a Artifact) LoadDescriptor() (*Descriptor, error) {
	data, err := os.ReadFile(a.DescriptorPath())
	if err != nil {
		return nil, err
	}
	var desc Descriptor
	if err := toml.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("decoding artifact descriptor %s: %w", a.DescriptorPath(), err)
	}
	return &desc, nil
}

// HasCapabilities reports whether every required marker is present.
func (d *Descriptor) HasCapabilities(required []string) bool {
	have := make(map[string]bool, len(d.Capabilities))
	for _, c := range d.Capabilities {
		have[c] = true
	}
	for _, r := range required {
		if !have[r] {
			return false
		}
	}
	return true
}

// InstallDir is the private, disposable directory used by the tier-3
// isolated install. It lives under the cache root so a later invocation's
// tier-1 probe can find the result.
func InstallDir(root string) string {
	return filepath.Join(root, "uv-install")
}

// RunnerCacheDir is the runner's own package cache, kept distinct from any
// global uv cache to avoid cross-invocation contamination.
func RunnerCacheDir(root string) string {
	return filepath.Join(root, "uv-cache")
}

// LogFile is the persistent engine decision log location.
func LogFile(root string) string {
	return filepath.Join(root, "mcpboot.log")
}

// markerFile records the last successful freshness check.
func markerFile(root string) string {
	return filepath.Join(root, ".fresh")
}

// TouchMarker records now as the last freshness-check time.
func TouchMarker(root string, now time.Time) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return err
	}
	return os.WriteFile(markerFile(root), []byte(now.UTC().Format(time.RFC3339)+"\n"), 0o644)
}

// MarkerTime returns the recorded freshness-check time, or the zero time
// when the marker is absent or unreadable.
func MarkerTime(root string) time.Time {
	data, err := os.ReadFile(markerFile(root))
	if err != nil {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, string(trimNewline(data)))
	if err != nil {
		return time.Time{}
	}
	return t
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

// IsNotExist reports whether err means an absent payload or descriptor.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
