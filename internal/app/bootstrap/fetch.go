// SPDX-License-Identifier: MPL-2.0

package bootstrap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mcpboot/mcpboot/internal/cache"
	"github.com/mcpboot/mcpboot/internal/config"
	"github.com/mcpboot/mcpboot/internal/install"
	"github.com/mcpboot/mcpboot/internal/spec"
)

// maxRawFileBytes caps a downloaded server file. Single-file servers are
// small; anything larger is a mistargeted URL.
const maxRawFileBytes = 10 << 20

// httpClient is a test seam over the raw-file transport.
var httpClient = &http.Client{Timeout: 60 * time.Second}

// fetchRawFile materializes a forge-hosted server file on the local disk and
// returns its path. Cached copies are reused within the freshness window;
// with the cache disabled the payload lands in a fresh temp directory
// instead.
func fetchRawFile(ctx context.Context, logger *log.Logger, pkg *spec.PackageSpec, cfg *config.Config) (string, error) {
	url := rawDownloadURL(pkg.Raw)

	if cfg.NoCache {
		data, err := downloadRawFile(ctx, url)
		if err != nil {
			return "", err
		}
		dir, err := os.MkdirTemp("", "mcpboot-")
		if err != nil {
			return "", fmt.Errorf("creating temp dir for server file: %w", err)
		}
		path := filepath.Join(dir, pkg.Name+".py")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return "", fmt.Errorf("writing server file: %w", err)
		}
		return path, nil
	}

	artifact := cache.Artifact{Root: cfg.CacheDir, Name: pkg.Name + ".py"}
	decision := cache.Evaluate(artifact, cache.Policy{
		Force:  cfg.ForceRefresh,
		MaxAge: cfg.MaxArtifactAge,
	})
	if decision.Fresh {
		logger.Debug("reusing cached server file", "path", artifact.PayloadPath())
		touchMarker(logger, cfg.CacheDir)
		return artifact.PayloadPath(), nil
	}
	logger.Debug("fetching server file", "url", url, "reason", decision.Reason)

	data, err := downloadRawFile(ctx, url)
	if err != nil {
		return "", err
	}
	desc := cache.Descriptor{
		SourceURL: url,
		FetchedAt: time.Now().UTC(),
	}
	if err := artifact.Store(data, desc, 0o644); err != nil {
		return "", fmt.Errorf("caching server file: %w", err)
	}
	touchMarker(logger, cfg.CacheDir)
	return artifact.PayloadPath(), nil
}

// touchMarker records a completed freshness check. Advisory only.
func touchMarker(logger *log.Logger, root string) {
	if err := cache.TouchMarker(root, time.Now()); err != nil {
		logger.Debug("could not update freshness marker", "err", err)
	}
}

func downloadRawFile(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", install.ErrNetwork, err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching %s: %v", install.ErrNetwork, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetching %s: unexpected status %s", install.ErrNetwork, url, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRawFileBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", install.ErrNetwork, url, err)
	}
	if len(data) > maxRawFileBytes {
		return nil, fmt.Errorf("%w: %s exceeds the %d byte server file limit", install.ErrNetwork, url, maxRawFileBytes)
	}
	return data, nil
}

// rawDownloadURL rewrites forge browsing URLs to their direct-content form.
// URLs that already serve raw content pass through unchanged.
func rawDownloadURL(url string) string {
	if rest, ok := strings.CutPrefix(url, "https://github.com/"); ok {
		if strings.Contains(rest, "/blob/") {
			return "https://raw.githubusercontent.com/" + strings.Replace(rest, "/blob/", "/", 1)
		}
		if strings.Contains(rest, "/raw/") {
			return "https://raw.githubusercontent.com/" + strings.Replace(rest, "/raw/", "/", 1)
		}
	}
	if strings.Contains(url, "gitlab.com/") {
		return strings.Replace(url, "/-/blob/", "/-/raw/", 1)
	}
	return url
}
