// pkg/installer/installer.go - resolving SQL Server setup media from the tool cache or the network.

package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/windowsadmins/setup-sqlserver/pkg/catalog"
	"github.com/windowsadmins/setup-sqlserver/pkg/command"
	"github.com/windowsadmins/setup-sqlserver/pkg/logging"
	"github.com/windowsadmins/setup-sqlserver/pkg/outcome"
	"github.com/windowsadmins/setup-sqlserver/pkg/utils"
)

// Tool cache names of the SQL Server media and its cumulative updates.
const (
	ToolSQLServer = "sqlserver"
	ToolSQLUpdate = "sqlupdate"
)

const (
	setupFile  = "setup.exe"
	updateFile = "sqlupdate.exe"
)

var updateLinkPattern = regexp.MustCompile(`\s+href\s*=\s*["'](https://download\.microsoft\.com/.*\.exe)['"]`)

// Cache is the subset of the tool cache the fetcher needs.
type Cache interface {
	Find(tool, version, arch string) string
	CacheFile(src, targetFile, tool, version, arch string) (string, error)
	CacheDir(src, tool, version, arch string) (string, error)
	Arch() string
}

// Downloader fetches remote artifacts.
type Downloader interface {
	DownloadTool(ctx context.Context, rawURL, ext string) (string, error)
	FetchPage(ctx context.Context, rawURL string) (string, error)
}

// Fetcher resolves installers and installs MSI packages.
type Fetcher struct {
	cache      Cache
	downloader Downloader
	runner     command.Runner
	catalog    *catalog.Catalog
}

// New creates a Fetcher.
func New(cache Cache, downloader Downloader, runner command.Runner, cat *catalog.Catalog) *Fetcher {
	if cat == nil {
		cat = catalog.Default()
	}
	return &Fetcher{cache: cache, downloader: downloader, runner: runner, catalog: cat}
}

// FindOrDownload returns the path of setup.exe for cfg, downloading and
// caching it on a cache miss.
func (f *Fetcher) FindOrDownload(ctx context.Context, cfg catalog.VersionConfig) (string, error) {
	if dir := f.cache.Find(ToolSQLServer, cfg.Version, ""); dir != "" {
		logging.Info("Found installer in cache", "path", dir)
		return filepath.Join(dir, setupFile), nil
	}
	if cfg.BoxURL != "" {
		return f.downloadBox(ctx, cfg)
	}
	return f.downloadExe(ctx, cfg)
}

// downloadBox fetches a two-stage installer: a bootstrap exe that unpacks the
// accompanying .box payload.
func (f *Fetcher) downloadBox(ctx context.Context, cfg catalog.VersionConfig) (string, error) {
	if cfg.BoxURL == "" {
		return "", outcome.Configf("No boxUrl provided")
	}

	var exePath, boxPath string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		exePath, err = f.downloader.DownloadTool(gctx, cfg.ExeURL, ".exe")
		return err
	})
	g.Go(func() error {
		var err error
		boxPath, err = f.downloader.DownloadTool(gctx, cfg.BoxURL, ".box")
		return err
	})
	if err := g.Wait(); err != nil {
		// the other download may have finished before it was cancelled
		removeDownloads(exePath, boxPath)
		return "", fmt.Errorf("failed to download installer: %w", err)
	}

	if logging.IsDebug() {
		logHashes(map[string]string{"exe": exePath, "box": boxPath})
	}

	// the bootstrapper looks for a payload with its own base name
	downloadDir := filepath.Dir(exePath)
	wantBox := strings.TrimSuffix(exePath, filepath.Ext(exePath)) + ".box"
	if boxPath != wantBox {
		if err := os.Rename(boxPath, wantBox); err != nil {
			return "", fmt.Errorf("failed to move installer payload: %w", err)
		}
	}

	logging.Info("Extracting installer")
	_, err := f.runner.Run(ctx, command.Quote(exePath), []string{"/qs", "/x:setup"}, command.Options{
		Dir:      downloadDir,
		Verbatim: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to extract installer: %w", err)
	}

	logging.Info("Adding to the cache")
	dir, err := f.cache.CacheDir(filepath.Join(downloadDir, "setup"), ToolSQLServer, cfg.Version, "")
	if err != nil {
		return "", fmt.Errorf("failed to cache installer: %w", err)
	}
	logging.Debug("Cached installer", "path", dir)
	return filepath.Join(dir, setupFile), nil
}

// downloadExe fetches a self-contained setup executable.
func (f *Fetcher) downloadExe(ctx context.Context, cfg catalog.VersionConfig) (string, error) {
	if cfg.BoxURL != "" {
		return "", outcome.Configf("Version requires box installer")
	}

	exePath, err := f.downloader.DownloadTool(ctx, cfg.ExeURL, ".exe")
	if err != nil {
		return "", fmt.Errorf("failed to download installer: %w", err)
	}
	if logging.IsDebug() {
		logHashes(map[string]string{"exe": exePath})
	}

	logging.Info("Adding to the cache")
	dir, err := f.cache.CacheFile(exePath, setupFile, ToolSQLServer, cfg.Version, "")
	if err != nil {
		return "", fmt.Errorf("failed to cache installer: %w", err)
	}
	logging.Debug("Cached installer", "path", dir)
	return filepath.Join(dir, setupFile), nil
}

// FindOrDownloadUpdates returns the path of the cumulative update for cfg.
// When no download link can be resolved the result is an Advisory and an
// empty path; the install carries on without updates.
func (f *Fetcher) FindOrDownloadUpdates(ctx context.Context, cfg catalog.VersionConfig) (string, outcome.Advisory, error) {
	if cfg.UpdateURL == "" {
		return "", outcome.Advisory{}, outcome.Configf("No update url provided")
	}
	if dir := f.cache.Find(ToolSQLUpdate, cfg.Version, ""); dir != "" {
		logging.Info("Found cumulative update in cache", "path", dir)
		return filepath.Join(dir, updateFile), outcome.Advisory{}, nil
	}

	link := cfg.UpdateURL
	if !strings.HasSuffix(link, ".exe") {
		resolved, adv := f.resolveUpdateLink(ctx, link)
		if !adv.OK() {
			return "", adv, nil
		}
		link = resolved
	}

	logging.Info("Downloading cumulative update", "url", link)
	updatePath, err := f.downloader.DownloadTool(ctx, link, ".exe")
	if err != nil {
		return "", outcome.Advisory{}, fmt.Errorf("failed to download cumulative update: %w", err)
	}
	if logging.IsDebug() {
		logHashes(map[string]string{"update": updatePath})
	}

	logging.Info("Adding to the cache")
	dir, err := f.cache.CacheFile(updatePath, updateFile, ToolSQLUpdate, cfg.Version, "")
	if err != nil {
		return "", outcome.Advisory{}, fmt.Errorf("failed to cache cumulative update: %w", err)
	}
	logging.Debug("Cached cumulative update", "path", dir)
	return filepath.Join(dir, updateFile), outcome.Advisory{}, nil
}

// resolveUpdateLink scrapes a download landing page for the update executable.
func (f *Fetcher) resolveUpdateLink(ctx context.Context, page string) (string, outcome.Advisory) {
	body, err := f.downloader.FetchPage(ctx, page)
	if err != nil {
		return "", outcome.Degraded("Unable to download cumulative updates", err)
	}
	m := updateLinkPattern.FindStringSubmatch(body)
	if m == nil {
		return "", outcome.Degraded("Unable to download cumulative updates",
			fmt.Errorf("no download link found on %s", page))
	}
	return m[1], outcome.Advisory{}
}

func removeDownloads(paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logging.Debug("Unable to remove partial download", "path", path, "error", err)
		}
	}
}

// logHashes logs the SHA256 digest of each artifact. Digests are for
// troubleshooting only.
func logHashes(files map[string]string) {
	kinds := make([]string, 0, len(files))
	for kind := range files {
		kinds = append(kinds, kind)
	}
	sums := make([]string, len(kinds))

	var g errgroup.Group
	for i, kind := range kinds {
		i, kind := i, kind
		g.Go(func() error {
			sum, err := utils.FileSHA256(files[kind])
			if err != nil {
				return err
			}
			sums[i] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logging.Debug("Unable to hash setup files", "error", err)
		return
	}
	for i, kind := range kinds {
		if kind == "update" {
			logging.Debug(fmt.Sprintf("Got update file with hash SHA256=%s", sums[i]))
			continue
		}
		logging.Debug(fmt.Sprintf("Got setup file (%s) with hash SHA256=%s", kind, sums[i]))
	}
}
