// pkg/toolcache/toolcache.go - a keyed store of downloaded installers.
//
// The layout matches the hosted runner tool cache:
//
//	<root>/<tool>/<version>/<arch>/...
//	<root>/<tool>/<version>/<arch>.complete
//
// so artifacts cached by earlier steps or jobs on the same runner are reused.

package toolcache

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"

	version "github.com/hashicorp/go-version"

	"github.com/windowsadmins/setup-sqlserver/pkg/logging"
)

// Cache is a tool cache rooted at a directory.
type Cache struct {
	root string
	arch string
}

// New returns a Cache rooted at root. An empty arch means the host architecture.
func New(root, arch string) *Cache {
	if arch == "" {
		arch = HostArch()
	}
	return &Cache{root: root, arch: arch}
}

// Root returns the cache directory.
func (c *Cache) Root() string {
	return c.root
}

// Arch returns the default architecture used for cache keys.
func (c *Cache) Arch() string {
	return c.arch
}

// Find returns the cached directory for (tool, spec, arch), or "" if the
// entry is missing or was never completed. spec is either a version key such
// as "2022" or "11.0", matched exactly, or a constraint such as "~> 17.0" or
// ">= 2019", resolved to the highest completed version satisfying it.
func (c *Cache) Find(tool, spec, arch string) string {
	if tool == "" || spec == "" {
		return ""
	}
	if dir := c.completed(tool, spec, arch); dir != "" {
		return dir
	}
	if _, err := version.NewVersion(spec); err == nil {
		logging.Debug("Tool not found in cache", "tool", tool, "version", spec)
		return ""
	}

	constraints, err := version.NewConstraint(spec)
	if err != nil {
		logging.Debug("Invalid version constraint", "tool", tool, "constraint", spec, "error", err)
		return ""
	}
	cached := c.Versions(tool, arch)
	for i := len(cached) - 1; i >= 0; i-- {
		v, err := version.NewVersion(cached[i])
		if err == nil && constraints.Check(v) {
			logging.Debug("Matched cached version", "tool", tool, "constraint", spec, "version", cached[i])
			return c.completed(tool, cached[i], arch)
		}
	}
	logging.Debug("No cached version satisfies constraint", "tool", tool, "constraint", spec)
	return ""
}

// Versions lists the completed cached versions of tool for arch, lowest
// first. Directories that are not versions are skipped.
func (c *Cache) Versions(tool, arch string) []string {
	if arch == "" {
		arch = c.arch
	}
	entries, err := os.ReadDir(filepath.Join(c.root, tool))
	if err != nil {
		return nil
	}

	byVersion := map[*version.Version]string{}
	var collection version.Collection
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		v, err := version.NewVersion(entry.Name())
		if err != nil {
			continue
		}
		if c.completed(tool, entry.Name(), arch) == "" {
			continue
		}
		byVersion[v] = entry.Name()
		collection = append(collection, v)
	}
	sort.Sort(collection)

	names := make([]string, 0, len(collection))
	for _, v := range collection {
		names = append(names, byVersion[v])
	}
	return names
}

// completed returns the entry directory when its marker exists.
func (c *Cache) completed(tool, ver, arch string) string {
	dir := c.toolPath(tool, ver, arch)
	if _, err := os.Stat(dir + ".complete"); err != nil {
		return ""
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return ""
	}
	return dir
}

// CacheFile copies a single file into the cache as targetFile and returns the
// cache directory holding it.
func (c *Cache) CacheFile(src, targetFile, tool, ver, arch string) (string, error) {
	info, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("toolcache: stat source: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("toolcache: source %s is a directory", src)
	}

	dest, err := c.prepare(tool, ver, arch)
	if err != nil {
		return "", err
	}
	if err := copyFile(src, filepath.Join(dest, targetFile), info.Mode()); err != nil {
		return "", err
	}
	return dest, c.complete(dest)
}

// CacheDir copies the contents of src into the cache and returns the cache directory.
func (c *Cache) CacheDir(src, tool, ver, arch string) (string, error) {
	info, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("toolcache: stat source: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("toolcache: source %s is not a directory", src)
	}

	dest, err := c.prepare(tool, ver, arch)
	if err != nil {
		return "", err
	}
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		return copyFile(path, target, fi.Mode())
	})
	if err != nil {
		return "", fmt.Errorf("toolcache: copy directory: %w", err)
	}
	return dest, c.complete(dest)
}

func (c *Cache) toolPath(tool, ver, arch string) string {
	if arch == "" {
		arch = c.arch
	}
	return filepath.Join(c.root, tool, versionDir(ver), arch)
}

// prepare clears any previous entry and creates an empty destination.
func (c *Cache) prepare(tool, ver, arch string) (string, error) {
	dest := c.toolPath(tool, ver, arch)
	logging.Debug("Preparing cache destination", "path", dest)
	if err := os.RemoveAll(dest); err != nil {
		return "", fmt.Errorf("toolcache: cleanup previous entry: %w", err)
	}
	if err := os.Remove(dest + ".complete"); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("toolcache: cleanup marker: %w", err)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("toolcache: create dir: %w", err)
	}
	return dest, nil
}

func (c *Cache) complete(dest string) error {
	if err := os.WriteFile(dest+".complete", nil, 0o644); err != nil {
		return fmt.Errorf("toolcache: write marker: %w", err)
	}
	logging.Debug("Finished caching tool", "path", dest)
	return nil
}

var semverCore = regexp.MustCompile(`^\d+\.\d+\.\d+([-+].*)?$`)

// versionDir cleans strict x.y.z versions ("v1.2.3" -> "1.2.3") and leaves
// anything else, such as "2022", as given.
func versionDir(raw string) string {
	trimmed := strings.TrimLeft(strings.TrimSpace(raw), "=v")
	if !semverCore.MatchString(trimmed) {
		return raw
	}
	return trimmed
}

// HostArch returns a unified architecture string
func HostArch() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x64"
	case "386":
		return "x86"
	default:
		return runtime.GOARCH
	}
}

func copyFile(src, dst string, mode fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("toolcache: open %s: %w", src, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("toolcache: create dir: %w", err)
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode.Perm()|0o200)
	if err != nil {
		return fmt.Errorf("toolcache: create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("toolcache: copy %s: %w", src, err)
	}
	return out.Close()
}
