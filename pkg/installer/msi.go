// pkg/installer/msi.go - installing MSI packages such as the SQL client drivers.

package installer

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/windowsadmins/setup-sqlserver/pkg/catalog"
	"github.com/windowsadmins/setup-sqlserver/pkg/command"
	"github.com/windowsadmins/setup-sqlserver/pkg/logging"
)

const commandMsi = "msiexec"

// InstallMSI installs pkg with msiexec, fetching the package through the
// tool cache keyed by (name, version, arch).
func (f *Fetcher) InstallMSI(ctx context.Context, pkg catalog.Package) error {
	arch := f.cache.Arch()
	msiName := pkg.Name + ".msi"

	dir := f.cache.Find(pkg.Name, pkg.Version, arch)
	if dir != "" {
		logging.Info(fmt.Sprintf("Found %s installer in cache", pkg.Name), "path", dir)
	} else {
		url := pkg.URL(arch)
		if url == "" {
			return fmt.Errorf("no download available for %s %s", pkg.Name, pkg.Version)
		}
		logging.Info(fmt.Sprintf("Downloading %s installer", pkg.Name), "url", url)
		tmp, err := f.downloader.DownloadTool(ctx, url, ".msi")
		if err != nil {
			return fmt.Errorf("failed to download %s: %w", pkg.Name, err)
		}
		dir, err = f.cache.CacheFile(tmp, msiName, pkg.Name, pkg.Version, arch)
		if err != nil {
			return fmt.Errorf("failed to cache %s: %w", pkg.Name, err)
		}
		logging.Info(fmt.Sprintf("Downloaded %s installer to cache", pkg.Name), "path", dir)
	}

	logging.Info("Running installer", "package", pkg.Name, "version", pkg.Version)
	args := MSIArgs(pkg, filepath.Join(dir, msiName))
	if _, err := f.runner.Run(ctx, commandMsi, args, command.Options{Verbatim: true}); err != nil {
		logging.Error("Failed to install MSI package", "package", pkg.Name, "error", err)
		return fmt.Errorf("failed to install %s: %w", pkg.Name, err)
	}
	logging.Info("Install complete", "package", pkg.Name)
	return nil
}

// MSIArgs builds the msiexec arguments for installing the package at path.
func MSIArgs(pkg catalog.Package, path string) []string {
	var args []string
	if pkg.Silent {
		args = append(args, "/passive")
	}
	args = append(args, "/i", command.Quote(path))
	if pkg.AppGUID != "" {
		args = append(args, fmt.Sprintf("APPGUID={%s}", pkg.AppGUID))
	}
	return append(args, pkg.ExtraArgs...)
}

// InstallNativeClient installs the SQL Server Native Client.
func (f *Fetcher) InstallNativeClient(ctx context.Context, version string) error {
	pkg, err := f.catalog.NativeClient(version)
	if err != nil {
		return err
	}
	return f.InstallMSI(ctx, pkg)
}

// InstallODBC installs the Microsoft ODBC Driver for SQL Server.
func (f *Fetcher) InstallODBC(ctx context.Context, version string) error {
	pkg, err := f.catalog.ODBC(version)
	if err != nil {
		return err
	}
	return f.InstallMSI(ctx, pkg)
}
