package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/windowsadmins/setup-sqlserver/pkg/catalog"
	"github.com/windowsadmins/setup-sqlserver/pkg/config"
	"github.com/windowsadmins/setup-sqlserver/pkg/installer"
	"github.com/windowsadmins/setup-sqlserver/pkg/toolcache"
)

func newVersionsCmd(cfg *config.Configuration) *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "List the SQL Server versions and client drivers that can be installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat := catalog.Default()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "VERSION\tMEDIA\tUPDATES\tRUNNERS")
			for _, key := range cat.Keys() {
				cfg, _ := cat.Lookup(key)
				media := "exe"
				if cfg.BoxURL != "" {
					media = "exe+box"
				}
				updates := "no"
				if cfg.UpdateURL != "" {
					updates = "yes"
				}
				if key == catalog.DefaultVersion {
					key += " (latest)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", key, media, updates, runners(cfg.OSSupport))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nnative-client-version: %s\n", strings.Join(cat.NativeClientKeys(), ", "))
			fmt.Fprintf(cmd.OutOrStdout(), "odbc-version: %s\n", strings.Join(cat.ODBCKeys(), ", "))
			printCached(cmd.OutOrStdout(), toolcache.New(cfg.ToolCache, cfg.Arch), cachedTools(cat))
			return nil
		},
	}
}

func runners(s *catalog.OSSupport) string {
	switch {
	case s == nil || (s.Min == 0 && s.Max == 0):
		return "any"
	case s.Min == 0:
		return fmt.Sprintf("up to windows-%d", s.Max)
	case s.Max == 0:
		return fmt.Sprintf("windows-%d and later", s.Min)
	default:
		return fmt.Sprintf("windows-%d to windows-%d", s.Min, s.Max)
	}
}

// cachedTools lists the tool cache names setup-sqlserver writes.
func cachedTools(cat *catalog.Catalog) []string {
	tools := []string{installer.ToolSQLServer, installer.ToolSQLUpdate}
	seen := map[string]bool{}
	for _, key := range cat.NativeClientKeys() {
		if pkg, err := cat.NativeClient(key); err == nil && !seen[pkg.Name] {
			seen[pkg.Name] = true
			tools = append(tools, pkg.Name)
		}
	}
	for _, key := range cat.ODBCKeys() {
		if pkg, err := cat.ODBC(key); err == nil && !seen[pkg.Name] {
			seen[pkg.Name] = true
			tools = append(tools, pkg.Name)
		}
	}
	return tools
}

func printCached(w io.Writer, cache *toolcache.Cache, tools []string) {
	var lines []string
	for _, tool := range tools {
		if versions := cache.Versions(tool, ""); len(versions) > 0 {
			lines = append(lines, fmt.Sprintf("  %s: %s", tool, strings.Join(versions, ", ")))
		}
	}
	if len(lines) == 0 {
		fmt.Fprintf(w, "\nNothing cached in %s\n", cache.Root())
		return
	}
	fmt.Fprintf(w, "\nCached in %s:\n%s\n", cache.Root(), strings.Join(lines, "\n"))
}
