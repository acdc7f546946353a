package main

import (
	"github.com/spf13/cobra"

	"github.com/windowsadmins/setup-sqlserver/pkg/version"
)

func newVersionCmd() *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			if full {
				version.PrintFull(cmd.OutOrStdout())
				return
			}
			version.Print(cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "Include branch, revision and build details.")
	return cmd
}
