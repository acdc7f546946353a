package main

import (
	"github.com/spf13/cobra"

	"github.com/windowsadmins/setup-sqlserver/pkg/docs"
)

func newDocsCmd() *cobra.Command {
	var actionPath, readmePath, ref string
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Regenerate the README usage section from action.yml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := docs.UpdateUsageFile(ref, actionPath, readmePath); err != nil {
				return err
			}
			cmd.Printf("Updated usage in %s\n", readmePath)
			return nil
		},
	}
	cmd.Flags().StringVar(&actionPath, "action", "action.yml", "Path to the action metadata.")
	cmd.Flags().StringVar(&readmePath, "readme", "README.md", "Path to the README to update.")
	cmd.Flags().StringVar(&ref, "ref", "windowsadmins/setup-sqlserver@v1", "Action reference shown in the example.")
	return cmd
}
