package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arcsys/arcsys-cli/internal/export"
)

var exportFindsOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export project data",
}

var exportFindsCmd = &cobra.Command{
	Use:   "finds",
	Short: "Export the finds register to XLSX",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		project, err := currentProject(ctx, st)
		if err != nil {
			return err
		}

		out := exportFindsOut
		if out == "" {
			out = fmt.Sprintf("%s_finds.xlsx", project.Code)
		}

		n, err := export.FindsXLSX(ctx, st, project, out)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "exported %d finds to %s\n", n, out)
		return nil
	},
}

func init() {
	exportFindsCmd.Flags().StringVar(&exportFindsOut, "out", "", "output path (default <project-code>_finds.xlsx)")
	exportCmd.AddCommand(exportFindsCmd)
	rootCmd.AddCommand(exportCmd)
}
