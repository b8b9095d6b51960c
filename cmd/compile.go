package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arcsys/arcsys-cli/internal/compiler"
)

var (
	compileOutJSON string
	compileOutHTML string
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile the project's map bundle",
	Long:  "Transforms trenches, finds and layers of the project to WGS84 and emits the bundle as JSON (stdout or --json) and optionally as a standalone Leaflet page (--html). A failed compile still produces a bundle, with the failure in its error_message field.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		pctx, err := resolveProject(ctx, st)
		if err != nil {
			return err
		}

		c := &compiler.Compiler{Store: st, BaseDir: cfg.Data.Dir}
		bundle := c.Compile(ctx, pctx)

		if !bundle.OK() {
			zap.L().Warn("compile produced an error bundle", zap.String("error", bundle.Error))
		}

		data, err := json.MarshalIndent(bundle, "", "  ")
		if err != nil {
			return eris.Wrap(err, "encode bundle")
		}

		if compileOutJSON != "" {
			if err := writeFile(compileOutJSON, data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "bundle written to %s\n", compileOutJSON)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
		}

		if compileOutHTML != "" {
			if err := compiler.RenderHTML(bundle, compileOutHTML); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "map page written to %s\n", compileOutHTML)
		}
		return nil
	},
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "write %s", path)
	}
	return nil
}

func init() {
	compileCmd.Flags().StringVar(&compileOutJSON, "json", "", "write the bundle JSON to this path instead of stdout")
	compileCmd.Flags().StringVar(&compileOutHTML, "html", "", "also render a standalone Leaflet map page to this path")
	rootCmd.AddCommand(compileCmd)
}
