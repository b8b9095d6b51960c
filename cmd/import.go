package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arcsys/arcsys-cli/internal/model"
	"github.com/arcsys/arcsys-cli/internal/raster"
	"github.com/arcsys/arcsys-cli/internal/store"
	"github.com/arcsys/arcsys-cli/internal/vector"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import map layers into the active project",
}

var importRasterCmd = &cobra.Command{
	Use:   "raster <geotiff>",
	Short: "Import a GeoTIFF orthophoto as an image layer",
	Long:  "Converts a GeoTIFF to PNG with a sidecar world file under the rasters directory and registers it as an image layer of the project.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		job, err := st.CreateJob(ctx, project.ID, model.JobKindRaster)
		if err != nil {
			return err
		}

		progress := func(completed, total int, message string) {
			fmt.Fprintf(cmd.OutOrStdout(), "[%d/%d] %s\n", completed, total, message)
		}

		result, err := raster.ImportGeoTIFF(ctx, st, project, args[0], cfg.Data.Rasters(), cfg.Data.Dir, progress)
		if err != nil {
			finishJob(ctx, st, job.ID, model.JobStatusFailed, err.Error())
			return err
		}
		finishJob(ctx, st, job.ID, model.JobStatusComplete,
			fmt.Sprintf("layer %q (id %d)", result.LayerName, result.LayerID))

		fmt.Fprintf(cmd.OutOrStdout(), "imported %s as layer %d\n", result.LayerName, result.LayerID)
		return nil
	},
}

var importVectorCmd = &cobra.Command{
	Use:   "vector <file>",
	Short: "Import a shapefile or GeoJSON file as a vector layer",
	Long:  "Converts a shapefile (in the project CRS) or a GeoJSON file to a WGS84 GeoJSON feature collection under the vectors directory and registers it as a vector layer of the project.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		job, err := st.CreateJob(ctx, project.ID, model.JobKindVector)
		if err != nil {
			return err
		}

		result, err := vector.ImportFile(ctx, st, project, args[0], cfg.Data.Vectors(), cfg.Data.Dir)
		if err != nil {
			finishJob(ctx, st, job.ID, model.JobStatusFailed, err.Error())
			return err
		}
		finishJob(ctx, st, job.ID, model.JobStatusComplete,
			fmt.Sprintf("layer %q (id %d), %d features", result.LayerName, result.LayerID, result.Features))

		fmt.Fprintf(cmd.OutOrStdout(), "imported %s as layer %d (%d features)\n",
			result.LayerName, result.LayerID, result.Features)
		return nil
	},
}

// currentProject resolves the project context and loads the project row.
func currentProject(ctx context.Context, st store.Store) (*model.Project, error) {
	pctx, err := resolveProject(ctx, st)
	if err != nil {
		return nil, err
	}
	return st.GetProject(ctx, pctx.ProjectID)
}

// finishJob closes a job record. Audit writes never mask the import outcome.
func finishJob(ctx context.Context, st store.Store, jobID string, status model.JobStatus, detail string) {
	if err := st.FinishJob(ctx, jobID, status, detail); err != nil {
		zap.L().Warn("could not finalize import job",
			zap.String("job_id", jobID),
			zap.Error(err),
		)
	}
}

func init() {
	importCmd.AddCommand(importRasterCmd, importVectorCmd)
	rootCmd.AddCommand(importCmd)
}
