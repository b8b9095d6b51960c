package main

import (
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arcsys/arcsys-cli/internal/model"
	"github.com/arcsys/arcsys-cli/internal/tiles"
)

var tilesCmd = &cobra.Command{
	Use:   "tiles",
	Short: "Manage offline basemap tile pyramids",
}

var tilesDownloadParams struct {
	bufferKM    float64
	zoomMin     int
	zoomMax     int
	layerName   string
	attribution string
}

var tilesDownloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download an offline tile pyramid around the project center",
	Long:  "Plans the tile coverage around the project's center coordinate, downloads missing tiles into the per-project cache, and registers (or re-registers) the offline tile layer. Re-running resumes an interrupted download: cached tiles are skipped.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		project, err := currentProject(ctx, st)
		if err != nil {
			return err
		}

		job, err := st.CreateJob(ctx, project.ID, model.JobKindTiles)
		if err != nil {
			return err
		}

		params := tiles.DownloadParams{
			BufferKM:    tilesDownloadParams.bufferKM,
			ZoomMin:     tilesDownloadParams.zoomMin,
			ZoomMax:     tilesDownloadParams.zoomMax,
			LayerName:   tilesDownloadParams.layerName,
			Attribution: tilesDownloadParams.attribution,
		}
		opts := tiles.Options{
			Template:   cfg.Tiles.Template,
			UserAgent:  cfg.Tiles.UserAgent,
			Workers:    cfg.Tiles.Workers,
			Timeout:    time.Duration(cfg.Tiles.TimeoutSecs) * time.Second,
			RatePerSec: cfg.Tiles.RatePerSec,
		}
		progress := func(completed, total int, message string) {
			fmt.Fprintf(cmd.OutOrStdout(), "\r%s", message)
			if completed == total {
				fmt.Fprintln(cmd.OutOrStdout())
			}
		}

		stats, err := tiles.Download(ctx, st, project, cfg.Data.Tiles(), params, opts, progress)
		if err != nil {
			finishJob(ctx, st, job.ID, model.JobStatusFailed, err.Error())
			return err
		}
		finishJob(ctx, st, job.ID, model.JobStatusComplete,
			fmt.Sprintf("%d tiles (%d fetched, %d cached, %d failed)",
				stats.Completed, stats.Fetched, stats.Cached, stats.Failed))

		fmt.Fprintf(cmd.OutOrStdout(), "done: %d fetched, %d already cached, %d failed\n",
			stats.Fetched, stats.Cached, stats.Failed)
		return nil
	},
}

var tilesServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve cached tile pyramids over HTTP",
	Long:  "Starts an HTTP server exposing the project's cached pyramids at /tiles/{layer}/{z}/{x}/{y}.png, for map clients that cannot read file:// templates.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		project, err := currentProject(ctx, st)
		if err != nil {
			return err
		}

		root := fmt.Sprintf("%s/project_%d", cfg.Data.Tiles(), project.ID)

		mux := http.NewServeMux()
		mux.Handle("/tiles/", http.StripPrefix("/tiles/", tiles.NewHandler(root)))
		mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})

		addr := fmt.Sprintf(":%d", cfg.Tiles.ServePort)
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}

		zap.L().Info("starting tile server",
			zap.String("addr", addr),
			zap.String("root", root),
		)

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down tile server")
			_ = srv.Close()
		}()

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "tile server")
		}
		return nil
	},
}

func init() {
	tilesDownloadCmd.Flags().Float64Var(&tilesDownloadParams.bufferKM, "buffer-km", 1.0, "half-width of the coverage box around the center, in km")
	tilesDownloadCmd.Flags().IntVar(&tilesDownloadParams.zoomMin, "zoom-min", 14, "lowest zoom level")
	tilesDownloadCmd.Flags().IntVar(&tilesDownloadParams.zoomMax, "zoom-max", 18, "highest zoom level")
	tilesDownloadCmd.Flags().StringVar(&tilesDownloadParams.layerName, "layer", tiles.DefaultLayerName, "registered layer name")
	tilesDownloadCmd.Flags().StringVar(&tilesDownloadParams.attribution, "attribution", tiles.DefaultAttribution, "registered attribution")

	tilesCmd.AddCommand(tilesDownloadCmd, tilesServeCmd)
	rootCmd.AddCommand(tilesCmd)
}
