package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arcsys/arcsys-cli/internal/config"
	"github.com/arcsys/arcsys-cli/internal/model"
	"github.com/arcsys/arcsys-cli/internal/store"
)

var cfg *config.Config

var projectFlag int64

var rootCmd = &cobra.Command{
	Use:   "arcsys",
	Short: "Excavation mapping toolkit",
	Long:  "Manages excavation projects in a local SQLite database and compiles trenches, finds and map layers into renderable WGS84 map bundles.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().Int64Var(&projectFlag, "project", 0, "project ID (defaults to the active project)")
}

// openStore opens the configured SQLite database. Callers own the Close.
func openStore(_ context.Context) (store.Store, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "open database %s", cfg.Store.Path)
	}
	return st, nil
}

// resolveProject turns the --project flag, or the persisted active-project
// setting when the flag is absent, into an explicit project context.
func resolveProject(ctx context.Context, st store.Store) (model.ProjectContext, error) {
	if projectFlag > 0 {
		return model.ProjectContext{ProjectID: projectFlag}, nil
	}
	id, err := st.ActiveProjectID(ctx)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			return model.ProjectContext{}, eris.New("no projects exist yet, create one with 'arcsys project create'")
		}
		return model.ProjectContext{}, err
	}
	return model.ProjectContext{ProjectID: id}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
