package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/arcsys/arcsys-cli/internal/model"
	"github.com/arcsys/arcsys-cli/internal/store"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage excavation projects",
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		projects, err := st.ListProjects(ctx)
		if err != nil {
			return err
		}

		activeID, err := st.ActiveProjectID(ctx)
		if err != nil && !eris.Is(err, store.ErrNotFound) {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCODE\tNAME\tEPSG\tACTIVE")
		for _, p := range projects {
			epsg := "-"
			if p.EPSG != nil {
				epsg = fmt.Sprintf("%d", *p.EPSG)
			}
			active := ""
			if p.ID == activeID {
				active = "*"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", p.ID, p.Code, p.Name, epsg, active)
		}
		return w.Flush()
	},
}

var (
	projectCreateFile string
	projectCreateSpec struct {
		code    string
		name    string
		epsg    int
		centerX float64
		centerY float64
		centerZ float64
	}
)

var projectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a project from flags or a YAML seed file",
	Long:  "Creates a project from flags, or from a YAML seed file that may also carry trenches, levels and finds for initial load.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if projectCreateFile != "" {
			return seedFromFile(cmd, st, projectCreateFile)
		}

		if projectCreateSpec.code == "" {
			return eris.New("either --file or --code is required")
		}

		p := model.Project{
			Code: projectCreateSpec.code,
			Name: projectCreateSpec.name,
		}
		if cmd.Flags().Changed("epsg") {
			p.EPSG = &projectCreateSpec.epsg
		}
		if cmd.Flags().Changed("center-x") {
			p.CenterX = &projectCreateSpec.centerX
		}
		if cmd.Flags().Changed("center-y") {
			p.CenterY = &projectCreateSpec.centerY
		}
		if cmd.Flags().Changed("center-z") {
			p.CenterZ = &projectCreateSpec.centerZ
		}

		created, err := st.CreateProject(ctx, p)
		if err != nil {
			return err
		}

		zap.L().Info("project created", zap.Int64("id", created.ID), zap.String("code", created.Code))
		fmt.Fprintf(cmd.OutOrStdout(), "created project %d (%s)\n", created.ID, created.Code)
		return nil
	},
}

var projectUseCmd = &cobra.Command{
	Use:   "use <project-id>",
	Short: "Set the active project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var id int64
		if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil || id <= 0 {
			return eris.Errorf("invalid project ID %q", args[0])
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.SetActiveProject(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "active project is now %d\n", id)
		return nil
	},
}

// seedFile is the YAML shape accepted by project create --file.
type seedFile struct {
	Project struct {
		Code    string   `yaml:"code"`
		Name    string   `yaml:"name"`
		EPSG    *int     `yaml:"epsg"`
		CenterX *float64 `yaml:"center_x"`
		CenterY *float64 `yaml:"center_y"`
		CenterZ *float64 `yaml:"center_z"`
	} `yaml:"project"`
	Levels   []string `yaml:"levels"`
	Trenches []struct {
		Code     string `yaml:"code"`
		Name     string `yaml:"name"`
		Vertices []struct {
			X *float64 `yaml:"x"`
			Y *float64 `yaml:"y"`
			Z *float64 `yaml:"z"`
		} `yaml:"vertices"`
	} `yaml:"trenches"`
	Finds []struct {
		Trench      string   `yaml:"trench"`
		Code        string   `yaml:"code"`
		Description string   `yaml:"description"`
		Level       string   `yaml:"level"`
		X           *float64 `yaml:"x"`
		Y           *float64 `yaml:"y"`
		Z           *float64 `yaml:"z"`
	} `yaml:"finds"`
}

func seedFromFile(cmd *cobra.Command, st store.Store, path string) error {
	ctx := cmd.Context()

	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "read seed file %s", path)
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return eris.Wrapf(err, "parse seed file %s", path)
	}
	if seed.Project.Code == "" {
		return eris.Errorf("seed file %s has no project code", path)
	}

	project, err := st.CreateProject(ctx, model.Project{
		Code:    seed.Project.Code,
		Name:    seed.Project.Name,
		EPSG:    seed.Project.EPSG,
		CenterX: seed.Project.CenterX,
		CenterY: seed.Project.CenterY,
		CenterZ: seed.Project.CenterZ,
	})
	if err != nil {
		return err
	}

	levelIDs := make(map[string]int64, len(seed.Levels))
	for _, name := range seed.Levels {
		id, err := st.CreateLevel(ctx, name)
		if err != nil {
			return err
		}
		levelIDs[name] = id
	}

	trenchIDs := make(map[string]int64, len(seed.Trenches))
	for _, t := range seed.Trenches {
		trench := model.Trench{
			ProjectID: project.ID,
			Code:      t.Code,
			Name:      t.Name,
		}
		for i, v := range t.Vertices {
			trench.Vertices = append(trench.Vertices, model.TrenchVertex{
				OrderIndex: i,
				X:          v.X,
				Y:          v.Y,
				Z:          v.Z,
			})
		}
		created, err := st.CreateTrench(ctx, trench)
		if err != nil {
			return err
		}
		trenchIDs[t.Code] = created.ID
	}

	for _, f := range seed.Finds {
		trenchID, ok := trenchIDs[f.Trench]
		if !ok {
			return eris.Errorf("find %s references unknown trench %q", f.Code, f.Trench)
		}
		find := model.Find{
			TrenchID:    trenchID,
			Code:        f.Code,
			Description: f.Description,
			X:           f.X,
			Y:           f.Y,
			Z:           f.Z,
		}
		if f.Level != "" {
			id, ok := levelIDs[f.Level]
			if !ok {
				return eris.Errorf("find %s references unknown level %q", f.Code, f.Level)
			}
			find.LevelID = &id
		}
		if _, err := st.CreateFind(ctx, find); err != nil {
			return err
		}
	}

	zap.L().Info("project seeded",
		zap.Int64("id", project.ID),
		zap.String("code", project.Code),
		zap.Int("trenches", len(seed.Trenches)),
		zap.Int("finds", len(seed.Finds)),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "created project %d (%s) with %d trenches and %d finds\n",
		project.ID, project.Code, len(seed.Trenches), len(seed.Finds))
	return nil
}

func init() {
	projectCreateCmd.Flags().StringVar(&projectCreateFile, "file", "", "YAML seed file")
	projectCreateCmd.Flags().StringVar(&projectCreateSpec.code, "code", "", "project code")
	projectCreateCmd.Flags().StringVar(&projectCreateSpec.name, "name", "", "project name")
	projectCreateCmd.Flags().IntVar(&projectCreateSpec.epsg, "epsg", 0, "EPSG code of the survey CRS")
	projectCreateCmd.Flags().Float64Var(&projectCreateSpec.centerX, "center-x", 0, "site center X in the survey CRS")
	projectCreateCmd.Flags().Float64Var(&projectCreateSpec.centerY, "center-y", 0, "site center Y in the survey CRS")
	projectCreateCmd.Flags().Float64Var(&projectCreateSpec.centerZ, "center-z", 0, "site center elevation")

	projectCmd.AddCommand(projectListCmd, projectCreateCmd, projectUseCmd)
	rootCmd.AddCommand(projectCmd)
}
