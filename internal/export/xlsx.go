// Package export writes the finds register to spreadsheet form for
// off-site reporting.
package export

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/arcsys/arcsys-cli/internal/model"
	"github.com/arcsys/arcsys-cli/internal/store"
)

var findsHeader = []string{
	"Find Code", "Trench", "Level", "Description", "Found At", "X", "Y", "Z",
}

// FindsXLSX writes every find of a project to an XLSX workbook at outPath.
// Coordinates are exported in the project's survey CRS as stored; blank
// cells mark coordinates that were never recorded.
func FindsXLSX(ctx context.Context, st store.Store, project *model.Project, outPath string) (int, error) {
	finds, err := st.ListFinds(ctx, project.ID)
	if err != nil {
		return 0, err
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Finds")
	if err != nil {
		return 0, eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range findsHeader {
		header.AddCell().Value = h
	}

	for _, find := range finds {
		row := sheet.AddRow()
		row.AddCell().Value = find.Code
		row.AddCell().Value = find.TrenchCode
		row.AddCell().Value = find.LevelName
		row.AddCell().Value = find.Description
		row.AddCell().Value = find.FoundAt
		addFloatCell(row, find.X)
		addFloatCell(row, find.Y)
		addFloatCell(row, find.Z)
	}

	if err := f.Save(outPath); err != nil {
		return 0, eris.Wrapf(err, "export: save %s", outPath)
	}

	zap.L().Info("export: finds register written",
		zap.String("project", project.Code),
		zap.Int("finds", len(finds)),
		zap.String("path", outPath),
	)
	return len(finds), nil
}

func addFloatCell(row *xlsx.Row, v *float64) {
	cell := row.AddCell()
	if v != nil {
		cell.SetFloat(*v)
	}
}
