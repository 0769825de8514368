package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/raphaelgruber/targetdiff/internal/diff"
	"github.com/raphaelgruber/targetdiff/internal/models"
	"github.com/viant/tagly/format"
	"github.com/viant/xlsy"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet the report is written to.
const SheetName = "Report"

// Highlight fills of the axis delta cells, keyed by severity.
var severityFills = map[models.Severity]string{
	models.SeverityHigh:   "#FFC7CE", // red
	models.SeverityMedium: "#FFEB9C", // yellow
	models.SeverityLow:    "#C6EFCE", // green
}

// The item column is relabelled per report kind after marshalling.
type valueSheetRow struct {
	Status       string `xls:"name=Status"`
	Item         string `xls:"name=Item,style={width:120px}"`
	VariableName string `xls:"name=Variable Name,style={width:120px}"`
	NewValue     string `xls:"name=New Value,style={width:240px}"`
	OldValue     string `xls:"name=Old Value,style={width:240px}"`
	NewLn        *int   `xls:"name=New Ln"`
	OldLn        *int   `xls:"name=Old Ln"`
}

type jointSheetRow struct {
	Status       string   `xls:"name=Status"`
	Item         string   `xls:"name=Item,style={width:120px}"`
	VariableName string   `xls:"name=Variable Name,style={width:120px}"`
	NewValue     string   `xls:"name=New Value,style={width:240px}"`
	OldValue     string   `xls:"name=Old Value,style={width:240px}"`
	J1Diff       *float64 `xls:"name=J1 Diff,style={width:72px}"`
	J2Diff       *float64 `xls:"name=J2 Diff,style={width:72px}"`
	J3Diff       *float64 `xls:"name=J3 Diff,style={width:72px}"`
	J4Diff       *float64 `xls:"name=J4 Diff,style={width:72px}"`
	J5Diff       *float64 `xls:"name=J5 Diff,style={width:72px}"`
	J6Diff       *float64 `xls:"name=J6 Diff,style={width:72px}"`
	Q1Diff       *float64 `xls:"name=Q1 Diff,style={width:72px}"`
	Q2Diff       *float64 `xls:"name=Q2 Diff,style={width:72px}"`
	Q3Diff       *float64 `xls:"name=Q3 Diff,style={width:72px}"`
	Q4Diff       *float64 `xls:"name=Q4 Diff,style={width:72px}"`
	Q5Diff       *float64 `xls:"name=Q5 Diff,style={width:72px}"`
	Q6Diff       *float64 `xls:"name=Q6 Diff,style={width:72px}"`
	NewLn        *int     `xls:"name=New Ln"`
	OldLn        *int     `xls:"name=Old Ln"`
}

// XLSX writes the report rows as a single worksheet. Axis deltas are numeric
// cells, filled by severity; rows that are not Changed leave them blank.
func XLSX(w io.Writer, report *diff.Report) error {
	marshaller := xlsy.NewMarshaller(xlsy.WithTag(&xlsy.Tag{Tag: &format.Tag{}, WorkSheet: SheetName}))
	data, err := marshaller.Marshal(sheetRows(report))
	if err != nil {
		return fmt.Errorf("marshal xlsx: %w", err)
	}

	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("open xlsx: %w", err)
	}
	defer book.Close()

	if err := book.SetCellStr(SheetName, "B1", itemLabel(report)); err != nil {
		return fmt.Errorf("label item column: %w", err)
	}
	if hasAxisColumns(report) {
		if err := highlightDeltas(book, report); err != nil {
			return err
		}
	}
	if err := book.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// highlightDeltas fills every axis delta cell whose severity is above None.
// Delta columns start right after Old Value.
func highlightDeltas(book *excelize.File, report *diff.Report) error {
	styles := make(map[models.Severity]int, len(severityFills))
	for severity, color := range severityFills {
		id, err := book.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
		})
		if err != nil {
			return fmt.Errorf("create %s style: %w", severity, err)
		}
		styles[severity] = id
	}

	const firstDeltaColumn = 6
	for r, row := range report.Rows {
		if row.Status != models.StatusChanged {
			continue
		}
		for i, field := range row.FieldDiffs {
			id, ok := styles[field.Severity]
			if !ok || i >= len(models.AxisNames) {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(firstDeltaColumn+i, r+2)
			if err != nil {
				return err
			}
			if err := book.SetCellStyle(SheetName, cell, cell, id); err != nil {
				return fmt.Errorf("highlight %s: %w", cell, err)
			}
		}
	}
	return nil
}

// sheetRows converts the report into the struct slice the marshaller expects.
func sheetRows(report *diff.Report) any {
	if hasAxisColumns(report) {
		rows := make([]*jointSheetRow, 0, len(report.Rows))
		for _, row := range report.Rows {
			r := &jointSheetRow{
				Status: string(row.Status), Item: row.ItemKey, VariableName: row.VariableName,
				NewValue: row.DisplayNewValue(), OldValue: row.DisplayOldValue(),
				NewLn: row.NewLine, OldLn: row.OldLine,
			}
			d := axisDeltas(row)
			r.J1Diff, r.J2Diff, r.J3Diff, r.J4Diff, r.J5Diff, r.J6Diff = d[0], d[1], d[2], d[3], d[4], d[5]
			r.Q1Diff, r.Q2Diff, r.Q3Diff, r.Q4Diff, r.Q5Diff, r.Q6Diff = d[6], d[7], d[8], d[9], d[10], d[11]
			rows = append(rows, r)
		}
		return rows
	}
	rows := make([]*valueSheetRow, 0, len(report.Rows))
	for _, row := range report.Rows {
		rows = append(rows, &valueSheetRow{
			Status: string(row.Status), Item: row.ItemKey, VariableName: row.VariableName,
			NewValue: row.DisplayNewValue(), OldValue: row.DisplayOldValue(),
			NewLn: row.NewLine, OldLn: row.OldLine,
		})
	}
	return rows
}

// axisDeltas returns the signed per-axis deltas of a Changed row, nil otherwise.
func axisDeltas(row models.ComparisonRow) []*float64 {
	deltas := make([]*float64, len(models.AxisNames))
	if row.Status != models.StatusChanged {
		return deltas
	}
	for i := range deltas {
		if i < len(row.FieldDiffs) {
			d := row.FieldDiffs[i].Delta
			deltas[i] = &d
		}
	}
	return deltas
}
