package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/raphaelgruber/targetdiff/internal/diff"
	"github.com/raphaelgruber/targetdiff/internal/models"
)

// Header returns the spreadsheet columns of a report.
func Header(report *diff.Report) []string {
	header := []string{"Status", itemLabel(report), "Variable Name", "New Value", "Old Value"}
	if hasAxisColumns(report) {
		for _, axis := range models.AxisNames {
			header = append(header, axis+" Diff")
		}
	}
	return append(header, "New Ln", "Old Ln")
}

// Record flattens one row into spreadsheet cells matching Header.
// Axis deltas are filled for changed joint-target rows only.
func Record(report *diff.Report, row models.ComparisonRow) []string {
	record := []string{
		string(row.Status),
		row.ItemKey,
		row.VariableName,
		row.DisplayNewValue(),
		row.DisplayOldValue(),
	}
	if hasAxisColumns(report) {
		for i := range models.AxisNames {
			cell := ""
			if row.Status == models.StatusChanged && i < len(row.FieldDiffs) {
				cell = strconv.FormatFloat(row.FieldDiffs[i].Delta, 'f', 4, 64)
			}
			record = append(record, cell)
		}
	}
	return append(record, row.DisplayNewLine(), row.DisplayOldLine())
}

// JSON writes the full report as indented JSON.
func JSON(w io.Writer, report *diff.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// CSV writes the header and one record per row.
func CSV(w io.Writer, report *diff.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(report)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range report.Rows {
		if err := cw.Write(Record(report, row)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func hasAxisColumns(report *diff.Report) bool {
	return report.Kind == models.KindJointTarget
}

func itemLabel(report *diff.Report) string {
	if report.ItemLabel != "" {
		return report.ItemLabel
	}
	return "Item"
}
