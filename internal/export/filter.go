// Package export renders comparison reports and file listings as terminal
// tables, JSON, CSV and XLSX.
package export

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/raphaelgruber/targetdiff/internal/models"
)

// ErrUnknownColumn is returned for a sort column that does not exist.
var ErrUnknownColumn = errors.New("unknown sort column")

// Sort columns.
const (
	ColumnStatus   = "status"
	ColumnItem     = "item"
	ColumnVariable = "variable"
	ColumnNewLine  = "newline"
	ColumnOldLine  = "oldline"
)

// Columns lists the sortable columns.
func Columns() []string {
	return []string{ColumnStatus, ColumnItem, ColumnVariable, ColumnNewLine, ColumnOldLine}
}

// Filter keeps rows whose item key and variable name contain the given
// texts, case-insensitively. Empty texts match everything.
type Filter struct {
	Item     string
	Variable string
}

// Apply returns the rows accepted by the filter, in their original order.
func (f Filter) Apply(rows []models.ComparisonRow) []models.ComparisonRow {
	item := strings.ToLower(f.Item)
	variable := strings.ToLower(f.Variable)
	out := make([]models.ComparisonRow, 0, len(rows))
	for _, r := range rows {
		if item != "" && !strings.Contains(strings.ToLower(r.ItemKey), item) {
			continue
		}
		if variable != "" && !strings.Contains(strings.ToLower(r.VariableName), variable) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// SortRows stably sorts rows in place by column. Line columns compare
// numerically with absent lines first; other columns compare lexically.
func SortRows(rows []models.ComparisonRow, column string, desc bool) error {
	var compare func(a, b models.ComparisonRow) int
	switch strings.ToLower(column) {
	case "":
		return nil
	case ColumnStatus:
		compare = func(a, b models.ComparisonRow) int { return cmp.Compare(a.Status, b.Status) }
	case ColumnItem:
		compare = func(a, b models.ComparisonRow) int { return cmp.Compare(a.ItemKey, b.ItemKey) }
	case ColumnVariable:
		compare = func(a, b models.ComparisonRow) int { return cmp.Compare(a.VariableName, b.VariableName) }
	case ColumnNewLine:
		compare = func(a, b models.ComparisonRow) int { return compareLines(a.NewLine, b.NewLine) }
	case ColumnOldLine:
		compare = func(a, b models.ComparisonRow) int { return compareLines(a.OldLine, b.OldLine) }
	default:
		return fmt.Errorf("%w: %q (want one of %s)", ErrUnknownColumn, column, strings.Join(Columns(), ", "))
	}
	if desc {
		asc := compare
		compare = func(a, b models.ComparisonRow) int { return asc(b, a) }
	}
	slices.SortStableFunc(rows, compare)
	return nil
}

func compareLines(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return cmp.Compare(*a, *b)
}
