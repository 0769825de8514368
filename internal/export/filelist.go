package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/raphaelgruber/targetdiff/internal/models"
)

// FileListHeader is the header row of a file listing.
var FileListHeader = []string{"Type", "Robot/File Name", "File Path", "Type (Old)", "Robot/File Name (Old)", "File Path (Old)"}

// FileListRows returns the listing body: matched pairs, then new-only
// files, then old-only files.
func FileListRows(pairing models.PairResult) [][]string {
	rows := make([][]string, 0, len(pairing.Pairs)+len(pairing.NewOnly)+len(pairing.OldOnly))
	for _, p := range pairing.Pairs {
		rows = append(rows, []string{"New", p.Key, p.New.RelPath, "Old", p.Key, p.Old.RelPath})
	}
	for _, f := range pairing.NewOnly {
		rows = append(rows, []string{"New", f.Key, f.File.RelPath, "", "", ""})
	}
	for _, f := range pairing.OldOnly {
		rows = append(rows, []string{"", "", "", "Old", f.Key, f.File.RelPath})
	}
	return rows
}

// FileListCSV writes the listing followed by a spacer row and the file counts.
func FileListCSV(w io.Writer, pairing models.PairResult) error {
	cw := csv.NewWriter(w)
	records := append([][]string{FileListHeader}, FileListRows(pairing)...)
	records = append(records,
		[]string{""},
		[]string{"Summary"},
		[]string{"New Files Found:", strconv.Itoa(pairing.NewCount)},
		[]string{"Old Files Found:", strconv.Itoa(pairing.OldCount)},
	)
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write file list: %w", err)
	}
	return nil
}

// FileListTable writes the listing as a terminal table.
func FileListTable(w io.Writer, pairing models.PairResult, opts TableOptions) error {
	p := newPainter(opts)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.style(p.theme.Hint)).
		Headers(FileListHeader...).
		Rows(FileListRows(pairing)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return base.Bold(p.color)
			}
			return base
		})
	_, err := fmt.Fprintf(w, "%s\nNew Files Found: %d\nOld Files Found: %d\n",
		t.String(), pairing.NewCount, pairing.OldCount)
	return err
}
