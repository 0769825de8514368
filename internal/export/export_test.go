package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/raphaelgruber/targetdiff/internal/diff"
	"github.com/raphaelgruber/targetdiff/internal/models"
	"github.com/xuri/excelize/v2"
)

func jointReport() *diff.Report {
	fields := make([]models.FieldDiff, 12)
	for i := range fields {
		fields[i] = models.FieldDiff{Index: i, NewLiteral: "0", OldLiteral: "0"}
	}
	fields[0] = models.FieldDiff{Index: 0, Severity: models.SeverityHigh, NewLiteral: "12", OldLiteral: "10", Delta: 2}
	fields[3] = models.FieldDiff{Index: 3, Severity: models.SeverityLow, NewLiteral: "0.2", OldLiteral: "0", Delta: 0.2}

	added := make([]models.FieldDiff, 12)
	for i := range added {
		added[i] = models.FieldDiff{Index: i, NewLiteral: "1"}
	}

	return &diff.Report{
		RunID:     "run-1",
		Kind:      models.KindJointTarget,
		ItemLabel: "Robot Number",
		Rows: []models.ComparisonRow{
			{
				Status:       models.StatusChanged,
				ItemKey:      "Z01_R01",
				VariableName: "j1",
				NewRawValue:  models.Ptr("[[12,0,0,0.2,0,0],[0,0,0,0,0,0]]"),
				OldRawValue:  models.Ptr("[[10,0,0,0,0,0],[0,0,0,0,0,0]]"),
				FieldDiffs:   fields,
				NewLine:      models.Ptr(4),
				OldLine:      models.Ptr(3),
			},
			{
				Status:       models.StatusAdded,
				ItemKey:      "Z01_R01",
				VariableName: "j9",
				NewRawValue:  models.Ptr("[[1,1,1,1,1,1],[1,1,1,1,1,1]]"),
				FieldDiffs:   added,
				NewLine:      models.Ptr(9),
			},
		},
		Summary: diff.Summary{Changed: 1, Added: 1, High: 1, Low: 1, MatchedItems: 1},
	}
}

func toolReport() *diff.Report {
	return &diff.Report{
		RunID:     "run-2",
		Kind:      models.KindToolData,
		ItemLabel: "SYS File",
		Rows: []models.ComparisonRow{
			{
				Status:       models.StatusChanged,
				ItemKey:      "all_data.sys",
				VariableName: "t_pGripper",
				NewRawValue:  models.Ptr("[TRUE,[[0,0,3.5],[1,0,0,0]]]"),
				OldRawValue:  models.Ptr("[TRUE,[[0,0,3],[1,0,0,0]]]"),
				Highlights:   []models.FieldDiff{{Index: 2, Severity: models.SeverityLow, NewLiteral: "3.5", OldLiteral: "3", Delta: 0.5}},
				NewLine:      models.Ptr(12),
				OldLine:      models.Ptr(11),
			},
			{
				Status:       models.StatusDeleted,
				ItemKey:      "all_data.sys",
				VariableName: "t_pOld",
				OldRawValue:  models.Ptr("[TRUE,[[0,0,1],[1,0,0,0]]]"),
				OldLine:      models.Ptr(20),
			},
		},
		Summary: diff.Summary{Changed: 1, Deleted: 1, Low: 1, MatchedItems: 1},
	}
}

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return records
}

func TestHeader(t *testing.T) {
	tests := []struct {
		name   string
		report *diff.Report
		want   []string
	}{
		{
			name:   "tooldata",
			report: toolReport(),
			want:   []string{"Status", "SYS File", "Variable Name", "New Value", "Old Value", "New Ln", "Old Ln"},
		},
		{
			name:   "jointtarget",
			report: jointReport(),
			want: []string{"Status", "Robot Number", "Variable Name", "New Value", "Old Value",
				"J1 Diff", "J2 Diff", "J3 Diff", "J4 Diff", "J5 Diff", "J6 Diff",
				"Q1 Diff", "Q2 Diff", "Q3 Diff", "Q4 Diff", "Q5 Diff", "Q6 Diff",
				"New Ln", "Old Ln"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Header(tt.report)); diff != "" {
				t.Errorf("Header() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCSV_Joint(t *testing.T) {
	var buf bytes.Buffer
	if err := CSV(&buf, jointReport()); err != nil {
		t.Fatalf("CSV() error = %v", err)
	}
	records := readCSV(t, buf.Bytes())
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	changed := records[1]
	if changed[0] != "Changed" || changed[1] != "Z01_R01" || changed[2] != "j1" {
		t.Errorf("changed row prefix = %v", changed[:3])
	}
	if changed[5] != "2.0000" || changed[8] != "0.2000" || changed[6] != "0.0000" {
		t.Errorf("changed deltas = %v", changed[5:17])
	}
	if changed[17] != "4" || changed[18] != "3" {
		t.Errorf("changed lines = %v", changed[17:])
	}

	added := records[2]
	for i := 5; i < 17; i++ {
		if added[i] != "" {
			t.Errorf("added row delta column %d = %q, want empty", i, added[i])
		}
	}
	if added[4] != "" || added[18] != "" {
		t.Errorf("added row old value/line = %q/%q, want empty", added[4], added[18])
	}
}

func TestCSV_Tool(t *testing.T) {
	var buf bytes.Buffer
	if err := CSV(&buf, toolReport()); err != nil {
		t.Fatalf("CSV() error = %v", err)
	}
	want := [][]string{
		{"Status", "SYS File", "Variable Name", "New Value", "Old Value", "New Ln", "Old Ln"},
		{"Changed", "all_data.sys", "t_pGripper", "[TRUE,[[0,0,3.5],[1,0,0,0]]]", "[TRUE,[[0,0,3],[1,0,0,0]]]", "12", "11"},
		{"Deleted", "all_data.sys", "t_pOld", models.NotFoundMarker, "[TRUE,[[0,0,1],[1,0,0,0]]]", "", "20"},
	}
	if diff := cmp.Diff(want, readCSV(t, buf.Bytes())); diff != "" {
		t.Errorf("CSV mismatch (-want +got):\n%s", diff)
	}
}

func TestJSON(t *testing.T) {
	report := toolReport()
	report.GeneratedAt = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	if err := JSON(&buf, report); err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	var got struct {
		RunID   string           `json:"run_id"`
		Rows    []map[string]any `json:"rows"`
		Summary diff.Summary     `json:"summary"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.RunID != "run-2" || len(got.Rows) != 2 || got.Summary.Deleted != 1 {
		t.Errorf("decoded report = %+v", got)
	}
	if !strings.Contains(buf.String(), `"severity": "low"`) {
		t.Errorf("severity not encoded by name:\n%s", buf.String())
	}
}

func TestTable_Plain(t *testing.T) {
	var buf bytes.Buffer
	if err := Table(&buf, toolReport(), TableOptions{}); err != nil {
		t.Fatalf("Table() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"SYS File", "t_pGripper", "[TRUE,[[0,0,3.5],[1,0,0,0]]]", models.NotFoundMarker, "1 changed, 0 added, 1 deleted", "run-2"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("plain table contains ANSI escapes:\n%q", out)
	}
}

func TestTable_JointCells(t *testing.T) {
	var buf bytes.Buffer
	if err := Table(&buf, jointReport(), TableOptions{}); err != nil {
		t.Fatalf("Table() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"J1", "Q6", "12/10", "0.2/0", "Robot Number"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestHighlight(t *testing.T) {
	raw := "[TRUE,[[0,0,3.5],[1,0,0,0]]]"
	fields := []models.FieldDiff{{Index: 2, Severity: models.SeverityLow}}

	plain := newPainter(TableOptions{})
	if got := plain.highlight(raw, fields); got != raw {
		t.Errorf("plain highlight = %q, want %q", got, raw)
	}

	p := newPainter(TableOptions{Color: true})
	got := p.highlight(raw, fields)
	if !strings.Contains(got, "3.5") || !strings.HasPrefix(got, "[TRUE,[[0,0,") || !strings.HasSuffix(got, ",[1,0,0,0]]]") {
		t.Errorf("highlight(%q) = %q", raw, got)
	}
}

func TestFilter(t *testing.T) {
	rows := toolReport().Rows
	rows = append(rows, models.ComparisonRow{Status: models.StatusAdded, ItemKey: "all_tools.sys", VariableName: "t_pNew"})

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"empty", Filter{}, []string{"t_pGripper", "t_pOld", "t_pNew"}},
		{"item", Filter{Item: "TOOLS"}, []string{"t_pNew"}},
		{"variable", Filter{Variable: "grip"}, []string{"t_pGripper"}},
		{"both", Filter{Item: "data", Variable: "old"}, []string{"t_pOld"}},
		{"none", Filter{Variable: "missing"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []string{}
			for _, r := range tt.filter.Apply(rows) {
				got = append(got, r.VariableName)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSortRows(t *testing.T) {
	base := []models.ComparisonRow{
		{Status: models.StatusDeleted, ItemKey: "b", VariableName: "v10", OldLine: models.Ptr(10)},
		{Status: models.StatusChanged, ItemKey: "a", VariableName: "v2", NewLine: models.Ptr(2), OldLine: models.Ptr(9)},
		{Status: models.StatusAdded, ItemKey: "a", VariableName: "v1", NewLine: models.Ptr(11)},
	}

	tests := []struct {
		column string
		desc   bool
		want   []string
	}{
		{"", false, []string{"v10", "v2", "v1"}},
		{"status", false, []string{"v1", "v2", "v10"}},
		{"item", false, []string{"v2", "v1", "v10"}},
		{"item", true, []string{"v10", "v2", "v1"}},
		{"variable", false, []string{"v1", "v10", "v2"}},
		{"newline", false, []string{"v10", "v2", "v1"}},
		{"newline", true, []string{"v1", "v2", "v10"}},
		{"OldLine", false, []string{"v1", "v2", "v10"}},
	}
	for _, tt := range tests {
		rows := append([]models.ComparisonRow(nil), base...)
		if err := SortRows(rows, tt.column, tt.desc); err != nil {
			t.Fatalf("SortRows(%q) error = %v", tt.column, err)
		}
		got := make([]string, len(rows))
		for i, r := range rows {
			got[i] = r.VariableName
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("SortRows(%q, %v) mismatch (-want +got):\n%s", tt.column, tt.desc, diff)
		}
	}

	if err := SortRows(base, "severity", false); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("SortRows(severity) error = %v, want ErrUnknownColumn", err)
	}
}

func TestFileListCSV(t *testing.T) {
	pairing := models.PairResult{
		Pairs: []models.ItemPair{{
			Key: "R01",
			New: models.FileRef{RelPath: "new/path_R01.mod"},
			Old: models.FileRef{RelPath: "old/path_R01.mod"},
		}},
		NewOnly:  []models.KeyedFile{{Key: "R02", File: models.FileRef{RelPath: "new/path_R02.mod"}}},
		OldOnly:  []models.KeyedFile{{Key: "R03", File: models.FileRef{RelPath: "old/path_R03.mod"}}},
		NewCount: 2,
		OldCount: 2,
	}

	var buf bytes.Buffer
	if err := FileListCSV(&buf, pairing); err != nil {
		t.Fatalf("FileListCSV() error = %v", err)
	}
	want := [][]string{
		FileListHeader,
		{"New", "R01", "new/path_R01.mod", "Old", "R01", "old/path_R01.mod"},
		{"New", "R02", "new/path_R02.mod", "", "", ""},
		{"", "", "", "Old", "R03", "old/path_R03.mod"},
		{"Summary"},
		{"New Files Found:", "2"},
		{"Old Files Found:", "2"},
	}
	if diff := cmp.Diff(want, readCSV(t, buf.Bytes())); diff != "" {
		t.Errorf("file list mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(buf.String(), "\n\nSummary\n") {
		t.Errorf("file list has no spacer row before the summary:\n%s", buf.String())
	}

	buf.Reset()
	if err := FileListTable(&buf, pairing, TableOptions{}); err != nil {
		t.Fatalf("FileListTable() error = %v", err)
	}
	if !strings.Contains(buf.String(), "old/path_R03.mod") || !strings.Contains(buf.String(), "New Files Found: 2") {
		t.Errorf("file list table:\n%s", buf.String())
	}
}

func TestSheetRows(t *testing.T) {
	joint, ok := sheetRows(jointReport()).([]*jointSheetRow)
	if !ok || len(joint) != 2 {
		t.Fatalf("sheetRows(joint) = %T len %d", joint, len(joint))
	}
	if joint[0].J1Diff == nil || *joint[0].J1Diff != 2 || joint[0].Q6Diff == nil || *joint[0].Q6Diff != 0 {
		t.Errorf("changed deltas J1 = %v, Q6 = %v, want 2 and 0", joint[0].J1Diff, joint[0].Q6Diff)
	}
	if joint[0].OldLn == nil || *joint[0].OldLn != 3 {
		t.Errorf("changed OldLn = %v, want 3", joint[0].OldLn)
	}
	if joint[1].J1Diff != nil || joint[1].Q6Diff != nil {
		t.Errorf("added deltas J1 = %v, Q6 = %v, want nil", joint[1].J1Diff, joint[1].Q6Diff)
	}

	tool, ok := sheetRows(toolReport()).([]*valueSheetRow)
	if !ok || len(tool) != 2 {
		t.Fatalf("sheetRows(tool) = %T len %d", tool, len(tool))
	}
	if tool[1].NewValue != models.NotFoundMarker || tool[1].OldLn == nil || *tool[1].OldLn != 20 {
		t.Errorf("tool sheet row = %+v", tool[1])
	}
}

func readXLSX(t *testing.T, report *diff.Report) *excelize.File {
	t.Helper()
	var buf bytes.Buffer
	if err := XLSX(&buf, report); err != nil {
		t.Fatalf("XLSX() error = %v", err)
	}
	book, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	t.Cleanup(func() { book.Close() })
	return book
}

func TestXLSX_Joint(t *testing.T) {
	report := jointReport()
	report.Rows = append(report.Rows, models.ComparisonRow{
		Status:       models.StatusDeleted,
		ItemKey:      "Z01_R01",
		VariableName: "j7",
		OldRawValue:  models.Ptr("[[7,7,7,7,7,7],[7,7,7,7,7,7]]"),
		OldLine:      models.Ptr(8),
	})
	book := readXLSX(t, report)

	if diff := cmp.Diff([]string{SheetName}, book.GetSheetList()); diff != "" {
		t.Errorf("sheets mismatch (-want +got):\n%s", diff)
	}
	rows, err := book.GetRows(SheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("GetRows() = %d rows, want 4", len(rows))
	}
	if diff := cmp.Diff(Header(report), rows[0]); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}

	tests := []struct {
		cell string
		want float64
		fill string
	}{
		{"F2", 2, "FFC7CE"},
		{"G2", 0, ""},
		{"I2", 0.2, "C6EFCE"},
		{"Q2", 0, ""},
	}
	for _, tt := range tests {
		typ, err := book.GetCellType(SheetName, tt.cell)
		if err != nil {
			t.Fatalf("GetCellType(%q) error = %v", tt.cell, err)
		}
		if typ == excelize.CellTypeSharedString || typ == excelize.CellTypeInlineString {
			t.Errorf("GetCellType(%q) = %v, want a number", tt.cell, typ)
		}
		raw, _ := book.GetCellValue(SheetName, tt.cell, excelize.Options{RawCellValue: true})
		got, err := strconv.ParseFloat(raw, 64)
		if err != nil || got != tt.want {
			t.Errorf("GetCellValue(%q) = %q, want %v", tt.cell, raw, tt.want)
		}
		if got := cellFill(t, book, tt.cell); got != tt.fill {
			t.Errorf("fill(%q) = %q, want %q", tt.cell, got, tt.fill)
		}
	}

	// Added and Deleted rows leave every delta blank.
	for _, row := range []int{3, 4} {
		for col := 6; col < 6+len(models.AxisNames); col++ {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			if got, _ := book.GetCellValue(SheetName, cell); got != "" {
				t.Errorf("GetCellValue(%q) = %q, want empty", cell, got)
			}
		}
	}
	if got, _ := book.GetCellValue(SheetName, "D4"); got != models.NotFoundMarker {
		t.Errorf("GetCellValue(%q) = %q, want %q", "D4", got, models.NotFoundMarker)
	}
}

func TestXLSX_Tool(t *testing.T) {
	report := toolReport()
	book := readXLSX(t, report)

	rows, err := book.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	want := [][]string{
		{"Status", "SYS File", "Variable Name", "New Value", "Old Value", "New Ln", "Old Ln"},
		{"Changed", "all_data.sys", "t_pGripper", "[TRUE,[[0,0,3.5],[1,0,0,0]]]", "[TRUE,[[0,0,3],[1,0,0,0]]]", "12", "11"},
		{"Deleted", "all_data.sys", "t_pOld", models.NotFoundMarker, "[TRUE,[[0,0,1],[1,0,0,0]]]", "", "20"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func cellFill(t *testing.T, book *excelize.File, cell string) string {
	t.Helper()
	id, err := book.GetCellStyle(SheetName, cell)
	if err != nil {
		t.Fatalf("GetCellStyle(%q) error = %v", cell, err)
	}
	style, err := book.GetStyle(id)
	if err != nil {
		t.Fatalf("GetStyle(%d) error = %v", id, err)
	}
	if len(style.Fill.Color) == 0 {
		return ""
	}
	return strings.ToUpper(strings.TrimPrefix(style.Fill.Color[0], "#"))
}
