package diff

import (
	"time"

	"github.com/raphaelgruber/targetdiff/internal/models"
)

// Summary counts the outcomes of a run.
type Summary struct {
	Changed int `json:"changed"`
	Added   int `json:"added"`
	Deleted int `json:"deleted"`

	// Field counts per severity tier, over all field diffs and highlights.
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`

	MatchedItems int `json:"matched_items"`
	NewOnlyItems int `json:"new_only_items"`
	OldOnlyItems int `json:"old_only_items"`
}

// Report is the complete result of comparing two file sets.
type Report struct {
	RunID       string                 `json:"run_id"`
	Kind        models.DeclarationKind `json:"kind"`
	ItemLabel   string                 `json:"item_label"`
	NewBase     string                 `json:"new_base"`
	OldBase     string                 `json:"old_base"`
	GeneratedAt time.Time              `json:"generated_at"`

	Rows []models.ComparisonRow `json:"rows"`
	// ItemKeys lists the keys that produced at least one row, in first-seen order.
	ItemKeys []string `json:"item_keys"`
	// VariableNames lists the distinct row variable names in first-seen order.
	VariableNames []string `json:"variable_names"`

	Summary Summary `json:"summary"`
}

// Empty reports whether the run found no differences.
func (r *Report) Empty() bool {
	return len(r.Rows) == 0
}

// Builder folds per-pair match results into a Report.
type Builder struct {
	report   Report
	keys     map[string]struct{}
	variable map[string]struct{}
}

// NewBuilder starts a report for the given run.
func NewBuilder(runID string, profile models.KindProfile, newBase, oldBase string) *Builder {
	return &Builder{
		report: Report{
			RunID:     runID,
			Kind:      profile.Kind,
			ItemLabel: profile.ItemLabel,
			NewBase:   newBase,
			OldBase:   oldBase,
			Rows:      []models.ComparisonRow{},
		},
		keys:     make(map[string]struct{}),
		variable: make(map[string]struct{}),
	}
}

// SetPairing records the item counts of the pairing the run was built from.
func (b *Builder) SetPairing(pairing models.PairResult) {
	b.report.Summary.MatchedItems = len(pairing.Pairs)
	b.report.Summary.NewOnlyItems = len(pairing.NewOnly)
	b.report.Summary.OldOnlyItems = len(pairing.OldOnly)
}

// Add appends the result of one file pair.
func (b *Builder) Add(itemKey string, result Result) {
	if len(result.Rows) > 0 {
		if _, ok := b.keys[itemKey]; !ok {
			b.keys[itemKey] = struct{}{}
			b.report.ItemKeys = append(b.report.ItemKeys, itemKey)
		}
	}
	for _, name := range result.VariableNames {
		if _, ok := b.variable[name]; !ok {
			b.variable[name] = struct{}{}
			b.report.VariableNames = append(b.report.VariableNames, name)
		}
	}
	for _, row := range result.Rows {
		b.count(row)
		b.report.Rows = append(b.report.Rows, row)
	}
}

func (b *Builder) count(row models.ComparisonRow) {
	s := &b.report.Summary
	switch row.Status {
	case models.StatusChanged:
		s.Changed++
	case models.StatusAdded:
		s.Added++
	case models.StatusDeleted:
		s.Deleted++
	}
	fields := row.Highlights
	if len(row.FieldDiffs) > 0 {
		fields = row.FieldDiffs
	}
	for _, f := range fields {
		switch f.Severity {
		case models.SeverityHigh:
			s.High++
		case models.SeverityMedium:
			s.Medium++
		case models.SeverityLow:
			s.Low++
		}
	}
}

// Build stamps the report with the given time and returns it.
func (b *Builder) Build(at time.Time) *Report {
	report := b.report
	report.GeneratedAt = at
	return &report
}
