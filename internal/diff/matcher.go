package diff

import (
	"strings"

	"github.com/raphaelgruber/targetdiff/internal/models"
	"github.com/raphaelgruber/targetdiff/internal/parser"
)

// Phase identifies the matching pass that settled a record.
type Phase int

const (
	PhaseExact  Phase = iota // same name, same trimmed value; never reported
	PhaseChange              // same name, value differs
	PhaseAdd                 // new record left over
	PhaseDelete              // old record left over
)

func (p Phase) String() string {
	switch p {
	case PhaseExact:
		return "exact"
	case PhaseChange:
		return "change"
	case PhaseAdd:
		return "add"
	default:
		return "delete"
	}
}

// decision settles one new record, one old record, or one of each.
// An absent side is -1.
type decision struct {
	phase Phase
	new   int
	old   int
}

// Result is the outcome of matching one file pair.
type Result struct {
	Rows []models.ComparisonRow
	// VariableNames lists the distinct names of Rows in first-seen order.
	VariableNames []string
}

// Matcher runs the record matching passes for one declaration kind.
type Matcher struct {
	profile models.KindProfile
	grammar *parser.Grammar
}

// NewMatcher returns a matcher for the given kind profile.
func NewMatcher(profile models.KindProfile) *Matcher {
	return &Matcher{profile: profile, grammar: parser.NewGrammar(profile)}
}

// Profile returns the kind profile the matcher was built with.
func (m *Matcher) Profile() models.KindProfile {
	return m.profile
}

// Diff extracts the declarations of both texts and matches them.
func (m *Matcher) Diff(itemKey, newText, oldText string) Result {
	return m.Match(itemKey, m.grammar.Extract(newText), m.grammar.Extract(oldText))
}

// Match classifies every record of both sequences as unchanged, changed,
// added or deleted and returns the reportable rows in phase order.
func (m *Matcher) Match(itemKey string, newRecords, oldRecords []models.TargetRecord) Result {
	var result Result
	seen := make(map[string]struct{})
	emit := func(row models.ComparisonRow) {
		result.Rows = append(result.Rows, row)
		if _, ok := seen[row.VariableName]; !ok {
			seen[row.VariableName] = struct{}{}
			result.VariableNames = append(result.VariableNames, row.VariableName)
		}
	}

	for _, d := range plan(newRecords, oldRecords) {
		switch d.phase {
		case PhaseChange:
			if row, ok := m.changedRow(itemKey, newRecords[d.new], oldRecords[d.old]); ok {
				emit(row)
			}
		case PhaseAdd:
			emit(m.addedRow(itemKey, newRecords[d.new]))
		case PhaseDelete:
			emit(m.deletedRow(itemKey, oldRecords[d.old]))
		}
	}
	return result
}

// plan runs the four passes. Each record index is claimed by exactly one
// decision; candidates are always taken in file order.
func plan(newRecords, oldRecords []models.TargetRecord) []decision {
	newClaimed := make([]bool, len(newRecords))
	oldClaimed := make([]bool, len(oldRecords))
	var decisions []decision

	for i, rec := range newRecords {
		value := strings.TrimSpace(rec.RawValue)
		j := claimFirst(oldRecords, oldClaimed, func(old models.TargetRecord) bool {
			return old.Name == rec.Name && strings.TrimSpace(old.RawValue) == value
		})
		if j >= 0 {
			newClaimed[i] = true
			decisions = append(decisions, decision{phase: PhaseExact, new: i, old: j})
		}
	}

	for i, rec := range newRecords {
		if newClaimed[i] {
			continue
		}
		j := claimFirst(oldRecords, oldClaimed, func(old models.TargetRecord) bool {
			return old.Name == rec.Name
		})
		if j >= 0 {
			newClaimed[i] = true
			decisions = append(decisions, decision{phase: PhaseChange, new: i, old: j})
		}
	}

	for i := range newRecords {
		if !newClaimed[i] {
			newClaimed[i] = true
			decisions = append(decisions, decision{phase: PhaseAdd, new: i, old: -1})
		}
	}
	for j := range oldRecords {
		if !oldClaimed[j] {
			oldClaimed[j] = true
			decisions = append(decisions, decision{phase: PhaseDelete, new: -1, old: j})
		}
	}
	return decisions
}

// claimFirst marks and returns the first unclaimed record accepted by match, or -1.
func claimFirst(records []models.TargetRecord, claimed []bool, match func(models.TargetRecord) bool) int {
	for j, rec := range records {
		if claimed[j] || !match(rec) {
			continue
		}
		claimed[j] = true
		return j
	}
	return -1
}

func (m *Matcher) changedRow(itemKey string, newRec, oldRec models.TargetRecord) (models.ComparisonRow, bool) {
	cmp := Compare(m.profile, oldRec.RawValue, newRec.RawValue)
	if !cmp.Significant {
		return models.ComparisonRow{}, false
	}
	row := models.ComparisonRow{
		Status:       models.StatusChanged,
		ItemKey:      itemKey,
		VariableName: newRec.Name,
		NewRawValue:  models.Ptr(newRec.RawValue),
		OldRawValue:  models.Ptr(oldRec.RawValue),
		NewLine:      models.Ptr(newRec.Line),
		OldLine:      models.Ptr(oldRec.Line),
	}
	if m.profile.FixedArity {
		row.FieldDiffs = cmp.Fields
		return row, true
	}
	for _, f := range cmp.Fields {
		if f.Severity != models.SeverityNone {
			row.Highlights = append(row.Highlights, f)
		}
	}
	return row, true
}

func (m *Matcher) addedRow(itemKey string, rec models.TargetRecord) models.ComparisonRow {
	row := models.ComparisonRow{
		Status:       models.StatusAdded,
		ItemKey:      itemKey,
		VariableName: rec.Name,
		NewRawValue:  models.Ptr(rec.RawValue),
		NewLine:      models.Ptr(rec.Line),
	}
	if m.profile.FixedArity {
		for i, f := range parser.Decompose(rec.RawValue, true).Flatten() {
			row.FieldDiffs = append(row.FieldDiffs, models.FieldDiff{Index: i, NewLiteral: f.Literal})
		}
	}
	return row
}

func (m *Matcher) deletedRow(itemKey string, rec models.TargetRecord) models.ComparisonRow {
	row := models.ComparisonRow{
		Status:       models.StatusDeleted,
		ItemKey:      itemKey,
		VariableName: rec.Name,
		OldRawValue:  models.Ptr(rec.RawValue),
		OldLine:      models.Ptr(rec.Line),
	}
	if m.profile.FixedArity {
		for i, f := range parser.Decompose(rec.RawValue, true).Flatten() {
			row.FieldDiffs = append(row.FieldDiffs, models.FieldDiff{Index: i, OldLiteral: f.Literal})
		}
	}
	return row
}
