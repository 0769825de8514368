package models

import "strconv"

// Status is the outcome of matching one record.
type Status string

const (
	StatusChanged Status = "Changed"
	StatusAdded   Status = "Added"
	StatusDeleted Status = "Deleted"
)

// Severity tiers a numeric field delta by its magnitude.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
)

// Severity thresholds on |new - old|; each check is strictly greater-than.
const (
	Tolerance       = 0.01
	MediumThreshold = 0.5
	HighThreshold   = 1.0
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	default:
		return "none"
	}
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// NotFoundMarker stands in for the new value of a deleted declaration.
const NotFoundMarker = "Not found in new file."

// FieldDiff describes one numeric field of a compared value.
type FieldDiff struct {
	Index      int      `json:"index"`
	Severity   Severity `json:"severity"`
	NewLiteral string   `json:"new_literal,omitempty"`
	OldLiteral string   `json:"old_literal,omitempty"`
	// Delta is new - old rounded to 4 decimals; zero unless both sides exist.
	Delta float64 `json:"delta"`
}

// ComparisonRow is one reported declaration outcome.
type ComparisonRow struct {
	Status       Status  `json:"status"`
	ItemKey      string  `json:"item_key"`
	VariableName string  `json:"variable_name"`
	NewRawValue  *string `json:"new_raw_value,omitempty"`
	OldRawValue  *string `json:"old_raw_value,omitempty"`
	// FieldDiffs holds the 12 joint-target fields (J1..J6, Q1..Q6).
	FieldDiffs []FieldDiff `json:"field_diffs,omitempty"`
	// Highlights holds the fields of a changed free-form value that crossed the tolerance.
	Highlights []FieldDiff `json:"highlights,omitempty"`
	NewLine    *int        `json:"new_line,omitempty"`
	OldLine    *int        `json:"old_line,omitempty"`
}

// DisplayNewValue returns the new value, or the not-found marker for deletions.
func (r ComparisonRow) DisplayNewValue() string {
	if r.NewRawValue == nil {
		if r.Status == StatusDeleted {
			return NotFoundMarker
		}
		return ""
	}
	return *r.NewRawValue
}

// DisplayOldValue returns the old value or an empty string.
func (r ComparisonRow) DisplayOldValue() string {
	if r.OldRawValue == nil {
		return ""
	}
	return *r.OldRawValue
}

// DisplayNewLine formats the new line number, empty when absent.
func (r ComparisonRow) DisplayNewLine() string {
	return formatLine(r.NewLine)
}

// DisplayOldLine formats the old line number, empty when absent.
func (r ComparisonRow) DisplayOldLine() string {
	return formatLine(r.OldLine)
}

func formatLine(line *int) string {
	if line == nil {
		return ""
	}
	return strconv.Itoa(*line)
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
