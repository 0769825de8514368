// Package diff matches the declarations of two program versions, grades their
// numeric differences and folds the outcomes into a report.
package diff

import (
	"math"
	"strings"

	"github.com/raphaelgruber/targetdiff/internal/models"
	"github.com/raphaelgruber/targetdiff/internal/parser"
)

// Comparison is the outcome of comparing one old/new value pair.
type Comparison struct {
	Significant bool
	// Fields holds one entry per field index up to the shorter side.
	// It is empty unless the pair is significant and the kind is numeric.
	Fields []models.FieldDiff
}

// Classify tiers a field delta by its magnitude.
func Classify(delta float64) models.Severity {
	abs := math.Abs(delta)
	switch {
	case abs > models.HighThreshold:
		return models.SeverityHigh
	case abs > models.MediumThreshold:
		return models.SeverityMedium
	case abs > models.Tolerance:
		return models.SeverityLow
	default:
		return models.SeverityNone
	}
}

// Compare decides whether two raw values differ and, for numeric kinds,
// grades every field pair.
func Compare(profile models.KindProfile, oldRaw, newRaw string) Comparison {
	if strings.TrimSpace(oldRaw) == strings.TrimSpace(newRaw) {
		return Comparison{}
	}
	result := Comparison{Significant: true}
	if !profile.Numeric {
		return result
	}

	oldFields := parser.Decompose(oldRaw, profile.FixedArity).Flatten()
	newFields := parser.Decompose(newRaw, profile.FixedArity).Flatten()
	n := min(len(oldFields), len(newFields))
	result.Fields = make([]models.FieldDiff, n)
	for i := range n {
		delta := newFields[i].Value - oldFields[i].Value
		result.Fields[i] = models.FieldDiff{
			Index:      i,
			Severity:   Classify(delta),
			NewLiteral: newFields[i].Literal,
			OldLiteral: oldFields[i].Literal,
			Delta:      round4(delta),
		}
	}
	return result
}

// round4 rounds to 4 decimals. Non-finite deltas are reported as 0 so reports
// stay encodable; their severity is taken from the unrounded value.
func round4(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	r := math.Round(v*1e4) / 1e4
	if r == 0 {
		return 0
	}
	return r
}
