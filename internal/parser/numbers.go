package parser

import (
	"strconv"

	"github.com/raphaelgruber/targetdiff/internal/models"
	"github.com/viant/parsly"
)

// Span locates a numeric literal within its source string.
type Span struct {
	Start, End int
}

// NumberSpans returns the position of every numeric literal of s in appearance order.
func NumberSpans(s string) []Span {
	cursor := parsly.NewCursor("", []byte(s), 0)
	var spans []Span
	for cursor.Pos < cursor.InputSize {
		matched := cursor.MatchOne(numberMatcher)
		if matched.Code != numberToken {
			cursor.Pos++
			continue
		}
		spans = append(spans, Span{Start: matched.Offset, End: cursor.Pos})
	}
	return spans
}

// ScanNumbers returns every numeric literal of s in appearance order.
func ScanNumbers(s string) []models.NumericField {
	spans := NumberSpans(s)
	fields := make([]models.NumericField, len(spans))
	for i, sp := range spans {
		fields[i] = newField(s[sp.Start:sp.End])
	}
	return fields
}

func newField(literal string) models.NumericField {
	// ParseFloat reports ±Inf with ErrRange for huge exponents; the value is kept.
	value, _ := strconv.ParseFloat(literal, 64)
	return models.NumericField{Value: value, Literal: literal}
}

// Decompose turns a raw value expression into numeric fields.
//
// With fixed set, the first two bracket groups are read as robot and external
// axes and each is padded or truncated to exactly models.AxisCount fields.
// Malformed expressions never fail: missing groups become zero fields.
func Decompose(raw string, fixed bool) models.DecomposedValue {
	if !fixed {
		return models.DecomposedValue{Fields: ScanNumbers(raw)}
	}
	robot, external := axisGroups(raw)
	return models.DecomposedValue{
		Fixed:        true,
		RobotAxes:    fixArity(ScanNumbers(robot)),
		ExternalAxes: fixArity(ScanNumbers(external)),
	}
}

// axisGroups locates the contents of the group opened by the first "[[" and
// of the first ",[" group after it. Groups that cannot be located are empty.
func axisGroups(raw string) (robot, external string) {
	cursor := parsly.NewCursor("", []byte(raw), 0)
	robot, ok := nextGroup(cursor, groupOpenMatcher)
	if !ok {
		return "", ""
	}
	external, _ = nextGroup(cursor, groupNextMatcher)
	return robot, external
}

// nextGroup advances to the next opener and returns the text inside the
// balanced bracket block that follows it.
func nextGroup(cursor *parsly.Cursor, opener *parsly.Token) (string, bool) {
	for cursor.Pos < cursor.InputSize {
		if cursor.MatchOne(opener).Code != opener.Code {
			cursor.Pos++
			continue
		}
		block := cursor.MatchOne(bracketBlockMatcher)
		if block.Code != bracketBlockToken {
			return "", false
		}
		text := block.Text(cursor)
		return text[1 : len(text)-1], true
	}
	return "", false
}

func fixArity(fields []models.NumericField) []models.NumericField {
	out := make([]models.NumericField, models.AxisCount)
	for i := range out {
		if i < len(fields) {
			out[i] = fields[i]
		} else {
			out[i] = models.ZeroField
		}
	}
	return out
}
