package models

// TargetRecord is one declaration found in a file, in file order.
type TargetRecord struct {
	Name     string `json:"name"`
	RawValue string `json:"raw_value"`
	Line     int    `json:"line"`
}

// NumericField is a number found in a value expression.
// Literal keeps the exact source text; Value is its parsed interpretation.
type NumericField struct {
	Value   float64 `json:"value"`
	Literal string  `json:"literal"`
}

// ZeroField is the synthetic padding field.
var ZeroField = NumericField{Value: 0, Literal: "0"}

// AxisCount is the fixed length of each joint-target axis group.
const AxisCount = 6

// DecomposedValue is the numeric view of a value expression.
//
// Fixed values (joint targets) always hold exactly AxisCount robot axes and
// AxisCount external axes. Free-form values hold every number in appearance order.
type DecomposedValue struct {
	Fixed        bool           `json:"fixed"`
	RobotAxes    []NumericField `json:"robot_axes,omitempty"`
	ExternalAxes []NumericField `json:"external_axes,omitempty"`
	Fields       []NumericField `json:"fields,omitempty"`
}

// Flatten returns the fields in comparison order: robot axes then external axes
// for fixed values, appearance order otherwise.
func (d DecomposedValue) Flatten() []NumericField {
	if !d.Fixed {
		return d.Fields
	}
	out := make([]NumericField, 0, len(d.RobotAxes)+len(d.ExternalAxes))
	out = append(out, d.RobotAxes...)
	return append(out, d.ExternalAxes...)
}
