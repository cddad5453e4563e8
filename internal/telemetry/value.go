// Package telemetry turns raw simulator output lines into typed snapshots.
//
// The simulator overwrites a flat text file with one line of the form
// "key:value|key:value|..." on every update. Values are either numeric
// (control positions, speeds, distances) or free text (loco, route and
// scenario names). A Snapshot keeps that distinction per field.
package telemetry

import (
	"encoding/json"
	"strconv"
)

// Kind discriminates the two value variants a telemetry field can carry.
type Kind int

const (
	KindNumber Kind = iota
	KindText
)

// Value is a single telemetry field: a number or free text, never both.
type Value struct {
	kind Kind
	num  float64
	text string
}

// Number wraps a numeric field value.
func Number(v float64) Value {
	return Value{kind: KindNumber, num: v}
}

// Text wraps a textual field value.
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Kind reports which variant the value holds.
func (v Value) Kind() Kind { return v.kind }

// Num returns the numeric value, or 0 for text variants.
func (v Value) Num() float64 {
	if v.kind != KindNumber {
		return 0
	}
	return v.num
}

// Text returns the textual value, or "" for numeric variants.
func (v Value) Text() string {
	if v.kind != KindText {
		return ""
	}
	return v.text
}

// MarshalJSON emits the bare number or string so snapshots serialize the
// same way the simulator feed would be read by a display client.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindNumber {
		return json.Marshal(v.num)
	}
	return json.Marshal(v.text)
}

// UnmarshalJSON accepts either a JSON number or string.
func (v *Value) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*v = Number(f)
	return nil
}

// Snapshot is one parsed instant of telemetry, field name to value. It is
// created fresh per parsed line and never mutated afterwards.
type Snapshot map[string]Value

// Has reports whether the snapshot carries the named field.
func (s Snapshot) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Num returns the numeric value of the named field, or 0 when the field is
// absent or textual. Mirrors the permissive coercion of the simulator feed:
// a missing sensor reads as zero rather than failing.
func (s Snapshot) Num(key string) float64 {
	return s[key].Num()
}

// NumOr returns the numeric value of the named field, or def when the field
// is absent or textual.
func (s Snapshot) NumOr(key string, def float64) float64 {
	v, ok := s[key]
	if !ok || v.kind != KindNumber {
		return def
	}
	return v.num
}

// Str returns the textual value of the named field, or "" when the field is
// absent or numeric.
func (s Snapshot) Str(key string) string {
	return s[key].Text()
}
