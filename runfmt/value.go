// Copyright 2026 The runchart Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runfmt provides the data model and a streaming CSV reader
// and writer for benchmark capture runs.
//
// A capture run is an ordered sequence of samples, each a row of
// metric values indexed by a timestamp and optionally a travelled
// distance. Metric values are loosely typed: a cell may hold a
// number, a boolean, or a free-form string, and may be absent
// entirely. Absence is meaningful (it signals a gap, not a zero), so
// the model makes it an explicit state rather than overloading a zero
// value.
//
// This package is designed to be used with the higher-level packages
// mergeseries and runmath.
package runfmt

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// A Kind discriminates the representations a Value can hold.
type Kind int

const (
	Number Kind = iota
	Boolean
	String
)

// A Value is a single metric cell: a tagged union of number, boolean
// and string. The zero Value is the number 0; absence of a value is
// expressed by a key not being present in a Sample, never by a Value.
type Value struct {
	kind Kind
	num  float64
	b    bool
	str  string
}

// Num returns a numeric Value.
func Num(f float64) Value { return Value{kind: Number, num: f} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: Boolean, b: b} }

// Str returns a string Value.
func Str(s string) Value { return Value{kind: String, str: s} }

// Kind returns the representation v holds.
func (v Value) Kind() Kind { return v.kind }

// Float returns the numeric value of v and whether v is a number.
// It does not coerce booleans or numeric-looking strings.
func (v Value) Float() (float64, bool) {
	if v.kind != Number {
		return 0, false
	}
	return v.num, true
}

// IsTrue reports whether v is the boolean true or the string "true".
// Capture files produced by some frontends serialize status flags as
// strings, so both spellings count.
func (v Value) IsTrue() bool {
	return v.kind == Boolean && v.b || v.kind == String && v.str == "true"
}

// String renders v the way the CSV writer serializes it.
func (v Value) String() string {
	switch v.kind {
	case Boolean:
		return strconv.FormatBool(v.b)
	case String:
		return v.str
	}
	return strconv.FormatFloat(v.num, 'g', -1, 64)
}

// MarshalJSON serializes v as the JSON scalar matching its kind, so
// merged frames keep their full cell detail in JSON exports. JSON has
// no representation for non-finite numbers; those fall back to their
// CSV rendering as a string.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case Boolean:
		return strconv.AppendBool(nil, v.b), nil
	case String:
		return json.Marshal(v.str)
	}
	if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
		return json.Marshal(v.String())
	}
	return strconv.AppendFloat(nil, v.num, 'g', -1, 64), nil
}

// UnmarshalJSON decodes a JSON scalar into the Value kind of the
// matching representation.
func (v *Value) UnmarshalJSON(data []byte) error {
	switch {
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Str(s)
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*v = Bool(data[0] == 't')
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		*v = Num(f)
	}
	return nil
}

// ParseValue parses a CSV cell into a Value. Cells parse as a number
// first, then as a boolean, and fall back to a string.
func ParseValue(s string) Value {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Num(f)
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return Bool(b)
	}
	return Str(s)
}
