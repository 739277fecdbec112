// Copyright 2026 The runchart Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runfmt

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"
)

func sampleAt(x float64, extra ...Field) *Sample {
	s := new(Sample)
	s.Set("timestamp", Num(x))
	for _, f := range extra {
		s.Set(f.Key, f.Value)
	}
	return s
}

func TestSampleSetLookup(t *testing.T) {
	s := new(Sample)
	s.Set("fps", Num(60))
	s.Set("running", Bool(true))
	s.Set("fps", Num(58)) // override keeps position

	if got, ok := s.Lookup("fps"); !ok || got != Num(58) {
		t.Errorf("Lookup(fps) got %v, %v; want 58, true", got, ok)
	}
	if _, ok := s.Lookup("cpu"); ok {
		t.Errorf("Lookup(cpu) got ok, want absent")
	}
	wantKeys := []string{"fps", "running"}
	var keys []string
	for _, f := range s.Fields {
		keys = append(keys, f.Key)
	}
	if !reflect.DeepEqual(keys, wantKeys) {
		t.Errorf("field order got %v want %v", keys, wantKeys)
	}
}

func TestValueKinds(t *testing.T) {
	if f, ok := Num(1.5).Float(); !ok || f != 1.5 {
		t.Errorf("Num(1.5).Float() got %v, %v", f, ok)
	}
	if _, ok := Str("1.5").Float(); ok {
		t.Errorf("Str(1.5).Float() got ok, want no coercion")
	}
	for _, v := range []Value{Bool(true), Str("true")} {
		if !v.IsTrue() {
			t.Errorf("%v.IsTrue() = false, want true", v)
		}
	}
	for _, v := range []Value{Bool(false), Str("TRUE"), Num(1)} {
		if v.IsTrue() {
			t.Errorf("%v.IsTrue() = true, want false", v)
		}
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want Value
	}{
		{"60", Num(60)},
		{"-3.25", Num(-3.25)},
		{"true", Bool(true)},
		{"false", Bool(false)},
		{"medium", Str("medium")},
	}
	for _, tc := range tests {
		if got := ParseValue(tc.in); got != tc.want {
			t.Errorf("ParseValue(%q) got %v want %v", tc.in, got, tc.want)
		}
	}
}

func TestValueJSON(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Num(60), "60"},
		{Num(-3.25), "-3.25"},
		{Bool(true), "true"},
		{Bool(false), "false"},
		{Str("medium"), `"medium"`},
		{Str("true"), `"true"`},
	}
	for _, tc := range tests {
		data, err := json.Marshal(tc.v)
		if err != nil {
			t.Errorf("Marshal(%v) got err %v, want nil", tc.v, err)
			continue
		}
		if string(data) != tc.want {
			t.Errorf("Marshal(%v) got %s want %s", tc.v, data, tc.want)
		}
		var back Value
		if err := json.Unmarshal(data, &back); err != nil {
			t.Errorf("Unmarshal(%s) got err %v, want nil", data, err)
			continue
		}
		if back != tc.v {
			t.Errorf("%v did not round-trip: got %v", tc.v, back)
		}
	}

	// JSON cannot carry non-finite numbers; they degrade to their CSV
	// rendering.
	data, err := json.Marshal(Num(math.NaN()))
	if err != nil {
		t.Fatalf("Marshal(NaN) got err %v, want nil", err)
	}
	if string(data) != `"NaN"` {
		t.Errorf("Marshal(NaN) got %s want \"NaN\"", data)
	}
}

func TestSortByAxis(t *testing.T) {
	nanSample := new(Sample)
	nanSample.Set("timestamp", Num(math.NaN()))
	strSample := new(Sample)
	strSample.Set("timestamp", Str("bogus"))

	run := &Run{Samples: []*Sample{sampleAt(3), nanSample, sampleAt(1), strSample, sampleAt(2)}}
	run.SortByAxis(AxisTime)

	var xs []float64
	for _, s := range run.Samples {
		if x, ok := s.X(AxisTime); ok {
			xs = append(xs, x)
		}
	}
	if want := []float64{1, 2, 3}; !reflect.DeepEqual(xs, want) {
		t.Errorf("sorted numeric prefix got %v want %v", xs, want)
	}
	if n := run.NumericLen(AxisTime); n != 3 {
		t.Errorf("NumericLen got %d want 3", n)
	}
	// NaN and non-numeric coordinates sort last, in their original
	// relative order.
	if _, ok := run.Samples[3].X(AxisTime); ok {
		t.Errorf("sample 3 should be non-numeric")
	}
	if run.Samples[4] != strSample {
		t.Errorf("stable order of non-numeric tail lost")
	}
}

func TestMaxX(t *testing.T) {
	run := &Run{Samples: []*Sample{sampleAt(0), sampleAt(10), sampleAt(30)}}
	run.SortByAxis(AxisTime)
	if got := run.MaxX(AxisTime); got != 30 {
		t.Errorf("MaxX got %v want 30", got)
	}
	empty := &Run{}
	if got := empty.MaxX(AxisTime); !math.IsInf(got, -1) {
		t.Errorf("empty MaxX got %v want -Inf", got)
	}
	// distance axis absent entirely
	if got := run.MaxX(AxisDistance); !math.IsInf(got, -1) {
		t.Errorf("MaxX(distance) got %v want -Inf", got)
	}
}

func TestRunClone(t *testing.T) {
	run := &Run{
		ID:      "r1",
		Name:    "lap one",
		Samples: []*Sample{sampleAt(0, Field{"fps", Num(60)})},
		Metrics: []Metric{{Key: "timestamp", Label: "timestamp"}, {Key: "fps", Label: "FPS"}},
		Events:  []Event{{Time: 0, Name: "start"}},
	}
	clone := run.Clone()
	clone.Samples[0].Set("fps", Num(1))
	clone.Metrics[1].Label = "changed"
	clone.Events[0].Name = "changed"

	if v, _ := run.Samples[0].Lookup("fps"); v != Num(60) {
		t.Errorf("clone mutation leaked into original sample: %v", v)
	}
	if run.Metrics[1].Label != "FPS" || run.Events[0].Name != "start" {
		t.Errorf("clone mutation leaked into catalog or events")
	}
}
