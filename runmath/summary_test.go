// Copyright 2026 The runchart Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runmath

import (
	"math"
	"testing"

	"github.com/runchart/runchart/runfmt"
)

func makeRun(vals []interface{}) *runfmt.Run {
	run := &runfmt.Run{
		ID:      "a",
		Metrics: []runfmt.Metric{{Key: "timestamp", Label: "timestamp"}, {Key: "fps", Label: "FPS"}},
	}
	for i, v := range vals {
		s := new(runfmt.Sample)
		s.Set("timestamp", runfmt.Num(float64(i)))
		switch v := v.(type) {
		case float64:
			s.Set("fps", runfmt.Num(v))
		case string:
			s.Set("fps", runfmt.Str(v))
		}
		run.Samples = append(run.Samples, s)
	}
	return run
}

func TestSummarize(t *testing.T) {
	run := makeRun([]interface{}{50.0, 60.0, "oops", 70.0, nil})
	got := Summarize(run, "fps")
	if got.Count != 3 {
		t.Errorf("Count got %d want 3 (string and absent cells skipped)", got.Count)
	}
	if got.Mean != 60 || got.Median != 60 {
		t.Errorf("Mean/Median got %v/%v want 60/60", got.Mean, got.Median)
	}
	if got.Min != 50 || got.Max != 70 {
		t.Errorf("Bounds got %v..%v want 50..70", got.Min, got.Max)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	run := makeRun([]interface{}{"a", "b"})
	got := Summarize(run, "fps")
	if got.Count != 0 {
		t.Errorf("Count got %d want 0", got.Count)
	}
	if !math.IsNaN(got.Mean) || !math.IsNaN(got.Min) {
		t.Errorf("empty summary statistics should be NaN, got %+v", got)
	}
}

func TestSummarizeAll(t *testing.T) {
	run := makeRun([]interface{}{50.0, 60.0})
	got := SummarizeAll(run)
	if len(got) != 2 {
		t.Fatalf("summary count got %d want 2", len(got))
	}
	if got[0].Key != "timestamp" || got[1].Key != "fps" {
		t.Errorf("summaries out of catalog order: %q, %q", got[0].Key, got[1].Key)
	}
}
