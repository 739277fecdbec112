// Copyright 2026 The runchart Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runfmt

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

const capture = `timestamp,FPS,CPU %,quality,running,event
0,60,40,high,true,start
0.5,58,,high,true,
1,55,45,,false,dip
1.5,,50,low,false,
`

func TestReadRun(t *testing.T) {
	run, err := ReadRun(strings.NewReader(capture), "lap1")
	if err != nil {
		t.Fatalf("ReadRun got err %v, want nil", err)
	}

	wantMetrics := []Metric{
		{Key: "timestamp", Label: "timestamp"},
		{Key: "fps", Label: "FPS"},
		{Key: "cpu", Label: "CPU %", Percent: true},
		{Key: "quality", Label: "quality"},
		{Key: "running", Label: "running"},
	}
	if !reflect.DeepEqual(run.Metrics, wantMetrics) {
		t.Errorf("Metrics got %+v want %+v", run.Metrics, wantMetrics)
	}

	if len(run.Samples) != 4 {
		t.Fatalf("len(Samples) got %d want 4", len(run.Samples))
	}
	s := run.Samples[1]
	if _, ok := s.Lookup("cpu"); ok {
		t.Errorf("empty cell should be absent, got a value")
	}
	if v, _ := s.Lookup("fps"); v != Num(58) {
		t.Errorf("fps got %v want 58", v)
	}
	if v, _ := run.Samples[0].Lookup("quality"); v != Str("high") {
		t.Errorf("quality got %v want high", v)
	}
	if v, _ := run.Samples[2].Lookup("running"); v.IsTrue() {
		t.Errorf("running at t=1 should be false")
	}

	wantEvents := []Event{{Time: 0, Name: "start"}, {Time: 1, Name: "dip"}}
	if !reflect.DeepEqual(run.Events, wantEvents) {
		t.Errorf("Events got %+v want %+v", run.Events, wantEvents)
	}
}

func TestReadRunBarePercentHeaders(t *testing.T) {
	run, err := ReadRun(strings.NewReader("timestamp,CPU,GPU,Battery,FPS\n0,40,30,95,60\n"), "bare")
	if err != nil {
		t.Fatalf("ReadRun got err %v, want nil", err)
	}
	for _, m := range run.Metrics {
		want := m.Key == "cpu" || m.Key == "gpu" || m.Key == "battery"
		if m.Percent != want {
			t.Errorf("metric %q Percent got %v want %v", m.Key, m.Percent, want)
		}
	}
}

func TestReadRunMissingTimestamp(t *testing.T) {
	_, err := ReadRun(strings.NewReader("distance,FPS\n0,60\n"), "bad")
	ferr, ok := err.(*FormatError)
	if !ok {
		t.Fatalf("ReadRun got err %v, want *FormatError", err)
	}
	if ferr.FileName != "bad" || ferr.Line != 1 {
		t.Errorf("FormatError position got %s:%d want bad:1", ferr.FileName, ferr.Line)
	}
}

func TestReadRunEmpty(t *testing.T) {
	if _, err := ReadRun(strings.NewReader(""), "empty"); err == nil {
		t.Errorf("ReadRun of empty input got nil error")
	}
}

func TestReadRunShortRow(t *testing.T) {
	run, err := ReadRun(strings.NewReader("timestamp,FPS\n0,60\n1\n"), "short")
	if err != nil {
		t.Fatalf("ReadRun got err %v, want nil", err)
	}
	if _, ok := run.Samples[1].Lookup("fps"); ok {
		t.Errorf("short row should pad with absent cells")
	}
}

func TestWriteRunRoundTrip(t *testing.T) {
	run, err := ReadRun(strings.NewReader(capture), "lap1")
	if err != nil {
		t.Fatalf("ReadRun got err %v, want nil", err)
	}

	var buf bytes.Buffer
	if err := WriteRun(&buf, run); err != nil {
		t.Fatalf("WriteRun got err %v, want nil", err)
	}
	back, err := ReadRun(&buf, "lap1")
	if err != nil {
		t.Fatalf("re-read got err %v, want nil", err)
	}

	if !reflect.DeepEqual(back.Metrics, run.Metrics) {
		t.Errorf("catalog did not round-trip: got %+v want %+v", back.Metrics, run.Metrics)
	}
	if !reflect.DeepEqual(back.Events, run.Events) {
		t.Errorf("events did not round-trip: got %+v want %+v", back.Events, run.Events)
	}
	if len(back.Samples) != len(run.Samples) {
		t.Fatalf("sample count got %d want %d", len(back.Samples), len(run.Samples))
	}
	for i := range run.Samples {
		if !reflect.DeepEqual(back.Samples[i].Fields, run.Samples[i].Fields) {
			t.Errorf("sample %d did not round-trip: got %+v want %+v", i, back.Samples[i].Fields, run.Samples[i].Fields)
		}
	}
}
