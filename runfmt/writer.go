// Copyright 2026 The runchart Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runfmt

import (
	"encoding/csv"
	"io"
	"math"
)

// WriteRun serializes run as capture CSV that round-trips with
// ReadRun: the header comes from the metric catalog labels, absent
// cells are written empty, and events are written into a reserved
// trailing "event" column on the row whose timestamp exactly matches
// the event time.
func WriteRun(w io.Writer, run *Run) error {
	cw := csv.NewWriter(w)

	hdr := make([]string, 0, len(run.Metrics)+1)
	for _, m := range run.Metrics {
		hdr = append(hdr, m.Label)
	}
	if len(run.Events) > 0 {
		hdr = append(hdr, eventKey)
	}
	if err := cw.Write(hdr); err != nil {
		return err
	}

	rec := make([]string, len(hdr))
	for _, s := range run.Samples {
		for i, m := range run.Metrics {
			rec[i] = ""
			if v, ok := s.Lookup(m.Key); ok {
				rec[i] = v.String()
			}
		}
		if len(run.Events) > 0 {
			rec[len(rec)-1] = eventAt(run.Events, s)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// eventAt returns the name of the event whose time exactly matches
// the sample's timestamp, or "". Events written by the reader always
// coincide with a sample row, so exact match is enough for a
// round-trip; synthetic events between rows are dropped.
func eventAt(events []Event, s *Sample) string {
	t, ok := s.X(AxisTime)
	if !ok {
		return ""
	}
	for _, ev := range events {
		if ev.Time == t && !math.IsNaN(ev.Time) {
			return ev.Name
		}
	}
	return ""
}
