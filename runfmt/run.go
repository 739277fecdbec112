// Copyright 2026 The runchart Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runfmt

import (
	"math"
	"sort"
)

// An Axis names the sample field used as the x coordinate.
type Axis string

const (
	// AxisTime indexes samples by the capture timestamp, in seconds.
	AxisTime Axis = "timestamp"
	// AxisDistance indexes samples by travelled distance. Not every
	// capture records it.
	AxisDistance Axis = "distance"
)

// A Field is a single key/value metric cell of a Sample.
type Field struct {
	Key   string
	Value Value
}

// A Sample is one row of a capture run: an ordered set of metric
// fields. Field order is the catalog (column) order and iteration
// over Fields is deterministic.
//
// Sample internally maintains an index of the keys of the Fields
// slice, so callers must use Set to add keys, but may modify values
// in place. For convenience, new Samples can be initialized directly
// with a struct literal.
type Sample struct {
	Fields []Field

	// pos maps from Field.Key to index in Fields. This may be nil,
	// which indicates the index needs to be constructed.
	pos map[string]int
}

// Set sets key to v, overriding or appending the field as necessary.
func (s *Sample) Set(key string, v Value) {
	if i, ok := s.index(key); ok {
		s.Fields[i].Value = v
		return
	}
	s.pos[key] = len(s.Fields)
	s.Fields = append(s.Fields, Field{key, v})
}

// Lookup returns the value for key and whether key is present.
func (s *Sample) Lookup(key string) (Value, bool) {
	if i, ok := s.index(key); ok {
		return s.Fields[i].Value, true
	}
	return Value{}, false
}

func (s *Sample) index(key string) (int, bool) {
	if s.pos == nil {
		// Fresh Sample. Construct the index.
		s.pos = make(map[string]int, len(s.Fields))
		for i, f := range s.Fields {
			s.pos[f.Key] = i
		}
	}
	i, ok := s.pos[key]
	return i, ok
}

// X returns the sample's coordinate on axis. ok is false if the
// field is missing, non-numeric, or NaN.
func (s *Sample) X(axis Axis) (x float64, ok bool) {
	v, ok := s.Lookup(string(axis))
	if !ok {
		return 0, false
	}
	f, ok := v.Float()
	if !ok || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// Clone makes a copy of the Sample that shares no state with s.
func (s *Sample) Clone() *Sample {
	return &Sample{Fields: append([]Field(nil), s.Fields...)}
}

// A Metric describes one column of a run's catalog.
type Metric struct {
	// Key is the canonical field key, e.g. "fps".
	Key string
	// Label is the display name as it appeared in the capture
	// header, e.g. "FPS" or "CPU %".
	Label string
	// Percent marks metrics recorded as percentages, which
	// frontends render on a fixed 0-100 scale.
	Percent bool
}

// An Event is a named point-in-time annotation recorded during a
// capture, e.g. a scene change or a settings toggle.
type Event struct {
	// Time is the capture timestamp of the event, in the same
	// clock as the samples' timestamp field.
	Time float64
	Name string
}

// A Run is one capture session: an identifier, an ordered sample
// sequence, the metric catalog discovered from the capture header,
// and the event log.
type Run struct {
	// ID identifies the run within a merge. IDs namespace metric
	// keys in merged output, so they must be unique among the runs
	// of one invocation.
	ID string
	// SessionID groups runs captured in the same session or on the
	// same map.
	SessionID string
	// Name is the human-readable run name, typically the capture
	// file name.
	Name string

	Samples []*Sample
	Metrics []Metric
	Events  []Event
}

// Clone makes a deep copy of the Run that shares no state with r.
// The merge worker clones runs at its boundary because runs are owned
// by the ingestion side and may be appended to concurrently.
func (r *Run) Clone() *Run {
	r2 := &Run{
		ID:        r.ID,
		SessionID: r.SessionID,
		Name:      r.Name,
		Samples:   make([]*Sample, len(r.Samples)),
		Metrics:   append([]Metric(nil), r.Metrics...),
		Events:    append([]Event(nil), r.Events...),
	}
	for i, s := range r.Samples {
		r2.Samples[i] = s.Clone()
	}
	return r2
}

// SortByAxis sorts the run's samples ascending by their coordinate on
// axis. Samples with a missing, non-numeric or NaN coordinate sort
// after all numeric ones, preserving their relative order. Sorting is
// a prerequisite for the binary searches in package mergeseries and
// must be re-established whenever the active axis changes.
func (r *Run) SortByAxis(axis Axis) {
	sort.SliceStable(r.Samples, func(i, j int) bool {
		xi, oki := r.Samples[i].X(axis)
		xj, okj := r.Samples[j].X(axis)
		if !oki {
			return false
		}
		if !okj {
			return true
		}
		return xi < xj
	})
}

// NumericLen returns the length of the prefix of the (sorted) sample
// sequence that has a numeric coordinate on axis.
func (r *Run) NumericLen(axis Axis) int {
	n := len(r.Samples)
	for n > 0 {
		if _, ok := r.Samples[n-1].X(axis); ok {
			break
		}
		n--
	}
	return n
}

// MaxX returns the greatest coordinate of the run on axis, assuming
// the samples are sorted by axis. It returns -Inf if the run has no
// sample with a numeric coordinate.
func (r *Run) MaxX(axis Axis) float64 {
	n := r.NumericLen(axis)
	if n == 0 {
		return math.Inf(-1)
	}
	x, _ := r.Samples[n-1].X(axis)
	return x
}
