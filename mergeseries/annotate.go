// Copyright 2026 The runchart Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mergeseries

import (
	"math"
	"sort"

	"github.com/runchart/runchart/runfmt"
)

// statusKey is the boolean run-status flag metric. Frames where any
// participating run reports it active form burst intervals.
const statusKey = "running"

// An EventMarker is a run event projected onto the active x-axis.
// Projected is false when no mapping from the event's timestamp to an
// x coordinate exists; rendering must skip such markers.
type EventMarker struct {
	RunID     string
	Name      string
	X         float64
	Projected bool
}

// projectEvents maps every participating run's events onto the grid.
// On the timestamp axis the projection is the identity. On any other
// axis, each event time is located by nearest-neighbor search in the
// (timestamp, x) pairs its own run contributed to the merged frames.
func projectEvents(runs []*runfmt.Run, frames []*Frame, axis runfmt.Axis) []EventMarker {
	var markers []EventMarker
	for _, run := range runs {
		if len(run.Events) == 0 {
			continue
		}
		if axis == runfmt.AxisTime {
			for _, ev := range run.Events {
				markers = append(markers, EventMarker{run.ID, ev.Name, ev.Time, true})
			}
			continue
		}
		pairs := timeToX(run.ID, frames)
		for _, ev := range run.Events {
			m := EventMarker{RunID: run.ID, Name: ev.Name}
			if len(pairs) > 0 && !math.IsNaN(ev.Time) {
				m.X = pairs[nearestPair(pairs, ev.Time)].x
				m.Projected = true
			}
			markers = append(markers, m)
		}
	}
	return markers
}

type txPair struct{ t, x float64 }

// timeToX collects the numeric (timestamp, x) pairs run contributed
// to the merged frames, sorted by timestamp.
func timeToX(runID string, frames []*Frame) []txPair {
	key := runID + ":" + string(runfmt.AxisTime)
	var pairs []txPair
	for _, f := range frames {
		if math.IsNaN(f.X) {
			continue
		}
		v, ok := f.Fields.Lookup(key)
		if !ok {
			continue
		}
		t, ok := v.Float()
		if !ok || math.IsNaN(t) {
			continue
		}
		pairs = append(pairs, txPair{t, f.X})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].t < pairs[j].t })
	return pairs
}

// nearestPair is the nearest-neighbor search of mergeseries.nearestIdx
// over (timestamp, x) pairs: out-of-range times clamp, exact matches
// return immediately, and equidistant neighbors resolve to the lower
// index.
func nearestPair(pairs []txPair, t float64) int {
	n := len(pairs)
	if t <= pairs[0].t {
		return 0
	}
	if t >= pairs[n-1].t {
		return n - 1
	}
	lo, hi := 0, n-1
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		tm := pairs[mid].t
		if tm == t {
			return mid
		}
		if tm < t {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if t-pairs[lo-1].t <= pairs[lo].t-t {
		return lo - 1
	}
	return lo
}

// burstIntervals extracts the contiguous x-ranges where any
// participating run's status flag is active. A burst must span at
// least two frames; a single flagged frame has no width to render and
// emits nothing. The result is non-overlapping and sorted by start.
func burstIntervals(frames []*Frame, runs []*runfmt.Run) [][2]float64 {
	keys := make([]string, len(runs))
	for i, run := range runs {
		keys[i] = run.ID + ":" + statusKey
	}
	bursting := func(f *Frame) bool {
		if math.IsNaN(f.X) {
			return false // no coordinate to anchor an interval on
		}
		for _, key := range keys {
			if v, ok := f.Fields.Lookup(key); ok && v.IsTrue() {
				return true
			}
		}
		return false
	}

	var out [][2]float64
	start, last := math.NaN(), math.NaN()
	flush := func() {
		if !math.IsNaN(start) && start != last {
			out = append(out, [2]float64{start, last})
		}
		start, last = math.NaN(), math.NaN()
	}
	for _, f := range frames {
		if !bursting(f) {
			flush()
			continue
		}
		if math.IsNaN(start) {
			start = f.X
		}
		last = f.X
	}
	flush()
	return out
}
