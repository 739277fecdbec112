// Copyright 2026 The runchart Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mergeseries aligns independently sampled capture runs onto
// a single x-axis grid, merges them into wide per-grid-point records,
// bounds the result for rendering, and derives event and burst
// annotations.
//
// The grid is the sample sequence of the backbone run, the
// participating run whose recorded x-domain extends furthest. Other
// runs contribute the nearest sample at or around each grid point,
// found by binary search; a run never contributes past its own
// recorded domain, so shorter runs produce gaps rather than
// extrapolated values.
package mergeseries

import (
	"math"

	"github.com/runchart/runchart/runfmt"
)

// Options configures one merge invocation.
type Options struct {
	// XAxis is the sample field used as the x coordinate.
	XAxis runfmt.Axis

	// RenderedMetrics is the set of metric keys to build datasets
	// for. Merged frames always carry every catalog metric
	// regardless, so point inspection has full detail.
	RenderedMetrics []string

	// Threshold bounds the number of rendered points per series.
	Threshold int

	// Warn is called with diagnostics that do not prevent the
	// merge. If nil, warnings are dropped.
	Warn func(format string, args ...interface{})
}

func (o *Options) warn(format string, args ...interface{}) {
	if o.Warn != nil {
		o.Warn(format, args...)
	}
}

// A Frame is one row of the aligned output: the backbone's x
// coordinate plus a wide record holding, for every participating run,
// every catalog metric of the sample aligned to this grid point under
// a "runID:metricKey" namespace. A key that is absent marks a gap.
type Frame struct {
	// X is the backbone sample's coordinate on the active axis.
	// NaN if the backbone sample itself has no numeric coordinate.
	X float64

	// Fields is the wide record. It carries the backbone's raw
	// "timestamp" unprefixed for convenience, and all namespaced
	// metrics.
	Fields runfmt.Sample
}

// A SeriesPoint is one rendered point of a dataset. Missing marks a
// gap: the metric had no numeric value at this grid point.
type SeriesPoint struct {
	X, Y    float64
	Missing bool
}

// A Result is the output of one merge invocation.
type Result struct {
	XAxis      runfmt.Axis
	BackboneID string

	// Labels are the x coordinates of the downsampled grid.
	Labels []float64

	// Datasets maps "runID:metricKey" to the rendered series,
	// sampled at the downsampled grid points.
	Datasets map[string][]SeriesPoint

	// Frames is the full merged sequence before downsampling, one
	// frame per backbone sample. Point-inspection consumers read
	// arbitrary detail from here.
	Frames []*Frame

	EventMarkers   []EventMarker
	BurstIntervals [][2]float64
}

// Merge runs the full pipeline over runs. It sorts each run's
// samples by opts.XAxis in place; callers that share runs across
// goroutines should go through Worker, which clones at its boundary.
//
// An empty run set or an empty rendered-metric set yields an empty
// but valid Result, not an error.
func Merge(runs []*runfmt.Run, opts *Options) (*Result, error) {
	if opts == nil {
		opts = &Options{}
	}
	axis := opts.XAxis
	if axis == "" {
		axis = runfmt.AxisTime
	}
	res := &Result{XAxis: axis, Datasets: make(map[string][]SeriesPoint)}
	if len(runs) == 0 || len(opts.RenderedMetrics) == 0 {
		return res, nil
	}

	for _, run := range runs {
		run.SortByAxis(axis)
	}

	backbone := selectBackbone(runs, axis)
	if backbone == nil {
		// No run has a numeric coordinate on this axis.
		opts.warn("no run has numeric %q values; empty result\n", axis)
		return res, nil
	}
	res.BackboneID = backbone.ID

	res.Frames = mergeFrames(backbone, runs, axis)

	repKey := representativeKey(backbone, opts.RenderedMetrics)
	selected := downsample(res.Frames, repKey, opts.Threshold, opts.warn)

	res.Labels = make([]float64, len(selected))
	for i, f := range selected {
		res.Labels[i] = f.X
	}
	for _, run := range runs {
		for _, key := range opts.RenderedMetrics {
			if !hasMetric(run, key) {
				continue
			}
			res.Datasets[run.ID+":"+key] = extractSeries(selected, run.ID+":"+key)
		}
	}

	res.EventMarkers = projectEvents(runs, res.Frames, axis)
	res.BurstIntervals = burstIntervals(res.Frames, runs)
	return res, nil
}

// selectBackbone picks the run whose maximum x coordinate is
// strictly greatest; ties keep the first occurrence. It returns nil
// if every run's maximum is -Inf.
func selectBackbone(runs []*runfmt.Run, axis runfmt.Axis) *runfmt.Run {
	var best *runfmt.Run
	bestMax := math.Inf(-1)
	for _, run := range runs {
		if max := run.MaxX(axis); max > bestMax {
			best, bestMax = run, max
		}
	}
	return best
}

// representativeKey returns the namespaced key of the first rendered
// metric present in the backbone's catalog, or "". The downsampler
// preserves the visual shape of this series.
func representativeKey(backbone *runfmt.Run, rendered []string) string {
	for _, key := range rendered {
		if hasMetric(backbone, key) {
			return backbone.ID + ":" + key
		}
	}
	return ""
}

func hasMetric(run *runfmt.Run, key string) bool {
	for _, m := range run.Metrics {
		if m.Key == key {
			return true
		}
	}
	return false
}

// mergeFrames builds one Frame per backbone sample. The frame count
// always equals the backbone sample count, even for backbone samples
// without a numeric coordinate.
func mergeFrames(backbone *runfmt.Run, runs []*runfmt.Run, axis runfmt.Axis) []*Frame {
	type other struct {
		run *runfmt.Run
		n   int     // numeric prefix length
		max float64 // last numeric coordinate
	}
	var others []other
	for _, run := range runs {
		if run == backbone {
			continue
		}
		others = append(others, other{run, run.NumericLen(axis), run.MaxX(axis)})
	}

	frames := make([]*Frame, 0, len(backbone.Samples))
	for _, s := range backbone.Samples {
		f := new(Frame)
		v, ok := s.X(axis)
		if !ok {
			v = math.NaN()
		}
		f.X = v
		if ts, tok := s.Lookup(string(runfmt.AxisTime)); tok {
			f.Fields.Set(string(runfmt.AxisTime), ts)
		}
		copyAligned(f, backbone, s)
		if !ok {
			// Alignment against other runs needs a numeric
			// coordinate; the frame still holds its own fields.
			frames = append(frames, f)
			continue
		}
		for _, o := range others {
			if o.n == 0 || v > o.max {
				continue // explicit gap, never extrapolate
			}
			idx := nearestIdx(o.run.Samples[:o.n], axis, v)
			copyAligned(f, o.run, o.run.Samples[idx])
		}
		frames = append(frames, f)
	}
	return frames
}

// copyAligned copies every catalog metric present in s into f under
// run's namespace, plus the timestamp and running status flag even
// when a hand-built catalog omits them.
func copyAligned(f *Frame, run *runfmt.Run, s *runfmt.Sample) {
	for _, m := range run.Metrics {
		if v, ok := s.Lookup(m.Key); ok {
			f.Fields.Set(run.ID+":"+m.Key, v)
		}
	}
	for _, key := range []string{string(runfmt.AxisTime), statusKey} {
		if _, ok := f.Fields.Lookup(run.ID + ":" + key); ok {
			continue
		}
		if v, ok := s.Lookup(key); ok {
			f.Fields.Set(run.ID+":"+key, v)
		}
	}
}

// extractSeries samples one namespaced metric at the selected frames.
func extractSeries(frames []*Frame, key string) []SeriesPoint {
	pts := make([]SeriesPoint, len(frames))
	for i, f := range frames {
		pts[i] = SeriesPoint{X: f.X, Missing: true}
		if v, ok := f.Fields.Lookup(key); ok {
			if y, ok := v.Float(); ok && !math.IsNaN(y) {
				pts[i] = SeriesPoint{X: f.X, Y: y}
			}
		}
	}
	return pts
}

// nearestIdx returns the index of the sample whose coordinate on axis
// is closest to v. samples must be sorted by axis and every element
// must have a numeric coordinate. When v falls exactly midway between
// two samples the lower index wins; v outside the recorded range
// clamps to the first or last index.
func nearestIdx(samples []*runfmt.Sample, axis runfmt.Axis, v float64) int {
	x := func(i int) float64 {
		f, _ := samples[i].X(axis)
		return f
	}
	n := len(samples)
	if v <= x(0) {
		return 0
	}
	if v >= x(n-1) {
		return n - 1
	}
	// Invariant: x(lo-1) < v <= x(hi) narrowing to lo == hi.
	lo, hi := 0, n-1
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		xm := x(mid)
		if xm == v {
			return mid
		}
		if xm < v {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	// v lies strictly between x(lo-1) and x(lo); the binary search
	// alone cannot tell which neighbor is nearer, so check both.
	// Equidistant neighbors resolve to the lower index.
	if v-x(lo-1) <= x(lo)-v {
		return lo - 1
	}
	return lo
}
