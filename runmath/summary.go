// Copyright 2026 The runchart Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runmath computes summary statistics over the metrics of a
// capture run, for run listings and catalog displays.
package runmath

import (
	"math"
	"sort"

	"github.com/aclements/go-moremath/stats"

	"github.com/runchart/runchart/runfmt"
)

// A Summary describes the distribution of one numeric metric across
// a run's samples. Non-numeric and NaN cells are skipped; a metric
// with no numeric cells has Count 0 and NaN statistics.
type Summary struct {
	Key    string  `json:"key"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P05    float64 `json:"p05"`
	P95    float64 `json:"p95"`
}

// Summarize computes the Summary of one metric of run.
func Summarize(run *runfmt.Run, key string) *Summary {
	var xs []float64
	for _, s := range run.Samples {
		v, ok := s.Lookup(key)
		if !ok {
			continue
		}
		f, ok := v.Float()
		if !ok || math.IsNaN(f) {
			continue
		}
		xs = append(xs, f)
	}
	sum := &Summary{Key: key, Count: len(xs)}
	if len(xs) == 0 {
		nan := math.NaN()
		sum.Mean, sum.Median, sum.Min, sum.Max, sum.P05, sum.P95 = nan, nan, nan, nan, nan, nan
		return sum
	}
	sort.Float64s(xs)
	samp := stats.Sample{Xs: xs, Sorted: true}
	sum.Mean = samp.Mean()
	sum.Median = samp.Quantile(0.5)
	sum.Min, sum.Max = samp.Bounds()
	sum.P05 = samp.Quantile(0.05)
	sum.P95 = samp.Quantile(0.95)
	return sum
}

// SummarizeAll summarizes every numeric catalog metric of run, in
// catalog order. Metrics without a single numeric cell are omitted;
// the x-axis fields are kept, since their ranges are useful in run
// listings.
func SummarizeAll(run *runfmt.Run) []*Summary {
	var out []*Summary
	for _, m := range run.Metrics {
		s := Summarize(run, m.Key)
		if s.Count == 0 {
			continue
		}
		out = append(out, s)
	}
	return out
}
