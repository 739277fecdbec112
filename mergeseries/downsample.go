// Copyright 2026 The runchart Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mergeseries

import (
	"fmt"
	"math"
)

// downsample bounds frames to at most threshold points. Sequences no
// longer than the threshold are returned as-is, identically. Longer
// sequences are reduced with largest-triangle-three-buckets over the
// representative metric repKey, which keeps the peaks and valleys a
// viewer would notice. Every rendered series is later sampled at the
// same selected frames, so series stay aligned.
//
// If there is no representative metric, or the bucketing fails, the
// reduction degrades to a deterministic uniform stride that may keep
// at most one frame over the threshold.
func downsample(frames []*Frame, repKey string, threshold int, warn func(format string, args ...interface{})) []*Frame {
	if threshold <= 0 || len(frames) <= threshold {
		return frames
	}
	if repKey == "" || threshold < 3 {
		return strideSample(frames, threshold)
	}
	out, err := lttb(frames, repKey, threshold)
	if err != nil {
		warn("downsample: %v; falling back to stride sampling\n", err)
		return strideSample(frames, threshold)
	}
	return out
}

// lttb reduces frames to exactly threshold points with the
// largest-triangle-three-buckets algorithm. The first and last frames
// are always kept; each interior bucket keeps the frame forming the
// largest triangle with the previously selected frame and the
// centroid of the following bucket.
func lttb(frames []*Frame, repKey string, threshold int) (out []*Frame, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("largest-triangle reduction: %v", r)
		}
	}()

	n := len(frames)
	y := func(i int) float64 {
		if v, ok := frames[i].Fields.Lookup(repKey); ok {
			if f, ok := v.Float(); ok && !math.IsNaN(f) {
				return f
			}
		}
		return 0
	}

	out = make([]*Frame, 0, threshold)
	out = append(out, frames[0])
	a := 0 // index of the previously selected frame

	bucket := float64(n-2) / float64(threshold-2)
	for i := 0; i < threshold-2; i++ {
		start := 1 + int(float64(i)*bucket)
		end := 1 + int(float64(i+1)*bucket)
		if end > n-1 {
			end = n - 1
		}

		// Centroid of the next bucket (the last interior bucket
		// averages with the final frame).
		cs := end
		ce := 1 + int(float64(i+2)*bucket)
		if ce > n-1 {
			ce = n - 1
		}
		var cx, cy float64
		cn := 0
		for j := cs; j <= ce; j++ {
			if !math.IsNaN(frames[j].X) {
				cx += frames[j].X
				cy += y(j)
				cn++
			}
		}
		if cn == 0 {
			cx, cy = frames[end].X, y(end)
		} else {
			cx /= float64(cn)
			cy /= float64(cn)
		}

		ax, ay := frames[a].X, y(a)
		bestArea := -1.0
		best := start
		for j := start; j < end; j++ {
			bx := frames[j].X
			if math.IsNaN(bx) {
				continue
			}
			area := math.Abs((ax-cx)*(y(j)-ay)-(ax-bx)*(cy-ay)) / 2
			if area > bestArea {
				bestArea, best = area, j
			}
		}
		out = append(out, frames[best])
		a = best
	}
	out = append(out, frames[n-1])
	return out, nil
}

// strideSample keeps every ceil(n/threshold)-th frame plus the final
// frame, for at most threshold+1 frames.
func strideSample(frames []*Frame, threshold int) []*Frame {
	n := len(frames)
	step := (n + threshold - 1) / threshold
	out := make([]*Frame, 0, threshold+1)
	for i := 0; i < n; i += step {
		out = append(out, frames[i])
	}
	if last := frames[n-1]; out[len(out)-1] != last {
		out = append(out, last)
	}
	return out
}
