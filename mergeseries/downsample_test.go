// Copyright 2026 The runchart Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mergeseries

import (
	"math"
	"testing"

	"github.com/runchart/runchart/runfmt"
)

func makeFrames(n int, y func(i int) float64) []*Frame {
	frames := make([]*Frame, n)
	for i := range frames {
		f := &Frame{X: float64(i)}
		f.Fields.Set("a:fps", runfmt.Num(y(i)))
		frames[i] = f
	}
	return frames
}

func discard(format string, args ...interface{}) {}

// Under the threshold, downsampling is the identity, exactly.
func TestDownsampleNoop(t *testing.T) {
	frames := makeFrames(4, func(i int) float64 { return float64(i) })
	got := downsample(frames, "a:fps", 10, discard)
	if len(got) != len(frames) {
		t.Fatalf("length got %d want %d", len(got), len(frames))
	}
	for i := range frames {
		if got[i] != frames[i] {
			t.Errorf("frame %d is not the identical frame", i)
		}
	}
}

func TestDownsampleExactCount(t *testing.T) {
	frames := makeFrames(5000, func(i int) float64 { return math.Sin(float64(i) / 100) })
	got := downsample(frames, "a:fps", 2000, discard)
	if len(got) != 2000 {
		t.Fatalf("length got %d want exactly 2000", len(got))
	}
	if got[0].X != 0 || got[len(got)-1].X != 4999 {
		t.Errorf("endpoints got %v..%v want 0..4999", got[0].X, got[len(got)-1].X)
	}
	// Selected frames stay in x order.
	for i := 1; i < len(got); i++ {
		if got[i].X <= got[i-1].X {
			t.Fatalf("selected frames out of order at %d: %v <= %v", i, got[i].X, got[i-1].X)
		}
	}
}

// The bucketing keeps visually dominant extremes: a lone spike in an
// otherwise flat series must survive heavy reduction.
func TestDownsampleKeepsSpike(t *testing.T) {
	frames := makeFrames(5000, func(i int) float64 {
		if i == 2500 {
			return 1000
		}
		return 10
	})
	got := downsample(frames, "a:fps", 100, discard)
	found := false
	for _, f := range got {
		if f.X == 2500 {
			found = true
		}
	}
	if !found {
		t.Errorf("spike at x=2500 was dropped by downsampling")
	}
}

// Missing representative values count as zero, not as an error.
func TestDownsampleSparseRepresentative(t *testing.T) {
	frames := make([]*Frame, 100)
	for i := range frames {
		f := &Frame{X: float64(i)}
		if i%3 == 0 {
			f.Fields.Set("a:fps", runfmt.Num(float64(i)))
		}
		frames[i] = f
	}
	got := downsample(frames, "a:fps", 10, discard)
	if len(got) > 10 {
		t.Errorf("length got %d want <= 10", len(got))
	}
}

// Without a representative metric the deterministic stride fallback
// applies, which may keep one frame over the threshold.
func TestDownsampleStrideFallback(t *testing.T) {
	frames := makeFrames(1000, func(i int) float64 { return float64(i) })
	got := downsample(frames, "", 30, discard)
	if len(got) > 31 {
		t.Fatalf("fallback length got %d want <= threshold+1 (31)", len(got))
	}
	again := downsample(frames, "", 30, discard)
	if len(again) != len(got) {
		t.Fatalf("fallback is not deterministic: %d vs %d", len(again), len(got))
	}
	for i := range got {
		if got[i] != again[i] {
			t.Fatalf("fallback is not deterministic at %d", i)
		}
	}
	if got[len(got)-1].X != 999 {
		t.Errorf("fallback dropped the final frame: last x %v", got[len(got)-1].X)
	}
}

// Thresholds too small for triangle bucketing also take the stride
// path and stay bounded.
func TestDownsampleTinyThreshold(t *testing.T) {
	frames := makeFrames(100, func(i int) float64 { return float64(i) })
	for _, threshold := range []int{1, 2} {
		got := downsample(frames, "a:fps", threshold, discard)
		if len(got) > threshold+1 {
			t.Errorf("threshold %d: length got %d want <= %d", threshold, len(got), threshold+1)
		}
	}
}

// The bucketed path never exceeds the threshold for a range of sizes.
func TestDownsampleBounded(t *testing.T) {
	for _, n := range []int{10, 11, 99, 100, 101, 997} {
		frames := makeFrames(n, func(i int) float64 { return math.Cos(float64(i)) })
		for _, threshold := range []int{3, 7, 10, 50} {
			got := downsample(frames, "a:fps", threshold, discard)
			want := n
			if threshold < want {
				want = threshold
			}
			if len(got) > want {
				t.Errorf("n=%d threshold=%d: length got %d want <= %d", n, threshold, len(got), want)
			}
		}
	}
}
