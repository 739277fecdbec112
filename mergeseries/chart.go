// Copyright 2026 The runchart Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mergeseries

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// palette cycles through the series line colors.
var palette = []color.RGBA{
	{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
	{R: 0x8c, G: 0x56, B: 0x4b, A: 0xff},
}

var burstFill = color.NRGBA{R: 0xff, G: 0xd7, B: 0x00, A: 0x50}

// Chart renders the result's datasets as a line chart named title,
// with burst intervals shaded and projected event markers drawn as
// labeled vertical rules. One file per non-empty directory argument
// is written (currently PNG only; the pdf and svg directories are
// accepted for symmetry and reserved).
func Chart(res *Result, title string, pngDir, pdfDir, svgDir string) error {
	doDir := func(s string) {
		if s != "" {
			os.MkdirAll(s, 0777)
		}
	}
	doDir(pngDir)
	doDir(pdfDir)
	doDir(svgDir)

	pl := plot.New()
	pl.Title.Text = title
	pl.Title.TextStyle.Font.Size = 24
	pl.X.Label.Text = string(res.XAxis)
	grid := plotter.NewGrid()
	grid.Vertical.Color = nil
	pl.Add(grid)

	yMin, yMax := math.Inf(1), math.Inf(-1)

	keys := make([]string, 0, len(res.Datasets))
	for k := range res.Datasets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for i, key := range keys {
		clr := palette[i%len(palette)]
		first := true
		// Gaps split a dataset into separately drawn segments.
		for _, seg := range segments(res.Datasets[key]) {
			ln, err := plotter.NewLine(seg)
			if err != nil {
				return fmt.Errorf("chart %q: %v", key, err)
			}
			ln.LineStyle.Color = clr
			ln.LineStyle.Width = vg.Points(1.5)
			pl.Add(ln)
			if first {
				pl.Legend.Add(key, ln)
				first = false
			}
			for _, p := range seg {
				yMin = math.Min(yMin, p.Y)
				yMax = math.Max(yMax, p.Y)
			}
		}
	}
	if yMin > yMax {
		yMin, yMax = 0, 1
	}

	for _, iv := range res.BurstIntervals {
		poly, err := plotter.NewPolygon(plotter.XYs{
			{X: iv[0], Y: yMin}, {X: iv[1], Y: yMin},
			{X: iv[1], Y: yMax}, {X: iv[0], Y: yMax},
		})
		if err != nil {
			return fmt.Errorf("chart burst shading: %v", err)
		}
		poly.Color = burstFill
		poly.LineStyle.Color = color.Transparent
		pl.Add(poly)
	}

	var labels plotter.XYLabels
	for _, m := range res.EventMarkers {
		if !m.Projected {
			continue
		}
		rule, err := plotter.NewLine(plotter.XYs{{X: m.X, Y: yMin}, {X: m.X, Y: yMax}})
		if err != nil {
			return fmt.Errorf("chart event marker: %v", err)
		}
		rule.LineStyle.Color = color.Gray{Y: 0x60}
		rule.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		pl.Add(rule)
		labels.XYs = append(labels.XYs, plotter.XY{X: m.X, Y: yMax})
		labels.Labels = append(labels.Labels, m.Name)
	}
	if len(labels.XYs) > 0 {
		lb, err := plotter.NewLabels(labels)
		if err != nil {
			return fmt.Errorf("chart event labels: %v", err)
		}
		pl.Add(lb)
	}

	pl.Legend.Top = true

	filename := strings.ReplaceAll(title, "/", "-per-")
	if pngDir != "" {
		can := vgimg.PngCanvas{Canvas: vgimg.NewWith(
			vgimg.UseWH(30*vg.Centimeter, 12*vg.Centimeter),
			vgimg.UseDPI(150),
			vgimg.UseBackgroundColor(color.White))}
		file := filepath.Join(pngDir, filename) + ".png"
		f, err := os.Create(file)
		if err != nil {
			return err
		}
		pl.Draw(draw.New(can))
		if _, err := can.WriteTo(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

// segments splits a rendered series at its gaps and NaN coordinates.
func segments(pts []SeriesPoint) []plotter.XYs {
	var segs []plotter.XYs
	var cur plotter.XYs
	for _, p := range pts {
		if p.Missing || math.IsNaN(p.X) {
			if len(cur) > 0 {
				segs = append(segs, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: p.X, Y: p.Y})
	}
	if len(cur) > 0 {
		segs = append(segs, cur)
	}
	return segs
}
