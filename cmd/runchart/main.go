// Copyright 2026 The runchart Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Runchart aligns capture runs and emits merged chart data.
//
// Usage:
//
//	runchart [flags] capture.csv...
//
// Each argument is one capture CSV; "-" reads a capture from standard
// input. The runs are merged onto the x-axis grid of the longest run
// and written as CSV (default), JSON, a summary table, or chart
// images.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/runchart/runchart/mergeseries"
	"github.com/runchart/runchart/runfmt"
	"github.com/runchart/runchart/runmath"
)

func main() {
	var (
		xAxis   = flag.String("x", string(runfmt.AxisTime), "align runs on `axis` (timestamp or distance)")
		metrics = flag.String("metrics", "", "comma-separated metric `keys` to render (default: all)")
		points  = flag.Int("points", 2000, "downsample each series to at most `n` points")
		csv     = flag.Bool("csv", true, "write the merged series as CSV to stdout")
		jsonOut = flag.String("json", "", "save the merged chart data in this json `file`")
		summary = flag.Bool("summary", false, "print per-run metric summaries instead of series data")
		title   = flag.String("title", "runchart", "chart `title`, also the image file name")
		pngDir  = flag.String("png", "", "`directory` to write a png chart into")
		pdfDir  = flag.String("pdf", "", "`directory` to write a pdf chart into")
		svgDir  = flag.String("svg", "", "`directory` to write an svg chart into")
	)
	flag.Parse()
	if flag.NArg() == 0 {
		fail("usage: runchart [flags] capture.csv...\n")
	}

	axis := runfmt.Axis(*xAxis)
	if axis != runfmt.AxisTime && axis != runfmt.AxisDistance {
		fail("unknown x axis %q\n", *xAxis)
	}

	runs, err := runfmt.ReadFiles(flag.Args(), true)
	if err != nil {
		fail("%v\n", err)
	}

	if *summary {
		for _, run := range runs {
			fmt.Printf("%s (%s):\n", run.ID, run.Name)
			for _, s := range runmath.SummarizeAll(run) {
				fmt.Printf("  %-16s n=%-6d mean=%-10.4g median=%-10.4g min=%-10.4g max=%-10.4g\n",
					s.Key, s.Count, s.Mean, s.Median, s.Min, s.Max)
			}
		}
		return
	}

	rendered := renderedMetrics(*metrics, runs)
	res, err := mergeseries.Merge(runs, &mergeseries.Options{
		XAxis:           axis,
		RenderedMetrics: rendered,
		Threshold:       *points,
		Warn:            warn,
	})
	if err != nil {
		fail("%v\n", err)
	}

	if *jsonOut != "" {
		w, err := os.Create(*jsonOut)
		if err != nil {
			fail("could not create JSON output file (flag -json), %v\n", err)
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "\t")
		if err := encoder.Encode(res); err != nil {
			fail("could not write JSON output file (flag -json), %v\n", err)
		}
		if err := w.Close(); err != nil {
			fail("could not write JSON output file (flag -json), %v\n", err)
		}
	}
	if *csv {
		if err := res.ToCsv(os.Stdout); err != nil {
			fail("%v\n", err)
		}
	}
	if *pngDir != "" || *pdfDir != "" || *svgDir != "" {
		if err := mergeseries.Chart(res, *title, *pngDir, *pdfDir, *svgDir); err != nil {
			fail("%v\n", err)
		}
	}
}

// renderedMetrics resolves the -metrics flag: an explicit list, or
// every catalog metric of every run except the axis coordinates and
// the running flag.
func renderedMetrics(flagVal string, runs []*runfmt.Run) []string {
	if flagVal != "" {
		var keys []string
		for _, k := range strings.Split(flagVal, ",") {
			if k = strings.TrimSpace(k); k != "" {
				keys = append(keys, strings.ToLower(k))
			}
		}
		return keys
	}
	seen := make(map[string]bool)
	var keys []string
	for _, run := range runs {
		for _, m := range run.Metrics {
			switch m.Key {
			case string(runfmt.AxisTime), string(runfmt.AxisDistance), "running":
				continue
			}
			if !seen[m.Key] {
				seen[m.Key] = true
				keys = append(keys, m.Key)
			}
		}
	}
	return keys
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}

func warn(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
}
