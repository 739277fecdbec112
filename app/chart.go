// Copyright 2026 The runchart Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"math"
	"net/http"
	"sort"
	"strconv"

	ggtable "github.com/aclements/go-gg/table"

	"github.com/runchart/runchart/mergeseries"
	"github.com/runchart/runchart/runfmt"
)

// chart handles GET /chart. It loads the requested runs, merges them
// on the worker, and responds with either the JSON chart payload
// (?format=json, the default) or an HTML page embedding a
// google.visualization DataTable (?format=html).
//
// Query parameters: run (repeatable, required), x (timestamp or
// distance), metric (repeatable; default: every non-axis catalog
// metric), points (downsample threshold, default 2000).
func (a *App) chart(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		errorJSON(w, http.StatusBadRequest, "%v", err)
		return
	}
	runIDs := r.Form["run"]
	if len(runIDs) == 0 {
		errorJSON(w, http.StatusBadRequest, "missing run parameter")
		return
	}
	axis := runfmt.AxisTime
	switch x := r.Form.Get("x"); x {
	case "", string(runfmt.AxisTime):
	case string(runfmt.AxisDistance):
		axis = runfmt.AxisDistance
	default:
		errorJSON(w, http.StatusBadRequest, "unknown x axis %q", x)
		return
	}
	points := 2000
	if p := r.Form.Get("points"); p != "" {
		var err error
		if points, err = strconv.Atoi(p); err != nil || points <= 0 {
			errorJSON(w, http.StatusBadRequest, "points must be a positive integer")
			return
		}
	}

	runs := make([]*runfmt.Run, 0, len(runIDs))
	for _, id := range runIDs {
		run, err := a.DB.LoadRun(r.Context(), id)
		if err != nil {
			errorJSON(w, http.StatusBadRequest, "%v", err)
			return
		}
		runs = append(runs, run)
	}

	metrics := r.Form["metric"]
	if len(metrics) == 0 {
		metrics = defaultMetrics(runs)
	}

	resp := <-a.Worker.Do(&mergeseries.Request{
		Runs:            runs,
		XAxis:           axis,
		RenderedMetrics: metrics,
		Threshold:       points,
	})
	if resp.Err != nil {
		errorJSON(w, http.StatusInternalServerError, "%v", resp.Err)
		return
	}

	switch r.Form.Get("format") {
	case "", "json":
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chartJSON(resp.Result))
	case "html":
		a.chartHTML(w, resp.Result)
	default:
		errorJSON(w, http.StatusBadRequest, "unknown format %q", r.Form.Get("format"))
	}
}

// defaultMetrics is the rendered set when the query names none:
// every catalog metric of every run except the axis coordinates and
// the status flag.
func defaultMetrics(runs []*runfmt.Run) []string {
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
	sort.Strings(keys)
	return keys
}

type jsonPoint struct {
	X float64  `json:"x"`
	Y *float64 `json:"y"`
}

type jsonMarker struct {
	Run  string   `json:"run"`
	Name string   `json:"name"`
	X    *float64 `json:"x"`
}

type chartPayload struct {
	Labels         []float64              `json:"labels"`
	Datasets       map[string][]jsonPoint `json:"datasets"`
	EventMarkers   []jsonMarker           `json:"eventMarkers"`
	BurstIntervals [][2]float64           `json:"burstIntervals"`
}

// chartJSON converts a merge result to the wire payload. Grid points
// without a numeric x cannot be rendered and are dropped; gaps become
// null y values.
func chartJSON(res *mergeseries.Result) *chartPayload {
	keep := make([]int, 0, len(res.Labels))
	for i, x := range res.Labels {
		if !math.IsNaN(x) {
			keep = append(keep, i)
		}
	}

	out := &chartPayload{
		Labels:         make([]float64, 0, len(keep)),
		Datasets:       make(map[string][]jsonPoint, len(res.Datasets)),
		BurstIntervals: res.BurstIntervals,
	}
	if out.BurstIntervals == nil {
		out.BurstIntervals = [][2]float64{}
	}
	for _, i := range keep {
		out.Labels = append(out.Labels, res.Labels[i])
	}
	for key, pts := range res.Datasets {
		jpts := make([]jsonPoint, 0, len(keep))
		for _, i := range keep {
			p := pts[i]
			jp := jsonPoint{X: p.X}
			if !p.Missing && !math.IsNaN(p.Y) {
				y := p.Y
				jp.Y = &y
			}
			jpts = append(jpts, jp)
		}
		out.Datasets[key] = jpts
	}
	out.EventMarkers = make([]jsonMarker, 0, len(res.EventMarkers))
	for _, m := range res.EventMarkers {
		jm := jsonMarker{Run: m.RunID, Name: m.Name}
		if m.Projected && !math.IsNaN(m.X) {
			x := m.X
			jm.X = &x
		}
		out.EventMarkers = append(out.EventMarkers, jm)
	}
	return out
}

// chartTemplate is the page served for ?format=html. PlotData is a
// google.visualization DataTable literal.
var chartTemplate = template.Must(template.New("chart").Parse(`<!DOCTYPE html>
<html>
<head>
<title>runchart</title>
<script type="text/javascript" src="https://www.gstatic.com/charts/loader.js"></script>
<script type="text/javascript">
google.charts.load('current', {packages: ['corechart']});
google.charts.setOnLoadCallback(function() {
	var data = new google.visualization.DataTable({{.PlotData}});
	var chart = new google.visualization.LineChart(document.getElementById('chart'));
	chart.draw(data, {interpolateNulls: false, hAxis: {title: {{.XAxis}}}});
});
</script>
</head>
<body>
<div id="chart" style="width: 100%; height: 600px"></div>
{{if .Markers}}
<h2>Events</h2>
<table>
<tr><th>run</th><th>event</th><th>x</th></tr>
{{range .Markers}}<tr><td>{{.Run}}</td><td>{{.Name}}</td><td>{{if .X}}{{.X}}{{else}}&mdash;{{end}}</td></tr>
{{end}}
</table>
{{end}}
</body>
</html>
`))

type chartPage struct {
	XAxis    string
	PlotData template.JS
	Markers  []jsonMarker
}

// chartHTML renders the result as a page. The datasets are pivoted
// into one table, x plus one column per dataset, via a go-gg table
// builder so the column set stays deterministic.
func (a *App) chartHTML(w http.ResponseWriter, res *mergeseries.Result) {
	payload := chartJSON(res)

	keys := make([]string, 0, len(payload.Datasets))
	for k := range payload.Datasets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tab := new(ggtable.Builder).Add("x", payload.Labels)
	for _, k := range keys {
		col := make([]float64, len(payload.Labels))
		for i, p := range payload.Datasets[k] {
			if p.Y != nil {
				col[i] = *p.Y
			} else {
				col[i] = math.NaN() // rendered as null
			}
		}
		tab.Add(k, col)
	}

	page := &chartPage{
		XAxis:    string(res.XAxis),
		PlotData: tableToJS(tab.Done(), append([]string{"x"}, keys...)),
		Markers:  payload.EventMarkers,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := chartTemplate.Execute(w, page); err != nil {
		errorJSON(w, http.StatusInternalServerError, "%v", err)
	}
}

// tableToJS converts a go-gg Table to a javascript literal which can
// be passed to "new google.visualization.DataTable". NaN cells are
// emitted as null so line charts show gaps instead of zeros.
func tableToJS(t *ggtable.Table, columns []string) template.JS {
	var out bytes.Buffer
	fmt.Fprint(&out, "{cols: [")
	var cols [][]float64
	for i, name := range columns {
		if i > 0 {
			fmt.Fprint(&out, ",\n")
		}
		cols = append(cols, t.MustColumn(name).([]float64))
		meta, err := json.Marshal(map[string]string{"id": name, "label": name, "type": "number"})
		if err != nil {
			panic(err)
		}
		out.Write(meta)
	}
	fmt.Fprint(&out, "],\nrows: [")
	for i := 0; i < t.Len(); i++ {
		if i > 0 {
			fmt.Fprint(&out, ",\n")
		}
		fmt.Fprint(&out, "{c:[")
		for j := range columns {
			if j > 0 {
				fmt.Fprint(&out, ", ")
			}
			v := cols[j][i]
			if math.IsNaN(v) {
				fmt.Fprint(&out, "{v: null}")
			} else {
				fmt.Fprintf(&out, "{v: %g}", v)
			}
		}
		fmt.Fprint(&out, "]}")
	}
	fmt.Fprint(&out, "]}")
	return template.JS(out.String())
}
