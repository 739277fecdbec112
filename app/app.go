// Copyright 2026 The runchart Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package app implements the runchart analysis server. Combine an
// App with a database to get an HTTP server that accepts capture
// uploads and serves aligned multi-run chart data.
package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/runchart/runchart/mergeseries"
	"github.com/runchart/runchart/runfmt"
	"github.com/runchart/runchart/runmath"
	"github.com/runchart/runchart/storage/db"
)

// App manages the analysis server logic. Construct an App instance
// with a DB and a merge Worker and call RegisterOnMux to connect it
// with an HTTP server. The Worker is owned by the App: one App is
// one chart context, so responses stay in request order.
type App struct {
	DB     *db.DB
	Worker *mergeseries.Worker
}

// RegisterOnMux registers the app's URLs on mux.
func (a *App) RegisterOnMux(mux *http.ServeMux) {
	mux.HandleFunc("/upload", a.upload)
	mux.HandleFunc("/runs", a.runs)
	mux.HandleFunc("/chart", a.chart)
}

// errorJSON writes the structured error response consumed by the
// frontend; the caller is responsible for user-visible messaging.
func errorJSON(w http.ResponseWriter, status int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("app: %s", msg)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{"message": msg},
	})
}

// upload handles POST /upload. Each file of the multipart form is
// parsed as one capture CSV; the optional "session" field groups the
// uploads. It responds with the assigned run IDs.
func (a *App) upload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		errorJSON(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	mr, err := r.MultipartReader()
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "parse upload: %v", err)
		return
	}

	session := ""
	var ids []string
	for {
		p, err := mr.NextPart()
		if err != nil {
			break
		}
		if p.FormName() == "session" {
			var buf [256]byte
			n, _ := p.Read(buf[:])
			session = string(buf[:n])
			continue
		}
		if p.FileName() == "" {
			continue
		}
		run, err := runfmt.ReadRun(p, p.FileName())
		if err != nil {
			errorJSON(w, http.StatusBadRequest, "%v", err)
			return
		}
		run.SessionID = session
		id, err := a.DB.InsertRun(r.Context(), run)
		if err != nil {
			errorJSON(w, http.StatusInternalServerError, "store %s: %v", p.FileName(), err)
			return
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		errorJSON(w, http.StatusBadRequest, "no capture files in upload")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]string{"runids": ids})
}

// runListing is one entry of the /runs response.
type runListing struct {
	db.RunInfo
	Metrics []*runmath.Summary `json:"metrics"`
	Events  int                `json:"events"`
}

// runs handles GET /runs. It lists stored runs, newest first, with
// per-metric summary statistics, optionally restricted by ?session=.
func (a *App) runs(w http.ResponseWriter, r *http.Request) {
	infos, err := a.DB.ListRuns(r.Context(), r.FormValue("session"))
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "list runs: %v", err)
		return
	}
	listings := []runListing{}
	for _, info := range infos {
		run, err := a.DB.LoadRun(r.Context(), info.ID)
		if err != nil {
			errorJSON(w, http.StatusInternalServerError, "%v", err)
			return
		}
		listings = append(listings, runListing{
			RunInfo: info,
			Metrics: runmath.SummarizeAll(run),
			Events:  len(run.Events),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(listings)
}
