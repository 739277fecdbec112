// Copyright 2026 The runchart Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runfmt

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// A FormatError represents a malformed capture file.
type FormatError struct {
	FileName string
	Line     int
	Msg      string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.FileName, e.Line, e.Msg)
}

// eventKey is the reserved column carrying domain event names. A
// non-empty cell under it records an Event at the row's timestamp
// instead of a metric value, and the column never enters the catalog.
const eventKey = "event"

// knownPercent lists metric keys recorded as percentages even when
// the capture header omits the "%" suffix.
var knownPercent = map[string]bool{
	"battery": true,
	"cpu":     true,
	"gpu":     true,
}

// A Reader reads one capture run from CSV input.
//
// Its API is modeled on bufio.Scanner: construct it with NewReader,
// call Scan until it returns false, then check Err. The header row is
// consumed on the first Scan and its columns become the run's metric
// catalog. Each subsequent row becomes one Sample, available from
// Sample until the next call to Scan.
type Reader struct {
	cr       *csv.Reader
	fileName string
	line     int
	err      error

	metrics  []Metric
	eventCol int
	events   []Event
	sample   *Sample
}

// NewReader constructs a reader parsing capture CSV from r. fileName
// is used in error messages; it is purely diagnostic.
func NewReader(r io.Reader, fileName string) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // short rows mean trailing absent cells
	if fileName == "" {
		fileName = "<unknown>"
	}
	return &Reader{cr: cr, fileName: fileName}
}

// Metrics returns the metric catalog discovered from the header. It
// is valid after the first successful Scan.
func (r *Reader) Metrics() []Metric { return r.metrics }

// Events returns the domain events collected so far from the
// reserved "event" column.
func (r *Reader) Events() []Event { return r.events }

// Sample returns the sample parsed by the last call to Scan. The
// reader does not reuse it; callers may retain it.
func (r *Reader) Sample() *Sample { return r.sample }

// Err returns the first error encountered, or nil if input ended
// cleanly.
func (r *Reader) Err() error { return r.err }

// Scan advances to the next sample row. It returns false at end of
// input or on error; use Err to distinguish.
func (r *Reader) Scan() bool {
	if r.err != nil {
		return false
	}
	if r.metrics == nil {
		if !r.readHeader() {
			return false
		}
	}
	rec, err := r.cr.Read()
	if err == io.EOF {
		return false
	}
	if err != nil {
		r.err = err
		return false
	}
	r.line++
	s := new(Sample)
	for i, m := range r.metrics {
		if i >= len(rec) {
			break
		}
		if m.Key == "" {
			continue // reserved event column placeholder
		}
		cell := strings.TrimSpace(rec[i])
		if cell == "" {
			continue // absent, not zero
		}
		s.Set(m.Key, ParseValue(cell))
	}
	if i := r.eventCol; i >= 0 && i < len(rec) {
		if name := strings.TrimSpace(rec[i]); name != "" {
			if t, ok := s.X(AxisTime); ok {
				r.events = append(r.events, Event{Time: t, Name: name})
			}
		}
	}
	r.sample = s
	return true
}

// readHeader consumes the header row and builds the catalog. The
// reserved event column keeps a placeholder Metric with an empty key
// so that catalog indexes line up with record columns.
func (r *Reader) readHeader() bool {
	hdr, err := r.cr.Read()
	if err == io.EOF {
		r.err = &FormatError{r.fileName, 1, "empty capture file"}
		return false
	}
	if err != nil {
		r.err = err
		return false
	}
	r.line = 1
	r.eventCol = -1
	metrics := make([]Metric, len(hdr))
	hasTime := false
	for i, h := range hdr {
		label := strings.TrimSpace(h)
		key := strings.ToLower(label)
		percent := false
		if strings.HasSuffix(key, "%") {
			percent = true
			key = strings.TrimSpace(strings.TrimSuffix(key, "%"))
		} else if knownPercent[key] {
			percent = true
		}
		if key == eventKey {
			r.eventCol = i
			continue
		}
		if key == string(AxisTime) {
			hasTime = true
		}
		metrics[i] = Metric{Key: key, Label: label, Percent: percent}
	}
	if !hasTime {
		r.err = &FormatError{r.fileName, 1, `capture header has no "timestamp" column`}
		return false
	}
	r.metrics = metrics
	return true
}

// ReadRun reads a whole capture run from rd. name becomes the run's
// display name and is also used in error messages.
func ReadRun(rd io.Reader, name string) (*Run, error) {
	r := NewReader(rd, name)
	run := &Run{Name: name}
	for r.Scan() {
		run.Samples = append(run.Samples, r.Sample())
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	run.Metrics = catalogMetrics(r.Metrics())
	run.Events = r.Events()
	return run, nil
}

// catalogMetrics drops the placeholder entry left by the reserved
// event column.
func catalogMetrics(ms []Metric) []Metric {
	out := ms[:0]
	for _, m := range ms {
		if m.Key != "" {
			out = append(out, m)
		}
	}
	return out
}

// ReadFiles reads one run per path, assigning IDs r1, r2, ... in
// order. If allowStdin is set, the path "-" reads from standard
// input. Run names are the file base names without extension.
func ReadFiles(paths []string, allowStdin bool) ([]*Run, error) {
	var runs []*Run
	for i, path := range paths {
		var (
			run *Run
			err error
		)
		if path == "-" && allowStdin {
			run, err = ReadRun(os.Stdin, "stdin")
		} else {
			var f *os.File
			f, err = os.Open(path)
			if err != nil {
				return nil, err
			}
			name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			run, err = ReadRun(f, name)
			f.Close()
		}
		if err != nil {
			return nil, err
		}
		run.ID = fmt.Sprintf("r%d", i+1)
		runs = append(runs, run)
	}
	return runs, nil
}
