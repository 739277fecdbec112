// Copyright 2026 The runchart Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mergeseries

import (
	"fmt"

	"github.com/runchart/runchart/runfmt"
)

// A Request asks the worker for one merge.
type Request struct {
	Runs            []*runfmt.Run
	XAxis           runfmt.Axis
	RenderedMetrics []string
	Threshold       int
}

// A Response carries the merge result or a structured error. Exactly
// one of Result and Err is set.
type Response struct {
	Result *Result
	Err    error
}

// queueDepth bounds how many requests may be waiting before Do
// blocks. Interactive callers issue one request at a time, so the
// bound is never reached in practice.
const queueDepth = 16

// A Worker runs merges serially on one background goroutine, so that
// large merges never execute on the caller's goroutine and responses
// arrive in request order. One Worker must back exactly one chart
// context; sharing a Worker across contexts risks mistaking a stale
// response for a fresh one, since responses carry no request tags.
//
// The worker deep-copies the runs of each request before queueing it:
// runs are owned by the ingestion side and may gain samples while a
// merge is in flight.
type Worker struct {
	reqs chan workItem
	done chan struct{}
}

type workItem struct {
	req *Request
	out chan *Response
}

// NewWorker starts a worker goroutine. The caller must Close it when
// the chart context goes away.
func NewWorker() *Worker {
	w := &Worker{
		reqs: make(chan workItem, queueDepth),
		done: make(chan struct{}),
	}
	go w.loop()
	return w
}

// Do queues req and returns a channel that will receive exactly one
// Response. req.Runs are cloned before Do returns; the caller may
// mutate them afterwards. Do must not be called after Close.
//
// Callers that no longer want a result simply drop the channel;
// in-flight merges are not aborted, so staleness is decided by the
// caller, by context identity.
func (w *Worker) Do(req *Request) <-chan *Response {
	cloned := &Request{
		Runs:            make([]*runfmt.Run, len(req.Runs)),
		XAxis:           req.XAxis,
		RenderedMetrics: append([]string(nil), req.RenderedMetrics...),
		Threshold:       req.Threshold,
	}
	for i, run := range req.Runs {
		if run != nil {
			cloned.Runs[i] = run.Clone()
		}
	}
	out := make(chan *Response, 1)
	w.reqs <- workItem{cloned, out}
	return out
}

// Close stops the worker after it drains pending requests.
func (w *Worker) Close() {
	close(w.reqs)
	<-w.done
}

func (w *Worker) loop() {
	defer close(w.done)
	for item := range w.reqs {
		item.out <- run(item.req)
	}
}

// run executes one merge, converting a panic anywhere in the
// pipeline into a structured error so the worker survives malformed
// data.
func run(req *Request) (resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			resp = &Response{Err: fmt.Errorf("merge failed: %v", r)}
		}
	}()
	res, err := Merge(req.Runs, &Options{
		XAxis:           req.XAxis,
		RenderedMetrics: req.RenderedMetrics,
		Threshold:       req.Threshold,
	})
	if err != nil {
		return &Response{Err: err}
	}
	return &Response{Result: res}
}
