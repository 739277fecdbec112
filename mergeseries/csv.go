// Copyright 2026 The runchart Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mergeseries

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"
)

// ToCsv writes the rendered datasets as a spreadsheet: one column per
// dataset in sorted key order, one row per downsampled grid point.
// Gaps are written as empty cells.
func (r *Result) ToCsv(out io.Writer) error {
	keys := make([]string, 0, len(r.Datasets))
	for k := range r.Datasets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w := csv.NewWriter(out)
	hdr := append([]string{string(r.XAxis)}, keys...)
	if err := w.Write(hdr); err != nil {
		return err
	}
	rec := make([]string, len(hdr))
	for i, x := range r.Labels {
		rec[0] = strof(x)
		for j, k := range keys {
			rec[j+1] = ""
			if pts := r.Datasets[k]; i < len(pts) && !pts[i].Missing {
				rec[j+1] = strof(pts[i].Y)
			}
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func strof(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
