// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"github.com/aerologic/flightrecorder/lib/container"
	"github.com/aerologic/flightrecorder/lib/datasource"
)

// Row is one output row of a merge: the high-frequency source's
// timestamp, paired with one value per column in Merged.Descs, in
// column order.
type Row struct {
	Timestamp int64
	Values    []float64
}

// Merged is the result of merging a vector of telemetry sources (spec
// §4.8): Descs concatenates every source's user-declared descriptors
// (synthetic time_us/seqnum columns are not repeated), and Rows holds
// one row per sample of the highest-frequency source.
type Merged struct {
	Descs []container.VarDesc
	Rows  []Row
}

// userItemCount returns how many non-synthetic columns a source
// declares; userDescs strips the two synthetic leading descriptors
// (spec §3) that every TelemetryDataSource carries.
func userItemCount(ts *datasource.TelemetryDataSource) int {
	return len(ts.Descs()) - 2
}

func userDescs(ts *datasource.TelemetryDataSource) []container.VarDesc {
	all := ts.Descs()
	if len(all) <= 2 {
		return nil
	}
	return all[2:]
}

// cursor tracks one non-HF source's nearest-neighbor position: idx is
// the "prev" sample, idx+1 (when in range) is "next" (spec §4.8).
type cursor struct {
	source *datasource.TelemetryDataSource
	idx    int
}

// rotate advances the cursor while the next sample is strictly closer
// to cur than the current one — ties break toward the earlier sample
// (spec P9), so rotation only happens on a strict improvement.
func (c *cursor) rotate(cur int64) {
	count := c.source.SampleCount()
	if count == 0 {
		return
	}
	for c.idx+1 < count {
		prevTs, _, _ := c.source.GetSample(c.idx, 0)
		nextTs, _, _ := c.source.GetSample(c.idx+1, 0)
		if abs64(cur-prevTs) > abs64(cur-nextTs) {
			c.idx++
			continue
		}
		break
	}
}

// row appends this source's current-cursor values (one per its
// user-declared item) to out, reusing the last sample's values
// indefinitely once the cursor runs off the end of a shorter source.
func (c *cursor) row(out []float64) []float64 {
	count := c.source.SampleCount()
	n := userItemCount(c.source)
	if count == 0 {
		for i := 0; i < n; i++ {
			out = append(out, 0)
		}
		return out
	}
	for i := 0; i < n; i++ {
		_, v, _ := c.source.GetSample(c.idx, 2+i)
		out = append(out, v)
	}
	return out
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// Merge implements spec §4.8's multi-source time-aligned merge: the
// source with the largest SampleCount becomes the time base (HF);
// every other source contributes its nearest-neighbor sample at each
// HF timestamp.
func Merge(sources []*datasource.TelemetryDataSource) Merged {
	if len(sources) == 0 {
		return Merged{}
	}

	hf := 0
	for i, s := range sources {
		if s.SampleCount() > sources[hf].SampleCount() {
			hf = i
		}
	}

	var descs []container.VarDesc
	cursors := make([]*cursor, len(sources))
	for i, s := range sources {
		descs = append(descs, userDescs(s)...)
		if i != hf {
			cursors[i] = &cursor{source: s}
		}
	}

	hfSource := sources[hf]
	rows := make([]Row, 0, hfSource.SampleCount())
	for i := 0; i < hfSource.SampleCount(); i++ {
		ts, _, _ := hfSource.GetSample(i, 0)

		values := make([]float64, 0, len(descs))
		for j := range sources {
			if j == hf {
				for k := 0; k < userItemCount(hfSource); k++ {
					_, v, _ := hfSource.GetSample(i, 2+k)
					values = append(values, v)
				}
				continue
			}
			cursors[j].rotate(ts)
			values = cursors[j].row(values)
		}
		rows = append(rows, Row{Timestamp: ts, Values: values})
	}

	return Merged{Descs: descs, Rows: rows}
}
