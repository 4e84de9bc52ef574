// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/aerologic/flightrecorder/lib/container"
	"github.com/aerologic/flightrecorder/lib/datasource"
)

func newSource(t *testing.T, name string, itemName string, samples ...[2]float64) *datasource.TelemetryDataSource {
	t.Helper()
	ts := datasource.NewTelemetryDataSource(name, []container.VarDesc{
		{Name: itemName, Type: container.VarF64, Size: 8, Count: 1},
	}, 0)
	for _, s := range samples {
		raw := make([]byte, 24)
		putF64(raw[0:8], s[0])
		putF64(raw[8:16], 0)
		putF64(raw[16:24], s[1])
		if err := ts.AppendRawSample(raw); err != nil {
			t.Fatalf("AppendRawSample: %v", err)
		}
	}
	return ts
}

func TestMergePicksHighestFrequencySourceAsTimeBase(t *testing.T) {
	hf := newSource(t, "telemetry-hf", "altitude", [2]float64{0, 1}, [2]float64{100, 2}, [2]float64{200, 3})
	lf := newSource(t, "telemetry-lf", "battery_voltage", [2]float64{0, 11}, [2]float64{200, 12})

	merged := Merge([]*datasource.TelemetryDataSource{hf, lf})

	if len(merged.Descs) != 2 {
		t.Fatalf("expected 2 merged columns, got %d: %v", len(merged.Descs), merged.Descs)
	}
	if len(merged.Rows) != 3 {
		t.Fatalf("expected 3 rows (HF sample count), got %d", len(merged.Rows))
	}

	// At ts=100, lf's nearest neighbor is tied between ts=0 and ts=200;
	// P9 breaks ties toward the earlier sample.
	row := merged.Rows[1]
	if row.Timestamp != 100 || row.Values[0] != 2 || row.Values[1] != 11 {
		t.Fatalf("row[1] = %+v, want ts=100 altitude=2 voltage=11 (tie breaks earlier)", row)
	}

	// At ts=200, lf's exact sample is used.
	row = merged.Rows[2]
	if row.Values[1] != 12 {
		t.Fatalf("row[2].Values[1] = %v, want 12", row.Values[1])
	}
}

func TestMergeReusesLastValueAfterShorterSourceEnds(t *testing.T) {
	hf := newSource(t, "telemetry-hf", "altitude", [2]float64{0, 1}, [2]float64{100, 2}, [2]float64{200, 3})
	lf := newSource(t, "telemetry-lf", "battery_voltage", [2]float64{0, 11})

	merged := Merge([]*datasource.TelemetryDataSource{hf, lf})
	for _, row := range merged.Rows {
		if row.Values[1] != 11 {
			t.Fatalf("expected lf's single value 11 to be reused at every row, got %v", row.Values[1])
		}
	}
}

func putF64(b []byte, v float64) {
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
}
