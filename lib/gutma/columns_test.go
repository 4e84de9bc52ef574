// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package gutma

import (
	"testing"

	"github.com/aerologic/flightrecorder/lib/container"
	"github.com/aerologic/flightrecorder/lib/telemetry"
)

func TestBuildRowsGpsAvailableSentinel(t *testing.T) {
	merged := telemetry.Merged{
		Descs: []container.VarDesc{
			{Name: itemGPSLatitude}, {Name: itemGPSLongitude},
		},
		Rows: []telemetry.Row{
			{Timestamp: 0, Values: []float64{gpsUnavailableSentinel, gpsUnavailableSentinel}},
			{Timestamp: 1_000_000, Values: []float64{48.8, 2.3}},
		},
	}

	rows := buildRows(merged)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	cols0 := rows[0].gutmaColumns()
	cols1 := rows[1].gutmaColumns()

	const gpsAvailableIdx = 13
	if cols0[gpsAvailableIdx] != 0.0 {
		t.Fatalf("row0 gps_available = %v, want 0 (sentinel lat/lon)", cols0[gpsAvailableIdx])
	}
	if cols1[gpsAvailableIdx] != 1.0 {
		t.Fatalf("row1 gps_available = %v, want 1", cols1[gpsAvailableIdx])
	}
}

func TestCellVoltageAbsentWhenNotDeclared(t *testing.T) {
	merged := telemetry.Merged{
		Descs: []container.VarDesc{{Name: itemCellVoltage0}},
		Rows:  []telemetry.Row{{Timestamp: 0, Values: []float64{3700}}},
	}
	rows := buildRows(merged)

	if v := cellVoltage(rows[0], itemCellVoltage0); v != 3.7 {
		t.Fatalf("cellVoltage(cell0) = %v, want 3.7", v)
	}
	if v := cellVoltage(rows[0], itemCellVoltage1); v != nil {
		t.Fatalf("cellVoltage(cell1) = %v, want nil (not declared)", v)
	}
}

func TestHasAnyValueRejectsFullyEmptyRow(t *testing.T) {
	empty := []any{0.0, 0.0, nil, -1.0}
	if hasAnyValue(empty) {
		t.Fatalf("expected all-default row to be rejected")
	}
	nonEmpty := []any{0.0, 48.8}
	if !hasAnyValue(nonEmpty) {
		t.Fatalf("expected row with a non-zero cell to be kept")
	}
}

func TestGpsFixEventsOnlyOnTransition(t *testing.T) {
	rows := []telemetryRow{
		{timestamp: 0, values: map[string]float64{itemGPSLatitude: gpsUnavailableSentinel, itemGPSLongitude: gpsUnavailableSentinel}},
		{timestamp: 1, values: map[string]float64{itemGPSLatitude: gpsUnavailableSentinel, itemGPSLongitude: gpsUnavailableSentinel}},
		{timestamp: 2, values: map[string]float64{itemGPSLatitude: 48.8, itemGPSLongitude: 2.3}},
		{timestamp: 3, values: map[string]float64{itemGPSLatitude: 48.9, itemGPSLongitude: 2.4}},
	}

	events := gpsFixEvents(rows)
	if len(events) != 1 || events[0].timestamp != 2 || events[0].eventInfo != infoGPSFixed {
		t.Fatalf("got %+v, want a single fix event at ts=2", events)
	}
}
