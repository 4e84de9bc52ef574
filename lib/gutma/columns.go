// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package gutma

import (
	"math"

	"github.com/aerologic/flightrecorder/lib/telemetry"
)

// Dotted telemetry item names this converter recognizes. The first
// four are the ones `headers.hpp`'s plugin actually names; the rest
// follow the same `section.field_name` convention for items spec.md
// §4.9 calls out by purpose (battery cells, wifi, GNSS, attitude) but
// whose exact wire name is not given anywhere in the pack — see
// DESIGN.md for this package's naming-convention rationale.
const (
	itemGPSLongitude        = "user_telemetry.gps_longitude"
	itemGPSLatitude         = "user_telemetry.gps_latitude"
	itemGPSAltitude         = "user_telemetry.gps_wgs84_altitude"
	itemSpeedX              = "navdata.speed_horiz_x_m_s"
	itemSpeedY              = "navdata.speed_horiz_y_m_s"
	itemSpeedZ              = "navdata.speed_horiz_z_m_s"
	itemBatteryRemainingCap = "smartbattery.remaining_cap"
	itemBatteryFullCap      = "smartbattery.full_charge_cap"
	itemBatteryVoltage      = "smartbattery.voltage_now"
	itemBatteryCurrent      = "smartbattery.current_now"
	itemCellVoltage0        = "smartbattery.cell_voltage_now_0"
	itemCellVoltage1        = "smartbattery.cell_voltage_now_1"
	itemCellVoltage2        = "smartbattery.cell_voltage_now_2"
	itemWifiRSSI0           = "wifi.rssi_0"
	itemWifiRSSI1           = "wifi.rssi_1"
	itemGPSLatAccuracy      = "user_telemetry.gps_latitude_accuracy"
	itemGPSLonAccuracy      = "user_telemetry.gps_longitude_accuracy"
	itemGNSSSVNum0          = "gnss.sv_num_0"
	itemGNSSSVNum1          = "gnss.sv_num_1"
	itemGNSSSVNum2          = "gnss.sv_num_2"
	itemAnglePhi            = "user_telemetry.angles_phi"
	itemAnglePsi            = "user_telemetry.angles_psi"
	itemAngleTheta          = "user_telemetry.angles_theta"

	gpsUnavailableSentinel = 500.0
)

// columnOrder is the fixed GUTMA output column order (spec §4.9),
// grounded on liblog2gutma's jsonVarOrder/jsonColumnName tables.
var columnOrder = []string{
	"gps_lon", "gps_lat", "gps_altitude",
	"speed_vx", "speed_vy", "speed_vz",
	"battery_percent", "battery_voltage",
	"battery_cell_voltage_0", "battery_cell_voltage_1", "battery_cell_voltage_2",
	"battery_current", "wifi_signal",
	"product_gps_available", "product_gps_position_error", "product_gps_sv_number",
	"angle_phi", "angle_psi", "angle_theta",
}

// telemetryRow builds this package's flattened view of one merged
// sample: a by-name value lookup plus which columns were actually
// present in the source descriptors (needed for the cell-voltage
// absent-on-2S special case, spec §4.9).
type telemetryRow struct {
	timestamp int64
	values    map[string]float64
	present   map[string]bool
}

func buildRows(merged telemetry.Merged) []telemetryRow {
	present := make(map[string]bool, len(merged.Descs))
	for _, d := range merged.Descs {
		present[d.Name] = true
	}

	rows := make([]telemetryRow, 0, len(merged.Rows))
	for _, r := range merged.Rows {
		values := make(map[string]float64, len(merged.Descs))
		for i, d := range merged.Descs {
			if i < len(r.Values) {
				values[d.Name] = r.Values[i]
			}
		}
		rows = append(rows, telemetryRow{timestamp: r.Timestamp, values: values, present: present})
	}
	return rows
}

// gutmaColumns computes, in columnOrder, the sparse cell values for
// one row. A nil entry means "no value" (spec's null cell-voltage
// case); every other cell is always populated, using -1 as the
// documented placeholder for an absent/zero battery/voltage/current
// reading.
func (r telemetryRow) gutmaColumns() []any {
	v := r.values

	batteryPercent := -1.0
	if full := v[itemBatteryFullCap]; full != 0 {
		batteryPercent = v[itemBatteryRemainingCap] / full * 100
	}
	batteryVoltage := -1.0
	if vn := v[itemBatteryVoltage]; vn != 0 {
		batteryVoltage = vn / 1000.0
	}
	batteryCurrent := -1.0
	if cn := v[itemBatteryCurrent]; cn != 0 {
		batteryCurrent = -cn / 1000.0
	}
	wifiSignal := math.Max(v[itemWifiRSSI0], v[itemWifiRSSI1])
	gpsAvailable := 0.0
	if gpsFixed(v[itemGPSLatitude], v[itemGPSLongitude]) {
		gpsAvailable = 1.0
	}
	gpsAccuracy := math.Sqrt(v[itemGPSLatAccuracy]*v[itemGPSLatAccuracy] + v[itemGPSLonAccuracy]*v[itemGPSLonAccuracy])
	svNum := v[itemGNSSSVNum0] + v[itemGNSSSVNum1] + v[itemGNSSSVNum2]

	return []any{
		v[itemGPSLongitude], v[itemGPSLatitude], v[itemGPSAltitude],
		v[itemSpeedX], v[itemSpeedY], v[itemSpeedZ],
		batteryPercent, batteryVoltage,
		cellVoltage(r, itemCellVoltage0),
		cellVoltage(r, itemCellVoltage1),
		cellVoltage(r, itemCellVoltage2),
		batteryCurrent, wifiSignal,
		gpsAvailable, gpsAccuracy, svNum,
		v[itemAnglePhi], v[itemAnglePsi], v[itemAngleTheta],
	}
}

// cellVoltage returns millivolt-to-volt converted cell voltage, or nil
// if the column was never declared by any source in this file (the 2S
// battery case, spec §4.9).
func cellVoltage(r telemetryRow, item string) any {
	if !r.present[item] {
		return nil
	}
	if mv := r.values[item]; mv != 0 {
		return mv / 1000.0
	}
	return -1.0
}

func gpsFixed(lat, lon float64) bool {
	return !(lat == gpsUnavailableSentinel && lon == gpsUnavailableSentinel)
}

// hasAnyValue reports whether at least one cell in row is non-nil and
// non-default, so a fully-empty row is dropped rather than emitted
// (spec §4.9: "a sparse row is emitted only when at least one column
// has a value").
func hasAnyValue(row []any) bool {
	for _, cell := range row {
		if cell == nil {
			continue
		}
		if f, ok := cell.(float64); ok && (f == 0 || f == -1) {
			continue
		}
		return true
	}
	return false
}

// gpsFixEvents derives GPS fixed/unfixed events from transitions in
// the merged telemetry's GPS-availability column (spec §4.9): this
// core computes availability the same way liblog2gutma's
// compute_gps_available does (the 500.0 sentinel for "no fix"), then
// emits an event only when that boolean changes from the previous
// row — the source data itself carries no explicit "fixed"/"unfixed"
// ulog event.
func gpsFixEvents(rows []telemetryRow) []taxonEvent {
	var out []taxonEvent
	last := -1 // -1 = no previous row yet
	for _, row := range rows {
		fixed := 0
		if gpsFixed(row.values[itemGPSLatitude], row.values[itemGPSLongitude]) {
			fixed = 1
		}
		if fixed == last {
			continue
		}
		first := last == -1
		last = fixed
		if first {
			continue
		}
		info := infoGPSUnfixed
		if fixed == 1 {
			info = infoGPSFixed
		}
		out = append(out, taxonEvent{timestamp: row.timestamp, eventType: controllerGPS, eventInfo: info})
	}
	return out
}
