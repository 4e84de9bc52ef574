// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package gutma

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aerologic/flightrecorder/lib/datasource"
)

// Header property keys recognized from the recorded file's header
// record (spec §4.9), grounded on HWSection::aircraftField /
// smartbatteryField's property maps.
const (
	propModel              = "ro.product.model"
	propFirmwareVersion    = "ro.parrot.build.version"
	propSerial             = "ro.factory.serial"
	propMechRevision       = "ro.mech.revision"
	propBoardRevision      = "ro.revision"
	propHardware           = "ro.hardware"
	propProductID          = "ro.product.model.id"
	propBatterySerial      = "ro.smartbattery.serial"
	propBatteryHWVersion   = "ro.smartbattery.hw_version"
	propBatteryFWVersion   = "ro.smartbattery.version"
	propBatteryCycleCount  = "ro.smartbattery.cycle_count"
	propBatteryDesignCap   = "ro.smartbattery.design_cap"
)

// minFirmwareVersion is the minimum drone firmware version eligible
// for conversion (spec §6.4); development builds bypass this check.
const minFirmwareVersion = "1.6.0"

// aircraftProperties builds the "aircraft" JSON object from header
// properties (spec §4.9, grounded on HWSection::data).
func aircraftProperties(header *datasource.InternalDataSource) map[string]string {
	out := map[string]string{"manufacturer": "Parrot"}

	if v, ok := header.Get(propModel); ok {
		out["model"] = v
	}
	if v, ok := header.Get(propFirmwareVersion); ok {
		out["firmware_version"] = v
	}
	if v, ok := header.Get(propSerial); ok {
		out["serial_number"] = v
	}
	if v, ok := header.Get(propHardware); ok {
		out["product_name"] = v
	}
	if v, ok := header.Get(propProductID); ok {
		if id, err := strconv.ParseInt(v, 16, 64); err == nil {
			out["product_id"] = strconv.FormatInt(id, 10)
		}
	}

	mecha := "1.0"
	if v, ok := header.Get(propMechRevision); ok && v != "" {
		mecha = v
	}
	motherboard, _ := header.Get(propBoardRevision)
	out["hardware_version"] = fmt.Sprintf("m%s-b%s", mecha, motherboard)

	return out
}

// batteryProperties builds the "battery" payload entry (spec §4.9).
func batteryProperties(header *datasource.InternalDataSource) map[string]string {
	out := map[string]string{"type": "battery"}

	if v, ok := header.Get(propBatterySerial); ok {
		out["serial_number"] = v
	}
	if v, ok := header.Get(propBatteryHWVersion); ok {
		out["hardware_version"] = v
	}
	if v, ok := header.Get(propBatteryFWVersion); ok {
		out["firmware_version"] = v
	}
	if v, ok := header.Get(propBatteryCycleCount); ok {
		out["cycle_count"] = v
	}
	if v, ok := header.Get(propBatteryDesignCap); ok {
		if capacity, err := strconv.ParseFloat(v, 64); err == nil {
			out["design_capacity"] = fmt.Sprintf("%.3f", capacity/1000.0)
		}
	}

	return out
}

// gcsProperties reads the gcs.name/gcs.type header fields directly
// (this core's Frontend stores them as plain strings, unlike the
// original's event-string-encoded representation — see DESIGN.md).
func gcsProperties(header *datasource.InternalDataSource) map[string]string {
	out := map[string]string{}
	if v, ok := header.Get("gcs.name"); ok {
		out["name"] = v
	}
	if v, ok := header.Get("gcs.type"); ok {
		out["type"] = v
	}
	return out
}

// isDevFirmware reports whether version looks like a development
// build rather than a dotted three-component release version — such
// builds bypass the minimum-firmware-version gate (spec §6.4).
func isDevFirmware(version string) bool {
	parts := strings.Split(version, ".")
	if len(parts) < 3 {
		return true
	}
	for _, p := range parts[:3] {
		if _, err := strconv.Atoi(p); err != nil {
			return true
		}
	}
	return false
}

// meetsMinimumFirmware reports whether version is semantically >= the
// minimum supported version, comparing up to three dot-separated
// numeric components (spec §6.4).
func meetsMinimumFirmware(version string) bool {
	return compareVersions(version, minFirmwareVersion) >= 0
}

func compareVersions(a, b string) int {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < 3; i++ {
		av, bv := versionComponent(as, i), versionComponent(bs, i)
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}

func versionComponent(parts []string, i int) int {
	if i >= len(parts) {
		return 0
	}
	n, err := strconv.Atoi(parts[i])
	if err != nil {
		return 0
	}
	return n
}

// refTime resolves the header's reftime.monotonic/reftime.absolute
// pair into a function converting any monotonic microsecond timestamp
// into a local date-time string (spec §4.9: "Absolute time is
// reconstructed as epoch + (ts − absTs)/1e6"). reftime.monotonic holds
// a Unix epoch (seconds) and reftime.absolute the monotonic
// microsecond reading taken at that same moment — a direct reading of
// spec.md's formula, simpler than the original's event-string-encoded
// date/time representation (see DESIGN.md).
func refTime(header *datasource.InternalDataSource) func(ts int64) string {
	monotonicStr, hasMonotonic := header.Get("reftime.monotonic")
	absoluteStr, hasAbsolute := header.Get("reftime.absolute")
	if !hasMonotonic || !hasAbsolute {
		return func(ts int64) string { return "" }
	}
	epoch, err1 := strconv.ParseInt(strings.TrimRight(monotonicStr, "\x00"), 10, 64)
	absTs, err2 := strconv.ParseInt(strings.TrimRight(absoluteStr, "\x00"), 10, 64)
	if err1 != nil || err2 != nil {
		return func(ts int64) string { return "" }
	}
	return func(ts int64) string {
		seconds := epoch + (ts-absTs)/1_000_000
		return time.Unix(seconds, 0).Local().Format("2006-01-02T15:04:05-0700")
	}
}
