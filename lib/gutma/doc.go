// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

// Package gutma converts the typed sources a lib/reader.Reader
// produced into a GUTMA flight_logging exchange document (spec §4.9,
// §6.4): aircraft/battery/GCS header properties, a fixed event
// taxonomy translated from every ulog EventDataSource, and telemetry
// rows merged per lib/telemetry and mapped onto GUTMA's fixed column
// order.
package gutma
