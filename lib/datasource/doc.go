// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

// Package datasource holds the in-memory typed representations the
// reader reconstructs a session into (spec §3): InternalDataSource for
// a simple key→value mapping, EventDataSource for a timestamped event
// stream (including the ulog EVT:/EVTS: text grammar), TelemetryDataSource
// for random-access sample data, and LogDataSource for an opaque
// ulog byte stream. lib/reader constructs these; lib/gutma and
// lib/telemetry consume them.
package datasource
