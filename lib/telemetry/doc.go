// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry implements the multi-source, time-aligned merge
// (spec §4.8): given every telemetry generation a lib/reader.Reader
// produced, it picks the highest sample-rate source as the time base
// and nearest-neighbor-joins every other source's columns onto it.
package telemetry
