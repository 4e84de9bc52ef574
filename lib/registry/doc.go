// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

// Package registry assigns stable source IDs, tracks each source's
// pending SOURCE_DESC and round-robin polling deadline, and drives the
// cooperative single-threaded scheduler tick (spec §4.5): recompute
// the tick period, poll every source whose deadline elapsed, flush the
// Buffer Pipeline on its own period, and reap sources marked for
// removal.
package registry
