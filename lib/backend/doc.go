// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

// Package backend owns the single active output file and the sibling
// log files around it (spec §4.3): pwrite/fsync-based writes to
// "log.bin", directory fsync on creation, and the rotation procedure
// that renames the active file, enumerates and evicts old siblings
// under a byte/count budget, and reports the backend's maximum known
// file index so a LogIdxManager can persist it across sessions.
package backend
