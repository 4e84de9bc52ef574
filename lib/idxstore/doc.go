// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

// Package idxstore is a default, SQLite-backed implementation of
// frontend.LogIdxManager (spec §4.3, §6.2 P7): it persists the
// lifetime-monotone file-index counter across process runs in a
// one-row table. The Recorder only depends on the LogIdxManager
// interface, so this store is concrete but swappable.
package idxstore
