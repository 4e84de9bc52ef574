// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

// Package frontend owns the open/close lifecycle of a log session
// (spec §4.4): the CLOSED→OPENING→OPEN→CLOSING→CLOSED state machine,
// the header written on open and footer written on close, in-place
// rewriting of reserved header fields, rotation triggers driven by
// size/quota checks, and the running MD5 over payload bytes.
package frontend
