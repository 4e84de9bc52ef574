// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

// Package recorder is the facade: it owns the Buffer Pipeline, the
// Frontend session, and the Source Registry, and exposes the control
// surface collaborators drive (spec §6.2) — open/close/flush/rotate,
// enable/disable, encryption, header field updates, and source
// registration — plus the scheduler tick loop that ties them together
// (spec §4.5).
package recorder
