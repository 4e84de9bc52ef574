// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers for the
// flightrecorder-convert and flightrecorder-dump command-line tools.
// Fatal centralizes the one legitimate raw-stderr write that predates
// the structured logger: reporting an error from run() in main().
package process
