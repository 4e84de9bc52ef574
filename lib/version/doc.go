// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports the build version of the flightrecorder
// command-line tools. It is one of the few packages permitted to write
// directly to stdout, since -version output predates any structured
// logger setup.
package version
