// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

// Package flightconfig loads a Recorder's configuration from a YAML
// file (spec §6.3). Configuration is loaded from a single file named
// by the FLIGHTRECORDER_CONFIG environment variable or an explicit
// path — there is no automatic discovery, so the effective
// configuration is always traceable to one file.
package flightconfig
