// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

// Package plugin loads log-source plugins, dynamically via the stdlib
// plugin package or statically via direct registration, and routes
// their init/shutdown/setSettings lifecycle (spec §4.6).
package plugin
