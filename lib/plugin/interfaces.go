// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package plugin

import "github.com/aerologic/flightrecorder/lib/registry"

// Host is the subset of the Recorder a plugin needs to register and
// unregister its log sources (spec §4.6, §6.2 addLogSource). A narrow
// interface rather than *recorder.Recorder so plugins can be tested
// against a fake host without constructing a full Recorder.
type Host interface {
	AddLogSource(src registry.LogSource, plugin, name string, version uint32) uint32
	RemoveLogSource(id uint32) error
}

// Plugin is one loadable unit that registers log sources with a Host
// and accepts reconfiguration via an opaque settings blob (spec §4.6).
// Dynamic plugins (loaded from a shared object with the stdlib plugin
// package) and static plugins (constructed in-process and registered
// directly) both implement this same interface.
type Plugin interface {
	// Init registers this plugin's log sources with host. Called once
	// after loading, before the Recorder opens its first session.
	Init(host Host) error

	// Shutdown unregisters this plugin's log sources and releases any
	// resources. Called once, in reverse registration order, when the
	// Recorder is torn down.
	Shutdown(host Host) error

	// SetSettings reconfigures the plugin from an opaque, plugin-defined
	// settings blob (spec §4.6). Must be idempotent.
	SetSettings(blob string) error
}

// Named pairs a loaded Plugin with the short name it was registered or
// discovered under, for logging and lookup by setSettings callers.
type Named struct {
	Name   string
	Plugin Plugin
}
