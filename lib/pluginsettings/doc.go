// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

// Package pluginsettings defines the SettingsManager collaborator
// (spec §1: an out-of-scope external settings store) and ships a
// default CBOR encoding for the opaque settings blob a plugin's
// setSettings receives (spec §4.6), so static and dynamic plugins can
// share one wire format without the core dictating plugin-specific
// settings schemas.
package pluginsettings
