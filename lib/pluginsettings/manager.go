// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package pluginsettings

import (
	"fmt"
	"sync"
)

// SettingsManager is the external settings store collaborator (spec
// §1: "settings stores" are out of scope for this core). A concrete
// store — backed by a config file, a property database, or a remote
// settings service — persists one opaque blob per plugin name and
// hands it to plugin.Manager.SetSettings at startup and on change.
type SettingsManager interface {
	// Get returns the stored blob for name, or ok=false if none is
	// stored yet.
	Get(name string) (blob string, ok bool)

	// Set persists blob as the current settings for name.
	Set(name, blob string) error
}

// MemoryManager is a process-local SettingsManager backed by a map. It
// is a reference implementation for tests and for static plugins that
// have no external settings store configured — not the production
// store any real deployment would use.
type MemoryManager struct {
	mu       sync.RWMutex
	settings map[string]string
}

// NewMemoryManager creates an empty MemoryManager.
func NewMemoryManager() *MemoryManager {
	return &MemoryManager{settings: make(map[string]string)}
}

// Get implements SettingsManager.
func (m *MemoryManager) Get(name string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	blob, ok := m.settings[name]
	return blob, ok
}

// Set implements SettingsManager.
func (m *MemoryManager) Set(name, blob string) error {
	if name == "" {
		return fmt.Errorf("pluginsettings: plugin name must not be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[name] = blob
	return nil
}
