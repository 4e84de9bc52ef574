// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package plugin

import (
	"fmt"
	"log/slog"
)

// Manager owns the set of loaded plugins (dynamic and static), routes
// setSettings calls by name, runs Init in registration order and
// Shutdown in reverse registration order (spec §4.6).
type Manager struct {
	host    Host
	logger  *slog.Logger
	plugins []Named
}

// NewManager creates a Manager bound to host. If logger is nil,
// slog.Default() is used.
func NewManager(host Host, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{host: host, logger: logger}
}

// LoadDynamic loads every "*.so" plugin in dir and initializes the ones
// that loaded successfully. Per-plugin load or init failures are logged
// and skipped; they do not prevent other plugins from loading (spec
// §4.6).
func (m *Manager) LoadDynamic(dir string) {
	results, err := LoadDir(dir)
	if err != nil {
		m.logger.Error("plugin: scanning directory failed", "dir", dir, "error", err)
		return
	}
	for _, result := range results {
		if result.Err != nil {
			m.logger.Warn("plugin: failed to load", "path", result.Path, "error", result.Err)
			continue
		}
		m.logger.Info("plugin: loaded", "name", result.Name, "fingerprint", result.Fingerprint)
		m.initAndRegister(result.Name, result.Plugin)
	}
}

// RegisterStatic initializes and registers a fixed, in-process plugin
// instance under name (spec §4.6: "Static plugins may be registered by
// passing a vector of plugin instances instead").
func (m *Manager) RegisterStatic(name string, p Plugin) error {
	return m.initAndRegister(name, p)
}

func (m *Manager) initAndRegister(name string, p Plugin) error {
	if err := p.Init(m.host); err != nil {
		m.logger.Warn("plugin: init failed", "name", name, "error", err)
		return fmt.Errorf("plugin: initializing %q: %w", name, err)
	}
	m.plugins = append(m.plugins, Named{Name: name, Plugin: p})
	return nil
}

// SetSettings forwards blob to the named plugin's SetSettings.
func (m *Manager) SetSettings(name, blob string) error {
	for _, named := range m.plugins {
		if named.Name == name {
			return named.Plugin.SetSettings(blob)
		}
	}
	return fmt.Errorf("plugin: no loaded plugin named %q", name)
}

// Shutdown calls Shutdown on every loaded plugin in reverse
// registration order, collecting (not stopping on) individual errors.
func (m *Manager) Shutdown() []error {
	var errs []error
	for i := len(m.plugins) - 1; i >= 0; i-- {
		named := m.plugins[i]
		if err := named.Plugin.Shutdown(m.host); err != nil {
			m.logger.Warn("plugin: shutdown failed", "name", named.Name, "error", err)
			errs = append(errs, fmt.Errorf("plugin: shutting down %q: %w", named.Name, err))
		}
	}
	m.plugins = nil
	return errs
}

// Loaded returns the names of currently loaded plugins, in registration
// order.
func (m *Manager) Loaded() []string {
	names := make([]string, len(m.plugins))
	for i, named := range m.plugins {
		names[i] = named.Name
	}
	return names
}
