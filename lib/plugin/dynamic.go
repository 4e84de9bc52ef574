// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package plugin

import (
	"fmt"
	"path/filepath"
	"plugin"
	"strings"
)

// ConstructorSymbol is the exported symbol name a dynamic plugin's
// shared object must provide: a func() Plugin constructor. A
// package-level Plugin-typed variable does not reliably survive the
// plugin boundary across separately compiled binaries, so this core
// always looks up a constructor function instead.
const ConstructorSymbol = "NewPlugin"

// LoadResult records the outcome of attempting to load one dynamic
// plugin file, success or failure.
type LoadResult struct {
	Path        string
	Name        string
	Fingerprint Fingerprint
	Plugin      Plugin
	Err         error
}

// LoadDir opens every "*.so" file in dir as a dynamic plugin (spec
// §4.6: "Dynamic plugins are loaded from a directory"). Each file is
// fingerprinted before plugin.Open. A failure loading, fingerprinting,
// or resolving the constructor symbol for one file is recorded in that
// file's LoadResult.Err and does not prevent the remaining files from
// loading (spec §4.6: "failures on one plugin are non-fatal").
func LoadDir(dir string) ([]LoadResult, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.so"))
	if err != nil {
		return nil, fmt.Errorf("plugin: globbing %q: %w", dir, err)
	}

	results := make([]LoadResult, 0, len(matches))
	for _, path := range matches {
		results = append(results, loadOne(path))
	}
	return results, nil
}

func loadOne(path string) LoadResult {
	name := strings.TrimSuffix(filepath.Base(path), ".so")
	result := LoadResult{Path: path, Name: name}

	fp, err := FingerprintFile(path)
	if err != nil {
		result.Err = fmt.Errorf("plugin: fingerprinting %q: %w", path, err)
		return result
	}
	result.Fingerprint = fp

	handle, err := plugin.Open(path)
	if err != nil {
		result.Err = fmt.Errorf("plugin: opening %q: %w", path, err)
		return result
	}

	sym, err := handle.Lookup(ConstructorSymbol)
	if err != nil {
		result.Err = fmt.Errorf("plugin: %q missing %s symbol: %w", path, ConstructorSymbol, err)
		return result
	}
	constructor, ok := sym.(func() Plugin)
	if !ok {
		result.Err = fmt.Errorf("plugin: %q symbol %s has unexpected type %T", path, ConstructorSymbol, sym)
		return result
	}

	result.Plugin = constructor()
	return result
}
