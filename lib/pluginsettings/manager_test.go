// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package pluginsettings

import "testing"

func TestMemoryManagerGetSet(t *testing.T) {
	m := NewMemoryManager()

	if _, ok := m.Get("sysmon"); ok {
		t.Fatal("Get on empty manager returned ok=true")
	}

	if err := m.Set("sysmon", "blob-1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	blob, ok := m.Get("sysmon")
	if !ok || blob != "blob-1" {
		t.Fatalf("Get after Set = (%q, %v), want (%q, true)", blob, ok, "blob-1")
	}

	if err := m.Set("sysmon", "blob-2"); err != nil {
		t.Fatalf("Set (overwrite): %v", err)
	}
	if blob, _ := m.Get("sysmon"); blob != "blob-2" {
		t.Fatalf("Get after overwrite = %q, want %q", blob, "blob-2")
	}
}

func TestMemoryManagerRejectsEmptyName(t *testing.T) {
	m := NewMemoryManager()
	if err := m.Set("", "blob"); err == nil {
		t.Fatal("Set with empty name succeeded, want error")
	}
}
