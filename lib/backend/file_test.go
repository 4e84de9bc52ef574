// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenCreatesActiveFile(t *testing.T) {
	dir := t.TempDir()
	f, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	wantPath := filepath.Join(dir, ActiveFileName)
	if f.Path() != wantPath {
		t.Errorf("Path() = %q, want %q", f.Path(), wantPath)
	}
	if _, err := os.Stat(wantPath); err != nil {
		t.Errorf("expected %q to exist: %v", wantPath, err)
	}
}

func TestWriteAdvancesSize(t *testing.T) {
	dir := t.TempDir()
	f, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	data := []byte("hello, flight recorder")
	n, err := f.Write(data)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != len(data) {
		t.Errorf("Write returned %d, want %d", n, len(data))
	}
	if f.Size() != int64(len(data)) {
		t.Errorf("Size() = %d, want %d", f.Size(), len(data))
	}

	more := []byte(" more bytes")
	if _, err := f.Write(more); err != nil {
		t.Fatalf("second Write failed: %v", err)
	}
	if f.Size() != int64(len(data)+len(more)) {
		t.Errorf("Size() after second write = %d, want %d", f.Size(), len(data)+len(more))
	}

	if err := f.Sync(); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	contents, err := os.ReadFile(f.Path())
	if err != nil {
		t.Fatalf("reading back file: %v", err)
	}
	want := string(data) + string(more)
	if string(contents) != want {
		t.Errorf("file contents = %q, want %q", contents, want)
	}
}

func TestWriteAtDoesNotAdvanceSize(t *testing.T) {
	dir := t.TempDir()
	f, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	if _, err := f.Write([]byte("0123456789")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	sizeBefore := f.Size()

	if err := f.WriteAt([]byte("XYZ"), 2); err != nil {
		t.Fatalf("WriteAt failed: %v", err)
	}
	if f.Size() != sizeBefore {
		t.Errorf("Size() changed after WriteAt: got %d, want %d", f.Size(), sizeBefore)
	}

	contents, err := os.ReadFile(f.Path())
	if err != nil {
		t.Fatalf("reading back file: %v", err)
	}
	if string(contents) != "01XYZ56789" {
		t.Errorf("file contents = %q, want %q", contents, "01XYZ56789")
	}
}

func TestOpenTruncatesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ActiveFileName)
	if err := os.WriteFile(path, []byte("stale contents from a previous session"), 0o644); err != nil {
		t.Fatalf("seeding stale file: %v", err)
	}

	f, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("Open should truncate an existing file, size = %d", info.Size())
	}
}
