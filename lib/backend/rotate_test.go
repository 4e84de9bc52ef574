// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/aerologic/flightrecorder/lib/container"
)

// writeMinimalLog builds a log.bin-shaped file with just enough
// structure for readTakeoff to find the "takeoff" field: a file
// header, the header source's SOURCE_DESC, and one record entry.
func writeMinimalLog(t *testing.T, path string, takeoff string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating %q: %v", path, err)
	}
	defer f.Close()

	if err := container.WriteFileHeader(f, 1); err != nil {
		t.Fatalf("WriteFileHeader: %v", err)
	}

	const headerSourceID = container.FirstSourceID
	desc, err := container.EncodeSourceDesc(container.SourceDesc{
		SourceID: headerSourceID,
		Version:  1,
		Plugin:   container.CorePluginName,
		Name:     container.HeaderSourceName,
	})
	if err != nil {
		t.Fatalf("EncodeSourceDesc: %v", err)
	}
	if err := container.WriteEntry(f, container.EntrySourceDesc, desc); err != nil {
		t.Fatalf("WriteEntry(SourceDesc): %v", err)
	}

	payload, _, err := container.EncodeRecord([]container.Pair{
		{Key: "takeoff", Value: takeoff},
	})
	if err != nil {
		t.Fatalf("EncodeRecord: %v", err)
	}
	if err := container.WriteEntry(f, headerSourceID, payload); err != nil {
		t.Fatalf("WriteEntry(record): %v", err)
	}
}

func TestEnumerateSiblingsParsesBothPatterns(t *testing.T) {
	dir := t.TempDir()
	writeMinimalLog(t, filepath.Join(dir, "log-1.bin"), "0")
	writeMinimalLog(t, filepath.Join(dir, "log-2-abcde-20260803T143000+0200.bin"), "1")
	if err := os.WriteFile(filepath.Join(dir, "not-a-log.txt"), []byte("ignore me"), 0o644); err != nil {
		t.Fatalf("seeding unrelated file: %v", err)
	}

	siblings, err := EnumerateSiblings(dir)
	if err != nil {
		t.Fatalf("EnumerateSiblings failed: %v", err)
	}
	if len(siblings) != 2 {
		t.Fatalf("len(siblings) = %d, want 2", len(siblings))
	}

	byIdx := map[int]Sibling{}
	for _, s := range siblings {
		byIdx[s.Idx] = s
	}
	if byIdx[1].Takeoff {
		t.Error("log-1.bin should have takeoff=false")
	}
	if !byIdx[2].Takeoff {
		t.Error("log-2-...bin should have takeoff=true")
	}
}

func TestEvictOrdersNonFlightFirst(t *testing.T) {
	dir := t.TempDir()
	siblings := []Sibling{
		{Path: "log-3.bin", Idx: 3, Takeoff: true, Size: 100},
		{Path: "log-1.bin", Idx: 1, Takeoff: false, Size: 100},
		{Path: "log-2.bin", Idx: 2, Takeoff: false, Size: 100},
	}
	for i := range siblings {
		path := filepath.Join(dir, filepath.Base(siblings[i].Path))
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			t.Fatalf("seeding %q: %v", path, err)
		}
		siblings[i].Path = path
	}

	evicted, err := Evict(siblings, 0, 1)
	if err != nil {
		t.Fatalf("Evict failed: %v", err)
	}
	if len(evicted) != 2 {
		t.Fatalf("len(evicted) = %d, want 2 (down to maxLogCount=1)", len(evicted))
	}
	if evicted[0].Takeoff || evicted[1].Takeoff {
		t.Error("Evict should remove non-flight logs before flight logs")
	}
}

func TestEvictBySize(t *testing.T) {
	dir := t.TempDir()
	siblings := []Sibling{
		{Idx: 1, Takeoff: false, Size: 50},
		{Idx: 2, Takeoff: false, Size: 50},
		{Idx: 3, Takeoff: false, Size: 50},
	}
	for i := range siblings {
		path := filepath.Join(dir, fmt.Sprintf("log-%d.bin", siblings[i].Idx))
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			t.Fatalf("seeding: %v", err)
		}
		siblings[i].Path = path
	}

	evicted, err := Evict(siblings, 60, 0)
	if err != nil {
		t.Fatalf("Evict failed: %v", err)
	}
	if len(evicted) != 2 {
		t.Fatalf("len(evicted) = %d, want 2 (50+50 >= 60)", len(evicted))
	}
}

func TestRotateCurrentPlainPattern(t *testing.T) {
	dir := t.TempDir()
	current := filepath.Join(dir, ActiveFileName)
	if err := os.WriteFile(current, []byte("data"), 0o644); err != nil {
		t.Fatalf("seeding current file: %v", err)
	}

	newPath, err := RotateCurrent(dir, current, RotateHeader{}, 4)
	if err != nil {
		t.Fatalf("RotateCurrent failed: %v", err)
	}
	want := filepath.Join(dir, "log-5.bin")
	if newPath != want {
		t.Errorf("newPath = %q, want %q", newPath, want)
	}
	if _, err := os.Stat(newPath); err != nil {
		t.Errorf("rotated file should exist: %v", err)
	}
	if _, err := os.Stat(current); err == nil {
		t.Error("original active file path should no longer exist after rotation")
	}
}

func TestRotateCurrentDecoratedPattern(t *testing.T) {
	dir := t.TempDir()
	current := filepath.Join(dir, ActiveFileName)
	if err := os.WriteFile(current, []byte("data"), 0o644); err != nil {
		t.Fatalf("seeding current file: %v", err)
	}

	header := RotateHeader{BootUUID: "abcdef01-2345", Date: "20260803T143000+0200"}
	newPath, err := RotateCurrent(dir, current, header, 0)
	if err != nil {
		t.Fatalf("RotateCurrent failed: %v", err)
	}
	want := filepath.Join(dir, "log-1-abcde-20260803T143000+0200.bin")
	if newPath != want {
		t.Errorf("newPath = %q, want %q", newPath, want)
	}
}

func TestMaxIdx(t *testing.T) {
	siblings := []Sibling{{Idx: 3}, {Idx: 7}, {Idx: 1}}
	if got := MaxIdx(siblings); got != 7 {
		t.Errorf("MaxIdx = %d, want 7", got)
	}
	if got := MaxIdx(nil); got != 0 {
		t.Errorf("MaxIdx(nil) = %d, want 0", got)
	}
}

func TestNewUUIDPrefix5Length(t *testing.T) {
	if got := len(NewUUIDPrefix5()); got != 5 {
		t.Errorf("len(NewUUIDPrefix5()) = %d, want 5", got)
	}
}
