// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package frontend

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aerologic/flightrecorder/lib/container"
)

type fakeProperties struct {
	pairs []container.Pair
}

func (f fakeProperties) SystemProperties() []container.Pair {
	return f.pairs
}

type fakeLogIdx struct {
	idx int
}

func (f *fakeLogIdx) GetIndex() (int, error) { return f.idx, nil }
func (f *fakeLogIdx) SetIndex(idx int) error  { f.idx = idx; return nil }
func (f *fakeLogIdx) GetIndexStr() (string, error) {
	return fmt.Sprintf("%d", f.idx), nil
}

type fakeSpace struct {
	free int64
	used int64
}

func (f fakeSpace) FreeBytes(string) (int64, error) { return f.free, nil }
func (f fakeSpace) UsedBytes(string) (int64, error) { return f.used, nil }

func newTestFrontend(t *testing.T, cfg Config) *Frontend {
	t.Helper()
	if cfg.OutputDir == "" {
		cfg.OutputDir = t.TempDir()
	}
	return New(cfg)
}

func readEntries(t *testing.T, path string) []container.Entry {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %q: %v", path, err)
	}
	defer f.Close()

	if _, err := container.ReadFileHeader(f); err != nil {
		t.Fatalf("read file header: %v", err)
	}

	var entries []container.Entry
	for {
		entry, err := container.ReadEntry(f)
		if err != nil {
			if err == io.EOF {
				break
			}
			t.Fatalf("read entry: %v", err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestOpenWritesFileHeaderAndHeaderRecord(t *testing.T) {
	fe := newTestFrontend(t, Config{
		PropertySource: fakeProperties{pairs: []container.Pair{{Key: "board.id", Value: "abc123"}}},
		LogIdx:         &fakeLogIdx{idx: 7},
	})
	if err := fe.Open(false); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if fe.State() != StateOpen {
		t.Fatalf("state = %s, want %s", fe.State(), StateOpen)
	}
	path := fe.CurrentPath()
	if err := fe.Close(CloseExiting); err != nil {
		t.Fatalf("Close: %v", err)
	}

	entries := readEntries(t, path)
	if len(entries) < 4 {
		t.Fatalf("got %d entries, want at least 4 (header desc, header record, footer desc, footer record)", len(entries))
	}

	headerDesc, err := container.DecodeSourceDesc(entries[0].Payload)
	if err != nil {
		t.Fatalf("decode header source desc: %v", err)
	}
	if headerDesc.Name != container.HeaderSourceName {
		t.Fatalf("header desc name = %q, want %q", headerDesc.Name, container.HeaderSourceName)
	}

	pairs, err := container.DecodeRecord(entries[1].Payload)
	if err != nil {
		t.Fatalf("decode header record: %v", err)
	}
	found := make(map[string]string)
	for _, p := range pairs {
		found[p.Key] = p.Value
	}
	if found["board.id"] != "abc123" {
		t.Fatalf("board.id = %q, want %q", found["board.id"], "abc123")
	}
	if container.TrimPad(found["takeoff"]) != "0" {
		t.Fatalf("takeoff = %q, want %q", found["takeoff"], "0")
	}
}

func TestOpenRejectsDoubleOpen(t *testing.T) {
	fe := newTestFrontend(t, Config{})
	if err := fe.Open(false); err != nil {
		t.Fatalf("first Open: %v", err)
	}
	defer fe.Close(CloseExiting)

	if err := fe.Open(false); err == nil {
		t.Fatal("second Open succeeded, want error")
	}
}

func TestCloseRejectsWhenNotOpen(t *testing.T) {
	fe := newTestFrontend(t, Config{})
	if err := fe.Close(CloseExiting); err == nil {
		t.Fatal("Close on unopened frontend succeeded, want error")
	}
}

func TestUpdateTakeoffRewritesInPlace(t *testing.T) {
	fe := newTestFrontend(t, Config{})
	if err := fe.Open(false); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := fe.UpdateTakeoff(true); err != nil {
		t.Fatalf("UpdateTakeoff: %v", err)
	}
	path := fe.CurrentPath()
	if err := fe.Close(CloseRotate); err != nil {
		t.Fatalf("Close: %v", err)
	}

	entries := readEntries(t, path)
	pairs, err := container.DecodeRecord(entries[1].Payload)
	if err != nil {
		t.Fatalf("decode header record: %v", err)
	}
	for _, p := range pairs {
		if p.Key == "takeoff" && container.TrimPad(p.Value) != "1" {
			t.Fatalf("takeoff = %q, want %q", p.Value, "1")
		}
	}
}

func TestUpdateDateRewriteLeavesFileSizeUnchanged(t *testing.T) {
	fe := newTestFrontend(t, Config{})
	if err := fe.Open(false); err != nil {
		t.Fatalf("Open: %v", err)
	}
	sizeBeforeUpdate := fe.Size()

	if err := fe.UpdateDate("20240102T030405+0000"); err != nil {
		t.Fatalf("UpdateDate: %v", err)
	}
	if got := fe.Size(); got != sizeBeforeUpdate {
		t.Fatalf("Size() after UpdateDate = %d, want unchanged %d", got, sizeBeforeUpdate)
	}

	path := fe.CurrentPath()
	if err := fe.Close(CloseExiting); err != nil {
		t.Fatalf("Close: %v", err)
	}

	entries := readEntries(t, path)
	pairs, err := container.DecodeRecord(entries[1].Payload)
	if err != nil {
		t.Fatalf("decode header record: %v", err)
	}
	for _, p := range pairs {
		if p.Key == "date" {
			if got := container.TrimPad(p.Value); got != "20240102T030405+0000" {
				t.Fatalf("date = %q, want %q", got, "20240102T030405+0000")
			}
			if len(p.Value) != DateWidth {
				t.Fatalf("date field width = %d, want %d", len(p.Value), DateWidth)
			}
		}
	}
}

func TestUpdateFieldDropsOversizedValue(t *testing.T) {
	fe := newTestFrontend(t, Config{})
	if err := fe.Open(false); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer fe.Close(CloseExiting)

	oversized := bytes.Repeat([]byte("x"), TakeoffWidth+1)
	if err := fe.updateField("takeoff", string(oversized)); err == nil {
		t.Fatal("updateField with oversized value succeeded, want error")
	}
	if _, ok := fe.headerOffsets["takeoff"]; ok {
		t.Fatal("takeoff offset still cached after a dropped update")
	}
}

func TestUpdateFlightIDAndGCSFields(t *testing.T) {
	fe := newTestFrontend(t, Config{})
	if err := fe.Open(false); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := fe.UpdateFlightID("11111111-2222-3333-4444-555555555555"); err != nil {
		t.Fatalf("UpdateFlightID: %v", err)
	}
	if err := fe.UpdateGCSName("ground-station-1"); err != nil {
		t.Fatalf("UpdateGCSName: %v", err)
	}
	if err := fe.UpdateGCSType("android"); err != nil {
		t.Fatalf("UpdateGCSType: %v", err)
	}
	path := fe.CurrentPath()
	if err := fe.Close(CloseExiting); err != nil {
		t.Fatalf("Close: %v", err)
	}

	entries := readEntries(t, path)
	pairs, err := container.DecodeRecord(entries[1].Payload)
	if err != nil {
		t.Fatalf("decode header record: %v", err)
	}
	found := make(map[string]string)
	for _, p := range pairs {
		found[p.Key] = container.TrimPad(p.Value)
	}
	if found["control.flight.uuid"] != "11111111-2222-3333-4444-555555555555" {
		t.Fatalf("control.flight.uuid = %q", found["control.flight.uuid"])
	}
	if found["gcs.name"] != "ground-station-1" {
		t.Fatalf("gcs.name = %q", found["gcs.name"])
	}
	if found["gcs.type"] != "android" {
		t.Fatalf("gcs.type = %q", found["gcs.type"])
	}
}

func TestCloseFinalizesMD5(t *testing.T) {
	fe := newTestFrontend(t, Config{EnableMD5: true})
	if err := fe.Open(false); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := fe.Write(bytes.Repeat([]byte{0xAB}, 64)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	path := fe.CurrentPath()
	if err := fe.Close(CloseExiting); err != nil {
		t.Fatalf("Close: %v", err)
	}

	entries := readEntries(t, path)
	pairs, err := container.DecodeRecord(entries[1].Payload)
	if err != nil {
		t.Fatalf("decode header record: %v", err)
	}
	for _, p := range pairs {
		if p.Key == "md5" {
			trimmed := container.TrimPad(p.Value)
			if len(trimmed) != MD5Width || trimmed == container.SentinelValue(MD5Width) {
				t.Fatalf("md5 field not finalized: %q", p.Value)
			}
		}
	}
}

func TestWriteRejectsWhenNotOpen(t *testing.T) {
	fe := newTestFrontend(t, Config{})
	if _, err := fe.Write([]byte("x")); err == nil {
		t.Fatal("Write on unopened frontend succeeded, want error")
	}
}

func TestExtraPropertiesRoundTrip(t *testing.T) {
	fe := newTestFrontend(t, Config{
		ExtraProps: []ExtraProp{
			{Key: "vehicle.serial", ReservedSize: 16, InitialValue: ""},
			{Key: "vehicle.model", ReservedSize: 0, InitialValue: "quad-x", ReadOnly: true},
		},
	})
	if err := fe.Open(false); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := fe.UpdateExtraProperty("vehicle.serial", "SN-0042"); err != nil {
		t.Fatalf("UpdateExtraProperty: %v", err)
	}
	path := fe.CurrentPath()
	if err := fe.Close(CloseExiting); err != nil {
		t.Fatalf("Close: %v", err)
	}

	entries := readEntries(t, path)
	pairs, err := container.DecodeRecord(entries[1].Payload)
	if err != nil {
		t.Fatalf("decode header record: %v", err)
	}
	found := make(map[string]string)
	for _, p := range pairs {
		found[p.Key] = container.TrimPad(p.Value)
	}
	if found["vehicle.serial"] != "SN-0042" {
		t.Fatalf("vehicle.serial = %q", found["vehicle.serial"])
	}
	if found["vehicle.model"] != "quad-x" {
		t.Fatalf("vehicle.model = %q", found["vehicle.model"])
	}
}

func TestCheckLimitsFileTooBig(t *testing.T) {
	fe := newTestFrontend(t, Config{MaxLogSize: 32})
	if err := fe.Open(false); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer fe.Close(CloseExiting)

	reason, shouldClose, err := fe.CheckLimits()
	if err != nil {
		t.Fatalf("CheckLimits: %v", err)
	}
	if !shouldClose || reason != CloseFileTooBig {
		t.Fatalf("CheckLimits = (%s, %v), want (%s, true)", reason, shouldClose, CloseFileTooBig)
	}
}

func TestCheckLimitsNoSpaceLeft(t *testing.T) {
	fe := newTestFrontend(t, Config{
		MinFreeSpace: 1 << 20,
		MinLogSize:   1 << 10,
		SpaceChecker: fakeSpace{free: 100},
	})
	if err := fe.Open(false); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer fe.Close(CloseExiting)

	reason, shouldClose, err := fe.CheckLimits()
	if err != nil {
		t.Fatalf("CheckLimits: %v", err)
	}
	if !shouldClose || reason != CloseNoSpaceLeft {
		t.Fatalf("CheckLimits = (%s, %v), want (%s, true)", reason, shouldClose, CloseNoSpaceLeft)
	}
}

func TestCheckLimitsQuotaReached(t *testing.T) {
	fe := newTestFrontend(t, Config{
		MaxUsedSpace: 1000,
		SpaceChecker: fakeSpace{free: 1 << 30, used: 950},
	})
	if err := fe.Open(false); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer fe.Close(CloseExiting)

	reason, shouldClose, err := fe.CheckLimits()
	if err != nil {
		t.Fatalf("CheckLimits: %v", err)
	}
	if !shouldClose || reason != CloseQuotaReached {
		t.Fatalf("CheckLimits = (%s, %v), want (%s, true)", reason, shouldClose, CloseQuotaReached)
	}
}

func TestRemoveSizeForNoSpaceLeft(t *testing.T) {
	fe := newTestFrontend(t, Config{
		MinFreeSpace: 1 << 20,
		MinLogSize:   1 << 10,
		SpaceChecker: fakeSpace{free: 100},
	})
	if err := fe.Open(false); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer fe.Close(CloseExiting)

	want := int64(1<<20) + int64(1<<10) - 100
	got, err := fe.RemoveSizeFor(CloseNoSpaceLeft)
	if err != nil {
		t.Fatalf("RemoveSizeFor: %v", err)
	}
	if got != want {
		t.Fatalf("RemoveSizeFor(CloseNoSpaceLeft) = %d, want %d", got, want)
	}
}

func TestRemoveSizeForQuotaReached(t *testing.T) {
	fe := newTestFrontend(t, Config{
		MaxUsedSpace: 1000,
		MinLogSize:   10,
		SpaceChecker: fakeSpace{free: 1 << 30, used: 950},
	})
	if err := fe.Open(false); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer fe.Close(CloseExiting)

	want := 950 + fe.Size() + 10 - 1000
	got, err := fe.RemoveSizeFor(CloseQuotaReached)
	if err != nil {
		t.Fatalf("RemoveSizeFor: %v", err)
	}
	if got != want {
		t.Fatalf("RemoveSizeFor(CloseQuotaReached) = %d, want %d", got, want)
	}
}

func TestRemoveSizeForOtherReasonsIsZero(t *testing.T) {
	fe := newTestFrontend(t, Config{})
	if err := fe.Open(false); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer fe.Close(CloseExiting)

	got, err := fe.RemoveSizeFor(CloseFileTooBig)
	if err != nil {
		t.Fatalf("RemoveSizeFor: %v", err)
	}
	if got != 0 {
		t.Fatalf("RemoveSizeFor(CloseFileTooBig) = %d, want 0", got)
	}
}

func TestCheckLimitsWithinBounds(t *testing.T) {
	fe := newTestFrontend(t, Config{
		MaxLogSize:   1 << 30,
		MaxUsedSpace: 1 << 30,
		MinFreeSpace: 1,
		SpaceChecker: fakeSpace{free: 1 << 30, used: 0},
	})
	if err := fe.Open(false); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer fe.Close(CloseExiting)

	_, shouldClose, err := fe.CheckLimits()
	if err != nil {
		t.Fatalf("CheckLimits: %v", err)
	}
	if shouldClose {
		t.Fatal("CheckLimits wants to close a session well within its limits")
	}
}

func TestCanOpenRespectsMinFreeSpace(t *testing.T) {
	fe := newTestFrontend(t, Config{
		MinFreeSpace: 1 << 20,
		MinLogSize:   1 << 10,
		SpaceChecker: fakeSpace{free: 10},
	})
	ok, err := fe.CanOpen()
	if err != nil {
		t.Fatalf("CanOpen: %v", err)
	}
	if ok {
		t.Fatal("CanOpen = true, want false when free space is below threshold")
	}
}

func TestSyncRejectsWhenNotOpen(t *testing.T) {
	fe := newTestFrontend(t, Config{})
	if err := fe.Sync(); err == nil {
		t.Fatal("Sync on unopened frontend succeeded, want error")
	}
}

func TestSyncSucceedsWhenOpen(t *testing.T) {
	fe := newTestFrontend(t, Config{})
	if err := fe.Open(false); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer fe.Close(CloseExiting)

	if err := fe.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
}

func TestOutputDirIsCreated(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	fe := newTestFrontend(t, Config{OutputDir: dir})
	if err := fe.Open(false); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer fe.Close(CloseExiting)

	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("output dir not created: %v", err)
	}
}
