// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/aerologic/flightrecorder/lib/container"
)

// date20Layout formats a time.Time as the 20-character date used in
// rotated filenames, matching the width of the header's
// reftime.absolute field (spec §4.4): "20060102T150405-0700".
const date20Layout = "20060102T150405-0700"

var (
	plainPattern     = regexp.MustCompile(`^log-(\d+)\.bin$`)
	decoratedPattern = regexp.MustCompile(`^log-(\d+)-([0-9a-f]{5})-([0-9T+-]{20})\.bin$`)
)

// Sibling describes one rotated log file found in the output
// directory.
type Sibling struct {
	Path    string
	Idx     int
	Takeoff bool // header "takeoff" == "1"; false if absent or unreadable
	Size    int64
}

// EnumerateSiblings lists every file in outputDir matching either
// rotated naming pattern (spec §4.3), along with each file's size and
// takeoff status (read from its header record).
func EnumerateSiblings(outputDir string) ([]Sibling, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return nil, fmt.Errorf("backend: reading output directory %q: %w", outputDir, err)
	}

	var siblings []Sibling
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		idx, ok := parseIdx(entry.Name())
		if !ok {
			continue
		}
		path := filepath.Join(outputDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			continue
		}
		takeoff, _ := readTakeoff(path)
		siblings = append(siblings, Sibling{Path: path, Idx: idx, Takeoff: takeoff, Size: info.Size()})
	}
	return siblings, nil
}

// parseIdx extracts the idx component from either rotated filename
// pattern.
func parseIdx(name string) (int, bool) {
	if m := plainPattern.FindStringSubmatch(name); m != nil {
		idx, err := strconv.Atoi(m[1])
		return idx, err == nil
	}
	if m := decoratedPattern.FindStringSubmatch(name); m != nil {
		idx, err := strconv.Atoi(m[1])
		return idx, err == nil
	}
	return 0, false
}

// readTakeoff opens path and scans its uncompressed leading entries
// (file header, header SOURCE_DESC, header record) for the "takeoff"
// field, without touching any LZ4-compressed source data that
// follows (spec §4.4: the header record is written directly, ahead
// of anything the Buffer Pipeline produces).
func readTakeoff(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if _, err := container.ReadFileHeader(f); err != nil {
		return false, err
	}

	var headerSourceID uint32
	haveHeaderSourceID := false

	for {
		entry, err := container.ReadEntry(f)
		if err != nil {
			if err == io.EOF {
				return false, fmt.Errorf("backend: %s: no header record found", path)
			}
			return false, err
		}

		if entry.ID == container.EntrySourceDesc {
			desc, err := container.DecodeSourceDesc(entry.Payload)
			if err != nil {
				continue
			}
			if desc.Name == container.HeaderSourceName {
				headerSourceID = desc.SourceID
				haveHeaderSourceID = true
			}
			continue
		}

		if haveHeaderSourceID && entry.ID == headerSourceID {
			pairs, err := container.DecodeRecord(entry.Payload)
			if err != nil {
				return false, err
			}
			for _, pair := range pairs {
				if pair.Key == "takeoff" {
					return pair.Value == "1", nil
				}
			}
			return false, nil
		}
	}
}

// sortForEviction orders siblings takeoff=0 first (preferring to
// delete non-flight logs), then by ascending idx (spec §4.3).
func sortForEviction(siblings []Sibling) {
	sort.SliceStable(siblings, func(i, j int) bool {
		if siblings[i].Takeoff != siblings[j].Takeoff {
			return !siblings[i].Takeoff
		}
		return siblings[i].Idx < siblings[j].Idx
	})
}

// Eviction records one file removed during rotation, for the caller
// to report as an EVT:LOGS entry in the newly rotated-to file (spec
// §4.3).
type Eviction struct {
	Path    string
	Takeoff bool // false also covers "unknown" for files with an unreadable header
}

// Evict deletes siblings in eviction order (non-flight logs first,
// then ascending idx) until either removeSize bytes have been freed
// or the remaining count is below maxLogCount. maxLogCount of 0 means
// unbounded (only the removeSize target applies).
func Evict(siblings []Sibling, removeSize int64, maxLogCount int) ([]Eviction, error) {
	ordered := append([]Sibling(nil), siblings...)
	sortForEviction(ordered)

	var evicted []Eviction
	var freed int64
	remaining := len(ordered)

	for _, sib := range ordered {
		belowCount := maxLogCount <= 0 || remaining <= maxLogCount
		haveSpace := removeSize <= 0 || freed >= removeSize
		if belowCount && haveSpace {
			break
		}
		if err := os.Remove(sib.Path); err != nil {
			return evicted, fmt.Errorf("backend: removing %q: %w", sib.Path, err)
		}
		evicted = append(evicted, Eviction{Path: sib.Path, Takeoff: sib.Takeoff})
		freed += sib.Size
		remaining--
	}
	return evicted, nil
}

// RotateHeader carries the current file's header fields needed to
// pick and fill in the rotated filename pattern.
type RotateHeader struct {
	BootUUID string // ro.boot.uuid, empty if absent
	Date     string // date, empty if absent
}

// RotateCurrent renames the active file to "log-<maxIdx+1>-..." using
// the decorated pattern (uuid prefix + 20-char date) when the current
// file's header carries both ro.boot.uuid and date, or the plain
// pattern otherwise (spec §4.3). It fsyncs the output directory
// afterward so the rename survives a crash.
func RotateCurrent(outputDir, currentPath string, header RotateHeader, maxIdx int) (string, error) {
	nextIdx := maxIdx + 1
	var newName string

	if header.BootUUID != "" && header.Date != "" {
		prefix := header.BootUUID
		if len(prefix) > 5 {
			prefix = prefix[:5]
		}
		newName = fmt.Sprintf("log-%d-%s-%s.bin", nextIdx, prefix, formatDate20(header.Date))
	} else {
		newName = fmt.Sprintf("log-%d.bin", nextIdx)
	}

	newPath := filepath.Join(outputDir, newName)
	if err := os.Rename(currentPath, newPath); err != nil {
		return "", fmt.Errorf("backend: rotating %q to %q: %w", currentPath, newPath, err)
	}
	if err := fsyncDir(outputDir); err != nil {
		return newPath, err
	}
	return newPath, nil
}

// formatDate20 renders a date20 filename component for the current
// instant if the header's raw date field can't be parsed as-is; in
// the common case the header already stores a value in this layout
// and it is used verbatim.
func formatDate20(raw string) string {
	if len(raw) == len(date20Layout) {
		return raw
	}
	return time.Now().Format(date20Layout)
}

// NewUUIDPrefix5 generates a fresh random UUID and returns its first
// five characters, for callers constructing a RotateHeader.BootUUID
// when none is otherwise available.
func NewUUIDPrefix5() string {
	return uuid.NewString()[:5]
}

// MaxIdx returns the highest idx observed among siblings, or 0 if
// there are none. The backend reports this so a LogIdxManager can
// persist a lifetime-monotone counter across sessions (spec §4.3).
func MaxIdx(siblings []Sibling) int {
	max := 0
	for _, sib := range siblings {
		if sib.Idx > max {
			max = sib.Idx
		}
	}
	return max
}
