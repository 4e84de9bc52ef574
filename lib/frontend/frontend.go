// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package frontend

import (
	"crypto/md5"
	"fmt"
	"hash"
	"io"

	"github.com/aerologic/flightrecorder/lib/backend"
	"github.com/aerologic/flightrecorder/lib/container"
)

// Config configures a Frontend's policy decisions: where it writes,
// whether it encrypts, and the space/quota/size thresholds that drive
// rotation (spec §4.3, §4.4).
type Config struct {
	OutputDir string

	Encrypted  bool
	PubKeyPath string

	MaxLogCount  int
	MinFreeSpace int64
	MaxUsedSpace int64
	MaxLogSize   int64
	MinLogSize   int64

	ExtraProps []ExtraProp
	EnableMD5  bool

	PropertySource PropertySource
	LogIdx         LogIdxManager
	SpaceChecker   SpaceChecker
}

// Frontend owns one log session's open/close lifecycle: the backend
// file, the fixed-width header/footer fields, and the rotation
// triggers derived from size and space policy (spec §4.4). It is the
// io.Writer the Recorder's Buffer Pipeline flushes compressed entries
// into.
type Frontend struct {
	cfg   Config
	state State

	file *backend.File
	md5  hash.Hash

	indexCounter  int
	headerOffsets map[string]rewritableField
	extraOffsets  map[string]rewritableField

	flightUUID string
	gcsName    string
	gcsType    string
	date       string
	takeoff    bool
}

// New creates a Frontend in the CLOSED state. Call Open to begin a
// session.
func New(cfg Config) *Frontend {
	return &Frontend{
		cfg:           cfg,
		state:         StateClosed,
		headerOffsets: make(map[string]rewritableField),
		extraOffsets:  make(map[string]rewritableField),
	}
}

// State reports the Frontend's current lifecycle position.
func (f *Frontend) State() State {
	return f.state
}

// Open begins a new session: creates/truncates the active output
// file, writes the file header, registers the header source, and
// writes the header record (spec §4.4 steps 1-3). takeoff seeds the
// header's "takeoff" field; callers flip it later with UpdateTakeoff
// once flight is actually detected.
func (f *Frontend) Open(takeoff bool) error {
	if f.state != StateClosed {
		return fmt.Errorf("frontend: open called in state %s, want %s", f.state, StateClosed)
	}
	f.state = StateOpening

	file, err := backend.Open(f.cfg.OutputDir)
	if err != nil {
		f.state = StateClosed
		return fmt.Errorf("frontend: opening backend file: %w", err)
	}
	f.file = file

	if err := container.WriteFileHeader(f.file, container.MaxVersion); err != nil {
		f.state = StateClosed
		return fmt.Errorf("frontend: writing file header: %w", err)
	}

	headerSourceID := container.FirstSourceID
	descPayload, err := container.EncodeSourceDesc(container.SourceDesc{
		SourceID: headerSourceID,
		Version:  1,
		Plugin:   container.CorePluginName,
		Name:     container.HeaderSourceName,
	})
	if err != nil {
		f.state = StateClosed
		return fmt.Errorf("frontend: encoding header source desc: %w", err)
	}
	if err := container.WriteEntry(f.file, container.EntrySourceDesc, descPayload); err != nil {
		f.state = StateClosed
		return fmt.Errorf("frontend: writing header source desc: %w", err)
	}

	pairs, err := f.buildHeaderPairs(takeoff)
	if err != nil {
		f.state = StateClosed
		return fmt.Errorf("frontend: building header record: %w", err)
	}
	payload, offsets, err := container.EncodeRecord(pairs)
	if err != nil {
		f.state = StateClosed
		return fmt.Errorf("frontend: encoding header record: %w", err)
	}

	// The header record's values start right after the entry's 8-byte
	// id/len prefix, which itself starts right after everything
	// written so far.
	payloadBase := f.file.Size() + 8
	recordRewritableOffsets(pairs, offsets, payloadBase, f.headerOffsets)
	f.cacheExtraOffsets(pairs, offsets, payloadBase)

	if err := container.WriteEntry(f.file, headerSourceID, payload); err != nil {
		f.state = StateClosed
		return fmt.Errorf("frontend: writing header record: %w", err)
	}

	if f.cfg.EnableMD5 {
		f.md5 = md5.New()
	}

	f.takeoff = takeoff
	f.state = StateOpen
	return nil
}

// cacheExtraOffsets records the rewritable offset of every non-read-only
// extra property, keyed by its configured name.
func (f *Frontend) cacheExtraOffsets(pairs []container.Pair, offsets []container.FieldOffset, payloadBase int64) {
	extraKeys := make(map[string]bool, len(f.cfg.ExtraProps))
	for _, extra := range f.cfg.ExtraProps {
		if !extra.ReadOnly {
			extraKeys[extra.Key] = true
		}
	}
	for i, pair := range pairs {
		if !extraKeys[pair.Key] {
			continue
		}
		f.extraOffsets[pair.Key] = rewritableField{
			absoluteOffset: payloadBase + int64(offsets[i].ValueStart),
			width:          offsets[i].ValueLen,
		}
	}
}

// Write implements io.Writer, appending already-framed bytes (LZ4 or
// AES entries from the Buffer Pipeline) to the backend file and
// feeding the running MD5 digest if enabled (spec §4.4).
func (f *Frontend) Write(p []byte) (int, error) {
	if f.state != StateOpen {
		return 0, fmt.Errorf("frontend: write called in state %s, want %s", f.state, StateOpen)
	}
	n, err := f.file.Write(p)
	if err != nil {
		return n, err
	}
	if f.md5 != nil {
		f.md5.Write(p[:n])
	}
	return n, nil
}

var _ io.Writer = (*Frontend)(nil)

// Close finalizes the session: writes the footer source and record
// with the given reason, finalizes and rewrites the MD5 field if
// enabled, syncs, and closes the backend file (spec §4.4 step 5).
func (f *Frontend) Close(reason CloseReason) error {
	if f.state != StateOpen {
		return fmt.Errorf("frontend: close called in state %s, want %s", f.state, StateOpen)
	}
	f.state = StateClosing

	footerSourceID := container.FirstSourceID + 1
	descPayload, err := container.EncodeSourceDesc(container.SourceDesc{
		SourceID: footerSourceID,
		Version:  1,
		Plugin:   container.CorePluginName,
		Name:     container.FooterSourceName,
	})
	if err != nil {
		return fmt.Errorf("frontend: encoding footer source desc: %w", err)
	}
	if err := container.WriteEntry(f.file, container.EntrySourceDesc, descPayload); err != nil {
		return fmt.Errorf("frontend: writing footer source desc: %w", err)
	}

	footerPayload, _, err := container.EncodeRecord([]container.Pair{{Key: "reason", Value: string(reason)}})
	if err != nil {
		return fmt.Errorf("frontend: encoding footer record: %w", err)
	}
	if err := container.WriteEntry(f.file, footerSourceID, footerPayload); err != nil {
		return fmt.Errorf("frontend: writing footer record: %w", err)
	}

	if f.md5 != nil {
		if err := f.updateField("md5", fmt.Sprintf("%x", f.md5.Sum(nil))); err != nil {
			return fmt.Errorf("frontend: rewriting md5 field: %w", err)
		}
	}

	if err := f.file.Sync(); err != nil {
		return fmt.Errorf("frontend: syncing file: %w", err)
	}
	if err := f.file.Close(); err != nil {
		return fmt.Errorf("frontend: closing file: %w", err)
	}

	f.state = StateClosed
	return nil
}

// Sync flushes the active file to stable storage without closing it
// (spec §6.2 LogManager.flush: "immediate flush + fsync").
func (f *Frontend) Sync() error {
	if f.state != StateOpen {
		return fmt.Errorf("frontend: sync called in state %s, want %s", f.state, StateOpen)
	}
	return f.file.Sync()
}

// CurrentPath returns the active file's path, valid while the session
// is open (used by the rotation driver to rename it on close).
func (f *Frontend) CurrentPath() string {
	if f.file == nil {
		return ""
	}
	return f.file.Path()
}

// Size reports the number of bytes written to the active file so far.
func (f *Frontend) Size() int64 {
	if f.file == nil {
		return 0
	}
	return f.file.Size()
}

// updateField rewrites a cached rewritable header field in place. Per
// spec §4.4, if the new value does not fit in the field's reserved
// width, the update is dropped (not fatal) and the cached offset is
// cleared so future updates to the same key are also dropped rather
// than silently rewriting a stale offset.
func (f *Frontend) updateField(key, value string) error {
	field, ok := f.headerOffsets[key]
	if !ok {
		field, ok = f.extraOffsets[key]
	}
	if !ok {
		return fmt.Errorf("frontend: %q is not a rewritable field", key)
	}

	padded, err := container.PadValue(value, field.width)
	if err != nil {
		delete(f.headerOffsets, key)
		delete(f.extraOffsets, key)
		return fmt.Errorf("frontend: dropping update of %q: %w", key, err)
	}

	return f.file.WriteAt([]byte(padded), field.absoluteOffset)
}

// UpdateDate rewrites the header's "date" field.
func (f *Frontend) UpdateDate(date string) error {
	if err := f.updateField("date", date); err != nil {
		return err
	}
	f.date = date
	return nil
}

// UpdateFlightID rewrites the header's "control.flight.uuid" field.
func (f *Frontend) UpdateFlightID(uuid string) error {
	if err := f.updateField("control.flight.uuid", uuid); err != nil {
		return err
	}
	f.flightUUID = uuid
	return nil
}

// UpdateGCSName rewrites the header's "gcs.name" field.
func (f *Frontend) UpdateGCSName(name string) error {
	if err := f.updateField("gcs.name", name); err != nil {
		return err
	}
	f.gcsName = name
	return nil
}

// UpdateGCSType rewrites the header's "gcs.type" field.
func (f *Frontend) UpdateGCSType(kind string) error {
	if err := f.updateField("gcs.type", kind); err != nil {
		return err
	}
	f.gcsType = kind
	return nil
}

// UpdateTakeoff rewrites the header's "takeoff" field.
func (f *Frontend) UpdateTakeoff(takeoff bool) error {
	value := "0"
	if takeoff {
		value = "1"
	}
	if err := f.updateField("takeoff", value); err != nil {
		return err
	}
	f.takeoff = takeoff
	return nil
}

// UpdateRefTime rewrites the header's reftime.monotonic and
// reftime.absolute fields together, matching the single moment a
// reference clock reading becomes available (spec §4.4).
func (f *Frontend) UpdateRefTime(monotonic, absolute string) error {
	if err := f.updateField("reftime.monotonic", monotonic); err != nil {
		return err
	}
	return f.updateField("reftime.absolute", absolute)
}

// UpdateExtraProperty rewrites one non-read-only extra property
// registered in Config.ExtraProps.
func (f *Frontend) UpdateExtraProperty(key, value string) error {
	return f.updateField(key, value)
}

// Takeoff reports whether this session has been marked as a flight.
func (f *Frontend) Takeoff() bool {
	return f.takeoff
}

// FlightUUID reports the last value written to control.flight.uuid.
func (f *Frontend) FlightUUID() string {
	return f.flightUUID
}
