// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"time"

	"github.com/aerologic/flightrecorder/lib/clock"
	"github.com/aerologic/flightrecorder/lib/container"
)

// DefaultTickPeriod is the floor applied to the recomputed tick period
// when every registered source declares a longer polling period (spec
// §4.5).
const DefaultTickPeriod = 200 * time.Millisecond

// entryHeaderSize is the 8-byte {id:u32, len:u32} prefix the registry
// writes ahead of a source's payload into the Buffer's scratch region.
const entryHeaderSize = 8

// entry tracks one registered source's identity and scheduling state.
type entry struct {
	id      uint32
	plugin  string
	name    string
	version uint32
	source  LogSource

	pendingDesc bool
	deadline    time.Time
	removed     bool
}

// Registry assigns source IDs starting at container.FirstSourceID and
// drives the round-robin scheduler tick over every registered source
// (spec §4.5).
type Registry struct {
	clock  clock.Clock
	logger *slog.Logger
	nextID uint32

	order   []uint32
	sources map[uint32]*entry

	lastFlush   time.Time
	flushPeriod time.Duration
}

// New creates an empty Registry. flushPeriod is the cadence at which
// Tick asks the Buffer to flush, independent of any source's polling
// period (spec §4.5 step 4). A nil logger falls back to slog.Default.
func New(clk clock.Clock, flushPeriod time.Duration, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		clock:       clk,
		logger:      logger,
		nextID:      container.FirstSourceID,
		sources:     make(map[uint32]*entry),
		lastFlush:   clk.Now(),
		flushPeriod: flushPeriod,
	}
}

// AddLogSource registers src, allocates it a fresh source ID, and
// marks its SOURCE_DESC as pending (spec §6.2 addLogSource).
func (r *Registry) AddLogSource(src LogSource, plugin, name string, version uint32) uint32 {
	id := r.nextID
	r.nextID++

	e := &entry{
		id:          id,
		plugin:      plugin,
		name:        name,
		version:     version,
		source:      src,
		pendingDesc: true,
		deadline:    r.clock.Now().Add(periodDuration(src.GetPeriodMs())),
	}
	r.sources[id] = e
	r.order = append(r.order, id)
	return id
}

// RemoveLogSource marks the source registered under id for deferred
// removal; it is reaped at the end of the next Tick (spec §6.2
// removeLogSource).
func (r *Registry) RemoveLogSource(id uint32) error {
	e, ok := r.sources[id]
	if !ok {
		return fmt.Errorf("registry: no source registered with id %d", id)
	}
	e.removed = true
	return nil
}

// periodDuration converts a declared period in milliseconds to a
// Duration, flooring at DefaultTickPeriod for non-positive values.
func periodDuration(periodMs int) time.Duration {
	if periodMs <= 0 {
		return DefaultTickPeriod
	}
	return time.Duration(periodMs) * time.Millisecond
}

// TickPeriod recomputes the scheduler's tick period as the minimum of
// every non-removed source's declared period, floored at
// DefaultTickPeriod (spec §4.5 step 2).
func (r *Registry) TickPeriod() time.Duration {
	period := DefaultTickPeriod
	for _, id := range r.order {
		e := r.sources[id]
		if e.removed {
			continue
		}
		if d := periodDuration(e.source.GetPeriodMs()); d < period {
			period = d
		}
	}
	return period
}

// sink is the subset of *buffer.Buffer the registry needs: a scratch
// write region, a way to commit bytes written there, and an explicit
// flush. Declared as an interface here (rather than importing
// lib/buffer directly) so tests can substitute a bare in-memory sink.
type sink interface {
	GetWriteHead() []byte
	Push(n int) error
	Flush() error
}

// Tick runs one scheduler pass over every registered source (spec
// §4.5): for each non-removed source whose deadline has elapsed (or
// unconditionally, when force is true), emit its pending SOURCE_DESC,
// poll it once, and advance its deadline. If the flush period has
// elapsed, buf is flushed. Finally, removed sources are reaped.
//
// A source whose ReadData call returns an error is skipped for this
// tick only (spec §7, "source errors"); Tick continues with the next
// source rather than aborting.
func (r *Registry) Tick(buf sink, force bool) []error {
	now := r.clock.Now()
	var errs []error
	tickPeriod := r.TickPeriod()

	for _, id := range r.order {
		e := r.sources[id]
		if e.removed {
			continue
		}
		if !force && now.Before(e.deadline) {
			continue
		}

		if e.pendingDesc {
			if err := r.emitSourceDesc(buf, e); err != nil {
				errs = append(errs, fmt.Errorf("registry: source %d (%s-%s): %w", e.id, e.plugin, e.name, err))
				e.deadline = now.Add(periodDuration(e.source.GetPeriodMs()))
				continue
			}
			e.pendingDesc = false
		}

		pollStart := r.clock.Now()
		if err := r.pollOne(buf, e); err != nil {
			errs = append(errs, fmt.Errorf("registry: source %d (%s-%s): %w", e.id, e.plugin, e.name, err))
		}
		if elapsed := r.clock.Now().Sub(pollStart); elapsed > 2*tickPeriod {
			r.logger.Warn("source poll exceeded twice the tick period",
				"source", e.id, "plugin", e.plugin, "name", e.name,
				"elapsed", elapsed, "tick_period", tickPeriod)
		}
		e.deadline = now.Add(periodDuration(e.source.GetPeriodMs()))
	}

	if r.flushPeriod > 0 && now.Sub(r.lastFlush) >= r.flushPeriod {
		if err := buf.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("registry: flushing buffer: %w", err))
		}
		r.lastFlush = now
	}

	r.reap()
	return errs
}

// emitSourceDesc writes the source's SOURCE_DESC entry into buf as a
// regular compressed/encrypted entry (spec §4.1: SOURCE_DESC precedes
// the first data entry from that source within the current file).
func (r *Registry) emitSourceDesc(buf sink, e *entry) error {
	payload, err := container.EncodeSourceDesc(container.SourceDesc{
		SourceID: e.id,
		Version:  e.version,
		Plugin:   e.plugin,
		Name:     e.name,
	})
	if err != nil {
		return fmt.Errorf("encoding source desc: %w", err)
	}
	return r.writeFramedEntry(buf, container.EntrySourceDesc, payload)
}

// pollOne asks e's source for at most one entry's worth of bytes and
// frames the result as {id=e.id, len, bytes} directly into buf's
// scratch region.
func (r *Registry) pollOne(buf sink, e *entry) error {
	head := buf.GetWriteHead()
	if len(head) <= entryHeaderSize {
		return fmt.Errorf("no scratch space available")
	}

	n, err := e.source.ReadData(head[entryHeaderSize:])
	if err != nil {
		return fmt.Errorf("readData: %w", err)
	}
	if n == 0 {
		return nil
	}
	if uint32(n) > container.MaxEntryLen {
		return fmt.Errorf("readData returned %d bytes, exceeding max entry length", n)
	}

	binary.LittleEndian.PutUint32(head[0:4], e.id)
	binary.LittleEndian.PutUint32(head[4:8], uint32(n))
	return buf.Push(entryHeaderSize + n)
}

// writeFramedEntry frames payload under id and commits it to buf's
// scratch region in one Push.
func (r *Registry) writeFramedEntry(buf sink, id uint32, payload []byte) error {
	head := buf.GetWriteHead()
	if len(head) < entryHeaderSize+len(payload) {
		return fmt.Errorf("scratch region too small for %d-byte entry", len(payload))
	}
	binary.LittleEndian.PutUint32(head[0:4], id)
	binary.LittleEndian.PutUint32(head[4:8], uint32(len(payload)))
	copy(head[entryHeaderSize:], payload)
	return buf.Push(entryHeaderSize + len(payload))
}

// reap deletes every source marked for removal.
func (r *Registry) reap() {
	kept := r.order[:0]
	for _, id := range r.order {
		e := r.sources[id]
		if e.removed {
			delete(r.sources, id)
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
}

// StartSession calls StartSession on every non-removed registered
// source, as required on every Frontend file open (spec §6.2), and
// re-arms every source's pending SOURCE_DESC flag since a new file
// has no prior descriptors.
func (r *Registry) StartSession() []error {
	var errs []error
	for _, id := range r.order {
		e := r.sources[id]
		if e.removed {
			continue
		}
		e.pendingDesc = true
		if err := e.source.StartSession(); err != nil {
			errs = append(errs, fmt.Errorf("registry: source %d (%s-%s) startSession: %w", e.id, e.plugin, e.name, err))
		}
	}
	return errs
}

// Len reports the number of currently registered (non-reaped) sources.
func (r *Registry) Len() int {
	return len(r.order)
}
