// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package recorder

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aerologic/flightrecorder/lib/backend"
	"github.com/aerologic/flightrecorder/lib/buffer"
	"github.com/aerologic/flightrecorder/lib/clock"
	"github.com/aerologic/flightrecorder/lib/frontend"
	"github.com/aerologic/flightrecorder/lib/registry"
)

// Config configures a Recorder's subsystems. Most fields map directly
// onto frontend.Config (spec §6.3); FlushThreshold/MinScratchSpace
// size the Buffer Pipeline (spec §4.2), and FlushPeriod/BootUUID
// support the scheduler tick and rotation filename decoration (spec
// §4.5, §4.3).
type Config struct {
	Frontend frontend.Config

	FlushThreshold  int
	MinScratchSpace int
	FlushPeriod     time.Duration

	// BootUUID decorates rotated filenames alongside the header's date
	// field (spec §4.3); empty disables the decorated naming pattern.
	BootUUID string

	Clock  clock.Clock
	Logger *slog.Logger
}

// Recorder is the struct-of-subsystems facade: it owns the Frontend
// session, the Buffer Pipeline, and the Source Registry, and exposes
// the control operations a LogManager collaborator would call (spec
// §6.2).
type Recorder struct {
	mu sync.Mutex

	cfg    Config
	clk    clock.Clock
	logger *slog.Logger

	frontend *frontend.Frontend
	buffer   *buffer.Buffer
	registry *registry.Registry

	enabled atomic.Bool
	lastIdx int

	flushCount  atomic.Uint64
	rotateCount atomic.Uint64
	openErrors  atomic.Uint64
	tickErrors  atomic.Uint64
	lastDate    string
	currentOpen bool
}

// New creates a Recorder in the disabled, closed state. Call
// SetEnabled(true) (or Open directly) to begin logging.
func New(cfg Config) *Recorder {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	r := &Recorder{
		cfg:    cfg,
		clk:    cfg.Clock,
		logger: cfg.Logger,
		// Placeholder so CurrentPath/Size/State have something to report
		// before the first Open; openLocked always replaces it with a
		// freshly built instance rather than reusing this one.
		frontend: frontend.New(cfg.Frontend),
		registry: registry.New(cfg.Clock, cfg.FlushPeriod, cfg.Logger),
	}
	return r
}

// newFrontendLocked builds a fresh Frontend from the current config.
// openLocked always rebuilds rather than reusing r.frontend so that a
// config mutation made between sessions (e.g. EnableMD5) takes effect
// on the next Open, matching the Frontend's own open()-time config
// snapshot (spec §4.4).
func (r *Recorder) newFrontendLocked() *frontend.Frontend {
	return frontend.New(r.cfg.Frontend)
}

// AddLogSource registers src with the Source Registry (spec §6.2
// addLogSource).
func (r *Recorder) AddLogSource(src registry.LogSource, plugin, name string, version uint32) uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registry.AddLogSource(src, plugin, name, version)
}

// RemoveLogSource marks a source for deferred removal (spec §6.2
// removeLogSource).
func (r *Recorder) RemoveLogSource(id uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registry.RemoveLogSource(id)
}

// Open begins a session: opens the Frontend, wires the Buffer Pipeline
// to write through it, and calls StartSession on every registered
// source (spec §6.2 addLogSource/startSession ordering).
func (r *Recorder) Open(takeoff bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.openLocked(takeoff)
}

func (r *Recorder) openLocked(takeoff bool) error {
	fe := r.newFrontendLocked()

	if ok, err := fe.CanOpen(); err != nil {
		return fmt.Errorf("recorder: checking free space before open: %w", err)
	} else if !ok {
		return fmt.Errorf("recorder: insufficient free space to open a new file")
	}

	if err := fe.Open(takeoff); err != nil {
		r.openErrors.Add(1)
		return fmt.Errorf("recorder: opening frontend: %w", err)
	}
	r.frontend = fe

	r.buffer = buffer.New(r.frontend, r.cfg.FlushThreshold, r.cfg.MinScratchSpace)
	if r.cfg.Frontend.Encrypted {
		if err := r.buffer.EnableEncryption(r.cfg.Frontend.PubKeyPath); err != nil {
			r.frontend.Close(frontend.CloseDisabled)
			r.openErrors.Add(1)
			return fmt.Errorf("recorder: enabling encryption: %w", err)
		}
	}

	for _, err := range r.registry.StartSession() {
		r.logger.Warn("source startSession failed", "error", err)
	}

	r.currentOpen = true
	return nil
}

// Close finalizes the current session with the given reason (spec
// §6.2: close(reason) is idempotent while CLOSING, but Recorder only
// calls it while OPEN).
func (r *Recorder) Close(reason frontend.CloseReason) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closeLocked(reason)
}

func (r *Recorder) closeLocked(reason frontend.CloseReason) error {
	if !r.currentOpen {
		return nil
	}
	if r.buffer != nil {
		if err := r.buffer.Flush(); err != nil {
			r.logger.Error("flush before close failed", "error", err)
		}
		if err := r.buffer.Reset(); err != nil {
			r.logger.Error("resetting buffer on close failed", "error", err)
		}
	}
	if err := r.frontend.Close(reason); err != nil {
		return fmt.Errorf("recorder: closing frontend: %w", err)
	}
	r.currentOpen = false
	return nil
}

// Flush immediately flushes the Buffer Pipeline and fsyncs the
// backend file (spec §6.2 LogManager.flush).
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.currentOpen || r.buffer == nil {
		return fmt.Errorf("recorder: flush called while closed")
	}
	if err := r.buffer.Flush(); err != nil {
		return fmt.Errorf("recorder: flushing buffer: %w", err)
	}
	if err := r.frontend.Sync(); err != nil {
		return fmt.Errorf("recorder: syncing frontend: %w", err)
	}
	r.flushCount.Add(1)
	return nil
}

// Rotate closes the current file with ROTATE, renames it per the
// output directory's naming convention, evicts old files past the
// configured count/size budget, and opens a fresh file (spec §4.3,
// §6.2 LogManager.rotate).
func (r *Recorder) Rotate() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rotateLocked(frontend.CloseRotate, 0)
}

// rotateLocked closes the current file with reason, renames and evicts
// per the output directory's budget, and reopens. removeSize is the
// number of bytes eviction should free beyond the configured count
// limit, computed by the caller from frontend.RemoveSizeFor when
// reason is space- or quota-driven; it is 0 for a plain rotation.
func (r *Recorder) rotateLocked(reason frontend.CloseReason, removeSize int64) error {
	wasOpen := r.currentOpen
	currentPath := r.frontend.CurrentPath()
	takeoff := r.frontend.Takeoff()

	if wasOpen {
		if err := r.closeLocked(reason); err != nil {
			return err
		}
	}

	if currentPath != "" {
		siblings, err := backend.EnumerateSiblings(r.cfg.Frontend.OutputDir)
		if err != nil {
			return fmt.Errorf("recorder: enumerating siblings for rotation: %w", err)
		}
		maxIdx := backend.MaxIdx(siblings)
		if maxIdx < r.lastIdx {
			maxIdx = r.lastIdx
		}

		newPath, err := backend.RotateCurrent(r.cfg.Frontend.OutputDir, currentPath,
			backend.RotateHeader{BootUUID: r.cfg.BootUUID, Date: r.lastDate}, maxIdx)
		if err != nil {
			return fmt.Errorf("recorder: renaming rotated file: %w", err)
		}
		r.lastIdx = maxIdx + 1
		r.logger.Info("rotated log file", "path", newPath, "takeoff", takeoff)

		if r.cfg.Frontend.MaxLogCount > 0 || removeSize > 0 {
			siblings, err := backend.EnumerateSiblings(r.cfg.Frontend.OutputDir)
			if err != nil {
				return fmt.Errorf("recorder: enumerating siblings for eviction: %w", err)
			}
			evicted, err := backend.Evict(siblings, removeSize, r.cfg.Frontend.MaxLogCount)
			if err != nil {
				return fmt.Errorf("recorder: evicting old files: %w", err)
			}
			for _, e := range evicted {
				r.logger.Info("evicted rotated log", "path", e.Path, "takeoff", e.Takeoff)
			}
		}
	}

	r.rotateCount.Add(1)

	if wasOpen {
		return r.openLocked(takeoff)
	}
	return nil
}

// SetEnabled opens or closes the session to match enabled (spec §6.2
// LogManager.setEnabled).
func (r *Recorder) SetEnabled(enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	wasEnabled := r.enabled.Swap(enabled)
	if enabled == wasEnabled {
		return nil
	}
	if enabled {
		return r.openLocked(false)
	}
	return r.closeLocked(frontend.CloseDisabled)
}

// EnableMD5 enables payload MD5 computation for future sessions (spec
// §6.2 LogManager.enableMd5). It does not affect a session already
// open — MD5 must be enabled before open() per spec §4.4.
func (r *Recorder) EnableMD5() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg.Frontend.EnableMD5 = true
}

// UpdateDate forwards to the Frontend and caches the value for the
// next rotation's decorated filename.
func (r *Recorder) UpdateDate(date string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.frontend.UpdateDate(date); err != nil {
		return err
	}
	r.lastDate = date
	return nil
}

// UpdateFlightID forwards to the Frontend (spec §6.2 updateFlightId).
func (r *Recorder) UpdateFlightID(uuid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frontend.UpdateFlightID(uuid)
}

// UpdateGCSName forwards to the Frontend (spec §6.2 updateGcsName).
func (r *Recorder) UpdateGCSName(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frontend.UpdateGCSName(name)
}

// UpdateGCSType forwards to the Frontend (spec §6.2 updateGcsType).
func (r *Recorder) UpdateGCSType(kind string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frontend.UpdateGCSType(kind)
}

// UpdateTakeoff forwards to the Frontend (spec §6.2 updateTakeoff).
func (r *Recorder) UpdateTakeoff(takeoff bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frontend.UpdateTakeoff(takeoff)
}

// UpdateRefTime forwards to the Frontend (spec §6.2 updateRefTime).
func (r *Recorder) UpdateRefTime(monotonic, absolute string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frontend.UpdateRefTime(monotonic, absolute)
}

// UpdateExtraProperty forwards to the Frontend (spec §6.2
// updateExtraProperty).
func (r *Recorder) UpdateExtraProperty(key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frontend.UpdateExtraProperty(key, value)
}

// Tick runs one scheduler pass: polls due sources into the Buffer,
// flushes on the configured period, and checks the Frontend's
// space/quota/size policy, rotating if it asks to close (spec §4.5,
// §4.4). force polls every source regardless of its deadline — used
// for the final drain before an EXITING close.
func (r *Recorder) Tick(force bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.currentOpen {
		return nil
	}

	for _, err := range r.registry.Tick(r.buffer, force) {
		r.tickErrors.Add(1)
		r.logger.Warn("scheduler tick error", "error", err)
	}

	reason, shouldClose, err := r.frontend.CheckLimits()
	if err != nil {
		return fmt.Errorf("recorder: checking frontend limits: %w", err)
	}
	if shouldClose {
		removeSize, err := r.frontend.RemoveSizeFor(reason)
		if err != nil {
			return fmt.Errorf("recorder: computing eviction target: %w", err)
		}
		r.logger.Info("rotating due to policy", "reason", reason)
		return r.rotateLocked(reason, removeSize)
	}
	return nil
}

// TickPeriod reports the Registry's recomputed tick period (spec §4.5
// step 2), for a driver loop to size its ticker.
func (r *Recorder) TickPeriod() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registry.TickPeriod()
}

// Stats is a snapshot of the Recorder's operational counters.
type Stats struct {
	FlushCount  uint64
	RotateCount uint64
	OpenErrors  uint64
	TickErrors  uint64
}

// Stats returns a snapshot of the Recorder's operational counters.
func (r *Recorder) Stats() Stats {
	return Stats{
		FlushCount:  r.flushCount.Load(),
		RotateCount: r.rotateCount.Load(),
		OpenErrors:  r.openErrors.Load(),
		TickErrors:  r.tickErrors.Load(),
	}
}

// IsOpen reports whether a session is currently open.
func (r *Recorder) IsOpen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentOpen
}
