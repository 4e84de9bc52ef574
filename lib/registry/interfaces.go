// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package registry

// LogSource is one producer of log entries, polled by the scheduler at
// its declared period (spec §6.2). Implementations must not block —
// polling is single-threaded and cooperative (spec §4.5).
type LogSource interface {
	// ReadData writes at most one entry's worth of payload bytes into
	// dst and returns the number of bytes written. Zero means nothing
	// was ready this tick; it is not an error.
	ReadData(dst []byte) (int, error)

	// GetPeriodMs returns this source's minimum polling period in
	// milliseconds.
	GetPeriodMs() int

	// StartSession is called once every time the Frontend opens a new
	// file, before this source is polled again.
	StartSession() error
}

// LogDirectWriter is a source that bypasses the Buffer Pipeline's
// compression/encryption, writing its own uncompressed {id, len,
// bytes} entries straight to the backend (spec §4.5). Used by sources
// that would otherwise create a feedback loop with the Recorder's own
// logging (e.g. the ulog stream).
type LogDirectWriter interface {
	LogSource
}

// LogPlugin reconfigures a source or group of sources from an opaque,
// plugin-defined settings blob (spec §4.6, §6.2).
type LogPlugin interface {
	SetSettings(blob string) error
}
