// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package reader

import (
	"github.com/aerologic/flightrecorder/lib/datasource"
)

// source is the common decode entry point every registered plugin
// handler implements (spec §4.7's per-plugin factory table).
type source interface {
	handle(payload []byte) error
}

// internalSource backs the "core", "properties", "sysmon", and
// "internal" plugins (spec §3): each entry is a complete header/footer-
// style record whose pairs replace the source's prior contents.
type internalSource struct {
	data *datasource.InternalDataSource
}

func newInternalSource() *internalSource {
	return &internalSource{data: datasource.NewInternalDataSource()}
}

func (s *internalSource) handle(payload []byte) error {
	return s.data.LoadRecord(payload)
}

// opaqueSource backs the "file" plugin: each entry is one opaque chunk
// of file content (spec §3 LogDataSource, reused here for the file
// plugin since both are "sequence of opaque byte records").
type opaqueSource struct {
	data *datasource.LogDataSource
}

func newOpaqueSource() *opaqueSource {
	return &opaqueSource{data: datasource.NewLogDataSource()}
}

func (s *opaqueSource) handle(payload []byte) error {
	s.data.Append(payload)
	return nil
}

// noopSource is the factory's fallback for an unrecognized plugin name
// (spec §4.7: "Unknown plugins yield a generic no-op source").
type noopSource struct{}

func (noopSource) handle(payload []byte) error { return nil }
