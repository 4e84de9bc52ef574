// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"fmt"
	"io"

	"github.com/aerologic/flightrecorder/lib/container"
)

// DirectChannel writes one LogDirectWriter's output straight to the
// backend, uncompressed and unencrypted, coexisting in the same file
// as the compressed/encrypted stream the Buffer Pipeline produces
// (spec §4.5). It owns its own source ID, obtained the same way as any
// other registered source.
type DirectChannel struct {
	out    io.Writer
	id     uint32
	plugin string
	name   string

	descWritten bool
	scratch     []byte
}

// DefaultDirectScratchSize is the scratch buffer size used when the
// caller doesn't override it, sized to comfortably hold one ulog
// record without reallocation.
const DefaultDirectScratchSize = 4096

// NewDirectChannel creates a direct channel bound to a fresh source
// ID allocated from reg, writing to out (ordinarily the Frontend
// itself, since it implements io.Writer over the backend file).
func NewDirectChannel(reg *Registry, out io.Writer, writer LogDirectWriter, plugin, name string, version uint32) *DirectChannel {
	id := reg.AddLogSource(writer, plugin, name, version)
	// The registry's own scheduling of this source only tracks its
	// deadline/removal bookkeeping; DirectChannel bypasses pollOne's
	// Buffer-backed write path entirely, writing through out instead.
	return &DirectChannel{
		out:     out,
		id:      id,
		plugin:  plugin,
		name:    name,
		scratch: make([]byte, DefaultDirectScratchSize),
	}
}

// Poll asks writer (passed again so callers don't need to stash it
// separately from the Registry's copy) for at most one entry's worth
// of bytes and writes it uncompressed, preceded by the SOURCE_DESC on
// first use (spec §4.5).
func (d *DirectChannel) Poll(writer LogDirectWriter) error {
	if !d.descWritten {
		payload, err := container.EncodeSourceDesc(container.SourceDesc{
			SourceID: d.id,
			Version:  1,
			Plugin:   d.plugin,
			Name:     d.name,
		})
		if err != nil {
			return fmt.Errorf("registry: encoding direct source desc: %w", err)
		}
		if err := container.WriteEntry(d.out, container.EntrySourceDesc, payload); err != nil {
			return fmt.Errorf("registry: writing direct source desc: %w", err)
		}
		d.descWritten = true
	}

	n, err := writer.ReadData(d.scratch)
	if err != nil {
		return fmt.Errorf("registry: direct readData: %w", err)
	}
	if n == 0 {
		return nil
	}
	return container.WriteEntry(d.out, d.id, d.scratch[:n])
}

// ID returns the source ID allocated to this direct channel.
func (d *DirectChannel) ID() uint32 {
	return d.id
}
