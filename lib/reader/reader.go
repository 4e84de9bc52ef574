// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package reader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aerologic/flightrecorder/lib/buffer"
	"github.com/aerologic/flightrecorder/lib/container"
	"github.com/aerologic/flightrecorder/lib/datasource"
)

// registeredSource pairs a decoded SOURCE_DESC with the typed handler
// its plugin name maps to.
type registeredSource struct {
	desc    container.SourceDesc
	handler source
}

// Reader decodes one container file into the typed lib/datasource
// objects its sources produced (spec §4.7). It is single-pass and
// forward-only: construct one Reader per file.
type Reader struct {
	logger *slog.Logger

	headerOnly bool
	headerDone bool

	bySourceID map[uint32]*registeredSource
	byFullName map[string]*registeredSource

	header *datasource.InternalDataSource
	footer *datasource.InternalDataSource

	telemetrySources []*datasource.TelemetryDataSource
	aesDesc          *container.AESDesc

	warnings []string
}

// Option configures a Reader at construction time.
type Option func(*Reader)

// WithLogger attaches a structured logger; warnings (unknown source
// IDs, dropped AES blocks, per-block format errors) are logged there
// in addition to being collected in Warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reader) { r.logger = logger }
}

// HeaderOnly requests the short-read mode described in spec §4.7: Read
// stops as soon as the internal "header" source has been populated,
// without decoding the rest of the file.
func HeaderOnly() Option {
	return func(r *Reader) { r.headerOnly = true }
}

// New creates a Reader with the given options.
func New(opts ...Option) *Reader {
	r := &Reader{
		bySourceID: make(map[uint32]*registeredSource),
		byFullName: make(map[string]*registeredSource),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read decodes the file header and the entry stream from r, stopping
// early if HeaderOnly was set and the header record has been read.
func (rd *Reader) Read(r io.Reader) error {
	if _, err := container.ReadFileHeader(r); err != nil {
		return err
	}
	return rd.decodeEntries(r)
}

// Header returns the decoded header record, or nil if none has been
// read yet.
func (rd *Reader) Header() *datasource.InternalDataSource { return rd.header }

// Footer returns the decoded footer record, or nil if the file ended
// (or HeaderOnly stopped the read) before one was seen.
func (rd *Reader) Footer() *datasource.InternalDataSource { return rd.footer }

// Telemetry returns every telemetry data source generation produced
// during decode, in the order their "TLM!" declarations were seen
// (spec §8 scenario 5).
func (rd *Reader) Telemetry() []*datasource.TelemetryDataSource {
	return append([]*datasource.TelemetryDataSource(nil), rd.telemetrySources...)
}

// Events returns every ulog-plugin source's decoded event stream,
// keyed by full source name.
func (rd *Reader) Events() map[string]*datasource.EventDataSource {
	out := make(map[string]*datasource.EventDataSource)
	for name, rs := range rd.byFullName {
		if u, ok := rs.handler.(*ulogSource); ok {
			out[name] = u.events
		}
	}
	return out
}

// Logs returns every "ulog" and "file" plugin source's opaque byte
// sequence, keyed by full source name.
func (rd *Reader) Logs() map[string]*datasource.LogDataSource {
	out := make(map[string]*datasource.LogDataSource)
	for name, rs := range rd.byFullName {
		switch h := rs.handler.(type) {
		case *ulogSource:
			out[name] = h.log
		case *opaqueSource:
			out[name] = h.data
		}
	}
	return out
}

// Internal returns every "internal"/"properties"/"sysmon"/"settings"
// plugin source, keyed by full source name (header and footer are
// exposed separately via Header/Footer, not repeated here).
func (rd *Reader) Internal() map[string]*datasource.InternalDataSource {
	out := make(map[string]*datasource.InternalDataSource)
	for name, rs := range rd.byFullName {
		if rs.desc.Plugin == container.CorePluginName {
			continue
		}
		if in, ok := rs.handler.(*internalSource); ok {
			out[name] = in.data
		}
	}
	return out
}

// AESDesc returns the file's decoded AES_DESC record, if the file
// declared one. Decryption itself is out of scope for this core (spec
// §9 open question (c)): AES entries are dropped with a warning.
func (rd *Reader) AESDesc() (container.AESDesc, bool) {
	if rd.aesDesc == nil {
		return container.AESDesc{}, false
	}
	return *rd.aesDesc, true
}

// Warnings returns every non-fatal diagnostic collected during decode,
// in the order encountered.
func (rd *Reader) Warnings() []string {
	return append([]string(nil), rd.warnings...)
}

func (rd *Reader) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	rd.warnings = append(rd.warnings, msg)
	if rd.logger != nil {
		rd.logger.Warn(msg)
	}
}

// decodeEntries decodes a stream of entries until io.EOF. It is called
// once for the top-level file stream and recursively for each
// decompressed LZ4 block (spec §4.7); a format error inside one block
// stops that block only, matching spec §4.1's "logs and stops decoding
// the enclosing compressed block (but may continue with the next
// file-level entry)".
func (rd *Reader) decodeEntries(r io.Reader) error {
	for {
		if rd.headerOnly && rd.headerDone {
			return nil
		}

		id, length, err := container.ReadEntryHeader(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		payload, err := container.ReadEntryPayload(r, length)
		if err != nil {
			return err
		}

		if err := rd.handleEntry(id, payload); err != nil {
			rd.warn("entry %d: %v", id, err)
		}
	}
}

func (rd *Reader) handleEntry(id uint32, payload []byte) error {
	switch id {
	case container.EntrySourceDesc:
		return rd.registerSource(payload)

	case container.EntryLZ4:
		decompressed, err := buffer.DecompressLZ4Frame(payload)
		if err != nil {
			return fmt.Errorf("decompressing LZ4 block: %w", err)
		}
		if err := rd.decodeEntries(bytes.NewReader(decompressed)); err != nil {
			return fmt.Errorf("decoding LZ4 block: %w", err)
		}
		return nil

	case container.EntryAESDesc:
		desc, err := container.DecodeAESDesc(payload)
		if err != nil {
			return fmt.Errorf("decoding AES_DESC: %w", err)
		}
		rd.aesDesc = &desc
		return nil

	case container.EntryAES:
		rd.warn("AES entry of %d bytes dropped: decryption is outside this core's scope", len(payload))
		return nil

	default:
		rs, ok := rd.bySourceID[id]
		if !ok {
			return fmt.Errorf("no source registered for id %d", id)
		}
		if err := rs.handler.handle(payload); err != nil {
			return fmt.Errorf("source %q: %w", rs.desc.FullName(), err)
		}
		if rs.desc.Plugin == container.CorePluginName && rs.desc.Name == container.HeaderSourceName {
			rd.headerDone = true
		}
		return nil
	}
}

func (rd *Reader) registerSource(payload []byte) error {
	desc, err := container.DecodeSourceDesc(payload)
	if err != nil {
		return fmt.Errorf("decoding SOURCE_DESC: %w", err)
	}

	handler := rd.newHandler(desc)
	rs := &registeredSource{desc: desc, handler: handler}
	rd.bySourceID[desc.SourceID] = rs
	rd.byFullName[desc.FullName()] = rs

	if desc.Plugin == container.CorePluginName {
		in := handler.(*internalSource)
		switch desc.Name {
		case container.HeaderSourceName:
			rd.header = in.data
		case container.FooterSourceName:
			rd.footer = in.data
		}
	}
	return nil
}

// newHandler is the plugin-name → constructor factory (spec §4.7).
// Unknown plugins fall back to noopSource.
func (rd *Reader) newHandler(desc container.SourceDesc) source {
	switch desc.Plugin {
	case container.CorePluginName, "internal", "properties", "sysmon", "settings":
		return newInternalSource()
	case "file":
		return newOpaqueSource()
	case "ulog":
		return newUlogSource()
	case "telemetry":
		return newTelemetrySource(desc.FullName(), func(ts *datasource.TelemetryDataSource) {
			rd.telemetrySources = append(rd.telemetrySources, ts)
		})
	default:
		return noopSource{}
	}
}
