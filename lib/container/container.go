// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

// Package container implements the bit-exact binary framing shared by
// the Recorder and the Extractor (spec §4.1, §6.1): the file header,
// entry framing, source-description records, and the payload layout of
// the header/footer and AES_DESC records. It performs no I/O and holds
// no compression or encryption state — [lib/buffer] and [lib/reader]
// layer those on top of the primitives here.
package container

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Magic is the 4-byte little-endian file signature "LOG!" (spec §6.1).
const Magic uint32 = 0x21474F4C

// MaxVersion is the highest file-format version this codec accepts.
// Higher major versions are rejected outright (spec §4.1 failure modes).
const MaxVersion uint32 = 3

// Reserved entry IDs (spec §3). All other IDs refer to a previously
// declared source descriptor.
const (
	EntrySourceDesc uint32 = 0
	EntryLZ4        uint32 = 1
	EntryAESDesc    uint32 = 2
	EntryAES        uint32 = 3

	// FirstSourceID is the first ID handed out to a registered source;
	// IDs 0-255 are reserved for framing kinds (spec §3).
	FirstSourceID uint32 = 256
)

// MaxEntryLen is the largest payload an entry header may declare. A
// larger length is a format error for the enclosing block (spec §4.1).
const MaxEntryLen uint32 = 32 << 20

// HeaderSourceName and FooterSourceName are the SourceDesc.Name values
// the Frontend registers for the synthetic header and footer records
// (spec §4.4). Both share plugin name "core" and are written
// uncompressed, directly to the backend, never through the Buffer
// Pipeline — so a reader (or the backend's rotation scan) can find
// them without LZ4 decompression.
const (
	HeaderSourceName = "header"
	FooterSourceName = "footer"
	CorePluginName   = "core"
)

// FileHeader is the first 8 bytes of every container file.
type FileHeader struct {
	Magic   uint32
	Version uint32
}

// WriteFileHeader writes the 8-byte file header.
func WriteFileHeader(w io.Writer, version uint32) error {
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[0:4], Magic)
	binary.LittleEndian.PutUint32(buf[4:8], version)
	_, err := w.Write(buf[:])
	return err
}

// ReadFileHeader reads and validates the 8-byte file header. Invalid
// magic or a version above MaxVersion is a fatal format error (spec
// §4.1, invariant 1).
func ReadFileHeader(r io.Reader) (FileHeader, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return FileHeader{}, fmt.Errorf("container: reading file header: %w", err)
	}
	magic := binary.LittleEndian.Uint32(buf[0:4])
	version := binary.LittleEndian.Uint32(buf[4:8])

	if magic != Magic {
		return FileHeader{}, fmt.Errorf("container: bad magic %#x, want %#x", magic, Magic)
	}
	if version > MaxVersion {
		return FileHeader{}, fmt.Errorf("container: version %d is newer than the highest supported version %d", version, MaxVersion)
	}
	return FileHeader{Magic: magic, Version: version}, nil
}

// Entry is one framed element of the byte stream: id:u32, len:u32,
// then len payload bytes (spec §3).
type Entry struct {
	ID      uint32
	Payload []byte
}

// WriteEntry writes one entry header followed by payload. Returns an
// error if payload exceeds MaxEntryLen.
func WriteEntry(w io.Writer, id uint32, payload []byte) error {
	if uint32(len(payload)) > MaxEntryLen {
		return fmt.Errorf("container: entry %d payload of %d bytes exceeds max %d", id, len(payload), MaxEntryLen)
	}
	var header [8]byte
	binary.LittleEndian.PutUint32(header[0:4], id)
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("container: writing entry %d header: %w", id, err)
	}
	if len(payload) == 0 {
		return nil
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("container: writing entry %d payload: %w", id, err)
	}
	return nil
}

// ReadEntryHeader reads the 8-byte id/len prefix of the next entry.
// Returns io.EOF (unwrapped) when the stream ends cleanly between
// entries; any other read failure (including a short read mid-header)
// is a truncated-entry format error.
func ReadEntryHeader(r io.Reader) (id uint32, length uint32, err error) {
	var header [8]byte
	n, err := io.ReadFull(r, header[:])
	if err != nil {
		if err == io.EOF && n == 0 {
			return 0, 0, io.EOF
		}
		return 0, 0, fmt.Errorf("container: truncated entry header: %w", err)
	}
	id = binary.LittleEndian.Uint32(header[0:4])
	length = binary.LittleEndian.Uint32(header[4:8])
	if length > MaxEntryLen {
		return 0, 0, fmt.Errorf("container: entry %d declares length %d exceeding max %d", id, length, MaxEntryLen)
	}
	return id, length, nil
}

// ReadEntryPayload reads exactly length bytes of payload following a
// header returned by ReadEntryHeader.
func ReadEntryPayload(r io.Reader, length uint32) ([]byte, error) {
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("container: truncated entry payload (wanted %d bytes): %w", length, err)
	}
	return payload, nil
}

// ReadEntry reads one full entry (header + payload). Returns io.EOF
// when the stream ends cleanly at an entry boundary.
func ReadEntry(r io.Reader) (Entry, error) {
	id, length, err := ReadEntryHeader(r)
	if err != nil {
		return Entry{}, err
	}
	payload, err := ReadEntryPayload(r, length)
	if err != nil {
		return Entry{}, err
	}
	return Entry{ID: id, Payload: payload}, nil
}
