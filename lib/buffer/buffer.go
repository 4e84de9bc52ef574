// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package buffer

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"

	"github.com/aerologic/flightrecorder/lib/container"
)

// Buffer is the Recorder's accumulation-and-flush pipeline (spec
// §4.2). Sources write encoded entries into the region returned by
// GetWriteHead and commit them with Push; once the committed byte
// count reaches flushThreshold, Buffer compresses the accumulated
// bytes as one LZ4 frame, optionally seals that frame behind
// AES-256-CBC, and writes the result to out.
//
// Buffer is not safe for concurrent use — the Recorder's scheduler
// drives it from a single goroutine (spec §4.5).
type Buffer struct {
	out                io.Writer
	flushThreshold     int
	minGuaranteedSpace int

	data []byte
	used int

	seal *sealContext
}

// New creates a Buffer writing flushed entries to out.
// flushThreshold is the committed-byte watermark that triggers a
// flush; minGuaranteedSpace is the minimum contiguous scratch region
// GetWriteHead/GetWriteSpace must expose at all times (spec §4.2
// init(flushThreshold, minGuaranteedSpace)).
func New(out io.Writer, flushThreshold, minGuaranteedSpace int) *Buffer {
	size := flushThreshold + minGuaranteedSpace
	return &Buffer{
		out:                out,
		flushThreshold:     flushThreshold,
		minGuaranteedSpace: minGuaranteedSpace,
		data:               make([]byte, size),
	}
}

// GetWriteHead returns a contiguous scratch region of at least
// minGuaranteedSpace bytes, starting at the first uncommitted byte.
// The caller writes its entry there and calls Push to commit it.
func (b *Buffer) GetWriteHead() []byte {
	b.ensureSpace()
	return b.data[b.used:]
}

// GetWriteSpace reports the number of contiguous bytes currently
// available at GetWriteHead, always at least minGuaranteedSpace.
func (b *Buffer) GetWriteSpace() int {
	b.ensureSpace()
	return len(b.data) - b.used
}

// ensureSpace grows the backing array if the scratch region has
// shrunk below minGuaranteedSpace, which happens as used approaches
// flushThreshold after a run of small pushes.
func (b *Buffer) ensureSpace() {
	if len(b.data)-b.used >= b.minGuaranteedSpace {
		return
	}
	grown := make([]byte, b.used+b.minGuaranteedSpace)
	copy(grown, b.data[:b.used])
	b.data = grown
}

// Push commits n bytes written at the region returned by the most
// recent GetWriteHead call. If the new committed total reaches
// flushThreshold, Push flushes immediately before returning.
func (b *Buffer) Push(n int) error {
	if n < 0 || b.used+n > len(b.data) {
		return fmt.Errorf("buffer: push(%d) exceeds available scratch space", n)
	}
	b.used += n
	if b.used >= b.flushThreshold {
		return b.Flush()
	}
	return nil
}

// Flush compresses every committed byte as a single LZ4 frame, seals
// it if encryption is active, and writes the result to out. It is a
// no-op if nothing has been committed since the last flush.
func (b *Buffer) Flush() error {
	if b.used == 0 {
		return nil
	}

	compressed, err := compressLZ4Frame(b.data[:b.used])
	if err != nil {
		return fmt.Errorf("buffer: compressing flush of %d bytes: %w", b.used, err)
	}

	var lz4Entry bytes.Buffer
	if err := container.WriteEntry(&lz4Entry, container.EntryLZ4, compressed); err != nil {
		return fmt.Errorf("buffer: framing LZ4 entry: %w", err)
	}

	if b.seal != nil {
		ciphertext := b.seal.seal(lz4Entry.Bytes())
		if err := container.WriteEntry(b.out, container.EntryAES, ciphertext); err != nil {
			return fmt.Errorf("buffer: writing sealed AES entry: %w", err)
		}
	} else {
		if _, err := b.out.Write(lz4Entry.Bytes()); err != nil {
			return fmt.Errorf("buffer: writing LZ4 entry: %w", err)
		}
	}

	b.used = 0
	return nil
}

// Reset discards every uncommitted byte and destroys the active
// cipher context (spec §4.2). The caller must call EnableEncryption
// again before the next file if it wants the new file encrypted.
func (b *Buffer) Reset() error {
	b.used = 0
	if b.seal != nil {
		err := b.seal.close()
		b.seal = nil
		return err
	}
	return nil
}

// EnableEncryption reads an RSA public key from pubKeyPath, generates
// a fresh AES-256 content key and IV for the current file, RSA-seals
// the content key, writes one AES_DESC entry to out, and installs a
// CBC cipher that every subsequent Flush call seals its LZ4 frame
// with (spec §4.2).
func (b *Buffer) EnableEncryption(pubKeyPath string) error {
	seal, err := newSealContext(pubKeyPath)
	if err != nil {
		return fmt.Errorf("buffer: enabling encryption: %w", err)
	}

	payload, err := seal.aesDescRecord()
	if err != nil {
		seal.close()
		return fmt.Errorf("buffer: encoding AES_DESC record: %w", err)
	}
	if err := container.WriteEntry(b.out, container.EntryAESDesc, payload); err != nil {
		seal.close()
		return fmt.Errorf("buffer: writing AES_DESC entry: %w", err)
	}

	b.seal = seal
	return nil
}

// Used reports the number of committed, not-yet-flushed bytes.
func (b *Buffer) Used() int {
	return b.used
}

func compressLZ4Frame(data []byte) ([]byte, error) {
	var out bytes.Buffer
	writer := lz4.NewWriter(&out)
	if err := writer.Apply(lz4.ChecksumOption(true)); err != nil {
		return nil, fmt.Errorf("configuring lz4 frame options: %w", err)
	}
	if _, err := writer.Write(data); err != nil {
		return nil, fmt.Errorf("lz4 frame write: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("lz4 frame close: %w", err)
	}
	return out.Bytes(), nil
}

// DecompressLZ4Frame reverses compressLZ4Frame for lib/reader's
// symmetric decode path (spec §4.1: "on frame error, log and open a
// new decompression context for the next LZ4 entry" — each entry is
// decoded independently, so a fresh frame reader per entry is correct
// here).
func DecompressLZ4Frame(compressed []byte) ([]byte, error) {
	reader := lz4.NewReader(bytes.NewReader(compressed))
	var out bytes.Buffer
	if _, err := io.Copy(&out, reader); err != nil {
		return nil, fmt.Errorf("lz4 frame read: %w", err)
	}
	return out.Bytes(), nil
}
