// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package container

import (
	"encoding/binary"
	"fmt"
	"io"
)

// WriteString writes s in the u16-prefixed NUL-terminated encoding
// used throughout the container format (spec §4.1): a u16 length that
// INCLUDES the terminating NUL, then that many bytes ending in \0.
// Empty strings are rejected (spec §4.1).
func WriteString(w io.Writer, s string) error {
	if s == "" {
		return fmt.Errorf("container: empty string is not a valid field value")
	}
	total := len(s) + 1
	if total > 0xFFFF {
		return fmt.Errorf("container: string %q (+NUL) exceeds u16 length limit", s)
	}

	var lenBuf [2]byte
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(total))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("container: writing string length: %w", err)
	}
	if _, err := io.WriteString(w, s); err != nil {
		return fmt.Errorf("container: writing string bytes: %w", err)
	}
	if _, err := w.Write([]byte{0}); err != nil {
		return fmt.Errorf("container: writing string terminator: %w", err)
	}
	return nil
}

// ReadString reads a u16-prefixed NUL-terminated string. A last byte
// other than NUL, or a declared length of zero, is rejected (spec
// §4.1: "a reader must reject records whose last byte is not NUL";
// empty strings are rejected on the write side, so an empty read is
// always a format error too).
func ReadString(r io.Reader) (string, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", fmt.Errorf("container: reading string length: %w", err)
	}
	length := binary.LittleEndian.Uint16(lenBuf[:])
	if length == 0 {
		return "", fmt.Errorf("container: string length is zero")
	}

	raw := make([]byte, length)
	if _, err := io.ReadFull(r, raw); err != nil {
		return "", fmt.Errorf("container: reading %d string bytes: %w", length, err)
	}
	if raw[length-1] != 0 {
		return "", fmt.Errorf("container: string is not NUL-terminated")
	}
	return string(raw[:length-1]), nil
}

// EncodedStringLen returns the number of bytes WriteString would emit
// for s: 2 length-prefix bytes + len(s) + 1 NUL. Used by the Frontend
// to size reserved byte ranges for rewritable header fields (spec
// §4.4).
func EncodedStringLen(s string) int {
	return 2 + len(s) + 1
}
