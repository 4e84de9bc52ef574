// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package container

import (
	"bytes"
	"fmt"
	"io"
)

// Pair is one (key, value) entry of a header or footer record (spec
// §3). Header records are an insertion-ordered sequence of pairs;
// footer records hold exactly one pair, ("reason", CloseReason).
type Pair struct {
	Key   string
	Value string
}

// FieldOffset describes where a Pair's value landed inside an encoded
// record, measured from the start of the record payload (not the
// entry header). lib/frontend combines this with the entry's absolute
// file offset to compute the pwrite offset for in-place rewrites
// (spec §4.4).
type FieldOffset struct {
	// ValueStart is the byte offset, within the record payload, of
	// the first content byte of the value (immediately after the
	// value's u16 length prefix).
	ValueStart int

	// ValueLen is the number of content bytes reserved for the value,
	// not counting the trailing NUL terminator.
	ValueLen int
}

// EncodeRecord writes an ordered sequence of pairs as the payload of
// a header or footer entry, and reports the FieldOffset of each
// pair's value in encounter order.
func EncodeRecord(pairs []Pair) (payload []byte, offsets []FieldOffset, err error) {
	var buf bytes.Buffer
	offsets = make([]FieldOffset, len(pairs))

	for i, pair := range pairs {
		if err := WriteString(&buf, pair.Key); err != nil {
			return nil, nil, fmt.Errorf("container: encoding record key %q: %w", pair.Key, err)
		}
		valueStart := buf.Len() + 2 // past this value's own u16 length prefix
		if err := WriteString(&buf, pair.Value); err != nil {
			return nil, nil, fmt.Errorf("container: encoding record value for key %q: %w", pair.Key, err)
		}
		offsets[i] = FieldOffset{ValueStart: valueStart, ValueLen: len(pair.Value)}
	}
	return buf.Bytes(), offsets, nil
}

// DecodeRecord parses a header or footer payload back into its
// ordered pairs. Per spec §3, if a key is duplicated the last write
// wins; DecodeRecord preserves first-seen order but lets later values
// overwrite earlier ones, matching that "last write wins during
// decoding" rule.
func DecodeRecord(payload []byte) ([]Pair, error) {
	r := bytes.NewReader(payload)
	var order []string
	values := make(map[string]string)

	for r.Len() > 0 {
		key, err := ReadString(r)
		if err != nil {
			return nil, fmt.Errorf("container: decoding record key: %w", err)
		}
		value, err := ReadString(r)
		if err != nil {
			return nil, fmt.Errorf("container: decoding record value for key %q: %w", key, err)
		}
		if _, seen := values[key]; !seen {
			order = append(order, key)
		}
		values[key] = value
	}

	pairs := make([]Pair, len(order))
	for i, key := range order {
		pairs[i] = Pair{Key: key, Value: values[key]}
	}
	return pairs, nil
}

// PadValue right-pads value with NUL bytes to exactly width content
// bytes. It is the wire-level counterpart to a rewritable field's
// reserved length (spec §3, §4.4): the Frontend calls this once at
// open() to build the initial reserved-width value, and again on
// every in-place update.
//
// Returns an error if value is already longer than width — callers
// (Frontend.updateField) turn that into a dropped-update warning
// rather than propagating it as fatal (spec §4.4 rewrite rules).
func PadValue(value string, width int) (string, error) {
	if len(value) > width {
		return "", fmt.Errorf("container: value %q (%d bytes) exceeds reserved width %d", value, len(value), width)
	}
	if len(value) == width {
		return value, nil
	}
	return value + string(bytes.Repeat([]byte{0}, width-len(value))), nil
}

// TrimPad strips the NUL padding PadValue appends, recovering the
// logical value a reader should present for a rewritable field.
func TrimPad(value string) string {
	return string(bytes.TrimRight([]byte(value), "\x00"))
}

// SentinelValue returns a width-byte string of the lowercase 'f' filler
// used for the md5 field (and, by the same convention, any
// fixed-width "extras" field that is always fully overwritten rather
// than trimmed on read): "initially all 'f'". Unlike PadValue's NUL
// filler, the sentinel is never trimmed back out — callers always
// replace the full width in one updateField call.
func SentinelValue(width int) string {
	return string(bytes.Repeat([]byte{'f'}, width))
}

// ReadRecordPairs is a convenience wrapper for streaming decode paths
// that already have an io.Reader positioned at the start of a record
// payload of known length (as opposed to DecodeRecord, which expects
// the whole payload up front).
func ReadRecordPairs(r io.Reader, length uint32) ([]Pair, error) {
	payload, err := ReadEntryPayload(r, length)
	if err != nil {
		return nil, err
	}
	return DecodeRecord(payload)
}
