// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// TelemetryMagic marks a valid telemetry metadata block ("TLM!", spec
// §3, §6.1).
const TelemetryMagic uint32 = 0x214D4C54

// MaxTelemetrySize bounds both a single sample's byte size and the
// encoded metadata block's byte size (spec §4.1 failure modes).
const MaxTelemetrySize = 32 << 20

// VarType enumerates the wire type tags for a telemetry item (spec §3).
type VarType uint32

const (
	VarBool VarType = iota
	VarU8
	VarI8
	VarU16
	VarI16
	VarU32
	VarI32
	VarU64
	VarI64
	VarF32
	VarF64
	VarString
	VarBinary
)

// String returns the canonical lowercase name of a VarType, used in
// GUTMA column naming and diagnostics.
func (t VarType) String() string {
	switch t {
	case VarBool:
		return "bool"
	case VarU8:
		return "u8"
	case VarI8:
		return "i8"
	case VarU16:
		return "u16"
	case VarI16:
		return "i16"
	case VarU32:
		return "u32"
	case VarI32:
		return "i32"
	case VarU64:
		return "u64"
	case VarI64:
		return "i64"
	case VarF32:
		return "f32"
	case VarF64:
		return "f64"
	case VarString:
		return "string"
	case VarBinary:
		return "binary"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(t))
	}
}

// VarDesc describes one item within a telemetry sample (spec §3):
// reclen is the total record length including the padded name; namelen
// is the length of the name before padding; size is bytes per element;
// count is the array arity (1 for scalars).
type VarDesc struct {
	Name  string
	Type  VarType
	Size  uint32
	Count uint32
	Flags uint32
}

// reclen returns the on-wire record length for this descriptor: the
// six fixed u32 fields plus the NUL-terminated, 8-byte-aligned name.
func (d VarDesc) reclen() uint32 {
	nameField := len(d.Name) + 1 // NUL terminator
	if pad := nameField % 8; pad != 0 {
		nameField += 8 - pad
	}
	return 24 + uint32(nameField)
}

// EncodeTelemetryMetadata renders a telemetry section's descriptor
// array as the "TLM!"-prefixed metadata block (spec §3, §6.1).
func EncodeTelemetryMetadata(descs []VarDesc) ([]byte, error) {
	var buf bytes.Buffer

	var header [8]byte
	binary.LittleEndian.PutUint32(header[0:4], TelemetryMagic)
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(descs)))
	buf.Write(header[:])

	for i, desc := range descs {
		if desc.Name == "" {
			return nil, fmt.Errorf("container: telemetry desc %d has empty name", i)
		}
		reclen := desc.reclen()
		namelen := uint32(len(desc.Name))

		var record [24]byte
		binary.LittleEndian.PutUint32(record[0:4], reclen)
		binary.LittleEndian.PutUint32(record[4:8], namelen)
		binary.LittleEndian.PutUint32(record[8:12], uint32(desc.Type))
		binary.LittleEndian.PutUint32(record[12:16], desc.Size)
		binary.LittleEndian.PutUint32(record[16:20], desc.Count)
		binary.LittleEndian.PutUint32(record[20:24], desc.Flags)
		buf.Write(record[:])

		nameField := make([]byte, reclen-24)
		copy(nameField, desc.Name)
		buf.Write(nameField)
	}

	if buf.Len() > MaxTelemetrySize {
		return nil, fmt.Errorf("container: telemetry metadata block of %d bytes exceeds max %d", buf.Len(), MaxTelemetrySize)
	}
	return buf.Bytes(), nil
}

// DecodeTelemetryMetadata parses a "TLM!"-prefixed metadata block.
func DecodeTelemetryMetadata(payload []byte) ([]VarDesc, error) {
	if len(payload) > MaxTelemetrySize {
		return nil, fmt.Errorf("container: telemetry metadata block of %d bytes exceeds max %d", len(payload), MaxTelemetrySize)
	}
	if len(payload) < 8 {
		return nil, fmt.Errorf("container: telemetry metadata block too short (%d bytes)", len(payload))
	}
	magic := binary.LittleEndian.Uint32(payload[0:4])
	if magic != TelemetryMagic {
		return nil, fmt.Errorf("container: bad telemetry magic %#x, want %#x", magic, TelemetryMagic)
	}
	count := binary.LittleEndian.Uint32(payload[4:8])

	descs := make([]VarDesc, 0, count)
	offset := 8
	for i := uint32(0); i < count; i++ {
		if offset+24 > len(payload) {
			return nil, fmt.Errorf("container: telemetry desc %d: truncated record header", i)
		}
		reclen := binary.LittleEndian.Uint32(payload[offset : offset+4])
		namelen := binary.LittleEndian.Uint32(payload[offset+4 : offset+8])
		typ := VarType(binary.LittleEndian.Uint32(payload[offset+8 : offset+12]))
		size := binary.LittleEndian.Uint32(payload[offset+12 : offset+16])
		elemCount := binary.LittleEndian.Uint32(payload[offset+16 : offset+20])
		flags := binary.LittleEndian.Uint32(payload[offset+20 : offset+24])

		if reclen < 24 {
			return nil, fmt.Errorf("container: telemetry desc %d: reclen %d shorter than fixed header", i, reclen)
		}
		if offset+int(reclen) > len(payload) {
			return nil, fmt.Errorf("container: telemetry desc %d: record extends past metadata block", i)
		}
		nameField := payload[offset+24 : offset+int(reclen)]
		if int(namelen) > len(nameField) {
			return nil, fmt.Errorf("container: telemetry desc %d: namelen %d exceeds name field of %d bytes", i, namelen, len(nameField))
		}
		name := string(nameField[:namelen])

		descs = append(descs, VarDesc{Name: name, Type: typ, Size: size, Count: elemCount, Flags: flags})
		offset += int(reclen)
	}

	var sampleSize uint64
	for _, d := range descs {
		sampleSize += uint64(d.Size) * uint64(max(d.Count, 1))
	}
	if sampleSize > MaxTelemetrySize {
		return nil, fmt.Errorf("container: telemetry sample size of %d bytes exceeds max %d", sampleSize, MaxTelemetrySize)
	}
	return descs, nil
}
