// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// SourceDesc is the payload of a SOURCE_DESC entry (spec §3, §4.1):
// source_id:u32, version:u32, plugin (length-prefixed string), name
// (length-prefixed string). It is emitted before the first data entry
// produced by that source in the current file.
type SourceDesc struct {
	SourceID uint32
	Version  uint32
	Plugin   string
	Name     string
}

// FullName returns the plugin+"-"+name tuple used to disambiguate
// repeated registrations of the same (plugin, name) pair mid-file
// (spec §3).
func (d SourceDesc) FullName() string {
	return d.Plugin + "-" + d.Name
}

// EncodeSourceDesc renders a SourceDesc to its wire payload.
func EncodeSourceDesc(desc SourceDesc) ([]byte, error) {
	var idBuf [8]byte
	binary.LittleEndian.PutUint32(idBuf[0:4], desc.SourceID)
	binary.LittleEndian.PutUint32(idBuf[4:8], desc.Version)

	var buf bytes.Buffer
	buf.Write(idBuf[:])
	if err := WriteString(&buf, desc.Plugin); err != nil {
		return nil, fmt.Errorf("container: encoding source desc plugin: %w", err)
	}
	if err := WriteString(&buf, desc.Name); err != nil {
		return nil, fmt.Errorf("container: encoding source desc name: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeSourceDesc parses a SOURCE_DESC payload.
func DecodeSourceDesc(payload []byte) (SourceDesc, error) {
	if len(payload) < 8 {
		return SourceDesc{}, fmt.Errorf("container: source desc payload too short (%d bytes)", len(payload))
	}
	sourceID := binary.LittleEndian.Uint32(payload[0:4])
	version := binary.LittleEndian.Uint32(payload[4:8])

	r := bytes.NewReader(payload[8:])
	plugin, err := ReadString(r)
	if err != nil {
		return SourceDesc{}, fmt.Errorf("container: decoding source desc plugin: %w", err)
	}
	name, err := ReadString(r)
	if err != nil {
		return SourceDesc{}, fmt.Errorf("container: decoding source desc name: %w", err)
	}
	return SourceDesc{SourceID: sourceID, Version: version, Plugin: plugin, Name: name}, nil
}
