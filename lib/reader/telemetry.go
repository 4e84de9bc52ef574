// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package reader

import (
	"encoding/binary"
	"fmt"

	"github.com/aerologic/flightrecorder/lib/container"
	"github.com/aerologic/flightrecorder/lib/datasource"
)

// telemetrySource backs the "telemetry" plugin (spec §4.7, §3, §8
// scenario 5). Entries for one source_id alternate between a "TLM!"
// metadata block, declaring (or re-declaring) the section's item
// descriptors, and runs of raw sample bytes sized to the current
// descriptor's SampleSize. A re-description whose descriptors differ
// from the current generation starts a fresh, disambiguated
// datasource.TelemetryDataSource; the previous generation stays in the
// list Reader.Telemetry returns, addressable by its own full name.
type telemetrySource struct {
	baseName string
	gen      int
	current  *datasource.TelemetryDataSource
	onNew    func(*datasource.TelemetryDataSource)
}

func newTelemetrySource(baseName string, onNew func(*datasource.TelemetryDataSource)) *telemetrySource {
	return &telemetrySource{baseName: baseName, onNew: onNew}
}

func (s *telemetrySource) handle(payload []byte) error {
	if len(payload) >= 4 && binary.LittleEndian.Uint32(payload[0:4]) == container.TelemetryMagic {
		descs, err := container.DecodeTelemetryMetadata(payload)
		if err != nil {
			return fmt.Errorf("reader: telemetry metadata for %q: %w", s.baseName, err)
		}
		if s.current != nil && descsEqual(userDescs(s.current), descs) {
			return nil // identical re-announcement, nothing changes
		}
		name := s.baseName
		if s.gen > 0 {
			name = fmt.Sprintf("%s-%d", s.baseName, s.gen)
		}
		s.current = datasource.NewTelemetryDataSource(name, descs, 0)
		s.gen++
		if s.onNew != nil {
			s.onNew(s.current)
		}
		return nil
	}

	if s.current == nil {
		return fmt.Errorf("reader: telemetry sample for %q arrived before any TLM! header", s.baseName)
	}
	sampleSize := s.current.SampleSize()
	if sampleSize == 0 || len(payload)%sampleSize != 0 {
		return fmt.Errorf("reader: telemetry sample block of %d bytes is not a multiple of sample size %d", len(payload), sampleSize)
	}
	for offset := 0; offset < len(payload); offset += sampleSize {
		if err := s.current.AppendRawSample(payload[offset : offset+sampleSize]); err != nil {
			return fmt.Errorf("reader: telemetry %q: %w", s.baseName, err)
		}
	}
	return nil
}

// userDescs strips the two synthetic leading descriptors so a
// re-description compares only the writer-declared items.
func userDescs(ts *datasource.TelemetryDataSource) []container.VarDesc {
	all := ts.Descs()
	if len(all) <= 2 {
		return nil
	}
	return all[2:]
}

func descsEqual(a, b []container.VarDesc) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
