// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package datasource

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/aerologic/flightrecorder/lib/container"
)

// TimeUsItem and SeqnumItem are the two synthetic leading descriptors
// every TelemetryDataSource carries ahead of a section's own items
// (spec §3): "time_us" and "seqnum", both single F64 values.
const (
	TimeUsItem = "time_us"
	SeqnumItem = "seqnum"
)

func syntheticDescs() []container.VarDesc {
	return []container.VarDesc{
		{Name: TimeUsItem, Type: container.VarF64, Size: 8, Count: 1},
		{Name: SeqnumItem, Type: container.VarF64, Size: 8, Count: 1},
	}
}

// TelemetryDataSource owns a section's descriptor vector, a contiguous
// byte backing store of sampleCount×sampleSize bytes, and a sorted
// vector of sample timestamps (spec §3, §4.8). Samples are appended in
// wire order; out-of-order timestamps are rejected (spec invariant 3).
type TelemetryDataSource struct {
	name       string
	descs      []container.VarDesc
	descOffset []int
	sampleSize int
	sampleRate float64

	data       []byte
	timestamps []int64
}

// NewTelemetryDataSource creates a telemetry source named name for a
// section whose user-declared items are userDescs, sampled at
// sampleRate Hz. The synthetic time_us and seqnum descriptors are
// prepended automatically.
func NewTelemetryDataSource(name string, userDescs []container.VarDesc, sampleRate float64) *TelemetryDataSource {
	descs := append(syntheticDescs(), userDescs...)
	offsets := make([]int, len(descs))
	offset := 0
	for i, d := range descs {
		offsets[i] = offset
		offset += int(d.Size) * int(max(d.Count, 1))
	}
	return &TelemetryDataSource{
		name:       name,
		descs:      descs,
		descOffset: offsets,
		sampleSize: offset,
		sampleRate: sampleRate,
	}
}

func max(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

// Name returns this source's full disambiguated name (spec §3,
// "telemetry-<name>" or, on re-description, "telemetry-<name>-<n>").
func (t *TelemetryDataSource) Name() string { return t.name }

// Descs returns the full descriptor vector, synthetic items first.
func (t *TelemetryDataSource) Descs() []container.VarDesc {
	return append([]container.VarDesc(nil), t.descs...)
}

// SampleSize reports the declared bytes-per-sample.
func (t *TelemetryDataSource) SampleSize() int { return t.sampleSize }

// SampleRate reports the section's declared sampling rate in Hz.
func (t *TelemetryDataSource) SampleRate() float64 { return t.sampleRate }

// SampleCount reports how many samples have been appended so far. Per
// spec §3 the writer-declared sampleCount is only a hint; this is the
// authoritative count on replay.
func (t *TelemetryDataSource) SampleCount() int { return len(t.timestamps) }

// AppendRawSample decodes and appends one wire-format sample of
// exactly SampleSize() bytes. Its timestamp is taken from the
// synthetic time_us column; a sample whose timestamp is strictly less
// than the previous one is rejected (spec invariant 3, P5).
func (t *TelemetryDataSource) AppendRawSample(raw []byte) error {
	if len(raw) != t.sampleSize {
		return fmt.Errorf("datasource: telemetry sample of %d bytes, want %d", len(raw), t.sampleSize)
	}
	ts := int64(math.Float64frombits(binary.LittleEndian.Uint64(raw[0:8])))
	if n := len(t.timestamps); n > 0 && ts < t.timestamps[n-1] {
		return fmt.Errorf("datasource: telemetry sample timestamp %d precedes previous %d", ts, t.timestamps[n-1])
	}
	t.timestamps = append(t.timestamps, ts)
	t.data = append(t.data, raw...)
	return nil
}

// GetSample implements the §4.8 random-access contract: sample i of
// item j sits at offset i*sampleSize + descOffset[j] and is decoded
// per the declared type/size. An out-of-range itemIdx returns the
// sample's timestamp with value 0.0, matching the source's declared
// behavior for addressing beyond the descriptor vector.
func (t *TelemetryDataSource) GetSample(sampleIdx, itemIdx int) (timestamp int64, value float64, ok bool) {
	if sampleIdx < 0 || sampleIdx >= len(t.timestamps) {
		return 0, 0, false
	}
	timestamp = t.timestamps[sampleIdx]
	if itemIdx < 0 || itemIdx >= len(t.descs) {
		return timestamp, 0.0, true
	}
	desc := t.descs[itemIdx]
	offset := sampleIdx*t.sampleSize + t.descOffset[itemIdx]
	raw := t.data[offset : offset+int(desc.Size)*int(max(desc.Count, 1))]
	return timestamp, decodeScalar(desc.Type, raw), true
}

// Timestamps returns the full sorted timestamp vector.
func (t *TelemetryDataSource) Timestamps() []int64 {
	return append([]int64(nil), t.timestamps...)
}

// decodeScalar decodes the first element of raw per typ. Multi-element
// (Count > 1) items return only their first element — GUTMA telemetry
// rows and the merge algorithm address scalar columns; array items are
// addressed one element at a time by the reader's factory logic using
// Size to step through raw directly when that is needed.
func decodeScalar(typ container.VarType, raw []byte) float64 {
	if len(raw) == 0 {
		return 0
	}
	switch typ {
	case container.VarBool:
		if raw[0] != 0 {
			return 1
		}
		return 0
	case container.VarU8:
		return float64(raw[0])
	case container.VarI8:
		return float64(int8(raw[0]))
	case container.VarU16:
		return float64(binary.LittleEndian.Uint16(raw))
	case container.VarI16:
		return float64(int16(binary.LittleEndian.Uint16(raw)))
	case container.VarU32:
		return float64(binary.LittleEndian.Uint32(raw))
	case container.VarI32:
		return float64(int32(binary.LittleEndian.Uint32(raw)))
	case container.VarU64:
		return float64(binary.LittleEndian.Uint64(raw))
	case container.VarI64:
		return float64(int64(binary.LittleEndian.Uint64(raw)))
	case container.VarF32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(raw)))
	case container.VarF64:
		return math.Float64frombits(binary.LittleEndian.Uint64(raw))
	default:
		return 0
	}
}
