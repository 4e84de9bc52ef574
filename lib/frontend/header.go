// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package frontend

import (
	"fmt"

	"github.com/aerologic/flightrecorder/lib/container"
)

// Reserved widths for the header's fixed-width rewritable fields
// (spec §4.4). FlightUUIDWidth, GCSFieldWidth, MD5Width, DateWidth, and
// RefTimeAbsoluteWidth are given explicitly by the spec (the rotation
// test case fixes date's initial value at 26 bytes, and
// reftime.absolute's initial literal at twenty '0' characters);
// LifetimeIndexWidth is sized generously enough to hold a lifetime
// counter and documented here as the one place that picks it.
const (
	FlightUUIDWidth      = 33
	GCSFieldWidth        = 128
	MD5Width             = 32 // lowercase hex digest, 2*16
	DateWidth            = 26
	RefTimeAbsoluteWidth = 20
	LifetimeIndexWidth   = 20
	TakeoffWidth         = 1
)

// RefTimeMonotonicInitial and RefTimeAbsoluteInitial are the literal
// initial values for the reftime fields (spec §4.4); their reserved
// widths are fixed at the length of these literals.
const (
	RefTimeMonotonicInitial = "EVT:TIME;date='1970-01-01';time='T000000+0200'"
	RefTimeAbsoluteInitial  = "00000000000000000000"
)

// ExtraProp describes one operator-configured header field beyond the
// fixed set the Frontend always writes (spec §4.4, §6.3).
type ExtraProp struct {
	Key          string
	ReservedSize int
	InitialValue string
	ReadOnly     bool
}

// rewritableField caches where a header field's value lives on disk
// so updateField can rewrite it in place without re-scanning the
// record.
type rewritableField struct {
	absoluteOffset int64
	width          int
}

// buildHeaderPairs assembles the ordered pair list for the header
// record (spec §4.4, step 3): index counter, system properties,
// flight UUID, extras, lifetime index, date, gcs name/type, md5,
// reftime fields, takeoff.
func (f *Frontend) buildHeaderPairs(takeoff bool) ([]container.Pair, error) {
	var pairs []container.Pair

	pairs = append(pairs, container.Pair{Key: "index", Value: fmt.Sprintf("%d", f.indexCounter)})
	f.indexCounter++

	if f.cfg.PropertySource != nil {
		pairs = append(pairs, f.cfg.PropertySource.SystemProperties()...)
	}

	flightUUID, err := container.PadValue("", FlightUUIDWidth)
	if err != nil {
		return nil, err
	}
	pairs = append(pairs, container.Pair{Key: "control.flight.uuid", Value: flightUUID})

	for _, extra := range f.cfg.ExtraProps {
		value := extra.InitialValue
		if !extra.ReadOnly {
			padded, err := container.PadValue(value, extra.ReservedSize)
			if err != nil {
				return nil, fmt.Errorf("frontend: extra property %q: %w", extra.Key, err)
			}
			value = padded
		}
		pairs = append(pairs, container.Pair{Key: extra.Key, Value: value})
	}

	if f.cfg.LogIdx != nil {
		idxStr, err := f.cfg.LogIdx.GetIndexStr()
		if err != nil {
			return nil, fmt.Errorf("frontend: reading lifetime index: %w", err)
		}
		padded, err := container.PadValue(idxStr, LifetimeIndexWidth)
		if err != nil {
			return nil, fmt.Errorf("frontend: lifetime index: %w", err)
		}
		pairs = append(pairs, container.Pair{Key: "lifetime.index", Value: padded})
	}

	date, err := container.PadValue("", DateWidth)
	if err != nil {
		return nil, err
	}
	pairs = append(pairs, container.Pair{Key: "date", Value: date})

	gcsName, err := container.PadValue("", GCSFieldWidth)
	if err != nil {
		return nil, err
	}
	pairs = append(pairs, container.Pair{Key: "gcs.name", Value: gcsName})

	gcsType, err := container.PadValue("", GCSFieldWidth)
	if err != nil {
		return nil, err
	}
	pairs = append(pairs, container.Pair{Key: "gcs.type", Value: gcsType})

	pairs = append(pairs, container.Pair{Key: "md5", Value: container.SentinelValue(MD5Width)})

	refMonotonic, err := container.PadValue(RefTimeMonotonicInitial, len(RefTimeMonotonicInitial))
	if err != nil {
		return nil, err
	}
	pairs = append(pairs, container.Pair{Key: "reftime.monotonic", Value: refMonotonic})

	refAbsolute, err := container.PadValue(RefTimeAbsoluteInitial, RefTimeAbsoluteWidth)
	if err != nil {
		return nil, err
	}
	pairs = append(pairs, container.Pair{Key: "reftime.absolute", Value: refAbsolute})

	takeoffValue := "0"
	if takeoff {
		takeoffValue = "1"
	}
	padded, err := container.PadValue(takeoffValue, TakeoffWidth)
	if err != nil {
		return nil, err
	}
	pairs = append(pairs, container.Pair{Key: "takeoff", Value: padded})

	return pairs, nil
}

// recordRewritableOffsets caches the absolute file offset of every
// rewritable field's value, given the FieldOffset list EncodeRecord
// returned and the entry's base offset (the start of the record
// payload within the file).
func recordRewritableOffsets(pairs []container.Pair, offsets []container.FieldOffset, payloadBase int64, cache map[string]rewritableField) {
	rewritableKeys := map[string]bool{
		"control.flight.uuid": true,
		"date":                true,
		"gcs.name":            true,
		"gcs.type":            true,
		"md5":                 true,
		"reftime.monotonic":   true,
		"reftime.absolute":    true,
		"takeoff":             true,
	}
	for i, pair := range pairs {
		if !rewritableKeys[pair.Key] {
			continue
		}
		cache[pair.Key] = rewritableField{
			absoluteOffset: payloadBase + int64(offsets[i].ValueStart),
			width:          offsets[i].ValueLen,
		}
	}
	// Extras that were registered as rewritable are cached separately
	// by the caller, which knows each extra's ReadOnly flag.
}
