// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package datasource

// LogDataSource is a sequence of raw ulog wire-format records, kept
// opaque (spec §3): the reader does not interpret ulog framing itself,
// only hands each entry's payload to this source for whatever
// downstream tool understands ulog.
type LogDataSource struct {
	records [][]byte
}

// NewLogDataSource returns an empty LogDataSource.
func NewLogDataSource() *LogDataSource {
	return &LogDataSource{}
}

// Append adds one opaque record, copying payload so the source does
// not alias the reader's decode buffer.
func (s *LogDataSource) Append(payload []byte) {
	record := make([]byte, len(payload))
	copy(record, payload)
	s.records = append(s.records, record)
}

// Records returns every recorded payload in arrival order.
func (s *LogDataSource) Records() [][]byte {
	return append([][]byte(nil), s.records...)
}

// Len reports the number of recorded entries.
func (s *LogDataSource) Len() int {
	return len(s.records)
}
