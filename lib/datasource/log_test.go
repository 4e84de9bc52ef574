// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package datasource

import (
	"bytes"
	"testing"
)

func TestLogDataSourceAppendCopiesAndPreservesOrder(t *testing.T) {
	s := NewLogDataSource()
	payload := []byte{1, 2, 3}
	s.Append(payload)
	payload[0] = 0xFF // mutate caller's slice after Append

	records := s.Records()
	if len(records) != 1 {
		t.Fatalf("Records() has %d entries, want 1", len(records))
	}
	if !bytes.Equal(records[0], []byte{1, 2, 3}) {
		t.Fatalf("Records()[0] = %v, want [1 2 3] (Append must copy)", records[0])
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
}
