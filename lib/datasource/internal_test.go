// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package datasource

import (
	"testing"

	"github.com/aerologic/flightrecorder/lib/container"
)

func TestInternalDataSourceSetGet(t *testing.T) {
	s := NewInternalDataSource()
	s.Set("date", "20240102T030405+0000")
	s.Set("takeoff", "1")

	v, ok := s.Get("date")
	if !ok || v != "20240102T030405+0000" {
		t.Fatalf("Get(date) = %q, %v", v, ok)
	}
	if keys := s.Keys(); len(keys) != 2 || keys[0] != "date" || keys[1] != "takeoff" {
		t.Fatalf("Keys() = %v", keys)
	}
}

func TestInternalDataSourceSetOverwritesKeepsPosition(t *testing.T) {
	s := NewInternalDataSource()
	s.Set("a", "1")
	s.Set("b", "2")
	s.Set("a", "3")

	if keys := s.Keys(); len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("Keys() = %v, want [a b]", keys)
	}
	v, _ := s.Get("a")
	if v != "3" {
		t.Fatalf("Get(a) = %q, want 3", v)
	}
}

func TestInternalDataSourceLoadRecordLastWriteWins(t *testing.T) {
	payload, _, err := container.EncodeRecord([]container.Pair{
		{Key: "reason", Value: "EXITING"},
		{Key: "reason", Value: "ROTATE"},
	})
	if err != nil {
		t.Fatalf("EncodeRecord: %v", err)
	}

	s := NewInternalDataSource()
	if err := s.LoadRecord(payload); err != nil {
		t.Fatalf("LoadRecord: %v", err)
	}
	v, ok := s.Get("reason")
	if !ok || v != "ROTATE" {
		t.Fatalf("Get(reason) = %q, %v, want ROTATE", v, ok)
	}
	if keys := s.Keys(); len(keys) != 1 {
		t.Fatalf("Keys() = %v, want one entry", keys)
	}
}
