// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package datasource

import "testing"

func TestParseEventEVTS(t *testing.T) {
	ev, ok := ParseEvent(1234, "EVTS:CONTROLLER;name='Foo'")
	if !ok {
		t.Fatal("ParseEvent returned ok=false")
	}
	if ev.Timestamp != 1234 || ev.Name != "CONTROLLER" {
		t.Fatalf("ev = %+v", ev)
	}
	value, found := ev.Param("name")
	if !found || value != "Foo" {
		t.Fatalf("Param(name) = %q, %v, want Foo", value, found)
	}
}

func TestParseEventEVTUnquoted(t *testing.T) {
	ev, ok := ParseEvent(99, "EVT:LOGS;event=remove;reason=ROTATE;flight=false")
	if !ok {
		t.Fatal("ParseEvent returned ok=false")
	}
	if ev.Name != "LOGS" || len(ev.Params) != 3 {
		t.Fatalf("ev = %+v", ev)
	}
	if v, _ := ev.Param("reason"); v != "ROTATE" {
		t.Fatalf("Param(reason) = %q", v)
	}
}

func TestParseEventRejectsUnrecognizedPrefix(t *testing.T) {
	if _, ok := ParseEvent(0, "plain ulog text"); ok {
		t.Fatal("ParseEvent accepted a payload with no EVT:/EVTS: prefix")
	}
}

func TestParseEventEmptyNameRejected(t *testing.T) {
	if _, ok := ParseEvent(0, "EVT:"); ok {
		t.Fatal("ParseEvent accepted an empty event name")
	}
}

func TestEventDataSourceAppendPreservesOrder(t *testing.T) {
	s := NewEventDataSource()
	first, _ := ParseEvent(1, "EVT:A")
	second, _ := ParseEvent(2, "EVT:B")
	s.Append(first)
	s.Append(second)

	events := s.Events()
	if len(events) != 2 || events[0].Name != "A" || events[1].Name != "B" {
		t.Fatalf("Events() = %+v", events)
	}
}
