// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package datasource

import "strings"

// Param is one (name, value) pair carried by an Event, in declaration
// order (spec §3).
type Param struct {
	Name  string
	Value string
}

// Event is one entry of an EventDataSource: a timestamped, named
// occurrence carrying an ordered sequence of string parameters (spec
// §3).
type Event struct {
	Timestamp int64 // microseconds
	Name      string
	Params    []Param
}

// Param returns the value of the first parameter named name, and
// whether it was present.
func (e Event) Param(name string) (string, bool) {
	for _, p := range e.Params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// EventDataSource is an ordered sequence of events (spec §3).
type EventDataSource struct {
	events []Event
}

// NewEventDataSource returns an empty EventDataSource.
func NewEventDataSource() *EventDataSource {
	return &EventDataSource{}
}

// Append adds ev to the end of the event sequence.
func (s *EventDataSource) Append(ev Event) {
	s.events = append(s.events, ev)
}

// Events returns every recorded event in arrival order.
func (s *EventDataSource) Events() []Event {
	return append([]Event(nil), s.events...)
}

// Len reports the number of recorded events.
func (s *EventDataSource) Len() int {
	return len(s.events)
}

// ParseEvent decodes one ulog-embedded event payload at timestamp ts
// (spec §3, §6.1). The payload must begin with the literal "EVT:" or
// "EVTS:" followed by "NAME;key=value;key=value;…"; values may be
// wrapped in single quotes, which are stripped. ok is false if payload
// does not begin with a recognized prefix.
func ParseEvent(ts int64, payload string) (ev Event, ok bool) {
	body, matched := cutEventPrefix(payload)
	if !matched {
		return Event{}, false
	}

	fields := strings.Split(body, ";")
	if len(fields) == 0 || fields[0] == "" {
		return Event{}, false
	}

	ev = Event{Timestamp: ts, Name: fields[0]}
	for _, field := range fields[1:] {
		if field == "" {
			continue
		}
		key, value, found := strings.Cut(field, "=")
		if !found {
			continue
		}
		ev.Params = append(ev.Params, Param{Name: key, Value: unquote(value)})
	}
	return ev, true
}

// cutEventPrefix strips a leading "EVT:" or "EVTS:" literal, the
// longer prefix taking priority so "EVTS:" is never mistaken for
// "EVT:" followed by a body starting with "S".
func cutEventPrefix(payload string) (body string, ok bool) {
	if rest, found := strings.CutPrefix(payload, "EVTS:"); found {
		return rest, true
	}
	if rest, found := strings.CutPrefix(payload, "EVT:"); found {
		return rest, true
	}
	return "", false
}

// unquote strips a single matching pair of enclosing single quotes, if
// present, per the EVT/EVTS grammar's optional-quoting rule (spec §3).
func unquote(value string) string {
	if len(value) >= 2 && value[0] == '\'' && value[len(value)-1] == '\'' {
		return value[1 : len(value)-1]
	}
	return value
}
