// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package reader

import (
	"strings"

	"github.com/aerologic/flightrecorder/lib/datasource"
)

// ulogSource backs the "ulog" plugin. Each entry's payload is kept
// opaque in a LogDataSource (spec §3) and additionally scanned for an
// embedded "EVT:"/"EVTS:" marker to extract an Event (spec §3, end-to-
// end scenario 2).
//
// The outer ulog kernel entry header (sequence number, priority,
// pid/tid, process/thread name) is not part of this core's wire format
// — spec.md defines LogDataSource as opaque bytes and gives the event
// grammar only for the text embedded inside a payload, with no
// per-message timestamp encoding at this layer. Lacking that channel,
// ulogSource timestamps extracted events with a per-source,
// monotonically increasing placeholder (microseconds = entry ordinal),
// which preserves ordering for the taxonomy translation in lib/gutma
// without inventing an unspecified binary header.
type ulogSource struct {
	log    *datasource.LogDataSource
	events *datasource.EventDataSource
	next   int64
}

func newUlogSource() *ulogSource {
	return &ulogSource{
		log:    datasource.NewLogDataSource(),
		events: datasource.NewEventDataSource(),
	}
}

func (s *ulogSource) handle(payload []byte) error {
	s.log.Append(payload)

	if idx := indexEventMarker(payload); idx >= 0 {
		if ev, ok := datasource.ParseEvent(s.next, string(payload[idx:])); ok {
			s.events.Append(ev)
		}
	}
	s.next++
	return nil
}

// indexEventMarker returns the byte offset of the first "EVT:" or
// "EVTS:" occurrence in payload, or -1 if neither is present.
func indexEventMarker(payload []byte) int {
	text := string(payload)
	evts := strings.Index(text, "EVTS:")
	evt := strings.Index(text, "EVT:")
	switch {
	case evts < 0:
		return evt
	case evt < 0:
		return evts
	case evts <= evt:
		return evts
	default:
		return evt
	}
}
