// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package gutma

import (
	"fmt"
	"sort"

	"github.com/aerologic/flightrecorder/lib/reader"
	"github.com/aerologic/flightrecorder/lib/telemetry"
)

// ExitCode reports how Convert concluded, mirroring the distinct exit
// paths liblog2gutma's command line tool reports (spec §6.4).
type ExitCode int

const (
	// OK means a document was produced.
	OK ExitCode = iota
	// NoFlight means the file never recorded a takeoff and Options.OnlyFlight
	// was set, so no document was produced.
	NoFlight
	// UnsupportedVersion means the aircraft's firmware predates the
	// minimum version this converter supports.
	UnsupportedVersion
)

// Options configures Convert.
type Options struct {
	// OnlyFlight, when set, makes Convert return NoFlight instead of a
	// document for a file that never recorded a takeoff.
	OnlyFlight bool
	// Filename is recorded verbatim in the document's file section.
	Filename string
}

// Document is the top-level GUTMA exchange document (spec §4.9).
type Document struct {
	ExchangeType string  `json:"exchange_type"`
	Message      Message `json:"message"`
}

// Message wraps the three document sections GUTMA expects.
type Message struct {
	FlightData     FlightData     `json:"flight_data"`
	File           FileSection    `json:"file"`
	FlightLogging  FlightLogging  `json:"flight_logging"`
}

// FlightData carries the aircraft/gcs/battery identification block.
type FlightData struct {
	FlightID   string            `json:"flight_id"`
	Aircraft   map[string]string `json:"aircraft"`
	GCS        map[string]string `json:"gcs"`
	Battery    map[string]string `json:"battery"`
}

// FileSection describes the source log file (spec §4.9).
type FileSection struct {
	Version      string `json:"version"`
	LoggingType  string `json:"logging_type"`
	Filename     string `json:"filename"`
	CreationDTG  string `json:"creation_dtg"`
}

// FlightLogging carries the event and telemetry payload.
type FlightLogging struct {
	UOMSystem         string            `json:"uom_system"`
	AltitudeSystem    string            `json:"altitude_system"`
	LoggingStartDTG   string            `json:"logging_start_dtg"`
	Events            []EventRecord     `json:"events"`
	FlightLoggingKeys []string          `json:"flight_logging_keys"`
	FlightLoggingItems [][]any          `json:"flight_logging_items"`
}

// EventRecord is one translated event, JSON-shaped per spec §4.9.
type EventRecord struct {
	Timestamp string `json:"timestamp"`
	EventType string `json:"event_type"`
	EventInfo string `json:"event_info"`
	MediaName string `json:"media_name,omitempty"`
}

const (
	flightLoggingVersion = "1.0.0"
	loggingType           = "takeoff_to_landing"
	uomSystemMetric       = "METRIC"
	altitudeSystemWGS84   = "WGS84"
	timestampLayout       = "%.3f"
)

// Convert reads every source r produced and assembles a GUTMA
// flight_logging exchange document (spec §4.9, §6.4).
func Convert(r *reader.Reader, opts Options) (*Document, ExitCode, error) {
	header := r.Header()
	if header == nil {
		return nil, OK, fmt.Errorf("gutma: file has no header record")
	}

	if opts.OnlyFlight {
		if v, ok := header.Get("takeoff"); ok && v == "0" {
			return nil, NoFlight, nil
		}
	}

	firmware, _ := header.Get(propFirmwareVersion)
	if firmware != "" && !isDevFirmware(firmware) && !meetsMinimumFirmware(firmware) {
		return nil, UnsupportedVersion, nil
	}

	events := translateUlogEvents(r.Events())

	merged := telemetry.Merge(r.Telemetry())
	rows := buildRows(merged)
	events = append(events, gpsFixEvents(rows)...)

	sortEvents(events)
	events = coalesceConsecutive(events)

	toLocal := refTime(header)

	startTS := int64(0)
	haveStart := false
	if len(rows) > 0 {
		startTS = rows[0].timestamp
		haveStart = true
	}
	if len(events) > 0 && (!haveStart || events[0].timestamp < startTS) {
		startTS = events[0].timestamp
		haveStart = true
	}

	flightID, _ := header.Get("control.flight.uuid")

	doc := &Document{
		ExchangeType: "exchange",
		Message: Message{
			FlightData: FlightData{
				FlightID: flightID,
				Aircraft: aircraftProperties(header),
				GCS:      gcsProperties(header),
				Battery:  batteryProperties(header),
			},
			File: FileSection{
				Version:     flightLoggingVersion,
				LoggingType: loggingType,
				Filename:    opts.Filename,
				CreationDTG: toLocal(startTS),
			},
			FlightLogging: FlightLogging{
				UOMSystem:          uomSystemMetric,
				AltitudeSystem:     altitudeSystemWGS84,
				LoggingStartDTG:    toLocal(startTS),
				Events:             eventRecords(events, toLocal),
				FlightLoggingKeys:  columnOrder,
				FlightLoggingItems: sparseItems(rows),
			},
		},
	}
	return doc, OK, nil
}

func eventRecords(events []taxonEvent, toLocal func(int64) string) []EventRecord {
	out := make([]EventRecord, 0, len(events))
	for _, ev := range events {
		out = append(out, EventRecord{
			Timestamp: toLocal(ev.timestamp),
			EventType: ev.eventType,
			EventInfo: ev.eventInfo,
			MediaName: ev.mediaName,
		})
	}
	return out
}

// sparseItems keeps only rows carrying at least one non-default value
// (spec §4.9), prefixed with the row's timestamp formatted to the
// canonical three-decimal seconds form (spec §9 open question (b)).
func sparseItems(rows []telemetryRow) [][]any {
	out := make([][]any, 0, len(rows))
	for _, row := range rows {
		cols := row.gutmaColumns()
		if !hasAnyValue(cols) {
			continue
		}
		item := make([]any, 0, len(cols)+1)
		item = append(item, fmt.Sprintf(timestampLayout, float64(row.timestamp)/1e6))
		item = append(item, cols...)
		out = append(out, item)
	}
	return out
}

func sortEvents(events []taxonEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].timestamp < events[j].timestamp
	})
}

// coalesceConsecutive drops a CONTROLLER_EVENT entry that repeats the
// immediately preceding event's info, so a flying_state that bounces
// without actually changing category doesn't produce duplicate
// consecutive rows (spec §4.9).
func coalesceConsecutive(events []taxonEvent) []taxonEvent {
	out := make([]taxonEvent, 0, len(events))
	for _, ev := range events {
		if n := len(out); n > 0 && out[n-1].eventType == controllerEvent &&
			ev.eventType == controllerEvent && out[n-1].eventInfo == ev.eventInfo {
			continue
		}
		out = append(out, ev)
	}
	return out
}
