// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package gutma

import (
	"path"
	"strconv"
	"strings"

	"github.com/aerologic/flightrecorder/lib/datasource"
)

// Controller category strings, used verbatim as a translated event's
// event_type (spec §4.9).
const (
	controllerEvent      = "CONTROLLER_EVENT"
	controllerAlert      = "CONTROLLER_ALERT"
	controllerMedia      = "CONTROLLER_MEDIA"
	controllerConnection = "CONTROLLER_CONNECTION"
	controllerGPS        = "CONTROLLER_GPS"
)

// eventInfo is the extended event-string table (spec §9 open question
// (a): the extended table, not the short one, is authoritative).
const (
	infoEmergency             = "EME"
	infoLanded                = "LND"
	infoLanding               = "LDG"
	infoTakeoff               = "TOF"
	infoEnroute               = "ENR"
	infoPhoto                 = "PHOTO"
	infoVideo                 = "VIDEO"
	infoVCamError             = "VERTICAL CAMERA ERROR"
	infoCamError              = "GIMBAL ERROR"
	infoBatteryLow            = "BATTERY LOW"
	infoCutOutMotor           = "CUT OUT MOTOR"
	infoMotorBroken           = "MOTOR BROKEN"
	infoMotorTemperature      = "MOTOR TEMPERATURE"
	infoBatteryLowTemp        = "BATTERY LOW TEMPERATURE"
	infoBatteryHighTemp       = "BATTERY HIGH TEMPERATURE"
	infoStorageIntFull        = "INTERNAL MEMORY FULL"
	infoStorageIntAlmostFull  = "INTERNAL MEMORY ALMOST FULL"
	infoStorageExtFull        = "SDCARD FULL"
	infoStorageExtAlmostFull  = "SDCARD ALMOST FULL"
	infoCalibrationRequired   = "CALIBRATION REQUIRED"
	infoPropellerUnscrewed    = "PROPELLER UNSCREWED"
	infoPropellerBroken       = "PROPELLER BROKEN"
	infoConnected             = "CONNECTED"
	infoDisconnected          = "DISCONNECTED"
	infoGPSFixed              = "GPS FIXED"
	infoGPSUnfixed            = "GPS UNFIXED"
)

// taxonEvent is one translated event, ready to format into the
// document's "events" array.
type taxonEvent struct {
	timestamp int64 // microseconds, absolute (same clock as reader output)
	eventType string
	eventInfo string
	mediaName string
}

// translateUlogEvents walks every ulog EventDataSource's events and
// applies the fixed taxonomy (spec §4.9): per-source alert rules for
// AUTOPILOT/COLIBRY/ESC/GIMBAL/SMARTBATTERY/STORAGE/VISION, the
// flying_state-driven takeoff/landing/landed/enroute/emergency
// sequence from AUTOPILOT, media start/stop from RECORD/PHOTO, and
// connection events from CONTROLLER.
func translateUlogEvents(sources map[string]*datasource.EventDataSource) []taxonEvent {
	var out []taxonEvent
	for _, src := range sources {
		for _, ev := range src.Events() {
			switch ev.Name {
			case "AUTOPILOT":
				out = append(out, processAutopilotAlert(ev)...)
				out = append(out, processFlyingState(ev)...)
			case "COLIBRY":
				out = append(out, processSimpleAlert(ev, "event", "defective_motor", infoMotorBroken)...)
			case "ESC":
				out = append(out, processSimpleAlert(ev, "error_m", "temperature", infoMotorTemperature)...)
			case "GIMBAL":
				out = append(out, processSimpleAlert(ev, "alert", "critical", infoCamError)...)
				out = append(out, processSimpleAlert(ev, "alert", "calibration", infoCalibrationRequired)...)
			case "SMARTBATTERY":
				out = append(out, processSimpleAlert(ev, "temperature_alert", "low critical", infoBatteryLowTemp)...)
				out = append(out, processSimpleAlert(ev, "temperature_alert", "high critical", infoBatteryHighTemp)...)
			case "STORAGE":
				out = append(out, processStorageAlert(ev)...)
			case "VISION":
				out = append(out, processVisionAlert(ev)...)
			case "RECORD":
				out = append(out, processMedia(ev, "VIDEO", infoVideo)...)
			case "PHOTO":
				out = append(out, processMedia(ev, "PHOTO", infoPhoto)...)
			case "CONTROLLER":
				out = append(out, processConnection(ev)...)
			}
		}
	}
	return out
}

func processSimpleAlert(ev datasource.Event, paramName, needle, info string) []taxonEvent {
	for _, p := range ev.Params {
		if strings.Contains(p.Name, paramName) && strings.Contains(p.Value, needle) {
			return []taxonEvent{{timestamp: ev.Timestamp, eventType: controllerAlert, eventInfo: info}}
		}
	}
	return nil
}

func processAutopilotAlert(ev datasource.Event) []taxonEvent {
	var out []taxonEvent
	out = append(out, processSimpleAlert(ev, "alert", "CUT_OUT", infoCutOutMotor)...)
	out = append(out, processSimpleAlert(ev, "alert", "BATTERY_LOW", infoBatteryLow)...)

	if v, ok := ev.Param("vibration_level"); ok {
		switch v {
		case "WARNING":
			out = append(out, taxonEvent{timestamp: ev.Timestamp, eventType: controllerAlert, eventInfo: infoPropellerUnscrewed})
		case "CRITICAL":
			out = append(out, taxonEvent{timestamp: ev.Timestamp, eventType: controllerAlert, eventInfo: infoPropellerBroken})
		}
	}
	return out
}

func processFlyingState(ev datasource.Event) []taxonEvent {
	v, ok := ev.Param("flying_state")
	if !ok {
		return nil
	}
	var info string
	switch v {
	case "emergency":
		info = infoEmergency
	case "user_takeoff", "takeoff":
		info = infoTakeoff
	case "landing":
		info = infoLanding
	case "landed":
		info = infoLanded
	case "flying":
		info = infoEnroute
	default:
		return nil
	}
	return []taxonEvent{{timestamp: ev.Timestamp, eventType: controllerEvent, eventInfo: info}}
}

func processStorageAlert(ev datasource.Event) []taxonEvent {
	const internalStorageID, externalStorageID = 0, 1

	id := -1
	full, almostFull := false, false
	for _, p := range ev.Params {
		switch p.Name {
		case "storage_id":
			if n, err := strconv.Atoi(p.Value); err == nil {
				id = n
			}
		case "event":
			full = full || p.Value == "full"
			almostFull = almostFull || p.Value == "almost_full"
		}
	}

	var info string
	switch {
	case id == internalStorageID && full:
		info = infoStorageIntFull
	case id == internalStorageID && almostFull:
		info = infoStorageIntAlmostFull
	case id == externalStorageID && full:
		info = infoStorageExtFull
	case id == externalStorageID && almostFull:
		info = infoStorageExtAlmostFull
	default:
		return nil
	}
	return []taxonEvent{{timestamp: ev.Timestamp, eventType: controllerAlert, eventInfo: info}}
}

func processVisionAlert(ev datasource.Event) []taxonEvent {
	defective, opticalFlow := false, false
	for _, p := range ev.Params {
		switch {
		case p.Name == "feature" && p.Value == "optical_flow":
			opticalFlow = true
		case p.Name == "event" && p.Value == "defective":
			defective = true
		}
	}
	if defective && opticalFlow {
		return []taxonEvent{{timestamp: ev.Timestamp, eventType: controllerAlert, eventInfo: infoVCamError}}
	}
	return nil
}

func processMedia(ev datasource.Event, kind, info string) []taxonEvent {
	p, ok := ev.Param("path")
	if !ok {
		return nil
	}
	return []taxonEvent{{
		timestamp: ev.Timestamp,
		eventType: controllerMedia,
		eventInfo: info,
		mediaName: path.Base(p),
	}}
}

func processConnection(ev datasource.Event) []taxonEvent {
	v, ok := ev.Param("event")
	if !ok {
		return nil
	}
	switch v {
	case "connected":
		return []taxonEvent{{timestamp: ev.Timestamp, eventType: controllerConnection, eventInfo: infoConnected}}
	case "disconnected":
		return []taxonEvent{{timestamp: ev.Timestamp, eventType: controllerConnection, eventInfo: infoDisconnected}}
	default:
		return nil
	}
}
