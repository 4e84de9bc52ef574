// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package pluginsettings

import (
	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder configured with Core Deterministic
// Encoding (RFC 8949 §4.2): sorted map keys, smallest integer
// encoding, no indefinite-length items. The same logical settings
// value always produces identical bytes, so two plugin loaders handed
// the same settings struct agree on the wire blob byte-for-byte.
var encMode cbor.EncMode

// decMode is the CBOR decoder configured to accept standard CBOR.
var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("pluginsettings: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("pluginsettings: CBOR decoder initialization failed: " + err.Error())
	}
}

// Encode serializes v into a settings blob using Core Deterministic
// Encoding. The result is raw CBOR bytes carried as a Go string — the
// wire type LogPlugin.SetSettings(blob string) expects (spec §4.6) —
// not necessarily printable text.
func Encode(v any) (string, error) {
	data, err := encMode.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Decode deserializes a settings blob produced by Encode into v, which
// must be a pointer.
func Decode(blob string, v any) error {
	return decMode.Unmarshal([]byte(blob), v)
}
