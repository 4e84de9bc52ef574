// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package plugin

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/zeebo/blake3"
)

// Fingerprint is a 32-byte BLAKE3 digest of a dynamic plugin's binary,
// computed before plugin.Open so a caller can compare it against a
// pinned expected hash and refuse to load an unexpected binary (spec
// §4.6: "failures on one plugin are non-fatal" extends to a fingerprint
// mismatch).
type Fingerprint [32]byte

// FingerprintFile computes the BLAKE3 fingerprint of the file at path.
func FingerprintFile(path string) (Fingerprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("plugin: reading %q for fingerprint: %w", path, err)
	}
	hasher := blake3.New()
	hasher.Write(data)
	var fp Fingerprint
	copy(fp[:], hasher.Sum(nil))
	return fp, nil
}

// String returns the hex-encoded fingerprint, the form logged and
// compared against a pinned expected hash.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}
