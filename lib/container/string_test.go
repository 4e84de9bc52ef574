// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package container

import (
	"bytes"
	"strings"
	"testing"
)

func TestStringRoundTrip(t *testing.T) {
	tests := []string{"a", "flight-id-0001", "plugin.name/with/slashes"}
	for _, s := range tests {
		t.Run(s, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteString(&buf, s); err != nil {
				t.Fatalf("WriteString(%q) failed: %v", s, err)
			}
			if buf.Len() != EncodedStringLen(s) {
				t.Errorf("encoded length = %d, want %d", buf.Len(), EncodedStringLen(s))
			}
			got, err := ReadString(&buf)
			if err != nil {
				t.Fatalf("ReadString failed: %v", err)
			}
			if got != s {
				t.Errorf("ReadString = %q, want %q", got, s)
			}
		})
	}
}

func TestWriteStringRejectsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteString(&buf, ""); err == nil {
		t.Error("WriteString(\"\") should fail")
	}
}

func TestReadStringRejectsZeroLength(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0, 0})
	if _, err := ReadString(buf); err == nil {
		t.Error("ReadString should reject a declared length of zero")
	}
}

func TestReadStringRejectsMissingTerminator(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{2, 0}) // length = 2
	buf.Write([]byte("xy")) // not NUL-terminated
	if _, err := ReadString(&buf); err == nil {
		t.Error("ReadString should reject a string not ending in NUL")
	}
}

func TestWriteStringRejectsOverlongLength(t *testing.T) {
	var buf bytes.Buffer
	huge := strings.Repeat("a", 0x10000)
	if err := WriteString(&buf, huge); err == nil {
		t.Error("WriteString should reject a string whose length+NUL exceeds u16 range")
	}
}
