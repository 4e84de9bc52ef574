// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

// Package buffer implements the Recorder's write-side pipeline: an
// accumulation region that sources append encoded entries into,
// flushed as LZ4 frames once enough bytes have accumulated, optionally
// sealed behind AES-256-CBC with an RSA-OAEP-wrapped content key.
//
// Sources never see compression or encryption directly. They call
// GetWriteHead/GetWriteSpace to get a scratch region, write their
// entry there, and call Push to commit it; the Buffer decides when to
// flush and what that flush looks like on the wire.
package buffer
