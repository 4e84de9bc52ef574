// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret provides a memory-safe buffer for the key material
// used by the Buffer Pipeline's optional AES-256-CBC sealing layer
// (spec §4.2): the per-file content key and (when decrypting) the RSA
// private key.
//
// [Buffer] allocates memory outside the Go heap via mmap(MAP_ANONYMOUS),
// locks it into physical RAM via mlock (preventing swap), and marks it
// excluded from core dumps via madvise(MADV_DONTDUMP). On Close, the
// memory is zeroed, unlocked, and unmapped. Because the memory lives
// outside the Go heap, the garbage collector cannot copy or relocate
// it, guaranteeing a content key does not persist after release() /
// reset() destroys the cipher context.
//
// Constructors:
//
//   - [New] -- allocates a zero-filled buffer of a given size
//   - [NewRandom] -- generates a fresh key or IV directly into protected memory
//   - [NewFromBytes] -- copies into protected memory, zeros the source
//   - [ReadFromPath] -- reads a PEM-encoded key from a file or stdin
//
// Access via [Buffer.Bytes]. After Close, any access panics. Close is
// idempotent.
//
// Depends on golang.org/x/sys/unix. No other internal dependencies.
package secret
