// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// ActiveFileName is the name of the single active output file within
// outputDir, renamed away on rotation (spec §4.3).
const ActiveFileName = "log.bin"

// File is the backend's handle on the active output file: sequential
// pwrite-based appends, matching the rest of this codebase's
// pwrite-over-plain-Write convention for files that are also mmap'd
// or that need precise control over write offsets.
type File struct {
	fd   int
	path string
	size int64
}

// Open truncates (or creates) outputDir/log.bin for writing and
// fsyncs the directory once the file exists, so a crash right after
// open cannot lose the directory entry (spec §4.3).
func Open(outputDir string) (*File, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("backend: creating output directory %q: %w", outputDir, err)
	}

	path := filepath.Join(outputDir, ActiveFileName)
	fd, err := unix.Open(path, unix.O_CREAT|unix.O_TRUNC|unix.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("backend: opening %q: %w", path, err)
	}

	if err := fsyncDir(outputDir); err != nil {
		unix.Close(fd)
		return nil, err
	}

	return &File{fd: fd, path: path}, nil
}

// fsyncDir opens dir read-only and fsyncs it, to flush the directory
// entry created or updated by a file create/rename within it.
func fsyncDir(dir string) error {
	dirFd, err := unix.Open(dir, unix.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("backend: opening directory %q for fsync: %w", dir, err)
	}
	defer unix.Close(dirFd)
	if err := unix.Fsync(dirFd); err != nil {
		return fmt.Errorf("backend: fsyncing directory %q: %w", dir, err)
	}
	return nil
}

// Write appends p at the current end of file and advances Size
// accordingly.
func (f *File) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		n, err := unix.Pwrite(f.fd, p, f.size)
		written += n
		f.size += int64(n)
		if err != nil {
			return written, fmt.Errorf("backend: pwrite to %q at offset %d: %w", f.path, f.size, err)
		}
		p = p[n:]
	}
	return written, nil
}

// WriteAt overwrites len(p) bytes at a fixed absolute offset, used by
// the Frontend to rewrite reserved header/footer fields in place
// (spec §4.4). It does not affect Size.
func (f *File) WriteAt(p []byte, offset int64) error {
	for len(p) > 0 {
		n, err := unix.Pwrite(f.fd, p, offset)
		if err != nil {
			return fmt.Errorf("backend: pwrite to %q at offset %d: %w", f.path, offset, err)
		}
		p = p[n:]
		offset += int64(n)
	}
	return nil
}

// Size returns the number of bytes written so far.
func (f *File) Size() int64 {
	return f.size
}

// Path returns the file's current path (outputDir/log.bin until
// Rotate renames it).
func (f *File) Path() string {
	return f.path
}

// Sync flushes the file to stable storage (spec §4.3: "on close,
// fsync the file").
func (f *File) Sync() error {
	if err := unix.Fsync(f.fd); err != nil {
		return fmt.Errorf("backend: fsyncing %q: %w", f.path, err)
	}
	return nil
}

// Close closes the file descriptor. Callers should Sync first.
func (f *File) Close() error {
	if err := unix.Close(f.fd); err != nil {
		return fmt.Errorf("backend: closing %q: %w", f.path, err)
	}
	return nil
}
