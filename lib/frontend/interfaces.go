// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package frontend

import "github.com/aerologic/flightrecorder/lib/container"

// PropertySource supplies the fixed ordered list of system property
// keys and their current values for the header record (spec §4.4).
// Property stores are an external collaborator (spec §1) — this core
// only consumes the interface.
type PropertySource interface {
	SystemProperties() []container.Pair
}

// LogIdxManager persists a lifetime-monotone file-index counter
// across process runs (spec §4.3, §6.2). An external collaborator.
type LogIdxManager interface {
	GetIndex() (int, error)
	SetIndex(int) error
	GetIndexStr() (string, error)
}

// SpaceChecker reports filesystem free space and the bytes already
// used by this Recorder's logs, for the space/quota policy (spec
// §4.4).
type SpaceChecker interface {
	FreeBytes(outputDir string) (int64, error)
	UsedBytes(outputDir string) (int64, error)
}
