// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package frontend

import "fmt"

// CheckLimits evaluates the space/quota/size policy (spec §4.4) and
// reports the CloseReason the caller should close the current session
// with, if any. The scheduler calls this after every flush.
//
// Order of checks matches spec §4.4: size first (cheapest, no syscall),
// then free space, then used-space quota.
func (f *Frontend) CheckLimits() (CloseReason, bool, error) {
	if f.state != StateOpen {
		return CloseUnknown, false, nil
	}

	if f.cfg.MaxLogSize > 0 && f.file.Size() >= f.cfg.MaxLogSize {
		return CloseFileTooBig, true, nil
	}

	if f.cfg.SpaceChecker == nil {
		return CloseUnknown, false, nil
	}

	reservedSpace := int64(0)
	if f.state == StateOpen {
		reservedSpace = f.cfg.MinLogSize
	}

	if f.cfg.MinFreeSpace > 0 {
		free, err := f.cfg.SpaceChecker.FreeBytes(f.cfg.OutputDir)
		if err != nil {
			return CloseUnknown, false, fmt.Errorf("frontend: checking free space: %w", err)
		}
		if free < f.cfg.MinFreeSpace+reservedSpace {
			return CloseNoSpaceLeft, true, nil
		}
	}

	if f.cfg.MaxUsedSpace > 0 {
		used, err := f.cfg.SpaceChecker.UsedBytes(f.cfg.OutputDir)
		if err != nil {
			return CloseUnknown, false, fmt.Errorf("frontend: checking used space: %w", err)
		}
		if used+f.file.Size()+reservedSpace > f.cfg.MaxUsedSpace {
			return CloseQuotaReached, true, nil
		}
	}

	return CloseUnknown, false, nil
}

// RemoveSizeFor reports how many bytes a rotation driver should pass
// as Evict's removeSize target to clear the condition CheckLimits just
// reported (spec §4.3 "remove until back under the threshold", §4.4).
// It is meaningless for reasons other than CloseNoSpaceLeft and
// CloseQuotaReached, for which it returns 0. Must be called before the
// current file is closed, since CloseQuotaReached accounts for the
// current file's own size.
func (f *Frontend) RemoveSizeFor(reason CloseReason) (int64, error) {
	switch reason {
	case CloseNoSpaceLeft:
		free, err := f.cfg.SpaceChecker.FreeBytes(f.cfg.OutputDir)
		if err != nil {
			return 0, fmt.Errorf("frontend: checking free space: %w", err)
		}
		need := f.cfg.MinFreeSpace + f.cfg.MinLogSize - free
		if need < 0 {
			need = 0
		}
		return need, nil

	case CloseQuotaReached:
		used, err := f.cfg.SpaceChecker.UsedBytes(f.cfg.OutputDir)
		if err != nil {
			return 0, fmt.Errorf("frontend: checking used space: %w", err)
		}
		over := used + f.Size() + f.cfg.MinLogSize - f.cfg.MaxUsedSpace
		if over < 0 {
			over = 0
		}
		return over, nil

	default:
		return 0, nil
	}
}

// CanOpen reports whether there is enough free space to safely open a
// new session (spec §4.4: "if free space is already below the
// threshold, do not open a new file at all").
func (f *Frontend) CanOpen() (bool, error) {
	if f.cfg.SpaceChecker == nil || f.cfg.MinFreeSpace <= 0 {
		return true, nil
	}
	free, err := f.cfg.SpaceChecker.FreeBytes(f.cfg.OutputDir)
	if err != nil {
		return false, fmt.Errorf("frontend: checking free space before open: %w", err)
	}
	return free >= f.cfg.MinFreeSpace+f.cfg.MinLogSize, nil
}
