// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time so the Recorder's scheduler (spec §4.5
// round-robin polling deadlines), the Frontend's rotation/space-check
// cadence, and the Backend's retention sweeps can be driven
// deterministically in tests rather than by sleeping on the wall clock.
//
// Production code accepts a Clock parameter instead of calling
// time.Now, time.After, time.NewTicker, time.AfterFunc, or time.Sleep
// directly. Real() wraps the standard library; Fake() gives tests a
// clock that only moves when Advance is called.
//
// # Wiring pattern
//
//	type Scheduler struct {
//	    clock clock.Clock
//	}
//
//	s := &Scheduler{clock: clock.Real()} // production
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	s := &Scheduler{clock: c} // tests
//	// ... start the poll loop in a goroutine ...
//	c.WaitForTimers(1)         // wait for it to arm its next deadline
//	c.Advance(200 * time.Millisecond) // fire that deadline deterministically
//
// # FakeClock synchronization
//
// Sleep, After, NewTicker, and AfterFunc on a FakeClock each register a
// pending waiter rather than touching the wall clock. WaitForTimers
// blocks until a given number of waiters are registered, closing the
// race between a goroutine arming a timer and the test advancing past
// it.
package clock
