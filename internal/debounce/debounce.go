/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package debounce delays an action until a quiet period has passed since the last trigger.
package debounce

import (
	"sync"
	"time"
)

// Timer is the subset of *time.Timer the Debouncer needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it through StdAfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

// StdAfterFunc wraps time.AfterFunc.
func StdAfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Debouncer holds at most one pending action. Trigger cancels any pending action and
// schedules the new one; only the last action of a burst runs.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	after   AfterFunc
	timer   Timer
	pending func()
	seq     uint64
}

// New returns a Debouncer using real timers.
func New(delay time.Duration) *Debouncer { return NewWithClock(delay, StdAfterFunc) }

// NewWithClock lets tests drive time.
func NewWithClock(delay time.Duration, after AfterFunc) *Debouncer {
	return &Debouncer{delay: delay, after: after}
}

// Trigger replaces the pending action with f and restarts the quiet period.
func (d *Debouncer) Trigger(f func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.pending = f
	d.timer = d.after(d.delay, func() { d.fire(seq) })
}

func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	if seq != d.seq || d.pending == nil {
		// superseded after the timer already fired
		d.mu.Unlock()
		return
	}
	f := d.pending
	d.pending, d.timer = nil, nil
	d.mu.Unlock()
	f()
}

// Flush runs the pending action now, on the caller's goroutine. It reports whether one ran.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	f := d.pending
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending, d.timer = nil, nil
	d.seq++
	d.mu.Unlock()
	if f == nil {
		return false
	}
	f()
	return true
}

// Cancel drops the pending action without running it.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending, d.timer = nil, nil
	d.seq++
}

// Pending reports whether an action is waiting.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}
