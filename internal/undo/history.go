/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package undo keeps per-project undo/redo stacks of segment label edits.
package undo

import (
	"sync"
	"time"
)

// Entry is one reversible label value: applying it sets Segment of Project back to Label.
// TS is when the edit was recorded.
type Entry struct {
	Project int64
	Segment int
	Label   string
	TS      time.Time
}

func (e Entry) size() int { return len(e.Label) }

// Config controls memory and depth caps and coalescing behavior.
type Config struct {
	// MaxBytes is a soft cap over all label text kept; oldest entries are pruned first.
	MaxBytes int
	// MaxPerProject limits the depth of each project's undo stack (0 means unlimited).
	MaxPerProject int
	// MinInterval coalesces edits to the same segment recorded within the interval, so one
	// burst of typing undoes as a whole.
	MinInterval time.Duration
}

// History provides an in-memory undo/redo stack per project. It is safe for concurrent use.
type History struct {
	cfg  Config
	mu   sync.Mutex
	undo map[int64][]Entry
	redo map[int64][]Entry
	// accounting
	totalBytes int
}

func New(cfg Config) *History {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 4 * 1024 * 1024
	}
	if cfg.MaxPerProject <= 0 {
		cfg.MaxPerProject = 200
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = time.Second
	}
	return &History{cfg: cfg, undo: make(map[int64][]Entry), redo: make(map[int64][]Entry)}
}

// Record stores the value a segment had before an edit. Within MinInterval of the previous
// edit to the same segment the older value is kept and only its timestamp moves on.
// Any new edit invalidates redo for the project.
func (h *History) Record(e Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.redo[e.Project] {
		h.totalBytes -= r.size()
	}
	delete(h.redo, e.Project)
	stack := h.undo[e.Project]
	if n := len(stack); n > 0 {
		last := &stack[n-1]
		if last.Segment == e.Segment && e.TS.Sub(last.TS) < h.cfg.MinInterval {
			last.TS = e.TS
			return
		}
	}
	h.undo[e.Project] = append(stack, e)
	h.totalBytes += e.size()
	h.enforceCapsLocked(e.Project)
}

// Undo pops the latest entry of project and hands it to apply, which restores it and returns
// the entry describing the value it replaced. That entry becomes redoable.
func (h *History) Undo(project int64, apply func(Entry) Entry) bool {
	return h.move(project, h.undo, h.redo, apply)
}

// Redo reverses the latest Undo of project.
func (h *History) Redo(project int64, apply func(Entry) Entry) bool {
	return h.move(project, h.redo, h.undo, apply)
}

func (h *History) move(project int64, from, to map[int64][]Entry, apply func(Entry) Entry) bool {
	h.mu.Lock()
	stack := from[project]
	if len(stack) == 0 {
		h.mu.Unlock()
		return false
	}
	e := stack[len(stack)-1]
	from[project] = stack[:len(stack)-1]
	h.totalBytes -= e.size()
	h.mu.Unlock()

	back := apply(e)

	h.mu.Lock()
	defer h.mu.Unlock()
	to[project] = append(to[project], back)
	h.totalBytes += back.size()
	h.enforceCapsLocked(project)
	return true
}

// CanUndo reports whether project has entries to undo.
func (h *History) CanUndo(project int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo[project]) > 0
}

// Clear drops both stacks of a project to free memory.
func (h *History) Clear(project int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, e := range h.undo[project] {
		h.totalBytes -= e.size()
	}
	for _, e := range h.redo[project] {
		h.totalBytes -= e.size()
	}
	delete(h.undo, project)
	delete(h.redo, project)
	if h.totalBytes < 0 {
		h.totalBytes = 0
	}
}

// Stats returns current sizes for diagnostics.
func (h *History) Stats() (totalBytes int, projects int, entries int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	projects = len(h.undo)
	for _, v := range h.undo {
		entries += len(v)
	}
	return h.totalBytes, projects, entries
}

func (h *History) enforceCapsLocked(project int64) {
	// Per-project depth cap
	if stack := h.undo[project]; len(stack) > h.cfg.MaxPerProject {
		toDrop := len(stack) - h.cfg.MaxPerProject
		for i := 0; i < toDrop; i++ {
			h.totalBytes -= stack[i].size()
		}
		h.undo[project] = append([]Entry{}, stack[toDrop:]...)
	}
	// Global memory cap: prune oldest across all projects
	for h.totalBytes > h.cfg.MaxBytes {
		var (
			oldest   int64
			found    bool
			oldestTS time.Time
		)
		for p, stack := range h.undo {
			if len(stack) == 0 {
				continue
			}
			if !found || stack[0].TS.Before(oldestTS) {
				oldest, oldestTS, found = p, stack[0].TS, true
			}
		}
		if !found {
			break
		}
		stack := h.undo[oldest]
		h.totalBytes -= stack[0].size()
		h.undo[oldest] = stack[1:]
		if len(h.undo[oldest]) == 0 {
			delete(h.undo, oldest)
		}
	}
}
