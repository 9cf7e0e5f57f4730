/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"strings"
	"testing"
	"time"
)

// labels is a tiny document the tests undo against.
type labels map[int]string

func (l labels) apply(project int64) func(Entry) Entry {
	return func(e Entry) Entry {
		back := Entry{Project: project, Segment: e.Segment, Label: l[e.Segment], TS: e.TS}
		l[e.Segment] = e.Label
		return back
	}
}

func TestUndoRedoRestoresLabels(t *testing.T) {
	h := New(Config{MinInterval: 10 * time.Millisecond})
	doc := labels{0: "a"}
	t0 := time.Now()

	h.Record(Entry{Project: 1, Segment: 0, Label: doc[0], TS: t0})
	doc[0] = "b"
	h.Record(Entry{Project: 1, Segment: 0, Label: doc[0], TS: t0.Add(20 * time.Millisecond)})
	doc[0] = "c"

	if !h.Undo(1, doc.apply(1)) || doc[0] != "b" {
		t.Fatalf("first undo: %q", doc[0])
	}
	if !h.Undo(1, doc.apply(1)) || doc[0] != "a" {
		t.Fatalf("second undo: %q", doc[0])
	}
	if h.Undo(1, doc.apply(1)) {
		t.Fatal("nothing left to undo")
	}
	if !h.Redo(1, doc.apply(1)) || doc[0] != "b" {
		t.Fatalf("redo: %q", doc[0])
	}
	if !h.Redo(1, doc.apply(1)) || doc[0] != "c" {
		t.Fatalf("second redo: %q", doc[0])
	}
}

func TestCoalesceKeepsOldestValue(t *testing.T) {
	h := New(Config{MinInterval: 50 * time.Millisecond})
	t0 := time.Now()
	h.Record(Entry{Project: 2, Segment: 3, Label: "h", TS: t0})
	h.Record(Entry{Project: 2, Segment: 3, Label: "he", TS: t0.Add(10 * time.Millisecond)})
	h.Record(Entry{Project: 2, Segment: 3, Label: "hel", TS: t0.Add(20 * time.Millisecond)})
	if _, _, n := h.Stats(); n != 1 {
		t.Fatalf("expected one coalesced entry, got %d", n)
	}
	doc := labels{3: "hell"}
	h.Undo(2, doc.apply(2))
	if doc[3] != "h" {
		t.Fatalf("undo should restore the value before the burst, got %q", doc[3])
	}
}

func TestOtherSegmentDoesNotCoalesce(t *testing.T) {
	h := New(Config{MinInterval: time.Hour})
	t0 := time.Now()
	h.Record(Entry{Project: 1, Segment: 0, Label: "x", TS: t0})
	h.Record(Entry{Project: 1, Segment: 1, Label: "y", TS: t0})
	if _, _, n := h.Stats(); n != 2 {
		t.Fatalf("entries = %d", n)
	}
}

func TestNewEditClearsRedo(t *testing.T) {
	h := New(Config{MinInterval: time.Millisecond})
	doc := labels{0: "b"}
	t0 := time.Now()
	h.Record(Entry{Project: 1, Segment: 0, Label: "a", TS: t0})
	h.Undo(1, doc.apply(1))
	h.Record(Entry{Project: 1, Segment: 0, Label: "a", TS: t0.Add(time.Second)})
	if h.Redo(1, doc.apply(1)) {
		t.Fatal("redo should be gone after a new edit")
	}
}

func TestCaps(t *testing.T) {
	h := New(Config{MaxBytes: 20, MaxPerProject: 2, MinInterval: time.Millisecond})
	t0 := time.Now()
	for i := 0; i < 10; i++ {
		h.Record(Entry{Project: 3, Segment: i, Label: "xxxxx", TS: t0.Add(time.Duration(i) * time.Millisecond)})
	}
	if _, _, n := h.Stats(); n != 2 {
		t.Fatalf("expected MaxPerProject cap to limit to 2, got %d", n)
	}

	h = New(Config{MaxBytes: 12, MaxPerProject: 100, MinInterval: time.Millisecond})
	for i := 0; i < 5; i++ {
		h.Record(Entry{Project: int64(i), Segment: 0, Label: "xxxxx", TS: t0.Add(time.Duration(i) * time.Millisecond)})
	}
	total, projects, _ := h.Stats()
	if total > 12 || projects != 2 {
		t.Fatalf("expected byte cap to prune oldest, got total=%d projects=%d", total, projects)
	}
}

func TestClear(t *testing.T) {
	h := New(Config{})
	h.Record(Entry{Project: 1, Segment: 0, Label: "abc", TS: time.Now()})
	if !h.CanUndo(1) {
		t.Fatal("expected undoable entry")
	}
	h.Clear(1)
	if total, projects, _ := h.Stats(); total != 0 || projects != 0 || h.CanUndo(1) {
		t.Fatalf("clear left total=%d projects=%d", total, projects)
	}
}

func TestDiscardedRedoReleasesBytes(t *testing.T) {
	h := New(Config{MaxBytes: 1000, MinInterval: time.Millisecond})
	long := strings.Repeat("x", 100)
	doc := labels{0: long}
	t0 := time.Now()
	for i := 0; i < 10; i++ {
		h.Record(Entry{Project: 1, Segment: 0, Label: long, TS: t0.Add(time.Duration(i) * time.Second)})
		if !h.Undo(1, doc.apply(1)) {
			t.Fatalf("cycle %d: nothing to undo", i)
		}
	}
	h.Record(Entry{Project: 1, Segment: 0, Label: "a", TS: t0.Add(time.Minute)})
	h.Record(Entry{Project: 1, Segment: 1, Label: "b", TS: t0.Add(time.Minute)})
	total, _, entries := h.Stats()
	if total != 2 || entries != 2 {
		t.Fatalf("total=%d entries=%d, want 2 and 2", total, entries)
	}
}
