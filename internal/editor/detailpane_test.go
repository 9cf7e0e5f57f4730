/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package editor

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"transcribeer/internal/domain"
)

func loaded(t *testing.T, n int) (*harness, int64) {
	t.Helper()
	h := newHarness(t)
	h.unlock(t)
	id := h.seed(t, "P", segments(n))
	if err := h.app.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return h, id
}

func TestLabelEditsWithinQuietPeriodWriteOnce(t *testing.T) {
	h, id := loaded(t, 3)
	d := h.app.Detail
	if err := d.SetLabel(id, 1, "fir"); err != nil {
		t.Fatal(err)
	}
	h.clock.Advance(400 * time.Millisecond)
	if err := d.SetLabel(id, 1, "first"); err != nil {
		t.Fatal(err)
	}
	h.clock.Advance(999 * time.Millisecond)
	if n := len(h.store.Updates()); n != 0 {
		t.Fatalf("wrote before quiet period: %d", n)
	}
	h.clock.Advance(time.Millisecond)
	ups := h.store.Updates()
	if len(ups) != 1 || ups[0].Data == nil || ups[0].Name != nil {
		t.Fatalf("updates = %+v", ups)
	}
	if got := (*ups[0].Data)[1].Label; got != "first" {
		t.Fatalf("written label = %q", got)
	}
	p, _ := h.store.Get(context.Background(), id)
	if p.Data[1].Label != "first" {
		t.Fatalf("stored label = %q", p.Data[1].Label)
	}
}

func TestNameAndDataDebounceIndependently(t *testing.T) {
	h, id := loaded(t, 1)
	d := h.app.Detail
	_ = d.SetName(id, "N")
	_ = d.SetLabel(id, 0, "L")
	h.clock.Advance(time.Second)
	ups := h.store.Updates()
	if len(ups) != 2 {
		t.Fatalf("updates = %d, want 2", len(ups))
	}
}

func TestEditsWithoutProjectAreNotPersisted(t *testing.T) {
	h := newHarness(t)
	_ = h.app.Detail.SetName(-1, "ghost")
	h.clock.Advance(time.Hour)
	if len(h.store.Updates()) != 0 || h.app.Detail.HasPendingSaves() {
		t.Fatalf("edit without project persisted")
	}
	if err := h.app.Detail.SetLabel(-1, 0, "x"); err == nil {
		t.Fatalf("expected out-of-range error")
	}
}

func TestSwitchingProjectFlushesToPreviousID(t *testing.T) {
	h := newHarness(t)
	h.unlock(t)
	a := h.seed(t, "A", segments(1))
	b := h.seed(t, "B", segments(1))
	_ = h.app.Initialize(context.Background())
	_ = h.app.Detail.SetLabel(a, 0, "edited in A")
	if err := h.app.SelectProject(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	h.clock.Advance(time.Hour)
	pa, _ := h.store.Get(context.Background(), a)
	pb, _ := h.store.Get(context.Background(), b)
	if pa.Data[0].Label != "edited in A" || pb.Data[0].Label != "seg" {
		t.Fatalf("A=%q B=%q", pa.Data[0].Label, pb.Data[0].Label)
	}
	if n := len(h.store.Updates()); n != 1 {
		t.Fatalf("updates = %d, want 1", n)
	}
}

func TestEditForReplacedProjectIsRejected(t *testing.T) {
	h := newHarness(t)
	h.unlock(t)
	a := h.seed(t, "A", segments(1))
	b := h.seed(t, "B", segments(1))
	_ = h.app.Initialize(context.Background())
	if err := h.app.SelectProject(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	if err := h.app.Detail.SetLabel(a, 0, "late keystroke"); !errors.Is(err, ErrProjectChanged) {
		t.Fatalf("SetLabel err = %v", err)
	}
	if err := h.app.Detail.SetName(a, "late name"); !errors.Is(err, ErrProjectChanged) {
		t.Fatalf("SetName err = %v", err)
	}
	h.clock.Advance(time.Hour)
	pb, _ := h.store.Get(context.Background(), b)
	if pb.Name != "B" || pb.Data[0].Label != "seg" {
		t.Fatalf("B = %q %q", pb.Name, pb.Data[0].Label)
	}
	if st := h.app.Detail.State(); st.Name != "B" {
		t.Fatalf("in-memory name = %q", st.Name)
	}
	if n := len(h.store.Updates()); n != 0 {
		t.Fatalf("updates = %d, want 0", n)
	}
}

func TestRenameWritesAtOnceAndReportsFailure(t *testing.T) {
	h, id := loaded(t, 1)
	d := h.app.Detail
	_ = d.SetName(id, "typed")
	if err := d.Rename(context.Background(), id, "Interview"); err != nil {
		t.Fatal(err)
	}
	if d.HasPendingSaves() {
		t.Fatal("debounced name write still pending")
	}
	if names := h.app.Projects.Names(); names[0] != "Interview" {
		t.Fatalf("names = %q", names)
	}

	h.store.failUpd = errors.New("disk full")
	if err := d.Rename(context.Background(), id, "Other"); err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("err = %v", err)
	}
	if st := d.State(); st.Name != "Interview" {
		t.Fatalf("name after failed rename = %q", st.Name)
	}
	if len(h.notifier.Alerts()) != 0 {
		t.Fatalf("alerts = %q", h.notifier.Alerts())
	}
}

func TestRemoveDropsPendingEdits(t *testing.T) {
	h, id := loaded(t, 1)
	_ = h.app.Detail.SetName(id, "doomed")
	if _, err := h.app.Detail.RemoveProject(context.Background()); err != nil {
		t.Fatal(err)
	}
	h.clock.Advance(time.Hour)
	if n := len(h.store.Updates()); n != 0 {
		t.Fatalf("pending edit written after delete: %d", n)
	}
	if len(h.notifier.Alerts()) != 0 {
		t.Fatalf("alerts = %q", h.notifier.Alerts())
	}
}

func TestPaginationClampsAndStopsAudio(t *testing.T) {
	h, _ := loaded(t, 45)
	d := h.app.Detail
	st := d.State()
	if st.PageCount != 3 || len(st.Rows) != PageSize || st.Rows[0].Index != 0 {
		t.Fatalf("page 0 = %+v", st)
	}
	if err := d.PlayOrToggle(3); err != nil {
		t.Fatal(err)
	}
	d.SetPage(2)
	st = d.State()
	if st.Page != 2 || len(st.Rows) != 5 || st.Rows[0].Index != 40 {
		t.Fatalf("page 2 = page %d rows %d first %d", st.Page, len(st.Rows), st.Rows[0].Index)
	}
	if st.Playing != -1 || len(h.player.Active()) != 0 {
		t.Fatalf("page change did not stop audio")
	}
	d.SetPage(99)
	if d.State().Page != 2 {
		t.Fatalf("page not clamped high")
	}
	d.SetPage(-4)
	if d.State().Page != 0 {
		t.Fatalf("page not clamped low")
	}
}

func TestPlayOrToggleSameIndexStops(t *testing.T) {
	h, _ := loaded(t, 3)
	d := h.app.Detail
	if err := d.PlayOrToggle(1); err != nil {
		t.Fatal(err)
	}
	if d.Playing() != 1 || len(h.player.Active()) != 1 {
		t.Fatalf("not playing")
	}
	if err := d.PlayOrToggle(1); err != nil {
		t.Fatal(err)
	}
	if d.Playing() != -1 || len(h.player.Active()) != 0 {
		t.Fatalf("second toggle left audio playing")
	}
}

func TestPlayOrToggleSwitchesClip(t *testing.T) {
	h, _ := loaded(t, 3)
	d := h.app.Detail
	_ = d.PlayOrToggle(0)
	_ = d.PlayOrToggle(2)
	active := h.player.Active()
	if d.Playing() != 2 || len(active) != 1 || active[0] != h.player.plays[1] {
		t.Fatalf("playing=%d active=%d", d.Playing(), len(active))
	}
	if !h.player.plays[0].Stopped() {
		t.Fatalf("first clip still playing")
	}
}

func TestNaturalEndClearsOnlyOwnPlayback(t *testing.T) {
	h, _ := loaded(t, 3)
	d := h.app.Detail
	_ = d.PlayOrToggle(0)
	first := h.player.plays[0]
	_ = d.PlayOrToggle(1)
	// the stale completion of clip 0 must not clear clip 1
	first.Stop()
	time.Sleep(20 * time.Millisecond)
	if d.Playing() != 1 {
		t.Fatalf("stale completion cleared playing index: %d", d.Playing())
	}
	h.player.plays[1].Stop()
	deadline := time.Now().Add(5 * time.Second)
	for d.Playing() != -1 {
		if time.Now().After(deadline) {
			t.Fatalf("natural end not observed")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPlayRejectsBadClip(t *testing.T) {
	h := newHarness(t)
	h.unlock(t)
	h.seed(t, "P", []domain.Segment{{Audio: "", Label: "silent"}})
	_ = h.app.Initialize(context.Background())
	if err := h.app.Detail.PlayOrToggle(0); err == nil {
		t.Fatalf("expected error for empty clip")
	}
	if err := h.app.Detail.PlayOrToggle(5); err == nil {
		t.Fatalf("expected out-of-range error")
	}
}

func TestRouteStopsPlayback(t *testing.T) {
	h := newHarness(t)
	h.unlock(t)
	h.seed(t, "A", segments(2))
	h.seed(t, "B", segments(2))
	_ = h.app.Initialize(context.Background())
	_ = h.app.Detail.PlayOrToggle(1)
	h.app.Detail.SetPage(0)
	_ = h.app.Detail.PlayOrToggle(1)
	if err := h.app.SelectProject(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	if h.app.Detail.Playing() != -1 || len(h.player.Active()) != 0 {
		t.Fatalf("playback survived project switch")
	}
}

func TestDownloads(t *testing.T) {
	h := newHarness(t)
	h.unlock(t)
	h.seed(t, "Doc", []domain.Segment{{Audio: "AAAA", Label: "a b"}, {Audio: "BBBB", Label: ""}})
	_ = h.app.Initialize(context.Background())
	d := h.app.Detail

	var buf bytes.Buffer
	if err := d.DownloadAsJSON(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != `[{"audio":"AAAA","label":"a b"},{"audio":"BBBB","label":""}]` {
		t.Fatalf("json = %s", buf.String())
	}
	buf.Reset()
	if err := d.DownloadAsDocument(&buf); err != nil {
		t.Fatal(err)
	}
	if strings.Count(buf.String(), "<p>") != 1 || !strings.Contains(buf.String(), "<p>a&nbsp;b</p>") {
		t.Fatalf("html = %s", buf.String())
	}
	d.SetWithBreaks(false)
	buf.Reset()
	_ = d.DownloadAsDocument(&buf)
	if strings.Contains(buf.String(), "<p>") || !strings.Contains(buf.String(), "a&nbsp;b&nbsp;") {
		t.Fatalf("html without breaks = %s", buf.String())
	}
	buf.Reset()
	if err := d.DownloadAsPDF(&buf); err != nil || !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("pdf: %v", err)
	}
}

func TestDownloadsWithoutProject(t *testing.T) {
	h := newHarness(t)
	var buf bytes.Buffer
	if err := h.app.Detail.DownloadAsJSON(&buf); !errors.Is(err, ErrNoProject) {
		t.Fatalf("err = %v", err)
	}
	if _, err := h.app.Detail.SubmitForTraining(context.Background()); !errors.Is(err, ErrNoProject) {
		t.Fatalf("err = %v", err)
	}
	if _, err := h.app.Detail.RemoveProject(context.Background()); !errors.Is(err, ErrNoProject) {
		t.Fatalf("err = %v", err)
	}
}

func TestSubmitForTraining(t *testing.T) {
	h, _ := loaded(t, 2)
	d := h.app.Detail
	h.notifier.answer = false
	sent, err := d.SubmitForTraining(context.Background())
	if err != nil || sent || len(h.tx.submitted) != 0 {
		t.Fatalf("declined submit sent=%v err=%v", sent, err)
	}
	if h.notifier.confirms[0] != MsgConfirmTraining {
		t.Fatalf("confirm = %q", h.notifier.confirms[0])
	}
	h.notifier.answer = true
	sent, err = d.SubmitForTraining(context.Background())
	if err != nil || !sent || len(h.tx.submitted) != 1 || len(h.tx.submitted[0]) != 2 {
		t.Fatalf("submit sent=%v err=%v submitted=%d", sent, err, len(h.tx.submitted))
	}
	h.tx.submitErr = errors.New("offline")
	if _, err := d.SubmitForTraining(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if alerts := h.notifier.Alerts(); len(alerts) != 1 || !strings.HasPrefix(alerts[0], MsgTrainingFailed) {
		t.Fatalf("alerts = %q", alerts)
	}
	if len(h.store.Updates()) != 0 {
		t.Fatalf("submission changed local state")
	}
}

func TestUndoRedoLabelEdits(t *testing.T) {
	h, id := loaded(t, 25)
	d := h.app.Detail
	if d.Undo() {
		t.Fatal("nothing to undo yet")
	}
	if err := d.SetLabel(id, 1, "a"); err != nil {
		t.Fatal(err)
	}
	if err := d.SetLabel(id, 22, "b"); err != nil {
		t.Fatal(err)
	}

	if !d.Undo() {
		t.Fatal("expected undo")
	}
	st := d.State()
	if d.Segments()[22].Label != "seg" || st.Page != 1 {
		t.Fatalf("after first undo: label=%q page=%d", d.Segments()[22].Label, st.Page)
	}
	if !d.Undo() || d.Segments()[1].Label != "seg" || d.State().Page != 0 {
		t.Fatalf("after second undo: %+v", d.Segments()[1])
	}
	if d.Undo() {
		t.Fatal("history should be empty")
	}
	if !d.Redo() || d.Segments()[1].Label != "a" {
		t.Fatalf("redo: %+v", d.Segments()[1])
	}

	h.clock.Advance(time.Second)
	p, _ := h.store.Get(context.Background(), id)
	if p.Data[1].Label != "a" || p.Data[22].Label != "seg" {
		t.Fatalf("stored labels %q %q", p.Data[1].Label, p.Data[22].Label)
	}
}
