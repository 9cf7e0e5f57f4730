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
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"transcribeer/internal/audio"
	"transcribeer/internal/debounce"
	"transcribeer/internal/domain"
	"transcribeer/internal/export"
	applog "transcribeer/internal/log"
	"transcribeer/internal/projectfile"
	"transcribeer/internal/storage"
	"transcribeer/internal/undo"
)

// PageSize is the number of segments shown per page.
const PageSize = 20

// saveTimeout bounds a single debounced store write.
const saveTimeout = 10 * time.Second

// Row is one visible segment with its absolute index in the project.
type Row struct {
	Index int
	domain.Segment
}

// DetailState is a consistent snapshot for rendering.
type DetailState struct {
	ProjectID  int64
	Name       string
	Page       int
	PageCount  int
	Playing    int
	WithBreaks bool
	Rows       []Row
	Total      int
}

// Empty reports whether no project is loaded.
func (s DetailState) Empty() bool { return s.ProjectID < 0 }

// DetailPane holds one project's segments and owns their debounced persistence.
type DetailPane struct {
	mu         sync.Mutex
	projectID  int64
	name       string
	data       []domain.Segment
	page       int
	playing    int
	playback   audio.Playback
	withBreaks bool

	store    storage.Store
	player   audio.Player
	tx       Transcriber
	notifier Notifier
	nameDeb  *debounce.Debouncer
	dataDeb  *debounce.Debouncer
	history  *undo.History
	l        *slog.Logger

	// OnNameSaved fires after a debounced name write reached the store.
	OnNameSaved func(id int64)
	// OnDeleted fires after RemoveProject deleted the row.
	OnDeleted func(id int64)
	onChange  func()
}

type detailDeps struct {
	store    storage.Store
	player   audio.Player
	tx       Transcriber
	notifier Notifier
	delay    time.Duration
	after    debounce.AfterFunc
	onChange func()
}

func newDetailPane(d detailDeps) *DetailPane {
	after := d.after
	if after == nil {
		after = debounce.StdAfterFunc
	}
	return &DetailPane{
		projectID:  -1,
		playing:    -1,
		withBreaks: true,
		store:      d.store,
		player:     d.player,
		tx:         d.tx,
		notifier:   d.notifier,
		nameDeb:    debounce.NewWithClock(d.delay, after),
		dataDeb:    debounce.NewWithClock(d.delay, after),
		history:    undo.New(undo.Config{MinInterval: d.delay}),
		l:          applog.WithComponent("detail"),
		onChange:   d.onChange,
	}
}

func (d *DetailPane) changed() {
	if d.onChange != nil {
		d.onChange()
	}
}

func pageCount(n int) int { return (n + PageSize - 1) / PageSize }

// State returns a snapshot of the current page.
func (d *DetailPane) State() DetailState {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := DetailState{
		ProjectID:  d.projectID,
		Name:       d.name,
		Page:       d.page,
		PageCount:  pageCount(len(d.data)),
		Playing:    d.playing,
		WithBreaks: d.withBreaks,
		Total:      len(d.data),
	}
	start := d.page * PageSize
	end := min(start+PageSize, len(d.data))
	for i := start; i < end; i++ {
		s.Rows = append(s.Rows, Row{Index: i, Segment: d.data[i]})
	}
	return s
}

// Segments returns a copy of the loaded data.
func (d *DetailPane) Segments() []domain.Segment {
	d.mu.Lock()
	defer d.mu.Unlock()
	return domain.CloneSegments(d.data)
}

// Load flushes pending saves of the previous project, stops playback and shows p from page 0.
func (d *DetailPane) Load(p domain.Project) {
	d.Flush()
	d.mu.Lock()
	d.stopLocked()
	d.projectID, d.name, d.data, d.page = p.ID, p.Name, domain.CloneSegments(p.Data), 0
	d.mu.Unlock()
	d.changed()
}

// Clear shows the empty state.
func (d *DetailPane) Clear() {
	d.Flush()
	d.mu.Lock()
	d.stopLocked()
	d.projectID, d.name, d.data, d.page = -1, "", nil, 0
	d.mu.Unlock()
	d.changed()
}

// SetPage switches page (clamped) and stops playback.
func (d *DetailPane) SetPage(p int) {
	d.mu.Lock()
	d.stopLocked()
	last := pageCount(len(d.data)) - 1
	d.page = max(0, min(p, last))
	d.mu.Unlock()
	d.changed()
}

func (d *DetailPane) SetWithBreaks(v bool) {
	d.mu.Lock()
	d.withBreaks = v
	d.mu.Unlock()
	d.changed()
}

// SetLabel updates segment index of project id in memory and schedules a data write after
// the quiet period. It returns ErrProjectChanged when id is no longer the loaded project.
func (d *DetailPane) SetLabel(id int64, index int, text string) error {
	d.mu.Lock()
	if id != d.projectID {
		d.mu.Unlock()
		return ErrProjectChanged
	}
	if index < 0 || index >= len(d.data) {
		d.mu.Unlock()
		return fmt.Errorf("segment %d out of range", index)
	}
	if prev := d.data[index].Label; prev != text && id >= 0 {
		d.history.Record(undo.Entry{Project: id, Segment: index, Label: prev, TS: time.Now()})
	}
	d.data[index].Label = text
	snapshot := domain.CloneSegments(d.data)
	d.mu.Unlock()
	if id >= 0 {
		d.dataDeb.Trigger(func() { d.saveData(id, snapshot) })
	}
	return nil
}

// SetName updates the name of project id in memory and schedules a name write after the
// quiet period. It returns ErrProjectChanged when id is no longer the loaded project.
func (d *DetailPane) SetName(id int64, name string) error {
	d.mu.Lock()
	if id != d.projectID {
		d.mu.Unlock()
		return ErrProjectChanged
	}
	d.name = name
	d.mu.Unlock()
	if id >= 0 {
		d.nameDeb.Trigger(func() { d.saveName(id, name) })
	}
	return nil
}

// Undo reverts the latest label edit of the loaded project and shows its page.
// It reports whether there was anything to undo.
func (d *DetailPane) Undo() bool { return d.step(d.history.Undo) }

// Redo re-applies the latest undone label edit.
func (d *DetailPane) Redo() bool { return d.step(d.history.Redo) }

func (d *DetailPane) step(move func(int64, func(undo.Entry) undo.Entry) bool) bool {
	d.mu.Lock()
	id := d.projectID
	d.mu.Unlock()
	if id < 0 {
		return false
	}
	var snapshot []domain.Segment
	ok := move(id, func(e undo.Entry) undo.Entry {
		d.mu.Lock()
		defer d.mu.Unlock()
		back := e
		if d.projectID != e.Project || e.Segment >= len(d.data) {
			return back
		}
		back.Label = d.data[e.Segment].Label
		d.data[e.Segment].Label = e.Label
		if p := e.Segment / PageSize; p != d.page {
			d.stopLocked()
			d.page = p
		}
		snapshot = domain.CloneSegments(d.data)
		return back
	})
	if !ok {
		return false
	}
	if snapshot != nil {
		d.dataDeb.Trigger(func() { d.saveData(id, snapshot) })
	}
	d.changed()
	return true
}

// Flush runs pending debounced writes now.
func (d *DetailPane) Flush() {
	d.nameDeb.Flush()
	d.dataDeb.Flush()
}

// HasPendingSaves reports whether an edit is waiting for its quiet period.
func (d *DetailPane) HasPendingSaves() bool {
	return d.nameDeb.Pending() || d.dataDeb.Pending()
}

// Rename writes the name of project id at once and reports a store failure to the caller.
// A pending debounced name write is dropped.
func (d *DetailPane) Rename(ctx context.Context, id int64, name string) error {
	d.mu.Lock()
	if id != d.projectID || id < 0 {
		d.mu.Unlock()
		return ErrProjectChanged
	}
	d.mu.Unlock()
	d.nameDeb.Cancel()
	if err := d.store.Update(ctx, id, storage.NamePatch(name)); err != nil {
		d.l.ErrorContext(ctx, "rename failed", slog.Int64("project_id", id), slog.Any("err", err))
		return fmt.Errorf("rename project %d: %w", id, err)
	}
	d.mu.Lock()
	if d.projectID == id {
		d.name = name
	}
	d.mu.Unlock()
	if d.OnNameSaved != nil {
		d.OnNameSaved(id)
	}
	d.changed()
	return nil
}

func (d *DetailPane) saveName(id int64, name string) {
	ctx, cancel := context.WithTimeout(applog.WithProject(context.Background(), id), saveTimeout)
	defer cancel()
	if err := d.store.Update(ctx, id, storage.NamePatch(name)); err != nil {
		d.l.ErrorContext(ctx, "save name failed", slog.Any("err", err))
		d.notifier.Alert(fmt.Sprintf("%s: %v", MsgSaveFailed, err))
		return
	}
	d.l.DebugContext(ctx, "name saved")
	if d.OnNameSaved != nil {
		d.OnNameSaved(id)
	}
}

func (d *DetailPane) saveData(id int64, segs []domain.Segment) {
	ctx, cancel := context.WithTimeout(applog.WithProject(context.Background(), id), saveTimeout)
	defer cancel()
	if err := d.store.Update(ctx, id, storage.DataPatch(segs)); err != nil {
		d.l.ErrorContext(ctx, "save data failed", slog.Any("err", err))
		d.notifier.Alert(fmt.Sprintf("%s: %v", MsgSaveFailed, err))
		return
	}
	d.l.DebugContext(ctx, "data saved", slog.Int("segments", len(segs)))
}

// PlayOrToggle stops index if it is playing, otherwise stops whatever plays and starts index.
func (d *DetailPane) PlayOrToggle(index int) error {
	d.mu.Lock()
	if d.playing == index && d.playback != nil {
		d.stopLocked()
		d.mu.Unlock()
		d.changed()
		return nil
	}
	d.stopLocked()
	if index < 0 || index >= len(d.data) {
		d.mu.Unlock()
		return fmt.Errorf("segment %d out of range", index)
	}
	clip, err := audio.DecodeClip(d.data[index].Audio)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	pb, err := d.player.Play(clip)
	if err != nil {
		d.mu.Unlock()
		d.l.Error("playback failed", slog.Int("segment", index), slog.Any("err", err))
		return err
	}
	d.playing, d.playback = index, pb
	d.mu.Unlock()
	d.changed()

	go func() {
		<-pb.Done()
		d.mu.Lock()
		// a newer playback owns the state
		stale := d.playback != pb || d.playing != index
		if !stale {
			d.playing, d.playback = -1, nil
		}
		d.mu.Unlock()
		if !stale {
			d.changed()
		}
	}()
	return nil
}

// StopAudio stops the current clip, if any.
func (d *DetailPane) StopAudio() {
	d.mu.Lock()
	was := d.playback != nil
	d.stopLocked()
	d.mu.Unlock()
	if was {
		d.changed()
	}
}

func (d *DetailPane) stopLocked() {
	if d.playback != nil {
		d.playback.Stop()
	}
	d.playing, d.playback = -1, nil
}

// Playing returns the playing segment index or -1.
func (d *DetailPane) Playing() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.playing
}

func (d *DetailPane) loaded() (int64, string, []domain.Segment, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.projectID < 0 {
		return 0, "", nil, false, ErrNoProject
	}
	return d.projectID, d.name, domain.CloneSegments(d.data), d.withBreaks, nil
}

// DownloadAsJSON writes the segments verbatim (projectfile.DefaultFileName).
func (d *DetailPane) DownloadAsJSON(w io.Writer) error {
	_, _, data, _, err := d.loaded()
	if err != nil {
		return err
	}
	return projectfile.Write(w, data)
}

// DownloadAsDocument writes the HTML transcript (export.HTMLFileName).
func (d *DetailPane) DownloadAsDocument(w io.Writer) error {
	_, _, data, breaks, err := d.loaded()
	if err != nil {
		return err
	}
	return export.HTML(w, data, breaks)
}

// DownloadAsPDF writes the transcript as PDF (export.PDFFileName).
func (d *DetailPane) DownloadAsPDF(w io.Writer) error {
	_, name, data, breaks, err := d.loaded()
	if err != nil {
		return err
	}
	return export.PDF(w, data, export.PDFOptions{Title: name, WithBreaks: breaks})
}

// SubmitForTraining sends the full segment list after confirmation. It reports whether it was sent.
func (d *DetailPane) SubmitForTraining(ctx context.Context) (bool, error) {
	id, _, data, _, err := d.loaded()
	if err != nil {
		return false, err
	}
	if !d.notifier.Confirm(MsgConfirmTraining) {
		return false, nil
	}
	ctx = applog.WithProject(ctx, id)
	if err := d.tx.SubmitTraining(ctx, data); err != nil {
		d.l.ErrorContext(ctx, "submit for training failed", slog.Any("err", err))
		d.notifier.Alert(fmt.Sprintf("%s: %v", MsgTrainingFailed, err))
		return false, err
	}
	d.l.InfoContext(ctx, "submitted for training", slog.Int("segments", len(data)))
	return true, nil
}

// RemoveProject deletes the loaded project after confirmation naming it. Pending edits of the
// project are dropped. It reports whether the project was deleted.
func (d *DetailPane) RemoveProject(ctx context.Context) (bool, error) {
	id, name, _, _, err := d.loaded()
	if err != nil {
		return false, err
	}
	if !d.notifier.Confirm(fmt.Sprintf(MsgConfirmRemove, name)) {
		return false, nil
	}
	d.nameDeb.Cancel()
	d.dataDeb.Cancel()
	d.history.Clear(id)
	ctx = applog.WithProject(ctx, id)
	if err := d.store.Delete(ctx, id); err != nil {
		d.l.ErrorContext(ctx, "delete failed", slog.Any("err", err))
		d.notifier.Alert(fmt.Sprintf("%s: %v", MsgDeleteFailed, err))
		return false, err
	}
	d.StopAudio()
	d.l.InfoContext(ctx, "project removed")
	if d.OnDeleted != nil {
		d.OnDeleted(id)
	}
	return true, nil
}
