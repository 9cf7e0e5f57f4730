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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"transcribeer/internal/audio"
	"transcribeer/internal/debounce"
	"transcribeer/internal/domain"
	applog "transcribeer/internal/log"
	"transcribeer/internal/projectfile"
	"transcribeer/internal/storage"
)

// Options wires the App to its collaborators.
type Options struct {
	Store       storage.Store
	Transcriber Transcriber
	Player      audio.Player
	Notifier    Notifier
	Settings    Settings

	// AccessCode is what the start-up gate compares against. The gate is a UI convenience for
	// shared desktops and NOT an authorization mechanism: the code sits in plain text in the
	// config file and the keychain, and the store is reachable without it.
	AccessCode string
	// NoGate starts unlocked (command-line use).
	NoGate bool

	// Debounce is the quiet period before edits are written; default one second.
	Debounce time.Duration
	// AfterFunc replaces time.AfterFunc for the debouncers (tests).
	AfterFunc debounce.AfterFunc
	// OnChange is called after any visible state changed, from any goroutine.
	OnChange func()
}

// App is the root orchestrator: it mirrors the store's project list, wires the panes together
// and creates projects from transcriptions and imported files.
type App struct {
	mu            sync.Mutex
	projects      []domain.Project
	authenticated bool
	authError     string
	loading       bool
	generation    uint64
	navigation    uint64
	cancelUpload  context.CancelFunc

	opts     Options
	notifier Notifier
	l        *slog.Logger

	Projects *ProjectPane
	Detail   *DetailPane
}

// New builds an App. Call Initialize before use.
func New(opts Options) *App {
	if opts.Debounce <= 0 {
		opts.Debounce = time.Second
	}
	if opts.Notifier == nil {
		opts.Notifier = NopNotifier{}
	}
	a := &App{opts: opts, notifier: opts.Notifier, l: applog.WithComponent("app"), authenticated: opts.NoGate}
	a.Projects = newProjectPane(a.changed)
	a.Detail = newDetailPane(detailDeps{
		store:    opts.Store,
		player:   opts.Player,
		tx:       opts.Transcriber,
		notifier: opts.Notifier,
		delay:    opts.Debounce,
		after:    opts.AfterFunc,
		onChange: a.changed,
	})
	a.Projects.OnSelect = func(i int) {
		if err := a.SelectProject(context.Background(), i); err != nil {
			a.l.Warn("select project failed", slog.Int("index", i), slog.Any("err", err))
		}
	}
	a.Detail.OnNameSaved = func(id int64) {
		if err := a.Refresh(context.Background()); err != nil {
			a.l.Warn("refresh after rename failed", slog.Int64("project_id", id), slog.Any("err", err))
		}
	}
	a.Detail.OnDeleted = func(int64) {
		if err := a.ReloadAfterDelete(context.Background()); err != nil {
			a.l.Warn("reload after delete failed", slog.Any("err", err))
		}
	}
	return a
}

func (a *App) changed() {
	if a.opts.OnChange != nil {
		a.opts.OnChange()
	}
}

// Initialize restores the gate from settings, loads all projects and shows the first one.
func (a *App) Initialize(ctx context.Context) error {
	if !a.opts.NoGate && a.opts.Settings != nil {
		saved, err := a.opts.Settings.AccessCode()
		if err != nil {
			a.l.Warn("read saved access code failed", slog.Any("err", err))
		}
		if saved != "" && saved == a.opts.AccessCode {
			a.mu.Lock()
			a.authenticated = true
			a.mu.Unlock()
		}
	}
	if err := a.Refresh(ctx); err != nil {
		return err
	}
	a.mu.Lock()
	var first *domain.Project
	if len(a.projects) > 0 {
		p := a.projects[0]
		first = &p
	}
	a.mu.Unlock()
	if first != nil {
		a.Projects.SetSelected(0)
		return a.RouteProjectToDetailPane(*first)
	}
	a.Detail.Clear()
	return nil
}

// Authenticate compares input with the access code; on match it is persisted and the app unlocks.
func (a *App) Authenticate(input string) bool {
	a.mu.Lock()
	ok := input != "" && input == a.opts.AccessCode
	if ok {
		a.authenticated, a.authError = true, ""
	} else {
		a.authError = AuthErrorText
	}
	a.mu.Unlock()
	if ok && a.opts.Settings != nil {
		if err := a.opts.Settings.SetAccessCode(input); err != nil {
			a.l.Warn("persist access code failed", slog.Any("err", err))
		}
	}
	a.changed()
	return ok
}

// Locked reports whether the gate is still closed.
func (a *App) Locked() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.authenticated
}

// AuthError is the inline validation message after a failed Authenticate.
func (a *App) AuthError() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.authError
}

// Loading reports whether a transcription upload is in flight.
func (a *App) Loading() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loading
}

// List returns the cached project list.
func (a *App) List() []domain.Project {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.Project(nil), a.projects...)
}

// Refresh reloads the project list from the store.
func (a *App) Refresh(ctx context.Context) error {
	list, err := a.opts.Store.List(ctx)
	if err != nil {
		a.l.Error("load projects failed", slog.Any("err", err))
		return fmt.Errorf("load projects: %w", err)
	}
	names := make([]string, len(list))
	for i, p := range list {
		names[i] = p.Name
	}
	a.mu.Lock()
	a.projects = list
	a.mu.Unlock()
	a.Projects.SetNames(names)
	return nil
}

func (a *App) unlocked() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.authenticated {
		return ErrLocked
	}
	return nil
}

// UploadAudio transcribes audio and stores the result as a new project, which is then selected.
// If the user selected another project meanwhile, the new project is stored but not routed.
func (a *App) UploadAudio(ctx context.Context, filename string, r io.Reader) error {
	a.mu.Lock()
	if !a.authenticated {
		a.mu.Unlock()
		return ErrLocked
	}
	if a.loading {
		a.mu.Unlock()
		return ErrBusy
	}
	a.generation++
	gen, nav := a.generation, a.navigation
	ctx, cancel := context.WithCancel(ctx)
	a.loading, a.cancelUpload = true, cancel
	a.mu.Unlock()
	a.changed()
	defer func() {
		cancel()
		a.mu.Lock()
		a.loading, a.cancelUpload = false, nil
		a.mu.Unlock()
		a.changed()
	}()

	l := a.l.With(slog.String("op", "upload"), slog.String("file", filename), slog.Uint64("gen", gen))
	segs, err := a.opts.Transcriber.Transcribe(ctx, filename, r)
	if a.stale(gen) {
		l.Info("discarding cancelled transcription")
		return ErrCancelled
	}
	if err != nil {
		l.Error("transcription failed", slog.Any("err", err))
		a.notifier.Alert(fmt.Sprintf("%s: %v", MsgTranscribeFailed, err))
		return err
	}
	domain.LowercaseLabels(segs)
	id, err := a.opts.Store.Create(ctx, domain.NameTranscribed, segs)
	if a.stale(gen) {
		if err == nil {
			if derr := a.opts.Store.Delete(context.WithoutCancel(ctx), id); derr != nil {
				l.Warn("drop cancelled transcription failed", slog.Int64("project_id", id), slog.Any("err", derr))
			}
		}
		l.Info("discarding cancelled transcription")
		return ErrCancelled
	}
	if err != nil {
		l.Error("store transcription failed", slog.Any("err", err))
		a.notifier.Alert(fmt.Sprintf("%s: %v", MsgTranscribeFailed, err))
		return err
	}
	l.Info("project created from transcription", slog.Int64("project_id", id), slog.Int("segments", len(segs)))
	if err := a.Refresh(ctx); err != nil {
		return err
	}
	a.mu.Lock()
	moved := a.navigation != nav
	a.mu.Unlock()
	if moved {
		l.Info("selection changed during upload; not routing new project", slog.Int64("project_id", id))
		return nil
	}
	return a.selectLast()
}

func (a *App) stale(gen uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.generation != gen
}

// CancelUpload aborts the in-flight transcription; its result is discarded.
func (a *App) CancelUpload() {
	a.mu.Lock()
	cancel := a.cancelUpload
	if cancel != nil {
		a.generation++
	}
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// ImportProjectFile validates a project file and stores it as "Loaded Project".
func (a *App) ImportProjectFile(ctx context.Context, r io.Reader) error {
	if err := a.unlocked(); err != nil {
		return err
	}
	segs, err := projectfile.Parse(r)
	if err != nil {
		a.l.Warn("import rejected", slog.Any("err", err))
		a.notifier.Alert(MsgInvalidProjectFile)
		if errors.Is(err, projectfile.ErrInvalid) {
			return fmt.Errorf("%w: %v", ErrInvalidProjectFile, err)
		}
		return err
	}
	id, err := a.opts.Store.Create(ctx, domain.NameImported, segs)
	if err != nil {
		a.l.Error("store imported project failed", slog.Any("err", err))
		a.notifier.Alert(fmt.Sprintf("%s: %v", MsgImportSaveFailed, err))
		return err
	}
	a.l.Info("project imported", slog.Int64("project_id", id), slog.Int("segments", len(segs)))
	if err := a.Refresh(ctx); err != nil {
		return err
	}
	a.bumpNavigation()
	return a.selectLast()
}

func (a *App) bumpNavigation() {
	a.mu.Lock()
	a.navigation++
	a.mu.Unlock()
}

func (a *App) selectLast() error {
	a.mu.Lock()
	n := len(a.projects)
	if n == 0 {
		a.mu.Unlock()
		return nil
	}
	p := a.projects[n-1]
	a.mu.Unlock()
	a.Projects.SetSelected(n - 1)
	return a.RouteProjectToDetailPane(p)
}

// SelectProject refreshes the list, then routes the project at index.
func (a *App) SelectProject(ctx context.Context, index int) error {
	if err := a.unlocked(); err != nil {
		return err
	}
	a.bumpNavigation()
	// pending edits belong to the project being left
	a.Detail.Flush()
	if err := a.Refresh(ctx); err != nil {
		return err
	}
	a.mu.Lock()
	if index < 0 || index >= len(a.projects) {
		a.mu.Unlock()
		return fmt.Errorf("project index %d out of range", index)
	}
	p := a.projects[index]
	a.mu.Unlock()
	a.Projects.SetSelected(index)
	return a.RouteProjectToDetailPane(p)
}

// ReloadAfterDelete refreshes and selects the first project, or shows the empty state.
func (a *App) ReloadAfterDelete(ctx context.Context) error {
	a.bumpNavigation()
	if err := a.Refresh(ctx); err != nil {
		return err
	}
	a.mu.Lock()
	var first *domain.Project
	if len(a.projects) > 0 {
		p := a.projects[0]
		first = &p
	}
	a.mu.Unlock()
	if first == nil {
		a.Projects.SetSelected(-1)
		a.Detail.Clear()
		return nil
	}
	a.Projects.SetSelected(0)
	return a.RouteProjectToDetailPane(*first)
}

// RouteProjectToDetailPane shows p in the detail pane from page 0, stopping playback first.
func (a *App) RouteProjectToDetailPane(p domain.Project) error {
	if p.Data == nil {
		a.l.Error("project without data", slog.Int64("project_id", p.ID))
		a.notifier.Alert(MsgError)
		return ErrMissingData
	}
	a.Detail.Load(p)
	return nil
}

// Ping checks the transcription service.
func (a *App) Ping(ctx context.Context) error {
	return a.opts.Transcriber.Ping(ctx)
}

// Shutdown writes pending edits and stops playback.
func (a *App) Shutdown() {
	a.CancelUpload()
	a.Detail.Flush()
	a.Detail.StopAudio()
}

// Flush writes pending edits now.
func (a *App) Flush() { a.Detail.Flush() }
