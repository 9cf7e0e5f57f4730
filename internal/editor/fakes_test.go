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
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"transcribeer/internal/audio"
	"transcribeer/internal/debounce"
	"transcribeer/internal/domain"
	"transcribeer/internal/storage"
)

// countingStore records every Update that reaches the real store.
type countingStore struct {
	storage.Store
	mu      sync.Mutex
	updates []storage.Patch
	failNew error
	failUpd error

	// beforeNew runs at the start of Create.
	beforeNew func()
}

func (c *countingStore) Update(ctx context.Context, id int64, p storage.Patch) error {
	c.mu.Lock()
	c.updates = append(c.updates, p)
	fail := c.failUpd
	c.mu.Unlock()
	if fail != nil {
		return fail
	}
	return c.Store.Update(ctx, id, p)
}

func (c *countingStore) Create(ctx context.Context, name string, data []domain.Segment) (int64, error) {
	if c.beforeNew != nil {
		c.beforeNew()
	}
	if c.failNew != nil {
		return 0, c.failNew
	}
	return c.Store.Create(ctx, name, data)
}

func (c *countingStore) Updates() []storage.Patch {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]storage.Patch(nil), c.updates...)
}

type fakeNotifier struct {
	mu       sync.Mutex
	alerts   []string
	confirms []string
	answer   bool
}

func (n *fakeNotifier) Alert(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, msg)
}

func (n *fakeNotifier) Confirm(msg string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirms = append(n.confirms, msg)
	return n.answer
}

func (n *fakeNotifier) Alerts() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.alerts...)
}

type fakeTranscriber struct {
	segs      []domain.Segment
	err       error
	submitted [][]domain.Segment
	submitErr error
	// block, when set, holds Transcribe until closed or ctx is done
	block chan struct{}
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, _ string, r io.Reader) ([]domain.Segment, error) {
	_, _ = io.Copy(io.Discard, r)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return domain.CloneSegments(f.segs), nil
}

func (f *fakeTranscriber) SubmitTraining(_ context.Context, segs []domain.Segment) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submitted = append(f.submitted, segs)
	return nil
}

func (f *fakeTranscriber) Ping(context.Context) error { return f.err }

type fakePlayback struct {
	once    sync.Once
	done    chan struct{}
	stopped bool
	mu      sync.Mutex
}

func (p *fakePlayback) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.once.Do(func() { close(p.done) })
}

func (p *fakePlayback) Done() <-chan struct{} { return p.done }

func (p *fakePlayback) Stopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

type fakePlayer struct {
	mu    sync.Mutex
	plays []*fakePlayback
}

func (f *fakePlayer) Play(clip []byte) (audio.Playback, error) {
	pb := &fakePlayback{done: make(chan struct{})}
	f.mu.Lock()
	f.plays = append(f.plays, pb)
	f.mu.Unlock()
	return pb, nil
}

func (f *fakePlayer) Active() []*fakePlayback {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*fakePlayback
	for _, p := range f.plays {
		if !p.Stopped() {
			out = append(out, p)
		}
	}
	return out
}

type memSettings struct{ v string }

func (m *memSettings) AccessCode() (string, error) { return m.v, nil }
func (m *memSettings) SetAccessCode(v string) error {
	m.v = v
	return nil
}

// manualClock fires scheduled callbacks when advanced.
type manualClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	at   time.Duration
	f    func()
	dead bool
}

func (t *manualTimer) Stop() bool {
	was := !t.dead
	t.dead = true
	return was
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) debounce.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.dead && t.at <= c.now {
			t.dead = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.f()
	}
}

type harness struct {
	app      *App
	store    *countingStore
	notifier *fakeNotifier
	tx       *fakeTranscriber
	player   *fakePlayer
	clock    *manualClock
	settings *memSettings
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	s, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "projects.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	h := &harness{
		store:    &countingStore{Store: s},
		notifier: &fakeNotifier{answer: true},
		tx:       &fakeTranscriber{},
		player:   &fakePlayer{},
		clock:    &manualClock{},
		settings: &memSettings{},
	}
	h.app = New(Options{
		Store:       h.store,
		Transcriber: h.tx,
		Player:      h.player,
		Notifier:    h.notifier,
		Settings:    h.settings,
		AccessCode:  "secret",
		Debounce:    time.Second,
		AfterFunc:   h.clock.AfterFunc,
	})
	return h
}

func (h *harness) unlock(t *testing.T) {
	t.Helper()
	if !h.app.Authenticate("secret") {
		t.Fatalf("Authenticate failed")
	}
}

func (h *harness) seed(t *testing.T, name string, segs []domain.Segment) int64 {
	t.Helper()
	id, err := h.store.Store.Create(context.Background(), name, segs)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return id
}

func segments(n int) []domain.Segment {
	out := make([]domain.Segment, n)
	for i := range out {
		out[i] = domain.Segment{Audio: "UklGRg==", Label: "seg"}
	}
	return out
}
