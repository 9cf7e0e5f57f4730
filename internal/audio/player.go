/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package audio plays transcript clips. Segments carry their clip as base64-encoded WAV; playback
// is delegated to an external player process (ffplay by default) fed through stdin.
package audio

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"

	applog "transcribeer/internal/log"
)

// ErrEmptyClip is returned for a segment without audio.
var ErrEmptyClip = errors.New("segment has no audio")

// Player starts playback of one clip.
type Player interface {
	Play(clip []byte) (Playback, error)
}

// Playback is a running clip. Done is closed when the clip ends or is stopped.
// Stop is idempotent.
type Playback interface {
	Stop()
	Done() <-chan struct{}
}

// DecodeClip turns the stored base64 payload (optionally a data: URL) into raw audio bytes.
func DecodeClip(b64 string) ([]byte, error) {
	s := strings.TrimSpace(b64)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	if s == "" {
		return nil, ErrEmptyClip
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		// some encoders drop the padding
		if b2, err2 := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "=")); err2 == nil {
			return b2, nil
		}
		return nil, fmt.Errorf("decode clip: %w", err)
	}
	return b, nil
}

// ExecPlayer runs Command with Args followed by "-" and writes the clip to its stdin.
type ExecPlayer struct {
	Command string
	Args    []string
	// Env is appended to the current environment.
	Env []string
}

// NewExecPlayer returns a player for the given command, defaulting to ffplay without a window.
func NewExecPlayer(command string, args []string) *ExecPlayer {
	if strings.TrimSpace(command) == "" {
		command = "ffplay"
		if len(args) == 0 {
			args = []string{"-nodisp", "-autoexit", "-loglevel", "error"}
		}
	}
	return &ExecPlayer{Command: command, Args: args}
}

// Available reports whether the player binary can be found.
func (p *ExecPlayer) Available() bool {
	_, err := exec.LookPath(p.Command)
	return err == nil
}

func (p *ExecPlayer) Play(clip []byte) (Playback, error) {
	if len(clip) == 0 {
		return nil, ErrEmptyClip
	}
	l := applog.WithComponent("audio")
	ctx, cancel := context.WithCancel(context.Background())
	args := append(append([]string(nil), p.Args...), "-")
	cmd := exec.CommandContext(ctx, p.Command, args...)
	if len(p.Env) > 0 {
		cmd.Env = append(os.Environ(), p.Env...)
	}
	cmd.Stdin = bytes.NewReader(clip)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start %s: %w", p.Command, err)
	}
	pb := &execPlayback{cancel: cancel, done: make(chan struct{})}
	go func() {
		err := cmd.Wait()
		if err != nil && ctx.Err() == nil {
			l.Warn("player exited with error", slog.String("cmd", p.Command), slog.Any("err", err), slog.String("stderr", strings.TrimSpace(stderr.String())))
		}
		cancel()
		close(pb.done)
	}()
	return pb, nil
}

type execPlayback struct {
	once   sync.Once
	cancel context.CancelFunc
	done   chan struct{}
}

func (e *execPlayback) Stop() {
	e.once.Do(e.cancel)
}

func (e *execPlayback) Done() <-chan struct{} { return e.done }
