/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package editor is the headless editing core shared by the desktop, terminal and command-line
// front-ends: the App orchestrator, the project list pane and the detail pane with its
// debounced persistence, pagination, playback and exports.
//
// Front-ends call the blocking operations off their UI thread and re-render on the OnChange hook.
package editor

import (
	"context"
	"errors"
	"io"

	"transcribeer/internal/domain"
)

var (
	// ErrBusy is returned by UploadAudio while another upload is in flight.
	ErrBusy = errors.New("an upload is already in progress")
	// ErrNoProject is returned by detail operations when nothing is loaded.
	ErrNoProject = errors.New("no project selected")
	// ErrInvalidProjectFile wraps every import rejection.
	ErrInvalidProjectFile = errors.New("invalid project file")
	// ErrLocked is returned while the access gate is closed.
	ErrLocked = errors.New("locked")
	// ErrMissingData is returned when a project without segment data is routed to the detail pane.
	ErrMissingData = errors.New("project has no data")
	// ErrProjectChanged is returned by an edit aimed at a project that is no longer loaded.
	ErrProjectChanged = errors.New("project changed during edit")
	// ErrCancelled is returned by an upload cancelled through CancelUpload.
	ErrCancelled = errors.New("upload cancelled")
)

// User-facing texts.
const (
	MsgTranscribeFailed   = "Something went wrong while transcribing"
	MsgInvalidProjectFile = "This is not a valid project file"
	MsgImportSaveFailed   = "Could not save the imported project"
	MsgError              = "An error occurred"
	MsgSaveFailed         = "Could not save changes"
	MsgDeleteFailed       = "Could not remove the project"
	MsgTrainingFailed     = "Could not send the transcript for training"
	MsgConfirmTraining    = "Are you sure that you want to send this information to the server for improving the speech recognition?"
	MsgConfirmRemove      = "Are you sure you want to remove project '%s'?"
	EmptyStateText        = "No project selected"
	AuthErrorText         = "Wrong password"
)

// Notifier shows blocking alerts and confirmations. Both may block until the user answers,
// so the editor only calls them from the goroutine running the operation.
type Notifier interface {
	Alert(msg string)
	Confirm(msg string) bool
}

// Transcriber is the remote speech service.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) ([]domain.Segment, error)
	SubmitTraining(ctx context.Context, segs []domain.Segment) error
	Ping(ctx context.Context) error
}

// Settings persists the last accepted access code.
type Settings interface {
	AccessCode() (string, error)
	SetAccessCode(v string) error
}

// NopNotifier alerts nowhere and confirms everything. Useful for scripted use.
type NopNotifier struct{}

func (NopNotifier) Alert(string)        {}
func (NopNotifier) Confirm(string) bool { return true }
