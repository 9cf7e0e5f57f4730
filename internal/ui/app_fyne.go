//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"

	"transcribeer/internal/crash"
	"transcribeer/internal/editor"
	applog "transcribeer/internal/log"
	"transcribeer/internal/version"
)

// Run starts the desktop UI and blocks until the window is closed.
// The notifier and change hook of opts are replaced.
func Run(opts editor.Options) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	fyneApp := app.NewWithID("transcribeer")
	w := fyneApp.NewWindow("Transcribeer")
	prefs := fyneApp.Preferences()
	winW := max(prefs.IntWithFallback("window.width", 1100), 640)
	winH := max(prefs.IntWithFallback("window.height", 760), 480)
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	var v *view
	opts.Notifier = dialogNotifier{w: w}
	opts.OnChange = func() {
		fyne.Do(func() {
			if v != nil {
				v.refresh()
			}
		})
	}
	core := editor.New(opts)
	defer crash.Recover(core)
	v = newView(core, w)
	v.refresh()

	go func() {
		if err := core.Initialize(context.Background()); err != nil {
			l.Error("load projects failed", slog.Any("err", err))
			fyne.Do(func() { dialog.ShowError(err, w) })
		}
		fyne.Do(v.refresh)
	}()

	aboutItem := fyne.NewMenuItem("About Transcribeer", func() {
		info := fmt.Sprintf("Transcribeer\nVersion: %s\nOS: %s\nArch: %s\nGo: %s",
			version.String(), runtime.GOOS, runtime.GOARCH, runtime.Version())
		dialog.ShowInformation("About", info, w)
	})
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Upload audio…", v.chooseAudio),
		fyne.NewMenuItem("Load project…", v.chooseProjectFile),
	)
	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo label edit", v.undo),
		fyne.NewMenuItem("Redo label edit", v.redo),
	)
	w.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, fyne.NewMenu("Help", aboutItem)))

	// Persist preferences and pending edits on close
	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		core.Shutdown()
		w.Close()
	})

	w.ShowAndRun()
	core.Shutdown()
	return nil
}
