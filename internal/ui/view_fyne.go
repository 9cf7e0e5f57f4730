//go:build fyne

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
	"io"
	"log/slog"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"transcribeer/internal/editor"
	"transcribeer/internal/export"
	applog "transcribeer/internal/log"
	"transcribeer/internal/projectfile"
)

var audioExtensions = []string{".wav", ".mp3", ".m4a", ".ogg", ".flac", ".webm"}

// dialogNotifier shows editor alerts and confirmations as window dialogs.
// Confirm blocks its caller, so editor operations run off the UI goroutine.
type dialogNotifier struct {
	w fyne.Window
}

func (n dialogNotifier) Alert(msg string) {
	fyne.Do(func() { dialog.ShowInformation("Transcribeer", msg, n.w) })
}

func (n dialogNotifier) Confirm(msg string) bool {
	reply := make(chan bool, 1)
	fyne.Do(func() {
		dialog.ShowConfirm("Please confirm", msg, func(ok bool) { reply <- ok }, n.w)
	})
	return <-reply
}

// pageKey identifies what the segment rows were built for.
type pageKey struct {
	id    int64
	page  int
	total int
}

type view struct {
	core *editor.App
	w    fyne.Window
	l    *slog.Logger

	// gate
	gate      fyne.CanvasObject
	gateEntry *widget.Entry
	gateError *widget.Label
	unlockBtn *widget.Button

	// main
	main      fyne.CanvasObject
	projects  *widget.List
	names     []string
	empty     *widget.Label
	detail    fyne.CanvasObject
	nameEntry *widget.Entry
	rows      *fyne.Container
	playBtns  []*widget.Button
	rowIdx    []int
	pageLabel *widget.Label
	prevBtn   *widget.Button
	nextBtn   *widget.Button
	breaks    *widget.Check
	status    *widget.Label
	progress  *widget.ProgressBarInfinite
	uploadBtn *widget.Button
	cancelBtn *widget.Button

	shown     pageKey
	syncing   bool
	selecting bool
}

func newView(core *editor.App, w fyne.Window) *view {
	v := &view{core: core, w: w, l: applog.WithComponent("ui"), shown: pageKey{id: -2}}
	v.buildGate()
	v.buildMain()
	return v
}

func (v *view) buildGate() {
	v.gateEntry = widget.NewPasswordEntry()
	v.gateEntry.SetPlaceHolder("Password")
	v.gateError = widget.NewLabel("")
	v.gateError.Importance = widget.DangerImportance
	v.unlockBtn = widget.NewButton("Unlock", func() { v.unlock(v.gateEntry.Text) })
	v.gateEntry.OnSubmitted = v.unlock
	v.gate = container.NewCenter(container.NewVBox(
		widget.NewLabelWithStyle("Transcribeer", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		v.gateEntry,
		v.unlockBtn,
		v.gateError,
	))
}

func (v *view) unlock(input string) {
	if v.core.Authenticate(input) {
		v.gateEntry.SetText("")
		v.gateError.SetText("")
	} else {
		v.gateError.SetText(v.core.AuthError())
	}
	v.refresh()
}

func (v *view) buildMain() {
	v.projects = widget.NewList(
		func() int { return len(v.names) },
		func() fyne.CanvasObject { return widget.NewLabel("project name") },
		func(id widget.ListItemID, o fyne.CanvasObject) { o.(*widget.Label).SetText(v.names[id]) },
	)
	v.projects.OnSelected = func(id widget.ListItemID) {
		if v.syncing || id == v.core.Projects.Selected() {
			return
		}
		go v.core.Projects.Click(id)
	}

	v.uploadBtn = widget.NewButtonWithIcon("Upload audio", theme.UploadIcon(), v.chooseAudio)
	v.cancelBtn = widget.NewButtonWithIcon("Cancel", theme.CancelIcon(), func() { v.core.CancelUpload() })
	v.cancelBtn.Hide()
	v.progress = widget.NewProgressBarInfinite()
	v.progress.Hide()
	importBtn := widget.NewButtonWithIcon("Load project", theme.FolderOpenIcon(), v.chooseProjectFile)
	left := container.NewBorder(
		container.NewVBox(v.uploadBtn, v.progress, v.cancelBtn, importBtn, widget.NewSeparator()),
		nil, nil, nil, v.projects)

	v.nameEntry = widget.NewEntry()
	v.nameEntry.OnChanged = func(s string) {
		if v.syncing {
			return
		}
		if err := v.core.Detail.SetName(v.shown.id, s); err != nil {
			v.l.Warn("set name failed", slog.Any("err", err))
		}
	}
	v.rows = container.NewVBox()
	v.pageLabel = widget.NewLabel("")
	v.prevBtn = widget.NewButtonWithIcon("", theme.NavigateBackIcon(), func() {
		v.core.Detail.SetPage(v.core.Detail.State().Page - 1)
	})
	v.nextBtn = widget.NewButtonWithIcon("", theme.NavigateNextIcon(), func() {
		v.core.Detail.SetPage(v.core.Detail.State().Page + 1)
	})
	v.breaks = widget.NewCheck("Line breaks", func(b bool) {
		if !v.syncing {
			v.core.Detail.SetWithBreaks(b)
		}
	})
	actions := container.NewHBox(
		widget.NewButtonWithIcon("JSON", theme.DownloadIcon(), func() {
			v.saveAs(projectfile.DefaultFileName, ".json", v.core.Detail.DownloadAsJSON)
		}),
		widget.NewButtonWithIcon("Document", theme.DocumentIcon(), func() {
			v.saveAs(export.HTMLFileName, ".html", v.core.Detail.DownloadAsDocument)
		}),
		widget.NewButtonWithIcon("PDF", theme.DocumentIcon(), func() {
			v.saveAs(export.PDFFileName, ".pdf", v.core.Detail.DownloadAsPDF)
		}),
		v.breaks,
		widget.NewButtonWithIcon("Train", theme.MailSendIcon(), func() {
			go func() {
				if _, err := v.core.Detail.SubmitForTraining(context.Background()); err != nil {
					v.l.Warn("submit for training failed", slog.Any("err", err))
				}
			}()
		}),
		widget.NewButtonWithIcon("Remove", theme.DeleteIcon(), func() {
			go func() {
				if _, err := v.core.Detail.RemoveProject(context.Background()); err != nil {
					v.l.Warn("remove project failed", slog.Any("err", err))
				}
			}()
		}),
	)
	pager := container.NewHBox(v.prevBtn, v.pageLabel, v.nextBtn)
	v.detail = container.NewBorder(
		container.NewVBox(v.nameEntry, actions),
		pager, nil, nil,
		container.NewVScroll(v.rows))
	v.empty = widget.NewLabelWithStyle(editor.EmptyStateText, fyne.TextAlignCenter, fyne.TextStyle{Italic: true})

	v.status = widget.NewLabel("")
	split := container.NewHSplit(left, container.NewStack(v.empty, v.detail))
	split.SetOffset(0.25)
	v.main = container.NewBorder(nil, v.status, nil, nil, split)
}

// refresh pulls editor state into the widgets. Must run on the UI goroutine.
func (v *view) refresh() {
	if v.core.Locked() {
		if v.w.Content() != v.gate {
			v.w.SetContent(v.gate)
			v.w.Canvas().Focus(v.gateEntry)
		}
		return
	}
	if v.w.Content() != v.main {
		v.w.SetContent(v.main)
	}
	v.syncing = true
	defer func() { v.syncing = false }()

	v.names = v.core.Projects.Names()
	v.projects.Refresh()
	if sel := v.core.Projects.Selected(); sel >= 0 {
		v.projects.Select(sel)
	} else {
		v.projects.UnselectAll()
	}

	loading := v.core.Loading()
	setVisible(v.progress, loading)
	setVisible(v.cancelBtn, loading)
	if loading {
		v.uploadBtn.Disable()
	} else {
		v.uploadBtn.Enable()
	}

	st := v.core.Detail.State()
	v.w.SetTitle(trimTitle(st.Name))
	setVisible(v.empty, st.Empty())
	setVisible(v.detail, !st.Empty())
	if st.Empty() {
		v.shown = pageKey{id: -1}
		return
	}
	key := pageKey{id: st.ProjectID, page: st.Page, total: st.Total}
	if key.id != v.shown.id {
		v.nameEntry.SetText(st.Name)
	}
	if key != v.shown {
		v.buildRows(st)
		v.shown = key
	}
	for i, b := range v.playBtns {
		if v.rowIdx[i] == st.Playing {
			b.SetIcon(theme.MediaStopIcon())
		} else {
			b.SetIcon(theme.MediaPlayIcon())
		}
	}
	v.breaks.SetChecked(st.WithBreaks)
	v.pageLabel.SetText(fmt.Sprintf("Page %d of %d", st.Page+1, max(st.PageCount, 1)))
	setEnabled(v.prevBtn, st.Page > 0)
	setEnabled(v.nextBtn, st.Page < st.PageCount-1)
}

// undo and redo rebuild the rows since the restored label may sit on the visible page.
func (v *view) undo() {
	if v.core.Detail.Undo() {
		v.shown = pageKey{id: -1}
	}
	v.refresh()
}

func (v *view) redo() {
	if v.core.Detail.Redo() {
		v.shown = pageKey{id: -1}
	}
	v.refresh()
}

// buildRows recreates the segment rows; only done when the page changes so typing keeps focus.
func (v *view) buildRows(st editor.DetailState) {
	v.rows.RemoveAll()
	v.playBtns = v.playBtns[:0]
	v.rowIdx = v.rowIdx[:0]
	id := st.ProjectID
	for _, r := range st.Rows {
		idx := r.Index
		play := widget.NewButtonWithIcon("", theme.MediaPlayIcon(), func() {
			if err := v.core.Detail.PlayOrToggle(idx); err != nil {
				v.status.SetText(fmt.Sprintf("Cannot play segment %d: %v", idx+1, err))
			}
		})
		entry := widget.NewMultiLineEntry()
		entry.Wrapping = fyne.TextWrapWord
		entry.SetMinRowsVisible(2)
		entry.SetText(r.Label)
		entry.OnChanged = func(s string) {
			if err := v.core.Detail.SetLabel(id, idx, s); err != nil {
				v.l.Warn("set label failed", slog.Int("segment", idx), slog.Any("err", err))
			}
		}
		v.playBtns = append(v.playBtns, play)
		v.rowIdx = append(v.rowIdx, idx)
		v.rows.Add(container.NewBorder(nil, nil, play, nil, entry))
	}
}

func (v *view) chooseAudio() {
	d := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		name := rc.URI().Name()
		v.status.SetText("Transcribing " + name + "…")
		go func() {
			defer rc.Close()
			err := v.core.UploadAudio(context.Background(), name, rc)
			fyne.Do(func() {
				if err != nil {
					v.status.SetText("")
					return
				}
				v.status.SetText("Transcribed " + name)
			})
		}()
	}, v.w)
	d.SetFilter(fstorage.NewExtensionFileFilter(audioExtensions))
	d.Show()
}

func (v *view) chooseProjectFile() {
	d := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		go func() {
			defer rc.Close()
			if err := v.core.ImportProjectFile(context.Background(), rc); err != nil {
				v.l.Warn("import failed", slog.String("file", rc.URI().Name()), slog.Any("err", err))
			}
		}()
	}, v.w)
	d.SetFilter(fstorage.NewExtensionFileFilter([]string{".json"}))
	d.Show()
}

// saveAs asks for a target and writes with write. Local files are replaced atomically.
func (v *view) saveAs(name, ext string, write func(io.Writer) error) {
	if v.core.Detail.State().Empty() {
		return
	}
	d := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil || wc == nil {
			return
		}
		uri := wc.URI()
		go func() {
			var werr error
			if uri.Scheme() == "file" {
				_ = wc.Close()
				werr = export.WriteFile(uri.Path(), write)
			} else {
				werr = write(wc)
				if cerr := wc.Close(); werr == nil {
					werr = cerr
				}
			}
			fyne.Do(func() {
				if werr != nil {
					v.l.Error("save failed", slog.String("uri", uri.String()), slog.Any("err", werr))
					dialog.ShowError(werr, v.w)
					return
				}
				v.status.SetText("Saved " + uri.Name())
			})
		}()
	}, v.w)
	d.SetFileName(name)
	d.SetFilter(fstorage.NewExtensionFileFilter([]string{ext}))
	d.Show()
}

func setVisible(o fyne.CanvasObject, on bool) {
	if on {
		o.Show()
	} else {
		o.Hide()
	}
}

func setEnabled(b *widget.Button, on bool) {
	if on {
		b.Enable()
	} else {
		b.Disable()
	}
}

func trimTitle(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "Transcribeer"
	}
	return s + " – Transcribeer"
}
