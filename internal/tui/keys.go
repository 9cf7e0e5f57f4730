/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit       key.Binding
	Focus      key.Binding
	Up         key.Binding
	Down       key.Binding
	PrevPage   key.Binding
	NextPage   key.Binding
	Open       key.Binding
	EditLabel  key.Binding
	Rename     key.Binding
	Play       key.Binding
	Stop       key.Binding
	Breaks     key.Binding
	Upload     key.Binding
	Cancel     key.Binding
	Import     key.Binding
	Export     key.Binding
	Submit     key.Binding
	Delete     key.Binding
	Undo       key.Binding
	Redo       key.Binding
	Back       key.Binding
	Confirm    key.Binding
	Decline    key.Binding
	ForceQuit  key.Binding
	HelpToggle key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:       key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQuit:  key.NewBinding(key.WithKeys("ctrl+c")),
		Focus:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PrevPage:   key.NewBinding(key.WithKeys("left", "h", "pgup"), key.WithHelp("←/h", "prev page")),
		NextPage:   key.NewBinding(key.WithKeys("right", "l", "pgdown"), key.WithHelp("→/l", "next page")),
		Open:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		EditLabel:  key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit")),
		Rename:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "rename")),
		Play:       key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "play/stop")),
		Stop:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		Breaks:     key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "breaks")),
		Upload:     key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "upload audio")),
		Cancel:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "cancel upload")),
		Import:     key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "import")),
		Export:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "export")),
		Submit:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "train")),
		Delete:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Undo:       key.NewBinding(key.WithKeys("ctrl+z"), key.WithHelp("ctrl+z", "undo")),
		Redo:       key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "redo")),
		Back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "done")),
		Confirm:    key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("y", "yes")),
		Decline:    key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		HelpToggle: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Focus, k.Play, k.EditLabel, k.Upload, k.Export, k.HelpToggle, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Focus, k.Up, k.Down, k.PrevPage, k.NextPage},
		{k.EditLabel, k.Rename, k.Undo, k.Redo, k.Play, k.Stop, k.Breaks},
		{k.Upload, k.Cancel, k.Import, k.Export},
		{k.Submit, k.Delete, k.Quit},
	}
}
