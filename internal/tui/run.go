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

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"transcribeer/internal/crash"
	"transcribeer/internal/editor"
	applog "transcribeer/internal/log"
)

// Run starts the terminal UI on the alternate screen and blocks until the user quits.
// The notifier and change hook of opts are replaced.
func Run(ctx context.Context, opts editor.Options) error {
	l := applog.WithComponent("tui")
	n := NewNotifier()
	opts.Notifier = n
	opts.OnChange = n.Changed
	core := editor.New(opts)
	defer crash.Recover(core)

	p := tea.NewProgram(newModel(core), tea.WithAltScreen(), tea.WithContext(ctx))
	n.Attach(p.Send)
	l.Info("starting terminal UI")
	_, err := p.Run()
	n.Detach()
	core.Shutdown()
	if err != nil {
		l.Error("terminal UI stopped", slog.Any("err", err))
	}
	return err
}
