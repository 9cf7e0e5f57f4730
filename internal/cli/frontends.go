/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package cli

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"transcribeer/internal/config"
	applog "transcribeer/internal/log"
	"transcribeer/internal/tui"
	"transcribeer/internal/ui"
)

func newUICmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Start the desktop UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.openStore(cmd.Context())
			if err != nil {
				return writeErr(cmd, fmt.Errorf("open store: %w", err))
			}
			defer store.Close()
			return ui.Run(app.options(store, nil))
		},
	}
}

func newTUICmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, app)
		},
	}
}

// runTUI moves console logging into a rotated file while the terminal is taken over.
func runTUI(cmd *cobra.Command, app *App) error {
	opts := app.logOptions(io.Discard)
	if opts.File == "" {
		if dir, err := config.DataDir(); err == nil {
			opts.File = filepath.Join(dir, "transcribeer.log")
		}
	}
	applog.Init(opts)
	defer applog.Init(app.logOptions(cmd.ErrOrStderr()))

	store, err := app.openStore(cmd.Context())
	if err != nil {
		return writeErr(cmd, fmt.Errorf("open store: %w", err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			applog.WithComponent("cli").Warn("close store failed", slog.Any("err", err))
		}
	}()
	return tui.Run(cmd.Context(), app.options(store, nil))
}
