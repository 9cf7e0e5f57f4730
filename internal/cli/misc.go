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
	"runtime"

	"github.com/spf13/cobra"

	"transcribeer/internal/config"
	"transcribeer/internal/version"
)

func newSubmitCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit <id>",
		Short: "Send a corrected transcript to the service for training",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			core, done, err := app.session(cmd)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer done()
			if _, err := openProject(cmd.Context(), core, id); err != nil {
				return writeErr(cmd, err)
			}
			sent, err := core.Detail.SubmitForTraining(cmd.Context())
			if err != nil {
				return err
			}
			if !sent {
				return writeErr(cmd, errAborted)
			}
			return writeOut(cmd, app, map[string]any{"id": id, "submitted": true}, okLine("submitted #%d", id))
		},
	}
	cmd.Flags().BoolVarP(&app.Yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newPingCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the transcription service is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.transcriber().Ping(cmd.Context()); err != nil {
				return writeErr(cmd, fmt.Errorf("ping %s: %w", app.cfg.Transcription.BaseURL, err))
			}
			return writeOut(cmd, app, map[string]any{"url": app.cfg.Transcription.BaseURL, "ok": true},
				okLine("%s is up", app.cfg.Transcription.BaseURL))
		},
	}
}

func newLockCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "lock",
		Short: "Forget the saved access code so the UIs ask for it again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := (config.Settings{Store: app.tokens}).ClearAccessCode(); err != nil {
				return writeErr(cmd, fmt.Errorf("clear access code: %w", err))
			}
			return writeOut(cmd, app, map[string]any{"locked": true}, okLine("locked"))
		},
	}
}

func newVersionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := map[string]string{
				"version": version.Version,
				"commit":  version.Commit,
				"os":      runtime.GOOS,
				"arch":    runtime.GOARCH,
			}
			return writeOut(cmd, app, info, fmt.Sprintf("transcribeer %s %s/%s", version.String(), runtime.GOOS, runtime.GOARCH))
		},
	}
}
