/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package cli builds the transcribeer command tree. Without a subcommand the terminal UI starts.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"transcribeer/internal/audio"
	"transcribeer/internal/backend"
	"transcribeer/internal/config"
	"transcribeer/internal/crash"
	"transcribeer/internal/editor"
	applog "transcribeer/internal/log"
	"transcribeer/internal/storage"
	"transcribeer/internal/transcribe"
)

// App carries the resolved configuration and global flags for one invocation.
type App struct {
	ConfigFile  string
	StoreDriver string
	StorePath   string
	DSN         string
	BaseURL     string
	Tenant      string
	LogLevel    string
	JSON        bool
	Yes         bool

	cfg    config.AppConfig
	in     io.Reader
	tokens config.TokenStore

	// wrapStore, when set, decorates every opened store.
	wrapStore func(storage.Store) storage.Store
}

// Config returns the effective configuration after flags were applied.
func (a *App) Config() config.AppConfig { return a.cfg }

func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{in: os.Stdin, tokens: config.KeyringWithFallback()})
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "transcribeer",
		Short:        "Transcribe audio and review the transcripts",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
# Start the terminal UI (default)
transcribeer

# Start the desktop UI (binary built with -tags fyne)
transcribeer ui

# Transcribe a recording into a new project
transcribeer transcribe interview.wav

# List projects and export one as HTML
transcribeer projects list
transcribeer export 3 --format html -o interview.html
`),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.ConfigFile, "config", "", "Config file (default: per-user config.yaml)")
	cmd.PersistentFlags().StringVar(&app.StoreDriver, "store", "", "Project store driver: sqlite|postgres")
	cmd.PersistentFlags().StringVar(&app.StorePath, "db", "", "SQLite database file")
	cmd.PersistentFlags().StringVar(&app.DSN, "dsn", "", "Postgres connection string")
	cmd.PersistentFlags().StringVar(&app.BaseURL, "url", "", "Transcription service base URL")
	cmd.PersistentFlags().StringVar(&app.Tenant, "tenant", "", "Transcription tenant")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "Log level: debug|info|warn|error")
	cmd.PersistentFlags().BoolVar(&app.JSON, "json", false, "Machine-readable JSON output")

	cmd.AddCommand(newUICmd(app))
	cmd.AddCommand(newTUICmd(app))
	cmd.AddCommand(newProjectsCmd(app))
	cmd.AddCommand(newImportCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newTranscribeCmd(app))
	cmd.AddCommand(newSubmitCmd(app))
	cmd.AddCommand(newPingCmd(app))
	cmd.AddCommand(newLockCmd(app))
	cmd.AddCommand(newVersionCmd(app))

	return cmd
}

// init loads the config, applies global flags and configures logging and crash reports.
func (a *App) init(cmd *cobra.Command) error {
	var (
		cfg config.AppConfig
		err error
	)
	if a.ConfigFile != "" {
		cfg, err = config.LoadFile(a.ConfigFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return writeErr(cmd, fmt.Errorf("load config: %w", err))
	}
	if a.StoreDriver != "" {
		cfg.Store.Driver = a.StoreDriver
	}
	if a.StorePath != "" {
		cfg.Store.Path = a.StorePath
	}
	if a.DSN != "" {
		cfg.Store.DSN = a.DSN
	}
	if a.BaseURL != "" {
		cfg.Transcription.BaseURL = a.BaseURL
	}
	if a.Tenant != "" {
		cfg.Transcription.Tenant = a.Tenant
	}
	if a.LogLevel != "" {
		cfg.Logging.Level = a.LogLevel
	}
	a.cfg = cfg

	applog.Init(a.logOptions(cmd.ErrOrStderr()))
	if dir, err := config.DataDir(); err == nil {
		crash.ReportDir = filepath.Join(dir, "crash")
	}
	return nil
}

func (a *App) logOptions(w io.Writer) applog.Options {
	return applog.Options{
		Level:     a.cfg.Logging.Level,
		Format:    a.cfg.Logging.Format,
		AddSource: a.cfg.Logging.Source,
		File:      a.cfg.Logging.File,
		Writer:    w,
	}
}

// openStore opens the configured project store.
func (a *App) openStore(ctx context.Context) (storage.Store, error) {
	s, err := a.openDriver(ctx)
	if err != nil || a.wrapStore == nil {
		return s, err
	}
	return a.wrapStore(s), nil
}

func (a *App) openDriver(ctx context.Context) (storage.Store, error) {
	switch strings.ToLower(strings.TrimSpace(a.cfg.Store.Driver)) {
	case "", "sqlite":
		path, err := a.cfg.SQLitePath()
		if err != nil {
			return nil, err
		}
		return storage.OpenSQLite(path)
	case "postgres", "pg":
		return backend.OpenPG(ctx, a.cfg.Store.DSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q", a.cfg.Store.Driver)
	}
}

func (a *App) transcriber() *transcribe.Client {
	t := a.cfg.Transcription
	return transcribe.NewClient(t.BaseURL, t.Tenant, time.Duration(t.Timeout())*time.Millisecond)
}

func (a *App) player() *audio.ExecPlayer {
	p := audio.NewExecPlayer(a.cfg.Audio.Player, a.cfg.Audio.Args)
	if !p.Available() {
		applog.WithComponent("cli").Warn("audio player not found; playback will fail", slog.String("player", p.Command))
	}
	return p
}

// options builds the editor wiring shared by every front-end.
func (a *App) options(store storage.Store, n editor.Notifier) editor.Options {
	return editor.Options{
		Store:       store,
		Transcriber: a.transcriber(),
		Player:      a.player(),
		Notifier:    n,
		Settings:    config.Settings{Store: a.tokens},
		AccessCode:  a.cfg.UI.AccessCode,
		Debounce:    time.Duration(a.cfg.UI.DebounceMs) * time.Millisecond,
	}
}

// session opens the store and builds an ungated editor for one command.
// The returned close function flushes pending writes before closing the store.
func (a *App) session(cmd *cobra.Command) (*editor.App, func(), error) {
	store, err := a.openStore(cmd.Context())
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	opts := a.options(store, newNotifier(cmd.ErrOrStderr(), a.in, a.Yes))
	opts.NoGate = true
	core := editor.New(opts)
	if err := core.Refresh(cmd.Context()); err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return core, func() {
		core.Shutdown()
		if err := store.Close(); err != nil {
			applog.WithComponent("cli").Warn("close store failed", slog.Any("err", err))
		}
	}, nil
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
