/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted as YAML in the user scope.
// Environment variables are read-only overrides applied on top at load time.
// The last accepted access code is not part of the file; it lives in the OS keychain.

type TranscriptionConfig struct {
	BaseURL   string `yaml:"base_url"`
	Tenant    string `yaml:"tenant"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"` // "sqlite" | "postgres"
	Path   string `yaml:"path"`   // sqlite file; empty means <data dir>/projects.sqlite
	DSN    string `yaml:"dsn"`    // postgres connection string
}

type AudioConfig struct {
	Player string   `yaml:"player"`
	Args   []string `yaml:"args"`
}

type UIConfig struct {
	// AccessCode is compared by the start-up gate. It is a convenience gate for shared
	// desktops, not an authorization mechanism: the value is readable by anyone with
	// access to this file.
	AccessCode string `yaml:"access_code"`
	DebounceMs int    `yaml:"debounce_ms"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int                 `yaml:"config_version"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Store         StoreConfig         `yaml:"store"`
	Audio         AudioConfig         `yaml:"audio"`
	UI            UIConfig            `yaml:"ui"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// DefaultAccessCode is used when ui.access_code is not configured.
const DefaultAccessCode = "transcribeer"

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Transcription: TranscriptionConfig{BaseURL: "http://localhost:8000", Tenant: "1", TimeoutMs: 10 * 60 * 1000},
		Store:         StoreConfig{Driver: "sqlite"},
		Audio:         AudioConfig{Player: "ffplay", Args: []string{"-nodisp", "-autoexit", "-loglevel", "error"}},
		UI:            UIConfig{AccessCode: DefaultAccessCode, DebounceMs: 1000},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvTranscribeURL     = "TRB_TRANSCRIBE_URL"
	EnvTranscribeTenant  = "TRB_TRANSCRIBE_TENANT"
	EnvTranscribeTimeout = "TRB_TRANSCRIBE_TIMEOUT_MS"
	EnvStoreDriver       = "TRB_STORE_DRIVER"
	EnvStorePath         = "TRB_STORE_PATH"
	EnvStoreDSN          = "TRB_PG_DSN"
	EnvAudioPlayer       = "TRB_AUDIO_PLAYER"
	EnvAccessCode        = "TRB_ACCESS_CODE"
	EnvLogLevel          = "TRB_LOG_LEVEL"
	EnvLogFormat         = "TRB_LOG_FORMAT"
	EnvLogSource         = "TRB_LOG_SOURCE"
	EnvLogFile           = "TRB_LOG_FILE"
	// EnvConfigDir relocates both the config file and the data directory.
	EnvConfigDir = "TRB_CONFIG_DIR"
)

func baseDir() (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvConfigDir)); v != "" {
		return v, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "Transcribeer")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "Transcribeer")
	default:
		home := os.Getenv("HOME")
		if home == "" {
			return "", errors.New("cannot resolve config directory")
		}
		base = filepath.Join(home, ".config", "transcribeer")
	}
	return base, nil
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	base, err := baseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "config.yaml"), nil
}

// DataDir returns the directory holding the local project database and crash reports.
func DataDir() (string, error) {
	base, err := baseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "data"), nil
}

// SQLitePath resolves the effective sqlite file for cfg.
func (c AppConfig) SQLitePath() (string, error) {
	if p := strings.TrimSpace(c.Store.Path); p != "" {
		return p, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "projects.sqlite"), nil
}

// Load reads the user config file (if present), applies defaults and merges environment
// overrides. A missing file is not an error; a malformed one is.
func Load() (AppConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Defaults()
		applyEnvOverrides(&cfg)
		return cfg, err
	}
	return LoadFile(path)
}

// LoadFile is Load for an explicit path.
func LoadFile(path string) (AppConfig, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg AppConfig
		if uerr := yaml.Unmarshal(data, &fileCfg); uerr != nil {
			applyEnvOverrides(&cfg)
			return cfg, fmt.Errorf("parse %s: %w", path, uerr)
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		applyEnvOverrides(&cfg)
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes the user config YAML to the default location.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

// SaveFile writes cfg to path, creating parent directories.
func SaveFile(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if v := strings.TrimSpace(src.Transcription.BaseURL); v != "" {
		dst.Transcription.BaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(src.Transcription.Tenant); v != "" {
		dst.Transcription.Tenant = v
	}
	if src.Transcription.TimeoutMs > 0 {
		dst.Transcription.TimeoutMs = src.Transcription.TimeoutMs
	}
	if v := strings.ToLower(strings.TrimSpace(src.Store.Driver)); v != "" {
		dst.Store.Driver = v
	}
	if v := strings.TrimSpace(src.Store.Path); v != "" {
		dst.Store.Path = v
	}
	if v := strings.TrimSpace(src.Store.DSN); v != "" {
		dst.Store.DSN = v
	}
	if v := strings.TrimSpace(src.Audio.Player); v != "" {
		dst.Audio.Player = v
		// args belong to the player they were written for
		dst.Audio.Args = append([]string(nil), src.Audio.Args...)
	} else if len(src.Audio.Args) > 0 {
		dst.Audio.Args = append([]string(nil), src.Audio.Args...)
	}
	if src.UI.AccessCode != "" {
		dst.UI.AccessCode = src.UI.AccessCode
	}
	if src.UI.DebounceMs > 0 {
		dst.UI.DebounceMs = src.UI.DebounceMs
	}
	if v := strings.TrimSpace(src.Logging.Level); v != "" {
		dst.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(src.Logging.Format); v != "" {
		dst.Logging.Format = strings.ToLower(v)
	}
	dst.Logging.Source = src.Logging.Source
	if v := strings.TrimSpace(src.Logging.File); v != "" {
		dst.Logging.File = v
	}
}

func parseBool(v string) bool {
	lv := strings.ToLower(strings.TrimSpace(v))
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvTranscribeURL)); v != "" {
		cfg.Transcription.BaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(os.Getenv(EnvTranscribeTenant)); v != "" {
		cfg.Transcription.Tenant = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTranscribeTimeout)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Transcription.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvStoreDriver)); v != "" {
		cfg.Store.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvStorePath)); v != "" {
		cfg.Store.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStoreDSN)); v != "" {
		cfg.Store.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAudioPlayer)); v != "" {
		cfg.Audio.Player = v
	}
	if v := os.Getenv(EnvAccessCode); v != "" {
		cfg.UI.AccessCode = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by the environment.
func EnvOverrideFor(key string) (string, bool) {
	names := map[string]string{
		"transcription.base_url":   EnvTranscribeURL,
		"transcription.tenant":     EnvTranscribeTenant,
		"transcription.timeout_ms": EnvTranscribeTimeout,
		"store.driver":             EnvStoreDriver,
		"store.path":               EnvStorePath,
		"store.dsn":                EnvStoreDSN,
		"audio.player":             EnvAudioPlayer,
		"ui.access_code":           EnvAccessCode,
		"logging.level":            EnvLogLevel,
		"logging.format":           EnvLogFormat,
		"logging.source":           EnvLogSource,
		"logging.file":             EnvLogFile,
	}
	env, ok := names[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}

// Timeout returns the transcription request timeout in milliseconds, falling back to the default.
func (t TranscriptionConfig) Timeout() int {
	if t.TimeoutMs <= 0 {
		return Defaults().Transcription.TimeoutMs
	}
	return t.TimeoutMs
}
