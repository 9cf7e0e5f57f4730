/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"transcribeer/internal/domain"
	applog "transcribeer/internal/log"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

// schemaVersion tracks the local SQLite schema.
// Bump this when you perform breaking schema changes and add migrations.
const schemaVersion = 2

// language=SQL
const (
	qInsertProject = `INSERT INTO projects(name, data, created_at, updated_at) VALUES(?, ?, ?, ?)`
	qListProjects  = `SELECT id, name, data FROM projects ORDER BY id`
	qGetProject    = `SELECT id, name, data FROM projects WHERE id = ?`
	qDeleteProject = `DELETE FROM projects WHERE id = ?`
	qExistsProject = `SELECT 1 FROM projects WHERE id = ?`
)

// SQLiteStore is the default Store, one database file per user.
type SQLiteStore struct {
	db   *sql.DB
	path string
	l    *slog.Logger
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite creates (if needed) and opens the database at path, enables WAL mode,
// ensures the meta/version tables and runs migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "open").With(slog.String("path", path))
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		l.Error("create data dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	// Convert to forward slashes for the SQLite URI.
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureProjectsTable(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure projects table failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Info("store ready")
	return &SQLiteStore{db: db, path: path, l: applog.WithComponent("storage")}, nil
}

// Path is the database file backing the store.
func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func now() string { return time.Now().UTC().Format(time.RFC3339Nano) }

func (s *SQLiteStore) Create(ctx context.Context, name string, data []domain.Segment) (int64, error) {
	raw, err := domain.EncodeSegments(data)
	if err != nil {
		return 0, fmt.Errorf("encode segments: %w", err)
	}
	ts := now()
	res, err := s.db.ExecContext(ctx, qInsertProject, name, string(raw), ts, ts)
	if err != nil {
		return 0, fmt.Errorf("insert project: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert project id: %w", err)
	}
	s.l.Debug("project created", slog.Int64("project_id", id), slog.Int("segments", len(data)))
	return id, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]domain.Project, error) {
	rows, err := s.db.QueryContext(ctx, qListProjects)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()
	var out []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id int64) (domain.Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx, qGetProject, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Project{}, ErrNotFound
	}
	return p, err
}

func (s *SQLiteStore) Update(ctx context.Context, id int64, p Patch) error {
	if p.Empty() {
		var one int
		err := s.db.QueryRowContext(ctx, qExistsProject, id).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if p.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *p.Name)
	}
	if p.Data != nil {
		raw, err := domain.EncodeSegments(*p.Data)
		if err != nil {
			return fmt.Errorf("encode segments: %w", err)
		}
		sets = append(sets, "data = ?")
		args = append(args, string(raw))
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, now(), id)
	q := "UPDATE projects SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update project %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, qDeleteProject, id)
	if err != nil {
		return fmt.Errorf("delete project %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	s.l.Debug("project deleted", slog.Int64("project_id", id))
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(r rowScanner) (domain.Project, error) {
	var (
		p   domain.Project
		raw string
	)
	if err := r.Scan(&p.ID, &p.Name, &raw); err != nil {
		return domain.Project{}, err
	}
	segs, err := domain.DecodeSegments([]byte(raw))
	if err != nil {
		return domain.Project{}, fmt.Errorf("project %d: %w", p.ID, err)
	}
	p.Data = segs
	return p, nil
}
