/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package backend provides the shared Postgres project store, selected with store.driver=postgres
// so several desks can review the same transcripts.
package backend

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"transcribeer/internal/domain"
	applog "transcribeer/internal/log"
	"transcribeer/internal/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// dialect=PostgreSQL
const (
	qInsert = `INSERT INTO projects(name, data) VALUES($1, $2::jsonb) RETURNING id`
	qList   = `SELECT id, name, data::text FROM projects ORDER BY id`
	qGet    = `SELECT id, name, data::text FROM projects WHERE id = $1`
	qDelete = `DELETE FROM projects WHERE id = $1`
	qExists = `SELECT 1 FROM projects WHERE id = $1`
)

// PGStore implements storage.Store on Postgres through the pgx database/sql driver.
type PGStore struct {
	db *sql.DB
	l  *slog.Logger
}

var _ storage.Store = (*PGStore)(nil)

// OpenPG connects, pings and applies the embedded migrations.
func OpenPG(ctx context.Context, dsn string) (*PGStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres dsn is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := applyMigrations(pctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &PGStore{db: db, l: applog.WithComponent("backend")}, nil
}

func (s *PGStore) Close() error { return s.db.Close() }

func (s *PGStore) Create(ctx context.Context, name string, data []domain.Segment) (int64, error) {
	raw, err := domain.EncodeSegments(data)
	if err != nil {
		return 0, fmt.Errorf("encode segments: %w", err)
	}
	var id int64
	if err := s.db.QueryRowContext(ctx, qInsert, name, string(raw)).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert project: %w", err)
	}
	s.l.Debug("project created", slog.Int64("project_id", id))
	return id, nil
}

func (s *PGStore) List(ctx context.Context) ([]domain.Project, error) {
	rows, err := s.db.QueryContext(ctx, qList)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.l.Warn("rows close", slog.Any("err", err))
		}
	}()
	var out []domain.Project
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PGStore) Get(ctx context.Context, id int64) (domain.Project, error) {
	p, err := scan(s.db.QueryRowContext(ctx, qGet, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Project{}, storage.ErrNotFound
	}
	return p, err
}

func (s *PGStore) Update(ctx context.Context, id int64, p storage.Patch) error {
	if p.Empty() {
		var one int
		err := s.db.QueryRowContext(ctx, qExists, id).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		return err
	}
	var (
		sets []string
		args []any
	)
	if p.Name != nil {
		args = append(args, *p.Name)
		sets = append(sets, "name = $"+strconv.Itoa(len(args)))
	}
	if p.Data != nil {
		raw, err := domain.EncodeSegments(*p.Data)
		if err != nil {
			return fmt.Errorf("encode segments: %w", err)
		}
		args = append(args, string(raw))
		sets = append(sets, "data = $"+strconv.Itoa(len(args))+"::jsonb")
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)
	q := "UPDATE projects SET " + strings.Join(sets, ", ") + " WHERE id = $" + strconv.Itoa(len(args))
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update project %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, qDelete, id)
	if err != nil {
		return fmt.Errorf("delete project %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type scanner interface{ Scan(dest ...any) error }

func scan(r scanner) (domain.Project, error) {
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

// applyMigrations applies embedded SQL migrations in filename order and records each version.
func applyMigrations(ctx context.Context, db *sql.DB) error {
	l := applog.WithOperation(applog.WithComponent("backend"), "migrate")
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	// dialect=PostgreSQL
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied := map[int64]bool{}
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("select schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return err
		}
		applied[v] = true
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, fname := range files {
		v, err := parseVersion(fname)
		if err != nil {
			return err
		}
		if applied[v] {
			continue
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", fname))
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(b)) == "" {
			continue
		}
		l.Info("applying migration", slog.String("file", fname))
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin %s: %w", fname, err)
		}
		if _, err := tx.ExecContext(ctx, string(b)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", fname, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version, name) VALUES($1, $2)`, v, fname); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", fname, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", fname, err)
		}
	}
	return nil
}

func parseVersion(name string) (int64, error) {
	base := path.Base(name)
	parts := strings.SplitN(base, "_", 2)
	if len(parts) < 2 {
		return 0, errors.New("invalid migration filename: " + name)
	}
	v, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return v, nil
}
