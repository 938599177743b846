package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("record not found")

// SQLiteStore 基于 SQLite (WAL 模式) 的持久化实现
// SQLiteStore implements Journal using SQLite with WAL mode
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore 创建并初始化 SQLite 数据库
// NewSQLiteStore creates and initializes a SQLite database
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// 启用 WAL 模式和优化 PRAGMA / Enable WAL and performance PRAGMAs
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	store := &SQLiteStore{db: db, path: dbPath}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS activity (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		action     TEXT NOT NULL,
		status     TEXT NOT NULL,
		target     TEXT NOT NULL DEFAULT '',
		detail     TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS drafts (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		body       TEXT NOT NULL DEFAULT '',
		status     TEXT NOT NULL,
		path       TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_activity_created ON activity(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close 关闭数据库连接 / Close the database connection
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// --- Activity ---

func (s *SQLiteStore) RecordActivity(ctx context.Context, a Activity) error {
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	status := strings.TrimSpace(a.Status)
	if status == "" {
		status = StatusOK
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity (action, status, target, detail, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		strings.TrimSpace(a.Action), status, a.Target, a.Detail, formatTime(created))
	if err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	return nil
}

// ListActivity returns the newest entries first.
func (s *SQLiteStore) ListActivity(ctx context.Context, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, action, status, target, detail, created_at
		FROM activity ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		var (
			a       Activity
			created string
		)
		if err := rows.Scan(&a.ID, &a.Action, &a.Status, &a.Target, &a.Detail, &created); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.CreatedAt = parseTime(created)
		out = append(out, a)
	}
	return out, rows.Err()
}

// --- Drafts ---

func (s *SQLiteStore) RecordDraft(ctx context.Context, d DraftRecord) error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("draft id is empty")
	}
	created := d.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO drafts (id, name, body, status, path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Name, d.Body, d.Status, d.Path, formatTime(created), formatTime(created))
	if err != nil {
		return fmt.Errorf("insert draft: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ResolveDraft(ctx context.Context, id, status, path string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE drafts SET status = ?, path = ?, updated_at = ? WHERE id = ?`,
		status, path, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("update draft: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update draft: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("draft %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListDrafts returns the newest drafts first. Bodies are left empty; use LoadDraft for one draft in full.
func (s *SQLiteStore) ListDrafts(ctx context.Context, limit int) ([]DraftRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, status, path, created_at, updated_at
		FROM drafts ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	var out []DraftRecord
	for rows.Next() {
		var (
			d                DraftRecord
			created, updated string
		)
		if err := rows.Scan(&d.ID, &d.Name, &d.Status, &d.Path, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan draft: %w", err)
		}
		d.CreatedAt = parseTime(created)
		d.UpdatedAt = parseTime(updated)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) LoadDraft(ctx context.Context, id string) (DraftRecord, error) {
	var (
		d                DraftRecord
		created, updated string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, body, status, path, created_at, updated_at
		FROM drafts WHERE id = ?`, id).
		Scan(&d.ID, &d.Name, &d.Body, &d.Status, &d.Path, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return DraftRecord{}, fmt.Errorf("draft %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return DraftRecord{}, fmt.Errorf("load draft: %w", err)
	}
	d.CreatedAt = parseTime(created)
	d.UpdatedAt = parseTime(updated)
	return d, nil
}

// --- Helpers ---

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
