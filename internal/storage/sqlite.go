package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Adda-Baaj/durjog-khobor/internal/domain"
)

// SQLiteStore keeps articles in one table: indexed timestamp columns plus
// the JSON document.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) a SQLite database at path in WAL
// mode with a busy timeout. Transactions take the write lock up front so
// overlapping passes wait instead of failing.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite store path is empty")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect sqlite store: %w", err)
	}
	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS articles (
			url TEXT PRIMARY KEY,
			published_at INTEGER NOT NULL,
			scraped_at INTEGER NOT NULL,
			data TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create articles table: %w", err)
	}
	for _, stmt := range []string{
		`CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles(published_at)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_scraped_at ON articles(scraped_at)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("create articles index: %w", err)
		}
	}
	return nil
}

func column(f Field) string {
	if f == FieldScraped {
		return "scraped_at"
	}
	return "published_at"
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, url string) (domain.Article, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM articles WHERE url = ?`, url).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Article{}, ErrNotFound
	}
	if err != nil {
		return domain.Article{}, fmt.Errorf("get %s: %w", url, err)
	}
	var a domain.Article
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return domain.Article{}, fmt.Errorf("decode %s: %w", url, err)
	}
	return a, nil
}

// Upsert implements Store.
func (s *SQLiteStore) Upsert(ctx context.Context, a domain.Article) (UpsertResult, error) {
	if err := validateArticle(a); err != nil {
		return Inserted, err
	}
	a.Normalize()
	raw, err := json.Marshal(a)
	if err != nil {
		return Inserted, fmt.Errorf("encode article: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Inserted, fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result := Inserted
	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM articles WHERE url = ?`, a.URL).Scan(&exists)
	switch {
	case err == nil:
		result = Updated
	case !errors.Is(err, sql.ErrNoRows):
		return Inserted, fmt.Errorf("upsert %s: %w", a.URL, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO articles (url, published_at, scraped_at, data) VALUES (?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			published_at = excluded.published_at,
			scraped_at = excluded.scraped_at,
			data = excluded.data
	`, a.URL, a.PublishedAt.UnixNano(), a.ScrapedAt.UnixNano(), string(raw))
	if err != nil {
		return Inserted, fmt.Errorf("upsert %s: %w", a.URL, err)
	}
	if err := tx.Commit(); err != nil {
		return Inserted, fmt.Errorf("commit upsert %s: %w", a.URL, err)
	}
	return result, nil
}

// DeleteOlderThan implements Store.
func (s *SQLiteStore) DeleteOlderThan(ctx context.Context, field Field, cutoff time.Time) (int, error) {
	if err := field.validate(); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM articles WHERE `+column(field)+` < ?`, cutoff.UTC().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("delete older than %s: %w", cutoff.Format(time.RFC3339), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete older than: %w", err)
	}
	return int(n), nil
}

// ListSince implements Store.
func (s *SQLiteStore) ListSince(ctx context.Context, field Field, cutoff time.Time) ([]domain.Article, error) {
	if err := field.validate(); err != nil {
		return nil, err
	}
	col := column(field)
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM articles WHERE `+col+` >= ? ORDER BY `+col+` DESC`, cutoff.UTC().UnixNano())
	if err != nil {
		return nil, fmt.Errorf("list since %s: %w", cutoff.Format(time.RFC3339), err)
	}
	defer rows.Close()

	out := []domain.Article{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		var a domain.Article
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			return nil, fmt.Errorf("decode article: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list since: %w", err)
	}
	return out, nil
}

// DeleteAll implements Store.
func (s *SQLiteStore) DeleteAll(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM articles`)
	if err != nil {
		return 0, fmt.Errorf("delete all: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete all: %w", err)
	}
	return int(n), nil
}

// Count implements Store.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return n, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
