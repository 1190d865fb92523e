package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/FocuswithJustin/lectio/core/errors"
	"github.com/FocuswithJustin/lectio/core/sqlite"
	"github.com/FocuswithJustin/lectio/core/version"
	"github.com/FocuswithJustin/lectio/internal/cache"
)

const schema = `
CREATE TABLE IF NOT EXISTS chapter_cache (
	book_code    TEXT    NOT NULL,
	chapter      INTEGER NOT NULL,
	version_code TEXT    NOT NULL,
	verses       TEXT    NOT NULL,
	digest       TEXT    NOT NULL,
	updated_at   INTEGER NOT NULL,
	PRIMARY KEY (book_code, chapter, version_code)
)`

const upsert = `
INSERT INTO chapter_cache (book_code, chapter, version_code, verses, digest, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (book_code, chapter, version_code) DO UPDATE SET
	verses = excluded.verses,
	digest = excluded.digest,
	updated_at = excluded.updated_at`

// SQLite stores chapters in a chapter_cache table.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the cache database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.NewValidation("cache.path", "sqlite backend needs a path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.NewIO("mkdir", filepath.Dir(path), err)
		}
	}

	db, err := sqlite.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.NewIO("migrate", path, err)
	}
	return &SQLite{db: db, path: path}, nil
}

func (s *SQLite) Name() string { return BackendSQLite }

func (s *SQLite) Get(ctx context.Context, key cache.Key) ([]string, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT verses FROM chapter_cache WHERE book_code = ? AND chapter = ? AND version_code = ?`,
		key.Book, key.Chapter, string(key.Version),
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.NewIO("select", s.path, err)
	}

	var verses []string
	if err := json.Unmarshal([]byte(raw), &verses); err != nil {
		return nil, false, errors.NewParse("json", s.path, fmt.Sprintf("verses for %s: %v", key, err))
	}
	return verses, true, nil
}

func (s *SQLite) Put(ctx context.Context, key cache.Key, verses []string) error {
	return s.put(ctx, NewEntry(key, verses))
}

func (s *SQLite) put(ctx context.Context, e Entry) error {
	payload, err := json.Marshal(e.Verses)
	if err != nil {
		return errors.Wrap(err, "encode verses")
	}
	_, err = s.db.ExecContext(ctx, upsert,
		e.Key.Book, e.Key.Chapter, string(e.Key.Version), string(payload), e.Digest, e.UpdatedAt.UnixMilli())
	if err != nil {
		return errors.NewIO("upsert", s.path, err)
	}
	return nil
}

func (s *SQLite) List(ctx context.Context, fn func(Entry) error) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT book_code, chapter, version_code, verses, digest, updated_at
		 FROM chapter_cache ORDER BY book_code, chapter, version_code`)
	if err != nil {
		return errors.NewIO("select", s.path, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e       Entry
			ver     string
			raw     string
			updated int64
		)
		if err := rows.Scan(&e.Key.Book, &e.Key.Chapter, &ver, &raw, &e.Digest, &updated); err != nil {
			return errors.NewIO("scan", s.path, err)
		}
		e.Key.Version = version.Code(ver)
		e.UpdatedAt = time.UnixMilli(updated).UTC()
		if err := json.Unmarshal([]byte(raw), &e.Verses); err != nil {
			return errors.NewParse("json", s.path, fmt.Sprintf("verses for %s: %v", e.Key, err))
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chapter_cache`).Scan(&n); err != nil {
		return 0, errors.NewIO("count", s.path, err)
	}
	return n, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
