package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/quizlab/quizd/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=-64000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS answer_cache (
	question_hash TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	options       TEXT,
	question_type TEXT,
	answer        TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_answer_cache_created_at ON answer_cache(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetAnswer returns the cached entry for key, or nil when absent.
func (s *SQLiteStore) GetAnswer(ctx context.Context, key string) (*model.CacheEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT question_hash, title, options, question_type, answer, created_at, updated_at
		 FROM answer_cache WHERE question_hash = ?`, key,
	)

	var entry model.CacheEntry
	var options, kind sql.NullString
	err := row.Scan(&entry.Key, &entry.Title, &options, &kind, &entry.Answer, &entry.CreatedAt, &entry.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get answer %s", key)
	}
	entry.Options = options.String
	entry.Kind = model.Kind(kind.String)
	return &entry, nil
}

// PutAnswer upserts a validated answer. The write is idempotent and
// last-write-wins on the question hash.
func (s *SQLiteStore) PutAnswer(ctx context.Context, entry model.CacheEntry) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO answer_cache (question_hash, title, options, question_type, answer, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(question_hash) DO UPDATE SET
			answer = excluded.answer,
			question_type = excluded.question_type,
			updated_at = excluded.updated_at`,
		entry.Key, entry.Title, entry.Options, string(entry.Kind), entry.Answer, now, now,
	)
	return eris.Wrapf(err, "sqlite: put answer %s", entry.Key)
}

func (s *SQLiteStore) CountAnswers(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM answer_cache`).Scan(&count)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: count answers")
	}
	return count, nil
}

func (s *SQLiteStore) PurgeAnswers(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM answer_cache`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: purge answers")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: purge rows affected")
	}
	return int(n), nil
}
