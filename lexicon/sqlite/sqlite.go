package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"ltp.dev/ltpgo/lexicon"
)

type sqliteStore struct {
	db *sql.DB
}

// Open opens the lexicon database at path with WAL mode enabled.
func Open(ctx context.Context, path string) (lexicon.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS words (
	text TEXT PRIMARY KEY,
	freq INTEGER NOT NULL DEFAULT 1,
	created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (s *sqliteStore) Add(ctx context.Context, words []lexicon.Word) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO words (text, freq) VALUES (?, ?)
ON CONFLICT(text) DO UPDATE SET freq = MAX(freq, excluded.freq)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, w := range words {
		if _, err := stmt.ExecContext(ctx, w.Text, w.Freq); err != nil {
			return fmt.Errorf("add %q: %w", w.Text, err)
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) All(ctx context.Context) ([]lexicon.Word, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT text, freq FROM words ORDER BY text`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var words []lexicon.Word
	for rows.Next() {
		var w lexicon.Word
		if err := rows.Scan(&w.Text, &w.Freq); err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	return words, rows.Err()
}
