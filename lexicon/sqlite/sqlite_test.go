package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"ltp.dev/ltpgo/lexicon"
)

func TestSchemaCreationIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "lexicon.db"))
	require.NoError(t, err)
	defer db.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, initSchema(ctx, db))
	}

	var count int
	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestStorePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lexicon.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Add(ctx, []lexicon.Word{{Text: "汤姆去", Freq: 2}, {Text: "SCSG", Freq: 5}}))
	require.NoError(t, s.Add(ctx, []lexicon.Word{{Text: "SCSG", Freq: 1}, {Text: "汤姆去", Freq: 4}}))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	words, err := s.All(ctx)
	require.NoError(t, err)
	require.Equal(t, []lexicon.Word{{Text: "SCSG", Freq: 5}, {Text: "汤姆去", Freq: 4}}, words)
}
