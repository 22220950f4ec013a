package sqlstore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeQuery(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"placeholders kept", "SELECT * FROM items WHERE id = $1 AND user_id = $12", "SELECT * FROM items WHERE id = $1 AND user_id = $12"},
		{"string literal", "SELECT * FROM items WHERE access_token = 'access-sandbox-1'", "SELECT * FROM items WHERE access_token = '?'"},
		{"escaped quote", "SELECT 'it''s'", "SELECT '?'"},
		{"numeric literal", "SELECT * FROM t WHERE amount > 12.5", "SELECT * FROM t WHERE amount > ?"},
		{"identifier digits kept", "SELECT col1 FROM t2", "SELECT col1 FROM t2"},
		{"whitespace collapsed", "SELECT\n\t\tid\n\tFROM items", "SELECT id FROM items"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeQuery(tt.input))
		})
	}

	long := sanitizeQuery("SELECT " + strings.Repeat("a", 400))
	assert.True(t, strings.HasSuffix(long, "..."))
	assert.Len(t, long, 259)
}

func TestExtractSQLVerb(t *testing.T) {
	assert.Equal(t, "SELECT", extractSQLVerb("  select id from x"))
	assert.Equal(t, "INSERT", extractSQLVerb("\n\t\tINSERT INTO x"))
	assert.Equal(t, "COMMIT", extractSQLVerb("commit"))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "")
	assert.Error(t, err)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO institutions (id, institution_id, name, created_at) VALUES ($1, $2, $3, CURRENT_TIMESTAMP)`,
			"i1", "ins_1", "Bank")
		require.NoError(t, err)
		return boom
	})
	assert.True(t, errors.Is(err, boom))

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM institutions`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	applied, err := Migrate(ctx, db)
	require.NoError(t, err)
	assert.Empty(t, applied)

	status, err := Status(ctx, db)
	require.NoError(t, err)
	require.NotEmpty(t, status)
	for _, s := range status {
		assert.True(t, s.Applied, "migration %d not applied", s.Version)
	}
}
