package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to WEIGHTQUEST_TEST_DATABASE_URL or skips.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("WEIGHTQUEST_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("WEIGHTQUEST_TEST_DATABASE_URL not set")
	}
	db, err := Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestProgressRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	userID := time.Now().UnixNano()
	t.Cleanup(func() {
		_, _ = db.sql.ExecContext(ctx, "DELETE FROM user_progress WHERE user_id = $1", userID)
	})

	blob, err := db.LoadProgress(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, blob)

	require.NoError(t, db.SaveProgress(ctx, userID, []byte(`{"goalPounds":30,"entries":[]}`)))
	require.NoError(t, db.SaveProgress(ctx, userID, []byte(`{"goalPounds":20,"entries":[]}`)))

	blob, err = db.LoadProgress(ctx, userID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"goalPounds":20,"entries":[]}`, string(blob))
}

func TestSessionRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	name := "pgtest-" + time.Now().Format("150405.000000000")

	u, err := db.Create(ctx, name, "hash")
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = db.sql.ExecContext(ctx, "DELETE FROM users WHERE id = $1", u.ID)
	})

	sessions := NewSessionRepo(db)
	require.NoError(t, sessions.Create(ctx, u.ID, name, "ua", "10.0.0.2", time.Now().Add(time.Hour)))

	s, err := sessions.GetByToken(ctx, name)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "ua", s.UserAgent)
	assert.Equal(t, "10.0.0.2", s.IP)

	require.NoError(t, sessions.Delete(ctx, name))
	s, err = sessions.GetByToken(ctx, name)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestAccountsLookupAndSessionExpiry(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	name := "pgacct-" + time.Now().Format("150405.000000000")

	u, err := db.Create(ctx, name, "hash")
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = db.sql.ExecContext(ctx, "DELETE FROM users WHERE id = $1", u.ID)
	})
	assert.Equal(t, time.UTC, u.CreatedAt.Location())

	byID, err := db.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, name, byID.Username)

	missing, err := db.GetByUsername(ctx, name+"-absent")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = db.Create(ctx, name, "other")
	assert.Error(t, err, "usernames are unique")

	sessions := NewSessionRepo(db)
	stale, live := name+"-stale", name+"-live"
	require.NoError(t, sessions.Create(ctx, u.ID, stale, "", "", time.Now().Add(-time.Minute)))
	require.NoError(t, sessions.Create(ctx, u.ID, live, "", "", time.Now().Add(time.Hour)))

	require.NoError(t, sessions.DeleteExpired(ctx))

	s, err := sessions.GetByToken(ctx, stale)
	require.NoError(t, err)
	assert.Nil(t, s)
	s, err = sessions.GetByToken(ctx, live)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, time.UTC, s.ExpiresAt.Location())
}
