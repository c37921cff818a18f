package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressRepository(t *testing.T) {
	db := New()
	ctx := context.Background()

	blob, err := db.LoadProgress(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, blob)

	require.NoError(t, db.SaveProgress(ctx, 1, []byte(`{"goalPounds":30}`)))
	require.NoError(t, db.SaveProgress(ctx, 2, []byte(`{"goalPounds":10}`)))

	blob, err = db.LoadProgress(ctx, 1)
	require.NoError(t, err)
	assert.JSONEq(t, `{"goalPounds":30}`, string(blob))

	// Callers cannot alias the stored bytes.
	blob[0] = 'x'
	again, err := db.LoadProgress(ctx, 1)
	require.NoError(t, err)
	assert.JSONEq(t, `{"goalPounds":30}`, string(again))

	require.NoError(t, db.SaveProgress(ctx, 1, []byte(`{"goalPounds":5}`)))
	blob, err = db.LoadProgress(ctx, 1)
	require.NoError(t, err)
	assert.JSONEq(t, `{"goalPounds":5}`, string(blob))
}

func TestUserRepository(t *testing.T) {
	db := New()
	ctx := context.Background()

	count, err := db.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	u, err := db.Create(ctx, "alice", "hash")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)

	_, err = db.Create(ctx, "alice", "other")
	assert.ErrorIs(t, err, ErrUserExists)

	got, err := db.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "hash", got.PasswordHash)

	got, err = db.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Username)

	missing, err := db.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Nil(t, missing)

	count, err = db.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSessionRepository(t *testing.T) {
	db := New()
	repo := db.NewSessionRepo()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, 1, "live", "ua", "127.0.0.1", time.Now().Add(time.Hour)))
	require.NoError(t, repo.Create(ctx, 1, "stale", "ua", "127.0.0.1", time.Now().Add(-time.Hour)))

	s, err := repo.GetByToken(ctx, "live")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "ua", s.UserAgent)
	assert.Equal(t, "127.0.0.1", s.IP)

	require.NoError(t, repo.DeleteExpired(ctx))
	s, err = repo.GetByToken(ctx, "stale")
	require.NoError(t, err)
	assert.Nil(t, s)

	require.NoError(t, repo.Delete(ctx, "live"))
	s, err = repo.GetByToken(ctx, "live")
	require.NoError(t, err)
	assert.Nil(t, s)
}
