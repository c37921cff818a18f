package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"weightquest/internal/domain"
)

var _ domain.ProgressRepository = (*DB)(nil)

// LoadProgress returns the stored progress document for userID, or nil when
// the user has none.
func (d *DB) LoadProgress(ctx context.Context, userID int64) ([]byte, error) {
	var blob []byte
	err := d.sql.QueryRowContext(ctx,
		"SELECT data FROM user_progress WHERE user_id = $1;", userID,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return blob, nil
}

// SaveProgress upserts the progress document for userID.
func (d *DB) SaveProgress(ctx context.Context, userID int64, blob []byte) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO user_progress (user_id, data, updated_at) VALUES ($1, $2::jsonb, $3)
		 ON CONFLICT (user_id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at;`,
		userID, string(blob), time.Now().UTC(),
	)
	return err
}
