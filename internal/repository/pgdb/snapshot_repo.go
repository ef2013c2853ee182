package pgdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// SnapshotRepo хранит записи состояния в таблице state_snapshots (payload: JSONB).
type SnapshotRepo struct {
	pool *pgxpool.Pool
}

func NewSnapshotRepo(pool *pgxpool.Pool) *SnapshotRepo {
	return &SnapshotRepo{pool: pool}
}

func (s *SnapshotRepo) Load(ctx context.Context, key string) ([]byte, bool, error) {
	query := `
		SELECT payload
		FROM state_snapshots
		WHERE storage_key = $1;
	`

	var payload []byte
	if err := s.pool.QueryRow(ctx, query, key).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("%s: failed to load snapshot %q: %w", whereami.WhereAmI(), key, err)
	}

	return payload, true, nil
}

// Save идемпотентно заменяет запись по ключу.
func (s *SnapshotRepo) Save(ctx context.Context, key string, data []byte) error {
	query := `
		INSERT INTO state_snapshots (storage_key, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (storage_key) DO UPDATE
		SET payload = EXCLUDED.payload,
		    updated_at = EXCLUDED.updated_at;
	`

	if _, err := s.pool.Exec(ctx, query, key, data); err != nil {
		return fmt.Errorf("%s: failed to save snapshot %q: %w", whereami.WhereAmI(), key, err)
	}

	return nil
}
