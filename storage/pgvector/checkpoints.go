package pgvector

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/storage"
)

// SaveCheckpoint stamps UpdatedAt and replaces the checkpoint of the
// processor and collection.
func (s *Store) SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error {
	if checkpoint == nil || checkpoint.Processor == "" {
		return errors.New("checkpoint processor is required")
	}
	if err := storage.ValidateCollection(checkpoint.Collection); err != nil {
		return err
	}
	checkpoint.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	_, err := s.pool.Exec(ctx, `
INSERT INTO lexis_checkpoints (processor, collection, record) VALUES ($1, $2, $3)
ON CONFLICT (processor, collection) DO UPDATE SET record = EXCLUDED.record`,
		checkpoint.Processor, checkpoint.Collection, storage.MarshalCheckpoint(checkpoint))
	return storage.Unavailable(err)
}

// LoadCheckpoint returns nil, nil if no checkpoint exists.
func (s *Store) LoadCheckpoint(ctx context.Context, processor, collection string) (*core.Checkpoint, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT record FROM lexis_checkpoints WHERE processor = $1 AND collection = $2`,
		processor, collection).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storage.Unavailable(err)
	}
	return storage.UnmarshalCheckpoint(data)
}

func (s *Store) DeleteCheckpoint(ctx context.Context, processor, collection string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM lexis_checkpoints WHERE processor = $1 AND collection = $2`,
		processor, collection)
	return storage.Unavailable(err)
}
