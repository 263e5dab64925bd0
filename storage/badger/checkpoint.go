// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/storage"
)

// CheckpointRepository stores one checkpoint per processor and collection
// under the checkpoint key prefix of the shared backend.
type CheckpointRepository struct {
	backend *Backend
}

var _ storage.CheckpointRepository = (*CheckpointRepository)(nil)

func NewCheckpointRepository(backend *Backend) *CheckpointRepository {
	return &CheckpointRepository{backend: backend}
}

func checkpointKey(processor, collection string) ([]byte, error) {
	if processor == "" {
		return nil, errors.New("checkpoint processor is required")
	}
	if err := storage.ValidateCollection(collection); err != nil {
		return nil, err
	}
	return makeCheckpointKey(processor, collection), nil
}

// SaveCheckpoint stamps UpdatedAt and replaces the stored checkpoint.
func (r *CheckpointRepository) SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error {
	if checkpoint == nil {
		return errors.New("checkpoint is nil")
	}
	key, err := checkpointKey(checkpoint.Processor, checkpoint.Collection)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	checkpoint.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(key, storage.MarshalCheckpoint(checkpoint)); err != nil {
			return fmt.Errorf("failed to store checkpoint: %w", err)
		}
		return tx.Commit()
	}, true)
}

// LoadCheckpoint returns nil, nil when no run is in progress.
func (r *CheckpointRepository) LoadCheckpoint(ctx context.Context, processor, collection string) (*core.Checkpoint, error) {
	key, err := checkpointKey(processor, collection)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var checkpoint *core.Checkpoint
	err = r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) (err error) {
			checkpoint, err = storage.UnmarshalCheckpoint(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return checkpoint, nil
}

func (r *CheckpointRepository) DeleteCheckpoint(ctx context.Context, processor, collection string) error {
	key, err := checkpointKey(processor, collection)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
