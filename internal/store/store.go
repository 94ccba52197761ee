package store

import (
	"context"

	"swapScope/internal/model"
)

// SnapshotStore is a sink and source for pool snapshots.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap *model.PoolSnapshot) error
	// LoadLatest returns the highest-block snapshot for a pool. A zero
	// chainID matches any chain. ok is false when nothing is stored.
	LoadLatest(ctx context.Context, chainID uint64, pool string) (snap *model.PoolSnapshot, ok bool, err error)
}
