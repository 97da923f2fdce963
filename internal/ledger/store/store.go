// Package store defines the persistence contract of the ledger. Backends live
// in subpackages; the service depends only on these interfaces so records can
// sit in memory, an embedded KV store, Redis or PostgreSQL without rewiring.
package store

import (
	"context"

	"idledger/internal/ledger/models"
	"idledger/pkg/domain"
)

// Tx is the record-level view of the ledger inside one atomic apply. Finds
// return sentinel.ErrNotFound for missing keys. Returned records are copies;
// callers persist changes with the matching Save.
type Tx interface {
	FindIdentity(ctx context.Context, owner domain.Address) (*models.Identity, error)
	SaveIdentity(ctx context.Context, identity *models.Identity) error

	FindCredential(ctx context.Context, hash domain.Hash) (*models.Credential, error)
	SaveCredential(ctx context.Context, credential *models.Credential) error

	FindDisclosureRequest(ctx context.Context, id domain.Hash) (*models.DisclosureRequest, error)
	SaveDisclosureRequest(ctx context.Context, request *models.DisclosureRequest) error

	// AdvanceClock returns the ledger clock for this apply: the larger of now
	// and the clock of the latest apply that advanced it. The advance is kept
	// even when fn fails, so no later apply observes an earlier clock. Call it
	// before any Save.
	AdvanceClock(ctx context.Context, now uint64) (uint64, error)
}

// Store applies fn atomically and serially relative to every other RunInTx.
// If fn returns an error, none of its writes become visible.
type Store interface {
	RunInTx(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}
