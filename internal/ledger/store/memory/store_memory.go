package memory

import (
	"context"
	"sync"

	"idledger/internal/ledger/models"
	"idledger/internal/ledger/store"
	"idledger/pkg/domain"
	"idledger/pkg/platform/sentinel"
)

// InMemory keeps the three record stores in maps guarded by one lock. Each
// RunInTx stages its writes and applies them only when fn succeeds.
type InMemory struct {
	mu          sync.Mutex
	identities  map[domain.Address]models.Identity
	credentials map[domain.Hash]models.Credential
	requests    map[domain.Hash]models.DisclosureRequest
	clock       uint64
}

func New() *InMemory {
	return &InMemory{
		identities:  make(map[domain.Address]models.Identity),
		credentials: make(map[domain.Hash]models.Credential),
		requests:    make(map[domain.Hash]models.DisclosureRequest),
	}
}

func (s *InMemory) RunInTx(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{
		base:        s,
		identities:  make(map[domain.Address]models.Identity),
		credentials: make(map[domain.Hash]models.Credential),
		requests:    make(map[domain.Hash]models.DisclosureRequest),
	}
	if err := fn(tx); err != nil {
		return err
	}
	for k, v := range tx.identities {
		s.identities[k] = v
	}
	for k, v := range tx.credentials {
		s.credentials[k] = v
	}
	for k, v := range tx.requests {
		s.requests[k] = v
	}
	return nil
}

func (s *InMemory) Close() error { return nil }

// memoryTx overlays staged writes on the committed maps.
type memoryTx struct {
	base        *InMemory
	identities  map[domain.Address]models.Identity
	credentials map[domain.Hash]models.Credential
	requests    map[domain.Hash]models.DisclosureRequest
}

func (t *memoryTx) FindIdentity(_ context.Context, owner domain.Address) (*models.Identity, error) {
	identity, ok := t.identities[owner]
	if !ok {
		identity, ok = t.base.identities[owner]
	}
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := identity.Clone()
	return &clone, nil
}

func (t *memoryTx) SaveIdentity(_ context.Context, identity *models.Identity) error {
	t.identities[identity.Owner] = identity.Clone()
	return nil
}

func (t *memoryTx) FindCredential(_ context.Context, hash domain.Hash) (*models.Credential, error) {
	credential, ok := t.credentials[hash]
	if !ok {
		credential, ok = t.base.credentials[hash]
	}
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &credential, nil
}

func (t *memoryTx) SaveCredential(_ context.Context, credential *models.Credential) error {
	t.credentials[credential.Hash] = *credential
	return nil
}

func (t *memoryTx) FindDisclosureRequest(_ context.Context, id domain.Hash) (*models.DisclosureRequest, error) {
	request, ok := t.requests[id]
	if !ok {
		request, ok = t.base.requests[id]
	}
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := request.Clone()
	return &clone, nil
}

func (t *memoryTx) SaveDisclosureRequest(_ context.Context, request *models.DisclosureRequest) error {
	t.requests[request.ID] = request.Clone()
	return nil
}

// AdvanceClock writes through to the store; the lock is held for the whole
// apply, so the advance survives a failed fn.
func (t *memoryTx) AdvanceClock(_ context.Context, now uint64) (uint64, error) {
	if now > t.base.clock {
		t.base.clock = now
	}
	return t.base.clock, nil
}
