// Package redis persists ledger records as JSON values in Redis.
//
// An apply WATCHes a ledger version key, reads through the watched
// connection, and commits staged writes together with a version bump in one
// MULTI/EXEC. A concurrent apply from another process aborts the EXEC and the
// apply is rerun from scratch, up to the configured number of attempts; only
// then does it surface as sentinel.ErrConflict. Applies within one process
// are serialized so they never conflict with each other.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"idledger/internal/ledger/models"
	"idledger/internal/ledger/store"
	"idledger/pkg/domain"
	"idledger/pkg/platform/sentinel"
)

const (
	defaultKeyPrefix  = "idledger:"
	defaultMaxRetries = 5
)

type Option func(*Store)

// WithKeyPrefix namespaces every key the store touches.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithMaxRetries bounds how many times an apply runs when other writers keep
// winning the race. Values below one are ignored.
func WithMaxRetries(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

type Store struct {
	mu         sync.Mutex
	client     *redis.Client
	prefix     string
	maxRetries int
}

func New(client *redis.Client, opts ...Option) *Store {
	s := &Store{client: client, prefix: defaultKeyPrefix, maxRetries: defaultMaxRetries}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Store) versionKey() string {
	return s.prefix + "version"
}

func (s *Store) clockKey() string {
	return s.prefix + "clock"
}

func (s *Store) RunInTx(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	apply := func(rtx *redis.Tx) error {
		tx := &redisTx{store: s, rtx: rtx, staged: make(map[string][]byte)}
		fnErr := fn(tx)
		if fnErr != nil {
			tx.keepClockOnly()
		}
		if len(tx.staged) == 0 {
			return fnErr
		}
		_, err := rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for key, val := range tx.staged {
				pipe.Set(ctx, key, val, 0)
			}
			pipe.Incr(ctx, s.versionKey())
			return nil
		})
		if err != nil {
			return err
		}
		return fnErr
	}

	for range s.maxRetries {
		err := s.client.Watch(ctx, apply, s.versionKey())
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("commit ledger tx after %d attempts: %w", s.maxRetries, sentinel.ErrConflict)
}

// Close is a no-op; the client lifecycle is managed externally.
func (s *Store) Close() error {
	return nil
}

type redisTx struct {
	store  *Store
	rtx    *redis.Tx
	staged map[string][]byte
}

func (t *redisTx) identityKey(owner domain.Address) string {
	return t.store.prefix + "identity:" + owner.String()
}

func (t *redisTx) credentialKey(hash domain.Hash) string {
	return t.store.prefix + "credential:" + hash.String()
}

func (t *redisTx) requestKey(id domain.Hash) string {
	return t.store.prefix + "disclosure:" + id.String()
}

func (t *redisTx) get(ctx context.Context, key string, out any) error {
	val, ok := t.staged[key]
	if !ok {
		var err error
		val, err = t.rtx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return sentinel.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
	}
	if err := json.Unmarshal(val, out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (t *redisTx) put(key string, in any) error {
	val, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	t.staged[key] = val
	return nil
}

func (t *redisTx) FindIdentity(ctx context.Context, owner domain.Address) (*models.Identity, error) {
	var identity models.Identity
	if err := t.get(ctx, t.identityKey(owner), &identity); err != nil {
		return nil, err
	}
	identity = identity.Clone()
	return &identity, nil
}

func (t *redisTx) SaveIdentity(_ context.Context, identity *models.Identity) error {
	return t.put(t.identityKey(identity.Owner), identity)
}

func (t *redisTx) FindCredential(ctx context.Context, hash domain.Hash) (*models.Credential, error) {
	var credential models.Credential
	if err := t.get(ctx, t.credentialKey(hash), &credential); err != nil {
		return nil, err
	}
	return &credential, nil
}

func (t *redisTx) SaveCredential(_ context.Context, credential *models.Credential) error {
	return t.put(t.credentialKey(credential.Hash), credential)
}

func (t *redisTx) FindDisclosureRequest(ctx context.Context, id domain.Hash) (*models.DisclosureRequest, error) {
	var request models.DisclosureRequest
	if err := t.get(ctx, t.requestKey(id), &request); err != nil {
		return nil, err
	}
	request = request.Clone()
	return &request, nil
}

func (t *redisTx) SaveDisclosureRequest(_ context.Context, request *models.DisclosureRequest) error {
	return t.put(t.requestKey(request.ID), request)
}

func (t *redisTx) AdvanceClock(ctx context.Context, now uint64) (uint64, error) {
	var last uint64
	if err := t.get(ctx, t.store.clockKey(), &last); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return 0, err
	}
	if now <= last {
		return last, nil
	}
	if err := t.put(t.store.clockKey(), now); err != nil {
		return 0, err
	}
	return now, nil
}

// keepClockOnly drops every staged write except a clock advance.
func (t *redisTx) keepClockOnly() {
	clock, ok := t.staged[t.store.clockKey()]
	clear(t.staged)
	if ok {
		t.staged[t.store.clockKey()] = clock
	}
}
