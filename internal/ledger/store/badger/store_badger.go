// Package badger persists ledger records in an embedded badger database.
// Records are stored as JSON under typed key prefixes.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	"idledger/internal/ledger/models"
	"idledger/internal/ledger/store"
	"idledger/pkg/domain"
	"idledger/pkg/platform/sentinel"
)

const (
	identityPrefix   = "identity:"
	credentialPrefix = "credential:"
	requestPrefix    = "disclosure:"
	clockKey         = "ledger:clock"
)

type Option func(*Store)

// WithDataDir sets the on-disk location. An empty dir keeps the database in memory.
func WithDataDir(dir string) Option {
	return func(s *Store) {
		s.dataDir = dir
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithGCInterval enables periodic value-log garbage collection for
// disk-backed stores. Zero disables it.
func WithGCInterval(interval time.Duration) Option {
	return func(s *Store) {
		s.gcInterval = interval
	}
}

type Store struct {
	// mu serializes RunInTx so read-modify-write applies never hit
	// badger's optimistic conflict detection.
	mu         sync.Mutex
	db         *badgerdb.DB
	logger     *slog.Logger
	dataDir    string
	gcInterval time.Duration
	gcStop     chan struct{}
	gcWg       sync.WaitGroup
}

func New(opts ...Option) (*Store, error) {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var badgerOpts badgerdb.Options
	if s.dataDir == "" {
		badgerOpts = badgerdb.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		badgerOpts = badgerdb.DefaultOptions(s.dataDir)
	}
	badgerOpts = badgerOpts.
		WithLogger(NewLogger(s.logger)).
		WithLoggingLevel(badgerdb.WARNING)

	db, err := badgerdb.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	s.db = db

	if s.dataDir != "" && s.gcInterval > 0 {
		s.gcStop = make(chan struct{})
		s.gcWg.Add(1)
		go s.runGC()
	}
	return s, nil
}

func (s *Store) runGC() {
	defer s.gcWg.Done()
	ticker := time.NewTicker(s.gcInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			for {
				err := s.db.RunValueLogGC(0.5)
				if err == nil {
					continue
				}
				if !errors.Is(err, badgerdb.ErrNoRewrite) {
					s.logger.Warn("value log gc failed", "error", err, "component", "ledger_store")
				}
				break
			}
		case <-s.gcStop:
			return
		}
	}
}

func (s *Store) RunInTx(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &badgerTx{}
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		tx.txn = txn
		return fn(tx)
	})
	if err != nil && tx.advanced {
		// fn failed after advancing the clock; the advance stands alone.
		if clockErr := s.db.Update(func(txn *badgerdb.Txn) error {
			return (&badgerTx{txn: txn}).put([]byte(clockKey), tx.clock)
		}); clockErr != nil {
			return errors.Join(err, fmt.Errorf("persist ledger clock: %w", clockErr))
		}
	}
	return err
}

func (s *Store) Close() error {
	if s.gcStop != nil {
		close(s.gcStop)
		s.gcWg.Wait()
		s.gcStop = nil
	}
	return s.db.Close()
}

type badgerTx struct {
	txn      *badgerdb.Txn
	clock    uint64
	advanced bool
}

func identityKey(owner domain.Address) []byte {
	return []byte(identityPrefix + owner.String())
}

func credentialKey(hash domain.Hash) []byte {
	return []byte(credentialPrefix + hash.String())
}

func requestKey(id domain.Hash) []byte {
	return []byte(requestPrefix + id.String())
}

func (t *badgerTx) get(key []byte, out any) error {
	item, err := t.txn.Get(key)
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}

func (t *badgerTx) put(key []byte, in any) error {
	val, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return t.txn.Set(key, val)
}

func (t *badgerTx) FindIdentity(_ context.Context, owner domain.Address) (*models.Identity, error) {
	var identity models.Identity
	if err := t.get(identityKey(owner), &identity); err != nil {
		return nil, err
	}
	identity = identity.Clone()
	return &identity, nil
}

func (t *badgerTx) SaveIdentity(_ context.Context, identity *models.Identity) error {
	return t.put(identityKey(identity.Owner), identity)
}

func (t *badgerTx) FindCredential(_ context.Context, hash domain.Hash) (*models.Credential, error) {
	var credential models.Credential
	if err := t.get(credentialKey(hash), &credential); err != nil {
		return nil, err
	}
	return &credential, nil
}

func (t *badgerTx) SaveCredential(_ context.Context, credential *models.Credential) error {
	return t.put(credentialKey(credential.Hash), credential)
}

func (t *badgerTx) FindDisclosureRequest(_ context.Context, id domain.Hash) (*models.DisclosureRequest, error) {
	var request models.DisclosureRequest
	if err := t.get(requestKey(id), &request); err != nil {
		return nil, err
	}
	request = request.Clone()
	return &request, nil
}

func (t *badgerTx) SaveDisclosureRequest(_ context.Context, request *models.DisclosureRequest) error {
	return t.put(requestKey(request.ID), request)
}

func (t *badgerTx) AdvanceClock(_ context.Context, now uint64) (uint64, error) {
	var last uint64
	if err := t.get([]byte(clockKey), &last); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return 0, err
	}
	if now <= last {
		return last, nil
	}
	if err := t.put([]byte(clockKey), now); err != nil {
		return 0, err
	}
	t.clock, t.advanced = now, true
	return now, nil
}
