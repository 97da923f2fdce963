// Package postgres persists ledger records in PostgreSQL. Every apply runs in
// one transaction that holds a ledger-wide advisory lock, so applies are
// totally ordered the same way the in-process stores order them.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"idledger/internal/ledger/models"
	"idledger/internal/ledger/store"
	"idledger/pkg/domain"
	dErrors "idledger/pkg/domain-errors"
	"idledger/pkg/platform/sentinel"
)

//go:embed schema.sql
var schema string

const (
	defaultTxTimeout = 5 * time.Second
	// ledgerLockKey identifies the advisory lock serializing applies.
	ledgerLockKey = 0x1d1ed6e5
	// serializationFailure is the SQLSTATE for a serialization conflict.
	serializationFailure = "40001"
)

type Option func(*Store)

func WithTxTimeout(timeout time.Duration) Option {
	return func(s *Store) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

type Store struct {
	db      *sql.DB
	timeout time.Duration
}

func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, timeout: defaultTxTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Migrate creates the ledger tables if they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply ledger schema: %w", err)
	}
	return nil
}

func (s *Store) RunInTx(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if _, err := sqlTx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, ledgerLockKey); err != nil {
		return translate(err, "acquire ledger lock")
	}
	tx := &postgresTx{tx: sqlTx}
	if err := fn(tx); err != nil {
		if !tx.advanced {
			return err
		}
		// Keep the clock advance and drop everything written after it.
		if _, rbErr := sqlTx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT ledger_clock_advanced`); rbErr != nil {
			return errors.Join(err, translate(rbErr, "rollback to clock savepoint"))
		}
		if cErr := sqlTx.Commit(); cErr != nil {
			return errors.Join(err, translate(cErr, "commit ledger clock"))
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return translate(err, "commit ledger tx")
	}
	return nil
}

// Close is a no-op; the *sql.DB lifecycle is managed by the caller.
func (s *Store) Close() error {
	return nil
}

func translate(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == serializationFailure {
		return fmt.Errorf("%s: %w", op, sentinel.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

type postgresTx struct {
	tx       *sql.Tx
	advanced bool
}

func (t *postgresTx) FindIdentity(ctx context.Context, owner domain.Address) (*models.Identity, error) {
	var (
		identityHash []byte
		publicKey    []byte
		regTime      int64
		credentials  pq.ByteaArray
		identity     = models.Identity{Owner: owner}
	)
	err := t.tx.QueryRowContext(ctx, `
		SELECT identity_hash, registration_time, credentials, public_key, revoked
		FROM ledger_identities WHERE owner = $1`, owner.String(),
	).Scan(&identityHash, &regTime, &credentials, &publicKey, &identity.Revoked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find identity: %w", err)
	}
	if identity.IdentityHash, err = domain.HashFromBytes(identityHash); err != nil {
		return nil, fmt.Errorf("decode identity hash: %w", err)
	}
	if identity.PublicKey, err = domain.PublicKeyFromBytes(publicKey); err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}
	identity.RegistrationTime = uint64(regTime) //nolint:gosec // written from a uint64 below int64 max
	identity.Credentials = make([]domain.Hash, 0, len(credentials))
	for _, raw := range credentials {
		hash, err := domain.HashFromBytes(raw)
		if err != nil {
			return nil, fmt.Errorf("decode credential reference: %w", err)
		}
		identity.Credentials = append(identity.Credentials, hash)
	}
	return &identity, nil
}

func (t *postgresTx) SaveIdentity(ctx context.Context, identity *models.Identity) error {
	credentials := make([][]byte, 0, len(identity.Credentials))
	for _, hash := range identity.Credentials {
		credentials = append(credentials, hash.Bytes())
	}
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO ledger_identities (owner, identity_hash, registration_time, credentials, public_key, revoked)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (owner) DO UPDATE SET
			identity_hash = EXCLUDED.identity_hash,
			credentials = EXCLUDED.credentials,
			public_key = EXCLUDED.public_key,
			revoked = EXCLUDED.revoked`,
		identity.Owner.String(),
		identity.IdentityHash.Bytes(),
		int64(identity.RegistrationTime), //nolint:gosec // ledger clock values stay below int64 max
		pq.ByteaArray(credentials),
		identity.PublicKey.Bytes(),
		identity.Revoked,
	)
	if err != nil {
		return translate(err, "save identity")
	}
	return nil
}

func (t *postgresTx) FindCredential(ctx context.Context, hash domain.Hash) (*models.Credential, error) {
	var (
		issuer         string
		issuanceTime   int64
		expirationTime int64
		credential     = models.Credential{Hash: hash}
	)
	err := t.tx.QueryRowContext(ctx, `
		SELECT issuer, issuance_time, expiration_time, category, revoked
		FROM ledger_credentials WHERE hash = $1`, hash.Bytes(),
	).Scan(&issuer, &issuanceTime, &expirationTime, &credential.Category, &credential.Revoked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find credential: %w", err)
	}
	credential.Issuer = domain.Address(issuer)
	credential.IssuanceTime = uint64(issuanceTime)     //nolint:gosec // written from a uint64 below int64 max
	credential.ExpirationTime = uint64(expirationTime) //nolint:gosec // bounded by MaxExpirationTime
	return &credential, nil
}

func (t *postgresTx) SaveCredential(ctx context.Context, credential *models.Credential) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO ledger_credentials (hash, issuer, issuance_time, expiration_time, category, revoked)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (hash) DO UPDATE SET
			issuer = EXCLUDED.issuer,
			issuance_time = EXCLUDED.issuance_time,
			expiration_time = EXCLUDED.expiration_time,
			category = EXCLUDED.category,
			revoked = EXCLUDED.revoked`,
		credential.Hash.Bytes(),
		credential.Issuer.String(),
		int64(credential.IssuanceTime),   //nolint:gosec // ledger clock values stay below int64 max
		int64(credential.ExpirationTime), //nolint:gosec // bounded by MaxExpirationTime
		credential.Category,
		credential.Revoked,
	)
	if err != nil {
		return translate(err, "save credential")
	}
	return nil
}

func (t *postgresTx) FindDisclosureRequest(ctx context.Context, id domain.Hash) (*models.DisclosureRequest, error) {
	var (
		requester  string
		attributes pq.StringArray
		proof      []byte
		request    = models.DisclosureRequest{ID: id}
	)
	err := t.tx.QueryRowContext(ctx, `
		SELECT requester, requested_attributes, approved, proof
		FROM ledger_disclosure_requests WHERE id = $1`, id.Bytes(),
	).Scan(&requester, &attributes, &request.Approved, &proof)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find disclosure request: %w", err)
	}
	if request.Proof, err = domain.HashFromBytes(proof); err != nil {
		return nil, fmt.Errorf("decode proof: %w", err)
	}
	request.Requester = domain.Address(requester)
	request.RequestedAttributes = append([]string{}, attributes...)
	return &request, nil
}

func (t *postgresTx) SaveDisclosureRequest(ctx context.Context, request *models.DisclosureRequest) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO ledger_disclosure_requests (id, requester, requested_attributes, approved, proof)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			requester = EXCLUDED.requester,
			requested_attributes = EXCLUDED.requested_attributes,
			approved = EXCLUDED.approved,
			proof = EXCLUDED.proof`,
		request.ID.Bytes(),
		request.Requester.String(),
		pq.Array(request.RequestedAttributes),
		request.Approved,
		request.Proof.Bytes(),
	)
	if err != nil {
		return translate(err, "save disclosure request")
	}
	return nil
}

func (t *postgresTx) AdvanceClock(ctx context.Context, now uint64) (uint64, error) {
	var last int64
	err := t.tx.QueryRowContext(ctx, `SELECT value FROM ledger_clock WHERE id = 1`).Scan(&last)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("read ledger clock: %w", err)
	}
	if now <= uint64(last) { //nolint:gosec // written from a uint64 below int64 max
		return uint64(last), nil //nolint:gosec // same as above
	}
	if _, err := t.tx.ExecContext(ctx, `
		INSERT INTO ledger_clock (id, value) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET value = EXCLUDED.value`,
		int64(now), //nolint:gosec // ledger clock values stay below int64 max
	); err != nil {
		return 0, translate(err, "advance ledger clock")
	}
	if _, err := t.tx.ExecContext(ctx, `SAVEPOINT ledger_clock_advanced`); err != nil {
		return 0, translate(err, "mark clock savepoint")
	}
	t.advanced = true
	return now, nil
}
