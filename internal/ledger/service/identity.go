package service

import (
	"context"
	"errors"

	"idledger/internal/ledger/models"
	"idledger/internal/ledger/store"
	"idledger/pkg/domain"
	dErrors "idledger/pkg/domain-errors"
	audit "idledger/pkg/platform/audit"
	"idledger/pkg/platform/sentinel"
	"idledger/pkg/requestcontext"
)

// RegisterIdentity creates the caller's identity record with an empty
// credential list and the current ledger clock as registration time.
func (s *Service) RegisterIdentity(ctx context.Context, publicKey, identityHash []byte) (_ *models.Identity, err error) {
	ctx, done := s.begin(ctx, models.OpRegisterIdentity)
	defer func() { done(err) }()

	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	key, err := domain.PublicKeyFromBytes(publicKey)
	if err != nil {
		return nil, err
	}
	hash, err := domain.HashFromBytes(identityHash)
	if err != nil {
		return nil, err
	}

	var (
		identity *models.Identity
		now      uint64
	)
	err = s.runInTx(ctx, func(tx store.Tx) error {
		var err error
		if now, err = tx.AdvanceClock(ctx, requestcontext.Clock(ctx)); err != nil {
			return err
		}
		_, err = tx.FindIdentity(ctx, caller)
		if err == nil {
			return dErrors.New(dErrors.CodeConflict, "identity already registered for caller")
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity")
		}
		identity, err = models.NewIdentity(caller, hash, key, now)
		if err != nil {
			return err
		}
		return tx.SaveIdentity(ctx, identity)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementIdentitiesRegistered()
	}
	ctx = requestcontext.WithClock(ctx, now)
	s.emitAudit(ctx, audit.EventIdentityRegistered, caller, caller.String())
	return identity, nil
}

// UpdateIdentity replaces the caller's identity hash and public key. The
// registration time, credential list and revocation flag are unchanged.
func (s *Service) UpdateIdentity(ctx context.Context, newIdentityHash, newPublicKey []byte) (_ *models.Identity, err error) {
	ctx, done := s.begin(ctx, models.OpUpdateIdentity)
	defer func() { done(err) }()

	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	var updated models.Identity
	err = s.runInTx(ctx, func(tx store.Tx) error {
		current, err := findIdentity(ctx, tx, caller)
		if err != nil {
			return err
		}
		if err := current.CanMutate(); err != nil {
			return err
		}
		hash, err := domain.HashFromBytes(newIdentityHash)
		if err != nil {
			return err
		}
		key, err := domain.PublicKeyFromBytes(newPublicKey)
		if err != nil {
			return err
		}
		updated, err = current.WithCommitment(hash, key)
		if err != nil {
			return err
		}
		return tx.SaveIdentity(ctx, &updated)
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, audit.EventIdentityUpdated, caller, caller.String())
	return &updated, nil
}

// RevokeIdentity permanently revokes the caller's identity. A revoked
// identity accepts no further mutation.
func (s *Service) RevokeIdentity(ctx context.Context) (_ *models.Identity, err error) {
	ctx, done := s.begin(ctx, models.OpRevokeIdentity)
	defer func() { done(err) }()

	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	var revoked models.Identity
	err = s.runInTx(ctx, func(tx store.Tx) error {
		current, err := findIdentity(ctx, tx, caller)
		if err != nil {
			return err
		}
		revoked, err = current.AsRevoked()
		if err != nil {
			return err
		}
		return tx.SaveIdentity(ctx, &revoked)
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, audit.EventIdentityRevoked, caller, caller.String())
	return &revoked, nil
}

// GetIdentity returns the identity registered by owner.
func (s *Service) GetIdentity(ctx context.Context, owner domain.Address) (_ *models.Identity, err error) {
	ctx, done := s.begin(ctx, models.OpGetIdentity)
	defer func() { done(err) }()

	var identity *models.Identity
	err = s.runInTx(ctx, func(tx store.Tx) error {
		identity, err = findIdentity(ctx, tx, owner)
		return err
	})
	if err != nil {
		return nil, err
	}
	return identity, nil
}
