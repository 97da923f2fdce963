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

// AddCredential records a credential issued by the caller and appends its
// hash to the caller's identity. Checks run in this order: identity exists,
// identity not revoked, hash length, expiration bounds, expiration in the
// future, category, duplicate hash (strict mode only), list capacity.
//
// In legacy mode an existing credential with the same hash is overwritten,
// whoever issued it.
func (s *Service) AddCredential(ctx context.Context, credentialHash []byte, expirationTime uint64, category string) (_ *models.Credential, _ *models.Identity, err error) {
	ctx, done := s.begin(ctx, models.OpAddCredential)
	defer func() { done(err) }()

	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, nil, err
	}

	var (
		credential *models.Credential
		updated    models.Identity
		now        uint64
	)
	err = s.runInTx(ctx, func(tx store.Tx) error {
		var err error
		if now, err = tx.AdvanceClock(ctx, requestcontext.Clock(ctx)); err != nil {
			return err
		}
		identity, err := findIdentity(ctx, tx, caller)
		if err != nil {
			return err
		}
		if err := identity.CanMutate(); err != nil {
			return err
		}
		hash, err := domain.HashFromBytes(credentialHash)
		if err != nil {
			return err
		}
		credential, err = models.NewCredential(hash, caller, expirationTime, category, now)
		if err != nil {
			return err
		}
		if s.mode.IsStrict() {
			_, err := tx.FindCredential(ctx, hash)
			if err == nil {
				return dErrors.New(dErrors.CodeConflict, "credential hash already recorded")
			}
			if !errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load credential")
			}
		}
		updated, err = identity.WithCredential(hash)
		if err != nil {
			return err
		}
		if err := tx.SaveCredential(ctx, credential); err != nil {
			return err
		}
		return tx.SaveIdentity(ctx, &updated)
	})
	if err != nil {
		return nil, nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementCredentialsIssued()
	}
	ctx = requestcontext.WithClock(ctx, now)
	s.emitAudit(ctx, audit.EventCredentialAdded, caller, credential.Hash.String())
	return credential, &updated, nil
}

// RevokeCredential marks a credential revoked. Only its issuer may do so.
// The holder's identity and its credential list are untouched.
func (s *Service) RevokeCredential(ctx context.Context, credentialHash []byte) (_ *models.Credential, err error) {
	ctx, done := s.begin(ctx, models.OpRevokeCredential)
	defer func() { done(err) }()

	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	hash, err := domain.HashFromBytes(credentialHash)
	if err != nil {
		return nil, err
	}

	var revoked models.Credential
	err = s.runInTx(ctx, func(tx store.Tx) error {
		credential, err := findCredential(ctx, tx, hash)
		if err != nil {
			return err
		}
		revoked, err = credential.RevokedBy(caller)
		if err != nil {
			return err
		}
		return tx.SaveCredential(ctx, &revoked)
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, audit.EventCredentialRevoked, caller, hash.String())
	return &revoked, nil
}

// GetCredential returns the credential recorded under hash.
func (s *Service) GetCredential(ctx context.Context, hash domain.Hash) (_ *models.Credential, err error) {
	ctx, done := s.begin(ctx, models.OpGetCredential)
	defer func() { done(err) }()

	var credential *models.Credential
	err = s.runInTx(ctx, func(tx store.Tx) error {
		credential, err = findCredential(ctx, tx, hash)
		return err
	})
	if err != nil {
		return nil, err
	}
	return credential, nil
}

// CheckCredentialValidity reports whether the credential exists, is not
// revoked, and has not reached its expiration at the current ledger clock.
func (s *Service) CheckCredentialValidity(ctx context.Context, hash domain.Hash) (_ bool, err error) {
	ctx, done := s.begin(ctx, models.OpCheckCredentialValidity)
	defer func() { done(err) }()

	var valid bool
	err = s.runInTx(ctx, func(tx store.Tx) error {
		now, err := tx.AdvanceClock(ctx, requestcontext.Clock(ctx))
		if err != nil {
			return err
		}
		credential, err := tx.FindCredential(ctx, hash)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load credential")
		}
		valid = credential.IsValidAt(now)
		return nil
	})
	if err != nil {
		return false, err
	}
	return valid, nil
}
