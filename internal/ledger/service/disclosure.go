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
)

// InitiateDisclosureRequest (re)initializes a disclosure request owned by the
// caller, unapproved and with a zero proof.
//
// Legacy mode keeps the registry's historical guard: the id must already
// exist, and initiating resets its approval. A fresh id is rejected. Strict
// mode inverts it: a fresh id succeeds and a taken id fails with a conflict.
func (s *Service) InitiateDisclosureRequest(ctx context.Context, requestID []byte, attributes []string) (_ *models.DisclosureRequest, err error) {
	ctx, done := s.begin(ctx, models.OpInitiateDisclosureRequest)
	defer func() { done(err) }()

	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	id, err := domain.HashFromBytes(requestID)
	if err != nil {
		return nil, err
	}
	request, err := models.NewDisclosureRequest(id, caller, attributes)
	if err != nil {
		return nil, err
	}

	err = s.runInTx(ctx, func(tx store.Tx) error {
		_, err := tx.FindDisclosureRequest(ctx, id)
		exists := err == nil
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load disclosure request")
		}
		switch {
		case s.mode.IsStrict() && exists:
			return dErrors.New(dErrors.CodeConflict, "disclosure request id already in use")
		case !s.mode.IsStrict() && !exists:
			return dErrors.Wrap(models.ErrRequestNotFound, dErrors.CodeNotFound,
				"disclosure request must exist before it can be initiated")
		}
		return tx.SaveDisclosureRequest(ctx, request)
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, audit.EventDisclosureInitiated, caller, id.String())
	return request, nil
}

// ApproveDisclosure marks a request approved when proof equals the caller's
// own identity hash. This is shared-secret confirmation: the proof is not
// bound to the request or its attributes, and any identity holder may
// approve any request whose id it knows.
func (s *Service) ApproveDisclosure(ctx context.Context, requestID, verificationProof []byte) (_ *models.DisclosureRequest, err error) {
	ctx, done := s.begin(ctx, models.OpApproveDisclosure)
	defer func() { done(err) }()

	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	id, err := domain.HashFromBytes(requestID)
	if err != nil {
		return nil, err
	}
	proof, err := domain.HashFromBytes(verificationProof)
	if err != nil {
		return nil, err
	}

	var approved models.DisclosureRequest
	err = s.runInTx(ctx, func(tx store.Tx) error {
		request, err := findRequest(ctx, tx, id)
		if err != nil {
			return err
		}
		identity, err := findIdentity(ctx, tx, caller)
		if err != nil {
			return err
		}
		if err := identity.CanMutate(); err != nil {
			return err
		}
		if !models.MatchesCommitment(proof, identity.IdentityHash) {
			return dErrors.New(dErrors.CodeInvalidProof, "proof does not match the caller's identity hash")
		}
		approved = request.ApprovedWith(proof)
		return tx.SaveDisclosureRequest(ctx, &approved)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementDisclosuresApproved()
	}
	s.emitAudit(ctx, audit.EventDisclosureApproved, caller, id.String())
	return &approved, nil
}

// GetDisclosureRequest returns the request stored under id.
func (s *Service) GetDisclosureRequest(ctx context.Context, id domain.Hash) (_ *models.DisclosureRequest, err error) {
	ctx, done := s.begin(ctx, models.OpGetDisclosureRequest)
	defer func() { done(err) }()

	var request *models.DisclosureRequest
	err = s.runInTx(ctx, func(tx store.Tx) error {
		request, err = findRequest(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// VerifyDisclosureRequest reports whether the request exists, is approved,
// and stores exactly proof.
func (s *Service) VerifyDisclosureRequest(ctx context.Context, id, proof domain.Hash) (_ bool, err error) {
	ctx, done := s.begin(ctx, models.OpVerifyDisclosureRequest)
	defer func() { done(err) }()

	var verified bool
	err = s.runInTx(ctx, func(tx store.Tx) error {
		request, err := tx.FindDisclosureRequest(ctx, id)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load disclosure request")
		}
		verified = request.Confirms(proof)
		return nil
	})
	if err != nil {
		return false, err
	}
	return verified, nil
}
