package service

import (
	"context"

	"idledger/internal/ledger/models"
	"idledger/pkg/domain"
	dErrors "idledger/pkg/domain-errors"
)

func (s *LedgerServiceSuite) TestRegisterIdentity() {
	s.Run("creates identity with empty credential list", func() {
		identity, err := s.service.RegisterIdentity(as(alice, clock0), pubKey(1), hashBytes(1))
		s.Require().NoError(err)
		s.Equal(alice, identity.Owner)
		s.Equal(hashOf(1), identity.IdentityHash)
		s.Equal(clock0, identity.RegistrationTime)
		s.Empty(identity.Credentials)
		s.False(identity.Revoked)
	})

	s.Run("second register for same address fails and keeps first record", func() {
		first := s.register(bob, 2)

		_, err := s.service.RegisterIdentity(as(bob, clock0+50), pubKey(3), hashBytes(3))
		s.requireFailure(models.OpRegisterIdentity, err, dErrors.CodeConflict, models.LegacyIdentityExists)

		stored, err := s.service.GetIdentity(context.Background(), bob)
		s.Require().NoError(err)
		s.Equal(*first, *stored)
	})

	s.Run("public key of wrong length is invalid input", func() {
		_, err := s.service.RegisterIdentity(as(carol, clock0), pubKey(1)[:32], hashBytes(1))
		s.requireFailure(models.OpRegisterIdentity, err, dErrors.CodeInvalidInput, models.LegacyInvalidInput)
	})

	s.Run("identity hash of wrong length is invalid input", func() {
		_, err := s.service.RegisterIdentity(as(carol, clock0), pubKey(1), append(hashBytes(1), 0))
		s.requireFailure(models.OpRegisterIdentity, err, dErrors.CodeInvalidInput, models.LegacyInvalidInput)

		_, err = s.service.GetIdentity(context.Background(), carol)
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err), "rejected register leaves no record")
	})
}

func (s *LedgerServiceSuite) TestUpdateIdentity() {
	s.Run("round trip keeps registration time and credentials", func() {
		s.register(alice, 1)
		_, before, err := s.service.AddCredential(as(alice, clock0+10), hashBytes(0xc1), clock0+1000, "education")
		s.Require().NoError(err)

		_, err = s.service.UpdateIdentity(as(alice, clock0+20), hashBytes(0x22), pubKey(0x22))
		s.Require().NoError(err)

		after, err := s.service.GetIdentity(context.Background(), alice)
		s.Require().NoError(err)
		s.Equal(hashOf(0x22), after.IdentityHash)
		wantKey, _ := domain.PublicKeyFromBytes(pubKey(0x22))
		s.Equal(wantKey, after.PublicKey)
		s.Equal(before.RegistrationTime, after.RegistrationTime)
		s.Equal(before.Credentials, after.Credentials)
		s.False(after.Revoked)
	})

	s.Run("without identity fails identity not found", func() {
		_, err := s.service.UpdateIdentity(as(carol, clock0), hashBytes(2), pubKey(2))
		s.requireFailure(models.OpUpdateIdentity, err, dErrors.CodeNotFound, models.LegacyIdentityNotFound)
	})

	s.Run("bad lengths are invalid input and change nothing", func() {
		s.register(bob, 5)
		_, err := s.service.UpdateIdentity(as(bob, clock0), hashBytes(6)[:8], pubKey(6))
		s.requireFailure(models.OpUpdateIdentity, err, dErrors.CodeInvalidInput, models.LegacyInvalidInput)
		_, err = s.service.UpdateIdentity(as(bob, clock0), hashBytes(6), pubKey(6)[:8])
		s.requireFailure(models.OpUpdateIdentity, err, dErrors.CodeInvalidInput, models.LegacyInvalidInput)

		stored, err := s.service.GetIdentity(context.Background(), bob)
		s.Require().NoError(err)
		s.Equal(hashOf(5), stored.IdentityHash)
	})
}

func (s *LedgerServiceSuite) TestRevokeIdentity() {
	s.register(alice, 1)

	revoked, err := s.service.RevokeIdentity(as(alice, clock0))
	s.Require().NoError(err)
	s.True(revoked.Revoked)

	s.Run("revoked identity rejects every mutation", func() {
		_, err := s.service.UpdateIdentity(as(alice, clock0), hashBytes(2), pubKey(2))
		s.requireFailure(models.OpUpdateIdentity, err, dErrors.CodeRevoked, models.LegacyUnauthorizedAccess)

		_, _, err = s.service.AddCredential(as(alice, clock0), hashBytes(3), clock0+100, "education")
		s.requireFailure(models.OpAddCredential, err, dErrors.CodeRevoked, models.LegacyUnauthorizedAccess)

		_, err = s.service.RevokeIdentity(as(alice, clock0))
		s.requireFailure(models.OpRevokeIdentity, err, dErrors.CodeRevoked, models.LegacyUnauthorizedAccess)
	})

	s.Run("revoked identity can still be read", func() {
		stored, err := s.service.GetIdentity(context.Background(), alice)
		s.Require().NoError(err)
		s.True(stored.Revoked)
		s.Equal(hashOf(1), stored.IdentityHash)
	})

	s.Run("without identity fails identity not found", func() {
		_, err := s.service.RevokeIdentity(as(carol, clock0))
		s.requireFailure(models.OpRevokeIdentity, err, dErrors.CodeNotFound, models.LegacyIdentityNotFound)
	})
}

func (s *LedgerServiceSuite) TestGetIdentity() {
	_, err := s.service.GetIdentity(context.Background(), "SP_NOBODY")
	s.Require().Error(err)
	s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	_, ok := models.LegacyKindFor(models.OpGetIdentity, err)
	s.False(ok, "reads report absence without a legacy kind")
}
