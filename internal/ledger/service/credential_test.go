package service

import (
	"context"
	"strings"

	"idledger/internal/ledger/models"
	"idledger/pkg/domain"
	dErrors "idledger/pkg/domain-errors"
)

func (s *LedgerServiceSuite) TestAddCredential() {
	s.Run("issues credential and appends to caller identity", func() {
		s.register(alice, 1)
		credential, identity, err := s.service.AddCredential(as(alice, clock0), hashBytes(0xc1), clock0+100, "education")
		s.Require().NoError(err)

		s.Equal(hashOf(0xc1), credential.Hash)
		s.Equal(alice, credential.Issuer)
		s.Equal(clock0, credential.IssuanceTime)
		s.Equal(clock0+100, credential.ExpirationTime)
		s.Equal("education", credential.Category)
		s.False(credential.Revoked)
		s.Equal([]domain.Hash{hashOf(0xc1)}, identity.Credentials)

		stored, err := s.service.GetIdentity(context.Background(), alice)
		s.Require().NoError(err)
		s.Equal([]domain.Hash{hashOf(0xc1)}, stored.Credentials)
	})

	s.Run("caller without identity fails identity not found", func() {
		_, _, err := s.service.AddCredential(as(carol, clock0), hashBytes(0xc2), clock0+100, "education")
		s.requireFailure(models.OpAddCredential, err, dErrors.CodeNotFound, models.LegacyIdentityNotFound)
	})

	s.Run("input validation", func() {
		s.register(bob, 2)
		tests := []struct {
			name     string
			hash     []byte
			exp      uint64
			category string
			code     dErrors.Code
			legacy   models.LegacyKind
		}{
			{"short hash", hashBytes(0xd1)[:31], clock0 + 100, "education", dErrors.CodeInvalidInput, models.LegacyInvalidInput},
			{"zero expiration", hashBytes(0xd2), 0, "education", dErrors.CodeInvalidInput, models.LegacyInvalidInput},
			{"expiration above range", hashBytes(0xd3), models.MaxExpirationTime + 1, "education", dErrors.CodeInvalidInput, models.LegacyInvalidInput},
			{"expiration equal to clock", hashBytes(0xd4), clock0, "education", dErrors.CodeTimeRangeInvalid, models.LegacyCredentialExpired},
			{"expiration in the past", hashBytes(0xd5), clock0 - 1, "education", dErrors.CodeTimeRangeInvalid, models.LegacyCredentialExpired},
			{"category too long", hashBytes(0xd6), clock0 + 100, strings.Repeat("a", 65), dErrors.CodeInputTooLong, models.LegacyInvalidInput},
			{"category not utf8", hashBytes(0xd7), clock0 + 100, "\xff\xfe", dErrors.CodeInvalidInput, models.LegacyInvalidInput},
		}
		for _, tt := range tests {
			s.Run(tt.name, func() {
				_, _, err := s.service.AddCredential(as(bob, clock0), tt.hash, tt.exp, tt.category)
				s.requireFailure(models.OpAddCredential, err, tt.code, tt.legacy)
			})
		}

		stored, err := s.service.GetIdentity(context.Background(), bob)
		s.Require().NoError(err)
		s.Empty(stored.Credentials, "rejected calls leave the list unchanged")
	})

	s.Run("category of 64 multibyte characters is accepted", func() {
		s.register(domain.Address("SP_UTF8"), 3)
		_, _, err := s.service.AddCredential(as("SP_UTF8", clock0), hashBytes(0xd8), models.MaxExpirationTime, strings.Repeat("é", 64))
		s.Require().NoError(err)
	})
}

func (s *LedgerServiceSuite) TestAddCredentialCapacity() {
	s.register(alice, 1)
	for i := range models.MaxCredentialsPerIdentity {
		_, _, err := s.service.AddCredential(as(alice, clock0), hashBytes(byte(0x10+i)), clock0+100, "education")
		s.Require().NoError(err)
	}
	before, err := s.service.GetIdentity(context.Background(), alice)
	s.Require().NoError(err)
	s.Len(before.Credentials, models.MaxCredentialsPerIdentity)

	_, _, err = s.service.AddCredential(as(alice, clock0), hashBytes(0xee), clock0+100, "education")
	s.requireFailure(models.OpAddCredential, err, dErrors.CodeFullCapacity, models.LegacyUnauthorizedAccess)

	after, err := s.service.GetIdentity(context.Background(), alice)
	s.Require().NoError(err)
	s.Equal(before.Credentials, after.Credentials)

	_, err = s.service.GetCredential(context.Background(), hashOf(0xee))
	s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err), "overflowing credential is not written")
}

func (s *LedgerServiceSuite) TestDuplicateCredentialHash() {
	s.register(alice, 1)
	s.register(bob, 2)
	_, _, err := s.service.AddCredential(as(alice, clock0), hashBytes(0xc1), clock0+100, "education")
	s.Require().NoError(err)

	s.Run("strict mode keeps the first writer", func() {
		strict := s.newService(models.GuardModeStrict)
		_, _, err := strict.AddCredential(as(bob, clock0), hashBytes(0xc1), clock0+500, "employment")
		s.requireFailure(models.OpAddCredential, err, dErrors.CodeConflict, models.LegacyInvalidInput)

		credential, err := s.service.GetCredential(context.Background(), hashOf(0xc1))
		s.Require().NoError(err)
		s.Equal(alice, credential.Issuer)

		identity, err := s.service.GetIdentity(context.Background(), bob)
		s.Require().NoError(err)
		s.Empty(identity.Credentials)
	})

	s.Run("legacy mode overwrites the record", func() {
		_, _, err := s.service.AddCredential(as(bob, clock0), hashBytes(0xc1), clock0+500, "employment")
		s.Require().NoError(err)

		credential, err := s.service.GetCredential(context.Background(), hashOf(0xc1))
		s.Require().NoError(err)
		s.Equal(bob, credential.Issuer)
		s.Equal("employment", credential.Category)
	})
}

func (s *LedgerServiceSuite) TestRevokeCredential() {
	s.register(alice, 1)
	_, _, err := s.service.AddCredential(as(alice, clock0), hashBytes(0xc1), clock0+100, "education")
	s.Require().NoError(err)

	s.Run("unknown credential fails unauthorized", func() {
		_, err := s.service.RevokeCredential(as(alice, clock0), hashBytes(0xc9))
		s.requireFailure(models.OpRevokeCredential, err, dErrors.CodeNotFound, models.LegacyUnauthorizedAccess)
	})

	s.Run("non issuer fails unauthorized", func() {
		_, err := s.service.RevokeCredential(as(bob, clock0), hashBytes(0xc1))
		s.requireFailure(models.OpRevokeCredential, err, dErrors.CodeForbidden, models.LegacyUnauthorizedAccess)

		valid, err := s.service.CheckCredentialValidity(as(bob, clock0), hashOf(0xc1))
		s.Require().NoError(err)
		s.True(valid)
	})

	s.Run("issuer revokes without touching identity", func() {
		revoked, err := s.service.RevokeCredential(as(alice, clock0), hashBytes(0xc1))
		s.Require().NoError(err)
		s.True(revoked.Revoked)

		identity, err := s.service.GetIdentity(context.Background(), alice)
		s.Require().NoError(err)
		s.Equal([]domain.Hash{hashOf(0xc1)}, identity.Credentials)
	})
}

// TestCredentialValidityLifecycle covers the register, add, revoke scenario
// and the clock-driven expiry path.
func (s *LedgerServiceSuite) TestCredentialValidityLifecycle() {
	s.register(alice, 1)
	_, _, err := s.service.AddCredential(as(alice, clock0), hashBytes(0xa1), clock0+100, "education")
	s.Require().NoError(err)
	_, _, err = s.service.AddCredential(as(alice, clock0), hashBytes(0xa2), clock0+100, "education")
	s.Require().NoError(err)

	validAt := func(b byte, clock uint64) bool {
		valid, err := s.service.CheckCredentialValidity(as("", clock), hashOf(b))
		s.Require().NoError(err)
		return valid
	}

	s.True(validAt(0xa1, clock0))
	s.True(validAt(0xa1, clock0+99))

	_, err = s.service.RevokeCredential(as(alice, clock0+1), hashBytes(0xa1))
	s.Require().NoError(err)
	s.False(validAt(0xa1, clock0+1))
	s.False(validAt(0xa1, clock0+50))

	s.True(validAt(0xa2, clock0+99))
	s.False(validAt(0xa2, clock0+100), "expiration is exclusive")
	s.False(validAt(0xa2, clock0+10_000))

	s.False(validAt(0xff, clock0), "unknown credential is not valid")
}

// TestClockFollowsApplyOrder covers calls stamped earlier than a call that
// was applied before them: they run at the later clock.
func (s *LedgerServiceSuite) TestClockFollowsApplyOrder() {
	s.register(alice, 1)
	_, _, err := s.service.AddCredential(as(alice, clock0), hashBytes(0xa1), clock0+100, "education")
	s.Require().NoError(err)

	valid, err := s.service.CheckCredentialValidity(as("", clock0+100), hashOf(0xa1))
	s.Require().NoError(err)
	s.False(valid)

	s.Run("expired credential stays invalid for a stale stamp", func() {
		valid, err := s.service.CheckCredentialValidity(as("", clock0+99), hashOf(0xa1))
		s.Require().NoError(err)
		s.False(valid)
	})

	s.Run("stale stamp cannot issue what the ledger clock has passed", func() {
		_, _, err := s.service.AddCredential(as(alice, clock0+50), hashBytes(0xa2), clock0+100, "education")
		s.requireFailure(models.OpAddCredential, err, dErrors.CodeTimeRangeInvalid, models.LegacyCredentialExpired)
	})

	s.Run("records carry the applied clock", func() {
		identity, err := s.service.RegisterIdentity(as(bob, clock0+10), pubKey(2), hashBytes(2))
		s.Require().NoError(err)
		s.Equal(clock0+100, identity.RegistrationTime)

		credential, _, err := s.service.AddCredential(as(bob, clock0+20), hashBytes(0xb1), clock0+500, "education")
		s.Require().NoError(err)
		s.Equal(clock0+100, credential.IssuanceTime)
	})
}
