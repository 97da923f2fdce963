package service

import (
	"context"
	"strings"

	"idledger/internal/ledger/models"
	dErrors "idledger/pkg/domain-errors"
)

func (s *LedgerServiceSuite) TestInitiateDisclosureRequestLegacy() {
	s.Run("fresh id fails invalid input", func() {
		_, err := s.service.InitiateDisclosureRequest(as(bob, clock0), hashBytes(0x51), []string{"name", "age"})
		s.requireFailure(models.OpInitiateDisclosureRequest, err, dErrors.CodeNotFound, models.LegacyInvalidInput)

		_, err = s.service.GetDisclosureRequest(context.Background(), hashOf(0x51))
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})

	s.Run("existing id is reset to unapproved", func() {
		strict := s.newService(models.GuardModeStrict)
		s.register(alice, 1)
		_, err := strict.InitiateDisclosureRequest(as(bob, clock0), hashBytes(0x52), []string{"name"})
		s.Require().NoError(err)
		_, err = s.service.ApproveDisclosure(as(alice, clock0), hashBytes(0x52), hashBytes(1))
		s.Require().NoError(err)

		reset, err := s.service.InitiateDisclosureRequest(as(carol, clock0), hashBytes(0x52), []string{"age", "city"})
		s.Require().NoError(err)
		s.False(reset.Approved)
		s.True(reset.Proof.IsZero())
		s.Equal(carol, reset.Requester)
		s.Equal([]string{"age", "city"}, reset.RequestedAttributes)

		verified, err := s.service.VerifyDisclosureRequest(context.Background(), hashOf(0x52), hashOf(1))
		s.Require().NoError(err)
		s.False(verified)
	})
}

func (s *LedgerServiceSuite) TestInitiateDisclosureRequestStrict() {
	strict := s.newService(models.GuardModeStrict)

	request, err := strict.InitiateDisclosureRequest(as(bob, clock0), hashBytes(0x61), []string{"name", "age"})
	s.Require().NoError(err)
	s.Equal(bob, request.Requester)
	s.Equal([]string{"name", "age"}, request.RequestedAttributes)
	s.False(request.Approved)
	s.True(request.Proof.IsZero())

	_, err = strict.InitiateDisclosureRequest(as(bob, clock0), hashBytes(0x61), []string{"name"})
	s.requireFailure(models.OpInitiateDisclosureRequest, err, dErrors.CodeConflict, models.LegacyInvalidInput)

	stored, err := strict.GetDisclosureRequest(context.Background(), hashOf(0x61))
	s.Require().NoError(err)
	s.Equal([]string{"name", "age"}, stored.RequestedAttributes)
}

func (s *LedgerServiceSuite) TestInitiateDisclosureRequestValidation() {
	strict := s.newService(models.GuardModeStrict)
	tests := []struct {
		name  string
		id    []byte
		attrs []string
		code  dErrors.Code
	}{
		{"short id", hashBytes(0x71)[:16], []string{"name"}, dErrors.CodeInvalidInput},
		{"too many attributes", hashBytes(0x72), []string{"a", "b", "c", "d", "e", "f"}, dErrors.CodeInputTooLong},
		{"attribute too long", hashBytes(0x73), []string{strings.Repeat("x", 65)}, dErrors.CodeInputTooLong},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := strict.InitiateDisclosureRequest(as(bob, clock0), tt.id, tt.attrs)
			s.requireFailure(models.OpInitiateDisclosureRequest, err, tt.code, models.LegacyInvalidInput)
		})
	}

	s.Run("five attributes and none are accepted", func() {
		_, err := strict.InitiateDisclosureRequest(as(bob, clock0), hashBytes(0x74), []string{"a", "b", "c", "d", "e"})
		s.Require().NoError(err)
		empty, err := strict.InitiateDisclosureRequest(as(bob, clock0), hashBytes(0x75), nil)
		s.Require().NoError(err)
		s.Empty(empty.RequestedAttributes)
	})
}

func (s *LedgerServiceSuite) TestApproveDisclosure() {
	strict := s.newService(models.GuardModeStrict)
	s.register(alice, 1)
	_, err := strict.InitiateDisclosureRequest(as(bob, clock0), hashBytes(0x81), []string{"name"})
	s.Require().NoError(err)

	s.Run("missing request fails unauthorized", func() {
		_, err := s.service.ApproveDisclosure(as(alice, clock0), hashBytes(0x89), hashBytes(1))
		s.requireFailure(models.OpApproveDisclosure, err, dErrors.CodeNotFound, models.LegacyUnauthorizedAccess)
	})

	s.Run("caller without identity fails identity not found", func() {
		_, err := s.service.ApproveDisclosure(as(carol, clock0), hashBytes(0x81), hashBytes(1))
		s.requireFailure(models.OpApproveDisclosure, err, dErrors.CodeNotFound, models.LegacyIdentityNotFound)
	})

	s.Run("mismatched proof fails and leaves request untouched", func() {
		_, err := s.service.ApproveDisclosure(as(alice, clock0), hashBytes(0x81), hashBytes(2))
		s.requireFailure(models.OpApproveDisclosure, err, dErrors.CodeInvalidProof, models.LegacyInvalidVerificationProof)

		stored, err := s.service.GetDisclosureRequest(context.Background(), hashOf(0x81))
		s.Require().NoError(err)
		s.False(stored.Approved)
		s.True(stored.Proof.IsZero())
	})

	s.Run("matching proof approves even when caller is not the requester", func() {
		approved, err := s.service.ApproveDisclosure(as(alice, clock0), hashBytes(0x81), hashBytes(1))
		s.Require().NoError(err)
		s.True(approved.Approved)
		s.Equal(hashOf(1), approved.Proof)
		s.Equal(bob, approved.Requester)
	})

	s.Run("verify requires approval and exact proof", func() {
		verified, err := s.service.VerifyDisclosureRequest(context.Background(), hashOf(0x81), hashOf(1))
		s.Require().NoError(err)
		s.True(verified)

		verified, err = s.service.VerifyDisclosureRequest(context.Background(), hashOf(0x81), hashOf(2))
		s.Require().NoError(err)
		s.False(verified)

		verified, err = s.service.VerifyDisclosureRequest(context.Background(), hashOf(0x8f), hashOf(1))
		s.Require().NoError(err)
		s.False(verified, "unknown request does not verify")
	})

	s.Run("revoked identity cannot approve", func() {
		_, err := strict.InitiateDisclosureRequest(as(bob, clock0), hashBytes(0x82), []string{"age"})
		s.Require().NoError(err)
		_, err = s.service.RevokeIdentity(as(alice, clock0))
		s.Require().NoError(err)

		_, err = s.service.ApproveDisclosure(as(alice, clock0), hashBytes(0x82), hashBytes(1))
		s.requireFailure(models.OpApproveDisclosure, err, dErrors.CodeRevoked, models.LegacyUnauthorizedAccess)
	})
}
