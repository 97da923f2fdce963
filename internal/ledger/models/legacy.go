package models

import (
	"errors"

	dErrors "idledger/pkg/domain-errors"
)

// Operation names a ledger entry point.
type Operation string

const (
	OpRegisterIdentity          Operation = "register_identity"
	OpAddCredential             Operation = "add_credential"
	OpRevokeCredential          Operation = "revoke_credential"
	OpUpdateIdentity            Operation = "update_identity"
	OpRevokeIdentity            Operation = "revoke_identity"
	OpInitiateDisclosureRequest Operation = "initiate_disclosure_request"
	OpApproveDisclosure         Operation = "approve_disclosure"
	OpGetIdentity               Operation = "get_identity"
	OpGetCredential             Operation = "get_credential"
	OpGetDisclosureRequest      Operation = "get_disclosure_request"
	OpVerifyDisclosureRequest   Operation = "verify_disclosure_request"
	OpCheckCredentialValidity   Operation = "check_credential_validity"
)

// LegacyKind is the error code legacy registry clients expect.
// Several kinds are reused for unrelated causes; LegacyKindFor keeps that
// mapping at the boundary so the core can use precise codes.
type LegacyKind string

const (
	LegacyUnauthorizedAccess       LegacyKind = "UNAUTHORIZED_ACCESS"
	LegacyIdentityExists           LegacyKind = "IDENTITY_EXISTS"
	LegacyIdentityNotFound         LegacyKind = "IDENTITY_NOT_FOUND"
	LegacyInvalidVerificationProof LegacyKind = "INVALID_VERIFICATION_PROOF"
	LegacyCredentialExpired        LegacyKind = "CREDENTIAL_EXPIRED"
	LegacyInvalidInput             LegacyKind = "INVALID_INPUT"
)

var legacyStatus = map[LegacyKind]uint32{
	LegacyUnauthorizedAccess:       100,
	LegacyIdentityExists:           101,
	LegacyIdentityNotFound:         102,
	LegacyInvalidVerificationProof: 103,
	LegacyCredentialExpired:        104,
	LegacyInvalidInput:             105,
}

// Status returns the numeric ledger code, or 0 for an unknown kind.
func (k LegacyKind) Status() uint32 {
	return legacyStatus[k]
}

// LegacyKindFor maps a failed operation's error to its legacy kind. The
// second result is false for failures the legacy interface has no code for
// (internal, timeout and concurrent-update errors, or failures of read-only
// queries).
func LegacyKindFor(op Operation, err error) (LegacyKind, bool) {
	if err == nil {
		return "", false
	}
	code := dErrors.CodeOf(err)
	switch code {
	case dErrors.CodeInternal, dErrors.CodeTimeout, dErrors.CodeConcurrentUpdate:
		return "", false
	}

	switch op {
	case OpRegisterIdentity:
		if code == dErrors.CodeConflict {
			return LegacyIdentityExists, true
		}
		return fromCommonCode(code, err)
	case OpInitiateDisclosureRequest:
		if code == dErrors.CodeUnauthorized {
			return LegacyUnauthorizedAccess, true
		}
		return LegacyInvalidInput, true
	case OpAddCredential, OpRevokeCredential, OpUpdateIdentity, OpRevokeIdentity, OpApproveDisclosure:
		if code == dErrors.CodeConflict {
			return LegacyInvalidInput, true
		}
		return fromCommonCode(code, err)
	}
	return "", false
}

func fromCommonCode(code dErrors.Code, err error) (LegacyKind, bool) {
	switch code {
	case dErrors.CodeInvalidInput, dErrors.CodeInputTooLong, dErrors.CodeBadRequest:
		return LegacyInvalidInput, true
	case dErrors.CodeTimeRangeInvalid:
		return LegacyCredentialExpired, true
	case dErrors.CodeNotFound:
		if errors.Is(err, ErrIdentityNotFound) {
			return LegacyIdentityNotFound, true
		}
		return LegacyUnauthorizedAccess, true
	case dErrors.CodeRevoked, dErrors.CodeForbidden, dErrors.CodeFullCapacity, dErrors.CodeUnauthorized:
		return LegacyUnauthorizedAccess, true
	case dErrors.CodeInvalidProof:
		return LegacyInvalidVerificationProof, true
	}
	return "", false
}
