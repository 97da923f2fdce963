package handler

import (
	"idledger/internal/ledger/models"
	"idledger/pkg/domain"
	audit "idledger/pkg/platform/audit"
)

// AddCredentialResponse returns the new credential and the issuer's updated
// identity.
type AddCredentialResponse struct {
	Credential *models.Credential `json:"credential"`
	Identity   *models.Identity   `json:"identity"`
}

// ValidityResponse reports a credential's validity at the request's clock.
type ValidityResponse struct {
	Hash  domain.Hash `json:"hash"`
	Valid bool        `json:"valid"`
	Clock uint64      `json:"clock"`
}

type VerifyResponse struct {
	ID       domain.Hash `json:"id"`
	Verified bool        `json:"verified"`
}

type AuditResponse struct {
	Caller domain.Address `json:"caller"`
	Events []audit.Event  `json:"events"`
}
