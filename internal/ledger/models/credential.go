package models

import (
	"idledger/pkg/domain"
	dErrors "idledger/pkg/domain-errors"
)

// Credential is an issuer-attributed record keyed by a caller-supplied hash.
//
// Invariants:
//   - Issuer is immutable after construction
//   - ExpirationTime lies in [1, 9_999_999_999] and exceeds the clock at insertion
//   - Category is valid UTF-8 of at most 64 characters
//   - Revoked moves false → true only
type Credential struct {
	Hash           domain.Hash    `json:"hash"`
	Issuer         domain.Address `json:"issuer"`
	IssuanceTime   uint64         `json:"issuance_time"`
	ExpirationTime uint64         `json:"expiration_time"`
	Category       string         `json:"category"`
	Revoked        bool           `json:"revoked"`
}

func NewCredential(hash domain.Hash, issuer domain.Address, expirationTime uint64, category string, now uint64) (*Credential, error) {
	if issuer.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "caller address is required")
	}
	if err := ValidateExpiration(expirationTime, now); err != nil {
		return nil, err
	}
	if err := validateLabel("category", category); err != nil {
		return nil, err
	}
	return &Credential{
		Hash:           hash,
		Issuer:         issuer,
		IssuanceTime:   now,
		ExpirationTime: expirationTime,
		Category:       category,
	}, nil
}

// ValidateExpiration checks the expiry bounds, then that it lies in the future.
func ValidateExpiration(expirationTime, now uint64) error {
	if expirationTime < MinExpirationTime || expirationTime > MaxExpirationTime {
		return dErrors.New(dErrors.CodeInvalidInput, "expiration_time must be between 1 and 9999999999")
	}
	if expirationTime <= now {
		return dErrors.New(dErrors.CodeTimeRangeInvalid, "expiration_time must be after the current ledger time")
	}
	return nil
}

// IsValidAt reports whether the credential is unrevoked and unexpired at now.
func (c Credential) IsValidAt(now uint64) bool {
	return !c.Revoked && now < c.ExpirationTime
}

// RevokedBy returns a revoked copy. Only the issuer may revoke; revoking an
// already revoked credential is accepted and changes nothing.
func (c Credential) RevokedBy(caller domain.Address) (Credential, error) {
	if caller != c.Issuer {
		return Credential{}, dErrors.New(dErrors.CodeForbidden, "only the issuer may revoke a credential")
	}
	c.Revoked = true
	return c, nil
}
