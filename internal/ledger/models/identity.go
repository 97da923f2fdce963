package models

import (
	"slices"

	"idledger/pkg/domain"
	dErrors "idledger/pkg/domain-errors"
)

// Identity is the per-address record holding a commitment, a public key and
// references to credentials issued by that address.
//
// Invariants:
//   - At most one Identity per Owner
//   - RegistrationTime is immutable after construction
//   - Credentials preserves insertion order, holds at most 10 hashes, and is append-only
//   - Revoked moves false → true only; a revoked identity accepts no further mutation
//
// Mutators return a new value and never touch the receiver, so a failed
// validation can never leave a half-applied record behind.
type Identity struct {
	Owner            domain.Address   `json:"owner"`
	IdentityHash     domain.Hash      `json:"identity_hash"`
	RegistrationTime uint64           `json:"registration_time"`
	Credentials      []domain.Hash    `json:"credentials"`
	PublicKey        domain.PublicKey `json:"public_key"`
	Revoked          bool             `json:"revoked"`
}

func NewIdentity(owner domain.Address, identityHash domain.Hash, publicKey domain.PublicKey, now uint64) (*Identity, error) {
	if owner.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "caller address is required")
	}
	return &Identity{
		Owner:            owner,
		IdentityHash:     identityHash,
		RegistrationTime: now,
		Credentials:      []domain.Hash{},
		PublicKey:        publicKey,
	}, nil
}

// Clone returns a deep copy.
func (i Identity) Clone() Identity {
	i.Credentials = slices.Clone(i.Credentials)
	if i.Credentials == nil {
		i.Credentials = []domain.Hash{}
	}
	return i
}

// CanMutate checks that the identity still accepts mutations.
func (i Identity) CanMutate() error {
	if i.Revoked {
		return dErrors.New(dErrors.CodeRevoked, "identity is revoked")
	}
	return nil
}

// CanAppendCredential checks capacity without modifying the list.
func (i Identity) CanAppendCredential() error {
	if err := i.CanMutate(); err != nil {
		return err
	}
	if len(i.Credentials) >= MaxCredentialsPerIdentity {
		return dErrors.New(dErrors.CodeFullCapacity, "identity already holds 10 credentials")
	}
	return nil
}

// WithCredential returns a copy with hash appended.
func (i Identity) WithCredential(hash domain.Hash) (Identity, error) {
	if err := i.CanAppendCredential(); err != nil {
		return Identity{}, err
	}
	next := i.Clone()
	next.Credentials = append(next.Credentials, hash)
	return next, nil
}

// WithCommitment returns a copy with a new identity hash and public key.
// RegistrationTime, Credentials and Revoked are carried over unchanged.
func (i Identity) WithCommitment(identityHash domain.Hash, publicKey domain.PublicKey) (Identity, error) {
	if err := i.CanMutate(); err != nil {
		return Identity{}, err
	}
	next := i.Clone()
	next.IdentityHash = identityHash
	next.PublicKey = publicKey
	return next, nil
}

// AsRevoked returns a revoked copy.
func (i Identity) AsRevoked() (Identity, error) {
	if err := i.CanMutate(); err != nil {
		return Identity{}, err
	}
	next := i.Clone()
	next.Revoked = true
	return next, nil
}

// HoldsCredential reports whether hash is referenced by this identity.
func (i Identity) HoldsCredential(hash domain.Hash) bool {
	return slices.Contains(i.Credentials, hash)
}
