package handler

import (
	"idledger/pkg/domain"
	dErrors "idledger/pkg/domain-errors"
)

// Request bodies carry byte fields as hex, with or without 0x. Validate only
// decodes; lengths are checked by the ledger so the legacy codes stay exact.

// RegisterIdentityRequest is the body for POST /ledger/identities.
type RegisterIdentityRequest struct {
	PublicKey    string `json:"public_key"`
	IdentityHash string `json:"identity_hash"`

	publicKey    []byte
	identityHash []byte
}

func (r *RegisterIdentityRequest) Validate() error {
	var err error
	if r.publicKey, err = decodeField("public_key", r.PublicKey); err != nil {
		return err
	}
	r.identityHash, err = decodeField("identity_hash", r.IdentityHash)
	return err
}

// UpdateIdentityRequest is the body for PUT /ledger/identity.
type UpdateIdentityRequest struct {
	NewIdentityHash string `json:"new_identity_hash"`
	NewPublicKey    string `json:"new_public_key"`

	identityHash []byte
	publicKey    []byte
}

func (r *UpdateIdentityRequest) Validate() error {
	var err error
	if r.identityHash, err = decodeField("new_identity_hash", r.NewIdentityHash); err != nil {
		return err
	}
	r.publicKey, err = decodeField("new_public_key", r.NewPublicKey)
	return err
}

// AddCredentialRequest is the body for POST /ledger/credentials.
type AddCredentialRequest struct {
	CredentialHash string `json:"credential_hash"`
	ExpirationTime uint64 `json:"expiration_time"`
	Category       string `json:"category"`

	credentialHash []byte
}

func (r *AddCredentialRequest) Validate() error {
	var err error
	r.credentialHash, err = decodeField("credential_hash", r.CredentialHash)
	return err
}

// InitiateDisclosureRequest is the body for POST /ledger/disclosures.
type InitiateDisclosureRequest struct {
	RequestID           string   `json:"request_id"`
	RequestedAttributes []string `json:"requested_attributes"`

	requestID []byte
}

func (r *InitiateDisclosureRequest) Validate() error {
	var err error
	r.requestID, err = decodeField("request_id", r.RequestID)
	return err
}

// ApproveDisclosureRequest is the body for POST /ledger/disclosures/{id}/approve.
type ApproveDisclosureRequest struct {
	VerificationProof string `json:"verification_proof"`

	proof []byte
}

func (r *ApproveDisclosureRequest) Validate() error {
	var err error
	r.proof, err = decodeField("verification_proof", r.VerificationProof)
	return err
}

func decodeField(name, value string) ([]byte, error) {
	b, err := domain.DecodeHex(value)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, name+" must be hex encoded")
	}
	return b, nil
}
