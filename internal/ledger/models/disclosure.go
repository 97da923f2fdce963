package models

import (
	"crypto/subtle"
	"slices"

	"idledger/pkg/domain"
	dErrors "idledger/pkg/domain-errors"
)

// DisclosureRequest names attribute labels a requester wants disclosed and
// records the shared-secret confirmation submitted by an approver.
//
// RequestedAttributes are descriptive labels only; nothing checks them
// against what an identity actually holds. The Proof is the value the
// approver submitted, which approval requires to equal the approver's
// identity hash. It is a stored-value equality check, not a predicate proof.
type DisclosureRequest struct {
	ID                  domain.Hash    `json:"id"`
	Requester           domain.Address `json:"requester"`
	RequestedAttributes []string       `json:"requested_attributes"`
	Approved            bool           `json:"approved"`
	Proof               domain.Hash    `json:"proof"`
}

func NewDisclosureRequest(id domain.Hash, requester domain.Address, attributes []string) (*DisclosureRequest, error) {
	if requester.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "caller address is required")
	}
	if err := ValidateAttributes(attributes); err != nil {
		return nil, err
	}
	attrs := slices.Clone(attributes)
	if attrs == nil {
		attrs = []string{}
	}
	return &DisclosureRequest{
		ID:                  id,
		Requester:           requester,
		RequestedAttributes: attrs,
	}, nil
}

// ValidateAttributes enforces at most 5 labels of at most 64 characters each.
func ValidateAttributes(attributes []string) error {
	if len(attributes) > MaxRequestedAttributes {
		return dErrors.New(dErrors.CodeInputTooLong, "at most 5 requested attributes are allowed")
	}
	for _, attr := range attributes {
		if err := validateLabel("requested attribute", attr); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy.
func (d DisclosureRequest) Clone() DisclosureRequest {
	d.RequestedAttributes = slices.Clone(d.RequestedAttributes)
	if d.RequestedAttributes == nil {
		d.RequestedAttributes = []string{}
	}
	return d
}

// ApprovedWith returns an approved copy carrying proof.
func (d DisclosureRequest) ApprovedWith(proof domain.Hash) DisclosureRequest {
	next := d.Clone()
	next.Approved = true
	next.Proof = proof
	return next
}

// Confirms reports whether the request is approved and proof matches the
// stored value.
func (d DisclosureRequest) Confirms(proof domain.Hash) bool {
	return d.Approved && subtle.ConstantTimeCompare(d.Proof[:], proof[:]) == 1
}

// MatchesCommitment reports whether proof equals an identity commitment.
func MatchesCommitment(proof, identityHash domain.Hash) bool {
	return subtle.ConstantTimeCompare(proof[:], identityHash[:]) == 1
}
