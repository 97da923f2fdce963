package models

import (
	"errors"
	"unicode/utf8"

	dErrors "idledger/pkg/domain-errors"
)

const (
	// MaxCredentialsPerIdentity caps an identity's credential list.
	MaxCredentialsPerIdentity = 10
	// MaxLabelLength bounds categories and requested attribute labels, in characters.
	MaxLabelLength = 64
	// MaxRequestedAttributes bounds a disclosure request's attribute list.
	MaxRequestedAttributes = 5
	// MinExpirationTime and MaxExpirationTime bound credential expiry clock values.
	MinExpirationTime uint64 = 1
	MaxExpirationTime uint64 = 9_999_999_999
)

// Resource-level causes. Services wrap these with a code so boundaries can
// tell which record was missing.
var (
	ErrIdentityNotFound   = errors.New("identity not found")
	ErrCredentialNotFound = errors.New("credential not found")
	ErrRequestNotFound    = errors.New("disclosure request not found")
)

// validateLabel enforces the bounded UTF-8 label rule shared by categories
// and requested attributes.
func validateLabel(field, label string) error {
	if !utf8.ValidString(label) {
		return dErrors.New(dErrors.CodeInvalidInput, field+" must be valid UTF-8")
	}
	if utf8.RuneCountInString(label) > MaxLabelLength {
		return dErrors.New(dErrors.CodeInputTooLong, field+" must be 64 characters or less")
	}
	return nil
}
