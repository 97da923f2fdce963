package domain

import (
	"encoding/hex"
	"strings"

	dErrors "idledger/pkg/domain-errors"
)

const (
	// HashSize is the width of identity commitments, credential hashes,
	// disclosure request ids and verification proofs.
	HashSize = 32
	// PublicKeySize is the width of a compressed secp256k1 public key.
	PublicKeySize = 33
	// MaxAddressLength bounds caller addresses accepted at trust boundaries.
	MaxAddressLength = 128
)

// Address identifies the invoking principal. The host supplies it; the
// ledger treats it as an opaque key.
type Address string

func (a Address) String() string { return string(a) }

func (a Address) IsZero() bool { return a == "" }

// ParseAddress validates an address at a trust boundary.
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address is required")
	}
	if len(s) > MaxAddressLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address is too long")
	}
	for _, r := range s {
		if !isAddressRune(r) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "address contains invalid characters")
		}
	}
	return Address(s), nil
}

func isAddressRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.', r == '-', r == '_', r == ':':
		return true
	}
	return false
}

// Hash is a fixed 32-byte value.
type Hash [HashSize]byte

// HashFromBytes copies b into a Hash, rejecting any other length.
func HashFromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != HashSize {
		return h, dErrors.New(dErrors.CodeInvalidInput, "hash must be 32 bytes")
	}
	copy(h[:], b)
	return h, nil
}

// ParseHash decodes a hex string, with or without a 0x prefix.
func ParseHash(s string) (Hash, error) {
	b, err := decodeHex(s)
	if err != nil {
		return Hash{}, err
	}
	return HashFromBytes(b)
}

func (h Hash) String() string { return hex.EncodeToString(h[:]) }

func (h Hash) IsZero() bool { return h == Hash{} }

func (h Hash) Bytes() []byte { return append([]byte(nil), h[:]...) }

func (h Hash) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// PublicKey is a fixed 33-byte value.
type PublicKey [PublicKeySize]byte

// PublicKeyFromBytes copies b into a PublicKey, rejecting any other length.
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	var k PublicKey
	if len(b) != PublicKeySize {
		return k, dErrors.New(dErrors.CodeInvalidInput, "public key must be 33 bytes")
	}
	copy(k[:], b)
	return k, nil
}

// ParsePublicKey decodes a hex string, with or without a 0x prefix.
func ParsePublicKey(s string) (PublicKey, error) {
	b, err := decodeHex(s)
	if err != nil {
		return PublicKey{}, err
	}
	return PublicKeyFromBytes(b)
}

func (k PublicKey) String() string { return hex.EncodeToString(k[:]) }

func (k PublicKey) Bytes() []byte { return append([]byte(nil), k[:]...) }

func (k PublicKey) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *PublicKey) UnmarshalText(text []byte) error {
	parsed, err := ParsePublicKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// DecodeHex decodes a hex string for callers that validate length themselves.
func DecodeHex(s string) ([]byte, error) {
	return decodeHex(s)
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "value must be hex encoded")
	}
	return b, nil
}
