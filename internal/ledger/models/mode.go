package models

import (
	"fmt"
	"strings"
)

// GuardMode selects how record-creation guards behave.
//
// GuardModeLegacy reproduces the registry's historical behavior, including
// two known defects: initiating a disclosure request requires the id to
// already exist (and resets it), and a credential hash registered by one
// issuer can be overwritten by another.
//
// GuardModeStrict rejects an already used disclosure request id and keeps the
// first writer of a credential hash.
type GuardMode string

const (
	GuardModeLegacy GuardMode = "legacy"
	GuardModeStrict GuardMode = "strict"
)

func ParseGuardMode(s string) (GuardMode, error) {
	switch GuardMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", GuardModeLegacy:
		return GuardModeLegacy, nil
	case GuardModeStrict:
		return GuardModeStrict, nil
	}
	return "", fmt.Errorf("unknown guard mode %q", s)
}

func (m GuardMode) IsStrict() bool {
	return m == GuardModeStrict
}
