package sentinel

import "errors"

// Sentinel errors for storage facts. Ledger stores return these (optionally
// wrapped) and the ledger service translates them into coded domain errors.
//
//   - ErrNotFound: no record under the key
//   - ErrConflict: the backend aborted the transaction because of a concurrent write
//   - ErrUnavailable: the backend could not be reached
//
// Validation failures never come from stores; use pkg/domain-errors for those.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
