package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	dErrors "idledger/pkg/domain-errors"
)

// maxBodyBytes bounds request bodies; ledger payloads are a few hex fields.
const maxBodyBytes = 64 << 10

// ErrorResponse is the JSON error envelope. LegacyCode and LegacyStatus are
// set only by boundaries that speak the legacy registry codes.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	LegacyCode       string `json:"legacy_code,omitempty"`
	LegacyStatus     uint32 `json:"legacy_status,omitempty"`
}

// Validatable is implemented by request bodies that normalize and check
// themselves after decoding.
type Validatable interface {
	Validate() error
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err to a status and writes the error envelope.
// Internal and timeout failures never expose their message.
func WriteError(w http.ResponseWriter, err error) {
	WriteJSON(w, StatusFor(err), NewErrorResponse(err))
}

// NewErrorResponse builds the envelope for err without legacy fields.
func NewErrorResponse(err error) ErrorResponse {
	code := dErrors.CodeOf(err)
	resp := ErrorResponse{Error: string(code)}
	switch code {
	case dErrors.CodeInternal, dErrors.CodeTimeout:
	default:
		resp.ErrorDescription = dErrors.Message(err)
	}
	return resp
}

// StatusFor returns the HTTP status for err's domain code.
func StatusFor(err error) int {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput, dErrors.CodeInputTooLong, dErrors.CodeTimeRangeInvalid:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden, dErrors.CodeRevoked:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict, dErrors.CodeFullCapacity:
		return http.StatusConflict
	case dErrors.CodeInvalidProof:
		return http.StatusUnprocessableEntity
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case dErrors.CodeConcurrentUpdate:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Decode reads a JSON body into T and validates it. Decoding failures are
// bad requests; validation errors are returned as the body produced them.
func Decode[T any, PT interface {
	*T
	Validatable
}](r *http.Request) (PT, error) {
	req := PT(new(T))
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil && !errors.Is(err, io.EOF) {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid JSON body")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}
