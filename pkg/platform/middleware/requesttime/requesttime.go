// Package requesttime fixes the ledger clock for a request.
// Every read of the clock within one call observes the same value, so expiry
// checks and audit timestamps agree.
package requesttime

import (
	"net/http"
	"time"

	"idledger/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request.
func Middleware(next http.Handler) http.Handler {
	return WithSource(time.Now)(next)
}

// WithSource builds the middleware over an injected time source.
func WithSource(now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), now())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
