// Package requestid propagates a per-request identifier into the context and
// response headers.
package requestid

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"cityscope/pkg/requestcontext"
)

// Header is echoed back to the caller.
const Header = "X-Request-ID"

// Middleware reuses an inbound X-Request-ID (or chi's generated one) and
// otherwise mints a UUID.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" {
			id = middleware.GetReqID(r.Context())
		}
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		ctx := requestcontext.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
