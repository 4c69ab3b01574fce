package common

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// SessionHeader carries the anonymous cart session identifier.
const SessionHeader = "X-Session-ID"

// SessionMiddleware resolves the cart session identifier from the request
// header, minting a new one for first-time visitors. The resolved identifier
// is stored on the context and echoed back so the client can persist it.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(SessionHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(SessionHeader, id)
		next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), id)))
	})
}
