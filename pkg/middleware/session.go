package middleware

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"github.com/Mahir9011/Cupid-Crochy/pkg/logger"
)

// SessionIDHeader identifies the visitor whose cart a request addresses.
const SessionIDHeader = "X-Session-ID"

var validSessionID = regexp.MustCompile(`^[A-Za-z0-9_-]{8,128}$`)

// Session reads the visitor session ID from X-Session-ID, issuing a new UUID
// when the header is absent or malformed, and echoes it back in the response
// so the client can persist it. The ID is stored in the request context.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(SessionIDHeader)
		if !validSessionID.MatchString(id) {
			id = uuid.NewString()
		}
		w.Header().Set(SessionIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.WithSessionID(r.Context(), id)))
	})
}

// SessionIDFromRequest returns the session ID set by Session.
func SessionIDFromRequest(r *http.Request) string {
	return logger.SessionIDFromContext(r.Context())
}
