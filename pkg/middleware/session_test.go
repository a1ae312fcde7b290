package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSession(t *testing.T) {
	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"valid id kept", "3f1d2c4b-5a69-4e7f-8a1b-2c3d4e5f6a7b", true},
		{"short token kept", "visitor_01", true},
		{"missing issues new", "", false},
		{"too short replaced", "abc", false},
		{"illegal characters replaced", "cart:../../etc", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := Session(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = SessionIDFromRequest(r)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
			if tt.header != "" {
				req.Header.Set(SessionIDHeader, tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, seen, rr.Header().Get(SessionIDHeader))
			if tt.keep {
				assert.Equal(t, tt.header, seen)
				return
			}
			_, err := uuid.Parse(seen)
			assert.NoError(t, err)
		})
	}
}
