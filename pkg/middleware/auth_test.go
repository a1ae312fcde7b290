package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func stubValidator(token string) (*Claims, error) {
	switch token {
	case "admin-token":
		return &Claims{UserID: "u-1", Role: "admin"}, nil
	case "customer-token":
		return &Claims{UserID: "u-2", Role: "customer"}, nil
	default:
		return nil, errors.New("bad token")
	}
}

func TestAuthAndRequireRole(t *testing.T) {
	var gotUser string
	handler := Auth(stubValidator)(RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))

	tests := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{"missing header", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"empty token", "Bearer  ", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"invalid token", "Bearer nope", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"wrong role", "Bearer customer-token", http.StatusForbidden, "FORBIDDEN"},
		{"admin", "bearer admin-token", http.StatusNoContent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUser = ""
			req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/products/bag1", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.status, rr.Code)
			if tt.code != "" {
				assert.Contains(t, rr.Body.String(), tt.code)
				assert.Empty(t, gotUser)
				return
			}
			assert.Equal(t, "u-1", gotUser)
		})
	}
}

func TestContextAccessors_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, UserIDFromContext(req.Context()))
	assert.Empty(t, RoleFromContext(req.Context()))
}
