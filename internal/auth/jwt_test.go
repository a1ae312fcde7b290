package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-unit-tests"

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(testSecret, 15*time.Minute)
	require.NoError(t, err)
	return m
}

func TestNewManager_RequiresSecret(t *testing.T) {
	_, err := NewManager("", time.Minute)
	assert.Error(t, err)
}

func TestIssueAndValidate(t *testing.T) {
	m := newTestManager(t)

	token, err := m.Issue("admin-1", "owner@cupidcrochy.com", "admin")
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.UserID)
	assert.Equal(t, "owner@cupidcrochy.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
}

func TestValidate_Expired(t *testing.T) {
	m := newTestManager(t)
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := m.Issue("admin-1", "", "admin")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Validate(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestValidate_WrongSecret(t *testing.T) {
	other, err := NewManager("another-secret", time.Minute)
	require.NoError(t, err)
	token, err := other.Issue("admin-1", "", "admin")
	require.NoError(t, err)

	_, err = newTestManager(t).Validate(token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestValidate_RejectsOtherAlgorithms(t *testing.T) {
	claims := &Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = newTestManager(t).Validate(hs512)
	assert.Error(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = newTestManager(t).Validate(none)
	assert.Error(t, err)
}

func TestValidate_RequiresExpiryAndSubject(t *testing.T) {
	noExp := &Claims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{Subject: "admin-1"}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, noExp).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = newTestManager(t).Validate(token)
	assert.Error(t, err)

	noSub := &Claims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, noSub).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = newTestManager(t).Validate(token)
	assert.Error(t, err)
}

func TestValidate_Malformed(t *testing.T) {
	_, err := newTestManager(t).Validate("not.a.jwt")
	assert.Error(t, err)
}
