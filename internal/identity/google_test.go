package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type jwksFixture struct {
	key    *rsa.PrivateKey
	server *httptest.Server
}

func newJWKSFixture(t *testing.T) *jwksFixture {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	set := jwkSet{Keys: []jwk{{
		Kty: "RSA",
		Kid: "test-kid",
		Use: "sig",
		Alg: "RS256",
		N:   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
	}}}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(set)
	}))
	t.Cleanup(server.Close)
	return &jwksFixture{key: key, server: server}
}

func (f *jwksFixture) sign(t *testing.T, claims GoogleClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = "test-kid"
	signed, err := token.SignedString(f.key)
	require.NoError(t, err)
	return signed
}

func validClaims() GoogleClaims {
	return GoogleClaims{
		Email:         "person@example.com",
		EmailVerified: true,
		Name:          "Person",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://accounts.google.com",
			Subject:   "google-sub-1",
			Audience:  jwt.ClaimStrings{"client-123"},
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestGoogleVerifier_Valid(t *testing.T) {
	f := newJWKSFixture(t)
	v := NewGoogleVerifier("client-123", f.server.URL)

	claims, err := v.Verify(context.Background(), f.sign(t, validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "google-sub-1", claims.Subject)
	assert.Equal(t, "person@example.com", claims.Email)
}

func TestGoogleVerifier_WrongAudience(t *testing.T) {
	f := newJWKSFixture(t)
	v := NewGoogleVerifier("someone-else", f.server.URL)

	_, err := v.Verify(context.Background(), f.sign(t, validClaims()))
	assert.ErrorIs(t, err, ErrInvalidIDToken)
}

func TestGoogleVerifier_WrongIssuer(t *testing.T) {
	f := newJWKSFixture(t)
	v := NewGoogleVerifier("client-123", f.server.URL)

	claims := validClaims()
	claims.Issuer = "https://evil.example.com"
	_, err := v.Verify(context.Background(), f.sign(t, claims))
	assert.ErrorIs(t, err, ErrInvalidIDToken)
}

func TestGoogleVerifier_Expired(t *testing.T) {
	f := newJWKSFixture(t)
	v := NewGoogleVerifier("client-123", f.server.URL)

	claims := validClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	_, err := v.Verify(context.Background(), f.sign(t, claims))
	assert.ErrorIs(t, err, ErrInvalidIDToken)
}

func TestGoogleVerifier_NotConfigured(t *testing.T) {
	_, err := NewGoogleVerifier("", "http://unused").Verify(context.Background(), "x.y.z")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestGoogleVerifier_JWKSDown(t *testing.T) {
	f := newJWKSFixture(t)
	token := f.sign(t, validClaims())
	f.server.Close()

	v := NewGoogleVerifier("client-123", f.server.URL)
	_, err := v.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}
