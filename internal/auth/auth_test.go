package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"seragon/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{
		AccessSecret:  "access",
		RefreshSecret: "refresh",
		AccessExpiry:  time.Minute,
		RefreshExpiry: time.Hour,
		Issuer:        "seragon-test",
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	tok, err := GenerateAccessToken(cfg, "discord:1", "a@b.c", "admin")
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, tok)
	require.NoError(t, err)
	assert.Equal(t, "discord:1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)

	_, err = ParseAccessToken(&config.JWTConfig{AccessSecret: "other"}, tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	refresh, err := GenerateRefreshToken(cfg, "google:9")
	require.NoError(t, err)

	sub, err := ParseRefreshToken(cfg, refresh)
	require.NoError(t, err)
	assert.Equal(t, "google:9", sub)

	_, err = ParseAccessToken(cfg, refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestState(t *testing.T) {
	s, err := IssueState("secret", "discord", time.Minute)
	require.NoError(t, err)
	require.NoError(t, VerifyState("secret", "discord", s))

	assert.Error(t, VerifyState("secret", "google", s))
	assert.Error(t, VerifyState("wrong", "discord", s))
	assert.Error(t, VerifyState("secret", "discord", ""))

	expired, err := IssueState("secret", "discord", -time.Minute)
	require.NoError(t, err)
	assert.Error(t, VerifyState("secret", "discord", expired))
}

type fakeIssuer struct {
	srv      *httptest.Server
	key      *rsa.PrivateKey
	kid      string
	jwksHits atomic.Int32
}

func newFakeIssuer(t *testing.T) *fakeIssuer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	f := &fakeIssuer{key: key, kid: "k1"}
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"issuer":                 f.srv.URL,
			"authorization_endpoint": f.srv.URL + "/auth",
			"token_endpoint":         f.srv.URL + "/token",
			"jwks_uri":               f.srv.URL + "/jwks",
		})
	})
	mux.HandleFunc("/jwks", func(w http.ResponseWriter, r *http.Request) {
		f.jwksHits.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"keys": []map[string]string{{
				"kty": "RSA",
				"kid": f.kid,
				"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
			}},
		})
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeIssuer) sign(t *testing.T, kid string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = kid
	s, err := tok.SignedString(f.key)
	require.NoError(t, err)
	return s
}

func TestOIDCProvider_VerifyIDToken(t *testing.T) {
	f := newFakeIssuer(t)
	p := NewOIDCProvider(f.srv.URL, f.srv.Client())
	ctx := context.Background()

	ep, err := p.Endpoint(ctx)
	require.NoError(t, err)
	assert.Equal(t, f.srv.URL+"/token", ep.TokenURL)

	raw := f.sign(t, "k1", jwt.MapClaims{
		"iss":   f.srv.URL,
		"aud":   "repl-123",
		"sub":   "42",
		"email": "player@example.com",
		"exp":   time.Now().Add(time.Minute).Unix(),
	})
	claims, err := p.VerifyIDToken(ctx, raw, "repl-123")
	require.NoError(t, err)
	assert.Equal(t, "42", claims["sub"])

	_, err = p.VerifyIDToken(ctx, raw, "someone-else")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestOIDCProvider_UnknownKidRefreshesOnce(t *testing.T) {
	f := newFakeIssuer(t)
	p := NewOIDCProvider(f.srv.URL, f.srv.Client())
	raw := f.sign(t, "rotated", jwt.MapClaims{
		"iss": f.srv.URL,
		"aud": "repl-123",
		"sub": "42",
		"exp": time.Now().Add(time.Minute).Unix(),
	})
	_, err := p.VerifyIDToken(context.Background(), raw, "repl-123")
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, int32(2), f.jwksHits.Load())
}
