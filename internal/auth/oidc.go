package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// ProviderMetadata is the subset of an OpenID discovery document we use.
type ProviderMetadata struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	JWKSURI               string `json:"jwks_uri"`
}

// OIDCProvider discovers an issuer lazily and verifies RS256 ID tokens against its JWKS.
type OIDCProvider struct {
	issuer string
	client *http.Client

	mu       sync.Mutex
	meta     *ProviderMetadata
	keys     map[string]*rsa.PublicKey
	keysTTL  time.Time
	cacheFor time.Duration
}

func NewOIDCProvider(issuer string, client *http.Client) *OIDCProvider {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &OIDCProvider{
		issuer:   strings.TrimRight(issuer, "/"),
		client:   client,
		cacheFor: time.Hour,
	}
}

func (p *OIDCProvider) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Metadata fetches and caches the discovery document.
func (p *OIDCProvider) Metadata(ctx context.Context) (*ProviderMetadata, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.meta != nil {
		return p.meta, nil
	}
	var meta ProviderMetadata
	if err := p.getJSON(ctx, p.issuer+"/.well-known/openid-configuration", &meta); err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}
	if meta.AuthorizationEndpoint == "" || meta.TokenEndpoint == "" || meta.JWKSURI == "" {
		return nil, errors.New("oidc discovery: incomplete metadata")
	}
	p.meta = &meta
	return p.meta, nil
}

// Endpoint returns the oauth2 endpoint advertised by the issuer.
func (p *OIDCProvider) Endpoint(ctx context.Context) (oauth2.Endpoint, error) {
	meta, err := p.Metadata(ctx)
	if err != nil {
		return oauth2.Endpoint{}, err
	}
	return oauth2.Endpoint{AuthURL: meta.AuthorizationEndpoint, TokenURL: meta.TokenEndpoint}, nil
}

func (p *OIDCProvider) publicKeys(ctx context.Context, force bool) (map[string]*rsa.PublicKey, error) {
	meta, err := p.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !force && p.keys != nil && time.Now().Before(p.keysTTL) {
		return p.keys, nil
	}
	var jwks struct {
		Keys []struct {
			Kty string `json:"kty"`
			Kid string `json:"kid"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}
	if err := p.getJSON(ctx, meta.JWKSURI, &jwks); err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}
	keys := make(map[string]*rsa.PublicKey, len(jwks.Keys))
	for _, k := range jwks.Keys {
		if k.Kty != "RSA" {
			continue
		}
		nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
		if err != nil {
			continue
		}
		eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
		if err != nil {
			continue
		}
		e := 0
		for _, b := range eBytes {
			e = e<<8 + int(b)
		}
		keys[k.Kid] = &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: e}
	}
	p.keys = keys
	p.keysTTL = time.Now().Add(p.cacheFor)
	return keys, nil
}

// VerifyIDToken checks signature, issuer, audience and expiry and returns the claims.
// An unknown kid forces one JWKS refresh before failing.
func (p *OIDCProvider) VerifyIDToken(ctx context.Context, raw, audience string) (jwt.MapClaims, error) {
	meta, err := p.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	keyFunc := func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		keys, err := p.publicKeys(ctx, false)
		if err != nil {
			return nil, err
		}
		key, ok := keys[kid]
		if !ok {
			if keys, err = p.publicKeys(ctx, true); err != nil {
				return nil, err
			}
			if key, ok = keys[kid]; !ok {
				return nil, fmt.Errorf("unknown signing key %q", kid)
			}
		}
		return key, nil
	}
	token, err := jwt.Parse(raw, keyFunc,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(meta.Issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
