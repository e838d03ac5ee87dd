package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"seragon/config"
	"seragon/internal/auth"
	"seragon/internal/domain"
	"seragon/internal/logger"
	"seragon/internal/repository"
	"seragon/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
	"golang.org/x/oauth2/google"
)

// OAuthProvider adapts one identity provider to the shared login flow.
type OAuthProvider struct {
	Name        string
	clientID    string
	config      func(ctx context.Context) (*oauth2.Config, error)
	profile     func(ctx context.Context, conf *oauth2.Config, tok *oauth2.Token) (service.Profile, error)
	authOptions []oauth2.AuthCodeOption
}

func (p *OAuthProvider) enabled() bool { return p != nil && p.clientID != "" }

func staticConfig(conf *oauth2.Config) func(context.Context) (*oauth2.Config, error) {
	return func(context.Context) (*oauth2.Config, error) { return conf, nil }
}

func fetchJSON(ctx context.Context, client *http.Client, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// NewReplitProvider signs users in through Replit's OpenID Connect issuer.
func NewReplitProvider(oc config.OAuthConfig, issuer *auth.OIDCProvider) *OAuthProvider {
	return &OAuthProvider{
		Name:     domain.ProviderReplit,
		clientID: oc.ReplitClientID,
		config: func(ctx context.Context) (*oauth2.Config, error) {
			ep, err := issuer.Endpoint(ctx)
			if err != nil {
				return nil, err
			}
			return &oauth2.Config{
				ClientID:     oc.ReplitClientID,
				ClientSecret: oc.ReplitClientSecret,
				RedirectURL:  oc.ReplitRedirectURL,
				Scopes:       []string{"openid", "email", "profile", "offline_access"},
				Endpoint:     ep,
			}, nil
		},
		profile: func(ctx context.Context, _ *oauth2.Config, tok *oauth2.Token) (service.Profile, error) {
			raw, _ := tok.Extra("id_token").(string)
			if raw == "" {
				return service.Profile{}, errors.New("token response has no id_token")
			}
			claims, err := issuer.VerifyIDToken(ctx, raw, oc.ReplitClientID)
			if err != nil {
				return service.Profile{}, err
			}
			return service.ProfileFromReplitClaims(claims), nil
		},
		authOptions: []oauth2.AuthCodeOption{oauth2.SetAuthURLParam("prompt", "login consent")},
	}
}

const (
	DiscordAPIBase    = "https://discord.com/api"
	GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// NewDiscordProvider uses the identify and email scopes. endpoint and apiBase are
// overridable for tests.
func NewDiscordProvider(oc config.OAuthConfig, endpoint oauth2.Endpoint, apiBase string) *OAuthProvider {
	if endpoint.AuthURL == "" {
		endpoint = endpoints.Discord
	}
	if apiBase == "" {
		apiBase = DiscordAPIBase
	}
	conf := &oauth2.Config{
		ClientID:     oc.DiscordClientID,
		ClientSecret: oc.DiscordClientSecret,
		RedirectURL:  oc.DiscordRedirectURL,
		Scopes:       []string{"identify", "email"},
		Endpoint:     endpoint,
	}
	return &OAuthProvider{
		Name:     domain.ProviderDiscord,
		clientID: oc.DiscordClientID,
		config:   staticConfig(conf),
		profile: func(ctx context.Context, conf *oauth2.Config, tok *oauth2.Token) (service.Profile, error) {
			var u service.DiscordUser
			if err := fetchJSON(ctx, conf.Client(ctx, tok), apiBase+"/users/@me", &u); err != nil {
				return service.Profile{}, err
			}
			return service.ProfileFromDiscord(u), nil
		},
	}
}

func NewGoogleProvider(oc config.OAuthConfig, endpoint oauth2.Endpoint, userInfoURL string) *OAuthProvider {
	if endpoint.AuthURL == "" {
		endpoint = google.Endpoint
	}
	if userInfoURL == "" {
		userInfoURL = GoogleUserInfoURL
	}
	conf := &oauth2.Config{
		ClientID:     oc.GoogleClientID,
		ClientSecret: oc.GoogleClientSecret,
		RedirectURL:  oc.GoogleRedirectURL,
		Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
		Endpoint:     endpoint,
	}
	return &OAuthProvider{
		Name:     domain.ProviderGoogle,
		clientID: oc.GoogleClientID,
		config:   staticConfig(conf),
		profile: func(ctx context.Context, conf *oauth2.Config, tok *oauth2.Token) (service.Profile, error) {
			var u service.GoogleUser
			if err := fetchJSON(ctx, conf.Client(ctx, tok), userInfoURL, &u); err != nil {
				return service.Profile{}, err
			}
			return service.ProfileFromGoogle(u), nil
		},
		authOptions: []oauth2.AuthCodeOption{oauth2.AccessTypeOffline},
	}
}

// OAuthHandler runs the redirect and callback legs for every provider and
// converges them on AuthService.Login.
type OAuthHandler struct {
	oc        config.OAuthConfig
	authSvc   *service.AuthService
	auditRepo *repository.AuditLogRepository
}

func NewOAuthHandler(oc config.OAuthConfig, authSvc *service.AuthService, auditRepo *repository.AuditLogRepository) *OAuthHandler {
	return &OAuthHandler{oc: oc, authSvc: authSvc, auditRepo: auditRepo}
}

// Start redirects to the provider's consent screen with a signed state.
func (h *OAuthHandler) Start(p *OAuthProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !p.enabled() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": fmt.Sprintf("%s login not configured", p.Name)})
			return
		}
		conf, err := p.config(c.Request.Context())
		if err != nil {
			logger.Error(c, "oauth config failed", err, zap.String("provider", p.Name))
			c.JSON(http.StatusBadGateway, gin.H{"error": "identity provider unavailable"})
			return
		}
		state, err := auth.IssueState(h.oc.StateSecret, p.Name, h.oc.StateExpiry)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Redirect(http.StatusFound, conf.AuthCodeURL(state, p.authOptions...))
	}
}

// Callback exchanges the code, normalizes the profile and issues our tokens.
func (h *OAuthHandler) Callback(p *OAuthProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !p.enabled() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": fmt.Sprintf("%s login not configured", p.Name)})
			return
		}
		if e := c.Query("error"); e != "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "authorization denied: " + e})
			return
		}
		if err := auth.VerifyState(h.oc.StateSecret, p.Name, c.Query("state")); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid state"})
			return
		}
		code := c.Query("code")
		if code == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing code"})
			return
		}
		ctx := c.Request.Context()
		conf, err := p.config(ctx)
		if err != nil {
			logger.Error(c, "oauth config failed", err, zap.String("provider", p.Name))
			c.JSON(http.StatusBadGateway, gin.H{"error": "identity provider unavailable"})
			return
		}
		tok, err := conf.Exchange(ctx, code)
		if err != nil {
			logger.Warn(c, "oauth exchange failed", zap.String("provider", p.Name), zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "exchange failed"})
			return
		}
		profile, err := p.profile(ctx, conf, tok)
		if err != nil {
			logger.Warn(c, "oauth profile failed", zap.String("provider", p.Name), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to get user info"})
			return
		}
		u, tokens, err := h.authSvc.Login(ctx, profile)
		if err != nil {
			respondError(c, err)
			return
		}
		writeAudit(c, h.auditRepo, u.ID, p.Name+"_login")
		c.JSON(http.StatusOK, gin.H{"user": u, "access_token": tokens.AccessToken, "refresh_token": tokens.RefreshToken})
	}
}

