package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"seragon/config"
	"seragon/internal/auth"
	"seragon/internal/domain"
	"seragon/internal/models"
	"seragon/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newAuthFixture(t *testing.T, adminEmails ...string) (*AuthService, *repository.UserRepository) {
	t.Helper()
	db := newTestDB(t)
	cfg := &config.Config{
		JWT: config.JWTConfig{
			AccessSecret:  "access-secret",
			RefreshSecret: "refresh-secret",
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: time.Hour,
			Issuer:        "seragon-test",
		},
		Admin: config.AdminConfig{Emails: adminEmails},
	}
	users := repository.NewUserRepository(db)
	return NewAuthService(cfg, users), users
}

func TestUpsert_CreatesThenRefreshesSameUser(t *testing.T) {
	svc, users := newAuthFixture(t)
	ctx := context.Background()

	u, created, err := svc.Upsert(ctx, Profile{Provider: domain.ProviderReplit, ExternalID: "42", Email: "Steve@Example.com", EmailVerified: true, FirstName: "Steve"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "replit:42", u.ID)
	assert.Equal(t, "steve@example.com", u.EmailAddress())
	assert.Equal(t, domain.RoleCustomer, u.Role)

	u, created, err = svc.Upsert(ctx, Profile{Provider: domain.ProviderReplit, ExternalID: "42", FirstName: "Alex", AvatarURL: "https://img/a.png"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "replit:42", u.ID)
	assert.Equal(t, "Alex", u.FirstName)
	assert.Equal(t, "steve@example.com", u.EmailAddress(), "missing fields keep their stored value")

	stored, err := users.GetByID(ctx, "replit:42")
	require.NoError(t, err)
	assert.Equal(t, "https://img/a.png", stored.ProfileImageURL)
}

func TestUpsert_LinksProvidersByEmail(t *testing.T) {
	svc, users := newAuthFixture(t)
	ctx := context.Background()

	first, _, err := svc.Upsert(ctx, Profile{Provider: domain.ProviderReplit, ExternalID: "7", Email: "builder@example.com", EmailVerified: true})
	require.NoError(t, err)
	second, created, err := svc.Upsert(ctx, Profile{Provider: domain.ProviderGoogle, ExternalID: "g-7", Email: "builder@example.com", EmailVerified: true, LastName: "Builder"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	assert.Equal(t, "Builder", second.LastName)
	_, err = users.GetByID(ctx, "google:g-7")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUpsert_UnverifiedEmailDoesNotLinkAccounts(t *testing.T) {
	svc, users := newAuthFixture(t)
	ctx := context.Background()
	email := "admin@seragon.test"
	require.NoError(t, users.Upsert(ctx, &models.User{ID: "local:admin", Email: &email, Role: domain.RoleAdmin}))

	u, tokens, err := svc.Login(ctx, ProfileFromDiscord(DiscordUser{ID: "666", Username: "mallory", Email: email}))
	require.NoError(t, err)
	assert.Equal(t, "discord:666", u.ID)
	assert.Equal(t, domain.RoleCustomer, u.Role)
	assert.Empty(t, u.EmailAddress(), "unverified emails are not stored")

	claims, err := auth.ParseAccessToken(&svc.cfg.JWT, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "discord:666", claims.UserID)
	assert.Equal(t, domain.RoleCustomer, claims.Role)

	admin, err := users.GetByID(ctx, "local:admin")
	require.NoError(t, err)
	assert.Equal(t, "", admin.FirstName, "the existing account is left untouched")
}

func TestUpsert_VerifiedEmailLinksExistingAccount(t *testing.T) {
	svc, users := newAuthFixture(t)
	ctx := context.Background()
	email := "alice@example.com"
	require.NoError(t, users.Upsert(ctx, &models.User{ID: "replit:1", Email: &email, Role: domain.RoleCustomer}))

	u, created, err := svc.Upsert(ctx, ProfileFromDiscord(DiscordUser{ID: "9", Username: "alice", Email: email, Verified: true}))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "replit:1", u.ID)
	assert.Equal(t, "alice", u.FirstName)
}

func TestUpsert_AdminEmailRequiresVerification(t *testing.T) {
	svc, _ := newAuthFixture(t, "owner@seragon.test")
	ctx := context.Background()

	u, created, err := svc.Upsert(ctx, ProfileFromDiscord(DiscordUser{ID: "777", Email: "owner@seragon.test"}))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, domain.RoleCustomer, u.Role)

	u, created, err = svc.Upsert(ctx, ProfileFromGoogle(GoogleUser{ID: "g-owner", Email: "owner@seragon.test", VerifiedEmail: true}))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "google:g-owner", u.ID)
	assert.Equal(t, domain.RoleAdmin, u.Role)
}

func TestUpsert_ProvidersWithSameSubjectStayDistinct(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	a, _, err := svc.Upsert(ctx, Profile{Provider: domain.ProviderDiscord, ExternalID: "123"})
	require.NoError(t, err)
	b, _, err := svc.Upsert(ctx, Profile{Provider: domain.ProviderGoogle, ExternalID: "123"})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestUpsert_PromotesConfiguredAdminEmails(t *testing.T) {
	svc, _ := newAuthFixture(t, "owner@seragon.test")
	ctx := context.Background()

	u, _, err := svc.Upsert(ctx, Profile{Provider: domain.ProviderDiscord, ExternalID: "1", Email: "OWNER@seragon.test", EmailVerified: true})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)

	// Admins are never demoted by a later login without the email.
	u, _, err = svc.Upsert(ctx, Profile{Provider: domain.ProviderDiscord, ExternalID: "1"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)
}

func TestUpsert_RequiresSubject(t *testing.T) {
	svc, _ := newAuthFixture(t)
	_, _, err := svc.Upsert(context.Background(), Profile{Provider: domain.ProviderGoogle, ExternalID: "  "})
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestLogin_IssuesTokensForUser(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	u, tokens, err := svc.Login(ctx, Profile{Provider: domain.ProviderGoogle, ExternalID: "g1", Email: "g@example.com", EmailVerified: true})
	require.NoError(t, err)
	claims, err := auth.ParseAccessToken(&svc.cfg.JWT, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, domain.RoleCustomer, claims.Role)

	refreshed, err := svc.RefreshToken(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = svc.RefreshToken(ctx, tokens.AccessToken)
	assert.True(t, errors.Is(err, auth.ErrInvalidToken))
}

func TestLoginWithPassword(t *testing.T) {
	svc, users := newAuthFixture(t)
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)
	email := "admin@seragon.test"
	require.NoError(t, users.Upsert(ctx, &models.User{ID: "local:admin@seragon.test", Email: &email, Role: domain.RoleAdmin, PasswordHash: string(hash)}))

	u, tokens, err := svc.LoginWithPassword(ctx, " Admin@Seragon.test ", "hunter22")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())
	assert.NotEmpty(t, tokens.RefreshToken)

	_, _, err = svc.LoginWithPassword(ctx, email, "wrong")
	assert.ErrorIs(t, err, ErrInvalidCreds)
	_, _, err = svc.LoginWithPassword(ctx, "nobody@seragon.test", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCreds)
}

func TestGetUser_NotFound(t *testing.T) {
	svc, _ := newAuthFixture(t)
	_, err := svc.GetUser(context.Background(), "replit:missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestIdentityAdapters(t *testing.T) {
	replit := ProfileFromReplitClaims(jwt.MapClaims{
		"sub":               "99",
		"email":             "r@example.com",
		"first_name":        "Rae",
		"last_name":         "Pl",
		"profile_image_url": "https://replit/img.png",
	})
	assert.Equal(t, "replit:99", replit.UserID())
	assert.Equal(t, "Rae", replit.FirstName)
	assert.Equal(t, "https://replit/img.png", replit.AvatarURL)
	assert.False(t, replit.EmailVerified)
	assert.True(t, ProfileFromReplitClaims(jwt.MapClaims{"sub": "99", "email_verified": true}).EmailVerified)
	assert.True(t, ProfileFromDiscord(DiscordUser{ID: "5", Verified: true}).EmailVerified)

	legacy := ProfileFromDiscord(DiscordUser{ID: "5", Username: "crafter", Discriminator: "1234", Avatar: "abc"})
	assert.Equal(t, "discord:5", legacy.UserID())
	assert.Equal(t, "1234", legacy.LastName)
	assert.Equal(t, "https://cdn.discordapp.com/avatars/5/abc.png", legacy.AvatarURL)

	migrated := ProfileFromDiscord(DiscordUser{ID: "6", Username: "newname", Discriminator: "0"})
	assert.Empty(t, migrated.LastName)
	assert.Empty(t, migrated.AvatarURL)

	google := ProfileFromGoogle(GoogleUser{ID: "g", Email: "g@example.com", GivenName: "Gia", FamilyName: "Oogle", Picture: "https://pic"})
	assert.Equal(t, Profile{Provider: domain.ProviderGoogle, ExternalID: "g", Email: "g@example.com", FirstName: "Gia", LastName: "Oogle", AvatarURL: "https://pic"}, google)
}
