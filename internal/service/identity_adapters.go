package service

import (
	"fmt"

	"seragon/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// ProfileFromReplitClaims maps verified Replit OIDC ID token claims.
func ProfileFromReplitClaims(claims jwt.MapClaims) Profile {
	str := func(k string) string {
		v, _ := claims[k].(string)
		return v
	}
	verified, _ := claims["email_verified"].(bool)
	return Profile{
		Provider:      domain.ProviderReplit,
		ExternalID:    str("sub"),
		Email:         str("email"),
		EmailVerified: verified,
		FirstName:     str("first_name"),
		LastName:      str("last_name"),
		AvatarURL:     str("profile_image_url"),
	}
}

// DiscordUser is the /users/@me payload.
type DiscordUser struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
	Email         string `json:"email"`
	Verified      bool   `json:"verified"`
	Avatar        string `json:"avatar"`
}

func ProfileFromDiscord(u DiscordUser) Profile {
	p := Profile{
		Provider:      domain.ProviderDiscord,
		ExternalID:    u.ID,
		Email:         u.Email,
		EmailVerified: u.Verified,
		FirstName:     u.Username,
	}
	// "0" marks accounts migrated to unique usernames.
	if u.Discriminator != "" && u.Discriminator != "0" {
		p.LastName = u.Discriminator
	}
	if u.Avatar != "" {
		p.AvatarURL = fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", u.ID, u.Avatar)
	}
	return p
}

// GoogleUser is the oauth2/v2/userinfo payload.
type GoogleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

func ProfileFromGoogle(u GoogleUser) Profile {
	return Profile{
		Provider:      domain.ProviderGoogle,
		ExternalID:    u.ID,
		Email:         u.Email,
		EmailVerified: u.VerifiedEmail,
		FirstName:     u.GivenName,
		LastName:      u.FamilyName,
		AvatarURL:     u.Picture,
	}
}
