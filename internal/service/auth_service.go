package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"seragon/config"
	"seragon/internal/auth"
	"seragon/internal/domain"
	"seragon/internal/models"
	"seragon/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrInvalidCreds = errors.New("invalid email or password")

// Profile is the provider-neutral shape every login adapter normalizes into.
type Profile struct {
	Provider   string
	ExternalID string
	Email      string
	// EmailVerified is set only when the provider asserts it checked Email.
	EmailVerified bool
	FirstName     string
	LastName      string
	AvatarURL     string
}

func (p Profile) UserID() string {
	return p.Provider + ":" + p.ExternalID
}

type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthService owns identity resolution and token issuance for every provider.
type AuthService struct {
	cfg      *config.Config
	userRepo *repository.UserRepository
}

func NewAuthService(cfg *config.Config, userRepo *repository.UserRepository) *AuthService {
	return &AuthService{cfg: cfg, userRepo: userRepo}
}

func (s *AuthService) isAdminEmail(email string) bool {
	if email == "" {
		return false
	}
	return slices.ContainsFunc(s.cfg.Admin.Emails, func(e string) bool {
		return strings.EqualFold(e, email)
	})
}

// Upsert resolves a provider login to exactly one user. Lookup order: the
// provider-scoped id, then an existing account with the same verified email
// (linked), then a new customer account. Unverified emails are never stored,
// linked or matched against ADMIN_EMAILS.
func (s *AuthService) Upsert(ctx context.Context, p Profile) (*models.User, bool, error) {
	p.ExternalID = strings.TrimSpace(p.ExternalID)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	if p.Provider == "" || p.ExternalID == "" {
		return nil, false, fmt.Errorf("%w: provider subject required", domain.ErrInvalidArgument)
	}
	if !p.EmailVerified {
		p.Email = ""
	}

	u, err := s.userRepo.GetByID(ctx, p.UserID())
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	if u == nil && p.Email != "" {
		u, err = s.userRepo.GetByEmail(ctx, p.Email)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, err
		}
	}
	if u != nil {
		mergeProfile(u, p)
		if s.isAdminEmail(p.Email) {
			u.Role = domain.RoleAdmin
		}
		if err := s.userRepo.Update(ctx, u); err != nil {
			return nil, false, err
		}
		return u, false, nil
	}

	u = &models.User{
		ID:              p.UserID(),
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		ProfileImageURL: p.AvatarURL,
		Role:            domain.RoleCustomer,
	}
	if p.Email != "" {
		email := p.Email
		u.Email = &email
	}
	if s.isAdminEmail(p.Email) {
		u.Role = domain.RoleAdmin
	}
	if err := s.userRepo.Upsert(ctx, u); err != nil {
		return nil, false, err
	}
	return u, true, nil
}

// mergeProfile only overwrites fields the provider actually returned.
func mergeProfile(u *models.User, p Profile) {
	if p.Email != "" && u.Email == nil {
		email := p.Email
		u.Email = &email
	}
	if p.FirstName != "" {
		u.FirstName = p.FirstName
	}
	if p.LastName != "" {
		u.LastName = p.LastName
	}
	if p.AvatarURL != "" {
		u.ProfileImageURL = p.AvatarURL
	}
}

func (s *AuthService) IssueTokens(u *models.User) (*Tokens, error) {
	access, err := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.EmailAddress(), u.Role)
	if err != nil {
		return nil, err
	}
	refresh, err := auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
	if err != nil {
		return nil, err
	}
	return &Tokens{AccessToken: access, RefreshToken: refresh}, nil
}

// Login upserts the profile and returns the user with a fresh token pair.
func (s *AuthService) Login(ctx context.Context, p Profile) (*models.User, *Tokens, error) {
	u, _, err := s.Upsert(ctx, p)
	if err != nil {
		return nil, nil, err
	}
	tokens, err := s.IssueTokens(u)
	if err != nil {
		return nil, nil, err
	}
	return u, tokens, nil
}

// LoginWithPassword authenticates the seeded admin account.
func (s *AuthService) LoginWithPassword(ctx context.Context, email, password string) (*models.User, *Tokens, error) {
	u, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCreds
		}
		return nil, nil, err
	}
	if u.PasswordHash == "" {
		return nil, nil, ErrInvalidCreds
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCreds
	}
	tokens, err := s.IssueTokens(u)
	if err != nil {
		return nil, nil, err
	}
	return u, tokens, nil
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*Tokens, error) {
	userID, err := auth.ParseRefreshToken(&s.cfg.JWT, refreshToken)
	if err != nil {
		return nil, err
	}
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrInvalidToken
		}
		return nil, err
	}
	return s.IssueTokens(u)
}

func (s *AuthService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, userID)
	}
	return u, err
}
