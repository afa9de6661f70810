package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/orgservice/internal/auth"
	"github.com/wolfeidau/orgservice/internal/store"
	"github.com/wolfeidau/orgservice/internal/telemetry"
)

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(claims auth.Claims, ttl time.Duration) (string, time.Time, error)
}

// LoginInput holds admin credentials.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is returned on successful login.
type LoginResult struct {
	AccessToken      string    `json:"access_token"`
	TokenType        string    `json:"token_type"`
	ExpiresIn        int64     `json:"expires_in"`
	ExpiresAt        time.Time `json:"expires_at"`
	OrgID            string    `json:"org_id"`
	OrganizationName string    `json:"organization_name"`
	AdminEmail       string    `json:"admin_email"`
}

// AuthService verifies admin credentials and issues tenant scoped tokens.
type AuthService struct {
	store   store.OrganizationStore
	hasher  PasswordHasher
	tokens  TokenIssuer
	ttl     time.Duration
	metrics *telemetry.Metrics

	// dummyHash is compared against when the email is unknown so both failure
	// paths cost one bcrypt comparison at the hasher's cost.
	dummyHash string
}

// NewAuthService creates an AuthService issuing tokens valid for ttl.
func NewAuthService(st store.OrganizationStore, hasher PasswordHasher, tokens TokenIssuer, ttl time.Duration) (*AuthService, error) {
	dummyHash, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("failed to create dummy hash: %w", err)
	}

	return &AuthService{
		store:     st,
		hasher:    hasher,
		tokens:    tokens,
		ttl:       ttl,
		metrics:   telemetry.GetMetrics(),
		dummyHash: dummyHash,
	}, nil
}

// Login returns a token for the organization administered by email. Unknown
// emails and wrong passwords both fail with ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	org, err := s.store.FindByEmail(ctx, in.Email)
	if err != nil {
		if !errors.Is(err, store.ErrOrganizationNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrStorage, err)
		}
		s.hasher.Verify(in.Password, s.dummyHash)
		return nil, s.rejectLogin(ctx)
	}

	if !s.hasher.Verify(in.Password, org.PasswordHash) {
		return nil, s.rejectLogin(ctx)
	}

	token, expiresAt, err := s.tokens.Issue(auth.Claims{
		Email:            org.AdminEmail,
		OrgID:            org.OrgID.String(),
		OrganizationName: org.OrganizationName,
	}, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.metrics.LoginsTotal.Add(ctx, 1)

	zerolog.Ctx(ctx).Info().
		Str("organization_name", org.OrganizationName).
		Msg("Admin logged in")

	return &LoginResult{
		AccessToken:      token,
		TokenType:        "bearer",
		ExpiresIn:        int64(s.ttl.Seconds()),
		ExpiresAt:        expiresAt.UTC(),
		OrgID:            org.OrgID.String(),
		OrganizationName: org.OrganizationName,
		AdminEmail:       org.AdminEmail,
	}, nil
}

func (s *AuthService) rejectLogin(ctx context.Context) error {
	s.metrics.LoginFailuresTotal.Add(ctx, 1)
	return ErrInvalidCredentials
}
