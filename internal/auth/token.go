package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultIssuer is the iss claim stamped on every token.
const DefaultIssuer = "orgservice"

var (
	// ErrInvalidToken is wrapped by every verification failure.
	ErrInvalidToken = errors.New("invalid token")

	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenSignature = errors.New("token signature invalid")
	ErrTokenExpired   = errors.New("token expired")
)

// Claims carried by an admin session token. Subject holds the org_id.
type Claims struct {
	Email            string `json:"email"`
	OrgID            string `json:"org_id"`
	OrganizationName string `json:"organization_name"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HMAC signed session tokens with a single process wide key.
type Tokens struct {
	key    []byte
	method jwt.SigningMethod
	issuer string
}

// NewTokens creates a Tokens using secret and one of HS256, HS384 or HS512.
func NewTokens(secret, algorithm string) (*Tokens, error) {
	if secret == "" {
		return nil, errors.New("JWT secret key not provided")
	}

	method, err := hmacMethod(algorithm)
	if err != nil {
		return nil, err
	}

	return &Tokens{
		key:    []byte(secret),
		method: method,
		issuer: DefaultIssuer,
	}, nil
}

func hmacMethod(algorithm string) (jwt.SigningMethod, error) {
	switch algorithm {
	case "HS256", "":
		return jwt.SigningMethodHS256, nil
	case "HS384":
		return jwt.SigningMethodHS384, nil
	case "HS512":
		return jwt.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("unsupported JWT algorithm %q", algorithm)
	}
}

// Algorithm returns the configured signing algorithm name.
func (t *Tokens) Algorithm() string {
	return t.method.Alg()
}

// Issue signs a token for the given tenant claims, valid for ttl.
// It returns the token and its expiry instant.
func (t *Tokens) Issue(claims Claims, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		return "", time.Time{}, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}

	jti, err := uuid.NewV7()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate token id: %w", err)
	}

	now := time.Now()
	expiresAt := now.Add(ttl)

	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.OrgID,
		Issuer:    t.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		ID:        jti.String(),
	}

	signed, err := jwt.NewWithClaims(t.method, &claims).SignedString(t.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// Verify checks the signature, algorithm, issuer and expiry of tokenStr and
// returns its claims. Errors wrap ErrInvalidToken and one of ErrTokenMalformed,
// ErrTokenSignature or ErrTokenExpired.
func (t *Tokens) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return t.key, nil
	},
		jwt.WithValidMethods([]string{t.method.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%w: %w", ErrInvalidToken, ErrTokenExpired)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, fmt.Errorf("%w: %w", ErrInvalidToken, ErrTokenSignature)
		default:
			return nil, fmt.Errorf("%w: %w: %v", ErrInvalidToken, ErrTokenMalformed, err)
		}
	}

	if claims.Email == "" || claims.OrgID == "" || claims.OrganizationName == "" {
		return nil, fmt.Errorf("%w: %w: missing tenant claims", ErrInvalidToken, ErrTokenMalformed)
	}

	return claims, nil
}
