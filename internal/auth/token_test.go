package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func testClaims() Claims {
	return Claims{
		Email:            "admin@techcorp.com",
		OrgID:            "0190b6a2-7c4e-7d3b-9b1a-4f6a2c8e1d00",
		OrganizationName: "TechCorp",
	}
}

func newTestTokens(t *testing.T, algorithm string) *Tokens {
	t.Helper()
	tokens, err := NewTokens(testSecret, algorithm)
	require.NoError(t, err)
	return tokens
}

func signClaims(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	tokenStr, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return tokenStr
}

func TestNewTokens(t *testing.T) {
	tests := []struct {
		name      string
		secret    string
		algorithm string
		wantAlg   string
		wantErr   string
	}{
		{name: "default algorithm", secret: testSecret, wantAlg: "HS256"},
		{name: "HS256", secret: testSecret, algorithm: "HS256", wantAlg: "HS256"},
		{name: "HS384", secret: testSecret, algorithm: "HS384", wantAlg: "HS384"},
		{name: "HS512", secret: testSecret, algorithm: "HS512", wantAlg: "HS512"},
		{name: "empty secret", algorithm: "HS256", wantErr: "JWT secret key not provided"},
		{name: "unsupported algorithm", secret: testSecret, algorithm: "RS256", wantErr: `unsupported JWT algorithm "RS256"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := NewTokens(tt.secret, tt.algorithm)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				require.Nil(t, tokens)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantAlg, tokens.Algorithm())
		})
	}
}

func TestTokens_IssueAndVerify(t *testing.T) {
	for _, alg := range []string{"HS256", "HS384", "HS512"} {
		t.Run(alg, func(t *testing.T) {
			tokens := newTestTokens(t, alg)

			before := time.Now()
			tokenStr, expiresAt, err := tokens.Issue(testClaims(), 24*time.Hour)
			require.NoError(t, err)
			require.Equal(t, 3, len(strings.Split(tokenStr, ".")))
			require.WithinDuration(t, before.Add(24*time.Hour), expiresAt, 2*time.Second)

			claims, err := tokens.Verify(tokenStr)
			require.NoError(t, err)
			require.Equal(t, "admin@techcorp.com", claims.Email)
			require.Equal(t, "TechCorp", claims.OrganizationName)
			require.Equal(t, claims.OrgID, claims.Subject)
			require.Equal(t, DefaultIssuer, claims.Issuer)
			require.NotEmpty(t, claims.ID)
			require.NotNil(t, claims.IssuedAt)
		})
	}
}

func TestTokens_IssueUniqueIDs(t *testing.T) {
	tokens := newTestTokens(t, "HS256")

	first, _, err := tokens.Issue(testClaims(), time.Hour)
	require.NoError(t, err)
	second, _, err := tokens.Issue(testClaims(), time.Hour)
	require.NoError(t, err)

	require.NotEqual(t, first, second)
}

func TestTokens_IssueInvalidTTL(t *testing.T) {
	tokens := newTestTokens(t, "HS256")

	_, _, err := tokens.Issue(testClaims(), 0)
	require.Error(t, err)
}

func TestTokens_Verify(t *testing.T) {
	tokens := newTestTokens(t, "HS256")
	now := time.Now()

	valid := func() *Claims {
		c := testClaims()
		c.RegisteredClaims = jwt.RegisteredClaims{
			Subject:   c.OrgID,
			Issuer:    DefaultIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}
		return &c
	}

	tests := []struct {
		name     string
		token    func(t *testing.T) string
		expected error
	}{
		{
			name: "expired",
			token: func(t *testing.T) string {
				c := valid()
				c.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Hour))
				return signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), c)
			},
			expected: ErrTokenExpired,
		},
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				return signClaims(t, jwt.SigningMethodHS256, []byte("other-secret"), valid())
			},
			expected: ErrTokenSignature,
		},
		{
			name: "algorithm mismatch",
			token: func(t *testing.T) string {
				return signClaims(t, jwt.SigningMethodHS512, []byte(testSecret), valid())
			},
			expected: ErrTokenSignature,
		},
		{
			name: "tampered payload",
			token: func(t *testing.T) string {
				tokenStr := signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), valid())
				c := valid()
				c.OrganizationName = "OtherCorp"
				forged := signClaims(t, jwt.SigningMethodHS256, []byte("other-secret"), c)
				parts := strings.Split(tokenStr, ".")
				forgedParts := strings.Split(forged, ".")
				return parts[0] + "." + forgedParts[1] + "." + parts[2]
			},
			expected: ErrTokenSignature,
		},
		{
			name: "missing expiry",
			token: func(t *testing.T) string {
				c := valid()
				c.ExpiresAt = nil
				return signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), c)
			},
			expected: ErrTokenMalformed,
		},
		{
			name: "missing tenant claims",
			token: func(t *testing.T) string {
				c := valid()
				c.OrganizationName = ""
				return signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), c)
			},
			expected: ErrTokenMalformed,
		},
		{
			name: "wrong issuer",
			token: func(t *testing.T) string {
				c := valid()
				c.Issuer = "someone-else"
				return signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), c)
			},
			expected: ErrTokenMalformed,
		},
		{
			name: "garbage",
			token: func(t *testing.T) string {
				return "invalid.token.string"
			},
			expected: ErrTokenMalformed,
		},
		{
			name: "empty",
			token: func(t *testing.T) string {
				return ""
			},
			expected: ErrTokenMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := tokens.Verify(tt.token(t))
			require.Nil(t, claims)
			require.ErrorIs(t, err, ErrInvalidToken)
			require.ErrorIs(t, err, tt.expected)
		})
	}
}
