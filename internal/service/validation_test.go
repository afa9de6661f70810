package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestCreateOrganizationInput_Validate(t *testing.T) {
	tests := []struct {
		name       string
		in         CreateOrganizationInput
		wantFields []string
	}{
		{name: "valid", in: techCorpInput()},
		{
			name: "name with spaces and hyphens",
			in:   CreateOrganizationInput{OrganizationName: "Tech Corp-EU_1", Email: "a@b.com", Password: "SecurePass123"},
		},
		{
			name:       "name too short",
			in:         CreateOrganizationInput{OrganizationName: "ab", Email: "a@b.com", Password: "SecurePass123"},
			wantFields: []string{"organization_name"},
		},
		{
			name:       "name too short after trim",
			in:         CreateOrganizationInput{OrganizationName: "  ab  ", Email: "a@b.com", Password: "SecurePass123"},
			wantFields: []string{"organization_name"},
		},
		{
			name:       "name too long",
			in:         CreateOrganizationInput{OrganizationName: strings.Repeat("a", 51), Email: "a@b.com", Password: "SecurePass123"},
			wantFields: []string{"organization_name"},
		},
		{
			name:       "name with invalid characters",
			in:         CreateOrganizationInput{OrganizationName: "Tech/Corp", Email: "a@b.com", Password: "SecurePass123"},
			wantFields: []string{"organization_name"},
		},
		{
			name:       "invalid email",
			in:         CreateOrganizationInput{OrganizationName: "TechCorp", Email: "not-an-email", Password: "SecurePass123"},
			wantFields: []string{"email"},
		},
		{
			name:       "missing email",
			in:         CreateOrganizationInput{OrganizationName: "TechCorp", Password: "SecurePass123"},
			wantFields: []string{"email"},
		},
		{
			name:       "short password",
			in:         CreateOrganizationInput{OrganizationName: "TechCorp", Email: "a@b.com", Password: "short"},
			wantFields: []string{"password"},
		},
		{
			name:       "password over 72 bytes",
			in:         CreateOrganizationInput{OrganizationName: "TechCorp", Email: "a@b.com", Password: strings.Repeat("p", 73)},
			wantFields: []string{"password"},
		},
		{
			name:       "everything wrong",
			in:         CreateOrganizationInput{},
			wantFields: []string{"organization_name", "email", "password"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if len(tt.wantFields) == 0 {
				require.NoError(t, err)
				return
			}

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			require.True(t, IsValidation(err))

			var fields []string
			for _, f := range ve.Fields {
				fields = append(fields, f.Field)
			}
			require.Equal(t, tt.wantFields, fields)
		})
	}
}

func TestCreateOrganizationInput_ValidateNormalizes(t *testing.T) {
	in := CreateOrganizationInput{
		OrganizationName: "  TechCorp ",
		Email:            " Admin@TechCorp.COM ",
		Password:         "SecurePass123",
	}
	require.NoError(t, in.Validate())
	require.Equal(t, "TechCorp", in.OrganizationName)
	require.Equal(t, "admin@techcorp.com", in.Email)
}

func TestUpdateOrganizationInput_Validate(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		in := UpdateOrganizationInput{}
		require.True(t, IsValidation(in.Validate()))
	})

	t.Run("email normalized", func(t *testing.T) {
		in := UpdateOrganizationInput{Email: ptr(" New@TechCorp.com")}
		require.NoError(t, in.Validate())
		require.Equal(t, "new@techcorp.com", *in.Email)
	})

	t.Run("invalid email", func(t *testing.T) {
		in := UpdateOrganizationInput{Email: ptr("nope")}
		require.True(t, IsValidation(in.Validate()))
	})

	t.Run("short password", func(t *testing.T) {
		in := UpdateOrganizationInput{Password: ptr("short")}
		require.True(t, IsValidation(in.Validate()))
	})

	t.Run("password only", func(t *testing.T) {
		in := UpdateOrganizationInput{Password: ptr("NewSecurePass456")}
		require.NoError(t, in.Validate())
	})
}

func TestLoginInput_Validate(t *testing.T) {
	require.NoError(t, (&LoginInput{Email: "admin@techcorp.com", Password: "x"}).Validate())
	require.True(t, IsValidation((&LoginInput{Email: "admin@techcorp.com"}).Validate()))
	require.True(t, IsValidation((&LoginInput{Password: "x"}).Validate()))
}

func TestValidationError_Error(t *testing.T) {
	ve := &ValidationError{}
	ve.add("email", "is required")
	ve.add("password", "must be at least 8 characters")
	require.Equal(t, "validation failed: email: is required; password: must be at least 8 characters", ve.Error())
}
