package service

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/asaskevich/govalidator"
	"github.com/wolfeidau/orgservice/internal/password"
)

// Input limits. Name lengths count runes after trimming. Passwords are
// capped separately by password.MaxLength in bytes.
const (
	// MinNameLength is the shortest accepted organization name.
	MinNameLength = 3
	// MaxNameLength is the longest accepted organization name.
	MaxNameLength = 50
	// MinPasswordLength is the shortest accepted admin password.
	MinPasswordLength = 8
	// MaxEmailLength is the longest address RFC 5321 allows in a path.
	MaxEmailLength = 254
)

// OrganizationNamePattern is the character set allowed in organization names.
const OrganizationNamePattern = `^[A-Za-z0-9 _-]+$`

var organizationNamePattern = regexp.MustCompile(OrganizationNamePattern)

// NormalizeName trims surrounding whitespace from an organization name.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

// NormalizeEmail trims and lowercases an admin email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateName(ve *ValidationError, field, name string) {
	n := utf8.RuneCountInString(name)
	switch {
	case n < MinNameLength || n > MaxNameLength:
		ve.add(field, fmt.Sprintf("must be between %d and %d characters", MinNameLength, MaxNameLength))
	case !organizationNamePattern.MatchString(name):
		ve.add(field, "may only contain letters, digits, spaces, hyphens and underscores")
	}
}

func validateEmail(ve *ValidationError, field, email string) {
	switch {
	case email == "":
		ve.add(field, "is required")
	case len(email) > MaxEmailLength || !govalidator.IsEmail(email):
		ve.add(field, "must be a valid email address")
	}
}

func validatePassword(ve *ValidationError, field, plaintext string) {
	switch {
	case utf8.RuneCountInString(plaintext) < MinPasswordLength:
		ve.add(field, fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	case len(plaintext) > password.MaxLength:
		ve.add(field, fmt.Sprintf("must be at most %d bytes", password.MaxLength))
	}
}

// Validate normalizes the input in place and checks its shape.
func (in *CreateOrganizationInput) Validate() error {
	in.OrganizationName = NormalizeName(in.OrganizationName)
	in.Email = NormalizeEmail(in.Email)

	ve := &ValidationError{}
	validateName(ve, "organization_name", in.OrganizationName)
	validateEmail(ve, "email", in.Email)
	validatePassword(ve, "password", in.Password)
	return ve.orNil()
}

// Validate normalizes the input in place and checks its shape.
// At least one of email or password must be present.
func (in *UpdateOrganizationInput) Validate() error {
	ve := &ValidationError{}

	if in.Email == nil && in.Password == nil {
		ve.add("body", "at least one of email or password is required")
		return ve
	}

	if in.Email != nil {
		email := NormalizeEmail(*in.Email)
		in.Email = &email
		validateEmail(ve, "email", email)
	}
	if in.Password != nil {
		validatePassword(ve, "password", *in.Password)
	}
	return ve.orNil()
}

// Validate normalizes the input in place and checks its shape.
func (in *LoginInput) Validate() error {
	in.Email = NormalizeEmail(in.Email)

	ve := &ValidationError{}
	validateEmail(ve, "email", in.Email)
	if in.Password == "" {
		ve.add("password", "is required")
	}
	return ve.orNil()
}
