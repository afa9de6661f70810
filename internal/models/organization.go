package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// CollectionPrefix is prepended to every tenant collection name.
const CollectionPrefix = "org_"

// Organization represents an organization (tenant) in the system.
// Each organization owns one admin credential and one dedicated tenant collection.
type Organization struct {
	OrgID            uuid.UUID `json:"org_id" bson:"org_id"` // UUIDv7
	OrganizationName string    `json:"organization_name" bson:"organization_name"`
	CollectionName   string    `json:"collection_name" bson:"collection_name"`
	AdminEmail       string    `json:"admin_email" bson:"admin_email"`
	PasswordHash     string    `json:"-" bson:"password_hash"`
	CreatedAt        time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" bson:"updated_at"`
}

// OrganizationUpdate holds the mutable fields of an organization.
// Nil fields are left unchanged.
type OrganizationUpdate struct {
	AdminEmail   *string
	PasswordHash *string
}

// Empty returns true when the update carries no changes.
func (u OrganizationUpdate) Empty() bool {
	return u.AdminEmail == nil && u.PasswordHash == nil
}

// CollectionName derives the tenant collection name for an organization name.
// Spaces and hyphens collapse to underscores so "Tech Corp" and "tech-corp" map to
// the same collection; the stores reject the second one with a unique index.
func CollectionName(organizationName string) string {
	name := strings.ToLower(strings.TrimSpace(organizationName))
	name = strings.NewReplacer(" ", "_", "-", "_").Replace(name)
	return CollectionPrefix + name
}
