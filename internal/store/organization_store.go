package store

import (
	"context"
	"errors"

	"github.com/wolfeidau/orgservice/internal/models"
)

// Sentinel errors for organization store operations
var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrDuplicateName        = errors.New("organization name already exists")
	ErrDuplicateEmail       = errors.New("admin email already exists")
	ErrDuplicateCollection  = errors.New("collection name already in use")
	ErrCollectionExists     = errors.New("tenant collection already exists")
)

// OrganizationStore defines the interface for organization storage operations.
// Organizations represent tenants in the system; each one owns a dedicated tenant
// collection in the same database.
//
// Uniqueness of organization_name, admin_email and collection_name must be enforced
// by the storage layer itself so concurrent inserts cannot both succeed.
type OrganizationStore interface {
	// FindByName retrieves an organization by its name.
	// Returns ErrOrganizationNotFound if the organization doesn't exist.
	FindByName(ctx context.Context, name string) (*models.Organization, error)

	// FindByEmail retrieves an organization by its admin email.
	// Returns ErrOrganizationNotFound if the organization doesn't exist.
	FindByEmail(ctx context.Context, email string) (*models.Organization, error)

	// Insert stores a new organization record.
	// Returns ErrDuplicateName, ErrDuplicateEmail or ErrDuplicateCollection when a
	// unique constraint is violated.
	Insert(ctx context.Context, org *models.Organization) error

	// CreateTenantCollection creates the per-tenant storage unit.
	// Returns ErrCollectionExists if it is already present.
	CreateTenantCollection(ctx context.Context, collection string) error

	// DropTenantCollection removes the per-tenant storage unit and all its data.
	// Dropping a collection that doesn't exist is not an error.
	DropTenantCollection(ctx context.Context, collection string) error

	// Update applies the non-nil fields of update and returns the stored result.
	// Returns ErrOrganizationNotFound or ErrDuplicateEmail.
	Update(ctx context.Context, name string, update models.OrganizationUpdate) (*models.Organization, error)

	// Delete removes the organization record. The tenant collection is left alone.
	// Returns ErrOrganizationNotFound if the organization doesn't exist.
	Delete(ctx context.Context, name string) error

	// Ping checks connectivity with the backing database.
	Ping(ctx context.Context) error

	// Close releases the underlying client.
	Close(ctx context.Context) error
}
