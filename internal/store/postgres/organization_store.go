package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/orgservice/internal/models"
	"github.com/wolfeidau/orgservice/internal/store"
)

var _ store.OrganizationStore = (*OrganizationStore)(nil)

const organizationColumns = `org_id, organization_name, collection_name, admin_email, password_hash, created_at, updated_at`

// OrganizationStore implements store.OrganizationStore using PostgreSQL.
// Each tenant collection is a table named after the organization's collection_name.
type OrganizationStore struct {
	pool *pgxpool.Pool
}

// NewOrganizationStore creates a new PostgreSQL-backed organization store.
func NewOrganizationStore(pool *pgxpool.Pool) *OrganizationStore {
	return &OrganizationStore{
		pool: pool,
	}
}

// FindByName retrieves an organization by name.
func (s *OrganizationStore) FindByName(ctx context.Context, name string) (*models.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE organization_name = $1`
	return s.findOne(ctx, query, name)
}

// FindByEmail retrieves an organization by admin email.
func (s *OrganizationStore) FindByEmail(ctx context.Context, email string) (*models.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE admin_email = $1`
	return s.findOne(ctx, query, email)
}

func (s *OrganizationStore) findOne(ctx context.Context, query string, arg string) (*models.Organization, error) {
	org, err := scanOrganization(s.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", mapPostgresError(err))
	}

	return org, nil
}

// Insert creates a new organization row. Unique constraints on name, email and
// collection make concurrent inserts of the same tenant fail atomically.
func (s *OrganizationStore) Insert(ctx context.Context, org *models.Organization) error {
	query := `
		INSERT INTO organizations (
			` + organizationColumns + `
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`

	_, err := s.pool.Exec(ctx, query,
		org.OrgID,
		org.OrganizationName,
		org.CollectionName,
		org.AdminEmail,
		org.PasswordHash,
		org.CreatedAt,
		org.UpdatedAt,
	)
	if err != nil {
		mapped := mapPostgresError(err)
		if errors.Is(mapped, store.ErrDuplicateName) ||
			errors.Is(mapped, store.ErrDuplicateEmail) ||
			errors.Is(mapped, store.ErrDuplicateCollection) {
			return mapped
		}
		return fmt.Errorf("failed to create organization: %w", mapped)
	}

	log.Debug().
		Str("org_id", org.OrgID.String()).
		Str("organization_name", org.OrganizationName).
		Msg("Created organization")

	return nil
}

// CreateTenantCollection creates the tenant table.
func (s *OrganizationStore) CreateTenantCollection(ctx context.Context, collection string) error {
	query := `
		CREATE TABLE ` + pgx.Identifier{collection}.Sanitize() + ` (
			id         UUID PRIMARY KEY,
			document   JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`

	if _, err := s.pool.Exec(ctx, query); err != nil {
		mapped := mapPostgresError(err)
		if errors.Is(mapped, store.ErrCollectionExists) {
			return mapped
		}
		return fmt.Errorf("failed to create tenant collection %s: %w", collection, mapped)
	}

	log.Debug().Str("collection", collection).Msg("Created tenant collection")

	return nil
}

// DropTenantCollection drops the tenant table if it exists.
func (s *OrganizationStore) DropTenantCollection(ctx context.Context, collection string) error {
	query := `DROP TABLE IF EXISTS ` + pgx.Identifier{collection}.Sanitize()

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to drop tenant collection %s: %w", collection, mapPostgresError(err))
	}

	log.Debug().Str("collection", collection).Msg("Dropped tenant collection")

	return nil
}

// Update applies the non-nil fields of update.
func (s *OrganizationStore) Update(ctx context.Context, name string, update models.OrganizationUpdate) (*models.Organization, error) {
	query := `
		UPDATE organizations SET
			admin_email = COALESCE($2, admin_email),
			password_hash = COALESCE($3, password_hash),
			updated_at = $4
		WHERE organization_name = $1
		RETURNING ` + organizationColumns

	org, err := scanOrganization(s.pool.QueryRow(ctx, query,
		name,
		update.AdminEmail,
		update.PasswordHash,
		time.Now().UTC(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrOrganizationNotFound
		}
		mapped := mapPostgresError(err)
		if errors.Is(mapped, store.ErrDuplicateEmail) {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to update organization: %w", mapped)
	}

	log.Debug().
		Str("organization_name", name).
		Msg("Updated organization")

	return org, nil
}

// Delete deletes an organization by name.
func (s *OrganizationStore) Delete(ctx context.Context, name string) error {
	query := `DELETE FROM organizations WHERE organization_name = $1`

	result, err := s.pool.Exec(ctx, query, name)
	if err != nil {
		return fmt.Errorf("failed to delete organization: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrOrganizationNotFound
	}

	log.Info().
		Str("organization_name", name).
		Msg("Deleted organization")

	return nil
}

// Ping verifies connectivity.
func (s *OrganizationStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *OrganizationStore) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}

func scanOrganization(row pgx.Row) (*models.Organization, error) {
	var org models.Organization
	err := row.Scan(
		&org.OrgID,
		&org.OrganizationName,
		&org.CollectionName,
		&org.AdminEmail,
		&org.PasswordHash,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &org, nil
}
