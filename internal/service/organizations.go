package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/orgservice/internal/auth"
	"github.com/wolfeidau/orgservice/internal/models"
	"github.com/wolfeidau/orgservice/internal/store"
	"github.com/wolfeidau/orgservice/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PasswordHasher hashes and verifies admin passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// CreateOrganizationInput is the payload for provisioning a tenant.
type CreateOrganizationInput struct {
	OrganizationName string `json:"organization_name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
}

// UpdateOrganizationInput holds the optional fields an admin may change.
// Organization names are immutable.
type UpdateOrganizationInput struct {
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

// OrganizationService provisions, reads, updates and deletes tenants.
type OrganizationService struct {
	store   store.OrganizationStore
	hasher  PasswordHasher
	metrics *telemetry.Metrics
}

// NewOrganizationService creates an OrganizationService.
func NewOrganizationService(st store.OrganizationStore, hasher PasswordHasher) *OrganizationService {
	return &OrganizationService{
		store:   st,
		hasher:  hasher,
		metrics: telemetry.GetMetrics(),
	}
}

// Create validates the input, creates the tenant collection and then the
// organization record. A record is never left behind without its collection.
func (s *OrganizationService) Create(ctx context.Context, in CreateOrganizationInput) (*models.Organization, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx).With().Str("organization_name", in.OrganizationName).Logger()

	if err := s.ensureAvailable(ctx, in.OrganizationName, in.Email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate org id: %w", err)
	}

	now := time.Now().UTC()
	org := &models.Organization{
		OrgID:            id,
		OrganizationName: in.OrganizationName,
		CollectionName:   models.CollectionName(in.OrganizationName),
		AdminEmail:       in.Email,
		PasswordHash:     hash,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.store.CreateTenantCollection(ctx, org.CollectionName); err != nil {
		if errors.Is(err, store.ErrCollectionExists) {
			// the collection belongs to someone else, leave it alone
			s.countDuplicate(ctx, "collection")
			return nil, ErrDuplicateOrganization
		}
		logger.Error().Err(err).Str("collection", org.CollectionName).Msg("Failed to create tenant collection")
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	if err := s.store.Insert(ctx, org); err != nil {
		s.dropCollection(ctx, logger, org.CollectionName)

		switch {
		case errors.Is(err, store.ErrDuplicateEmail):
			s.countDuplicate(ctx, "email")
			return nil, ErrDuplicateAdmin
		case errors.Is(err, store.ErrDuplicateName), errors.Is(err, store.ErrDuplicateCollection):
			s.countDuplicate(ctx, "name")
			return nil, ErrDuplicateOrganization
		}
		logger.Error().Err(err).Msg("Failed to insert organization")
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	s.metrics.OrganizationsCreatedTotal.Add(ctx, 1)

	logger.Info().
		Str("org_id", org.OrgID.String()).
		Str("collection", org.CollectionName).
		Msg("Provisioned organization")

	return org, nil
}

// ensureAvailable rejects names and emails that are already taken. The store
// still enforces uniqueness for requests racing past this check.
func (s *OrganizationService) ensureAvailable(ctx context.Context, name, email string) error {
	_, err := s.store.FindByName(ctx, name)
	switch {
	case err == nil:
		s.countDuplicate(ctx, "name")
		return ErrDuplicateOrganization
	case !errors.Is(err, store.ErrOrganizationNotFound):
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	_, err = s.store.FindByEmail(ctx, email)
	switch {
	case err == nil:
		s.countDuplicate(ctx, "email")
		return ErrDuplicateAdmin
	case !errors.Is(err, store.ErrOrganizationNotFound):
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	return nil
}

func (s *OrganizationService) dropCollection(ctx context.Context, logger zerolog.Logger, collection string) {
	if err := s.store.DropTenantCollection(ctx, collection); err != nil {
		s.metrics.CollectionCleanupFailuresTotal.Add(ctx, 1)
		logger.Error().Err(err).Str("collection", collection).Msg("Failed to drop tenant collection, collection is orphaned")
	}
}

func (s *OrganizationService) countDuplicate(ctx context.Context, key string) {
	s.metrics.DuplicateRejectionsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("key", key)))
}

// Get returns the organization with the given name.
func (s *OrganizationService) Get(ctx context.Context, name string) (*models.Organization, error) {
	name, err := requireName(name)
	if err != nil {
		return nil, err
	}

	org, err := s.store.FindByName(ctx, name)
	if err != nil {
		return nil, mapStoreError(err)
	}

	return org, nil
}

// Update changes the admin email and/or password of the caller's own organization.
func (s *OrganizationService) Update(ctx context.Context, name string, claims *auth.Claims, in UpdateOrganizationInput) (*models.Organization, error) {
	name, err := requireName(name)
	if err != nil {
		return nil, err
	}

	if err := authorize(name, claims); err != nil {
		return nil, err
	}

	if _, err := s.findOwned(ctx, name, claims); err != nil {
		return nil, err
	}

	if err := in.Validate(); err != nil {
		return nil, err
	}

	update := models.OrganizationUpdate{AdminEmail: in.Email}
	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStorage, err)
		}
		update.PasswordHash = &hash
	}

	org, err := s.store.Update(ctx, name, update)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			s.countDuplicate(ctx, "email")
			return nil, ErrDuplicateAdmin
		}
		return nil, mapStoreError(err)
	}

	s.metrics.OrganizationsUpdatedTotal.Add(ctx, 1)

	zerolog.Ctx(ctx).Info().
		Str("organization_name", name).
		Bool("email_changed", in.Email != nil).
		Bool("password_changed", in.Password != nil).
		Msg("Updated organization")

	return org, nil
}

// Delete removes the caller's own organization and drops its tenant collection.
// A collection that fails to drop is logged and left behind.
func (s *OrganizationService) Delete(ctx context.Context, name string, claims *auth.Claims) error {
	name, err := requireName(name)
	if err != nil {
		return err
	}

	if err := authorize(name, claims); err != nil {
		return err
	}

	org, err := s.findOwned(ctx, name, claims)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, name); err != nil {
		return mapStoreError(err)
	}

	logger := zerolog.Ctx(ctx).With().Str("organization_name", name).Logger()
	s.dropCollection(ctx, logger, org.CollectionName)

	s.metrics.OrganizationsDeletedTotal.Add(ctx, 1)

	logger.Info().
		Str("org_id", org.OrgID.String()).
		Str("collection", org.CollectionName).
		Msg("Deleted organization")

	return nil
}

func requireName(name string) (string, error) {
	name = NormalizeName(name)
	if name == "" {
		ve := &ValidationError{}
		ve.add("organization_name", "is required")
		return "", ve
	}
	return name, nil
}

// authorize checks the token was minted for the named organization.
func authorize(name string, claims *auth.Claims) error {
	if claims == nil || claims.OrganizationName != name {
		return ErrForbidden
	}
	return nil
}

// findOwned loads the named organization and checks the token was issued to
// this instance of it. A name that was deleted and re-created belongs to a
// new org_id, so older tokens for the same name are refused.
func (s *OrganizationService) findOwned(ctx context.Context, name string, claims *auth.Claims) (*models.Organization, error) {
	org, err := s.store.FindByName(ctx, name)
	if err != nil {
		return nil, mapStoreError(err)
	}

	if claims.OrgID != org.OrgID.String() {
		zerolog.Ctx(ctx).Warn().
			Str("organization_name", name).
			Str("token_org_id", claims.OrgID).
			Str("org_id", org.OrgID.String()).
			Msg("Token issued to a previous organization with this name")
		return nil, ErrForbidden
	}

	return org, nil
}

func mapStoreError(err error) error {
	if errors.Is(err, store.ErrOrganizationNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}
