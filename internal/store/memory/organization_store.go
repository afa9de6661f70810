package memory

import (
	"context"
	"sync"
	"time"

	"github.com/wolfeidau/orgservice/internal/models"
	"github.com/wolfeidau/orgservice/internal/store"
)

var _ store.OrganizationStore = (*OrganizationStore)(nil)

// OrganizationStore implements store.OrganizationStore using in-memory storage.
// This implementation is for testing and development only - data is lost on restart.
type OrganizationStore struct {
	mu sync.RWMutex

	organizations map[string]*models.Organization // organization_name -> Organization
	emails        map[string]string               // admin_email -> organization_name
	collections   map[string]struct{}             // tenant collections
}

// NewOrganizationStore creates a new in-memory organization store.
func NewOrganizationStore() *OrganizationStore {
	return &OrganizationStore{
		organizations: make(map[string]*models.Organization),
		emails:        make(map[string]string),
		collections:   make(map[string]struct{}),
	}
}

// FindByName retrieves an organization by name.
func (s *OrganizationStore) FindByName(ctx context.Context, name string) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	org, exists := s.organizations[name]
	if !exists {
		return nil, store.ErrOrganizationNotFound
	}

	// Clone to avoid external modifications
	clone := *org
	return &clone, nil
}

// FindByEmail retrieves an organization by admin email.
func (s *OrganizationStore) FindByEmail(ctx context.Context, email string) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	name, exists := s.emails[email]
	if !exists {
		return nil, store.ErrOrganizationNotFound
	}

	clone := *s.organizations[name]
	return &clone, nil
}

// Insert stores a new organization, enforcing the same unique keys as the database stores.
func (s *OrganizationStore) Insert(ctx context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.organizations[org.OrganizationName]; exists {
		return store.ErrDuplicateName
	}
	if _, exists := s.emails[org.AdminEmail]; exists {
		return store.ErrDuplicateEmail
	}
	for _, existing := range s.organizations {
		if existing.CollectionName == org.CollectionName {
			return store.ErrDuplicateCollection
		}
	}

	clone := *org
	s.organizations[org.OrganizationName] = &clone
	s.emails[org.AdminEmail] = org.OrganizationName

	return nil
}

// CreateTenantCollection registers a tenant collection.
func (s *OrganizationStore) CreateTenantCollection(ctx context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.collections[collection]; exists {
		return store.ErrCollectionExists
	}
	s.collections[collection] = struct{}{}

	return nil
}

// DropTenantCollection removes a tenant collection.
func (s *OrganizationStore) DropTenantCollection(ctx context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.collections, collection)
	return nil
}

// HasCollection reports whether the tenant collection exists.
func (s *OrganizationStore) HasCollection(collection string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.collections[collection]
	return exists
}

// Update applies the non-nil fields of update.
func (s *OrganizationStore) Update(ctx context.Context, name string, update models.OrganizationUpdate) (*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	org, exists := s.organizations[name]
	if !exists {
		return nil, store.ErrOrganizationNotFound
	}

	clone := *org

	if update.AdminEmail != nil && *update.AdminEmail != org.AdminEmail {
		if _, taken := s.emails[*update.AdminEmail]; taken {
			return nil, store.ErrDuplicateEmail
		}
		delete(s.emails, org.AdminEmail)
		s.emails[*update.AdminEmail] = name
		clone.AdminEmail = *update.AdminEmail
	}
	if update.PasswordHash != nil {
		clone.PasswordHash = *update.PasswordHash
	}

	// Update timestamp
	clone.UpdatedAt = time.Now().UTC()
	s.organizations[name] = &clone

	result := clone
	return &result, nil
}

// Delete deletes an organization by name.
// The tenant collection is dropped separately via DropTenantCollection.
func (s *OrganizationStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	org, exists := s.organizations[name]
	if !exists {
		return store.ErrOrganizationNotFound
	}

	delete(s.emails, org.AdminEmail)
	delete(s.organizations, name)

	return nil
}

// Ping always succeeds for the in-memory store.
func (s *OrganizationStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *OrganizationStore) Close(ctx context.Context) error {
	return nil
}
