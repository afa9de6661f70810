package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/orgservice/internal/auth"
	"github.com/wolfeidau/orgservice/internal/models"
	"github.com/wolfeidau/orgservice/internal/password"
	"github.com/wolfeidau/orgservice/internal/store"
	"github.com/wolfeidau/orgservice/internal/store/memory"
	"golang.org/x/crypto/bcrypt"
)

var errBoom = errors.New("boom")

func newTestHasher(t *testing.T) *password.Hasher {
	t.Helper()
	h, err := password.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func techCorpInput() CreateOrganizationInput {
	return CreateOrganizationInput{
		OrganizationName: "TechCorp",
		Email:            "admin@techcorp.com",
		Password:         "SecurePass123",
	}
}

// ownerClaims returns claims matching the stored organization, as a login would.
func ownerClaims(t *testing.T, st store.OrganizationStore, name string) *auth.Claims {
	t.Helper()
	org, err := st.FindByName(context.Background(), name)
	require.NoError(t, err)
	return &auth.Claims{
		Email:            org.AdminEmail,
		OrgID:            org.OrgID.String(),
		OrganizationName: org.OrganizationName,
	}
}

func claimsFor(name string) *auth.Claims {
	return &auth.Claims{
		Email:            "admin@" + name + ".com",
		OrgID:            "0190b6a2-7c4e-7d3b-9b1a-4f6a2c8e1d00",
		OrganizationName: name,
	}
}

// faultyStore wraps the memory store and fails selected operations.
type faultyStore struct {
	*memory.OrganizationStore

	findErr   error
	insertErr error
	createErr error
	dropErr   error
	updateErr error
	deleteErr error

	dropped []string
}

func newFaultyStore() *faultyStore {
	return &faultyStore{OrganizationStore: memory.NewOrganizationStore()}
}

func (f *faultyStore) FindByName(ctx context.Context, name string) (*models.Organization, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.OrganizationStore.FindByName(ctx, name)
}

func (f *faultyStore) FindByEmail(ctx context.Context, email string) (*models.Organization, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.OrganizationStore.FindByEmail(ctx, email)
}

func (f *faultyStore) Insert(ctx context.Context, org *models.Organization) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	return f.OrganizationStore.Insert(ctx, org)
}

func (f *faultyStore) CreateTenantCollection(ctx context.Context, collection string) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.OrganizationStore.CreateTenantCollection(ctx, collection)
}

func (f *faultyStore) DropTenantCollection(ctx context.Context, collection string) error {
	f.dropped = append(f.dropped, collection)
	if f.dropErr != nil {
		return f.dropErr
	}
	return f.OrganizationStore.DropTenantCollection(ctx, collection)
}

func (f *faultyStore) Update(ctx context.Context, name string, update models.OrganizationUpdate) (*models.Organization, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.OrganizationStore.Update(ctx, name, update)
}

func (f *faultyStore) Delete(ctx context.Context, name string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.OrganizationStore.Delete(ctx, name)
}
