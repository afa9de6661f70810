//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/wolfeidau/orgservice/internal/models"
	"github.com/wolfeidau/orgservice/internal/store"
)

func setupPostgresContainer(t *testing.T, ctx context.Context) (*OrganizationStore, func()) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	pool, err := NewPool(ctx, &PoolConfig{
		ConnString:  fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port()),
		AutoMigrate: true,
	})
	require.NoError(t, err)

	st := NewOrganizationStore(pool)

	cleanup := func() {
		_ = st.Close(ctx)
		_ = container.Terminate(ctx)
	}

	return st, cleanup
}

func testOrganization(t *testing.T, name, email string) *models.Organization {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Organization{
		OrgID:            id,
		OrganizationName: name,
		CollectionName:   models.CollectionName(name),
		AdminEmail:       email,
		PasswordHash:     "hash",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestIntegration_OrganizationLifecycle(t *testing.T) {
	ctx := context.Background()
	st, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	org := testOrganization(t, "TechCorp", "admin@techcorp.com")

	t.Run("create collection and insert", func(t *testing.T) {
		require.NoError(t, st.CreateTenantCollection(ctx, org.CollectionName))
		require.NoError(t, st.Insert(ctx, org))

		err := st.CreateTenantCollection(ctx, org.CollectionName)
		require.ErrorIs(t, err, store.ErrCollectionExists)
	})

	t.Run("find", func(t *testing.T) {
		byName, err := st.FindByName(ctx, "TechCorp")
		require.NoError(t, err)
		require.Equal(t, org.OrgID, byName.OrgID)
		require.Equal(t, "org_techcorp", byName.CollectionName)

		byEmail, err := st.FindByEmail(ctx, "admin@techcorp.com")
		require.NoError(t, err)
		require.Equal(t, "TechCorp", byEmail.OrganizationName)
	})

	t.Run("duplicates", func(t *testing.T) {
		err := st.Insert(ctx, testOrganization(t, "TechCorp", "other@techcorp.com"))
		require.ErrorIs(t, err, store.ErrDuplicateName)

		err = st.Insert(ctx, testOrganization(t, "OtherCorp", "admin@techcorp.com"))
		require.ErrorIs(t, err, store.ErrDuplicateEmail)

		err = st.Insert(ctx, testOrganization(t, "techcorp", "third@techcorp.com"))
		require.ErrorIs(t, err, store.ErrDuplicateCollection)
	})

	t.Run("update", func(t *testing.T) {
		email := "new@techcorp.com"
		updated, err := st.Update(ctx, "TechCorp", models.OrganizationUpdate{AdminEmail: &email})
		require.NoError(t, err)
		require.Equal(t, email, updated.AdminEmail)
		require.Equal(t, "hash", updated.PasswordHash)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, st.Delete(ctx, "TechCorp"))
		require.NoError(t, st.DropTenantCollection(ctx, org.CollectionName))

		_, err := st.FindByName(ctx, "TechCorp")
		require.ErrorIs(t, err, store.ErrOrganizationNotFound)

		err = st.Delete(ctx, "TechCorp")
		require.ErrorIs(t, err, store.ErrOrganizationNotFound)
	})
}

func TestIntegration_ConcurrentInsert(t *testing.T) {
	ctx := context.Background()
	st, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := range workers {
		org := testOrganization(t, "RaceCorp", fmt.Sprintf("admin%d@racecorp.com", i))
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- st.Insert(ctx, org)
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded int
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		// name and collection_name collide together; either index may report first
		require.True(t, errors.Is(err, store.ErrDuplicateName) || errors.Is(err, store.ErrDuplicateCollection), err)
	}
	require.Equal(t, 1, succeeded)
}
