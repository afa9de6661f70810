package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/orgservice/internal/models"
	"github.com/wolfeidau/orgservice/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ store.OrganizationStore = (*OrganizationStore)(nil)

// organizationDocument is the master collection representation of an organization.
type organizationDocument struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	OrgID            string             `bson:"org_id"`
	OrganizationName string             `bson:"organization_name"`
	CollectionName   string             `bson:"collection_name"`
	AdminEmail       string             `bson:"admin_email"`
	PasswordHash     string             `bson:"password_hash"`
	CreatedAt        time.Time          `bson:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at"`
}

func toDocument(org *models.Organization) organizationDocument {
	return organizationDocument{
		OrgID:            org.OrgID.String(),
		OrganizationName: org.OrganizationName,
		CollectionName:   org.CollectionName,
		AdminEmail:       org.AdminEmail,
		PasswordHash:     org.PasswordHash,
		CreatedAt:        org.CreatedAt,
		UpdatedAt:        org.UpdatedAt,
	}
}

func (d organizationDocument) toModel() (*models.Organization, error) {
	id, err := uuid.Parse(d.OrgID)
	if err != nil {
		return nil, fmt.Errorf("invalid org_id %q: %w", d.OrgID, err)
	}

	return &models.Organization{
		OrgID:            id,
		OrganizationName: d.OrganizationName,
		CollectionName:   d.CollectionName,
		AdminEmail:       d.AdminEmail,
		PasswordHash:     d.PasswordHash,
		CreatedAt:        d.CreatedAt.UTC(),
		UpdatedAt:        d.UpdatedAt.UTC(),
	}, nil
}

// OrganizationStore implements store.OrganizationStore using MongoDB.
// Organization records live in a master collection and every tenant gets its
// own collection in the same database.
type OrganizationStore struct {
	client *mongo.Client
	db     *mongo.Database
	master *mongo.Collection
}

// NewOrganizationStore creates a MongoDB-backed organization store.
func NewOrganizationStore(client *mongo.Client, database, collection string) *OrganizationStore {
	db := client.Database(database)
	return &OrganizationStore{
		client: client,
		db:     db,
		master: db.Collection(collection),
	}
}

// FindByName retrieves an organization by name.
func (s *OrganizationStore) FindByName(ctx context.Context, name string) (*models.Organization, error) {
	return s.findOne(ctx, bson.D{{Key: "organization_name", Value: name}})
}

// FindByEmail retrieves an organization by admin email.
func (s *OrganizationStore) FindByEmail(ctx context.Context, email string) (*models.Organization, error) {
	return s.findOne(ctx, bson.D{{Key: "admin_email", Value: email}})
}

func (s *OrganizationStore) findOne(ctx context.Context, filter bson.D) (*models.Organization, error) {
	var doc organizationDocument
	if err := s.master.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", mapMongoError(err))
	}

	return doc.toModel()
}

// Insert adds the organization to the master collection. The unique indexes
// make concurrent inserts of the same tenant fail atomically.
func (s *OrganizationStore) Insert(ctx context.Context, org *models.Organization) error {
	if _, err := s.master.InsertOne(ctx, toDocument(org)); err != nil {
		mapped := mapMongoError(err)
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

// CreateTenantCollection explicitly creates the tenant collection so an existing
// one is reported instead of silently shared.
func (s *OrganizationStore) CreateTenantCollection(ctx context.Context, collection string) error {
	if err := s.db.CreateCollection(ctx, collection); err != nil {
		mapped := mapMongoError(err)
		if errors.Is(mapped, store.ErrCollectionExists) {
			return mapped
		}
		return fmt.Errorf("failed to create tenant collection %s: %w", collection, mapped)
	}

	log.Debug().Str("collection", collection).Msg("Created tenant collection")

	return nil
}

// DropTenantCollection drops the tenant collection. Missing collections are ignored by the driver.
func (s *OrganizationStore) DropTenantCollection(ctx context.Context, collection string) error {
	if err := s.db.Collection(collection).Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop tenant collection %s: %w", collection, mapMongoError(err))
	}

	log.Debug().Str("collection", collection).Msg("Dropped tenant collection")

	return nil
}

// Update applies the non-nil fields of update.
func (s *OrganizationStore) Update(ctx context.Context, name string, update models.OrganizationUpdate) (*models.Organization, error) {
	set := bson.D{{Key: "updated_at", Value: time.Now().UTC()}}
	if update.AdminEmail != nil {
		set = append(set, bson.E{Key: "admin_email", Value: *update.AdminEmail})
	}
	if update.PasswordHash != nil {
		set = append(set, bson.E{Key: "password_hash", Value: *update.PasswordHash})
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc organizationDocument
	err := s.master.FindOneAndUpdate(ctx,
		bson.D{{Key: "organization_name", Value: name}},
		bson.D{{Key: "$set", Value: set}},
		opts,
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrOrganizationNotFound
		}
		mapped := mapMongoError(err)
		if errors.Is(mapped, store.ErrDuplicateEmail) {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to update organization: %w", mapped)
	}

	log.Debug().
		Str("organization_name", name).
		Msg("Updated organization")

	return doc.toModel()
}

// Delete removes the organization from the master collection.
func (s *OrganizationStore) Delete(ctx context.Context, name string) error {
	result, err := s.master.DeleteOne(ctx, bson.D{{Key: "organization_name", Value: name}})
	if err != nil {
		return fmt.Errorf("failed to delete organization: %w", mapMongoError(err))
	}

	if result.DeletedCount == 0 {
		return store.ErrOrganizationNotFound
	}

	log.Info().
		Str("organization_name", name).
		Msg("Deleted organization")

	return nil
}

// Ping verifies connectivity.
func (s *OrganizationStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *OrganizationStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
