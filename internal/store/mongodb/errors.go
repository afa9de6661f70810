package mongodb

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wolfeidau/orgservice/internal/store"
	"go.mongodb.org/mongo-driver/mongo"
)

// codeNamespaceExists is returned by the create command when the collection is already present.
const codeNamespaceExists = 48

// mapMongoError maps MongoDB-specific errors to sentinel errors.
// Returns the original error if it doesn't match known patterns.
func mapMongoError(err error) error {
	if err == nil {
		return nil
	}

	if mongo.IsDuplicateKeyError(err) {
		msg := err.Error()
		switch {
		case strings.Contains(msg, indexNameUnique):
			return store.ErrDuplicateName
		case strings.Contains(msg, indexEmailUnique):
			return store.ErrDuplicateEmail
		case strings.Contains(msg, indexCollectionUnique):
			return store.ErrDuplicateCollection
		}
		return fmt.Errorf("duplicate key: %w", err)
	}

	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) && serverErr.HasErrorCode(codeNamespaceExists) {
		return store.ErrCollectionExists
	}

	if mongo.IsTimeout(err) {
		return fmt.Errorf("mongodb timeout: %w", err)
	}

	if mongo.IsNetworkError(err) {
		return fmt.Errorf("mongodb connection error: %w", err)
	}

	return err
}
