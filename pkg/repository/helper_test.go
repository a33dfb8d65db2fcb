package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/makola-community/makola/pkg/domain/interfaces"
	"github.com/makola-community/makola/pkg/repository/firestore"
	"github.com/makola-community/makola/pkg/repository/memory"
)

type repoFactory func(t *testing.T) interfaces.Repository

func newMemoryRepo(t *testing.T) interfaces.Repository {
	return memory.New()
}

// newFirestoreRepo returns nil when FIRESTORE_PROJECT_ID is not set. Each
// test gets its own collection prefix.
func newFirestoreRepo(t *testing.T) repoFactory {
	projectID := os.Getenv("FIRESTORE_PROJECT_ID")
	if projectID == "" {
		return nil
	}
	databaseID := os.Getenv("FIRESTORE_DATABASE_ID")

	return func(t *testing.T) interfaces.Repository {
		prefix := fmt.Sprintf("test_%d", time.Now().UnixNano())
		repo, err := firestore.New(context.Background(), projectID, databaseID, firestore.WithCollectionPrefix(prefix))
		gt.NoError(t, err).Required()
		t.Cleanup(func() {
			_ = repo.Close(context.Background())
		})
		return repo
	}
}

func runWithBackends(t *testing.T, suite func(t *testing.T, newRepo repoFactory)) {
	t.Run("memory", func(t *testing.T) {
		suite(t, newMemoryRepo)
	})

	t.Run("firestore", func(t *testing.T) {
		factory := newFirestoreRepo(t)
		if factory == nil {
			t.Skip("FIRESTORE_PROJECT_ID not set")
		}
		suite(t, factory)
	})
}
