// Package repositories holds the persistence contracts of the catalog and
// their MongoDB and in-memory implementations.
package repositories

import (
	"context"
	"errors"

	"github.com/HSouheill/catalog_backend/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound is returned when a lookup by key matches nothing.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate is returned when a write violates a unique key.
	ErrDuplicate = errors.New("duplicate key")
)

// CategoryRepository stores categories. Save is an upsert by id so a retried
// write converges on the same document.
type CategoryRepository interface {
	Save(ctx context.Context, c *models.Category) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error)
	// FindSibling returns the category named name under parentID (nil for roots).
	FindSibling(ctx context.Context, parentID *primitive.ObjectID, name string) (*models.Category, error)
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
	FindAll(ctx context.Context) ([]models.Category, error)
	FindPage(ctx context.Context, skip, limit int64) ([]models.Category, int64, error)
	FindChildren(ctx context.Context, parentID primitive.ObjectID) ([]models.Category, error)
	// FindDescendants returns every category with id among its ancestors.
	FindDescendants(ctx context.Context, id primitive.ObjectID) ([]models.Category, error)
	// Rename sets name, slug and path of one category and bumps its version.
	// The bump is an increment, so repeating a Rename advances the version again.
	Rename(ctx context.Context, id primitive.ObjectID, name, slug string, path []string) error
	// SetPathSegment sets path[index] to slug in every descendant of ancestorID.
	SetPathSegment(ctx context.Context, ancestorID primitive.ObjectID, index int, slug string) (int64, error)
	UpdatePlacement(ctx context.Context, id primitive.ObjectID, parentID *primitive.ObjectID, level int, path []string, ancestors []primitive.ObjectID) error
	// BumpVersion increments the version. It is monotonic, not idempotent.
	BumpVersion(ctx context.Context, id primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// AttributeRepository stores attribute definitions keyed by category. Lists
// come back in declaration (creation) order.
type AttributeRepository interface {
	Save(ctx context.Context, a *models.AttributeDefinition) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.AttributeDefinition, error)
	ListByCategory(ctx context.Context, categoryID primitive.ObjectID) ([]models.AttributeDefinition, error)
	ListByCategories(ctx context.Context, categoryIDs []primitive.ObjectID) ([]models.AttributeDefinition, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error)
}

// OptionSetRepository stores option sets.
type OptionSetRepository interface {
	Insert(ctx context.Context, set *models.OptionSet) error
	// InsertMany skips sets that already exist.
	InsertMany(ctx context.Context, sets []models.OptionSet) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.OptionSet, error)
	List(ctx context.Context, setType *models.VariantType) ([]models.OptionSet, error)
	Count(ctx context.Context) (int64, error)
}

// Transactor runs a group of writes atomically when the store can.
type Transactor interface {
	SupportsTransactions() bool
	// WithTransaction runs fn inside one transaction. fn must use the context
	// it is given for every repository call.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
