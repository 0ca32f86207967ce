package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HSouheill/catalog_backend/config"
	"github.com/HSouheill/catalog_backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoCategoryRepository struct {
	collection *mongo.Collection
}

func NewCategoryRepository(db *mongo.Database) *MongoCategoryRepository {
	return &MongoCategoryRepository{collection: db.Collection(config.CategoriesCollection)}
}

var categorySort = bson.D{{Key: "level", Value: 1}, {Key: "name", Value: 1}, {Key: "_id", Value: 1}}

func (r *MongoCategoryRepository) Save(ctx context.Context, c *models.Category) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": c.ID}, c, options.Replace().SetUpsert(true))
	return translateWriteError(err)
}

func (r *MongoCategoryRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoCategoryRepository) FindSibling(ctx context.Context, parentID *primitive.ObjectID, name string) (*models.Category, error) {
	filter := bson.M{"name": name, "parentId": nil}
	if parentID != nil {
		filter["parentId"] = *parentID
	}
	return r.findOne(ctx, filter)
}

func (r *MongoCategoryRepository) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *MongoCategoryRepository) FindAll(ctx context.Context) ([]models.Category, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSort(categorySort))
}

func (r *MongoCategoryRepository) FindPage(ctx context.Context, skip, limit int64) ([]models.Category, int64, error) {
	total, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}
	if skip < 0 {
		skip = 0
	}
	opts := options.Find().SetSort(categorySort).SetSkip(skip)
	if limit > 0 {
		opts.SetLimit(limit)
	}
	items, err := r.find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *MongoCategoryRepository) FindChildren(ctx context.Context, parentID primitive.ObjectID) ([]models.Category, error) {
	return r.find(ctx, bson.M{"parentId": parentID}, options.Find().SetSort(categorySort))
}

func (r *MongoCategoryRepository) FindDescendants(ctx context.Context, id primitive.ObjectID) ([]models.Category, error) {
	return r.find(ctx, bson.M{"ancestors": id}, options.Find().SetSort(categorySort))
}

func (r *MongoCategoryRepository) Rename(ctx context.Context, id primitive.ObjectID, name, slug string, path []string) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$set": bson.M{
				"name":      name,
				"slug":      slug,
				"path":      path,
				"updatedAt": time.Now(),
			},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return translateWriteError(err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoCategoryRepository) SetPathSegment(ctx context.Context, ancestorID primitive.ObjectID, index int, slug string) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		bson.M{"ancestors": ancestorID},
		bson.M{"$set": bson.M{
			fmt.Sprintf("path.%d", index): slug,
			"updatedAt":                   time.Now(),
		}},
	)
	if err != nil {
		return 0, translateWriteError(err)
	}
	return result.ModifiedCount, nil
}

func (r *MongoCategoryRepository) UpdatePlacement(ctx context.Context, id primitive.ObjectID, parentID *primitive.ObjectID, level int, path []string, ancestors []primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"parentId":  parentID,
			"level":     level,
			"path":      path,
			"ancestors": ancestors,
			"updatedAt": time.Now(),
		}},
	)
	if err != nil {
		return translateWriteError(err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoCategoryRepository) BumpVersion(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"version": 1},
			"$set": bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete is idempotent: deleting a missing category is not an error.
func (r *MongoCategoryRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *MongoCategoryRepository) findOne(ctx context.Context, filter bson.M) (*models.Category, error) {
	var c models.Category
	err := r.collection.FindOne(ctx, filter).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *MongoCategoryRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Category, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	categories := []models.Category{}
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func translateWriteError(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
