package repositories

import (
	"context"
	"errors"

	"github.com/HSouheill/catalog_backend/config"
	"github.com/HSouheill/catalog_backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoAttributeRepository struct {
	collection *mongo.Collection
}

func NewAttributeRepository(db *mongo.Database) *MongoAttributeRepository {
	return &MongoAttributeRepository{collection: db.Collection(config.AttributesCollection)}
}

// ObjectIDs grow with creation time, so sorting on _id yields declaration order.
var attributeSort = bson.D{{Key: "_id", Value: 1}}

func (r *MongoAttributeRepository) Save(ctx context.Context, a *models.AttributeDefinition) error {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": a.ID}, a, options.Replace().SetUpsert(true))
	return translateWriteError(err)
}

func (r *MongoAttributeRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.AttributeDefinition, error) {
	var a models.AttributeDefinition
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *MongoAttributeRepository) ListByCategory(ctx context.Context, categoryID primitive.ObjectID) ([]models.AttributeDefinition, error) {
	return r.find(ctx, bson.M{"categoryId": categoryID})
}

func (r *MongoAttributeRepository) ListByCategories(ctx context.Context, categoryIDs []primitive.ObjectID) ([]models.AttributeDefinition, error) {
	if len(categoryIDs) == 0 {
		return []models.AttributeDefinition{}, nil
	}
	return r.find(ctx, bson.M{"categoryId": bson.M{"$in": categoryIDs}})
}

func (r *MongoAttributeRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *MongoAttributeRepository) DeleteByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"categoryId": categoryID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (r *MongoAttributeRepository) find(ctx context.Context, filter bson.M) ([]models.AttributeDefinition, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(attributeSort))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	attrs := []models.AttributeDefinition{}
	if err := cursor.All(ctx, &attrs); err != nil {
		return nil, err
	}
	return attrs, nil
}
