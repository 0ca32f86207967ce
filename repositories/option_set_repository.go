package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/HSouheill/catalog_backend/config"
	"github.com/HSouheill/catalog_backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoOptionSetRepository struct {
	collection *mongo.Collection
}

func NewOptionSetRepository(db *mongo.Database) *MongoOptionSetRepository {
	return &MongoOptionSetRepository{collection: db.Collection(config.OptionSetsCollection)}
}

func (r *MongoOptionSetRepository) Insert(ctx context.Context, set *models.OptionSet) error {
	if set.ID.IsZero() {
		set.ID = primitive.NewObjectID()
	}
	if set.CreatedAt.IsZero() {
		set.CreatedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, set)
	return translateWriteError(err)
}

// InsertMany upserts on (type, name) so concurrent seeders converge on a
// single copy of each set.
func (r *MongoOptionSetRepository) InsertMany(ctx context.Context, sets []models.OptionSet) error {
	if len(sets) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, 0, len(sets))
	for _, s := range sets {
		created := s.CreatedAt
		if created.IsZero() {
			created = time.Now()
		}
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"type": s.Type, "name": s.Name}).
			SetUpdate(bson.M{"$setOnInsert": bson.M{
				"type":      s.Type,
				"name":      s.Name,
				"values":    s.Values,
				"createdAt": created,
			}}).
			SetUpsert(true))
	}
	_, err := r.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return err
	}
	return nil
}

func (r *MongoOptionSetRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.OptionSet, error) {
	var set models.OptionSet
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&set)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &set, nil
}

func (r *MongoOptionSetRepository) List(ctx context.Context, setType *models.VariantType) ([]models.OptionSet, error) {
	filter := bson.M{}
	if setType != nil {
		filter["type"] = *setType
	}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sets := []models.OptionSet{}
	if err := cursor.All(ctx, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

func (r *MongoOptionSetRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}
