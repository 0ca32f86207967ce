// config/db.go
package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	CategoriesCollection = "categories"
	AttributesCollection = "attributes"
	OptionSetsCollection = "optionSets"
)

// ConnectDB establishes a connection to MongoDB and pings it.
func ConnectDB(ctx context.Context, cfg MongoConfig, log logrus.FieldLogger) (*mongo.Client, error) {
	log.Infof("Connecting to MongoDB at: %s", maskMongoURI(cfg.URI))

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	log.Info("Connected to MongoDB")
	return client, nil
}

// SetupCollections ensures the indexes the repositories rely on. Index
// creation failures are logged, not fatal.
func SetupCollections(ctx context.Context, db *mongo.Database, log logrus.FieldLogger) {
	indexes := map[string][]mongo.IndexModel{
		CategoriesCollection: {
			{
				Keys:    bson.D{{Key: "parentId", Value: 1}, {Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("parent_name_unique"),
			},
			{
				Keys:    bson.D{{Key: "slug", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("slug_unique"),
			},
			{
				Keys:    bson.D{{Key: "ancestors", Value: 1}},
				Options: options.Index().SetName("ancestors"),
			},
		},
		AttributesCollection: {
			{
				Keys:    bson.D{{Key: "categoryId", Value: 1}, {Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("category_name_unique"),
			},
		},
		OptionSetsCollection: {
			{
				Keys:    bson.D{{Key: "type", Value: 1}, {Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("type_name_unique"),
			},
		},
	}

	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			log.WithError(err).Errorf("Error creating indexes for %s", coll)
		}
	}
	log.Info("Database collections and indexes setup complete")
}

// maskMongoURI masks the password in a MongoDB URI for logging.
func maskMongoURI(uri string) string {
	if idx := strings.Index(uri, "@"); idx > 0 {
		if colonIdx := strings.LastIndex(uri[:idx], ":"); colonIdx > 0 && !strings.HasPrefix(uri[colonIdx:], "://") {
			return uri[:colonIdx+1] + "***" + uri[idx:]
		}
	}
	return uri
}
