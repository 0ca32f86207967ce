package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoTransactor runs session transactions when the deployment is a replica
// set or sharded cluster. Standalone servers reject transactions, so support
// is probed once at construction.
type MongoTransactor struct {
	client    *mongo.Client
	supported bool
}

func NewMongoTransactor(ctx context.Context, client *mongo.Client) *MongoTransactor {
	return &MongoTransactor{client: client, supported: probeTransactions(ctx, client)}
}

func probeTransactions(ctx context.Context, client *mongo.Client) bool {
	var hello bson.M
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err != nil {
		return false
	}
	if _, ok := hello["setName"]; ok {
		return true
	}
	return hello["msg"] == "isdbgrid"
}

func (t *MongoTransactor) SupportsTransactions() bool {
	return t.supported
}

func (t *MongoTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
