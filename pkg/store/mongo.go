package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/sketchlift/pkg/errors"
)

const (
	mongoDatabase   = "sketchlift"
	mongoCollection = "designs"
	mongoTimeout    = 10 * time.Second
)

// MongoStore persists documents in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to the given MongoDB URI and pings it before
// returning.
func NewMongoStore(ctx context.Context, uri string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResource, err, "connect mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeResource, err, "ping mongodb")
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(mongoDatabase).Collection(mongoCollection),
	}, nil
}

// Put upserts the document by ID.
func (s *MongoStore) Put(ctx context.Context, doc *Document) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": doc.ID},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeResource, err, "store document")
	}
	return nil
}

// Get fetches a document by ID.
func (s *MongoStore) Get(ctx context.Context, id string) (*Document, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	var doc Document
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResource, err, "fetch document")
	}
	return &doc, nil
}

// List returns all documents newest first.
func (s *MongoStore) List(ctx context.Context) ([]*Document, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResource, err, "list documents")
	}
	defer cursor.Close(ctx)

	var docs []*Document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeResource, err, "decode documents")
	}
	return docs, nil
}

// Delete removes a document by ID.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return errors.Wrap(errors.ErrCodeResource, err, "delete document")
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
