package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/docledger/docledger/internal/registry"
)

// ownerDocument is the Mongo representation of one index entry. Position is
// the zero-based slot in the owner's sequence and never changes once written.
type ownerDocument struct {
	Owner             string `bson:"owner"`
	Position          int64  `bson:"position"`
	registry.Document `bson:",inline"`
}

// MongoStore implements the owner index on a MongoDB collection. Documents
// are insert-only; the unique {owner, position} index makes accidental
// double-appends at the same slot fail loudly. Callers are serialized by the
// registry, so Append may derive the next position from the current count.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(col *mongo.Collection) *MongoStore {
	idxModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "owner", Value: 1}, {Key: "position", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	col.Indexes().CreateOne(context.Background(), idxModel)
	return &MongoStore{col: col}
}

func (m *MongoStore) Append(ctx context.Context, owner string, doc registry.Document) error {
	n, err := m.col.CountDocuments(ctx, bson.M{"owner": owner})
	if err != nil {
		return err
	}
	_, err = m.col.InsertOne(ctx, ownerDocument{Owner: owner, Position: n, Document: doc})
	return err
}

func (m *MongoStore) Count(ctx context.Context, owner string) (uint, error) {
	n, err := m.col.CountDocuments(ctx, bson.M{"owner": owner})
	if err != nil {
		return 0, err
	}
	return uint(n), nil
}

func (m *MongoStore) Get(ctx context.Context, owner string, index uint8) (registry.Document, bool, error) {
	var d ownerDocument
	err := m.col.FindOne(ctx, bson.M{"owner": owner, "position": int64(index)}).Decode(&d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return registry.Document{}, false, nil
		}
		return registry.Document{}, false, err
	}
	return d.Document, true, nil
}
