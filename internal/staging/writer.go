package staging

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Writer replaces staging collections wholesale. It only backs the seed
// command; the production loader lives outside this repository.
type Writer struct {
	db *mongo.Database
}

func NewWriter(db *mongo.Database) *Writer {
	return &Writer{db: db}
}

// Replace drops the collection, inserts docs and indexes keyField when set.
// It returns the number of inserted documents.
func (w *Writer) Replace(ctx context.Context, name string, docs []Document, keyField string) (int, error) {
	coll := w.db.Collection(name)
	if err := coll.Drop(ctx); err != nil {
		return 0, fmt.Errorf("drop %s: %w", name, err)
	}
	if len(docs) == 0 {
		return 0, nil
	}

	batch := make([]interface{}, len(docs))
	for i, d := range docs {
		batch[i] = d
	}
	res, err := coll.InsertMany(ctx, batch, options.InsertMany().SetOrdered(true))
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", name, err)
	}

	if keyField != "" {
		_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: keyField, Value: 1}}})
		if err != nil {
			return len(res.InsertedIDs), fmt.Errorf("index %s.%s: %w", name, keyField, err)
		}
	}
	return len(res.InsertedIDs), nil
}
