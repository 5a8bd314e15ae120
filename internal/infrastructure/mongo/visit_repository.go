package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sngm3741/menu-recommendation/api/internal/public/domain"
)

// maxVisitHistory caps a single history read.
const maxVisitHistory = 200

// VisitRepository implements application.VisitRepository using MongoDB.
type VisitRepository struct {
	collection *mongo.Collection
}

func NewVisitRepository(db *mongo.Database, collectionName string) *VisitRepository {
	return &VisitRepository{collection: db.Collection(collectionName)}
}

func (r *VisitRepository) Create(ctx context.Context, entry *domain.VisitEntry) error {
	doc := newVisitDocument(*entry)
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return storeError(err)
	}
	entry.RecordID = doc.ID.Hex()
	return nil
}

// List は visitedAt の降順で返す。
func (r *VisitRepository) List(ctx context.Context, userID string) ([]domain.VisitEntry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "visitedAt", Value: -1}}).
		SetLimit(maxVisitHistory)
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, storeError(err)
	}
	defer cursor.Close(ctx)

	visits := make([]domain.VisitEntry, 0)
	for cursor.Next(ctx) {
		var doc VisitDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, storeError(err)
		}
		visits = append(visits, mapVisitDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, storeError(err)
	}
	return visits, nil
}
