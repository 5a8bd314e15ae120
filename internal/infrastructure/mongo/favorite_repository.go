package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sngm3741/menu-recommendation/api/internal/public/domain"
)

// FavoriteRepository implements application.FavoriteRepository using MongoDB.
type FavoriteRepository struct {
	collection *mongo.Collection
}

// NewFavoriteRepository creates a new Mongo-backed favorites repository.
func NewFavoriteRepository(db *mongo.Database, collectionName string) *FavoriteRepository {
	return &FavoriteRepository{collection: db.Collection(collectionName)}
}

// FindByPlace returns nil, nil when the user has not saved the place.
func (r *FavoriteRepository) FindByPlace(ctx context.Context, userID, placeID string) (*domain.FavoriteEntry, error) {
	var doc FavoriteDocument
	err := r.collection.FindOne(ctx, favoriteKey(userID, placeID)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(err)
	}
	entry := mapFavoriteDocument(doc)
	return &entry, nil
}

// List returns the user's favorites, newest first.
func (r *FavoriteRepository) List(ctx context.Context, userID string) ([]domain.FavoriteEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, storeError(err)
	}
	defer cursor.Close(ctx)

	entries := make([]domain.FavoriteEntry, 0)
	for cursor.Next(ctx) {
		var doc FavoriteDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, storeError(err)
		}
		entries = append(entries, mapFavoriteDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, storeError(err)
	}
	return entries, nil
}

// Create inserts entry and fills its RecordID. A concurrent insert of the same place
// hits the unique index; the stored record is returned through entry instead.
func (r *FavoriteRepository) Create(ctx context.Context, entry *domain.FavoriteEntry) error {
	doc := newFavoriteDocument(*entry)
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if !mongo.IsDuplicateKeyError(err) {
			return storeError(err)
		}
		existing, findErr := r.FindByPlace(ctx, entry.UserID, entry.PlaceID)
		if findErr != nil {
			return findErr
		}
		if existing == nil {
			return storeError(err)
		}
		*entry = *existing
		return nil
	}
	entry.RecordID = doc.ID.Hex()
	return nil
}

// Delete removes the favorite. Deleting a missing favorite succeeds.
func (r *FavoriteRepository) Delete(ctx context.Context, userID, placeID string) error {
	if _, err := r.collection.DeleteOne(ctx, favoriteKey(userID, placeID)); err != nil {
		return storeError(err)
	}
	return nil
}

func favoriteKey(userID, placeID string) bson.M {
	return bson.M{"userId": userID, "placeId": placeID}
}
