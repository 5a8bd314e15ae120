package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RevokedTokenRepository implements identity.RevocationStore.
type RevokedTokenRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewRevokedTokenRepository(db *mongo.Database, collectionName string) *RevokedTokenRepository {
	return &RevokedTokenRepository{collection: db.Collection(collectionName), now: time.Now}
}

// Revoke は冪等。同じトークンを二度失効させても最初の記録を保持する。
func (r *RevokedTokenRepository) Revoke(ctx context.Context, tokenID, userID string, expiresAt time.Time) error {
	update := bson.M{
		"$setOnInsert": bson.M{
			"userId":    userID,
			"revokedAt": r.now().UTC(),
			"expiresAt": expiresAt.UTC(),
		},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": tokenID}, update, opts); err != nil {
		return storeError(err)
	}
	return nil
}

// IsRevoked ignores records past their expiry that the TTL monitor has not removed yet.
func (r *RevokedTokenRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	filter := bson.M{"_id": tokenID, "expiresAt": bson.M{"$gt": r.now().UTC()}}
	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, storeError(err)
	}
	return count > 0, nil
}
