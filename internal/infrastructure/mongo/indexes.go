package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collections names the collections EnsureIndexes prepares.
type Collections struct {
	Favorites     string
	Visits        string
	RevokedTokens string
}

// EnsureIndexes creates the indexes the repositories rely on. Existing indexes are left as is.
// お気に入りの一意性はアプリ側の事前確認に加えてユニークインデックスでも担保する。
func EnsureIndexes(ctx context.Context, db *mongo.Database, names Collections) error {
	specs := map[string][]mongo.IndexModel{
		names.Favorites: {
			{
				Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "placeId", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("userId_placeId_unique"),
			},
			{
				Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("userId_createdAt"),
			},
		},
		names.Visits: {
			{
				Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "visitedAt", Value: -1}},
				Options: options.Index().SetName("userId_visitedAt"),
			},
		},
		names.RevokedTokens: {
			{
				Keys:    bson.D{{Key: "expiresAt", Value: 1}},
				Options: options.Index().SetExpireAfterSeconds(0).SetName("expiresAt_ttl"),
			},
		},
	}

	for collection, models := range specs {
		if collection == "" {
			continue
		}
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("%s のインデックス作成に失敗: %w", collection, err)
		}
	}
	return nil
}
