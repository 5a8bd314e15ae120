package main

import (
	"context"
	"log"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sngm3741/menu-recommendation/api/internal/config"
	"github.com/sngm3741/menu-recommendation/api/internal/infrastructure/elastic"
	mongodoc "github.com/sngm3741/menu-recommendation/api/internal/infrastructure/mongo"
	"github.com/sngm3741/menu-recommendation/api/internal/server"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		cfg.ServerLog.Fatalf("設定が不正です: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.MongoURI).SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		cfg.ServerLog.Fatalf("MongoDB 接続に失敗しました: %v", err)
	}

	// インデックス作成に失敗しても起動は続ける。一意性はアプリ側の事前確認でも担保している。
	if err := mongodoc.EnsureIndexes(ctx, client.Database(cfg.MongoDatabase), mongodoc.Collections{
		Favorites:     cfg.FavoriteCollection,
		Visits:        cfg.VisitCollection,
		RevokedTokens: cfg.RevokedTokenCollection,
	}); err != nil {
		cfg.ServerLog.Printf("MongoDB インデックスの作成に失敗: %v", err)
	}

	search, err := elastic.NewClient(cfg.ElasticsearchURL, cfg.ServerLog)
	if err != nil {
		cfg.ServerLog.Fatalf("Elasticsearch 接続に失敗しました: %v", err)
	}

	app, err := server.New(cfg, client, search)
	if err != nil {
		cfg.ServerLog.Fatalf("サーバーの初期化に失敗: %v", err)
	}
	if err := app.Run(); err != nil {
		log.Fatalf("サーバー起動に失敗: %v", err)
	}
}
