// Command seed loads place fixtures into the search index and prepares storage indexes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"github.com/sngm3741/menu-recommendation/api/internal/config"
	"github.com/sngm3741/menu-recommendation/api/internal/infrastructure/elastic"
	mongodoc "github.com/sngm3741/menu-recommendation/api/internal/infrastructure/mongo"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the place index and prepare storage indexes",
		Long: `Seed loads restaurant fixtures into Elasticsearch and creates the MongoDB and
Elasticsearch indexes the API relies on. Connection settings come from the same
environment variables as the API (MONGO_URI, ELASTICSEARCH_URL, PLACE_INDEX, ...).

Examples:
  seed indexes
  seed places --file cmd/seed/places.yaml
`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Overall timeout")

	cmd.AddCommand(indexesCmd(&timeout))
	cmd.AddCommand(placesCmd(&timeout))
	return cmd
}

func indexesCmd(timeout *time.Duration) *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "Create MongoDB and Elasticsearch indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := commandContext(cmd.Context(), *timeout)
			defer cancel()

			cfg := config.Load()
			client, err := connectMongo(ctx, cfg)
			if err != nil {
				return err
			}
			defer client.Disconnect(context.Background())

			places, err := placeRepository(cfg)
			if err != nil {
				return err
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return mongodoc.EnsureIndexes(gctx, client.Database(cfg.MongoDatabase), mongodoc.Collections{
					Favorites:     cfg.FavoriteCollection,
					Visits:        cfg.VisitCollection,
					RevokedTokens: cfg.RevokedTokenCollection,
				})
			})
			g.Go(func() error {
				return places.EnsureIndex(gctx)
			})
			if err := g.Wait(); err != nil {
				return fmt.Errorf("インデックスの作成に失敗: %w", err)
			}

			cfg.ServerLog.Printf("インデックスを作成しました db=%s index=%s", cfg.MongoDatabase, cfg.PlaceIndex)
			return nil
		},
	}
}

func placesCmd(timeout *time.Duration) *cobra.Command {
	var (
		file   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "places",
		Short: "Upsert place fixtures into the search index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			fixtures, err := loadFixtures(f)
			if err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "%d 件の店舗を検証しました\n", len(fixtures))
				return nil
			}

			ctx, cancel := commandContext(cmd.Context(), *timeout)
			defer cancel()

			cfg := config.Load()
			places, err := placeRepository(cfg)
			if err != nil {
				return err
			}
			if err := places.EnsureIndex(ctx); err != nil {
				return fmt.Errorf("インデックス %s の作成に失敗: %w", cfg.PlaceIndex, err)
			}

			failed, err := places.BulkUpsert(ctx, fixtures)
			if err != nil {
				return fmt.Errorf("店舗の登録に失敗: %w", err)
			}
			if failed > 0 {
				return fmt.Errorf("%d/%d 件の店舗の登録に失敗しました", failed, len(fixtures))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d 件の店舗を %s に登録しました\n", len(fixtures), cfg.PlaceIndex)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "cmd/seed/places.yaml", "Fixture YAML file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate fixtures without writing")
	return cmd
}

func commandContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	return ctx, func() {
		stop()
		cancel()
	}
}

func connectMongo(ctx context.Context, cfg config.Config) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(cfg.MongoURI).SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("MongoDB 接続に失敗しました: %w", err)
	}
	return client, nil
}

func placeRepository(cfg config.Config) (*elastic.PlaceRepository, error) {
	client, err := elastic.NewClient(cfg.ElasticsearchURL, cfg.ServerLog)
	if err != nil {
		return nil, err
	}
	return elastic.NewPlaceRepository(client, cfg.PlaceIndex), nil
}
