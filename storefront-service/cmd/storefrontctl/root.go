package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"storefront/pkg/logger"
	"storefront/storefront-service/internal/app/storefront/config"
	"storefront/storefront-service/internal/app/storefront/infrastructure/database"
	"storefront/storefront-service/internal/app/storefront/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// Глобальные флаги
	logLevel   string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "storefrontctl",
	Short: "Out-of-band reconciliation for the storefront",
	Long: `storefrontctl runs storefront reconciliation jobs by hand.

Connection settings come from the same environment variables as the
storefront service (MONGODB_URI, DB_HOST, REDIS_HOST, ...).

Examples:
  storefrontctl recompute-ratings
  storefrontctl remove-author-reviews 3f0c8f8e-6c1e-4c55-9d0e-2f5b0f1f5a11
  storefrontctl reconcile-stock --limit 500`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init("storefrontctl", logLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output the report as JSON")
}

// stores - подключения, которые нужны командам
type stores struct {
	mongo    *mongo.Client
	pg       *pgxpool.Pool
	products repository.ProductRepository
	reviews  repository.ReviewRepository
	cfg      *config.Config
}

func openMongoStores() (*stores, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	client, err := database.ConnectMongoDB(cfg.MongoDB)
	if err != nil {
		return nil, err
	}

	db := client.Database(cfg.MongoDB.Database)
	return &stores{
		mongo:    client,
		products: repository.NewProductRepository(db),
		reviews:  repository.NewReviewRepository(db),
		cfg:      cfg,
	}, nil
}

func (s *stores) Close() {
	if s.pg != nil {
		s.pg.Close()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.mongo.Disconnect(ctx); err != nil {
		logger.Error().Err(err).Msg("Error disconnecting from MongoDB")
	}
}

// printReport выводит отчет в JSON или построчно
func printReport(report interface{}, lines ...string) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	for _, line := range lines {
		fmt.Println(line)
	}
	return nil
}
