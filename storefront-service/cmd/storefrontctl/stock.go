package main

import (
	"fmt"

	"storefront/storefront-service/internal/app/storefront/infrastructure/database"
	"storefront/storefront-service/internal/app/storefront/repository"
	"storefront/storefront-service/internal/app/storefront/service"

	"github.com/spf13/cobra"
)

var stockLimit int

var reconcileStockCmd = &cobra.Command{
	Use:   "reconcile-stock",
	Short: "Apply pending stock decrements recorded after failed captures",
	Long: `Apply pending entries of the stock drift ledger. Each entry is applied at
most once. Entries for deleted products are discarded.

If the storefront service is running its own reconcile job at the same time
the command does nothing and reports zero.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if stockLimit <= 0 {
			return fmt.Errorf("--limit must be positive")
		}

		s, err := openMongoStores()
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()

		gormDB, err := database.ConnectGorm(s.cfg.Postgres)
		if err != nil {
			return err
		}
		if sqlDB, err := gormDB.DB(); err == nil {
			defer sqlDB.Close()
		}

		redisClient, err := database.ConnectRedis(ctx, s.cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()

		reconciler := service.NewStockReconciler(
			repository.NewStockDriftRepository(gormDB),
			s.products,
			repository.NewLockRepository(redisClient),
		)

		report, err := reconciler.ApplyPending(ctx, stockLimit)
		if err != nil {
			return err
		}

		return printReport(report,
			fmt.Sprintf("Applied: %d", report.Applied),
			fmt.Sprintf("Discarded: %d", report.Discarded),
			fmt.Sprintf("Failed: %d", report.Failed),
		)
	},
}

func init() {
	reconcileStockCmd.Flags().IntVar(&stockLimit, "limit", 100, "Maximum number of ledger entries to apply")
	rootCmd.AddCommand(reconcileStockCmd)
}
