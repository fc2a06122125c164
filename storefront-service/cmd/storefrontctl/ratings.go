package main

import (
	"context"
	"fmt"

	"storefront/storefront-service/internal/app/storefront/infrastructure/database"
	"storefront/storefront-service/internal/app/storefront/repository"
	"storefront/storefront-service/internal/app/storefront/service"

	"github.com/spf13/cobra"
)

var recomputeRatingsCmd = &cobra.Command{
	Use:   "recompute-ratings",
	Short: "Recompute productRating and numberOfReviews for every product",
	Long: `Recompute the aggregate rating of every product from its current reviews.

Use after a partial failure left aggregates out of date. Products that fail
are listed in the report and can be retried by running the command again.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openMongoStores()
		if err != nil {
			return err
		}
		defer s.Close()

		aggregator, err := newAggregator(cmd.Context(), s)
		if err != nil {
			return err
		}
		report, err := aggregator.RecomputeAll(cmd.Context())
		if err != nil {
			return err
		}

		lines := []string{fmt.Sprintf("Products updated: %d", len(report.ProductsUpdated))}
		for _, id := range report.Failures {
			lines = append(lines, "Failed: "+id)
		}
		if err := printReport(report, lines...); err != nil {
			return err
		}
		if len(report.Failures) > 0 {
			return fmt.Errorf("%d products were not recomputed", len(report.Failures))
		}
		return nil
	},
}

var removeAuthorReviewsCmd = &cobra.Command{
	Use:   "remove-author-reviews <author-id>",
	Short: "Delete every review of an author and recompute the affected products",
	Long: `Delete every review written by the given author and recompute the rating of
each product they touched. Use to finish the cleanup of a user deleted
while the document store was unavailable.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openMongoStores()
		if err != nil {
			return err
		}
		defer s.Close()

		aggregator, err := newAggregator(cmd.Context(), s)
		if err != nil {
			return err
		}
		report, err := aggregator.RemoveAuthorReviews(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		return printReport(report,
			fmt.Sprintf("Reviews removed: %d", report.ReviewsRemoved),
			fmt.Sprintf("Products updated: %d", len(report.ProductsUpdated)),
		)
	},
}

// newAggregator подключает хранилище пользователей; пул закрывается вместе с stores
func newAggregator(ctx context.Context, s *stores) (*service.RatingAggregator, error) {
	pool, err := database.ConnectPostgres(ctx, s.cfg.Postgres)
	if err != nil {
		return nil, err
	}
	s.pg = pool
	return service.NewRatingAggregator(s.products, s.reviews, repository.NewUserRepository(pool)), nil
}

func init() {
	rootCmd.AddCommand(recomputeRatingsCmd)
	rootCmd.AddCommand(removeAuthorReviewsCmd)
}
