package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"price-history-engine/internal/app"
)

var (
	refreshASIN   string
	refreshDryRun bool
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch and reconcile one product immediately",
	RunE: func(cmd *cobra.Command, args []string) error {
		if refreshASIN == "" {
			return fmt.Errorf("--asin must be provided")
		}

		opts := app.RefreshOptions{
			ASIN:   refreshASIN,
			DryRun: refreshDryRun,
		}

		return getApp().Refresh(cmd.Context(), opts)
	},
}

func init() {
	refreshCmd.Flags().StringVar(&refreshASIN, "asin", "", "Product identifier to refresh")
	refreshCmd.Flags().BoolVar(&refreshDryRun, "dry-run", false, "Run without writing to storage")
}
