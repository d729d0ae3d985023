package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"price-history-engine/internal/app"
)

var (
	inspectFile        string
	inspectGranularity string
	inspectRange       string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "离线对账本地 payload 文件并打印质量漏斗",
	RunE: func(cmd *cobra.Command, args []string) error {
		if inspectFile == "" {
			return fmt.Errorf("--file must be provided")
		}

		opts := app.InspectOptions{
			Path:        inspectFile,
			Granularity: inspectGranularity,
			Range:       inspectRange,
		}

		return getApp().Inspect(cmd.Context(), opts)
	},
}

func init() {
	inspectCmd.Flags().StringVar(&inspectFile, "file", "", "Path to a product payload JSON file")
	inspectCmd.Flags().StringVar(&inspectGranularity, "granularity", "", "Bucket width: raw, daily, weekly, monthly")
	inspectCmd.Flags().StringVar(&inspectRange, "range", "", "Trailing window: 1d, 1w, 1m, 3m, 1y, all")
}
