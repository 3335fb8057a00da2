package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/enviducate/enviducate/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "enviducate",
	Short: "Environmental query visualization pipeline",
	Long:  "Answers environmental questions about Michigan with synchronized pinpoint, heatmap, and numeric visualizations, backed by GeoJSON/shapefile ingestion and Claude-assisted classification.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
