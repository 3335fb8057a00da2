package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/enviducate/enviducate/internal/model"
	"github.com/enviducate/enviducate/internal/pipeline"
)

var (
	queryCategory  string
	queryTimeRange string
)

var queryCmd = &cobra.Command{
	Use:   "query <question>...",
	Short: "Answer one environmental question and print the result JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Pipeline.Query(cmd.Context(), pipeline.QueryRequest{
			Query:     strings.Join(args, " "),
			Category:  model.Category(queryCategory),
			TimeRange: queryTimeRange,
		})
		if err != nil {
			return err
		}

		payload, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(payload))
		return nil
	},
}

func init() {
	queryCmd.Flags().StringVar(&queryCategory, "category", "", "force a category instead of classifying")
	queryCmd.Flags().StringVar(&queryTimeRange, "time-range", "", "override the metrics timeframe label")
	rootCmd.AddCommand(queryCmd)
}
