package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jamesaphoenix/tx/internal/app"
	"github.com/jamesaphoenix/tx/internal/types"
)

func init() {
	rootCmd.AddCommand(learnAddCmd, learnSearchCmd)
}

var (
	flagLearningSourceType string
	flagLearningSourceRef  string
	flagLearningCategory   string
)

var learnAddCmd = &cobra.Command{
	Use:   "learn-add <content>",
	Short: "Append a learning to the corpus",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			l, err := a.Learning.Create(ctx, &types.Learning{
				Content:    args[0],
				SourceType: flagLearningSourceType,
				SourceRef:  flagLearningSourceRef,
				Category:   flagLearningCategory,
			})
			if err != nil {
				return err
			}
			return printJSON(l)
		})
	},
}

func init() {
	learnAddCmd.Flags().StringVar(&flagLearningSourceType, "source-type", "manual", "source type")
	learnAddCmd.Flags().StringVar(&flagLearningSourceRef, "source-ref", "", "source reference")
	learnAddCmd.Flags().StringVar(&flagLearningCategory, "category", "", "category")
}

var flagSearchLimit int
var flagSearchMinScore float64

var learnSearchCmd = &cobra.Command{
	Use:   "learn-search <query>",
	Short: "Search the learning corpus by fused BM25/recency/outcome relevance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			results, err := a.Learning.Search(ctx, args[0], flagSearchLimit, flagSearchMinScore)
			if err != nil {
				return err
			}
			return printJSON(results)
		})
	},
}

func init() {
	learnSearchCmd.Flags().IntVar(&flagSearchLimit, "limit", 10, "max results")
	learnSearchCmd.Flags().Float64Var(&flagSearchMinScore, "min-score", 0, "minimum relevance score")
}
