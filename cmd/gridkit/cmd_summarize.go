package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/gridkit/internal/summary"
)

func summarizeCmd() *cobra.Command {
	var (
		budget     int
		promptOnly bool
	)

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Ask Claude for a short narrative report of the grid",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			ct, err := loadGrid(logger, "")
			if err != nil {
				return err
			}

			if promptOnly {
				fmt.Println(summary.BuildPrompt(summary.NewOverview(ct), budget))
				return nil
			}
			if cfg.Claude.APIKey == "" {
				return errors.New("summarize: ANTHROPIC_API_KEY is not set")
			}

			s := summary.NewSummarizer(cfg.Claude.APIKey, cfg.Claude.Model, logger).WithBudget(budget)
			report, err := s.Summarize(cmd.Context(), ct)
			if err != nil {
				return fmt.Errorf("summarize: %w", err)
			}
			fmt.Println(report)
			return nil
		},
	}

	cmd.Flags().IntVar(&budget, "budget", summary.DefaultPromptBudget, "token budget for the grid description")
	cmd.Flags().BoolVar(&promptOnly, "prompt-only", false, "print the prompt without calling the API")
	return cmd
}
