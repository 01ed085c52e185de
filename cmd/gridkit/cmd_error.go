package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/gridkit/internal/stats"
)

func errorCmd() *cobra.Command {
	var (
		column string
		metric string
	)

	cmd := &cobra.Command{
		Use:   "error <uuid-a> <uuid-b>",
		Short: "Compute an error metric between two primary time series",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			m, err := stats.ParseMetric(metric)
			if err != nil {
				return fmt.Errorf("error: %w", err)
			}
			ct, err := loadGrid(logger, "")
			if err != nil {
				return err
			}

			var values [2][]float64
			for i, raw := range args {
				id, err := uuid.Parse(raw)
				if err != nil {
					return fmt.Errorf("error: invalid uuid %q: %w", raw, err)
				}
				series, ok := ct.Primary().Get(id)
				if !ok {
					return fmt.Errorf("error: no primary series for %s", id)
				}
				if values[i], err = series.Column(column); err != nil {
					return fmt.Errorf("error: %w", err)
				}
			}

			v, err := stats.Compute(m, values[0], values[1])
			if err != nil {
				return fmt.Errorf("error: %w", err)
			}
			fmt.Printf("%s(%s) = %g\n", m, column, v)
			return nil
		},
	}

	cmd.Flags().StringVar(&column, "column", "p", "series column to compare")
	cmd.Flags().StringVar(&metric, "metric", string(stats.MetricRMSE), "rmse or mae")
	return cmd
}
