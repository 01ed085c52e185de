package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/gridkit/internal/grid"
)

func compareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <dir-a> <dir-b>",
		Short: "Compare two grids row by row and report every difference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			a, err := loadGrid(logger, args[0])
			if err != nil {
				return err
			}
			b, err := loadGrid(logger, args[1])
			if err != nil {
				return err
			}

			err = grid.Compare(a, b)
			if err == nil {
				fmt.Println("Grids are equal.")
				return nil
			}
			var agg *grid.AggregateComparisonError
			if !errors.As(err, &agg) {
				return fmt.Errorf("compare: %w", err)
			}
			for _, f := range agg.Failures {
				fmt.Printf("  %v\n", f)
			}
			fmt.Printf("%d differences\n", len(agg.Failures))
			return errDifferences
		},
	}
}
