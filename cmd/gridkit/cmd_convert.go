package main

import (
	"fmt"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/gridkit/internal/grid"
)

func convertCmd() *cobra.Command {
	var (
		outDelimiter   string
		includePrimary bool
	)

	cmd := &cobra.Command{
		Use:   "convert <out-dir>",
		Short: "Rewrite a grid into another directory, optionally with another delimiter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			ct, err := loadGrid(logger, "")
			if err != nil {
				return err
			}

			delim := cfg.Grid.Comma()
			if outDelimiter != "" {
				if utf8.RuneCountInString(outDelimiter) != 1 {
					return fmt.Errorf("convert: --out-delimiter must be a single character, got %q", outDelimiter)
				}
				delim, _ = utf8.DecodeRuneInString(outDelimiter)
			}
			if !cmd.Flags().Changed("include-primary") {
				includePrimary = cfg.Grid.IncludePrimary
			}

			paths, err := ct.ToCSV(args[0], grid.WriteOptions{
				IncludePrimary: includePrimary,
				Mkdirs:         true,
				Delimiter:      delim,
			})
			if err != nil {
				return fmt.Errorf("convert: %w", err)
			}
			for _, p := range paths {
				fmt.Println(p)
			}
			logger.Info("grid converted", "out", args[0], "files", len(paths))
			return nil
		},
	}

	cmd.Flags().StringVar(&outDelimiter, "out-delimiter", "", "delimiter of the written files (default: input delimiter)")
	cmd.Flags().BoolVar(&includePrimary, "include-primary", true, "also write primary time series files")
	return cmd
}
