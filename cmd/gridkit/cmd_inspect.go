package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func inspectCmd() *cobra.Command {
	var (
		includeEmpty bool
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Load a grid, validate it and print its collections",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			ct, err := loadGrid(logger, "")
			if err != nil {
				return err
			}
			m, err := loadMapping(false)
			if err != nil {
				return err
			}

			type row struct {
				EntityType string `json:"entity_type"`
				File       string `json:"file"`
				Count      int    `json:"count"`
			}
			var rows []row
			for _, c := range ct.ToList(includeEmpty) {
				rows = append(rows, row{EntityType: string(c.EntityType()), File: c.EntityType().FileName(), Count: c.Len()})
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"collections":     rows,
					"entities":        ct.Len(),
					"primary_series":  ct.Primary().Len(),
					"mapping_entries": m.Len(),
				})
			}

			fmt.Printf("Grid: %s\n\n", cfg.Grid.Dir)
			for _, r := range rows {
				fmt.Printf("  %-16s %-28s %d\n", r.EntityType, r.File, r.Count)
			}
			fmt.Printf("\nEntities:        %d\n", ct.Len())
			fmt.Printf("Primary series:  %d\n", ct.Primary().Len())
			fmt.Printf("Mapping entries: %d\n", m.Len())
			return nil
		},
	}

	cmd.Flags().BoolVar(&includeEmpty, "include-empty", false, "list collections without rows")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}
