package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/gridkit/internal/grid"
	"github.com/ajitpratap0/gridkit/internal/mapping"
	"github.com/ajitpratap0/gridkit/internal/models"
	"github.com/ajitpratap0/gridkit/internal/table"
)

func mappingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mapping",
		Short: "Build or show the external mapping table",
	}
	cmd.AddCommand(mappingBuildCmd(), mappingShowCmd())
	return cmd
}

func mappingBuildCmd() *cobra.Command {
	var (
		primary bool
		em      []string
		results []string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build ext_mapping.csv from the grid",
		Long: `Builds the external mapping table from the loaded grid and writes it to the
configured mapping file.

  --primary       map every participant that carries a primary time series
  --em TYPES      map every entity of these types as energy management input
  --results TYPES map every entity of these types as result data`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			ct, err := loadGrid(logger, "")
			if err != nil {
				return err
			}

			var primaryIDs map[models.EntityType][]uuid.UUID
			if primary {
				primaryIDs = primaryByType(ct)
			}
			emIDs, err := allOfTypes(ct, em)
			if err != nil {
				return fmt.Errorf("mapping build: %w", err)
			}
			resultIDs, err := allOfTypes(ct, results)
			if err != nil {
				return fmt.Errorf("mapping build: %w", err)
			}

			m, err := mapping.FromGrid(ct, primaryIDs, emIDs, resultIDs)
			if err != nil {
				return fmt.Errorf("mapping build: %w", err)
			}
			path := cfg.Grid.MappingPath()
			written, err := m.ToCSV(path, table.WriteOptions{Delimiter: cfg.Grid.Comma()})
			if err != nil {
				return fmt.Errorf("mapping build: %w", err)
			}
			if !written {
				fmt.Println("No entries; nothing written.")
				return nil
			}
			fmt.Printf("Wrote %d entries to %s\n", m.Len(), path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&primary, "primary", false, "map participants with primary time series")
	cmd.Flags().StringSliceVar(&em, "em", nil, "entity types mapped as em_input")
	cmd.Flags().StringSliceVar(&results, "results", nil, "entity types mapped as results")
	return cmd
}

func mappingShowCmd() *cobra.Command {
	var dataType string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the entries of the mapping file",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadMapping(true)
			if err != nil {
				return err
			}
			entries := m.Entries()
			if dataType != "" {
				dt := models.DataType(dataType)
				if !dt.IsValid() {
					return fmt.Errorf("mapping show: invalid --data-type %q", dataType)
				}
				entries = m.ByDataType(dt)
			}
			for _, e := range entries {
				fmt.Printf("%s  %-20s %-4s %s\n", e.UUID, e.ID, e.ColumnScheme, e.DataType)
			}
			fmt.Printf("%d entries\n", len(entries))
			return nil
		},
	}

	cmd.Flags().StringVar(&dataType, "data-type", "", "only entries of this data type")
	return cmd
}

// primaryByType groups the uuids of all primary series by participant type.
func primaryByType(ct *grid.Container) map[models.EntityType][]uuid.UUID {
	types := make(map[uuid.UUID]models.EntityType)
	ct.EachParticipant(func(et models.EntityType, id uuid.UUID, _ models.Participant) {
		types[id] = et
	})
	out := make(map[models.EntityType][]uuid.UUID)
	for _, id := range ct.Primary().UUIDs() {
		et := types[id]
		out[et] = append(out[et], id)
	}
	return out
}

func allOfTypes(ct *grid.Container, names []string) (map[models.EntityType][]uuid.UUID, error) {
	out := make(map[models.EntityType][]uuid.UUID, len(names))
	for _, name := range names {
		et := models.EntityType(name)
		c, err := ct.GetWithEnum(et)
		if err != nil {
			return nil, err
		}
		out[et] = c.UUIDs()
	}
	return out, nil
}
