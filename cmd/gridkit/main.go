package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/gridkit/internal/config"
	"github.com/ajitpratap0/gridkit/internal/grid"
	"github.com/ajitpratap0/gridkit/internal/mapping"
)

var (
	cfg *config.Config

	dirFlag       string
	delimiterFlag string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	rootCmd := &cobra.Command{
		Use:   "gridkit",
		Short: "gridkit: load, inspect and convert tabular power grid models",
		Long: `gridkit reads a power grid model stored as one delimited file per entity type
(node_input.csv, line_input.csv, ...), validates it, and answers topology
questions about it. It can also serve the grid over HTTP or MCP, export it
to Neo4j and archive it in S3.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if dirFlag != "" {
				cfg.Grid.Dir = dirFlag
			}
			if delimiterFlag != "" {
				cfg.Grid.Delimiter = delimiterFlag
			}
			return cfg.Validate()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&dirFlag, "dir", "d", "", "grid directory (overrides grid.dir)")
	rootCmd.PersistentFlags().StringVar(&delimiterFlag, "delimiter", "", "CSV delimiter (overrides grid.delimiter)")

	rootCmd.AddCommand(
		inspectCmd(),
		topologyCmd(),
		convertCmd(),
		compareCmd(),
		mappingCmd(),
		errorCmd(),
		serveCmd(),
		mcpCmd(),
		exportNeo4jCmd(),
		pushCmd(),
		pullCmd(),
		summarizeCmd(),
	)

	rootCmd.SetContext(ctx)

	err := rootCmd.Execute()
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if cfg != nil && cfg.Logging.Level == "debug" {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg != nil && cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// loadGrid reads the container in dir, falling back to the configured grid
// directory when dir is empty.
func loadGrid(logger *slog.Logger, dir string) (*grid.Container, error) {
	if dir == "" {
		dir = cfg.Grid.Dir
	}
	ct, err := grid.FromCSV(dir, cfg.Grid.Comma())
	if err != nil {
		return nil, fmt.Errorf("loading grid from %s: %w", dir, err)
	}
	logger.Debug("grid loaded", "dir", dir, "entities", ct.Len(), "primary_series", ct.Primary().Len())
	return ct, nil
}

// loadMapping reads the configured mapping file. When mustExist is false an
// absent file yields an empty table.
func loadMapping(mustExist bool) (*mapping.Table, error) {
	m, err := mapping.FromCSV(cfg.Grid.MappingPath(), cfg.Grid.Comma(), mustExist)
	if err != nil {
		return nil, fmt.Errorf("loading mapping: %w", err)
	}
	return m, nil
}

// errDifferences marks a comparison that completed but found differences.
var errDifferences = errors.New("grids differ")
