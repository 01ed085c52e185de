package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/gridkit/internal/storage"
)

func newArchive(cmd *cobra.Command) (*storage.Archive, error) {
	logger := newLogger()
	client, err := storage.NewS3Client(cmd.Context(), cfg.S3)
	if err != nil {
		return nil, err
	}
	return storage.NewArchive(client, cfg.S3.Bucket, logger)
}

func pushCmd() *cobra.Command {
	var validate bool

	cmd := &cobra.Command{
		Use:   "push <prefix>",
		Short: "Upload the grid directory to the S3 archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if validate {
				if _, err := loadGrid(newLogger(), ""); err != nil {
					return fmt.Errorf("push: refusing to archive an invalid grid: %w", err)
				}
			}
			a, err := newArchive(cmd)
			if err != nil {
				return fmt.Errorf("push: %w", err)
			}
			keys, err := a.Upload(cmd.Context(), cfg.Grid.Dir, args[0])
			if err != nil {
				return fmt.Errorf("push: %w", err)
			}
			for _, k := range keys {
				fmt.Printf("s3://%s/%s\n", cfg.S3.Bucket, k)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&validate, "validate", true, "load and validate the grid before uploading")
	return cmd
}

func pullCmd() *cobra.Command {
	var validate bool

	cmd := &cobra.Command{
		Use:   "pull <prefix>",
		Short: "Download an archived grid into the grid directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newArchive(cmd)
			if err != nil {
				return fmt.Errorf("pull: %w", err)
			}
			paths, err := a.Download(cmd.Context(), args[0], cfg.Grid.Dir)
			if err != nil {
				return fmt.Errorf("pull: %w", err)
			}
			for _, p := range paths {
				fmt.Println(p)
			}
			if validate {
				if _, err := loadGrid(newLogger(), ""); err != nil {
					return fmt.Errorf("pull: downloaded grid is invalid: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&validate, "validate", true, "load and validate the grid after downloading")
	return cmd
}
