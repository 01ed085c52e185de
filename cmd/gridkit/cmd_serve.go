package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/gridkit/internal/api"
	"github.com/ajitpratap0/gridkit/internal/grid"
)

const serveShutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the read-only HTTP/JSON API over the grid",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			if listenAddr != "" {
				cfg.API.ListenAddr = listenAddr
			}

			ct, err := loadGrid(logger, "")
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			m, err := loadMapping(false)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			warmViews(logger, ct)

			if cfg.API.AuthToken == "" {
				logger.Warn("HTTP API: auth is DISABLED; set GRIDKIT_API_AUTH_TOKEN or api.auth_token to require a bearer token")
			}
			httpSrv := newHTTPServer(cfg.API.ListenAddr, api.NewServer(ct, m, logger, cfg.API.AuthToken).Handler())

			errCh := make(chan error, 1)
			go func() {
				defer close(errCh)
				logger.Info("HTTP API server starting", "addr", httpSrv.Addr, "dir", cfg.Grid.Dir, "mapping_entries", m.Len())
				if listenErr := httpSrv.ListenAndServe(); listenErr != nil && !errors.Is(listenErr, http.ErrServerClosed) {
					errCh <- fmt.Errorf("serve: HTTP server: %w", listenErr)
				}
			}()

			select {
			case startErr := <-errCh:
				return startErr
			case <-cmd.Context().Done():
				logger.Info("shutting down", "timeout", serveShutdownTimeout)
			}

			if shutdownErr := api.Shutdown(httpSrv, serveShutdownTimeout); shutdownErr != nil {
				return fmt.Errorf("serve: graceful shutdown: %w", shutdownErr)
			}
			return <-errCh
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", "", "listen address (overrides api.listen_addr)")
	return cmd
}

// warmViews computes the container's cached topology views up front so the
// first API request does not pay for them.
func warmViews(logger *slog.Logger, ct *grid.Container) {
	np := ct.NodeParticipants()
	dl := ct.DisconnectedLines()
	logger.Info("grid ready",
		"entities", ct.Len(),
		"nodes_with_participants", len(np),
		"opened_switches", ct.OpenedSwitches().Len(),
		"disconnected_lines", dl.Len(),
	)
}

func newHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
