package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ca-srg/minisearch/internal/webui"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the search web server",
	Long: `
The serve command starts the HTTP server that provides:
- The search page (HTMX front end) at /
- POST /api/search returning {resultText, multipleResults, resultURL}
- GET /health for liveness checks
- GET /metrics for Prometheus scraping

Every search runs the configured engine executable once with the query as its
only argument. Configuration is read from the environment (and .env).

Example:
  minisearch serve                      # Listen on 0.0.0.0:3000
  minisearch serve --port 8080          # Use custom port
  SEARCH_ENGINE_PATH=/opt/search_engine minisearch serve
`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind the web server (overrides HOST)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to bind the web server (overrides PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := newApp(ctx, os.Stderr)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.close(context.Background()); err != nil {
			a.logger.Warn().Err(err).Msg("shutdown finished with errors")
		}
	}()

	serverConfig := webui.ServerConfigFromApp(a.cfg)
	if serveHost != "" {
		serverConfig.Host = serveHost
	}
	if servePort != 0 {
		serverConfig.Port = servePort
	}

	server, err := webui.NewServer(serverConfig, a.dispatcher, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create web server: %w", err)
	}

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			a.logger.Info().Str("signal", sig.String()).Msg("Received signal, shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	return server.Run(ctx)
}
