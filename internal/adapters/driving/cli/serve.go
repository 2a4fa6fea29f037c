package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/insight-labs/harvester/internal/adapters/driving/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search HTTP API",
	Long: `Starts the HTTP API with /search, /health and /stats endpoints.
Runs until interrupted.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, else :8000)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	query, err := newQueryService()
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.GetString("server.addr")
	}

	server := api.NewServer(query, api.ServerConfig{
		Addr:      addr,
		RateLimit: cfg.GetInt("server.rate_limit"),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.ListenAndServe(ctx)
}
