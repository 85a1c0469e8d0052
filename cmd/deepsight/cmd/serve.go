package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/deepsight/internal/batch"
	"github.com/MeKo-Tech/deepsight/internal/progress"
	"github.com/MeKo-Tech/deepsight/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Starts the HTTP server exposing batch management, single-image
processing, health, and metrics endpoints. The server shuts down gracefully
on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if port, err := cmd.Flags().GetInt("port"); err == nil && port > 0 {
		cfg.Server.Port = port
	}

	orch, ext, client := buildPipeline(cfg)
	defer func() { _ = ext.Close() }()

	registry := batch.NewRegistry(cfg.Batch.MaxHistory)
	coord := batch.NewCoordinator(registry, progress.NewStore(), orch, cfg.Batch)

	srv := server.New(coord, orch, client, cfg.Server, cfg.Batch.SaveToStorage)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx)
}
