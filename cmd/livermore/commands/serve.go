package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/livermore/internal/api"
	"github.com/wonny/livermore/internal/api/handlers"
	"github.com/wonny/livermore/internal/snapshot"
	"github.com/wonny/livermore/pkg/config"
	"github.com/wonny/livermore/pkg/logger"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "快照唯讀 API 伺服器",
	Long: `Serves published snapshots over HTTP.

Endpoints:
  GET /health
  GET /api/snapshot                  - current snapshot
  GET /api/snapshot/{date}           - history copy
  GET /api/snapshot/stocks/{ticker}  - one stock of the current snapshot
  GET /api/history                   - dates with a history copy

Example:
  go run ./cmd/livermore serve
  go run ./cmd/livermore serve --port 8080`,
	RunE: runServe,
}

var servePort string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "listen port (default $PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadBase()
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.Port = servePort
	}

	server, errCh := startAPI(cfg, log)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	return stopAPI(server, log)
}

// startAPI serves the snapshot store of cfg in the background
func startAPI(cfg *config.Config, log *logger.Logger, opts ...api.RouterOption) (*api.Server, <-chan error) {
	store := snapshot.NewStore(cfg.Scan.OutputDir, log)
	router := api.NewRouter(handlers.NewSnapshotHandler(store, log), log, opts...)
	server := api.New(cfg, log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	return server, errCh
}

func stopAPI(server *api.Server, log *logger.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
