package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/vodarr/vodarr/internal/catalog"
	"github.com/vodarr/vodarr/internal/config"
	"github.com/vodarr/vodarr/internal/cover"
	"github.com/vodarr/vodarr/internal/database"
	"github.com/vodarr/vodarr/internal/ffmpeg"
	internalhttp "github.com/vodarr/vodarr/internal/http"
	"github.com/vodarr/vodarr/internal/objectstore"
	"github.com/vodarr/vodarr/internal/observability"
	"github.com/vodarr/vodarr/internal/service/progress"
	"github.com/vodarr/vodarr/internal/storage"
	"github.com/vodarr/vodarr/internal/transcode"
	"github.com/vodarr/vodarr/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the vodarr server",
	Long: `Start the vodarr ingestion service.

The server provides:
- Health check endpoint at /healthz
- Task progress polling at /api/v1/tasks/{id}
- The ingestion coordinator consumed by the API gateway`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("temp-dir", "", "Directory for ingestion working files")

	mustBindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	mustBindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	mustBindPFlag("storage.temp_dir", serveCmd.Flags().Lookup("temp-dir"))
}

// mustBindPFlag binds a viper key to a cobra flag and panics if binding fails.
func mustBindPFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("failed to bind flag %q to key %q: %v", flag.Name, key, err))
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := observability.NewLoggerWithWriter(cfg.Logging, os.Stderr)
	observability.SetDefault(logger)

	// Leftover working directories from a previous run are safe to remove:
	// no ingestion is in flight yet and uploads are idempotent on retry.
	workspace, err := storage.NewWorkspace(cfg.Storage.TempDir)
	if err != nil {
		return fmt.Errorf("initializing workspace: %w", err)
	}
	if removed, err := workspace.CleanupOrphans(logger, 0); err != nil {
		logger.Warn("failed to clean orphaned temp directories", slog.String("error", err.Error()))
	} else if removed > 0 {
		logger.Info("cleaned orphaned temp directories on startup", slog.Int("removed_count", removed))
	}

	db, err := database.New(cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := objectstore.New(ctx, cfg.ObjectStore, logger)
	if err != nil {
		return fmt.Errorf("initializing object store: %w", err)
	}

	prober := ffmpeg.NewProber(cfg.FFmpeg.ProbePath).WithTimeout(cfg.FFmpeg.ProbeTimeout)
	encoder := ffmpeg.NewEncoder(cfg.FFmpeg.BinaryPath)

	orchestrator := transcode.NewOrchestrator(
		prober, encoder, store, workspace, cfg.Storage, cfg.Transcode, logger)
	covers := cover.NewProcessor(store, workspace, cfg.Storage, cfg.Transcode, logger)

	coordinator := catalog.NewService(db, orchestrator, covers, store, cfg.Storage, logger)

	registry := progress.NewRegistry(cfg.Tasks.Retention, logger)
	defer registry.Stop()

	server := internalhttp.NewServer(cfg.Server, coordinator, registry, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
		cancel()
	}()

	logger.Info("starting vodarr server",
		slog.String("host", cfg.Server.Host),
		slog.Int("port", cfg.Server.Port),
		slog.String("version", version.Version),
	)

	return server.ListenAndServe(ctx)
}
