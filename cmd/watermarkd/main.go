package main

import (
	"context"
	"errors"
	"image"
	"io"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	exporthttp "github.com/aliskhannn/watermarkd/internal/api/handlers/export"
	templatehttp "github.com/aliskhannn/watermarkd/internal/api/handlers/template"
	"github.com/aliskhannn/watermarkd/internal/api/router"
	"github.com/aliskhannn/watermarkd/internal/api/server"
	"github.com/aliskhannn/watermarkd/internal/config"
	"github.com/aliskhannn/watermarkd/internal/export"
	"github.com/aliskhannn/watermarkd/internal/infra/kafka/consumer"
	"github.com/aliskhannn/watermarkd/internal/infra/kafka/producer"
	exportmsg "github.com/aliskhannn/watermarkd/internal/kafka/handlers/export"
	exportsvc "github.com/aliskhannn/watermarkd/internal/service/export"
	filestorage "github.com/aliskhannn/watermarkd/internal/storage/file"
	miniostorage "github.com/aliskhannn/watermarkd/internal/storage/minio"
	"github.com/aliskhannn/watermarkd/internal/template"
	"github.com/aliskhannn/watermarkd/internal/watermark/fontres"
)

// archive matches the service's archive dependency; both storage backends
// implement it.
type archive interface {
	Save(ctx context.Context, batch, filename string, src io.Reader) (string, error)
}

func main() {
	// Context & signals: used for graceful shutdown on system interrupts.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize logger and load application configuration.
	zlog.Init()
	cfg := config.MustLoad()

	// Retry strategy for Kafka and other external calls.
	strategy := retry.Strategy{
		Attempts: cfg.Retry.Attempts,
		Delay:    cfg.Retry.Delay,
		Backoff:  cfg.Retry.Backoff,
	}

	viewport := image.Pt(cfg.Preview.Width, cfg.Preview.Height)

	// Core engine: font resolution is shared between preview and export so
	// both draw with the identical glyph sources.
	resolver := fontres.NewResolver()
	coordinator := export.New(resolver, viewport)

	// Optional archive mirror for completed batches.
	var arch archive
	if cfg.Archive.Enabled {
		switch cfg.Archive.Backend {
		case "minio":
			s, err := miniostorage.NewStorage(ctx, cfg.Archive.Endpoint, cfg.Archive.AccessKey, cfg.Archive.SecretKey, cfg.Archive.BucketName, cfg.Archive.UseSSL)
			if err != nil {
				zlog.Logger.Fatal().Err(err).Msg("failed to connect to archive storage")
			}
			arch = s
		default:
			arch = filestorage.NewStorage(cfg.Archive.BaseDir)
		}
	}

	// Template store for named settings bags.
	templates, err := template.NewStore(cfg.Templates.Path)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to open template store")
	}

	// Producer, service and handlers.
	p := producer.New(&cfg.Kafka, strategy)
	service := exportsvc.NewService(coordinator, p, resolver, arch, viewport)

	requestedHandler := exportmsg.NewRequestedHandler(service)
	exportHandler := exporthttp.NewHandler(service)
	templateHandler := templatehttp.NewHandler(templates)

	// Kafka consumer: the single sequential export worker.
	c := consumer.New(&cfg.Kafka, strategy, requestedHandler)

	var wg sync.WaitGroup
	wg.Add(1)
	go c.Consume(ctx, &wg)

	// Start HTTP server in a separate goroutine.
	r := router.Setup(exportHandler, templateHandler)
	s := server.New(cfg.Server.HTTPPort, r)
	go func() {
		if err := s.ListenAndServe(); err != nil {
			zlog.Logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Block until context is canceled (SIGINT/SIGTERM).
	<-ctx.Done()
	zlog.Logger.Info().Msg("context done")

	// Wait for the export worker to finish its current batch.
	wg.Wait()

	// Graceful shutdown with timeout for HTTP server.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	zlog.Logger.Info().Msg("shutting down server")
	if err := s.Shutdown(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to shutdown server")
	}
	if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
		zlog.Logger.Info().Msg("timeout exceeded, forcing shutdown")
	}

	// Close Kafka producer and consumer clients.
	if err := p.Client.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close kafka producer client")
	}
	if err := c.Client.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close kafka consumer client")
	}
}
