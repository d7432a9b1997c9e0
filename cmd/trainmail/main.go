package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avirtanen/trainmail/internal/app/config"
	"github.com/avirtanen/trainmail/internal/app/ingest"
	"github.com/avirtanen/trainmail/internal/app/mailbox"
	"github.com/avirtanen/trainmail/internal/app/pdftext"
	"github.com/avirtanen/trainmail/internal/app/server"
	"github.com/avirtanen/trainmail/internal/pkg/logger"
)

var (
	configFilepath = flag.String("config", "./config.yaml", "Filepath to configuration file. Default is './config.yaml'")
	envFilepath    = flag.String("env-file", "./.env", "Filepath to environment variables file. Default is './.env'")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(*configFilepath, *envFilepath)
	if err != nil {
		log.Fatalf("failed to load configuration: %s", err)
	}

	appLogger := logger.New(slog.Level(cfg.LogLevel))

	connector := mailbox.NewConnector(
		cfg.Mailbox,
		mailbox.DialerFunc(mailbox.DialTLS),
		appLogger.With(slog.String("module", "mailbox")),
	)
	service := ingest.NewService(
		connector,
		pdftext.NewExtractor(cfg.PDFParseTimeout.Std()),
		cfg.Mailbox.Folder,
		appLogger.With(slog.String("module", "ingest")),
	)
	api := server.New(service, appLogger.With(slog.String("module", "server")))

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      api.Router(cfg.RequestTimeout.Std()),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout.Std() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info(fmt.Sprintf("listening on %s", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		appLogger.Info("shutting down")
	case err := <-errCh:
		appLogger.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("server shutdown failed", slog.Any("error", err))
	}
}
