package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pensign/pensign/internal/config"
	"github.com/pensign/pensign/internal/mail"
	"github.com/pensign/pensign/internal/pdf"
	"github.com/pensign/pensign/internal/server"
	"github.com/pensign/pensign/internal/signing"
	"github.com/pensign/pensign/internal/store"
)

var (
	version   = "dev"     // set by build flags
	buildTime = "unknown" // set by build flags
)

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			fmt.Printf("pensign %s (built %s)\n", version, buildTime)
			return
		}
	}

	// Local development settings; missing file is fine.
	_ = godotenv.Load()

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if version != "dev" {
		cfg.Version = version
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	var notifier signing.Notifier
	if cfg.MailEnabled() {
		n, err := mail.NewNotifier(mail.Config{
			Host:       cfg.SMTPHost,
			Port:       cfg.SMTPPort,
			Username:   cfg.SMTPUsername,
			Password:   cfg.SMTPPassword,
			From:       cfg.MailFrom,
			Recipients: cfg.NotifyRecipients,
		})
		if err != nil {
			return err
		}
		notifier = n
	} else {
		logger.Info("outbound mail disabled (no SMTP host configured)")
	}

	svc := signing.NewService(
		store.NewSessionStore(db),
		pdf.NewStamper(),
		notifier,
		logger,
		cfg.MaxUploadSize,
	)

	srv := server.New(cfg.Address(), svc, logger, cfg.MaxUploadSize)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("listening",
		zap.String("address", cfg.Address()),
		zap.String("database", cfg.DatabasePath),
		zap.String("version", cfg.Version))

	return srv.Run(ctx)
}
