package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"users-crud/internal/client"
	"users-crud/internal/config"
	"users-crud/internal/console"
	"users-crud/internal/viewmodel"
	"users-crud/pkg/logger"
)

// consoleLogFile receives client logs when LOG_OUTPUT_PATH points at the
// terminal the console is drawing on.
const consoleLogFile = "users-console.log"

func main() {
	if err := run(); err != nil {
		log.Fatalf("console exited with error: %v", err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "."
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	output := cfg.Logger.OutputPath
	if output == "" || output == "stdout" || output == "stderr" {
		output = consoleLogFile
	}
	l, err := logger.NewWithConfig(logger.Config{
		Level:          cfg.Logger.Level,
		Format:         cfg.Logger.Format,
		OutputPath:     output,
		ServiceName:    cfg.Logger.ServiceName + "-console",
		ServiceVersion: cfg.Logger.ServiceVersion,
		Environment:    cfg.App.Env,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	api := client.New(cfg.Client.BaseURL, time.Duration(cfg.Client.TimeoutSeconds)*time.Second, l)
	l.Info("console started", zap.String("api", cfg.Client.BaseURL))

	err = console.New(viewmodel.New(api, l), os.Stdin, os.Stdout, l).Run(ctx)
	if errors.Is(err, context.Canceled) {
		l.Info("console interrupted")
		return nil
	}
	return err
}
