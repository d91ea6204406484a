package main

import (
	"context"
	"fmt"
	"log"

	"users-crud/cmd/api/app"
	"users-crud/cmd/api/server"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("application exited with error: %v", err)
	}
}

func run() error {
	ctx, stop := server.WithSignal(context.Background())
	defer stop()

	a, err := app.New(ctx)
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}

	return a.Run(ctx)
}
