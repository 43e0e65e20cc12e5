package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	haven "github.com/havenforum/haven"
	"github.com/joho/godotenv"
)

func main() {
	ctx := context.Background()

	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.WarnContext(ctx, "failed to load .env file", "error", err)
	}

	slog.SetLogLoggerLevel(haven.GetLogLevelFromEnv())

	app, err := haven.NewApp(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create app", "error", err)
		os.Exit(1)
	}

	err = app.Run(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to run app", "error", err)
		os.Exit(1)
	}
}
