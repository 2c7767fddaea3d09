package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"passvault/internal/buildinfo"
	"passvault/internal/client/cli"
	"passvault/internal/client/config"
	"passvault/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewTextLogger(os.Stderr, slog.LevelWarn)

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}
	defer app.Close()

	app.Run(ctx)

}
