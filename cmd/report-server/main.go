// Command report-server serves the table written by the ETL pipeline over
// HTTP: /api/health, /api/banks and /metrics.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"bankscli/internal/app"
	"bankscli/internal/config"
	"bankscli/internal/infrastructure"
	"bankscli/pkg/contracts"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (defaults to well-known locations)")
	baseDir := flag.String("base-dir", "", "directory relative paths are resolved against (defaults to cwd)")
	db := flag.String("db", "", "SQLite database path")
	table := flag.String("table", "", "database table name")
	port := flag.Int("port", 0, "listen port")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *db != "" {
		cfg.Store.Path = *db
	}
	if *table != "" {
		cfg.Store.Table = *table
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid flags: %v\n", err)
		os.Exit(1)
	}

	paths, err := config.NewPaths(*baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	paths.ResolveConfig(cfg)

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger, using default: %v\n", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	application, err := app.NewApplication(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to start report server", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		logger.Error("report server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
