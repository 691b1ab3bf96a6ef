package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"tabstat/internal/app"
	"tabstat/internal/config"
)

func main() {
	input := flag.String("in", config.ListingsInputFile, "listings file (.csv, .csv.gz, .tsv or .xlsx)")
	outputDir := flag.String("out", "", "output directory for charts (defaults to the configured output.dir)")
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := app.Run(ctx, app.ListingsJob(), app.Options{
		Input:      *input,
		OutputDir:  *outputDir,
		ConfigPath: *configPath,
	}, os.Stdout)
	if err != nil {
		slog.Error("Listings report failed", "error", err)
		stop()
		os.Exit(1)
	}
}
