// Package main generates a session report from stored data.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"rugs-bot/internal/reporting"
	"rugs-bot/internal/storage/migrations"
	pgstore "rugs-bot/internal/storage/postgres"
)

func main() {
	sessionID := flag.String("session", "", "Session identifier to report on")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	outputDir := flag.String("output-dir", "output", "Output directory for report files")
	format := flag.String("format", "markdown", "Output format: markdown, csv, or both")
	flag.Parse()

	logger := log.New(os.Stdout, "[report] ", log.LstdFlags)

	if *sessionID == "" {
		logger.Fatal("--session is required")
	}
	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}
	if *format != "markdown" && *format != "csv" && *format != "both" {
		logger.Fatalf("unknown format %q", *format)
	}

	ctx := context.Background()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatalf("Migrations failed: %v", err)
	}

	generator := reporting.NewGenerator(
		pgstore.NewSessionStore(pool),
		pgstore.NewRoundStore(pool),
		pgstore.NewFillStore(pool),
	)

	report, err := generator.Generate(ctx, *sessionID)
	if err != nil {
		logger.Fatalf("Report generation failed: %v", err)
	}

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		logger.Fatalf("Failed to create output dir: %v", err)
	}

	if *format == "markdown" || *format == "both" {
		path := filepath.Join(*outputDir, fmt.Sprintf("REPORT_%s.md", *sessionID))
		if err := os.WriteFile(path, []byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
			logger.Fatalf("Failed to write %s: %v", path, err)
		}
		logger.Printf("Wrote %s", path)
	}
	if *format == "csv" || *format == "both" {
		path := filepath.Join(*outputDir, fmt.Sprintf("REPORT_%s.csv", *sessionID))
		if err := os.WriteFile(path, []byte(reporting.RenderCSV(report.Strategies)), 0o644); err != nil {
			logger.Fatalf("Failed to write %s: %v", path, err)
		}
		logger.Printf("Wrote %s", path)
	}
}
