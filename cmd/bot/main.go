// Package main runs the live bot: connects to the game feed, runs the
// trading pipeline, and persists fills, rounds, ticks, and candles.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"rugs-bot/internal/config"
	"rugs-bot/internal/feed"
	"rugs-bot/internal/observability"
	"rugs-bot/internal/session"
	"rugs-bot/internal/storage"
	chstore "rugs-bot/internal/storage/clickhouse"
	"rugs-bot/internal/storage/memory"
	"rugs-bot/internal/storage/migrations"
	pgstore "rugs-bot/internal/storage/postgres"
)

// sessionStores holds all storage implementations a session needs.
type sessionStores struct {
	fills    storage.FillStore
	rounds   storage.RoundStore
	sessions storage.SessionStore
	ticks    storage.TickStore
	candles  storage.CandleStore
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	configPath := flag.String("config", os.Getenv("BOT_CONFIG"), "Path to session YAML config")
	wsURL := flag.String("ws-url", os.Getenv("GAME_WS_URL"), "Game feed WebSocket URL (overrides config)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string (overrides config)")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (overrides config)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	record := flag.String("record", "", "Record raw frames to a JSONL file")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags)

	if *configPath == "" {
		logger.Fatal("--config is required")
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if *verbose {
		cfg.Verbose = true
	}

	// Flags win over config file values.
	feedURL := cfg.Feed.URL
	if *wsURL != "" {
		feedURL = *wsURL
	}
	if feedURL == "" {
		logger.Fatal("--ws-url or feed.url in config is required")
	}
	pgDSN := cfg.Storage.PostgresDSN
	if *postgresDSN != "" {
		pgDSN = *postgresDSN
	}
	chDSN := cfg.Storage.ClickHouseDSN
	if *clickhouseDSN != "" {
		chDSN = *clickhouseDSN
	}
	if !*useMemory && (pgDSN == "" || chDSN == "") {
		logger.Fatal("postgres and clickhouse DSNs are required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()
		sig = <-sigCh
		logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
		os.Exit(1)
	}()

	// Serve metrics
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
			logger.Printf("metrics server: %v", err)
		}
	}()

	stores, cleanup, err := createStores(ctx, pgDSN, chDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	source, err := buildSource(ctx, feedURL, firstNonEmpty(*record, cfg.Feed.RecordingPath))
	if err != nil {
		logger.Fatalf("Failed to open feed: %v", err)
	}
	defer source.Close()

	sess, err := session.New(session.Options{
		Source:       source,
		Strategies:   cfg.Strategies,
		Risk:         cfg.Risk,
		FillStore:    stores.fills,
		RoundStore:   stores.rounds,
		SessionStore: stores.sessions,
		TickStore:    stores.ticks,
		CandleStore:  stores.candles,
		CapitalSOL:   cfg.Capital,
		Verbose:      cfg.Verbose,
	})
	if err != nil {
		logger.Fatalf("Failed to create session: %v", err)
	}

	result, err := sess.Run(ctx)
	if err != nil {
		logger.Fatalf("Session error: %v", err)
	}

	fmt.Printf("Session %s finished:\n", result.SessionID)
	fmt.Printf("  Rounds: %d\n", result.Rounds)
	fmt.Printf("  Fills: %d\n", result.Fills)
	fmt.Printf("  House position: %.6f SOL\n", result.HousePosition)
}

// buildSource connects the websocket source, optionally teeing frames
// into a JSONL recording.
func buildSource(ctx context.Context, wsURL, recordPath string) (feed.FrameSource, error) {
	ws, err := feed.NewWSSource(ctx, wsURL, nil)
	if err != nil {
		return nil, err
	}
	if recordPath == "" {
		return ws, nil
	}

	rec, err := feed.NewRecorder(recordPath)
	if err != nil {
		ws.Close()
		return nil, err
	}
	return feed.NewTee(ws, rec), nil
}

// createStores creates all required stores and runs migrations.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*sessionStores, func(), error) {
	if useMemory {
		stores := &sessionStores{
			fills:    memory.NewFillStore(),
			rounds:   memory.NewRoundStore(),
			sessions: memory.NewSessionStore(),
			ticks:    memory.NewTickStore(),
			candles:  memory.NewCandleStore(),
		}
		return stores, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	stores := &sessionStores{
		fills:    pgstore.NewFillStore(pool),
		rounds:   pgstore.NewRoundStore(pool),
		sessions: pgstore.NewSessionStore(pool),
		ticks:    chstore.NewTickStore(chConn),
		candles:  chstore.NewCandleStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return stores, cleanup, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"`)
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
