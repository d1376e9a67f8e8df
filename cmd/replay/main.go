// Package main replays a recorded frame log through the full pipeline
// with in-memory storage and prints the resulting session report.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"rugs-bot/internal/config"
	"rugs-bot/internal/replay"
	"rugs-bot/internal/reporting"
	"rugs-bot/internal/session"
	"rugs-bot/internal/storage/memory"
)

// pipeSource bridges the replay runner to the session's frame channel.
type pipeSource struct {
	ch chan []byte
}

func (p *pipeSource) Frames() <-chan []byte { return p.ch }
func (p *pipeSource) Close() error          { return nil }

func (p *pipeSource) push(ctx context.Context, frame []byte) error {
	select {
	case p.ch <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func main() {
	configPath := flag.String("config", os.Getenv("BOT_CONFIG"), "Path to session YAML config")
	recording := flag.String("recording", "", "Path to JSONL frame recording")
	outputDir := flag.String("output-dir", "", "Write report files instead of printing")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	logger := log.New(os.Stdout, "[replay] ", log.LstdFlags)

	if *configPath == "" {
		logger.Fatal("--config is required")
	}
	if *recording == "" {
		logger.Fatal("--recording is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if *verbose {
		cfg.Verbose = true
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, cancelling replay...", sig)
		cancel()
	}()

	runner, err := replay.NewFileRunner(*recording)
	if err != nil {
		logger.Fatalf("Failed to open recording: %v", err)
	}

	source := &pipeSource{ch: make(chan []byte)}
	go func() {
		defer close(source.ch)
		n, err := runner.Run(ctx, replay.EngineFunc(source.push))
		if err != nil && ctx.Err() == nil {
			logger.Printf("Replay stopped after %d frames: %v", n, err)
			return
		}
		logger.Printf("Replayed %d frames", n)
	}()

	fills := memory.NewFillStore()
	rounds := memory.NewRoundStore()
	sessions := memory.NewSessionStore()

	sess, err := session.New(session.Options{
		Source:       source,
		Strategies:   cfg.Strategies,
		Risk:         cfg.Risk,
		FillStore:    fills,
		RoundStore:   rounds,
		SessionStore: sessions,
		TickStore:    memory.NewTickStore(),
		CandleStore:  memory.NewCandleStore(),
		CapitalSOL:   cfg.Capital,
		Verbose:      cfg.Verbose,
	})
	if err != nil {
		logger.Fatalf("Failed to create session: %v", err)
	}

	result, err := sess.Run(ctx)
	if err != nil {
		logger.Fatalf("Replay error: %v", err)
	}

	report, err := reporting.NewGenerator(sessions, rounds, fills).
		WithClock(func() time.Time { return time.Now().UTC() }).
		Generate(ctx, result.SessionID)
	if err != nil {
		logger.Fatalf("Report generation failed: %v", err)
	}

	markdown := reporting.RenderMarkdown(report)
	csv := reporting.RenderCSV(report.Strategies)

	if *outputDir == "" {
		fmt.Print(markdown)
		return
	}

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		logger.Fatalf("Failed to create output dir: %v", err)
	}
	mdPath := filepath.Join(*outputDir, fmt.Sprintf("REPLAY_%s.md", result.SessionID))
	csvPath := filepath.Join(*outputDir, fmt.Sprintf("REPLAY_%s.csv", result.SessionID))
	if err := os.WriteFile(mdPath, []byte(markdown), 0o644); err != nil {
		logger.Fatalf("Failed to write %s: %v", mdPath, err)
	}
	if err := os.WriteFile(csvPath, []byte(csv), 0o644); err != nil {
		logger.Fatalf("Failed to write %s: %v", csvPath, err)
	}
	logger.Printf("Wrote %s and %s", mdPath, csvPath)
}
