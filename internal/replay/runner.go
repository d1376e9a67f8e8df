package replay

import (
	"context"
	"fmt"

	"rugs-bot/internal/feed"
)

// Runner replays frames from a source through a ReplayEngine.
type Runner struct {
	source feed.FrameSource
}

// NewRunner creates a replay runner over a frame source.
func NewRunner(source feed.FrameSource) *Runner {
	return &Runner{source: source}
}

// NewFileRunner creates a runner over a JSONL recording.
func NewFileRunner(path string) (*Runner, error) {
	src, err := feed.NewFileSource(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	return &Runner{source: src}, nil
}

// Run feeds every frame to the engine in capture order. The first engine
// error or context cancellation stops the replay.
func (r *Runner) Run(ctx context.Context, engine ReplayEngine) (int, error) {
	defer r.source.Close()

	n := 0
	for {
		select {
		case <-ctx.Done():
			return n, ctx.Err()
		case frame, ok := <-r.source.Frames():
			if !ok {
				return n, nil
			}
			if err := engine.OnFrame(ctx, frame); err != nil {
				return n, fmt.Errorf("frame %d: %w", n, err)
			}
			n++
		}
	}
}
