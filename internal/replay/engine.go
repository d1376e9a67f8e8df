// Package replay feeds recorded frames through an engine in the exact
// order they were captured, so a session can be reproduced offline.
package replay

import "context"

// ReplayEngine processes frames in deterministic order.
type ReplayEngine interface {
	// OnFrame is called for each recorded frame in capture order.
	OnFrame(ctx context.Context, frame []byte) error
}

// EngineFunc adapts a function to the ReplayEngine interface.
type EngineFunc func(ctx context.Context, frame []byte) error

// OnFrame calls f.
func (f EngineFunc) OnFrame(ctx context.Context, frame []byte) error {
	return f(ctx, frame)
}
