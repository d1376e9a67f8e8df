// Package feed supplies raw frames to the pipeline. The websocket source
// owns transport-level concerns (reconnect, keepalive); the pipeline core
// never reconnects itself and observes transport loss as a single closed
// frames channel.
package feed

// FrameSource delivers raw frames in arrival order. The channel closes
// exactly once, when the source is shut down or permanently lost.
type FrameSource interface {
	Frames() <-chan []byte
	Close() error
}
