package feed

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WSConfig configures websocket source behavior.
type WSConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// MaxReconnectAttempts bounds consecutive failed reconnects before
	// the source gives up and closes its frames channel. Zero means
	// retry forever.
	MaxReconnectAttempts int
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultWSConfig returns default websocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      25 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// WSSource implements FrameSource over gorilla/websocket, with
// exponential-backoff reconnection.
type WSSource struct {
	endpoint string
	config   WSConfig

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	frames chan []byte
	done   chan struct{}
	wg     sync.WaitGroup
}

// Compile-time interface check.
var _ FrameSource = (*WSSource)(nil)

// NewWSSource connects to the endpoint and starts reading frames.
func NewWSSource(ctx context.Context, endpoint string, config *WSConfig) (*WSSource, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}

	s := &WSSource{
		endpoint: endpoint,
		config:   cfg,
		// Blocking send ensures no frame loss; buffer absorbs bursts.
		frames: make(chan []byte, 4096),
		done:   make(chan struct{}),
	}

	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go s.readLoop()

	s.wg.Add(1)
	go s.pingLoop()

	return s, nil
}

// Frames returns the raw frame channel. It closes exactly once: on
// Close, or when reconnect attempts are exhausted.
func (s *WSSource) Frames() <-chan []byte { return s.frames }

// connect establishes the websocket connection.
func (s *WSSource) connect(ctx context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	s.conn = conn
	return nil
}

// Close closes the connection and the frames channel.
func (s *WSSource) Close() error {
	if s.closed.Swap(true) {
		return nil // Already closed
	}

	close(s.done)

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
	close(s.frames)
	return nil
}

// readLoop reads frames and pushes them downstream, reconnecting with
// exponential backoff on connection errors.
func (s *WSSource) readLoop() {
	defer s.wg.Done()

	delay := s.config.ReconnectDelay
	attempts := 0

	for !s.closed.Load() {
		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		if conn == nil {
			if !s.reconnect(delay) {
				attempts++
				if s.config.MaxReconnectAttempts > 0 && attempts >= s.config.MaxReconnectAttempts {
					log.Printf("[feed] giving up after %d reconnect attempts", attempts)
					s.terminate()
					return
				}
				delay *= 2
				if delay > s.config.MaxReconnectDelay {
					delay = s.config.MaxReconnectDelay
				}
			}
			continue
		}

		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() {
				return
			}
			log.Printf("[feed] read error: %v", err)
			s.dropConn()
			continue
		}

		// Reset backoff on successful read
		delay = s.config.ReconnectDelay
		attempts = 0

		select {
		case s.frames <- message:
		case <-s.done:
			return
		}
	}
}

// reconnect waits for the backoff delay and redials. Returns false when
// the dial failed.
func (s *WSSource) reconnect(delay time.Duration) bool {
	select {
	case <-s.done:
		return true
	case <-time.After(delay):
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.connect(ctx); err != nil {
		log.Printf("[feed] reconnect failed: %v", err)
		return false
	}

	log.Printf("[feed] reconnected to %s", s.endpoint)
	return true
}

func (s *WSSource) dropConn() {
	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()
}

// terminate signals permanent transport loss: one terminal closed signal
// to all observers.
func (s *WSSource) terminate() {
	if s.closed.Swap(true) {
		return
	}
	close(s.done)
	close(s.frames)
}

// pingLoop sends periodic ping frames to keep the connection alive.
func (s *WSSource) pingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.connMu.Lock()
			if s.conn != nil {
				s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
				if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					// Connection might be dead; reader handles reconnect.
				}
			}
			s.connMu.Unlock()
		}
	}
}
