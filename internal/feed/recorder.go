package feed

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// frameLine is one recorded frame: JSONL with the raw frame base64d so
// arbitrary payload bytes survive the trip.
type frameLine struct {
	TimestampMs int64  `json:"ts"`
	Frame       string `json:"frame"`
}

// Recorder appends raw frames to a JSONL file for later replay.
type Recorder struct {
	mu   sync.Mutex
	file *os.File
	w    *bufio.Writer
}

// NewRecorder opens (or creates) the recording file for append.
func NewRecorder(path string) (*Recorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open recording %s: %w", path, err)
	}
	return &Recorder{file: f, w: bufio.NewWriter(f)}, nil
}

// Record appends one frame.
func (r *Recorder) Record(frame []byte) error {
	line, err := json.Marshal(frameLine{
		TimestampMs: time.Now().UnixMilli(),
		Frame:       base64.StdEncoding.EncodeToString(frame),
	})
	if err != nil {
		return fmt.Errorf("marshal frame line: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.w.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write frame line: %w", err)
	}
	return nil
}

// Close flushes and closes the recording file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.w.Flush(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}

// Tee wraps a FrameSource and records every frame passing through.
type Tee struct {
	src  FrameSource
	rec  *Recorder
	out  chan []byte
	done chan struct{}

	once sync.Once
}

// NewTee starts forwarding frames from src, recording each one.
// Recording failures are non-fatal to the pipeline.
func NewTee(src FrameSource, rec *Recorder) *Tee {
	t := &Tee{src: src, rec: rec, out: make(chan []byte), done: make(chan struct{})}
	go func() {
		defer close(t.out)
		for {
			select {
			case <-t.done:
				return
			case frame, ok := <-src.Frames():
				if !ok {
					return
				}
				_ = rec.Record(frame)
				select {
				case t.out <- frame:
				case <-t.done:
					return
				}
			}
		}
	}()
	return t
}

// Frames returns the forwarded frame channel.
func (t *Tee) Frames() <-chan []byte { return t.out }

// Close closes the underlying source and the recorder and releases the
// forwarding goroutine even if nothing is reading Frames.
func (t *Tee) Close() error {
	var err error
	t.once.Do(func() {
		close(t.done)
		err = t.src.Close()
		if cerr := t.rec.Close(); err == nil {
			err = cerr
		}
	})
	return err
}

// FileSource replays a JSONL recording as a FrameSource. Frames are
// delivered as fast as the consumer reads them.
type FileSource struct {
	frames chan []byte
	done   chan struct{}
	once   sync.Once
}

// Compile-time interface check.
var _ FrameSource = (*FileSource)(nil)

// NewFileSource opens a recording and starts streaming its frames.
func NewFileSource(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording %s: %w", path, err)
	}

	s := &FileSource{
		frames: make(chan []byte),
		done:   make(chan struct{}),
	}

	go func() {
		defer f.Close()
		defer close(s.frames)

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			var line frameLine
			if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
				continue // skip corrupt lines
			}
			frame, err := base64.StdEncoding.DecodeString(line.Frame)
			if err != nil {
				continue
			}
			select {
			case s.frames <- frame:
			case <-s.done:
				return
			}
		}
	}()

	return s, nil
}

// Frames returns the replayed frame channel; it closes at end of file.
func (s *FileSource) Frames() <-chan []byte { return s.frames }

// Close stops the replay.
func (s *FileSource) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}
