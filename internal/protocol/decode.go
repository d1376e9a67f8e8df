// Package protocol strips transport framing from raw frames and decodes
// the remaining payload into domain messages. This is the only package
// with wire-format knowledge; everything downstream sees DomainMessage.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Decode errors.
var (
	// ErrControlFrame marks heartbeat-like transport control packets
	// (bare digit sequences). They are dropped silently.
	ErrControlFrame = errors.New("control frame")

	// ErrMalformedFrame marks payloads that do not decode to a
	// two-element [eventName, eventData] array.
	ErrMalformedFrame = errors.New("malformed frame")
)

// DomainMessage is a decoded (eventName, eventData) pair.
type DomainMessage struct {
	Type string
	Data json.RawMessage
}

// Decode strips the numeric multiplexing prefix from a raw frame and
// parses the remainder as a two-element JSON array [eventName, eventData].
// Frames that are only a digit sequence decode to ErrControlFrame.
// Decode never panics, whatever the input.
func Decode(raw []byte) (*DomainMessage, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty frame", ErrMalformedFrame)
	}

	// Strip leading digit prefix (engine.io packet type + socket namespace ids).
	i := 0
	for i < len(raw) && raw[i] >= '0' && raw[i] <= '9' {
		i++
	}

	if i == len(raw) {
		return nil, ErrControlFrame
	}

	payload := raw[i:]

	var parts []json.RawMessage
	if err := json.Unmarshal(payload, &parts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: expected 2 elements, got %d", ErrMalformedFrame, len(parts))
	}

	var name string
	if err := json.Unmarshal(parts[0], &name); err != nil {
		return nil, fmt.Errorf("%w: event name is not a string: %v", ErrMalformedFrame, err)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: empty event name", ErrMalformedFrame)
	}

	return &DomainMessage{Type: name, Data: parts[1]}, nil
}
