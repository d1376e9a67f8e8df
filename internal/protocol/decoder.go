package protocol

import (
	"errors"
	"log"
)

// Drop reason labels, stable for metrics.
const (
	DropReasonControl   = "control"
	DropReasonMalformed = "malformed"
)

// Decoder wraps Decode with drop logging and an optional metrics hook.
type Decoder struct {
	// OnDrop, if set, is called with a stable reason label for every
	// dropped frame.
	OnDrop func(reason string)

	// Verbose logs malformed frames with detail.
	Verbose bool
}

// NewDecoder creates a Decoder.
func NewDecoder(verbose bool) *Decoder {
	return &Decoder{Verbose: verbose}
}

// Decode decodes one raw frame. A nil message with nil error means the
// frame was dropped; malformed frames are logged, never fatal.
func (d *Decoder) Decode(raw []byte) (*DomainMessage, error) {
	msg, err := Decode(raw)
	if err == nil {
		return msg, nil
	}

	switch {
	case errors.Is(err, ErrControlFrame):
		d.drop(DropReasonControl)
	case errors.Is(err, ErrMalformedFrame):
		d.drop(DropReasonMalformed)
		if d.Verbose {
			log.Printf("[protocol] dropped malformed frame: %v", err)
		}
	default:
		d.drop(DropReasonMalformed)
		log.Printf("[protocol] dropped frame: %v", err)
	}

	return nil, nil
}

func (d *Decoder) drop(reason string) {
	if d.OnDrop != nil {
		d.OnDrop(reason)
	}
}
