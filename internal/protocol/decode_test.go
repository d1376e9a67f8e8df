package protocol

import (
	"errors"
	"testing"
)

func TestDecode_GameStateUpdate(t *testing.T) {
	raw := []byte(`42["gameStateUpdate",{"gameId":"g-1","price":1.5,"tickCount":7}]`)

	msg, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if msg.Type != "gameStateUpdate" {
		t.Errorf("expected gameStateUpdate, got %s", msg.Type)
	}
	if string(msg.Data) != `{"gameId":"g-1","price":1.5,"tickCount":7}` {
		t.Errorf("unexpected data payload: %s", msg.Data)
	}
}

func TestDecode_ControlFrames(t *testing.T) {
	for _, raw := range []string{"2", "3", "40", "0", "6"} {
		_, err := Decode([]byte(raw))
		if !errors.Is(err, ErrControlFrame) {
			t.Errorf("frame %q: expected ErrControlFrame, got %v", raw, err)
		}
	}
}

func TestDecode_Malformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"truncated json", `42["gameStateUpdate",{"gameId":`},
		{"not an array", `42{"gameId":"g-1"}`},
		{"one element", `42["gameStateUpdate"]`},
		{"three elements", `42["a",{},{}]`},
		{"numeric event name", `42[17,{}]`},
		{"empty event name", `42["",{}]`},
		{"garbage", `42hello world`},
	}

	for _, tc := range cases {
		_, err := Decode([]byte(tc.raw))
		if !errors.Is(err, ErrMalformedFrame) {
			t.Errorf("%s: expected ErrMalformedFrame, got %v", tc.name, err)
		}
	}
}

// A malformed frame must not disturb decoding of the frames around it.
func TestDecoder_MalformedFrameIsIsolated(t *testing.T) {
	var drops []string
	d := NewDecoder(false)
	d.OnDrop = func(reason string) { drops = append(drops, reason) }

	frames := [][]byte{
		[]byte(`42["gameStateUpdate",{"gameId":"g-1","tickCount":1,"price":1.01}]`),
		[]byte(`42["gameStateUpdate",{"gameId":`), // truncated
		[]byte(`2`),
		[]byte(`42["gameStateUpdate",{"gameId":"g-1","tickCount":2,"price":1.02}]`),
	}

	var decoded []*DomainMessage
	for _, f := range frames {
		msg, err := d.Decode(f)
		if err != nil {
			t.Fatalf("Decode returned error: %v", err)
		}
		if msg != nil {
			decoded = append(decoded, msg)
		}
	}

	if len(decoded) != 2 {
		t.Fatalf("expected 2 decoded messages, got %d", len(decoded))
	}
	if len(drops) != 2 {
		t.Fatalf("expected 2 drops, got %d (%v)", len(drops), drops)
	}
	if drops[0] != DropReasonMalformed || drops[1] != DropReasonControl {
		t.Errorf("unexpected drop reasons: %v", drops)
	}
}
