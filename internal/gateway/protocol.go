package gateway

import "encoding/json"

// Frame types for the WebSocket event stream.
const (
	FrameTypeHello = "hello"
	FrameTypeEvent = "event"
)

// Protocol version spoken on /ws.
const ProtocolVersion = 1

// Frame is the envelope for every message written to a WebSocket client.
type Frame struct {
	Type    string          `json:"type"`
	Event   string          `json:"event,omitempty"`
	Seq     int64           `json:"seq,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Hello is the first frame a client receives after connecting.
type Hello struct {
	Protocol int      `json:"protocol"`
	Version  string   `json:"version"`
	ConnID   string   `json:"connId"`
	Events   []string `json:"events"`
}

// NewHello creates the greeting frame.
func NewHello(h Hello) (Frame, error) {
	raw, err := json.Marshal(h)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Type: FrameTypeHello, Payload: raw}, nil
}

// NewEvent creates an event frame.
func NewEvent(event string, payload any, seq int64) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	return Frame{
		Type:    FrameTypeEvent,
		Event:   event,
		Payload: raw,
		Seq:     seq,
	}, nil
}
