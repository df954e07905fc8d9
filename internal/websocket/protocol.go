package websocket

import (
	"context"
	"encoding/json"
)

// Frame types exchanged with website clients.
const (
	TypeRegister    = "register"
	TypeRegistered  = "registered"
	TypeChatMessage = "chatMessage"
	TypePing        = "ping"
	TypePong        = "pong"
	TypeError       = "error"
)

// Frame is the envelope of every client/server message.
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type RegisterPayload struct {
	UserID string `json:"userId"`
}

// ChatPayload is a connection-originated chat message. ReceiverID is
// either a registered logical user id or a platform address carrying
// the platform prefix.
type ChatPayload struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
	Timestamp  int64  `json:"timestamp,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// Router decides whether a chat payload goes to a live connection or
// out to the messaging platform.
type Router interface {
	Route(ctx context.Context, p ChatPayload)
}

// Envelope serializes a typed frame for the wire. A nil payload
// produces a bare {type} frame.
func Envelope(typ string, payload any) ([]byte, error) {
	if payload == nil {
		return json.Marshal(Frame{Type: typ})
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Type: typ, Payload: raw})
}
