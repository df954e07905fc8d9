package websocket

import (
	"testing"
)

func TestEnvelope_NilPayload(t *testing.T) {
	b, err := Envelope(TypePong, nil)
	if err != nil {
		t.Fatalf("Envelope failed: %v", err)
	}
	if string(b) != `{"type":"pong"}` {
		t.Errorf("Expected bare pong frame, got %s", b)
	}
}

func TestEnvelope_WithPayload(t *testing.T) {
	b, err := Envelope(TypeRegistered, RegisterPayload{UserID: "u1"})
	if err != nil {
		t.Fatalf("Envelope failed: %v", err)
	}
	if string(b) != `{"type":"registered","payload":{"userId":"u1"}}` {
		t.Errorf("Unexpected frame: %s", b)
	}
}
