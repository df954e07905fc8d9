package hub

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pankajsahukumar/EchoConnectSocketServer/internal/observability"
	"github.com/pankajsahukumar/EchoConnectSocketServer/internal/websocket"
)

// PlatformPrefix marks a destination address as belonging to the
// messaging platform; the remainder is the platform's native user id.
const PlatformPrefix = "wa:"

type PlatformSender interface {
	SendText(ctx context.Context, to, body string) error
}

// Hub routes chat payloads to either a live registered connection or
// the platform send path. Delivery is best-effort: an absent receiver
// is a silent drop and platform send failures are only logged.
type Hub struct {
	registry    *websocket.Registry
	platform    PlatformSender
	serviceName string
}

func New(registry *websocket.Registry, platform PlatformSender, serviceName string) *Hub {
	return &Hub{
		registry:    registry,
		platform:    platform,
		serviceName: serviceName,
	}
}

func (h *Hub) Route(ctx context.Context, p websocket.ChatPayload) {
	log := observability.GetLogger(ctx)

	if strings.HasPrefix(p.ReceiverID, PlatformPrefix) {
		to := strings.TrimPrefix(p.ReceiverID, PlatformPrefix)
		observability.MessagesRelayedTotal.WithLabelValues(h.serviceName, "platform").Inc()
		// Fire and forget; the sender gets no feedback either way.
		go func() {
			if err := h.platform.SendText(context.Background(), to, p.Content); err != nil {
				log.Error("hub: platform send failed",
					zap.String("sender_id", p.SenderID), zap.String("to", to), zap.Error(err))
			}
		}()
		return
	}

	s, ok := h.registry.Get(p.ReceiverID)
	if !ok {
		log.Debug("hub: receiver not connected, dropping",
			zap.String("sender_id", p.SenderID), zap.String("receiver_id", p.ReceiverID))
		return
	}

	p.Timestamp = time.Now().UnixMilli()
	if h.deliver(s, websocket.TypeChatMessage, p) {
		observability.MessagesRelayedTotal.WithLabelValues(h.serviceName, "websocket").Inc()
	}
}

// DeliverTyped pushes an arbitrary typed event to a registered, open
// connection. No-op if the user is not registered or the session is
// closing.
func (h *Hub) DeliverTyped(userID, typ string, payload any) {
	s, ok := h.registry.Get(userID)
	if !ok || !s.IsOpen() {
		return
	}
	h.deliver(s, typ, payload)
}

func (h *Hub) deliver(s *websocket.Session, typ string, payload any) bool {
	b, err := websocket.Envelope(typ, payload)
	if err != nil {
		observability.GetLogger(context.Background()).Error("hub: marshal frame failed", zap.String("type", typ), zap.Error(err))
		return false
	}
	return s.TrySend(b)
}
