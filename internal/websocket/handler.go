package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/pankajsahukumar/EchoConnectSocketServer/internal/observability"
)

// Handler upgrades website connections and runs the frame protocol:
// register, chatMessage, ping. A connection can send before it
// registers, but cannot be addressed as a delivery target until it
// names a user id.
type Handler struct {
	registry    *Registry
	router      Router
	serviceName string
}

func NewHandler(registry *Registry, router Router, serviceName string) *Handler {
	return &Handler{
		registry:    registry,
		router:      router,
		serviceName: serviceName,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := observability.GetLogger(r.Context())
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("upgrade error", zap.Error(err))
		return
	}

	session := NewSession(uuid.NewString(), conn)
	session.Start()

	log.Info("connected", zap.String("session_id", session.ID))
	observability.WebSocketConnectionsActive.WithLabelValues(h.serviceName).Inc()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go h.readLoop(session)
}

func (h *Handler) readLoop(s *Session) {
	ctx := context.Background()
	log := observability.GetLogger(ctx)

	defer func() {
		userID, registered := h.registry.UserOf(s)
		h.registry.Unregister(s)
		s.Close()
		if registered {
			log.Info("disconnected", zap.String("session_id", s.ID), zap.String("user_id", userID))
		} else {
			log.Info("disconnected", zap.String("session_id", s.ID))
		}
		observability.WebSocketConnectionsActive.WithLabelValues(h.serviceName).Dec()
	}()

	for {
		_, data, err := s.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error("read loop error", zap.String("session_id", s.ID), zap.Error(err))
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Error("bad frame", zap.String("session_id", s.ID), zap.Error(err))
			continue
		}

		switch frame.Type {
		case TypeRegister:
			h.handleRegister(ctx, s, frame.Payload)
		case TypeChatMessage:
			h.handleChatMessage(ctx, s, frame.Payload)
		case TypePing:
			h.send(s, TypePong, nil)
		default:
			h.send(s, TypeError, ErrorPayload{Message: "Unknown message type."})
		}
	}
}

func (h *Handler) handleRegister(ctx context.Context, s *Session, payload json.RawMessage) {
	var p RegisterPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.UserID == "" {
		h.send(s, TypeError, ErrorPayload{Message: "register requires a userId."})
		return
	}

	h.registry.Register(p.UserID, s)
	observability.GetLogger(ctx).Info("registered",
		zap.String("session_id", s.ID), zap.String("user_id", p.UserID))
	h.send(s, TypeRegistered, RegisterPayload{UserID: p.UserID})
}

func (h *Handler) handleChatMessage(ctx context.Context, s *Session, payload json.RawMessage) {
	var p ChatPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		h.send(s, TypeError, ErrorPayload{Message: "malformed chatMessage payload."})
		return
	}
	h.router.Route(ctx, p)
}

func (h *Handler) send(s *Session, typ string, payload any) {
	b, err := Envelope(typ, payload)
	if err != nil {
		observability.GetLogger(context.Background()).Error("marshal frame failed", zap.String("type", typ), zap.Error(err))
		return
	}
	s.TrySend(b)
}
