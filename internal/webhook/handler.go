package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/pankajsahukumar/EchoConnectSocketServer/internal/message"
	"github.com/pankajsahukumar/EchoConnectSocketServer/internal/observability"
	"github.com/pankajsahukumar/EchoConnectSocketServer/internal/platform/whatsapp"
	"github.com/pankajsahukumar/EchoConnectSocketServer/internal/websocket"
)

type Publisher interface {
	Publish(ctx context.Context, topic, key string, value []byte)
}

type Deliverer interface {
	DeliverTyped(userID, typ string, payload any)
}

type Topics struct {
	Raw        string
	EntryBatch string
	Message    string
}

// Handler terminates the platform webhook: the verification handshake
// on GET and event delivery on POST. Events are acknowledged
// immediately and processed asynchronously.
type Handler struct {
	normalizer  *message.Normalizer
	producer    Publisher
	deliverer   Deliverer
	topics      Topics
	verifyToken string
	agentUserID string
	serviceName string
}

func NewHandler(n *message.Normalizer, producer Publisher, deliverer Deliverer,
	topics Topics, verifyToken, agentUserID, serviceName string) *Handler {
	return &Handler{
		normalizer:  n,
		producer:    producer,
		deliverer:   deliverer,
		topics:      topics,
		verifyToken: verifyToken,
		agentUserID: agentUserID,
		serviceName: serviceName,
	}
}

// Verify answers the platform's subscription handshake.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		observability.GetLogger(r.Context()).Info("webhook verified")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(challenge))
		return
	}
	w.WriteHeader(http.StatusForbidden)
}

// Receive acknowledges the delivery and hands the body off for
// processing. The platform retries on non-200, so the ack never waits
// on downstream work.
func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		observability.GetLogger(r.Context()).Error("webhook: read body failed", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("EVENT_RECEIVED"))

	go h.process(context.Background(), body)
}

func (h *Handler) process(ctx context.Context, body []byte) {
	log := observability.GetLogger(ctx)

	h.producer.Publish(ctx, h.topics.Raw, "webhook", body)

	var event whatsapp.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Error("webhook: decode event failed", zap.Error(err))
		return
	}

	observability.WebhookEventsTotal.WithLabelValues(h.serviceName, event.Object).Inc()
	if event.Object != whatsapp.ObjectBusinessAccount {
		return
	}

	for _, entry := range event.Entry {
		for _, change := range entry.Changes {
			h.processChange(ctx, entry.ID, change.Value)
		}
	}
}

func (h *Handler) processChange(ctx context.Context, entryID string, value whatsapp.Value) {
	log := observability.GetLogger(ctx)

	if len(value.Messages) > 0 {
		if batch, err := json.Marshal(value.Messages); err == nil {
			h.producer.Publish(ctx, h.topics.EntryBatch, entryID, batch)
		}
	}

	var profile *whatsapp.Profile
	if len(value.Contacts) > 0 {
		profile = &value.Contacts[0].Profile
	}

	for _, msg := range value.Messages {
		if msg.Type != "text" {
			log.Debug("webhook: skipping non-text message",
				zap.String("external_id", msg.ID), zap.String("type", msg.Type))
			continue
		}

		record := h.normalizer.FromWhatsApp(ctx, msg, profile, message.OriginCustomer)

		if b, err := json.Marshal(record); err == nil {
			h.producer.Publish(ctx, h.topics.Message, entryID, b)
		} else {
			log.Error("webhook: marshal record failed", zap.String("id", record.ID), zap.Error(err))
		}

		h.deliverer.DeliverTyped(h.agentUserID, websocket.TypeChatMessage, record)
	}
}
