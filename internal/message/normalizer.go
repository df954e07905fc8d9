package message

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pankajsahukumar/EchoConnectSocketServer/internal/observability"
	"github.com/pankajsahukumar/EchoConnectSocketServer/internal/platform/whatsapp"
)

// MappingStore resolves platform message ids to internal ids. Both
// operations are best-effort: a Put that fails is logged by the
// implementation and a Get that cannot answer reports ok=false.
type MappingStore interface {
	PutMapping(ctx context.Context, externalID, internalID string)
	GetMapping(ctx context.Context, externalID string) (string, bool)
}

// MessageCache holds full message records keyed by internal id, with
// the same best-effort contract as MappingStore.
type MessageCache interface {
	PutMessage(ctx context.Context, m *Message)
	GetMessage(ctx context.Context, id string) (*Message, bool)
}

// Normalizer builds internal message records from inbound platform
// events, resolving reply-thread parents through the mapping store and
// cache.
type Normalizer struct {
	mappings MappingStore
	cache    MessageCache
}

func NewNormalizer(mappings MappingStore, cache MessageCache) *Normalizer {
	return &Normalizer{mappings: mappings, cache: cache}
}

// FromWhatsApp converts an inbound platform message into an internal
// record. A fresh internal id is generated and its mapping is written
// before the record is cached, so a later reply referencing this
// message can resolve the mapping as soon as the cache entry exists.
// Missing optional fields degrade to nils and defaults; store failures
// degrade to "no data". Nothing here is fatal.
func (n *Normalizer) FromWhatsApp(ctx context.Context, msg whatsapp.Message, profile *whatsapp.Profile, origin OriginType) *Message {
	internalID := uuid.NewString()
	n.mappings.PutMapping(ctx, msg.ID, internalID)

	var replyID *string
	var snapshot *ReplySnapshot
	if msg.Context != nil && msg.Context.ID != "" {
		replyID, snapshot = n.resolveReply(ctx, msg.Context)
	}

	var name *string
	if profile != nil && profile.Name != "" {
		name = &profile.Name
	}

	var text *string
	if msg.Text != nil {
		text = &msg.Text.Body
	}

	record := New(NewMessageParams{
		ID:             internalID,
		Text:           text,
		MessageType:    msg.Type,
		OriginType:     origin,
		ReplyMessageID: replyID,
		ReplyMessage:   snapshot,
		SenderUser: Sender{
			Name:        name,
			PhoneNumber: msg.From,
		},
		MessageTime: parseEpochSeconds(ctx, msg.Timestamp) * 1000,
	})

	n.cache.PutMessage(ctx, record)
	return record
}

// resolveReply maps the quoted external id to an internal id if the
// mapping is still alive, and snapshots the parent record if it is
// still cached. When the mapping is gone the raw external id is kept
// as a degraded reference and the snapshot takes documented defaults.
func (n *Normalizer) resolveReply(ctx context.Context, parent *whatsapp.Context) (*string, *ReplySnapshot) {
	replyID := parent.ID
	var prev *Message
	if mapped, ok := n.mappings.GetMapping(ctx, parent.ID); ok {
		replyID = mapped
		prev, _ = n.cache.GetMessage(ctx, mapped)
	}

	snapshot := &ReplySnapshot{
		ID:         replyID,
		OriginType: OriginCustomer,
		Body:       Content{Text: nil, MessageType: "text"},
		SenderUser: Sender{PhoneNumber: parent.From},
	}
	if prev != nil {
		snapshot.OriginType = prev.OriginType
		snapshot.Body = prev.Body
		snapshot.SenderUser.ID = prev.SenderUser.ID
		snapshot.SenderUser.Name = prev.SenderUser.Name
		if prev.SenderUser.PhoneNumber != "" {
			snapshot.SenderUser.PhoneNumber = prev.SenderUser.PhoneNumber
		}
		t := prev.MessageTime
		snapshot.MessageTime = &t
	}
	return &replyID, snapshot
}

func parseEpochSeconds(ctx context.Context, ts string) int64 {
	if ts == "" {
		return 0
	}
	sec, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		observability.GetLogger(ctx).Warn("normalizer: bad timestamp", zap.String("timestamp", ts))
		return 0
	}
	return sec
}
