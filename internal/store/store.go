package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pankajsahukumar/EchoConnectSocketServer/internal/message"
	"github.com/pankajsahukumar/EchoConnectSocketServer/internal/observability"
)

// TTL bounds both the external-id mapping and the cached record. The
// two are deliberately coupled: a reply can only be reconstructed
// while its parent's mapping is still resolvable.
const TTL = 24 * time.Hour

func mappingKey(externalID string) string { return "map:" + externalID }
func messageKey(internalID string) string { return "msg:" + internalID }

// Store is the Redis-backed identity mapping store and message cache.
// All writes are best-effort: a backend failure is logged and the
// caller proceeds as if the entry were simply absent.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb, ttl: TTL}
}

func (s *Store) PutMapping(ctx context.Context, externalID, internalID string) {
	if err := s.rdb.Set(ctx, mappingKey(externalID), internalID, s.ttl).Err(); err != nil {
		observability.GetLogger(ctx).Error("store: put mapping failed",
			zap.String("external_id", externalID), zap.Error(err))
	}
}

func (s *Store) GetMapping(ctx context.Context, externalID string) (string, bool) {
	v, err := s.rdb.Get(ctx, mappingKey(externalID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			observability.GetLogger(ctx).Error("store: get mapping failed",
				zap.String("external_id", externalID), zap.Error(err))
		}
		return "", false
	}
	return v, true
}

func (s *Store) PutMessage(ctx context.Context, m *message.Message) {
	b, err := json.Marshal(m)
	if err != nil {
		observability.GetLogger(ctx).Error("store: marshal message failed",
			zap.String("id", m.ID), zap.Error(err))
		return
	}
	if err := s.rdb.Set(ctx, messageKey(m.ID), b, s.ttl).Err(); err != nil {
		observability.GetLogger(ctx).Error("store: put message failed",
			zap.String("id", m.ID), zap.Error(err))
	}
}

func (s *Store) GetMessage(ctx context.Context, id string) (*message.Message, bool) {
	b, err := s.rdb.Get(ctx, messageKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			observability.GetLogger(ctx).Error("store: get message failed",
				zap.String("id", id), zap.Error(err))
		}
		return nil, false
	}
	var m message.Message
	if err := json.Unmarshal(b, &m); err != nil {
		observability.GetLogger(ctx).Error("store: unmarshal message failed",
			zap.String("id", id), zap.Error(err))
		return nil, false
	}
	return &m, true
}
