package kafka

import (
	"context"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"

	"github.com/pankajsahukumar/EchoConnectSocketServer/internal/observability"
)

// Producer publishes raw and derived webhook events downstream.
// Produce is asynchronous; delivery failures are logged, not surfaced,
// matching the relay's best-effort posture.
type Producer struct {
	client *kgo.Client
}

func NewProducer(brokers []string) (*Producer, error) {
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, err
	}
	return &Producer{client: cl}, nil
}

// Ping verifies broker reachability at startup.
func (p *Producer) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

func (p *Producer) Publish(ctx context.Context, topic, key string, value []byte) {
	rec := &kgo.Record{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	}
	p.client.Produce(ctx, rec, func(r *kgo.Record, err error) {
		if err != nil {
			observability.GetLogger(ctx).Error("kafka: produce failed",
				zap.String("topic", topic), zap.Error(err))
		}
	})
}

// Close flushes in-flight records before releasing the client.
func (p *Producer) Close(ctx context.Context) {
	if p.client == nil {
		return
	}
	if err := p.client.Flush(ctx); err != nil {
		observability.GetLogger(ctx).Error("kafka: flush on close failed", zap.Error(err))
	}
	p.client.Close()
}
