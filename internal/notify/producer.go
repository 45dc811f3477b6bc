// Package notify dispatches state-transition events to Kafka. Delivery is
// fire-and-forget: a failed publish is logged and never fails the transition
// that triggered it.
package notify

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Producer writes transition events to a Kafka topic. If brokers or topic are
// empty, Produce is a no-op.
type Producer struct {
	writer *kafka.Writer
	topic  string
	log    *zap.Logger
}

func NewProducer(brokers []string, topic string, log *zap.Logger) *Producer {
	if len(brokers) == 0 || topic == "" {
		return &Producer{log: log}
	}
	return &Producer{
		topic: topic,
		log:   log,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// Produce publishes one event. The payload is merged with an event envelope
// {event, event_id, occurred_at}.
func (p *Producer) Produce(ctx context.Context, event string, payload map[string]interface{}) {
	if p.writer == nil {
		return
	}
	msg := map[string]interface{}{
		"event":       event,
		"event_id":    uuid.NewString(),
		"occurred_at": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range payload {
		msg[k] = v
	}
	body, err := json.Marshal(msg)
	if err != nil {
		p.log.Warn("notify: marshal event", zap.String("event", event), zap.Error(err))
		return
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Value: body}); err != nil {
		p.log.Warn("notify: write event", zap.String("event", event), zap.Error(err))
	}
}

// Close closes the writer.
func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// ParseBrokers splits "host1:9092,host2:9092" into a broker slice.
func ParseBrokers(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
