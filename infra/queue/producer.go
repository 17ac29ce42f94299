package queue

import (
	"context"
	"crypto/tls"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
)

type Producer struct {
	writer *kafka.Writer
	log    *slog.Logger
}

// NewProducer writes to topic on broker. SASL/PLAIN over TLS is used when a
// username is set.
func NewProducer(broker, topic, username, password string, log *slog.Logger) *Producer {
	if broker == "" || topic == "" {
		return &Producer{log: log}
	}

	transport := &kafka.Transport{}
	if username != "" {
		transport.SASL = plain.Mechanism{Username: username, Password: password}
		transport.TLS = &tls.Config{}
	}

	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(broker),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			Transport:    transport,
			WriteTimeout: 10 * time.Second,
		},
		log: log,
	}
}

func (p *Producer) PublishMessage(ctx context.Context, key, value []byte) error {
	// no broker configured: drop rather than fail the caller
	if p == nil || p.writer == nil {
		if p != nil && p.log != nil {
			p.log.Warn("kafka producer not configured, message dropped", "key", string(key))
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
		Time:  time.Now(),
	})
}

func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
