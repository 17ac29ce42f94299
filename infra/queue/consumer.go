package queue

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"time"

	"github.com/SundayYogurt/trainer_service/internal/interfaces"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
)

type KafkaConsumer struct {
	Reader      *kafka.Reader
	Handler     interfaces.ConsumerHandler
	ServiceName string
	log         *slog.Logger
}

func NewKafkaConsumer(broker, topic, groupID, username, password, serviceName string, handler interfaces.ConsumerHandler, log *slog.Logger) *KafkaConsumer {
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	if username != "" {
		dialer.TLS = &tls.Config{}
		dialer.SASLMechanism = plain.Mechanism{Username: username, Password: password}
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{broker},
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 10e3,
		MaxBytes: 10e6,
		Dialer:   dialer,
	})

	return &KafkaConsumer{
		Reader:      reader,
		Handler:     handler,
		ServiceName: serviceName,
		log:         log.With("service", serviceName, "topic", topic),
	}
}

// Listen reads until ctx is cancelled. Handler failures are logged and the
// message is committed anyway.
func (kc *KafkaConsumer) Listen(ctx context.Context) error {
	defer kc.Reader.Close()

	for {
		msg, err := kc.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			kc.log.Error("read error", "error", err)
			continue
		}

		kc.log.Debug("message received", "key", string(msg.Key), "offset", msg.Offset)

		if err := kc.Handler.HandleMessage(ctx, msg.Key, msg.Value); err != nil {
			kc.log.Error("handler error", "key", string(msg.Key), "offset", msg.Offset, "error", err)
		}
	}
}
