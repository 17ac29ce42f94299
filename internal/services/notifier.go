package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/SundayYogurt/trainer_service/internal/domain"
	"github.com/SundayYogurt/trainer_service/internal/dto"
	"github.com/SundayYogurt/trainer_service/internal/interfaces"
)

type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// queueNotifier hands email notifications to the mailer over the broker.
type queueNotifier struct {
	producer interfaces.ProducerHandler
	log      *slog.Logger
}

func NewQueueNotifier(producer interfaces.ProducerHandler, log *slog.Logger) Notifier {
	return &queueNotifier{producer: producer, log: log}
}

func (q *queueNotifier) Notify(ctx context.Context, n domain.Notification) error {
	if n.To == "" || n.Template == "" {
		return fmt.Errorf("%w: notification needs a recipient and template", ErrInvalidInput)
	}
	if n.Channel == "" {
		n.Channel = domain.ChannelEmail
	}
	if n.Channel != domain.ChannelEmail {
		q.log.Info("notification channel not delivered", "channel", n.Channel, "template", n.Template)
		return nil
	}

	payload, err := json.Marshal(dto.MailMessage{Template: n.Template, To: n.To, Data: n.Data})
	if err != nil {
		return err
	}
	if err := q.producer.PublishMessage(ctx, []byte(n.Template), payload); err != nil {
		return fmt.Errorf("publish %s notification: %w", n.Template, err)
	}
	q.log.Debug("notification queued", "template", n.Template, "to", n.To)
	return nil
}
