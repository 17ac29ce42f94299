package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/SundayYogurt/trainer_service/internal/dto"
)

type MailSender interface {
	Send(ctx context.Context, m dto.MailMessage) error
}

// MailHandler consumes notification messages for the mailer.
type MailHandler struct {
	MailService MailSender
	log         *slog.Logger
}

func NewMailHandler(ms MailSender, log *slog.Logger) *MailHandler {
	return &MailHandler{MailService: ms, log: log}
}

func (h *MailHandler) HandleMessage(ctx context.Context, key, value []byte) error {
	var m dto.MailMessage
	if err := json.Unmarshal(value, &m); err != nil {
		h.log.Warn("invalid mail payload", "key", string(key), "error", err)
		return err
	}
	if m.Template == "" {
		m.Template = string(key)
	}
	if m.Template == "" || m.To == "" {
		return fmt.Errorf("mail payload missing template or recipient")
	}

	h.log.Info("mail event received", "template", m.Template, "to", m.To)
	return h.MailService.Send(ctx, m)
}
