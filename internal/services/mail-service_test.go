package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/SundayYogurt/trainer_service/internal/domain"
	"github.com/SundayYogurt/trainer_service/internal/dto"
	"github.com/SundayYogurt/trainer_service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMailService(t *testing.T) (*MailService, *[]string) {
	t.Helper()
	ms, err := NewMailService(SMTPConfig{From: "no-reply@example.com", FromName: "Trainers"}, logger.Discard())
	require.NoError(t, err)
	var sent []string
	ms.send = func(ctx context.Context, to string, msg []byte) error {
		sent = append(sent, to+"\n"+string(msg))
		return nil
	}
	return ms, &sent
}

func TestMailServiceRender(t *testing.T) {
	ms, _ := newTestMailService(t)

	body, err := ms.Render(domain.TemplateTrainerApproved, map[string]string{
		"Name":     "Jane <Doe>",
		"Slug":     "jane-doe",
		"Email":    "jane@x.com",
		"Password": "s3cret",
	})
	require.NoError(t, err)
	assert.Contains(t, body, "Jane &lt;Doe&gt;")
	assert.Contains(t, body, "/trainers/jane-doe")
	assert.Contains(t, body, "s3cret")

	body, err = ms.Render(domain.TemplateTrainerApproved, map[string]string{"Name": "Jane"})
	require.NoError(t, err)
	assert.NotContains(t, body, "temporary password")
	assert.NotContains(t, body, "<no value>")
}

func TestMailServiceSend(t *testing.T) {
	ms, sent := newTestMailService(t)

	err := ms.Send(context.Background(), dto.MailMessage{
		Template: domain.TemplateComplianceReminder,
		To:       "jane@x.com",
		Data:     map[string]string{"Name": "Jane", "Missing": "w9_submitted"},
	})
	require.NoError(t, err)
	require.Len(t, *sent, 1)

	msg := (*sent)[0]
	assert.True(t, strings.HasPrefix(msg, "jane@x.com\n"))
	assert.Contains(t, msg, "From: Trainers <no-reply@example.com>")
	assert.Contains(t, msg, "Subject: Finish your trainer onboarding")
	assert.Contains(t, msg, "w9_submitted")
}

func TestMailServiceSendErrors(t *testing.T) {
	ms, sent := newTestMailService(t)
	ctx := context.Background()

	assert.Error(t, ms.Send(ctx, dto.MailMessage{Template: "welcome_pack", To: "jane@x.com"}))
	assert.Error(t, ms.Send(ctx, dto.MailMessage{Template: domain.TemplateApplicationRejected}))
	assert.Empty(t, *sent)

	ms.send = func(context.Context, string, []byte) error { return errors.New("smtp refused") }
	assert.Error(t, ms.Send(ctx, dto.MailMessage{Template: domain.TemplateApplicationRejected, To: "jane@x.com"}))
}
