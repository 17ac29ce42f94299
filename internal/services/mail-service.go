package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/SundayYogurt/trainer_service/internal/domain"
	"github.com/SundayYogurt/trainer_service/internal/dto"
)

//go:embed templates/*.html
var mailTemplates embed.FS

var mailSubjects = map[string]string{
	domain.TemplateTrainerApproved:     "Your trainer profile is approved",
	domain.TemplateApplicationRejected: "Update on your trainer application",
	domain.TemplateComplianceReminder:  "Finish your trainer onboarding",
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
}

type MailService struct {
	cfg       SMTPConfig
	templates *template.Template
	send      func(ctx context.Context, to string, msg []byte) error
	log       *slog.Logger
}

func NewMailService(cfg SMTPConfig, log *slog.Logger) (*MailService, error) {
	if cfg.Host == "" {
		cfg.Host = "smtp.gmail.com"
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	tmpl, err := template.New("mail").Option("missingkey=zero").ParseFS(mailTemplates, "templates/*.html")
	if err != nil {
		return nil, err
	}
	s := &MailService{cfg: cfg, templates: tmpl, log: log}
	s.send = s.sendSMTP
	return s, nil
}

// Send renders the message template and delivers it.
func (s *MailService) Send(ctx context.Context, m dto.MailMessage) error {
	subject, ok := mailSubjects[m.Template]
	if !ok {
		return fmt.Errorf("unknown mail template %q", m.Template)
	}
	if m.To == "" {
		return fmt.Errorf("mail %s has no recipient", m.Template)
	}

	body, err := s.Render(m.Template, m.Data)
	if err != nil {
		return err
	}

	msg := strings.Join([]string{
		fmt.Sprintf("From: %s <%s>", s.cfg.FromName, s.cfg.From),
		fmt.Sprintf("To: %s", m.To),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		`Content-Type: text/html; charset="UTF-8"`,
		"",
		body,
	}, "\r\n")

	if err := s.send(ctx, m.To, []byte(msg)); err != nil {
		return err
	}
	s.log.Info("mail sent", "template", m.Template, "to", m.To)
	return nil
}

func (s *MailService) Render(name string, data map[string]string) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name+".html", data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *MailService) sendSMTP(ctx context.Context, to string, msg []byte) error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))

	dialer := net.Dialer{Timeout: 8 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	_ = conn.SetDeadline(time.Now().Add(15 * time.Second))

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer func() { _ = c.Quit() }()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			return err
		}
	}
	if s.cfg.User != "" {
		if err := c.Auth(smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)); err != nil {
			return err
		}
	}

	if err := c.Mail(s.cfg.From); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
