package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/SundayYogurt/trainer_service/config"
	"github.com/SundayYogurt/trainer_service/infra/queue"
	"github.com/SundayYogurt/trainer_service/internal/api/rest/handlers"
	"github.com/SundayYogurt/trainer_service/internal/services"
	"github.com/SundayYogurt/trainer_service/pkg/logger"
)

func main() {
	// ---------- Load Config ----------
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	l, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	if cfg.KafkaBroker == "" {
		log.Fatal("KAFKA_BROKER is required")
	}

	l.Info("mailer starting", "broker", cfg.KafkaBroker, "topic", cfg.KafkaTopic, "group", cfg.KafkaGroupID)

	// ---------- Init Service ----------
	mailService, err := services.NewMailService(services.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.GmailUser,
		Password: cfg.GmailAppPassword,
		From:     cfg.MailFrom,
		FromName: cfg.MailFromName,
	}, l)
	if err != nil {
		log.Fatalf("mail templates: %v", err)
	}

	// ---------- Init Handler ----------
	handler := handlers.NewMailHandler(mailService, l)

	// ---------- Init Kafka Consumer ----------
	consumer := queue.NewKafkaConsumer(
		cfg.KafkaBroker,
		cfg.KafkaTopic,
		cfg.KafkaGroupID,
		cfg.KafkaUsername,
		cfg.KafkaPassword,
		"Mail Service",
		handler,
		l,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---------- Start Listening ----------
	l.Info("mailer listening for events")
	if err := consumer.Listen(ctx); err != nil {
		log.Fatal(err)
	}
}
