package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/SundayYogurt/trainer_service/internal/domain"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Env         string `env:"ENV" envDefault:"dev"`
	ServerPort  string `env:"SERVER_PORT" envDefault:":3000"`
	BaseURL     string `env:"BASE_URL" envDefault:"*"`
	LoginURL    string `env:"LOGIN_URL"`
	DatabaseDSN string `env:"DATABASE_DSN"`
	// MigrateOnStart applies embedded migrations before serving.
	MigrateOnStart bool `env:"MIGRATE_ON_START" envDefault:"true"`

	KafkaBroker      string `env:"KAFKA_BROKER"`
	KafkaTopic       string `env:"KAFKA_TOPIC" envDefault:"trainer-mail"`
	KafkaEventsTopic string `env:"KAFKA_EVENTS_TOPIC" envDefault:"trainer-events"`
	KafkaGroupID     string `env:"KAFKA_GROUP_ID" envDefault:"trainer-mailer"`
	KafkaUsername    string `env:"KAFKA_USERNAME"`
	KafkaPassword    string `env:"KAFKA_PASSWORD"`

	RedisURL      string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	CloudinaryURL string `env:"CLOUDINARY_URL"`

	AccessSecret   string        `env:"ACCESS_SECRET"`
	ActionTokenTTL time.Duration `env:"ACTION_TOKEN_TTL" envDefault:"10m"`

	ComplianceRequired   []string      `env:"COMPLIANCE_REQUIRED" envSeparator:"," envDefault:"safesport_verified,w9_submitted"`
	ReminderPollInterval time.Duration `env:"REMINDER_POLL_INTERVAL" envDefault:"1m"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	LogFile   string `env:"LOG_FILE"`

	SMTPHost         string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort         int    `env:"SMTP_PORT" envDefault:"587"`
	GmailUser        string `env:"GMAIL_USER"`
	GmailAppPassword string `env:"GMAIL_APP_PASSWORD"`
	MailFrom         string `env:"MAIL_FROM"`
	MailFromName     string `env:"MAIL_FROM_NAME" envDefault:"Trainer Team"`
}

// LoadConfig reads .env outside prod, then the process environment.
func LoadConfig() (Config, error) {
	if os.Getenv("ENV") != "prod" {
		if err := godotenv.Overload(); err != nil {
			log.Println("Warning: env file not found or could not be loaded:", err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks what the API server needs to start.
func (c Config) Validate() error {
	if c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required")
	}
	if len(c.AccessSecret) < 16 {
		return fmt.Errorf("ACCESS_SECRET must be at least 16 characters")
	}
	_, err := c.Requirements()
	return err
}

func (c Config) Requirements() ([]domain.RequirementTag, error) {
	tags := make([]domain.RequirementTag, 0, len(c.ComplianceRequired))
	for _, raw := range c.ComplianceRequired {
		if raw == "" {
			continue
		}
		tag, ok := domain.ParseRequirementTag(raw)
		if !ok {
			return nil, fmt.Errorf("COMPLIANCE_REQUIRED: unknown requirement %q", raw)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}
