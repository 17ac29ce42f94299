package main

import (
	"log"

	"github.com/SundayYogurt/trainer_service/config"
	"github.com/SundayYogurt/trainer_service/internal/api"
	"github.com/SundayYogurt/trainer_service/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config error: %v", err)
	}

	l, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}

	if err := api.StartServer(cfg, l); err != nil {
		l.Error("server exited", "error", err)
		log.Fatal(err)
	}
}
