package main

import (
	"errors"
	"log"
	"os"
	"strconv"

	"github.com/SundayYogurt/trainer_service/config"
	"github.com/SundayYogurt/trainer_service/migrations"
	"github.com/golang-migrate/migrate/v4"
)

// usage: migrate [up|down|steps N|version|force V]
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.DatabaseDSN == "" {
		log.Fatal("DATABASE_DSN environment variable is required")
	}

	m, err := migrations.New(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer m.Close()

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "steps":
		err = m.Steps(intArg())
	case "force":
		err = m.Force(intArg())
	case "version":
		v, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			log.Fatal(verr)
		}
		log.Printf("version=%d dirty=%t", v, dirty)
		return
	default:
		log.Fatalf("unknown command %q", cmd)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal(err)
	}
	log.Printf("migration %s successful", cmd)
}

func intArg() int {
	if len(os.Args) < 3 {
		log.Fatal("missing numeric argument")
	}
	n, err := strconv.Atoi(os.Args[2])
	if err != nil {
		log.Fatalf("invalid numeric argument %q", os.Args[2])
	}
	return n
}
