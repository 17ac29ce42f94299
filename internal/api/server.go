package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SundayYogurt/trainer_service/config"
	"github.com/SundayYogurt/trainer_service/infra/queue"
	"github.com/SundayYogurt/trainer_service/infra/scheduler"
	"github.com/SundayYogurt/trainer_service/internal/api/rest/handlers"
	"github.com/SundayYogurt/trainer_service/internal/api/rest/middleware"
	"github.com/SundayYogurt/trainer_service/internal/domain"
	"github.com/SundayYogurt/trainer_service/internal/helper"
	"github.com/SundayYogurt/trainer_service/internal/metrics"
	"github.com/SundayYogurt/trainer_service/internal/repository"
	"github.com/SundayYogurt/trainer_service/internal/services"
	"github.com/SundayYogurt/trainer_service/migrations"
	"github.com/SundayYogurt/trainer_service/pkg/cloudinary"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// migrateLockID serializes startup schema work across replicas.
const migrateLockID int64 = 20260222

func StartServer(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---------- DB ----------
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DatabaseDSN,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("database connection error: %w", err)
	}
	log.Info("database connected")

	// ---------- MIGRATION + SCHEMA GUARD + SEED (guarded by advisory lock) ----------
	guard := services.NewSchemaGuard(repository.NewTrainerSchemaInspector(db), log)
	capabilityRepo := repository.NewCapabilityRepository(db)
	if err := prepareSchema(ctx, cfg, db, guard, capabilityRepo, log); err != nil {
		return err
	}

	// ---------- Infra ----------
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis url: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	mailProducer := queue.NewProducer(cfg.KafkaBroker, cfg.KafkaTopic, cfg.KafkaUsername, cfg.KafkaPassword, log)
	defer mailProducer.Close()
	eventsProducer := queue.NewProducer(cfg.KafkaBroker, cfg.KafkaEventsTopic, cfg.KafkaUsername, cfg.KafkaPassword, log)
	defer eventsProducer.Close()
	log.Info("kafka producers ready", "broker", cfg.KafkaBroker, "mail_topic", cfg.KafkaTopic, "events_topic", cfg.KafkaEventsTopic)

	cld, err := cloudinary.New(cfg.CloudinaryURL)
	if err != nil {
		return fmt.Errorf("cloudinary init error: %w", err)
	}
	uploader := cloudinary.NewPhotoUploader(cld)

	authHelper := helper.SetupAuth(cfg.AccessSecret, cfg.ActionTokenTTL, scheduler.NewRedisNonceStore(rdb))
	m := metrics.New()

	// ---------- Repositories ----------
	identityRepo := repository.NewIdentityRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	trainerRepo := repository.NewTrainerRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// ---------- Services ----------
	requirements, err := cfg.Requirements()
	if err != nil {
		return err
	}
	gate := services.NewComplianceGate(requirements)
	bus := services.NewEventBus(log)

	resolver := services.NewIdentityResolver(identityRepo, capabilityRepo, authHelper, log)
	provisioner := services.NewProvisioner(trainerRepo, applicationRepo, guard, bus, m, log)
	reconciler := services.NewReconciler(identityRepo, applicationRepo, trainerRepo, provisioner, m, log)
	ranking := services.NewRanking(trainerRepo, log)
	notifier := services.NewQueueNotifier(mailProducer, log)
	reminders := services.NewReminders(
		scheduler.NewRedisScheduler(rdb, ""),
		trainerRepo,
		gate,
		notifier,
		cfg.LoginURL,
		m,
		log,
	)

	bus.SubscribeTrainerApproved("reminders", func(ctx context.Context, ev services.TrainerApproved) error {
		return reminders.ScheduleFor(ctx, ev.TrainerID, ev.ApprovedAt)
	})
	bus.SubscribeTrainerApproved("ranking", ranking.PlaceNew)
	bus.SubscribeTrainerApproved("events-topic", services.PublishApprovedTo(eventsProducer))

	trainerSvc := services.NewTrainerService(services.TrainerServiceDeps{
		Applications: applicationRepo,
		Identities:   identityRepo,
		Capabilities: capabilityRepo,
		Trainers:     trainerRepo,
		Audit:        auditRepo,
		Resolver:     resolver,
		Provisioner:  provisioner,
		Gate:         gate,
		Ranking:      ranking,
		Reconciler:   reconciler,
		Notifier:     notifier,
		Uploader:     uploader,
		LoginURL:     cfg.LoginURL,
		Metrics:      m,
		Log:          log,
	})

	// ---------- HTTP ----------
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "${time} ${status} ${method} ${path} ${latency}\n",
		TimeFormat: time.RFC3339,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.BaseURL,
		AllowHeaders: "Content-Type, Accept, Authorization, " + middleware.ActionTokenHeader,
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	admin := app.Group("/api/admin", middleware.AuthMiddleware(authHelper), middleware.AdminOnly(capabilityRepo))
	uploadHandler := handlers.NewUploadHandler(trainerSvc)
	admin.Post("/trainers/:id/photo", middleware.RequireActionToken(authHelper, "upload_photo", "id"), uploadHandler.UploadTrainerPhoto)
	handlers.NewAdminHandler(trainerSvc, authHelper).SetupRoutes(admin)

	// ---------- Run ----------
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", "addr", cfg.ServerPort)
		return app.Listen(cfg.ServerPort)
	})
	g.Go(func() error {
		return reminders.Run(gctx, cfg.ReminderPollInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		return app.ShutdownWithTimeout(10 * time.Second)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("server stopped")
	return nil
}

// prepareSchema applies migrations, verifies the trainer columns and seeds
// capability tags while holding a session-level advisory lock.
func prepareSchema(ctx context.Context, cfg config.Config, db *gorm.DB, guard services.SchemaGuard, caps repository.CapabilityRepository, log *slog.Logger) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("migration lock error: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()

	if cfg.MigrateOnStart {
		if err := migrations.Up(cfg.DatabaseDSN); err != nil {
			return fmt.Errorf("migration error: %w", err)
		}
		log.Info("migration successful")
	}

	if err := guard.EnsureSchema(ctx, domain.TrainerRequiredColumns); err != nil {
		return err
	}
	if err := caps.Seed(ctx, domain.CapabilityTrainer, domain.CapabilityAdmin); err != nil {
		return fmt.Errorf("seed capabilities: %w", err)
	}
	return nil
}
