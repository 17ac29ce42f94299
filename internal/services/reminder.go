package services

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/SundayYogurt/trainer_service/internal/domain"
	"github.com/SundayYogurt/trainer_service/internal/interfaces"
	"github.com/SundayYogurt/trainer_service/internal/metrics"
	"github.com/SundayYogurt/trainer_service/internal/repository"
)

const (
	reminderBatchSize  = 50
	reminderRetryDelay = time.Hour
	reminderMaxAttempt = 5
)

// Reminders nudges approved trainers toward compliance.
type Reminders interface {
	// ScheduleFor queues one reminder per offset after approvedAt.
	ScheduleFor(ctx context.Context, trainerID uint, approvedAt time.Time) error
	// RunDue processes every reminder due at now and returns how many were handled.
	RunDue(ctx context.Context, now time.Time) (int, error)
	// Run polls RunDue until ctx is done.
	Run(ctx context.Context, every time.Duration) error
}

type reminders struct {
	scheduler interfaces.TaskScheduler
	trainers  repository.TrainerRepository
	gate      ComplianceGate
	notifier  Notifier
	loginURL  string
	metrics   *metrics.Metrics
	log       *slog.Logger
}

func NewReminders(
	scheduler interfaces.TaskScheduler,
	trainers repository.TrainerRepository,
	gate ComplianceGate,
	notifier Notifier,
	loginURL string,
	m *metrics.Metrics,
	log *slog.Logger,
) Reminders {
	return &reminders{
		scheduler: scheduler,
		trainers:  trainers,
		gate:      gate,
		notifier:  notifier,
		loginURL:  loginURL,
		metrics:   m,
		log:       log,
	}
}

func (r *reminders) ScheduleFor(ctx context.Context, trainerID uint, approvedAt time.Time) error {
	var errs []error
	for i, offset := range domain.ReminderOffsets {
		task := domain.ScheduledTask{
			Kind:      domain.TaskComplianceReminder,
			TrainerID: trainerID,
			Step:      i + 1,
			RunAt:     approvedAt.Add(offset),
		}
		if err := r.scheduler.Schedule(ctx, task); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *reminders) RunDue(ctx context.Context, now time.Time) (int, error) {
	handled := 0
	for {
		tasks, err := r.scheduler.Due(ctx, now, reminderBatchSize)
		if err != nil {
			return handled, err
		}
		for _, task := range tasks {
			r.handle(ctx, task, now)
			handled++
		}
		if len(tasks) < reminderBatchSize {
			return handled, nil
		}
	}
}

func (r *reminders) handle(ctx context.Context, task domain.ScheduledTask, now time.Time) {
	if task.Kind != domain.TaskComplianceReminder {
		r.log.Warn("unknown task kind dropped", "kind", task.Kind)
		return
	}

	profile, err := r.trainers.FindTrainerByID(ctx, task.TrainerID)
	if errors.Is(err, repository.ErrNotFound) {
		r.metrics.IncReminder("skipped")
		return
	}
	if err != nil {
		r.retry(ctx, task, now, err)
		return
	}

	if profile.Status == domain.TrainerDeleted || profile.OnboardingCompletedAt != nil {
		r.metrics.IncReminder("skipped")
		return
	}
	eval := r.gate.Evaluate(profile)
	if eval.Eligible {
		r.metrics.IncReminder("skipped")
		return
	}
	if profile.Email == "" {
		r.log.Warn("trainer has no email for reminder", "trainer_id", profile.ID)
		r.metrics.IncReminder("skipped")
		return
	}

	missing := make([]string, len(eval.Missing))
	for i, m := range eval.Missing {
		missing[i] = string(m)
	}
	err = r.notifier.Notify(ctx, domain.Notification{
		Template: domain.TemplateComplianceReminder,
		Channel:  domain.ChannelEmail,
		To:       profile.Email,
		Data: map[string]string{
			"Name":     profile.DisplayName,
			"Missing":  strings.Join(missing, ", "),
			"Step":     strconv.Itoa(task.Step),
			"LoginURL": r.loginURL,
		},
	})
	if err != nil {
		r.retry(ctx, task, now, err)
		return
	}

	r.metrics.IncReminder("sent")
	r.log.Info("compliance reminder sent", "trainer_id", profile.ID, "step", task.Step, "missing", missing)
}

// retry re-queues a failed task for the next pass.
func (r *reminders) retry(ctx context.Context, task domain.ScheduledTask, now time.Time, cause error) {
	if task.Attempt+1 >= reminderMaxAttempt {
		r.log.Error("compliance reminder abandoned", "trainer_id", task.TrainerID, "step", task.Step, "error", cause)
		return
	}
	task.Attempt++
	task.RunAt = now.Add(reminderRetryDelay)
	if err := r.scheduler.Schedule(ctx, task); err != nil {
		r.log.Error("compliance reminder requeue failed", "trainer_id", task.TrainerID, "step", task.Step, "error", err)
		return
	}
	r.metrics.IncReminder("retried")
	r.log.Warn("compliance reminder failed, requeued", "trainer_id", task.TrainerID, "step", task.Step, "attempt", task.Attempt, "error", cause)
}

func (r *reminders) Run(ctx context.Context, every time.Duration) error {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		if _, err := r.RunDue(ctx, time.Now()); err != nil {
			r.log.Error("reminder pass failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
