package interfaces

import (
	"context"
	"time"

	"github.com/SundayYogurt/trainer_service/internal/domain"
)

// TaskScheduler holds delayed tasks until their run time.
type TaskScheduler interface {
	Schedule(ctx context.Context, task domain.ScheduledTask) error
	// Due claims up to limit tasks whose run time is at or before now. A task
	// is handed to exactly one caller.
	Due(ctx context.Context, now time.Time, limit int) ([]domain.ScheduledTask, error)
}
