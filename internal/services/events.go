package services

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// TrainerApproved is fired after a profile is provisioned or re-approved.
type TrainerApproved struct {
	TrainerID  uint
	IdentityID uint
	Email      string
	Slug       string
	ApprovedAt time.Time
}

type TrainerApprovedHandler func(ctx context.Context, ev TrainerApproved) error

// EventBus delivers events to in-process subscribers. Delivery is
// fire-and-forget: handler errors and panics are logged, never returned.
type EventBus struct {
	mu       sync.RWMutex
	approved []namedHandler
	log      *slog.Logger
}

type namedHandler struct {
	name string
	fn   TrainerApprovedHandler
}

func NewEventBus(log *slog.Logger) *EventBus {
	return &EventBus{log: log}
}

func (b *EventBus) SubscribeTrainerApproved(name string, fn TrainerApprovedHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.approved = append(b.approved, namedHandler{name: name, fn: fn})
}

func (b *EventBus) PublishTrainerApproved(ctx context.Context, ev TrainerApproved) {
	if b == nil {
		return
	}
	b.mu.RLock()
	handlers := make([]namedHandler, len(b.approved))
	copy(handlers, b.approved)
	b.mu.RUnlock()

	for _, h := range handlers {
		b.deliver(ctx, h, ev)
	}
}

func (b *EventBus) deliver(ctx context.Context, h namedHandler, ev TrainerApproved) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("trainer_approved subscriber panicked", "subscriber", h.name, "trainer_id", ev.TrainerID, "panic", r)
		}
	}()
	if err := h.fn(ctx, ev); err != nil {
		b.log.Error("trainer_approved subscriber failed", "subscriber", h.name, "trainer_id", ev.TrainerID, "error", err)
	}
}
