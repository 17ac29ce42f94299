package repository

import (
	"context"

	"github.com/SundayYogurt/trainer_service/internal/domain"
	"gorm.io/gorm"
)

type AuditRepository interface {
	Record(ctx context.Context, entry *domain.AuditLog) error
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (a *auditRepository) Record(ctx context.Context, entry *domain.AuditLog) error {
	return a.db.WithContext(ctx).Create(entry).Error
}
