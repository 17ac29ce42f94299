package repository

import (
	"context"
	"strings"
	"time"

	"github.com/SundayYogurt/trainer_service/internal/domain"
	"gorm.io/gorm"
)

type ApplicationRepository interface {
	CreateApplication(ctx context.Context, app *domain.Application) error
	FindApplicationByID(ctx context.Context, id uint) (*domain.Application, error)
	ListApplications(ctx context.Context, status domain.ApplicationStatus, limit, offset int) ([]domain.Application, error)
	// FindLatestForIdentity returns the newest application linked to the
	// identity, either by identity_id or by email.
	FindLatestForIdentity(ctx context.Context, identityID uint, email string) (*domain.Application, error)

	MarkApproved(ctx context.Context, id uint, identityID uint, adminID uint, at time.Time) error
	MarkRejected(ctx context.Context, id uint, adminID uint, reason string, at time.Time) error
}

type applicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (a *applicationRepository) CreateApplication(ctx context.Context, app *domain.Application) error {
	return translate(a.db.WithContext(ctx).Create(app).Error)
}

func (a *applicationRepository) FindApplicationByID(ctx context.Context, id uint) (*domain.Application, error) {
	var app domain.Application
	if err := a.db.WithContext(ctx).First(&app, id).Error; err != nil {
		return nil, translate(err)
	}
	return &app, nil
}

func (a *applicationRepository) ListApplications(ctx context.Context, status domain.ApplicationStatus, limit, offset int) ([]domain.Application, error) {
	var apps []domain.Application

	q := a.db.WithContext(ctx).Order("created_at ASC, id ASC").Limit(limit).Offset(offset)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (a *applicationRepository) FindLatestForIdentity(ctx context.Context, identityID uint, email string) (*domain.Application, error) {
	var app domain.Application
	err := a.db.WithContext(ctx).
		Where("identity_id = ? OR lower(email) = ?", identityID, strings.ToLower(strings.TrimSpace(email))).
		Order("created_at DESC, id DESC").
		First(&app).Error
	if err != nil {
		return nil, translate(err)
	}
	return &app, nil
}

func (a *applicationRepository) MarkApproved(ctx context.Context, id uint, identityID uint, adminID uint, at time.Time) error {
	res := a.db.WithContext(ctx).Model(&domain.Application{}).
		Where("id = ? AND status = ?", id, domain.ApplicationPending).
		Updates(map[string]any{
			"status":      domain.ApplicationApproved,
			"identity_id": identityID,
			"reviewed_by": adminID,
			"reviewed_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (a *applicationRepository) MarkRejected(ctx context.Context, id uint, adminID uint, reason string, at time.Time) error {
	updates := map[string]any{
		"status":      domain.ApplicationRejected,
		"reviewed_by": adminID,
		"reviewed_at": at,
	}
	if reason = strings.TrimSpace(reason); reason != "" {
		updates["reject_reason"] = reason
	}

	res := a.db.WithContext(ctx).Model(&domain.Application{}).
		Where("id = ? AND status = ?", id, domain.ApplicationPending).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
