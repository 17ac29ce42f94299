package repository

import (
	"context"
	"time"

	"github.com/SundayYogurt/trainer_service/internal/domain"
	"gorm.io/gorm"
)

// displayOrder is the public listing order; id breaks remaining ties.
const displayOrder = "is_featured DESC, sort_order ASC, created_at ASC, id ASC"

type TrainerFilter struct {
	Status domain.TrainerStatus
	Limit  int
	Offset int
}

// RankingSignal is the per-trainer input to automatic sort order assignment.
type RankingSignal struct {
	TrainerID   uint
	IsFeatured  bool
	SortOrder   int
	CreatedAt   time.Time
	AvgRating   float64
	ReviewCount int64
}

type TrainerRepository interface {
	// CreateTrainer inserts profile. Columns named in omit are left out of the
	// INSERT so storage lacking them still accepts the row.
	CreateTrainer(ctx context.Context, profile *domain.TrainerProfile, omit ...string) error
	FindTrainerByID(ctx context.Context, id uint) (*domain.TrainerProfile, error)
	FindTrainerByIdentityID(ctx context.Context, identityID uint) (*domain.TrainerProfile, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	ListTrainers(ctx context.Context, filter TrainerFilter) ([]domain.TrainerProfile, error)

	UpdateTrainer(ctx context.Context, id uint, fields map[string]any) error
	SetStatus(ctx context.Context, id uint, status domain.TrainerStatus, approvedAt *time.Time) error
	// DeleteTrainer marks the profile deleted, removes its availability and
	// review rows, and strips the trainer tag from its identity in one transaction.
	DeleteTrainer(ctx context.Context, id uint) error
	CountDependents(ctx context.Context, id uint) (availability int64, reviews int64, err error)

	// SetFeatured updates only rows whose flag differs and returns how many changed.
	SetFeatured(ctx context.Context, ids []uint, featured bool) (int64, error)
	CountExisting(ctx context.Context, ids []uint) (int64, error)
	SaveSortOrders(ctx context.Context, orders map[uint]int) error
	RankingSignals(ctx context.Context) ([]RankingSignal, error)
	MaxSortOrder(ctx context.Context) (int, error)
}

type trainerRepository struct {
	db *gorm.DB
}

func NewTrainerRepository(db *gorm.DB) TrainerRepository {
	return &trainerRepository{db: db}
}

func (t *trainerRepository) CreateTrainer(ctx context.Context, profile *domain.TrainerProfile, omit ...string) error {
	q := t.db.WithContext(ctx)
	if len(omit) > 0 {
		q = q.Omit(omit...)
	}
	return translate(q.Create(profile).Error)
}

func (t *trainerRepository) FindTrainerByID(ctx context.Context, id uint) (*domain.TrainerProfile, error) {
	var profile domain.TrainerProfile
	if err := t.db.WithContext(ctx).First(&profile, id).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

func (t *trainerRepository) FindTrainerByIdentityID(ctx context.Context, identityID uint) (*domain.TrainerProfile, error) {
	var profile domain.TrainerProfile
	if err := t.db.WithContext(ctx).Where("identity_id = ?", identityID).First(&profile).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

func (t *trainerRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := t.db.WithContext(ctx).Model(&domain.TrainerProfile{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (t *trainerRepository) ListTrainers(ctx context.Context, filter TrainerFilter) ([]domain.TrainerProfile, error) {
	var profiles []domain.TrainerProfile

	q := t.db.WithContext(ctx).Order(displayOrder)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	} else {
		q = q.Where("status <> ?", domain.TrainerDeleted)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit).Offset(filter.Offset)
	}
	if err := q.Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func (t *trainerRepository) UpdateTrainer(ctx context.Context, id uint, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res := t.db.WithContext(ctx).Model(&domain.TrainerProfile{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *trainerRepository) SetStatus(ctx context.Context, id uint, status domain.TrainerStatus, approvedAt *time.Time) error {
	fields := map[string]any{"status": status}
	if approvedAt != nil {
		fields["approved_at"] = *approvedAt
	}
	return t.UpdateTrainer(ctx, id, fields)
}

func (t *trainerRepository) DeleteTrainer(ctx context.Context, id uint) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var profile domain.TrainerProfile
		if err := tx.First(&profile, id).Error; err != nil {
			return translate(err)
		}

		if err := tx.Where("trainer_id = ?", id).Delete(&domain.Availability{}).Error; err != nil {
			return err
		}
		if err := tx.Where("trainer_id = ?", id).Delete(&domain.Review{}).Error; err != nil {
			return err
		}

		res := tx.Model(&domain.TrainerProfile{}).
			Where("id = ? AND status <> ?", id, domain.TrainerDeleted).
			Updates(map[string]any{
				"status":      domain.TrainerDeleted,
				"is_featured": false,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		return revokeCapability(tx, profile.IdentityID, domain.CapabilityTrainer)
	})
}

func (t *trainerRepository) CountDependents(ctx context.Context, id uint) (int64, int64, error) {
	var availability, reviews int64
	db := t.db.WithContext(ctx)
	if err := db.Model(&domain.Availability{}).Where("trainer_id = ?", id).Count(&availability).Error; err != nil {
		return 0, 0, err
	}
	if err := db.Model(&domain.Review{}).Where("trainer_id = ?", id).Count(&reviews).Error; err != nil {
		return 0, 0, err
	}
	return availability, reviews, nil
}

func (t *trainerRepository) SetFeatured(ctx context.Context, ids []uint, featured bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := t.db.WithContext(ctx).Model(&domain.TrainerProfile{}).
		Where("id IN ? AND is_featured <> ? AND status <> ?", ids, featured, domain.TrainerDeleted).
		Update("is_featured", featured)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (t *trainerRepository) CountExisting(ctx context.Context, ids []uint) (int64, error) {
	var count int64
	if len(ids) == 0 {
		return 0, nil
	}
	err := t.db.WithContext(ctx).Model(&domain.TrainerProfile{}).
		Where("id IN ? AND status <> ?", ids, domain.TrainerDeleted).
		Count(&count).Error
	return count, err
}

func (t *trainerRepository) SaveSortOrders(ctx context.Context, orders map[uint]int) error {
	if len(orders) == 0 {
		return nil
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for id, order := range orders {
			if err := tx.Model(&domain.TrainerProfile{}).Where("id = ?", id).Update("sort_order", order).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (t *trainerRepository) RankingSignals(ctx context.Context) ([]RankingSignal, error) {
	var rows []RankingSignal
	err := t.db.WithContext(ctx).
		Table("trainer_profiles tp").
		Select(`tp.id AS trainer_id, tp.is_featured, tp.sort_order, tp.created_at,
			COALESCE(AVG(r.rating), 0) AS avg_rating, COUNT(r.id) AS review_count`).
		Joins("LEFT JOIN trainer_reviews r ON r.trainer_id = tp.id").
		Where("tp.status = ?", domain.TrainerActive).
		Group("tp.id").
		Order("tp.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (t *trainerRepository) MaxSortOrder(ctx context.Context) (int, error) {
	var max int
	err := t.db.WithContext(ctx).Model(&domain.TrainerProfile{}).
		Where("status <> ?", domain.TrainerDeleted).
		Select("COALESCE(MAX(sort_order), 0)").
		Scan(&max).Error
	return max, err
}
