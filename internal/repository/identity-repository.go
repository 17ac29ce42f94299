package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/SundayYogurt/trainer_service/internal/domain"
	"gorm.io/gorm"
)

type IdentityRepository interface {
	CreateIdentity(ctx context.Context, identity *domain.Identity) error
	FindIdentityByEmail(ctx context.Context, email string) (*domain.Identity, error)
	FindIdentityByID(ctx context.Context, identityID uint) (*domain.Identity, error)
	SaveIdentity(ctx context.Context, identity *domain.Identity) error
	// ListDrifted returns identities tagged trainer that have no trainer profile row.
	ListDrifted(ctx context.Context) ([]domain.Identity, error)
}

type identityRepository struct {
	db *gorm.DB
}

func NewIdentityRepository(db *gorm.DB) IdentityRepository {
	return &identityRepository{db: db}
}

func (r *identityRepository) CreateIdentity(ctx context.Context, identity *domain.Identity) error {
	if identity == nil {
		return errors.New("nil identity")
	}
	return translate(r.db.WithContext(ctx).Omit("Capabilities").Create(identity).Error)
}

func (r *identityRepository) FindIdentityByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	identity := &domain.Identity{}
	err := r.db.WithContext(ctx).
		Preload("Capabilities").
		Where("lower(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(identity).Error
	if err != nil {
		return nil, translate(err)
	}
	return identity, nil
}

func (r *identityRepository) FindIdentityByID(ctx context.Context, identityID uint) (*domain.Identity, error) {
	identity := &domain.Identity{}
	if err := r.db.WithContext(ctx).Preload("Capabilities").First(identity, identityID).Error; err != nil {
		return nil, translate(err)
	}
	return identity, nil
}

func (r *identityRepository) SaveIdentity(ctx context.Context, identity *domain.Identity) error {
	if identity == nil {
		return errors.New("nil identity")
	}
	return translate(r.db.WithContext(ctx).Omit("Capabilities").Save(identity).Error)
}

func (r *identityRepository) ListDrifted(ctx context.Context) ([]domain.Identity, error) {
	var identities []domain.Identity
	err := r.db.WithContext(ctx).
		Preload("Capabilities").
		Joins("JOIN identity_capabilities ic ON ic.identity_id = identities.id").
		Joins("JOIN capabilities c ON c.id = ic.capability_id AND c.code = ?", domain.CapabilityTrainer).
		Joins("LEFT JOIN trainer_profiles tp ON tp.identity_id = identities.id").
		Where("tp.id IS NULL").
		Order("identities.id ASC").
		Find(&identities).Error
	if err != nil {
		return nil, err
	}
	return identities, nil
}
