package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/SundayYogurt/trainer_service/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CapabilityRepository interface {
	// Grant adds the tag to the identity. Granting an existing tag is a no-op.
	Grant(ctx context.Context, identityID uint, code string) error
	Revoke(ctx context.Context, identityID uint, code string) error
	HasCapability(ctx context.Context, identityID uint, code string) (bool, error)
	Seed(ctx context.Context, codes ...string) error
}

type capabilityRepository struct {
	db *gorm.DB
}

func NewCapabilityRepository(db *gorm.DB) CapabilityRepository {
	return &capabilityRepository{db: db}
}

func (r *capabilityRepository) findByCode(tx *gorm.DB, code string) (*domain.Capability, error) {
	var c domain.Capability
	if err := tx.Where("code = ?", strings.ToLower(code)).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *capabilityRepository) Grant(ctx context.Context, identityID uint, code string) error {
	if identityID == 0 {
		return errors.New("invalid identity_id")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := r.findByCode(tx, code)
		if err != nil {
			return err
		}
		link := domain.IdentityCapability{IdentityID: identityID, CapabilityID: c.ID}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error
	})
}

func (r *capabilityRepository) Revoke(ctx context.Context, identityID uint, code string) error {
	return revokeCapability(r.db.WithContext(ctx), identityID, code)
}

func revokeCapability(tx *gorm.DB, identityID uint, code string) error {
	var c domain.Capability
	err := tx.Where("code = ?", code).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return tx.Where("identity_id = ? AND capability_id = ?", identityID, c.ID).Delete(&domain.IdentityCapability{}).Error
}

func (r *capabilityRepository) HasCapability(ctx context.Context, identityID uint, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("identity_capabilities").
		Joins("JOIN capabilities ON capabilities.id = identity_capabilities.capability_id").
		Where("identity_capabilities.identity_id = ? AND capabilities.code = ?", identityID, code).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *capabilityRepository) Seed(ctx context.Context, codes ...string) error {
	for _, code := range codes {
		c := domain.Capability{Code: code, Name: strings.ToUpper(code)}
		err := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}).
			Create(&c).Error
		if err != nil {
			return err
		}
	}
	return nil
}
