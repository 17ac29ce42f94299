package repository

import (
	"context"
	"fmt"

	"github.com/SundayYogurt/trainer_service/internal/domain"
	"gorm.io/gorm"
)

// SchemaInspector reads and extends the trainer_profiles storage shape.
type SchemaInspector interface {
	HasColumn(ctx context.Context, column string) (bool, error)
	// AddColumn adds column using its model definition and default. It never
	// drops or rewrites existing columns.
	AddColumn(ctx context.Context, column string) error
}

type trainerSchemaInspector struct {
	db *gorm.DB
}

func NewTrainerSchemaInspector(db *gorm.DB) SchemaInspector {
	return &trainerSchemaInspector{db: db}
}

func (s *trainerSchemaInspector) HasColumn(ctx context.Context, column string) (bool, error) {
	return s.db.WithContext(ctx).Migrator().HasColumn(&domain.TrainerProfile{}, column), nil
}

func (s *trainerSchemaInspector) AddColumn(ctx context.Context, column string) error {
	m := s.db.WithContext(ctx).Migrator()
	if m.HasColumn(&domain.TrainerProfile{}, column) {
		return nil
	}
	if err := m.AddColumn(&domain.TrainerProfile{}, column); err != nil {
		return fmt.Errorf("add column %s: %w", column, err)
	}
	return nil
}
