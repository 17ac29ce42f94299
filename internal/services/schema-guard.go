package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/SundayYogurt/trainer_service/internal/repository"
)

// SchemaGuard makes sure the trainer storage carries the columns provisioning
// writes. Once verified present, a column is not checked again for the process
// lifetime; absent optional columns are re-checked on every call.
type SchemaGuard interface {
	EnsureSchema(ctx context.Context, required []string) error
	// Shape reports which of the optional columns are present.
	Shape(ctx context.Context, optional []string) (map[string]bool, error)
}

type schemaGuard struct {
	inspector repository.SchemaInspector
	log       *slog.Logger

	mu       sync.Mutex
	verified map[string]bool
	shape    map[string]bool
}

func NewSchemaGuard(inspector repository.SchemaInspector, log *slog.Logger) SchemaGuard {
	return &schemaGuard{
		inspector: inspector,
		log:       log,
		verified:  make(map[string]bool),
		shape:     make(map[string]bool),
	}
}

func (g *schemaGuard) EnsureSchema(ctx context.Context, required []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, column := range required {
		if g.verified[column] {
			continue
		}

		ok, err := g.inspector.HasColumn(ctx, column)
		if err != nil {
			return &SchemaMigrationError{Column: column, Err: err}
		}
		if !ok {
			g.log.Warn("trainer column missing, adding", "column", column)
			if err := g.inspector.AddColumn(ctx, column); err != nil {
				return &SchemaMigrationError{Column: column, Err: err}
			}
		}
		g.verified[column] = true
	}
	return nil
}

func (g *schemaGuard) Shape(ctx context.Context, optional []string) (map[string]bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make(map[string]bool, len(optional))
	for _, column := range optional {
		if g.shape[column] {
			out[column] = true
			continue
		}
		ok, err := g.inspector.HasColumn(ctx, column)
		if err != nil {
			return nil, err
		}
		if ok {
			g.shape[column] = true
		}
		out[column] = ok
	}
	return out, nil
}
