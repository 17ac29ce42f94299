package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SundayYogurt/trainer_service/internal/domain"
	"github.com/SundayYogurt/trainer_service/internal/helper/utils"
	"github.com/SundayYogurt/trainer_service/internal/metrics"
	"github.com/SundayYogurt/trainer_service/internal/repository"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// maxSlugSuffix bounds the counter walk before falling back to a random token.
const maxSlugSuffix = 1000

// ProfileSource is the best available data for a new trainer profile.
// Application is nil when rebuilding from the identity alone.
type ProfileSource struct {
	IdentityID  uint
	DisplayName string
	Email       string
	Phone       string
	Application *domain.Application
}

type ProvisionResult struct {
	Profile *domain.TrainerProfile
	// Reentrant is true when the identity already had a profile.
	Reentrant bool
}

type Provisioner interface {
	Provision(ctx context.Context, app *domain.Application, identity *domain.Identity) (*ProvisionResult, error)
	// Materialize assigns a slug, copies the source fields the storage shape
	// supports and inserts an active profile. It fires no events. created is
	// false when a profile for the identity already existed.
	Materialize(ctx context.Context, src ProfileSource) (profile *domain.TrainerProfile, created bool, err error)
}

type provisioner struct {
	trainers     repository.TrainerRepository
	applications repository.ApplicationRepository
	schema       SchemaGuard
	events       *EventBus
	metrics      *metrics.Metrics
	log          *slog.Logger
	clock        func() time.Time
}

func NewProvisioner(
	trainers repository.TrainerRepository,
	applications repository.ApplicationRepository,
	schema SchemaGuard,
	events *EventBus,
	m *metrics.Metrics,
	log *slog.Logger,
) Provisioner {
	return &provisioner{
		trainers:     trainers,
		applications: applications,
		schema:       schema,
		events:       events,
		metrics:      m,
		log:          log,
		clock:        time.Now,
	}
}

func (p *provisioner) Provision(ctx context.Context, app *domain.Application, identity *domain.Identity) (*ProvisionResult, error) {
	if app == nil || identity == nil || identity.ID == 0 {
		return nil, &ProvisioningError{Err: ErrInvalidInput}
	}
	if err := p.schema.EnsureSchema(ctx, domain.TrainerRequiredColumns); err != nil {
		return nil, err
	}

	existing, err := p.trainers.FindTrainerByIdentityID(ctx, identity.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, &ProvisioningError{ApplicationID: app.ID, IdentityID: identity.ID, Err: err}
	}

	result := &ProvisionResult{Profile: existing, Reentrant: existing != nil}
	if existing == nil {
		profile, created, err := p.Materialize(ctx, ProfileSource{
			IdentityID:  identity.ID,
			DisplayName: firstNonEmpty(app.Name, identity.DisplayName),
			Email:       identity.Email,
			Phone:       app.Phone,
			Application: app,
		})
		if err != nil {
			var pe *ProvisioningError
			if errors.As(err, &pe) {
				pe.ApplicationID = app.ID
			}
			return nil, err
		}
		result.Profile = profile
		result.Reentrant = !created
	}

	if result.Reentrant {
		if err := p.reactivate(ctx, result.Profile); err != nil {
			return nil, &ProvisioningError{ApplicationID: app.ID, IdentityID: identity.ID, Err: err}
		}
	}

	at := p.clock()
	if result.Profile.ApprovedAt != nil {
		at = *result.Profile.ApprovedAt
	}
	if err := p.applications.MarkApproved(ctx, app.ID, identity.ID, ActorFrom(ctx), at); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, &ProvisioningError{ApplicationID: app.ID, IdentityID: identity.ID, Err: fmt.Errorf("mark application approved: %w", err)}
		}
		// already reviewed; a retry of an approval that got this far
		p.log.Debug("application no longer pending", "application_id", app.ID)
	}

	p.events.PublishTrainerApproved(ctx, TrainerApproved{
		TrainerID:  result.Profile.ID,
		IdentityID: identity.ID,
		Email:      identity.Email,
		Slug:       result.Profile.Slug,
		ApprovedAt: at,
	})

	p.log.Info("trainer provisioned",
		"trainer_id", result.Profile.ID,
		"identity_id", identity.ID,
		"application_id", app.ID,
		"slug", result.Profile.Slug,
		"reentrant", result.Reentrant,
	)
	return result, nil
}

// reactivate is the re-entrant path: the profile already exists, so only the
// status and approval stamp change.
func (p *provisioner) reactivate(ctx context.Context, profile *domain.TrainerProfile) error {
	if profile.Status == domain.TrainerDeleted {
		return fmt.Errorf("%w: profile %d is deleted", ErrInvalidTransition, profile.ID)
	}
	now := p.clock()
	if err := p.trainers.SetStatus(ctx, profile.ID, domain.TrainerActive, &now); err != nil {
		return err
	}
	if profile.Status != domain.TrainerActive {
		p.metrics.IncTransition(string(profile.Status), string(domain.TrainerActive))
	}
	profile.Status = domain.TrainerActive
	profile.ApprovedAt = &now
	return nil
}

func (p *provisioner) Materialize(ctx context.Context, src ProfileSource) (*domain.TrainerProfile, bool, error) {
	if err := p.schema.EnsureSchema(ctx, domain.TrainerRequiredColumns); err != nil {
		return nil, false, err
	}
	shape, err := p.schema.Shape(ctx, domain.TrainerApplicationColumns)
	if err != nil {
		return nil, false, &ProvisioningError{IdentityID: src.IdentityID, Err: err}
	}

	name := firstNonEmpty(src.DisplayName, localPart(src.Email), "Trainer")
	slug, err := p.pickSlug(ctx, name, src.IdentityID)
	if err != nil {
		return nil, false, &ProvisioningError{IdentityID: src.IdentityID, Err: err}
	}

	now := p.clock()
	profile := &domain.TrainerProfile{
		IdentityID:  src.IdentityID,
		Slug:        slug,
		DisplayName: name,
		Status:      domain.TrainerActive,
		ApprovedAt:  &now,
	}
	p.copyShape(profile, src, shape)
	omit := absentColumns(shape)

	err = p.trainers.CreateTrainer(ctx, profile, omit...)
	if err != nil && errors.Is(err, repository.ErrDuplicate) && !repository.IsDuplicateOn(err, repository.ConstraintTrainerIdentity) {
		// slug taken between check and insert; retry once with a random suffix
		profile.ID = 0
		profile.Slug = fmt.Sprintf("%s-%s", slug, shortToken())
		p.log.Warn("slug collided at insert, retrying", "identity_id", src.IdentityID, "slug", slug, "retry_slug", profile.Slug)
		err = p.trainers.CreateTrainer(ctx, profile, omit...)
	}
	if err == nil {
		return profile, true, nil
	}

	// a concurrent provision or repair may have won the identity constraint
	if errors.Is(err, repository.ErrDuplicate) {
		existing, findErr := p.trainers.FindTrainerByIdentityID(ctx, src.IdentityID)
		if findErr == nil {
			return existing, false, nil
		}
	}
	return nil, false, &ProvisioningError{IdentityID: src.IdentityID, Err: err}
}

func (p *provisioner) pickSlug(ctx context.Context, name string, identityID uint) (string, error) {
	base := utils.Slugify(name)

	candidates := []string{base, fmt.Sprintf("%s-%d", base, identityID)}
	for _, c := range candidates {
		taken, err := p.trainers.SlugExists(ctx, c)
		if err != nil {
			return "", err
		}
		if !taken {
			return c, nil
		}
	}

	for n := 2; n <= maxSlugSuffix; n++ {
		c := fmt.Sprintf("%s-%d-%d", base, identityID, n)
		taken, err := p.trainers.SlugExists(ctx, c)
		if err != nil {
			return "", err
		}
		if !taken {
			return c, nil
		}
	}
	return fmt.Sprintf("%s-%d-%s", base, identityID, shortToken()), nil
}

// copyShape fills display columns that exist in storage. Absent columns are
// skipped here and omitted from the insert.
func (p *provisioner) copyShape(profile *domain.TrainerProfile, src ProfileSource, shape map[string]bool) {
	app := src.Application
	for _, column := range domain.TrainerApplicationColumns {
		if !shape[column] {
			p.log.Info("trainer column not in storage, skipping", "column", column, "identity_id", src.IdentityID)
			continue
		}
		switch column {
		case "email":
			profile.Email = src.Email
		case "phone":
			profile.Phone = src.Phone
		}
		if app == nil {
			continue
		}
		switch column {
		case "playing_level":
			profile.PlayingLevel = app.PlayingLevel
		case "college":
			profile.College = app.College
		case "specialties":
			profile.Specialties = append(pq.StringArray(nil), app.Specialties...)
		case "headline":
			profile.Headline = app.Headline
		case "bio":
			profile.Bio = app.Bio
		case "hourly_rate":
			profile.HourlyRate = app.HourlyRate
		case "travel_radius":
			profile.TravelRadius = app.TravelRadius
		}
	}
}

func absentColumns(shape map[string]bool) []string {
	var out []string
	for _, column := range domain.TrainerApplicationColumns {
		if !shape[column] {
			out = append(out, column)
		}
	}
	return out
}

func shortToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func localPart(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
