package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/SundayYogurt/trainer_service/internal/domain"
	"github.com/SundayYogurt/trainer_service/internal/metrics"
	"github.com/SundayYogurt/trainer_service/internal/repository"
)

// DriftEntry is an identity tagged trainer with no trainer profile.
type DriftEntry struct {
	Identity             domain.Identity
	SuspectedApplication *domain.Application
}

type RepairOutcome struct {
	IdentityID uint
	TrainerID  uint
	Slug       string
	// Created is false when a profile already existed at repair time.
	Created bool
	// Partial is set when no application was found and the profile was built
	// from identity fields only.
	Partial bool
}

type RepairReport struct {
	Scanned  int             `json:"scanned"`
	Repaired int             `json:"repaired"`
	Partial  int             `json:"partial"`
	Failed   int             `json:"failed"`
	Outcomes []RepairOutcome `json:"-"`
}

type Reconciler interface {
	FindDrift(ctx context.Context) ([]DriftEntry, error)
	Repair(ctx context.Context, identityID uint) (*RepairOutcome, error)
	RepairAll(ctx context.Context) (*RepairReport, error)
}

type reconciler struct {
	identities   repository.IdentityRepository
	applications repository.ApplicationRepository
	trainers     repository.TrainerRepository
	provisioner  Provisioner
	metrics      *metrics.Metrics
	log          *slog.Logger
}

func NewReconciler(
	identities repository.IdentityRepository,
	applications repository.ApplicationRepository,
	trainers repository.TrainerRepository,
	provisioner Provisioner,
	m *metrics.Metrics,
	log *slog.Logger,
) Reconciler {
	return &reconciler{
		identities:   identities,
		applications: applications,
		trainers:     trainers,
		provisioner:  provisioner,
		metrics:      m,
		log:          log,
	}
}

func (r *reconciler) FindDrift(ctx context.Context) ([]DriftEntry, error) {
	drifted, err := r.identities.ListDrifted(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]DriftEntry, 0, len(drifted))
	for _, identity := range drifted {
		entry := DriftEntry{Identity: identity}
		app, err := r.applications.FindLatestForIdentity(ctx, identity.ID, identity.Email)
		switch {
		case err == nil:
			entry.SuspectedApplication = app
		case !errors.Is(err, repository.ErrNotFound):
			return nil, err
		}
		entries = append(entries, entry)
	}

	r.metrics.SetDrift(len(entries))
	r.log.Info("drift scan complete", "drifted", len(entries))
	return entries, nil
}

func (r *reconciler) Repair(ctx context.Context, identityID uint) (*RepairOutcome, error) {
	identity, err := r.identities.FindIdentityByID(ctx, identityID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrIdentityNotFound
	}
	if err != nil {
		return nil, err
	}

	// re-check right before insert; provisioning may have run since the scan
	existing, err := r.trainers.FindTrainerByIdentityID(ctx, identity.ID)
	if err == nil {
		return &RepairOutcome{IdentityID: identity.ID, TrainerID: existing.ID, Slug: existing.Slug}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if !identity.HasCapability(domain.CapabilityTrainer) {
		return nil, errors.Join(ErrInvalidInput, errors.New("identity is not tagged trainer"))
	}

	src := ProfileSource{
		IdentityID:  identity.ID,
		DisplayName: identity.DisplayName,
		Email:       identity.Email,
	}
	if identity.Phone != nil {
		src.Phone = *identity.Phone
	}

	partial := false
	app, err := r.applications.FindLatestForIdentity(ctx, identity.ID, identity.Email)
	switch {
	case err == nil:
		src.Application = app
		src.DisplayName = firstNonEmpty(app.Name, identity.DisplayName)
		src.Phone = firstNonEmpty(app.Phone, src.Phone)
	case errors.Is(err, repository.ErrNotFound):
		partial = true
		derr := &DriftRepairError{IdentityID: identity.ID, Reason: "no application found, using identity fields"}
		r.log.Warn("drift repair degraded", "identity_id", identity.ID, "error", derr)
	default:
		return nil, err
	}

	profile, created, err := r.provisioner.Materialize(ctx, src)
	if err != nil {
		r.metrics.IncRepair("failed")
		return nil, err
	}

	outcome := &RepairOutcome{
		IdentityID: identity.ID,
		TrainerID:  profile.ID,
		Slug:       profile.Slug,
		Created:    created,
		Partial:    partial && created,
	}
	if outcome.Partial {
		r.metrics.IncRepair("partial")
	} else {
		r.metrics.IncRepair("repaired")
	}
	r.log.Info("drift repaired", "identity_id", identity.ID, "trainer_id", profile.ID, "slug", profile.Slug, "partial", outcome.Partial)
	return outcome, nil
}

func (r *reconciler) RepairAll(ctx context.Context) (*RepairReport, error) {
	drifted, err := r.FindDrift(ctx)
	if err != nil {
		return nil, err
	}

	report := &RepairReport{Scanned: len(drifted)}
	for _, entry := range drifted {
		outcome, err := r.Repair(ctx, entry.Identity.ID)
		if err != nil {
			report.Failed++
			r.log.Error("drift repair failed", "identity_id", entry.Identity.ID, "error", err)
			continue
		}
		report.Repaired++
		if outcome.Partial {
			report.Partial++
		}
		report.Outcomes = append(report.Outcomes, *outcome)
	}

	r.log.Info("drift repair pass complete",
		"scanned", report.Scanned,
		"repaired", report.Repaired,
		"partial", report.Partial,
		"failed", report.Failed,
	)
	return report, nil
}
