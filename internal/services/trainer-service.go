package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SundayYogurt/trainer_service/internal/domain"
	"github.com/SundayYogurt/trainer_service/internal/dto"
	"github.com/SundayYogurt/trainer_service/internal/helper/utils"
	"github.com/SundayYogurt/trainer_service/internal/interfaces"
	"github.com/SundayYogurt/trainer_service/internal/metrics"
	"github.com/SundayYogurt/trainer_service/internal/repository"
	imgutil "github.com/SundayYogurt/trainer_service/pkg/utils"
	"github.com/lib/pq"
)

const (
	photoFolder   = "trainers"
	photoMaxWidth = 1200
	photoQuality  = 85
)

// TrainerService is the administrative surface over trainer provisioning.
type TrainerService interface {
	// Applications
	ListApplications(ctx context.Context, status domain.ApplicationStatus, limit, offset int) ([]domain.Application, error)
	GetApplication(ctx context.Context, id uint) (*domain.Application, error)
	Approve(ctx context.Context, applicationID uint) (*dto.ApproveApplicationResponse, error)
	Reject(ctx context.Context, applicationID uint, reason string) error

	// Lifecycle
	ListTrainers(ctx context.Context, filter repository.TrainerFilter) ([]domain.TrainerProfile, error)
	GetTrainer(ctx context.Context, id uint) (*domain.TrainerProfile, error)
	Compliance(ctx context.Context, id uint) (Evaluation, error)
	Activate(ctx context.Context, id uint, override bool) (*domain.TrainerProfile, error)
	Deactivate(ctx context.Context, id uint) (*domain.TrainerProfile, error)
	Suspend(ctx context.Context, id uint) (*domain.TrainerProfile, error)
	Delete(ctx context.Context, id uint) error
	UpdateProfile(ctx context.Context, id uint, input dto.UpdateTrainerProfile) (*domain.TrainerProfile, error)
	UploadPhoto(ctx context.Context, id uint, data []byte) (string, error)

	// Ranking
	SetFeatured(ctx context.Context, id uint, featured bool) (int64, error)
	BulkSetFeatured(ctx context.Context, ids []uint, featured bool) (int64, error)
	SaveOrder(ctx context.Context, orderedIDs []uint) error
	AutoAssignSortOrders(ctx context.Context) (int, error)

	// Drift
	ScanDrift(ctx context.Context) ([]DriftEntry, error)
	Repair(ctx context.Context, identityID uint) (*RepairOutcome, error)
	RepairAll(ctx context.Context) (*RepairReport, error)
}

type trainerService struct {
	applications repository.ApplicationRepository
	identities   repository.IdentityRepository
	capabilities repository.CapabilityRepository
	trainers     repository.TrainerRepository
	audit        repository.AuditRepository

	resolver    IdentityResolver
	provisioner Provisioner
	gate        ComplianceGate
	ranking     Ranking
	reconciler  Reconciler
	notifier    Notifier
	uploader    interfaces.Uploader

	loginURL string
	metrics  *metrics.Metrics
	log      *slog.Logger
	clock    func() time.Time
}

type TrainerServiceDeps struct {
	Applications repository.ApplicationRepository
	Identities   repository.IdentityRepository
	Capabilities repository.CapabilityRepository
	Trainers     repository.TrainerRepository
	Audit        repository.AuditRepository

	Resolver    IdentityResolver
	Provisioner Provisioner
	Gate        ComplianceGate
	Ranking     Ranking
	Reconciler  Reconciler
	Notifier    Notifier
	Uploader    interfaces.Uploader

	LoginURL string
	Metrics  *metrics.Metrics
	Log      *slog.Logger
}

func NewTrainerService(d TrainerServiceDeps) TrainerService {
	return &trainerService{
		applications: d.Applications,
		identities:   d.Identities,
		capabilities: d.Capabilities,
		trainers:     d.Trainers,
		audit:        d.Audit,
		resolver:     d.Resolver,
		provisioner:  d.Provisioner,
		gate:         d.Gate,
		ranking:      d.Ranking,
		reconciler:   d.Reconciler,
		notifier:     d.Notifier,
		uploader:     d.Uploader,
		loginURL:     d.LoginURL,
		metrics:      d.Metrics,
		log:          d.Log,
		clock:        time.Now,
	}
}

// APPLICATIONS

func (s *trainerService) ListApplications(ctx context.Context, status domain.ApplicationStatus, limit, offset int) ([]domain.Application, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.applications.ListApplications(ctx, status, limit, offset)
}

func (s *trainerService) GetApplication(ctx context.Context, id uint) (*domain.Application, error) {
	app, err := s.applications.FindApplicationByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrApplicationNotFound
	}
	return app, err
}

func (s *trainerService) Approve(ctx context.Context, applicationID uint) (*dto.ApproveApplicationResponse, error) {
	app, err := s.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	switch app.Status {
	case domain.ApplicationRejected:
		return nil, ErrApplicationNotPending
	case domain.ApplicationApproved:
		return s.reapprove(ctx, app)
	}

	start := s.clock()
	if err := s.refuseDeletedProfile(ctx, app); err != nil {
		s.metrics.IncApproval("failed")
		s.log.Warn("approve: identity has a deleted trainer profile", "application_id", app.ID, "error", err)
		return nil, err
	}
	resolved, err := s.resolver.ResolveOrCreate(ctx, app)
	if err != nil {
		s.metrics.IncApproval("failed")
		s.log.Error("approve: identity resolution failed", "application_id", app.ID, "error", err)
		return nil, err
	}

	result, err := s.provisioner.Provision(ctx, app, resolved.Identity)
	if err != nil {
		s.metrics.IncApproval("failed")
		s.log.Error("approve: provisioning failed", "application_id", app.ID, "identity_id", resolved.Identity.ID, "error", err)
		return nil, err
	}
	s.metrics.ObserveProvision(s.clock().Sub(start))
	if result.Reentrant {
		s.metrics.IncApproval("reentrant")
	} else {
		s.metrics.IncApproval("provisioned")
	}

	data := map[string]string{
		"Name":     result.Profile.DisplayName,
		"Slug":     result.Profile.Slug,
		"Email":    resolved.Identity.Email,
		"LoginURL": s.loginURL,
	}
	if resolved.OneTimeCredential != "" {
		data["Password"] = resolved.OneTimeCredential
	}
	s.notify(ctx, domain.Notification{
		Template: domain.TemplateTrainerApproved,
		Channel:  domain.ChannelEmail,
		To:       resolved.Identity.Email,
		Data:     data,
	})
	s.record(ctx, "approve", domain.AuditEntityApplication, app.ID, nil)

	return &dto.ApproveApplicationResponse{
		ApplicationID:   app.ID,
		IdentityID:      resolved.Identity.ID,
		TrainerID:       result.Profile.ID,
		Slug:            result.Profile.Slug,
		IdentityCreated: resolved.Created,
	}, nil
}

// refuseDeletedProfile fails when the application resolves to an identity whose
// trainer profile was deleted. It runs before the resolver so a refused approval
// leaves the stored credential and capability tags untouched.
func (s *trainerService) refuseDeletedProfile(ctx context.Context, app *domain.Application) error {
	identity, err := s.resolver.Lookup(ctx, app)
	if err != nil || identity == nil {
		// resolution reports its own errors
		return nil
	}
	profile, err := s.trainers.FindTrainerByIdentityID(ctx, identity.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return &ProvisioningError{ApplicationID: app.ID, IdentityID: identity.ID, Err: err}
	}
	if profile.Status == domain.TrainerDeleted {
		return &ProvisioningError{
			ApplicationID: app.ID,
			IdentityID:    identity.ID,
			Err:           fmt.Errorf("%w: profile %d is deleted", ErrInvalidTransition, profile.ID),
		}
	}
	return nil
}

// reapprove handles an approval call for an application that is already
// approved. Credentials are left alone; only a missing profile is rebuilt.
func (s *trainerService) reapprove(ctx context.Context, app *domain.Application) (*dto.ApproveApplicationResponse, error) {
	var identity *domain.Identity
	var err error
	if app.IdentityID != nil {
		identity, err = s.identities.FindIdentityByID(ctx, *app.IdentityID)
	} else {
		identity, err = s.identities.FindIdentityByEmail(ctx, app.Email)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &IdentityCreationError{Email: app.Email, Err: ErrIdentityNotFound}
	}
	if err != nil {
		return nil, err
	}

	resp := &dto.ApproveApplicationResponse{
		ApplicationID:   app.ID,
		IdentityID:      identity.ID,
		AlreadyApproved: true,
	}

	profile, err := s.trainers.FindTrainerByIdentityID(ctx, identity.ID)
	if err == nil {
		resp.TrainerID = profile.ID
		resp.Slug = profile.Slug
		s.metrics.IncApproval("reentrant")
		return resp, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if err := s.capabilities.Grant(ctx, identity.ID, domain.CapabilityTrainer); err != nil {
		return nil, &IdentityCreationError{Email: identity.Email, Err: err}
	}
	result, err := s.provisioner.Provision(ctx, app, identity)
	if err != nil {
		s.metrics.IncApproval("failed")
		return nil, err
	}
	s.metrics.IncApproval("reentrant")
	resp.TrainerID = result.Profile.ID
	resp.Slug = result.Profile.Slug
	return resp, nil
}

func (s *trainerService) Reject(ctx context.Context, applicationID uint, reason string) error {
	app, err := s.GetApplication(ctx, applicationID)
	if err != nil {
		return err
	}
	if app.Status != domain.ApplicationPending {
		return ErrApplicationNotPending
	}

	reason = strings.TrimSpace(reason)
	if err := s.applications.MarkRejected(ctx, app.ID, ActorFrom(ctx), reason, s.clock()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrApplicationNotPending
		}
		return err
	}

	s.notify(ctx, domain.Notification{
		Template: domain.TemplateApplicationRejected,
		Channel:  domain.ChannelEmail,
		To:       app.Email,
		Data:     map[string]string{"Name": app.Name, "Reason": reason},
	})
	s.record(ctx, "reject", domain.AuditEntityApplication, app.ID, &reason)
	return nil
}

// LIFECYCLE

func (s *trainerService) ListTrainers(ctx context.Context, filter repository.TrainerFilter) ([]domain.TrainerProfile, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, filter.Status)
	}
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	profiles, err := s.trainers.ListTrainers(ctx, filter)
	if err != nil {
		return nil, err
	}
	SortForDisplay(profiles)
	return profiles, nil
}

func (s *trainerService) GetTrainer(ctx context.Context, id uint) (*domain.TrainerProfile, error) {
	profile, err := s.trainers.FindTrainerByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTrainerNotFound
	}
	return profile, err
}

func (s *trainerService) Compliance(ctx context.Context, id uint) (Evaluation, error) {
	profile, err := s.GetTrainer(ctx, id)
	if err != nil {
		return Evaluation{}, err
	}
	return s.gate.Evaluate(profile), nil
}

func (s *trainerService) Activate(ctx context.Context, id uint, override bool) (*domain.TrainerProfile, error) {
	profile, err := s.GetTrainer(ctx, id)
	if err != nil {
		return nil, err
	}

	switch profile.Status {
	case domain.TrainerActive:
		return profile, nil
	case domain.TrainerDeleted:
		return nil, ErrInvalidTransition
	}

	eval := s.gate.Evaluate(profile)
	switch {
	case eval.Eligible:
		s.metrics.IncGate("allowed")
	case override:
		s.metrics.IncGate("overridden")
		s.log.Warn("activation gate overridden", "trainer_id", id, "missing", eval.Missing, "admin_id", ActorFrom(ctx))
	default:
		s.metrics.IncGate("refused")
		return nil, &ComplianceGateViolation{TrainerID: id, Missing: eval.Missing}
	}

	var approvedAt *time.Time
	if profile.ApprovedAt == nil {
		now := s.clock()
		approvedAt = &now
	}
	if err := s.transition(ctx, profile, domain.TrainerActive, approvedAt); err != nil {
		return nil, err
	}

	var note *string
	if override && !eval.Eligible {
		n := "gate overridden"
		note = &n
	}
	s.record(ctx, "activate", domain.AuditEntityTrainer, id, note)
	return profile, nil
}

func (s *trainerService) Deactivate(ctx context.Context, id uint) (*domain.TrainerProfile, error) {
	profile, err := s.GetTrainer(ctx, id)
	if err != nil {
		return nil, err
	}

	switch profile.Status {
	case domain.TrainerInactive:
		return profile, nil
	case domain.TrainerActive:
	default:
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, profile.Status, domain.TrainerInactive)
	}

	if err := s.transition(ctx, profile, domain.TrainerInactive, nil); err != nil {
		return nil, err
	}
	s.record(ctx, "deactivate", domain.AuditEntityTrainer, id, nil)
	return profile, nil
}

func (s *trainerService) Suspend(ctx context.Context, id uint) (*domain.TrainerProfile, error) {
	profile, err := s.GetTrainer(ctx, id)
	if err != nil {
		return nil, err
	}

	switch profile.Status {
	case domain.TrainerSuspended:
		return profile, nil
	case domain.TrainerDeleted:
		return nil, ErrInvalidTransition
	}

	if err := s.transition(ctx, profile, domain.TrainerSuspended, nil); err != nil {
		return nil, err
	}
	s.record(ctx, "suspend", domain.AuditEntityTrainer, id, nil)
	return profile, nil
}

func (s *trainerService) Delete(ctx context.Context, id uint) error {
	profile, err := s.GetTrainer(ctx, id)
	if err != nil {
		return err
	}
	if profile.Status == domain.TrainerDeleted {
		return nil
	}

	if err := s.trainers.DeleteTrainer(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	s.metrics.IncTransition(string(profile.Status), string(domain.TrainerDeleted))
	s.log.Info("trainer deleted", "trainer_id", id, "identity_id", profile.IdentityID, "admin_id", ActorFrom(ctx))
	s.record(ctx, "delete", domain.AuditEntityTrainer, id, nil)
	return nil
}

func (s *trainerService) transition(ctx context.Context, profile *domain.TrainerProfile, to domain.TrainerStatus, approvedAt *time.Time) error {
	from := profile.Status
	if err := s.trainers.SetStatus(ctx, profile.ID, to, approvedAt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTrainerNotFound
		}
		return err
	}
	profile.Status = to
	if approvedAt != nil {
		profile.ApprovedAt = approvedAt
	}
	s.metrics.IncTransition(string(from), string(to))
	s.log.Info("trainer status changed", "trainer_id", profile.ID, "from", from, "to", to, "admin_id", ActorFrom(ctx))
	return nil
}

func (s *trainerService) UpdateProfile(ctx context.Context, id uint, input dto.UpdateTrainerProfile) (*domain.TrainerProfile, error) {
	profile, err := s.GetTrainer(ctx, id)
	if err != nil {
		return nil, err
	}
	if profile.Status == domain.TrainerDeleted {
		return nil, ErrInvalidTransition
	}

	fields, err := s.profileFields(ctx, profile, input)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return profile, nil
	}

	if err := s.trainers.UpdateTrainer(ctx, id, fields); err != nil {
		if repository.IsDuplicateOn(err, repository.ConstraintTrainerSlug) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}

	updated, err := s.GetTrainer(ctx, id)
	if err != nil {
		return nil, err
	}
	if updated.OnboardingCompletedAt == nil && s.gate.Evaluate(updated).Eligible {
		now := s.clock()
		if err := s.trainers.UpdateTrainer(ctx, id, map[string]any{"onboarding_completed_at": now}); err != nil {
			return nil, err
		}
		updated.OnboardingCompletedAt = &now
		s.log.Info("trainer onboarding completed", "trainer_id", id)
	}

	s.record(ctx, "update_profile", domain.AuditEntityTrainer, id, nil)
	return updated, nil
}

func (s *trainerService) profileFields(ctx context.Context, profile *domain.TrainerProfile, in dto.UpdateTrainerProfile) (map[string]any, error) {
	fields := map[string]any{}

	if in.DisplayName != nil {
		name := strings.TrimSpace(*in.DisplayName)
		if name == "" {
			return nil, fmt.Errorf("%w: display_name is empty", ErrInvalidInput)
		}
		fields["display_name"] = name
	}
	if in.Slug != nil {
		slug := utils.Slugify(*in.Slug)
		if slug != profile.Slug {
			taken, err := s.trainers.SlugExists(ctx, slug)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, ErrSlugTaken
			}
			fields["slug"] = slug
		}
	}

	setString := func(column string, v *string) {
		if v != nil {
			fields[column] = strings.TrimSpace(*v)
		}
	}
	setString("phone", in.Phone)
	setString("playing_level", in.PlayingLevel)
	setString("college", in.College)
	setString("headline", in.Headline)
	setString("bio", in.Bio)

	if in.Specialties != nil {
		fields["specialties"] = pq.StringArray(in.Specialties)
	}
	if in.HourlyRate != nil {
		if in.HourlyRate.IsNegative() {
			return nil, fmt.Errorf("%w: hourly_rate is negative", ErrInvalidInput)
		}
		fields["hourly_rate"] = in.HourlyRate.Round(2)
	}
	if in.TravelRadius != nil {
		if *in.TravelRadius < 0 {
			return nil, fmt.Errorf("%w: travel_radius is negative", ErrInvalidInput)
		}
		fields["travel_radius"] = *in.TravelRadius
	}

	setBool := func(column string, v *bool) {
		if v != nil {
			fields[column] = *v
		}
	}
	setBool(string(domain.RequirementSafeSport), in.SafeSportVerified)
	setBool(string(domain.RequirementW9), in.W9Submitted)
	setBool(string(domain.RequirementBackground), in.BackgroundVerified)
	setBool(string(domain.RequirementContractorAgreement), in.ContractorAgreementSigned)
	setBool("payments_ready", in.PaymentsReady)

	return fields, nil
}

func (s *trainerService) UploadPhoto(ctx context.Context, id uint, data []byte) (string, error) {
	profile, err := s.GetTrainer(ctx, id)
	if err != nil {
		return "", err
	}
	if profile.Status == domain.TrainerDeleted {
		return "", ErrInvalidTransition
	}

	jpg, err := imgutil.NormalizeToJPG(data, photoMaxWidth, photoQuality)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	url, err := s.uploader.UploadBytes(ctx, photoFolder, profile.Slug, jpg)
	if err != nil {
		return "", err
	}
	if err := s.trainers.UpdateTrainer(ctx, id, map[string]any{"photo_url": url}); err != nil {
		return "", err
	}
	s.record(ctx, "upload_photo", domain.AuditEntityTrainer, id, nil)
	return url, nil
}

// RANKING

func (s *trainerService) SetFeatured(ctx context.Context, id uint, featured bool) (int64, error) {
	changed, err := s.ranking.SetFeatured(ctx, id, featured)
	if err != nil {
		return 0, err
	}
	s.record(ctx, "set_featured", domain.AuditEntityTrainer, id, nil)
	return changed, nil
}

func (s *trainerService) BulkSetFeatured(ctx context.Context, ids []uint, featured bool) (int64, error) {
	changed, err := s.ranking.BulkSetFeatured(ctx, ids, featured)
	if err != nil {
		return 0, err
	}
	note := fmt.Sprintf("%d trainers, featured=%t", len(ids), featured)
	s.record(ctx, "bulk_set_featured", domain.AuditEntityTrainer, 0, &note)
	return changed, nil
}

func (s *trainerService) SaveOrder(ctx context.Context, orderedIDs []uint) error {
	if err := s.ranking.SaveOrder(ctx, orderedIDs); err != nil {
		return err
	}
	note := fmt.Sprintf("%d trainers", len(orderedIDs))
	s.record(ctx, "save_order", domain.AuditEntityTrainer, 0, &note)
	return nil
}

func (s *trainerService) AutoAssignSortOrders(ctx context.Context) (int, error) {
	changed, err := s.ranking.AutoAssignSortOrders(ctx)
	if err != nil {
		return 0, err
	}
	s.record(ctx, "auto_assign", domain.AuditEntityTrainer, 0, nil)
	return changed, nil
}

// DRIFT

func (s *trainerService) ScanDrift(ctx context.Context) ([]DriftEntry, error) {
	return s.reconciler.FindDrift(ctx)
}

func (s *trainerService) Repair(ctx context.Context, identityID uint) (*RepairOutcome, error) {
	outcome, err := s.reconciler.Repair(ctx, identityID)
	if err != nil {
		return nil, err
	}
	s.record(ctx, "repair", domain.AuditEntityIdentity, identityID, nil)
	return outcome, nil
}

func (s *trainerService) RepairAll(ctx context.Context) (*RepairReport, error) {
	report, err := s.reconciler.RepairAll(ctx)
	if err != nil {
		return nil, err
	}
	note := fmt.Sprintf("scanned=%d repaired=%d partial=%d failed=%d", report.Scanned, report.Repaired, report.Partial, report.Failed)
	s.record(ctx, "repair_all", domain.AuditEntityIdentity, 0, &note)
	return report, nil
}

// notify is fire-and-forget; a failed dispatch never undoes the transition.
func (s *trainerService) notify(ctx context.Context, n domain.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.log.Error("notification failed", "template", n.Template, "to", n.To, "error", err)
	}
}

func (s *trainerService) record(ctx context.Context, action, entity string, entityID uint, note *string) {
	if s.audit == nil {
		return
	}
	entry := &domain.AuditLog{
		ActorID:  ActorFrom(ctx),
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Note:     note,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.log.Error("audit record failed", "action", action, "entity_id", entityID, "error", err)
	}
}
