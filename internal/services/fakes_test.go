package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SundayYogurt/trainer_service/internal/domain"
	"github.com/SundayYogurt/trainer_service/internal/repository"
	"github.com/SundayYogurt/trainer_service/pkg/logger"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

var testEpoch = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// memStore is an in-memory stand-in for every repository the services use.
// It enforces the same unique constraints as the postgres schema.
type memStore struct {
	mu sync.Mutex

	identities   map[uint]*domain.Identity
	capabilities map[uint]map[string]bool
	applications map[uint]*domain.Application
	trainers     map[uint]*domain.TrainerProfile
	availability map[uint]int
	reviews      map[uint][]int
	audit        []domain.AuditLog
	columns      map[string]bool

	nextID uint
	tick   time.Duration

	hasColumnCalls int
	addColumnErr   error

	// lastOmit holds the omit list of the last accepted trainer insert.
	lastOmit []string
	// beforeCreateTrainer runs before the insert; a non-nil error aborts it.
	beforeCreateTrainer func(p *domain.TrainerProfile) error
	// beforeCreateIdentity runs before the insert with the store unlocked.
	beforeCreateIdentity func(i *domain.Identity)
}

var _ repository.IdentityRepository = (*memStore)(nil)
var _ repository.CapabilityRepository = (*memStore)(nil)
var _ repository.ApplicationRepository = (*memStore)(nil)
var _ repository.TrainerRepository = (*memStore)(nil)
var _ repository.AuditRepository = (*memStore)(nil)
var _ repository.SchemaInspector = (*memStore)(nil)

func newMemStore() *memStore {
	columns := map[string]bool{}
	for _, c := range domain.TrainerRequiredColumns {
		columns[c] = true
	}
	for _, c := range domain.TrainerApplicationColumns {
		columns[c] = true
	}
	return &memStore{
		identities:   map[uint]*domain.Identity{},
		capabilities: map[uint]map[string]bool{},
		applications: map[uint]*domain.Application{},
		trainers:     map[uint]*domain.TrainerProfile{},
		availability: map[uint]int{},
		reviews:      map[uint][]int{},
		columns:      columns,
	}
}

func (m *memStore) id() uint {
	m.nextID++
	return m.nextID
}

func (m *memStore) stamp() time.Time {
	m.tick += time.Second
	return testEpoch.Add(m.tick)
}

// IDENTITIES

func (m *memStore) CreateIdentity(ctx context.Context, identity *domain.Identity) error {
	if hook := m.beforeCreateIdentity; hook != nil {
		m.beforeCreateIdentity = nil
		hook(identity)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.identities {
		if strings.EqualFold(existing.Email, identity.Email) {
			return &repository.DuplicateError{Constraint: repository.ConstraintIdentityEmail, Err: errors.New("unique violation")}
		}
	}
	identity.ID = m.id()
	identity.CreatedAt = m.stamp()
	stored := *identity
	stored.Capabilities = nil
	m.identities[identity.ID] = &stored
	return nil
}

func (m *memStore) loadIdentity(i *domain.Identity) *domain.Identity {
	out := *i
	out.Capabilities = nil
	codes := make([]string, 0)
	for code := range m.capabilities[i.ID] {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		out.Capabilities = append(out.Capabilities, domain.Capability{Code: code, Name: strings.ToUpper(code)})
	}
	return &out
}

func (m *memStore) FindIdentityByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, i := range m.identities {
		if strings.EqualFold(i.Email, strings.TrimSpace(email)) {
			return m.loadIdentity(i), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) FindIdentityByID(ctx context.Context, id uint) (*domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.identities[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return m.loadIdentity(i), nil
}

func (m *memStore) SaveIdentity(ctx context.Context, identity *domain.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.identities[identity.ID]; !ok {
		return repository.ErrNotFound
	}
	stored := *identity
	stored.Capabilities = nil
	m.identities[identity.ID] = &stored
	return nil
}

func (m *memStore) ListDrifted(ctx context.Context) ([]domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	withProfile := map[uint]bool{}
	for _, p := range m.trainers {
		withProfile[p.IdentityID] = true
	}
	var out []domain.Identity
	for id, i := range m.identities {
		if m.capabilities[id][domain.CapabilityTrainer] && !withProfile[id] {
			out = append(out, *m.loadIdentity(i))
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

// CAPABILITIES

func (m *memStore) Grant(ctx context.Context, identityID uint, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.capabilities[identityID] == nil {
		m.capabilities[identityID] = map[string]bool{}
	}
	m.capabilities[identityID][code] = true
	return nil
}

func (m *memStore) Revoke(ctx context.Context, identityID uint, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.capabilities[identityID], code)
	return nil
}

func (m *memStore) HasCapability(ctx context.Context, identityID uint, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.capabilities[identityID][code], nil
}

func (m *memStore) Seed(ctx context.Context, codes ...string) error { return nil }

func (m *memStore) capabilityRows(identityID uint) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.capabilities[identityID])
}

// APPLICATIONS

func (m *memStore) CreateApplication(ctx context.Context, app *domain.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	app.ID = m.id()
	if app.Status == "" {
		app.Status = domain.ApplicationPending
	}
	app.CreatedAt = m.stamp()
	stored := *app
	m.applications[app.ID] = &stored
	return nil
}

func (m *memStore) FindApplicationByID(ctx context.Context, id uint) (*domain.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.applications[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *a
	return &out, nil
}

func (m *memStore) ListApplications(ctx context.Context, status domain.ApplicationStatus, limit, offset int) ([]domain.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Application
	for _, a := range m.applications {
		if status == "" || a.Status == status {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) FindLatestForIdentity(ctx context.Context, identityID uint, email string) (*domain.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *domain.Application
	for _, a := range m.applications {
		linked := a.IdentityID != nil && *a.IdentityID == identityID
		if !linked && !strings.EqualFold(a.Email, strings.TrimSpace(email)) {
			continue
		}
		if best == nil || a.CreatedAt.After(best.CreatedAt) || (a.CreatedAt.Equal(best.CreatedAt) && a.ID > best.ID) {
			best = a
		}
	}
	if best == nil {
		return nil, repository.ErrNotFound
	}
	out := *best
	return &out, nil
}

func (m *memStore) MarkApproved(ctx context.Context, id, identityID, adminID uint, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.applications[id]
	if !ok || a.Status != domain.ApplicationPending {
		return repository.ErrNotFound
	}
	a.Status = domain.ApplicationApproved
	a.IdentityID = &identityID
	a.ReviewedBy = &adminID
	a.ReviewedAt = &at
	return nil
}

func (m *memStore) MarkRejected(ctx context.Context, id, adminID uint, reason string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.applications[id]
	if !ok || a.Status != domain.ApplicationPending {
		return repository.ErrNotFound
	}
	a.Status = domain.ApplicationRejected
	a.ReviewedBy = &adminID
	a.ReviewedAt = &at
	if reason != "" {
		a.RejectReason = &reason
	}
	return nil
}

// TRAINERS

func (m *memStore) CreateTrainer(ctx context.Context, profile *domain.TrainerProfile, omit ...string) error {
	if hook := m.beforeCreateTrainer; hook != nil {
		if err := hook(profile); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// like an INSERT naming every model column, unless told to leave it out
	omitted := map[string]bool{}
	for _, c := range omit {
		omitted[c] = true
	}
	for _, c := range append(append([]string(nil), domain.TrainerRequiredColumns...), domain.TrainerApplicationColumns...) {
		if !m.columns[c] && !omitted[c] {
			return fmt.Errorf("column %q of relation \"trainer_profiles\" does not exist", c)
		}
	}
	m.lastOmit = append([]string(nil), omit...)
	for _, p := range m.trainers {
		if p.IdentityID == profile.IdentityID {
			return &repository.DuplicateError{Constraint: repository.ConstraintTrainerIdentity, Err: errors.New("unique violation")}
		}
		if p.Slug == profile.Slug {
			return &repository.DuplicateError{Constraint: repository.ConstraintTrainerSlug, Err: errors.New("unique violation")}
		}
	}
	profile.ID = m.id()
	profile.CreatedAt = m.stamp()
	if profile.Status == "" {
		profile.Status = domain.TrainerPending
	}
	stored := *profile
	m.trainers[profile.ID] = &stored
	return nil
}

// putTrainer inserts a profile directly, bypassing provisioning.
func (m *memStore) putTrainer(p domain.TrainerProfile) *domain.TrainerProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id()
	if p.IdentityID == 0 {
		p.IdentityID = 100000 + p.ID
	}
	if p.Slug == "" {
		p.Slug = fmt.Sprintf("trainer-%d", p.ID)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = m.stamp()
	}
	stored := p
	m.trainers[p.ID] = &stored
	out := p
	return &out
}

func (m *memStore) trainer(id uint) domain.TrainerProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.trainers[id]
}

func (m *memStore) trainerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.trainers)
}

func (m *memStore) FindTrainerByID(ctx context.Context, id uint) (*domain.TrainerProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.trainers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (m *memStore) FindTrainerByIdentityID(ctx context.Context, identityID uint) (*domain.TrainerProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.trainers {
		if p.IdentityID == identityID {
			out := *p
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.trainers {
		if p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ListTrainers(ctx context.Context, filter repository.TrainerFilter) ([]domain.TrainerProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.TrainerProfile
	for _, p := range m.trainers {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.Status == "" && p.Status == domain.TrainerDeleted {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) UpdateTrainer(ctx context.Context, id uint, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.trainers[id]
	if !ok {
		return repository.ErrNotFound
	}
	if slug, ok := fields["slug"].(string); ok {
		for _, other := range m.trainers {
			if other.ID != id && other.Slug == slug {
				return &repository.DuplicateError{Constraint: repository.ConstraintTrainerSlug, Err: errors.New("unique violation")}
			}
		}
	}
	updated := *p
	for column, v := range fields {
		if err := setTrainerColumn(&updated, column, v); err != nil {
			return err
		}
	}
	m.trainers[id] = &updated
	return nil
}

func setTrainerColumn(p *domain.TrainerProfile, column string, v any) error {
	switch column {
	case "status":
		p.Status = v.(domain.TrainerStatus)
	case "approved_at":
		at := v.(time.Time)
		p.ApprovedAt = &at
	case "onboarding_completed_at":
		at := v.(time.Time)
		p.OnboardingCompletedAt = &at
	case "display_name":
		p.DisplayName = v.(string)
	case "slug":
		p.Slug = v.(string)
	case "phone":
		p.Phone = v.(string)
	case "playing_level":
		p.PlayingLevel = v.(string)
	case "college":
		p.College = v.(string)
	case "headline":
		p.Headline = v.(string)
	case "bio":
		p.Bio = v.(string)
	case "photo_url":
		url := v.(string)
		p.PhotoURL = &url
	case "specialties":
		p.Specialties = v.(pq.StringArray)
	case "hourly_rate":
		p.HourlyRate = v.(decimal.Decimal)
	case "travel_radius":
		p.TravelRadius = v.(int)
	case "safesport_verified":
		p.SafeSportVerified = v.(bool)
	case "w9_submitted":
		p.W9Submitted = v.(bool)
	case "background_verified":
		p.BackgroundVerified = v.(bool)
	case "contractor_agreement_signed":
		p.ContractorAgreementSigned = v.(bool)
	case "payments_ready":
		p.PaymentsReady = v.(bool)
	case "is_featured":
		p.IsFeatured = v.(bool)
	case "sort_order":
		p.SortOrder = v.(int)
	default:
		return fmt.Errorf("unknown trainer column %q", column)
	}
	return nil
}

func (m *memStore) SetStatus(ctx context.Context, id uint, status domain.TrainerStatus, approvedAt *time.Time) error {
	fields := map[string]any{"status": status}
	if approvedAt != nil {
		fields["approved_at"] = *approvedAt
	}
	return m.UpdateTrainer(ctx, id, fields)
}

func (m *memStore) DeleteTrainer(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.trainers[id]
	if !ok || p.Status == domain.TrainerDeleted {
		return repository.ErrNotFound
	}
	delete(m.availability, id)
	delete(m.reviews, id)
	p.Status = domain.TrainerDeleted
	p.IsFeatured = false
	delete(m.capabilities[p.IdentityID], domain.CapabilityTrainer)
	return nil
}

func (m *memStore) CountDependents(ctx context.Context, id uint) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(m.availability[id]), int64(len(m.reviews[id])), nil
}

func (m *memStore) SetFeatured(ctx context.Context, ids []uint, featured bool) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var changed int64
	for _, id := range ids {
		p, ok := m.trainers[id]
		if !ok || p.Status == domain.TrainerDeleted || p.IsFeatured == featured {
			continue
		}
		p.IsFeatured = featured
		changed++
	}
	return changed, nil
}

func (m *memStore) CountExisting(ctx context.Context, ids []uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if p, ok := m.trainers[id]; ok && p.Status != domain.TrainerDeleted {
			n++
		}
	}
	return n, nil
}

func (m *memStore) SaveSortOrders(ctx context.Context, orders map[uint]int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, order := range orders {
		if p, ok := m.trainers[id]; ok {
			p.SortOrder = order
		}
	}
	return nil
}

func (m *memStore) RankingSignals(ctx context.Context) ([]repository.RankingSignal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.RankingSignal
	for _, p := range m.trainers {
		if p.Status != domain.TrainerActive {
			continue
		}
		s := repository.RankingSignal{
			TrainerID:  p.ID,
			IsFeatured: p.IsFeatured,
			SortOrder:  p.SortOrder,
			CreatedAt:  p.CreatedAt,
		}
		if ratings := m.reviews[p.ID]; len(ratings) > 0 {
			sum := 0
			for _, r := range ratings {
				sum += r
			}
			s.AvgRating = float64(sum) / float64(len(ratings))
			s.ReviewCount = int64(len(ratings))
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TrainerID < out[j].TrainerID })
	return out, nil
}

func (m *memStore) MaxSortOrder(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	max := 0
	for _, p := range m.trainers {
		if p.Status != domain.TrainerDeleted && p.SortOrder > max {
			max = p.SortOrder
		}
	}
	return max, nil
}

// AUDIT

func (m *memStore) Record(ctx context.Context, entry *domain.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = m.id()
	m.audit = append(m.audit, *entry)
	return nil
}

func (m *memStore) auditActions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.audit))
	for i, e := range m.audit {
		out[i] = e.Action
	}
	return out
}

// SCHEMA

func (m *memStore) HasColumn(ctx context.Context, column string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hasColumnCalls++
	return m.columns[column], nil
}

func (m *memStore) AddColumn(ctx context.Context, column string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addColumnErr != nil {
		return m.addColumnErr
	}
	m.columns[column] = true
	return nil
}

func (m *memStore) dropColumn(column string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.columns, column)
}

// DOUBLES

type fakeHasher struct{}

func (fakeHasher) HashPassword(plain string) (string, error) { return "hashed:" + plain, nil }

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
	err  error
}

func (n *recordingNotifier) Notify(ctx context.Context, msg domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) byTemplate(template string) []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []domain.Notification
	for _, msg := range n.sent {
		if msg.Template == template {
			out = append(out, msg)
		}
	}
	return out
}

// memScheduler mirrors the sorted-set scheduler: identical tasks collapse.
type memScheduler struct {
	mu    sync.Mutex
	tasks map[domain.ScheduledTask]struct{}
}

func newMemScheduler() *memScheduler {
	return &memScheduler{tasks: map[domain.ScheduledTask]struct{}{}}
}

func (s *memScheduler) Schedule(ctx context.Context, task domain.ScheduledTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task.RunAt = task.RunAt.UTC()
	s.tasks[task] = struct{}{}
	return nil
}

func (s *memScheduler) Due(ctx context.Context, now time.Time, limit int) ([]domain.ScheduledTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var due []domain.ScheduledTask
	for task := range s.tasks {
		if !task.RunAt.After(now) {
			due = append(due, task)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].RunAt.Equal(due[j].RunAt) {
			return due[i].RunAt.Before(due[j].RunAt)
		}
		return due[i].TrainerID < due[j].TrainerID
	})
	if len(due) > limit {
		due = due[:limit]
	}
	for _, task := range due {
		delete(s.tasks, task)
	}
	return due, nil
}

func (s *memScheduler) pending() []domain.ScheduledTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ScheduledTask, 0, len(s.tasks))
	for task := range s.tasks {
		out = append(out, task)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RunAt.Before(out[j].RunAt) })
	return out
}

type fakeUploader struct {
	url    string
	err    error
	folder string
	name   string
	bytes  int
}

func (u *fakeUploader) UploadBytes(ctx context.Context, folder, filename string, b []byte) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	u.folder, u.name, u.bytes = folder, filename, len(b)
	return u.url, nil
}

// harness wires the real services over the in-memory store.
type harness struct {
	store     *memStore
	bus       *EventBus
	gate      ComplianceGate
	guard     SchemaGuard
	resolver  IdentityResolver
	prov      *provisioner
	recon     Reconciler
	ranking   Ranking
	notifier  *recordingNotifier
	scheduler *memScheduler
	reminders Reminders
	uploader  *fakeUploader
	svc       TrainerService

	mu       sync.Mutex
	approved []TrainerApproved
	now      time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logger.Discard()

	h := &harness{
		store:     newMemStore(),
		notifier:  &recordingNotifier{},
		scheduler: newMemScheduler(),
		uploader:  &fakeUploader{url: "https://cdn.example.com/trainers/photo.jpg"},
		now:       testEpoch,
	}
	clock := func() time.Time {
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.now
	}

	h.bus = NewEventBus(log)
	h.gate = NewComplianceGate(nil)
	h.guard = NewSchemaGuard(h.store, log)
	h.resolver = NewIdentityResolver(h.store, h.store, fakeHasher{}, log)
	h.prov = NewProvisioner(h.store, h.store, h.guard, h.bus, nil, log).(*provisioner)
	h.prov.clock = clock
	h.recon = NewReconciler(h.store, h.store, h.store, h.prov, nil, log)
	h.ranking = NewRanking(h.store, log)
	h.reminders = NewReminders(h.scheduler, h.store, h.gate, h.notifier, "https://app.example.com/login", nil, log)

	h.bus.SubscribeTrainerApproved("capture", func(ctx context.Context, ev TrainerApproved) error {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.approved = append(h.approved, ev)
		return nil
	})
	h.bus.SubscribeTrainerApproved("reminders", func(ctx context.Context, ev TrainerApproved) error {
		return h.reminders.ScheduleFor(ctx, ev.TrainerID, ev.ApprovedAt)
	})
	h.bus.SubscribeTrainerApproved("ranking", h.ranking.PlaceNew)

	svc := NewTrainerService(TrainerServiceDeps{
		Applications: h.store,
		Identities:   h.store,
		Capabilities: h.store,
		Trainers:     h.store,
		Audit:        h.store,
		Resolver:     h.resolver,
		Provisioner:  h.prov,
		Gate:         h.gate,
		Ranking:      h.ranking,
		Reconciler:   h.recon,
		Notifier:     h.notifier,
		Uploader:     h.uploader,
		LoginURL:     "https://app.example.com/login",
		Log:          log,
	})
	svc.(*trainerService).clock = clock
	h.svc = svc
	return h
}

func (h *harness) advance(d time.Duration) time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.now = h.now.Add(d)
	return h.now
}

func (h *harness) events() []TrainerApproved {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]TrainerApproved(nil), h.approved...)
}

func (h *harness) apply(t *testing.T, name, email string) *domain.Application {
	t.Helper()
	app := &domain.Application{
		Name:         name,
		Email:        email,
		Phone:        "555-0100",
		PlayingLevel: "D1",
		College:      "State University",
		Specialties:  pq.StringArray{"serve", "footwork"},
		Headline:     "Former collegiate player",
		Bio:          "Ten years coaching juniors.",
		HourlyRate:   decimal.NewFromInt(80),
		TravelRadius: 25,
	}
	if err := h.store.CreateApplication(context.Background(), app); err != nil {
		t.Fatalf("create application: %v", err)
	}
	return app
}

// identity creates an identity directly, optionally tagged trainer.
func (h *harness) identity(t *testing.T, name, email string, trainer bool) *domain.Identity {
	t.Helper()
	ctx := context.Background()
	i := &domain.Identity{Email: email, DisplayName: name, PasswordHash: "hashed:original", Status: domain.IdentityStatusActive}
	if err := h.store.CreateIdentity(ctx, i); err != nil {
		t.Fatalf("create identity: %v", err)
	}
	if trainer {
		if err := h.store.Grant(ctx, i.ID, domain.CapabilityTrainer); err != nil {
			t.Fatalf("grant: %v", err)
		}
	}
	return i
}
