package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SundayYogurt/trainer_service/internal/domain"
	"github.com/SundayYogurt/trainer_service/internal/helper/utils"
	"github.com/SundayYogurt/trainer_service/internal/repository"
)

// generatedCredentialBytes sizes the one-time password handed to a new trainer.
const generatedCredentialBytes = 12

type PasswordHasher interface {
	HashPassword(plain string) (string, error)
}

// ResolvedIdentity is the outcome of resolving an application to an account.
// OneTimeCredential is set only when a password was generated and must be
// delivered out of band.
type ResolvedIdentity struct {
	Identity          *domain.Identity
	Created           bool
	OneTimeCredential string
}

type IdentityResolver interface {
	ResolveOrCreate(ctx context.Context, app *domain.Application) (*ResolvedIdentity, error)
	// Lookup finds the identity app would resolve to without writing anything.
	// It returns nil when no identity exists yet.
	Lookup(ctx context.Context, app *domain.Application) (*domain.Identity, error)
}

type identityResolver struct {
	identities   repository.IdentityRepository
	capabilities repository.CapabilityRepository
	hasher       PasswordHasher
	log          *slog.Logger
}

func NewIdentityResolver(
	identities repository.IdentityRepository,
	capabilities repository.CapabilityRepository,
	hasher PasswordHasher,
	log *slog.Logger,
) IdentityResolver {
	return &identityResolver{
		identities:   identities,
		capabilities: capabilities,
		hasher:       hasher,
		log:          log,
	}
}

func (r *identityResolver) ResolveOrCreate(ctx context.Context, app *domain.Application) (*ResolvedIdentity, error) {
	if app == nil {
		return nil, &IdentityCreationError{Err: ErrInvalidInput}
	}
	email, err := utils.NormalizeEmail(app.Email)
	if err != nil {
		return nil, &IdentityCreationError{Email: app.Email, Err: fmt.Errorf("%w: %v", ErrInvalidInput, err)}
	}

	identity, err := r.lookup(ctx, app, email)
	if err != nil {
		return nil, &IdentityCreationError{Email: email, Err: err}
	}

	var out *ResolvedIdentity
	if identity == nil {
		out, err = r.create(ctx, app, email)
	} else {
		out, err = r.reassign(ctx, app, identity)
	}
	if err != nil {
		return nil, err
	}

	if err := r.capabilities.Grant(ctx, out.Identity.ID, domain.CapabilityTrainer); err != nil {
		return nil, &IdentityCreationError{Email: email, Err: fmt.Errorf("grant trainer tag: %w", err)}
	}
	return out, nil
}

func (r *identityResolver) Lookup(ctx context.Context, app *domain.Application) (*domain.Identity, error) {
	if app == nil {
		return nil, &IdentityCreationError{Err: ErrInvalidInput}
	}
	email, err := utils.NormalizeEmail(app.Email)
	if err != nil {
		return nil, &IdentityCreationError{Email: app.Email, Err: fmt.Errorf("%w: %v", ErrInvalidInput, err)}
	}
	identity, err := r.lookup(ctx, app, email)
	if err != nil {
		return nil, &IdentityCreationError{Email: email, Err: err}
	}
	return identity, nil
}

// lookup prefers an explicit identity link on the application, then email.
func (r *identityResolver) lookup(ctx context.Context, app *domain.Application, email string) (*domain.Identity, error) {
	if app.IdentityID != nil && *app.IdentityID != 0 {
		identity, err := r.identities.FindIdentityByID(ctx, *app.IdentityID)
		if err == nil {
			return identity, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		r.log.Warn("application links a missing identity, falling back to email",
			"application_id", app.ID, "identity_id", *app.IdentityID)
	}

	identity, err := r.identities.FindIdentityByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return identity, err
}

func (r *identityResolver) create(ctx context.Context, app *domain.Application, email string) (*ResolvedIdentity, error) {
	hash, plain, err := r.credential(app)
	if err != nil {
		return nil, &IdentityCreationError{Email: email, Err: err}
	}

	identity := &domain.Identity{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(app.Name),
		Status:       domain.IdentityStatusActive,
	}
	if phone := strings.TrimSpace(app.Phone); phone != "" {
		identity.Phone = &phone
	}

	err = r.identities.CreateIdentity(ctx, identity)
	if err == nil {
		r.log.Info("identity created", "identity_id", identity.ID, "application_id", app.ID)
		return &ResolvedIdentity{Identity: identity, Created: true, OneTimeCredential: plain}, nil
	}
	if !errors.Is(err, repository.ErrDuplicate) {
		return nil, &IdentityCreationError{Email: email, Err: err}
	}

	// lost a race on the email constraint; the winner's row is authoritative
	existing, findErr := r.identities.FindIdentityByEmail(ctx, email)
	if findErr != nil {
		return nil, &IdentityCreationError{Email: email, Err: fmt.Errorf("email collision unresolved: %w", err)}
	}
	return r.reassign(ctx, app, existing)
}

// reassign installs the application's credential on an existing identity:
// a preset hash overwrites, otherwise a fresh one-time credential is rotated in.
func (r *identityResolver) reassign(ctx context.Context, app *domain.Application, identity *domain.Identity) (*ResolvedIdentity, error) {
	hash, plain, err := r.credential(app)
	if err != nil {
		return nil, &IdentityCreationError{Email: identity.Email, Err: err}
	}

	identity.PasswordHash = hash
	if err := r.identities.SaveIdentity(ctx, identity); err != nil {
		return nil, &IdentityCreationError{Email: identity.Email, Err: err}
	}

	if plain != "" {
		r.log.Warn("rotated credential on existing identity", "identity_id", identity.ID, "application_id", app.ID)
	} else {
		r.log.Info("installed submitted credential on existing identity", "identity_id", identity.ID, "application_id", app.ID)
	}
	return &ResolvedIdentity{Identity: identity, OneTimeCredential: plain}, nil
}

func (r *identityResolver) credential(app *domain.Application) (hash string, plain string, err error) {
	if app.HasPresetCredential() {
		return *app.PasswordHash, "", nil
	}
	plain, err = utils.RandomToken(generatedCredentialBytes)
	if err != nil {
		return "", "", err
	}
	hash, err = r.hasher.HashPassword(plain)
	if err != nil {
		return "", "", err
	}
	return hash, plain, nil
}
