package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/SundayYogurt/trainer_service/internal/domain"
)

var (
	ErrApplicationNotFound   = errors.New("application not found")
	ErrApplicationNotPending = errors.New("application is not pending")
	ErrTrainerNotFound       = errors.New("trainer not found")
	ErrIdentityNotFound      = errors.New("identity not found")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrInvalidInput          = errors.New("invalid input")
	ErrSlugTaken             = errors.New("slug already in use")
)

// IdentityCreationError means no identity could be resolved or created.
type IdentityCreationError struct {
	Email string
	Err   error
}

func (e *IdentityCreationError) Error() string {
	return fmt.Sprintf("identity creation failed for %s: %v", e.Email, e.Err)
}

func (e *IdentityCreationError) Unwrap() error { return e.Err }

// SchemaMigrationError means a required trainer column is missing and could
// not be added. Provisioning refuses to proceed.
type SchemaMigrationError struct {
	Column string
	Err    error
}

func (e *SchemaMigrationError) Error() string {
	return fmt.Sprintf("schema migration failed for column %s: %v", e.Column, e.Err)
}

func (e *SchemaMigrationError) Unwrap() error { return e.Err }

// ProvisioningError means the trainer profile could not be created. The
// identity may already exist; the scanner picks that up as drift.
type ProvisioningError struct {
	ApplicationID uint
	IdentityID    uint
	Err           error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provisioning failed for identity %d (application %d): %v", e.IdentityID, e.ApplicationID, e.Err)
}

func (e *ProvisioningError) Unwrap() error { return e.Err }

// ComplianceGateViolation is returned when activation is refused.
type ComplianceGateViolation struct {
	TrainerID uint
	Missing   []domain.RequirementTag
}

func (e *ComplianceGateViolation) Error() string {
	names := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		names[i] = string(m)
	}
	return fmt.Sprintf("trainer %d is missing compliance requirements: %s", e.TrainerID, strings.Join(names, ", "))
}

// DriftRepairError is a non-fatal repair degradation, e.g. no source
// application was found and the profile was built from the identity alone.
type DriftRepairError struct {
	IdentityID uint
	Reason     string
}

func (e *DriftRepairError) Error() string {
	return fmt.Sprintf("drift repair for identity %d: %s", e.IdentityID, e.Reason)
}
