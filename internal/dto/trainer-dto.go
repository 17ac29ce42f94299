package dto

import "github.com/shopspring/decimal"

// UpdateTrainerProfile is a partial update; nil fields are left unchanged.
type UpdateTrainerProfile struct {
	DisplayName  *string          `json:"display_name,omitempty" validate:"omitempty,min=1,max=255"`
	Slug         *string          `json:"slug,omitempty" validate:"omitempty,min=1,max=80"`
	Phone        *string          `json:"phone,omitempty" validate:"omitempty,max=50"`
	PlayingLevel *string          `json:"playing_level,omitempty" validate:"omitempty,max=100"`
	College      *string          `json:"college,omitempty" validate:"omitempty,max=255"`
	Specialties  []string         `json:"specialties,omitempty" validate:"omitempty,dive,min=1,max=64"`
	Headline     *string          `json:"headline,omitempty" validate:"omitempty,max=255"`
	Bio          *string          `json:"bio,omitempty"`
	HourlyRate   *decimal.Decimal `json:"hourly_rate,omitempty"`
	TravelRadius *int             `json:"travel_radius,omitempty" validate:"omitempty,min=0,max=500"`

	SafeSportVerified         *bool `json:"safesport_verified,omitempty"`
	W9Submitted               *bool `json:"w9_submitted,omitempty"`
	BackgroundVerified        *bool `json:"background_verified,omitempty"`
	ContractorAgreementSigned *bool `json:"contractor_agreement_signed,omitempty"`
	PaymentsReady             *bool `json:"payments_ready,omitempty"`
}

type ActivateRequest struct {
	Override bool   `json:"override"`
	Note     string `json:"note,omitempty" validate:"max=500"`
}

type SetFeaturedRequest struct {
	Featured bool `json:"featured"`
}

type BulkSetFeaturedRequest struct {
	TrainerIDs []uint `json:"trainer_ids" validate:"required,min=1,max=500,dive,gt=0"`
	Featured   bool   `json:"featured"`
}

type SaveOrderRequest struct {
	TrainerIDs []uint `json:"trainer_ids" validate:"required,min=1,max=1000,dive,gt=0"`
}

type ComplianceResponse struct {
	TrainerID uint     `json:"trainer_id"`
	Eligible  bool     `json:"eligible"`
	Missing   []string `json:"missing"`
}

type RowsChangedResponse struct {
	Changed int64 `json:"changed"`
}
