package domain

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type TrainerStatus string

const (
	TrainerPending   TrainerStatus = "pending"
	TrainerActive    TrainerStatus = "active"
	TrainerInactive  TrainerStatus = "inactive"
	TrainerSuspended TrainerStatus = "suspended"
	TrainerDeleted   TrainerStatus = "deleted"
)

func (s TrainerStatus) Valid() bool {
	switch s {
	case TrainerPending, TrainerActive, TrainerInactive, TrainerSuspended, TrainerDeleted:
		return true
	}
	return false
}

// TrainerProfile is the bookable trainer entity. There is at most one per identity.
type TrainerProfile struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	IdentityID uint   `gorm:"uniqueIndex:uidx_trainer_profiles_identity;not null" json:"identity_id"`
	Slug       string `gorm:"type:varchar(191);uniqueIndex:uidx_trainer_profiles_slug;not null" json:"slug"`

	// display
	DisplayName  string          `gorm:"type:varchar(255);not null" json:"display_name"`
	Email        string          `gorm:"type:varchar(255)" json:"email"`
	Phone        string          `gorm:"type:varchar(50)" json:"phone"`
	PlayingLevel string          `gorm:"type:varchar(100)" json:"playing_level"`
	College      string          `gorm:"type:varchar(255)" json:"college"`
	Specialties  pq.StringArray  `gorm:"type:text[]" json:"specialties"`
	Headline     string          `gorm:"type:varchar(255)" json:"headline"`
	Bio          string          `gorm:"type:text" json:"bio"`
	HourlyRate   decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"hourly_rate"`
	TravelRadius int             `gorm:"not null;default:0" json:"travel_radius"`
	PhotoURL     *string         `gorm:"type:text" json:"photo_url,omitempty"`

	Status TrainerStatus `gorm:"type:varchar(20);not null;default:pending;index" json:"status"`

	// compliance
	SafeSportVerified         bool `gorm:"column:safesport_verified;not null;default:false" json:"safesport_verified"`
	W9Submitted               bool `gorm:"column:w9_submitted;not null;default:false" json:"w9_submitted"`
	BackgroundVerified        bool `gorm:"not null;default:false" json:"background_verified"`
	ContractorAgreementSigned bool `gorm:"not null;default:false" json:"contractor_agreement_signed"`
	PaymentsReady             bool `gorm:"not null;default:false" json:"payments_ready"`

	// ranking
	IsFeatured bool `gorm:"not null;default:false" json:"is_featured"`
	SortOrder  int  `gorm:"not null;default:0" json:"sort_order"`

	ApprovedAt            *time.Time `json:"approved_at,omitempty"`
	OnboardingCompletedAt *time.Time `json:"onboarding_completed_at,omitempty"`
	CreatedAt             time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (TrainerProfile) TableName() string {
	return "trainer_profiles"
}

// Availability and Review rows belong to a trainer and are removed when the
// trainer is deleted.
type Availability struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TrainerID   uint      `gorm:"not null;index" json:"trainer_id"`
	Weekday     int       `gorm:"not null" json:"weekday"`
	StartMinute int       `gorm:"not null" json:"start_minute"`
	EndMinute   int       `gorm:"not null" json:"end_minute"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Availability) TableName() string {
	return "trainer_availability"
}

type Review struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TrainerID  uint      `gorm:"not null;index" json:"trainer_id"`
	AuthorName string    `gorm:"type:varchar(255)" json:"author_name"`
	Rating     int       `gorm:"not null" json:"rating"` // 1..5
	Body       string    `gorm:"type:text" json:"body"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Review) TableName() string {
	return "trainer_reviews"
}

// TrainerRequiredColumns are the trainer_profiles columns every provisioning
// write depends on.
var TrainerRequiredColumns = []string{
	"identity_id", "slug", "display_name", "status",
	"safesport_verified", "w9_submitted", "background_verified", "contractor_agreement_signed",
	"payments_ready", "is_featured", "sort_order", "approved_at", "onboarding_completed_at",
	"created_at", "updated_at",
}

// TrainerApplicationColumns are the optional display columns. Those present in
// storage are copied from an application; absent ones are left out of the insert.
var TrainerApplicationColumns = []string{
	"email", "phone", "playing_level", "college", "specialties",
	"headline", "bio", "hourly_rate", "travel_radius", "photo_url",
}
