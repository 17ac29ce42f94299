package domain

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

// Application is a public trainer submission awaiting review. It is terminal
// once approved or rejected.
type Application struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Name         string          `gorm:"type:varchar(255);not null" json:"name"`
	Email        string          `gorm:"type:varchar(255);not null;index" json:"email"`
	Phone        string          `gorm:"type:varchar(50)" json:"phone"`
	PlayingLevel string          `gorm:"type:varchar(100)" json:"playing_level"`
	College      string          `gorm:"type:varchar(255)" json:"college"`
	Specialties  pq.StringArray  `gorm:"type:text[]" json:"specialties"`
	Headline     string          `gorm:"type:varchar(255)" json:"headline"`
	Bio          string          `gorm:"type:text" json:"bio"`
	HourlyRate   decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"hourly_rate"`
	TravelRadius int             `gorm:"not null;default:0" json:"travel_radius"`

	// PasswordHash is set when the applicant chose a password at submission time.
	PasswordHash *string `gorm:"type:varchar(255)" json:"-"`
	IdentityID   *uint   `gorm:"index" json:"identity_id,omitempty"`

	Status       ApplicationStatus `gorm:"type:varchar(20);not null;default:pending;index" json:"status"`
	ReviewedAt   *time.Time        `json:"reviewed_at,omitempty"`
	ReviewedBy   *uint             `json:"reviewed_by,omitempty"`
	RejectReason *string           `gorm:"type:text" json:"reject_reason,omitempty"`
	CreatedAt    time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *Application) HasPresetCredential() bool {
	return a.PasswordHash != nil && *a.PasswordHash != ""
}
