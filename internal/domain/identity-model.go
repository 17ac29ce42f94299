package domain

import "time"

const (
	IdentityStatusActive   = "active"
	IdentityStatusDisabled = "disabled"
)

// Identity is a platform account. It is never deleted by trainer administration.
type Identity struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex:uidx_identities_email;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	DisplayName  string    `gorm:"type:varchar(255);not null" json:"display_name"`
	Phone        *string   `gorm:"type:varchar(50)" json:"phone,omitempty"`
	Status       string    `gorm:"type:varchar(20);not null;default:active" json:"status"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Capabilities []Capability `gorm:"many2many:identity_capabilities;joinForeignKey:IdentityID;joinReferences:CapabilityID" json:"capabilities,omitempty"`
}

func (Identity) TableName() string {
	return "identities"
}

// HasCapability reports whether the loaded capability set contains code.
func (i *Identity) HasCapability(code string) bool {
	for _, c := range i.Capabilities {
		if c.Code == code {
			return true
		}
	}
	return false
}
