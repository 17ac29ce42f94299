package domain

import "time"

const (
	CapabilityTrainer = "trainer"
	CapabilityAdmin   = "admin"
)

type Capability struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex:uidx_capabilities_code;not null" json:"code"` // trainer | admin
	Name string `gorm:"type:varchar(100);not null" json:"name"`
}

// IdentityCapability links an identity to a capability tag. The pair is unique
// so granting the same tag twice leaves a single row.
type IdentityCapability struct {
	IdentityID   uint      `gorm:"primaryKey;autoIncrement:false" json:"identity_id"`
	CapabilityID uint      `gorm:"primaryKey;autoIncrement:false" json:"capability_id"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}
