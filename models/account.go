package models

import (
	"time"

	"gorm.io/gorm"
)

// AccountRole is the member tier. Admins unlock the review/grant surface.
type AccountRole string

const (
	RoleNovice AccountRole = "novice"
	RoleMember AccountRole = "member"
	RoleAdmin  AccountRole = "admin"
)

// EnergyMax bounds the energy gauge on every account.
const EnergyMax = 100

// Account is the per-member record owned by the engine. Coins and Energy are
// mutated only through ledger operations; accounts are deactivated, never
// deleted, so workflow history keeps resolving.
type Account struct {
	ID             string      `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string      `gorm:"uniqueIndex;not null" json:"external_user_id"` // gateway identity
	DisplayName    string      `gorm:"not null" json:"display_name"`
	Role           AccountRole `gorm:"type:varchar(16);not null;default:'novice'" json:"role"`

	Coins int64 `gorm:"not null;default:0" json:"coins"`

	// Energy is materialized lazily: the stored value is only meaningful
	// together with EnergyUpdatedAt (regeneration is computed from elapsed
	// time at the moment of use).
	Energy          int       `gorm:"not null;default:100" json:"energy"`
	EnergyUpdatedAt time.Time `gorm:"not null" json:"energy_updated_at"`

	Registered bool `gorm:"not null;default:false" json:"registered"`
	IsActive   bool `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
