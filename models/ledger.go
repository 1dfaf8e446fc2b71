// models/ledger.go
package models

import "time"

// Resource names the balance a ledger entry touched.
type Resource string

const (
	ResourceCoins  Resource = "coins"
	ResourceEnergy Resource = "energy"
)

// Ledger reason tags
const (
	ReasonTaskReward   = "task_reward"
	ReasonSubmission   = "submission"
	ReasonBattleStake  = "battle_stake"
	ReasonBattlePrize  = "battle_prize"
	ReasonBattleEnergy = "battle_energy"
	ReasonEventReward  = "event_reward"
	ReasonGiftSent     = "gift_sent"
	ReasonGiftReceived = "gift_received"
	ReasonPurchase     = "purchase"
	ReasonPenalty      = "penalty"
	ReasonAdminGrant   = "admin_grant"
	ReasonRefund       = "refund"
	ReasonRegen        = "energy_regen"
)

// LedgerEntry is the immutable audit row written alongside every balance
// mutation. The entry and the balance update commit in the same transaction;
// a balance no entry can explain is a bug.
type LedgerEntry struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	AccountID string    `gorm:"index;not null" json:"account_id"`
	Resource  Resource  `gorm:"type:varchar(16);not null;default:'coins'" json:"resource"`
	Delta     int64     `gorm:"not null" json:"delta"`
	Balance   int64     `gorm:"not null" json:"balance"` // balance after applying Delta
	Reason    string    `gorm:"type:varchar(32);not null;index" json:"reason"`
	Reference string    `gorm:"index" json:"reference,omitempty"` // originating workflow record id
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}

// HoldStatus tracks a reserved stake through its lifecycle.
type HoldStatus string

const (
	HoldHeld     HoldStatus = "held"
	HoldReleased HoldStatus = "released"
	HoldSettled  HoldStatus = "settled"
)

// Hold is a provisional deduction awaiting an outcome (battle stakes). The
// held amount has already left the owner's balance; Release returns it,
// Settle pays it to a final destination.
type Hold struct {
	ID        string     `gorm:"primaryKey;type:uuid" json:"id"`
	AccountID string     `gorm:"index;not null" json:"account_id"`
	Amount    int64      `gorm:"not null" json:"amount"`
	Reason    string     `gorm:"type:varchar(32);not null" json:"reason"`
	Status    HoldStatus `gorm:"type:varchar(16);not null;default:'held';index" json:"status"`
	Reference string     `gorm:"index" json:"reference,omitempty"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}
