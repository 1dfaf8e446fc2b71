package models

// Battle records a resolved PvP engagement. Both participants paid the energy
// cost; the stake moved from loser to winner in the same transaction that
// wrote this row.
type Battle struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	AttackerID string `gorm:"index;not null" json:"attacker_id"`
	DefenderID string `gorm:"index;not null" json:"defender_id"`
	Stake      int64  `gorm:"not null" json:"stake"`
	EnergyCost int    `gorm:"not null" json:"energy_cost"`
	WinnerID   string `gorm:"index;not null" json:"winner_id"`
	HoldID     string `gorm:"not null" json:"hold_id"` // stake reservation this battle settled

	Timestamps
}
