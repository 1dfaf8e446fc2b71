package models

import "time"

// EventSlot is a capacity-bounded opportunity (workshop, tournament night,
// onboarding session). Occupancy never exceeds Capacity; bookings increment
// it with a conditional update inside the booking transaction.
type EventSlot struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Code      string    `gorm:"uniqueIndex;not null" json:"code"` // slug of Name, for chat commands
	Category  string    `gorm:"type:varchar(32);index" json:"category"`
	StartsAt  time.Time `gorm:"not null;index" json:"starts_at"`
	Location  string    `json:"location,omitempty"`
	Capacity  int       `gorm:"not null" json:"capacity"`
	Occupancy int       `gorm:"not null;default:0" json:"occupancy"`
	Reward    int64     `gorm:"not null;default:0" json:"reward"` // coins paid on attendance

	RemindedAt *time.Time `json:"reminded_at,omitempty"` // reminder job watermark

	Timestamps
}

// Booking links an account to a slot. The unique index backs the
// one-booking-per-slot-per-user rule; cancelling removes the row (and frees
// the seat) so the member can rebook later.
type Booking struct {
	ID        string     `gorm:"primaryKey;type:uuid" json:"id"`
	SlotID    string     `gorm:"not null;uniqueIndex:idx_bookings_slot_account" json:"slot_id"`
	AccountID string     `gorm:"not null;uniqueIndex:idx_bookings_slot_account;index" json:"account_id"`
	Attended  bool       `gorm:"not null;default:false" json:"attended"`
	RewardAt  *time.Time `json:"reward_at,omitempty"` // set when the attendance payout committed

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
