package models

import "time"

// Gift is a peer-to-peer coin transfer. The sender's trailing-24h gift total
// is bounded by the configured daily cap, checked inside the transfer
// transaction after the sender's row is locked by the debit.
type Gift struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	SenderID   string    `gorm:"index;not null" json:"sender_id"`
	ReceiverID string    `gorm:"index;not null" json:"receiver_id"`
	Amount     int64     `gorm:"not null" json:"amount"`
	Message    string    `json:"message,omitempty"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}
