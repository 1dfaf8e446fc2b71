// models/notification.go
package models

import "time"

type NotificationStatus string

const (
	NotificationPending   NotificationStatus = "pending"
	NotificationDelivered NotificationStatus = "delivered"
)

// Notification is the outbox row behind the "eventually enqueued" push
// guarantee: engine transactions insert it, the delivery worker drains it.
// A failed delivery stays pending and is retried next tick.
type Notification struct {
	ID          string             `gorm:"primaryKey;type:uuid" json:"id"`
	AccountID   string             `gorm:"index;not null" json:"account_id"` // recipient (external user id resolved at delivery)
	Kind        string             `gorm:"type:varchar(32);not null" json:"kind"`
	Payload     string             `gorm:"type:text" json:"payload"` // JSON body forwarded to the transport
	Status      NotificationStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	Attempts    int                `gorm:"not null;default:0" json:"attempts"`
	DeliveredAt *time.Time         `json:"delivered_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt   time.Time          `json:"updated_at" gorm:"autoUpdateTime"`
}
