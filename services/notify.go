// services/notify.go
package services

import (
	"encoding/json"
	"log"

	"engagement-engine/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// enqueueNotification inserts an outbox row inside the caller's transaction.
// Delivery happens later, off the worker, never while the engine holds
// anything locked. Payload marshalling failures are logged and swallowed:
// losing a push must never fail the workflow that triggered it.
func enqueueNotification(tx *gorm.DB, accountID, kind string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("⚠️  Failed to marshal %s notification payload: %v", kind, err)
		return
	}
	n := models.Notification{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Kind:      kind,
		Payload:   string(body),
		Status:    models.NotificationPending,
	}
	if err := tx.Create(&n).Error; err != nil {
		log.Printf("⚠️  Failed to enqueue %s notification for %s: %v", kind, accountID, err)
	}
}
