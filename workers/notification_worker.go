// workers/notification_worker.go
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"engagement-engine/models"

	"gorm.io/gorm"
)

// NotificationWorker drains the outbox: engine transactions enqueue rows,
// this loop delivers them to the transport webhook. A failed delivery stays
// pending and is retried on a later tick, so the guarantee stays
// "eventually enqueued", never "delivered while the engine holds a lock".
type NotificationWorker struct {
	DB         *gorm.DB
	WebhookURL string
	Token      string
	HTTPClient *http.Client
	BatchSize  int
}

func NewNotificationWorker(db *gorm.DB) *NotificationWorker {
	webhookURL := os.Getenv("TRANSPORT_WEBHOOK_URL")
	if webhookURL == "" {
		log.Fatal("TRANSPORT_WEBHOOK_URL environment variable is required")
	}
	token := os.Getenv("ENGINE_SERVICE_TOKEN")
	if token == "" {
		log.Fatal("ENGINE_SERVICE_TOKEN environment variable is required for notification delivery")
	}

	return &NotificationWorker{
		DB:         db,
		WebhookURL: webhookURL,
		Token:      token,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		BatchSize: 100,
	}
}

// Poll delivers pending notifications until the context ends.
func (w *NotificationWorker) Poll(ctx context.Context, pollInterval time.Duration) {
	log.Println("Starting notification delivery worker...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Notification delivery stopped.")
			return
		case <-ticker.C:
			delivered, failed := w.drainOnce(ctx)
			if delivered > 0 || failed > 0 {
				log.Printf("📤 Delivered %d notification(s), %d failed (will retry)", delivered, failed)
			}
		}
	}
}

func (w *NotificationWorker) drainOnce(ctx context.Context) (delivered, failed int) {
	var pending []models.Notification
	if err := w.DB.Where("status = ?", models.NotificationPending).
		Order("created_at ASC").
		Limit(w.BatchSize).
		Find(&pending).Error; err != nil {
		log.Printf("❌ Error fetching pending notifications: %v", err)
		return 0, 0
	}

	for _, n := range pending {
		if err := w.deliver(ctx, &n); err != nil {
			failed++
			if err := w.DB.Model(&models.Notification{}).
				Where("id = ?", n.ID).
				Update("attempts", gorm.Expr("attempts + 1")).Error; err != nil {
				log.Printf("❌ Failed to bump attempts on notification %s: %v", n.ID, err)
			}
			continue
		}
		now := time.Now()
		res := w.DB.Model(&models.Notification{}).
			Where("id = ? AND status = ?", n.ID, models.NotificationPending).
			Updates(map[string]interface{}{
				"status":       models.NotificationDelivered,
				"delivered_at": now,
				"attempts":     gorm.Expr("attempts + 1"),
			})
		if res.Error != nil {
			log.Printf("❌ Failed to mark notification %s delivered: %v", n.ID, res.Error)
			continue
		}
		delivered++
	}
	return delivered, failed
}

// deliver resolves the recipient's external identity and posts the payload to
// the transport webhook.
func (w *NotificationWorker) deliver(ctx context.Context, n *models.Notification) error {
	var acc models.Account
	if err := w.DB.Select("external_user_id").First(&acc, "id = ?", n.AccountID).Error; err != nil {
		return fmt.Errorf("failed to resolve recipient: %w", err)
	}

	body, err := json.Marshal(map[string]interface{}{
		"external_user_id": acc.ExternalUserID,
		"kind":             n.Kind,
		"payload":          json.RawMessage(n.Payload),
		"notification_id":  n.ID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal delivery body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", w.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Service-Token", w.Token)

	resp, err := w.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call transport webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("transport webhook returned status %d: %s", resp.StatusCode, string(snippet))
	}
	return nil
}
