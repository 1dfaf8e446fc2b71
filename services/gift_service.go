// services/gift_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"engagement-engine/models"
	"engagement-engine/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GiftService struct {
	DB     *gorm.DB
	Ledger *LedgerService
	Cfg    utils.EngineConfig
}

func NewGiftService(db *gorm.DB, ledger *LedgerService, cfg utils.EngineConfig) *GiftService {
	return &GiftService{DB: db, Ledger: ledger, Cfg: cfg}
}

// Send moves coins peer-to-peer under the rolling daily cap. The debit runs
// first: it locks the sender's row, so concurrent gifts from the same sender
// serialize and the cap check that follows sees every committed gift.
func (s *GiftService) Send(sender *models.Account, receiverID string, amount int64, message string) (*models.Gift, error) {
	if amount < s.Cfg.GiftMinimum {
		return nil, fmt.Errorf("%w: minimum gift is %d", ErrBelowMinimum, s.Cfg.GiftMinimum)
	}
	if receiverID == sender.ID {
		return nil, fmt.Errorf("%w: cannot gift yourself", ErrInvalidInput)
	}

	gift := &models.Gift{
		ID:         uuid.NewString(),
		SenderID:   sender.ID,
		ReceiverID: receiverID,
		Amount:     amount,
		Message:    message,
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var receiver models.Account
		if err := tx.Where("id = ? AND is_active = ?", receiverID, true).First(&receiver).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: unknown receiver", ErrInvalidInput)
			}
			return storeErr(err)
		}

		if _, err := s.Ledger.Debit(tx, sender.ID, amount, models.ReasonGiftSent, gift.ID); err != nil {
			return err
		}

		var giftedToday int64
		if err := tx.Model(&models.Gift{}).
			Where("sender_id = ? AND created_at > ?", sender.ID, time.Now().Add(-24*time.Hour)).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&giftedToday).Error; err != nil {
			return storeErr(err)
		}
		if giftedToday+amount > s.Cfg.GiftDailyCap {
			return fmt.Errorf("%w: %d of %d already gifted in the last 24h", ErrDailyCapExceeded, giftedToday, s.Cfg.GiftDailyCap)
		}

		if _, err := s.Ledger.Credit(tx, receiverID, amount, models.ReasonGiftReceived, gift.ID); err != nil {
			return err
		}
		if err := tx.Create(gift).Error; err != nil {
			return storeErr(err)
		}
		enqueueNotification(tx, receiverID, "gift_received", fiber.Map{
			"gift_id": gift.ID, "from": sender.DisplayName, "amount": amount, "message": message,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return gift, nil
}

// --- HTTP handlers ---

func (s *GiftService) PostSend(c *fiber.Ctx) error {
	sender := c.Locals("account").(*models.Account)
	var req struct {
		ReceiverID string `json:"receiver_id"`
		Amount     int64  `json:"amount"`
		Message    string `json:"message"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	gift, err := s.Send(sender, req.ReceiverID, req.Amount, req.Message)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(gift)
}

// GetReceived lists gifts sent to the caller, newest first.
func (s *GiftService) GetReceived(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(string)
	var gifts []models.Gift
	if err := s.DB.Where("receiver_id = ?", accountID).
		Order("created_at DESC").
		Limit(50).
		Find(&gifts).Error; err != nil {
		log.Printf("DB Error fetching gifts: %v", err)
		return respondErr(c, storeErr(err))
	}
	return c.JSON(gifts)
}
