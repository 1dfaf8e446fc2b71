// services/event_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"engagement-engine/models"
	"engagement-engine/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type EventService struct {
	DB     *gorm.DB
	Ledger *LedgerService
	Cfg    utils.EngineConfig
}

func NewEventService(db *gorm.DB, ledger *LedgerService, cfg utils.EngineConfig) *EventService {
	return &EventService{DB: db, Ledger: ledger, Cfg: cfg}
}

// CreateSlot registers a capacity-bounded event (admin only at the routes).
func (s *EventService) CreateSlot(name, category, location string, startsAt time.Time, capacity int, reward int64) (*models.EventSlot, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: event name is required", ErrInvalidInput)
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive", ErrInvalidInput)
	}
	if reward < 0 {
		return nil, fmt.Errorf("%w: reward cannot be negative", ErrInvalidInput)
	}
	eventSlot := &models.EventSlot{
		ID:       uuid.NewString(),
		Name:     name,
		Code:     slug.Make(fmt.Sprintf("%s %s", name, startsAt.Format("2006-01-02"))),
		Category: category,
		StartsAt: startsAt,
		Location: location,
		Capacity: capacity,
		Reward:   reward,
	}
	if err := s.DB.Create(eventSlot).Error; err != nil {
		return nil, storeErr(err)
	}
	return eventSlot, nil
}

// Book seats the caller in a slot. The occupancy guard lives in the UPDATE,
// so N concurrent bookings on the last open seat resolve to exactly one
// success; the rest see SlotFull. The unique (slot, account) index catches
// double booking in the same transaction that claimed the seat.
func (s *EventService) Book(accountID, slotID string) (*models.Booking, error) {
	booking := &models.Booking{
		ID:        uuid.NewString(),
		SlotID:    slotID,
		AccountID: accountID,
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var slot models.EventSlot
		if err := tx.First(&slot, "id = ?", slotID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: unknown event slot", ErrInvalidInput)
			}
			return storeErr(err)
		}

		// Existing booking first: a full slot the user already sits in
		// should say "already booked", not "slot full".
		var existing int64
		if err := tx.Model(&models.Booking{}).
			Where("slot_id = ? AND account_id = ?", slotID, accountID).
			Count(&existing).Error; err != nil {
			return storeErr(err)
		}
		if existing > 0 {
			return ErrAlreadyBooked
		}

		res := tx.Model(&models.EventSlot{}).
			Where("id = ? AND occupancy < capacity", slotID).
			Update("occupancy", gorm.Expr("occupancy + 1"))
		if res.Error != nil {
			return storeErr(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrSlotFull
		}
		if err := tx.Create(booking).Error; err != nil {
			// Unique index race: someone booked the same (slot, account)
			// between our count and the insert.
			if strings.Contains(strings.ToLower(err.Error()), "unique") ||
				strings.Contains(strings.ToLower(err.Error()), "duplicate") {
				return ErrAlreadyBooked
			}
			return storeErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// CancelBooking frees the seat. Removing the row and decrementing occupancy
// are one unit; the freed seat is immediately bookable by someone else.
func (s *EventService) CancelBooking(accountID, slotID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var booking models.Booking
		if err := tx.Where("slot_id = ? AND account_id = ?", slotID, accountID).First(&booking).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: no booking to cancel", ErrInvalidInput)
			}
			return storeErr(err)
		}
		if booking.Attended {
			return fmt.Errorf("%w: attendance already recorded", ErrInvalidTransition)
		}
		if err := tx.Delete(&booking).Error; err != nil {
			return storeErr(err)
		}
		res := tx.Model(&models.EventSlot{}).
			Where("id = ? AND occupancy > 0", slotID).
			Update("occupancy", gorm.Expr("occupancy - 1"))
		if res.Error != nil {
			return storeErr(res.Error)
		}
		return nil
	})
}

// MarkAttended records attendance and pays the slot reward exactly once. The
// conditional flip of the attended flag is the payout guard; re-marking is a
// no-op.
func (s *EventService) MarkAttended(bookingID string) (*models.Booking, bool, error) {
	var booking models.Booking
	paid := false
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&booking, "id = ?", bookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: unknown booking", ErrInvalidInput)
			}
			return storeErr(err)
		}
		now := time.Now()
		res := tx.Model(&models.Booking{}).
			Where("id = ? AND attended = ?", bookingID, false).
			Updates(map[string]interface{}{"attended": true, "reward_at": now})
		if res.Error != nil {
			return storeErr(res.Error)
		}
		if res.RowsAffected == 0 {
			return nil // already recorded; nothing to pay
		}
		var slot models.EventSlot
		if err := tx.First(&slot, "id = ?", booking.SlotID).Error; err != nil {
			return storeErr(err)
		}
		if slot.Reward > 0 {
			if _, err := s.Ledger.Credit(tx, booking.AccountID, slot.Reward, models.ReasonEventReward, booking.ID); err != nil {
				return err
			}
		}
		enqueueNotification(tx, booking.AccountID, "event_attended", fiber.Map{
			"slot_id": slot.ID, "name": slot.Name, "reward": slot.Reward,
		})
		booking.Attended = true
		booking.RewardAt = &now
		paid = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &booking, paid, nil
}

// EnqueueDueReminders notifies everyone booked on a slot starting within the
// reminder window. RemindedAt is the watermark; each slot reminds once.
func (s *EventService) EnqueueDueReminders() (int, error) {
	now := time.Now()
	var slots []models.EventSlot
	if err := s.DB.
		Where("reminded_at IS NULL AND starts_at > ? AND starts_at <= ?", now, now.Add(s.Cfg.EventReminderWindow)).
		Find(&slots).Error; err != nil {
		return 0, storeErr(err)
	}

	reminded := 0
	for _, slot := range slots {
		err := s.DB.Transaction(func(tx *gorm.DB) error {
			// Claim the slot so two scheduler ticks never double-remind.
			res := tx.Model(&models.EventSlot{}).
				Where("id = ? AND reminded_at IS NULL", slot.ID).
				Update("reminded_at", now)
			if res.Error != nil {
				return storeErr(res.Error)
			}
			if res.RowsAffected == 0 {
				return nil
			}
			var bookings []models.Booking
			if err := tx.Where("slot_id = ?", slot.ID).Find(&bookings).Error; err != nil {
				return storeErr(err)
			}
			for _, b := range bookings {
				enqueueNotification(tx, b.AccountID, "event_reminder", fiber.Map{
					"slot_id": slot.ID, "name": slot.Name, "starts_at": slot.StartsAt, "location": slot.Location,
				})
			}
			reminded++
			return nil
		})
		if err != nil {
			log.Printf("[Scheduler] Failed to remind slot %s: %v", slot.ID, err)
		}
	}
	return reminded, nil
}

// --- HTTP handlers ---

func (s *EventService) GetUpcoming(c *fiber.Ctx) error {
	var slots []models.EventSlot
	if err := s.DB.Where("starts_at > ?", time.Now()).
		Order("starts_at ASC").
		Find(&slots).Error; err != nil {
		log.Printf("DB Error fetching upcoming slots: %v", err)
		return respondErr(c, storeErr(err))
	}
	return c.JSON(slots)
}

func (s *EventService) PostBook(c *fiber.Ctx) error {
	booking, err := s.Book(c.Locals("account_id").(string), c.Params("slot_id"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(booking)
}

func (s *EventService) DeleteBooking(c *fiber.Ctx) error {
	if err := s.CancelBooking(c.Locals("account_id").(string), c.Params("slot_id")); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"message": "booking cancelled"})
}

// --- Admin handlers ---

func (s *EventService) PostCreateSlot(c *fiber.Ctx) error {
	var req struct {
		Name     string    `json:"name"`
		Category string    `json:"category"`
		Location string    `json:"location"`
		StartsAt time.Time `json:"starts_at"`
		Capacity int       `json:"capacity"`
		Reward   int64     `json:"reward"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	slot, err := s.CreateSlot(req.Name, req.Category, req.Location, req.StartsAt, req.Capacity, req.Reward)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(slot)
}

func (s *EventService) PostMarkAttended(c *fiber.Ctx) error {
	booking, paid, err := s.MarkAttended(c.Params("booking_id"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"booking": booking, "reward_paid": paid})
}
