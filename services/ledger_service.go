// services/ledger_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"engagement-engine/models"
	"engagement-engine/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LedgerService is the single authority over coin and energy mutations.
// Workflow services pass their enclosing transaction into each call so the
// balance change, the audit entry, and the workflow record commit as one unit.
type LedgerService struct {
	DB  *gorm.DB
	Cfg utils.EngineConfig
}

func NewLedgerService(db *gorm.DB, cfg utils.EngineConfig) *LedgerService {
	return &LedgerService{DB: db, Cfg: cfg}
}

// storeErr tags persistence failures so callers can tell them apart from
// business rejections. Nothing has committed when it is returned.
func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// Credit adds coins to an active account and appends the audit entry.
// Returns the resulting balance.
func (s *LedgerService) Credit(tx *gorm.DB, accountID string, amount int64, reason, reference string) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: credit amount must be positive", ErrInvalidInput)
	}
	res := tx.Model(&models.Account{}).
		Where("id = ? AND is_active = ?", accountID, true).
		Update("coins", gorm.Expr("coins + ?", amount))
	if res.Error != nil {
		return 0, storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, fmt.Errorf("%w: unknown or inactive account %s", ErrInvalidInput, accountID)
	}
	return s.appendEntry(tx, accountID, amount, reason, reference)
}

// Debit removes coins; the balance guard lives in the UPDATE itself so no
// partial debit can ever be observed, regardless of concurrent callers.
func (s *LedgerService) Debit(tx *gorm.DB, accountID string, amount int64, reason, reference string) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: debit amount must be positive", ErrInvalidInput)
	}
	res := tx.Model(&models.Account{}).
		Where("id = ? AND is_active = ? AND coins >= ?", accountID, true, amount).
		Update("coins", gorm.Expr("coins - ?", amount))
	if res.Error != nil {
		return 0, storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		// Distinguish a missing account from a short balance.
		var acc models.Account
		if err := tx.Where("id = ? AND is_active = ?", accountID, true).First(&acc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, fmt.Errorf("%w: unknown or inactive account %s", ErrInvalidInput, accountID)
			}
			return 0, storeErr(err)
		}
		return 0, ErrInsufficientFunds
	}
	return s.appendEntry(tx, accountID, -amount, reason, reference)
}

// Reserve debits the amount and parks it in a hold pending an outcome.
func (s *LedgerService) Reserve(tx *gorm.DB, accountID string, amount int64, reason, reference string) (*models.Hold, error) {
	if _, err := s.Debit(tx, accountID, amount, reason, reference); err != nil {
		return nil, err
	}
	hold := &models.Hold{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Amount:    amount,
		Reason:    reason,
		Status:    models.HoldHeld,
		Reference: reference,
	}
	if err := tx.Create(hold).Error; err != nil {
		return nil, storeErr(err)
	}
	return hold, nil
}

// Release returns a held amount to its owner unmodified.
func (s *LedgerService) Release(tx *gorm.DB, holdID string) error {
	hold, err := s.closeHold(tx, holdID, models.HoldReleased)
	if err != nil {
		return err
	}
	_, err = s.Credit(tx, hold.AccountID, hold.Amount, models.ReasonRefund, hold.ID)
	return err
}

// Settle converts a hold into a final transfer of amount to the destination,
// which may differ from the original holder (a lost battle stake pays the
// winner). Any remainder under the held amount returns to the holder.
func (s *LedgerService) Settle(tx *gorm.DB, holdID, destAccountID string, amount int64, reason string) error {
	var hold models.Hold
	if err := tx.First(&hold, "id = ?", holdID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: unknown hold %s", ErrInvalidInput, holdID)
		}
		return storeErr(err)
	}
	if amount <= 0 || amount > hold.Amount {
		return fmt.Errorf("%w: settle amount must be within the held amount", ErrInvalidInput)
	}
	if _, err := s.closeHold(tx, holdID, models.HoldSettled); err != nil {
		return err
	}
	if _, err := s.Credit(tx, destAccountID, amount, reason, hold.ID); err != nil {
		return err
	}
	if remainder := hold.Amount - amount; remainder > 0 {
		if _, err := s.Credit(tx, hold.AccountID, remainder, models.ReasonRefund, hold.ID); err != nil {
			return err
		}
	}
	return nil
}

// closeHold flips a held hold into its terminal status. The conditional
// UPDATE means two concurrent settles cannot both pay out.
func (s *LedgerService) closeHold(tx *gorm.DB, holdID string, terminal models.HoldStatus) (*models.Hold, error) {
	res := tx.Model(&models.Hold{}).
		Where("id = ? AND status = ?", holdID, models.HoldHeld).
		Update("status", terminal)
	if res.Error != nil {
		return nil, storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: hold %s is not held", ErrInvalidInput, holdID)
	}
	var hold models.Hold
	if err := tx.First(&hold, "id = ?", holdID).Error; err != nil {
		return nil, storeErr(err)
	}
	return &hold, nil
}

// --- Energy ---

// EffectiveEnergy derives the current gauge from the stored value plus lazy
// regeneration: +1 per configured interval since the last write, floor
// rounding, capped at 100. No scheduler thread is involved.
func (s *LedgerService) EffectiveEnergy(acc *models.Account, now time.Time) int {
	elapsed := now.Sub(acc.EnergyUpdatedAt)
	if elapsed <= 0 {
		return acc.Energy
	}
	regenerated := acc.Energy + int(elapsed/s.Cfg.EnergyRegenInterval)
	if regenerated > models.EnergyMax {
		return models.EnergyMax
	}
	return regenerated
}

// AdjustEnergy materializes regeneration and applies delta in one optimistic
// write: the UPDATE only lands if the stored value is still the one we read,
// otherwise we re-read and try again. Regeneration itself is derived state
// and gets no ledger entry; the explicit delta does.
func (s *LedgerService) AdjustEnergy(tx *gorm.DB, accountID string, delta int, reason, reference string) (int, error) {
	for attempt := 0; attempt < 3; attempt++ {
		var acc models.Account
		if err := tx.Where("id = ? AND is_active = ?", accountID, true).First(&acc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, fmt.Errorf("%w: unknown or inactive account %s", ErrInvalidInput, accountID)
			}
			return 0, storeErr(err)
		}
		now := time.Now()
		effective := s.EffectiveEnergy(&acc, now)
		next := effective + delta
		if next < 0 {
			return 0, ErrInsufficientFunds
		}
		if next > models.EnergyMax {
			next = models.EnergyMax
		}
		res := tx.Model(&models.Account{}).
			Where("id = ? AND energy = ?", acc.ID, acc.Energy).
			Updates(map[string]interface{}{"energy": next, "energy_updated_at": now})
		if res.Error != nil {
			return 0, storeErr(res.Error)
		}
		if res.RowsAffected == 0 {
			continue // lost the race, re-read and retry
		}
		if delta != 0 {
			if _, err := s.appendEnergyEntry(tx, accountID, int64(delta), int64(next), reason, reference); err != nil {
				return 0, err
			}
		}
		return next, nil
	}
	return 0, fmt.Errorf("%w: energy update contention on account %s", ErrStoreUnavailable, accountID)
}

func (s *LedgerService) appendEntry(tx *gorm.DB, accountID string, delta int64, reason, reference string) (int64, error) {
	var acc models.Account
	if err := tx.First(&acc, "id = ?", accountID).Error; err != nil {
		return 0, storeErr(err)
	}
	entry := models.LedgerEntry{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Resource:  models.ResourceCoins,
		Delta:     delta,
		Balance:   acc.Coins,
		Reason:    reason,
		Reference: reference,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return 0, storeErr(err)
	}
	return acc.Coins, nil
}

func (s *LedgerService) appendEnergyEntry(tx *gorm.DB, accountID string, delta, balance int64, reason, reference string) (int64, error) {
	entry := models.LedgerEntry{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Resource:  models.ResourceEnergy,
		Delta:     delta,
		Balance:   balance,
		Reason:    reason,
		Reference: reference,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return 0, storeErr(err)
	}
	return balance, nil
}

// --- HTTP handlers ---

// GetHistory returns the authenticated member's ledger entries, newest first.
func (s *LedgerService) GetHistory(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(string)

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		l, err := strconv.Atoi(raw)
		if err != nil || l <= 0 || l > 500 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid limit parameter"})
		}
		limit = l
	}

	var entries []models.LedgerEntry
	if err := s.DB.Where("account_id = ?", accountID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		log.Printf("DB Error fetching ledger history: %v", err)
		return respondErr(c, storeErr(err))
	}
	return c.JSON(entries)
}
