// services/account_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"engagement-engine/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

type AccountService struct {
	DB     *gorm.DB
	Ledger *LedgerService
}

func NewAccountService(db *gorm.DB, ledger *LedgerService) *AccountService {
	return &AccountService{DB: db, Ledger: ledger}
}

// EnsureAccount creates the account on first contact (idempotent). New
// accounts start unregistered with a full energy gauge.
func (s *AccountService) EnsureAccount(externalUserID, displayName string) (*models.Account, error) {
	if externalUserID == "" {
		return nil, fmt.Errorf("%w: missing external user id", ErrInvalidInput)
	}
	var acc models.Account
	err := s.DB.Where("external_user_id = ?", externalUserID).First(&acc).Error
	if err == nil {
		return &acc, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeErr(err)
	}

	acc = models.Account{
		ID:              uuid.NewString(),
		ExternalUserID:  externalUserID,
		DisplayName:     norm.NFC.String(strings.TrimSpace(displayName)),
		Role:            models.RoleNovice,
		Coins:           0,
		Energy:          models.EnergyMax,
		EnergyUpdatedAt: time.Now(),
		IsActive:        true,
	}
	if createErr := s.DB.Create(&acc).Error; createErr != nil {
		// Lost a first-contact race: the unique index on external_user_id
		// rejected us, so the row exists now.
		if fetchErr := s.DB.Where("external_user_id = ?", externalUserID).First(&acc).Error; fetchErr != nil {
			return nil, storeErr(createErr)
		}
	}
	return &acc, nil
}

// Register flips the registration flag and pins the display name. Battles and
// gifts require a registered counterparty.
func (s *AccountService) Register(externalUserID, displayName string) (*models.Account, error) {
	acc, err := s.EnsureAccount(externalUserID, displayName)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{"registered": true}
	if name := norm.NFC.String(strings.TrimSpace(displayName)); name != "" {
		updates["display_name"] = name
	}
	if err := s.DB.Model(acc).Updates(updates).Error; err != nil {
		return nil, storeErr(err)
	}
	return acc, nil
}

// AccountSummary is the bulk read used by the chat renderer and the web view.
type AccountSummary struct {
	Account      models.Account       `json:"account"`
	Energy       int                  `json:"energy"` // effective, regen applied
	OpenHolds    []models.Hold        `json:"open_holds"`
	RecentLedger []models.LedgerEntry `json:"recent_ledger"`
	PendingTasks int64                `json:"pending_tasks"`
	OpenBookings int64                `json:"open_bookings"`
}

func (s *AccountService) Summary(accountID string) (*AccountSummary, error) {
	var acc models.Account
	if err := s.DB.First(&acc, "id = ?", accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: unknown account", ErrInvalidInput)
		}
		return nil, storeErr(err)
	}

	out := &AccountSummary{
		Account: acc,
		Energy:  s.Ledger.EffectiveEnergy(&acc, time.Now()),
	}
	if err := s.DB.Where("account_id = ? AND status = ?", accountID, models.HoldHeld).
		Find(&out.OpenHolds).Error; err != nil {
		return nil, storeErr(err)
	}
	if err := s.DB.Where("account_id = ?", accountID).
		Order("created_at DESC").Limit(10).
		Find(&out.RecentLedger).Error; err != nil {
		return nil, storeErr(err)
	}
	if err := s.DB.Model(&models.Task{}).
		Where("assignee_id = ? AND status IN ?", accountID, []models.TaskStatus{models.TaskPending, models.TaskInProgress}).
		Count(&out.PendingTasks).Error; err != nil {
		return nil, storeErr(err)
	}
	if err := s.DB.Model(&models.Booking{}).
		Where("account_id = ? AND attended = ?", accountID, false).
		Count(&out.OpenBookings).Error; err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

// --- HTTP handlers ---

// GetBalance is the read-only query the companion web view polls.
func (s *AccountService) GetBalance(c *fiber.Ctx) error {
	acc := c.Locals("account").(*models.Account)
	return c.JSON(fiber.Map{
		"account_id": acc.ID,
		"coins":      acc.Coins,
		"energy":     s.Ledger.EffectiveEnergy(acc, time.Now()),
	})
}

func (s *AccountService) GetSummary(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(string)
	summary, err := s.Summary(accountID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(summary)
}

func (s *AccountService) PostRegister(c *fiber.Ctx) error {
	externalUserID := c.Locals("user_id").(string)
	var req struct {
		DisplayName string `json:"display_name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	acc, err := s.Register(externalUserID, req.DisplayName)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(acc)
}

// --- Admin handlers ---

// Deactivate disables an account. The row stays so workflow history keeps
// resolving against it.
func (s *AccountService) Deactivate(c *fiber.Ctx) error {
	id := c.Params("id")
	res := s.DB.Model(&models.Account{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		log.Printf("DB Error deactivating account %s: %v", id, res.Error)
		return respondErr(c, storeErr(res.Error))
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Account not found"})
	}
	return c.JSON(fiber.Map{"message": "account deactivated", "account_id": id})
}

func (s *AccountService) SetRole(c *fiber.Ctx) error {
	id := c.Params("id")
	var req struct {
		Role models.AccountRole `json:"role"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	switch req.Role {
	case models.RoleNovice, models.RoleMember, models.RoleAdmin:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown role"})
	}
	res := s.DB.Model(&models.Account{}).Where("id = ?", id).Update("role", req.Role)
	if res.Error != nil {
		return respondErr(c, storeErr(res.Error))
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Account not found"})
	}
	return c.JSON(fiber.Map{"message": "role updated", "account_id": id, "role": req.Role})
}

// Grant credits (positive) or penalizes (negative) an account by admin fiat.
// Both paths go through the ledger like every other mutation.
func (s *AccountService) Grant(c *fiber.Ctx) error {
	id := c.Params("id")
	var req struct {
		Amount int64  `json:"amount"`
		Note   string `json:"note"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Amount == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "amount must be non-zero"})
	}

	var balance int64
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		if req.Amount > 0 {
			balance, err = s.Ledger.Credit(tx, id, req.Amount, models.ReasonAdminGrant, req.Note)
		} else {
			balance, err = s.Ledger.Debit(tx, id, -req.Amount, models.ReasonPenalty, req.Note)
		}
		return err
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"account_id": id, "coins": balance})
}
