// services/battle_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"engagement-engine/models"
	"engagement-engine/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BattleService struct {
	DB     *gorm.DB
	Ledger *LedgerService
	Cfg    utils.EngineConfig

	// WinRoll returns a uniform draw in [0,1). The attacker wins when the
	// draw lands below AttackerWinProbability. Tests pin this to force an
	// outcome.
	WinRoll func() float64
}

func NewBattleService(db *gorm.DB, ledger *LedgerService, cfg utils.EngineConfig) *BattleService {
	return &BattleService{DB: db, Ledger: ledger, Cfg: cfg, WinRoll: rand.Float64}
}

// Fight runs the whole battle as one atomic unit: precondition checks, energy
// debits for both sides, stake reservation, outcome roll, settlement, and the
// battle record. Any failure rolls the lot back.
func (s *BattleService) Fight(attacker *models.Account, defenderID string, stake int64) (*models.Battle, error) {
	if stake <= 0 {
		return nil, fmt.Errorf("%w: stake must be positive", ErrInvalidInput)
	}
	if !attacker.Registered {
		return nil, fmt.Errorf("%w: register before battling", ErrInvalidInput)
	}
	if defenderID == attacker.ID {
		return nil, fmt.Errorf("%w: cannot battle yourself", ErrInvalidOpponent)
	}

	battle := &models.Battle{
		ID:         uuid.NewString(),
		AttackerID: attacker.ID,
		DefenderID: defenderID,
		Stake:      stake,
		EnergyCost: s.Cfg.BattleEnergyCost,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var defender models.Account
		if err := tx.First(&defender, "id = ?", defenderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: no such defender", ErrInvalidOpponent)
			}
			return storeErr(err)
		}
		now := time.Now()
		if !defender.IsActive || !defender.Registered {
			return fmt.Errorf("%w: defender is not a registered active member", ErrInvalidOpponent)
		}
		if s.Ledger.EffectiveEnergy(&defender, now) < s.Cfg.BattleDefenderMinEnergy {
			return fmt.Errorf("%w: defender is too exhausted to fight", ErrInvalidOpponent)
		}
		if defender.Coins < stake {
			return fmt.Errorf("%w: defender cannot cover the stake", ErrInvalidOpponent)
		}

		// Both sides risk the engagement, so both pay the energy cost.
		if _, err := s.Ledger.AdjustEnergy(tx, attacker.ID, -s.Cfg.BattleEnergyCost, models.ReasonBattleEnergy, battle.ID); err != nil {
			return err
		}
		if _, err := s.Ledger.AdjustEnergy(tx, defender.ID, -s.Cfg.BattleEnergyCost, models.ReasonBattleEnergy, battle.ID); err != nil {
			if errors.Is(err, ErrInsufficientFunds) {
				return fmt.Errorf("%w: defender is too exhausted to fight", ErrInvalidOpponent)
			}
			return err
		}

		hold, err := s.Ledger.Reserve(tx, attacker.ID, stake, models.ReasonBattleStake, battle.ID)
		if err != nil {
			return err
		}
		battle.HoldID = hold.ID

		if s.WinRoll() < s.Cfg.AttackerWinProbability {
			// Attacker wins: stake comes home, defender pays the prize.
			battle.WinnerID = attacker.ID
			if err := s.Ledger.Release(tx, hold.ID); err != nil {
				return err
			}
			if _, err := s.Ledger.Debit(tx, defender.ID, stake, models.ReasonBattleStake, battle.ID); err != nil {
				return err
			}
			if _, err := s.Ledger.Credit(tx, attacker.ID, stake, models.ReasonBattlePrize, battle.ID); err != nil {
				return err
			}
		} else {
			// Defender wins: the reserved stake settles to them.
			battle.WinnerID = defender.ID
			if err := s.Ledger.Settle(tx, hold.ID, defender.ID, stake, models.ReasonBattlePrize); err != nil {
				return err
			}
		}

		if err := tx.Create(battle).Error; err != nil {
			return storeErr(err)
		}
		enqueueNotification(tx, defender.ID, "battle_fought", fiber.Map{
			"battle_id": battle.ID,
			"attacker":  attacker.DisplayName,
			"stake":     stake,
			"won":       battle.WinnerID == defender.ID,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return battle, nil
}

// --- HTTP handlers ---

func (s *BattleService) PostFight(c *fiber.Ctx) error {
	attacker := c.Locals("account").(*models.Account)
	var req struct {
		DefenderID string `json:"defender_id"`
		Stake      int64  `json:"stake"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	battle, err := s.Fight(attacker, req.DefenderID, req.Stake)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(battle)
}

// GetMine lists battles the caller fought, newest first.
func (s *BattleService) GetMine(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(string)
	var battles []models.Battle
	if err := s.DB.Where("attacker_id = ? OR defender_id = ?", accountID, accountID).
		Order("created_at DESC").
		Limit(50).
		Find(&battles).Error; err != nil {
		log.Printf("DB Error fetching battles: %v", err)
		return respondErr(c, storeErr(err))
	}
	return c.JSON(battles)
}
