package services

import (
	"testing"
	"time"

	"engagement-engine/models"
	"engagement-engine/utils"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB opens an in-memory database with the full schema. A single
// connection keeps concurrent test transactions serialized the way the
// production pool does with row locks.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Account{},
		&models.LedgerEntry{},
		&models.Hold{},
		&models.Task{},
		&models.Submission{},
		&models.Battle{},
		&models.EventSlot{},
		&models.Booking{},
		&models.Gift{},
		&models.Achievement{},
		&models.AchievementLike{},
		&models.AchievementComment{},
		&models.ShopItem{},
		&models.Purchase{},
		&models.Notification{},
	))
	return db
}

func testConfig() utils.EngineConfig {
	return utils.EngineConfig{
		GiftDailyCap:            50,
		GiftMinimum:             5,
		BattleEnergyCost:        20,
		BattleDefenderMinEnergy: 20,
		AttackerWinProbability:  0.5,
		EnergyRegenInterval:     5 * time.Minute,
		EventReminderWindow:     time.Hour,
	}
}

// seedAccount creates a registered active member with the given balances.
func seedAccount(t *testing.T, db *gorm.DB, name string, coins int64, energy int) *models.Account {
	t.Helper()
	acc := &models.Account{
		ID:              uuid.NewString(),
		ExternalUserID:  uuid.NewString(),
		DisplayName:     name,
		Role:            models.RoleMember,
		Coins:           coins,
		Energy:          energy,
		EnergyUpdatedAt: time.Now(),
		Registered:      true,
		IsActive:        true,
	}
	require.NoError(t, db.Create(acc).Error)
	return acc
}

func seedAdmin(t *testing.T, db *gorm.DB, name string) *models.Account {
	t.Helper()
	acc := seedAccount(t, db, name, 0, models.EnergyMax)
	require.NoError(t, db.Model(acc).Update("role", models.RoleAdmin).Error)
	acc.Role = models.RoleAdmin
	return acc
}

func accountCoins(t *testing.T, db *gorm.DB, id string) int64 {
	t.Helper()
	var acc models.Account
	require.NoError(t, db.First(&acc, "id = ?", id).Error)
	return acc.Coins
}

func accountEnergy(t *testing.T, db *gorm.DB, id string) int {
	t.Helper()
	var acc models.Account
	require.NoError(t, db.First(&acc, "id = ?", id).Error)
	return acc.Energy
}

func ledgerEntries(t *testing.T, db *gorm.DB, accountID, reason string) []models.LedgerEntry {
	t.Helper()
	var entries []models.LedgerEntry
	require.NoError(t, db.Where("account_id = ? AND reason = ?", accountID, reason).Find(&entries).Error)
	return entries
}

func notificationCount(t *testing.T, db *gorm.DB, accountID, kind string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Notification{}).
		Where("account_id = ? AND kind = ?", accountID, kind).
		Count(&n).Error)
	return n
}
