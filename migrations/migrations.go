// migrations/migrations.go
package migrations

import (
	"fmt"
	"log"
	"time"

	"engagement-engine/models"

	"gorm.io/gorm"
)

// SchemaVersion records every migration that has been applied. Migrations run
// in ascending version order inside a transaction and are never re-applied, so
// the schema can only roll forward.
type SchemaVersion struct {
	Version   int       `gorm:"primaryKey"`
	Name      string    `gorm:"type:varchar(128);not null"`
	AppliedAt time.Time `gorm:"not null"`
}

type migration struct {
	version int
	name    string
	run     func(tx *gorm.DB) error
}

var all = []migration{
	{
		version: 1,
		name:    "accounts_and_ledger",
		run: func(tx *gorm.DB) error {
			return tx.AutoMigrate(
				&models.Account{},
				&models.LedgerEntry{},
				&models.Hold{},
			)
		},
	},
	{
		version: 2,
		name:    "tasks_and_submissions",
		run: func(tx *gorm.DB) error {
			return tx.AutoMigrate(
				&models.Task{},
				&models.Submission{},
			)
		},
	},
	{
		version: 3,
		name:    "battles_events_gifts",
		run: func(tx *gorm.DB) error {
			return tx.AutoMigrate(
				&models.Battle{},
				&models.EventSlot{},
				&models.Booking{},
				&models.Gift{},
			)
		},
	},
	{
		version: 4,
		name:    "social_shop_notifications",
		run: func(tx *gorm.DB) error {
			return tx.AutoMigrate(
				&models.Achievement{},
				&models.AchievementLike{},
				&models.AchievementComment{},
				&models.ShopItem{},
				&models.Purchase{},
				&models.Notification{},
			)
		},
	},
}

// Run applies every migration newer than the recorded schema version.
func Run(db *gorm.DB) error {
	if err := db.AutoMigrate(&SchemaVersion{}); err != nil {
		return fmt.Errorf("failed to prepare schema_versions table: %w", err)
	}

	current := 0
	var last SchemaVersion
	err := db.Order("version DESC").First(&last).Error
	if err == nil {
		current = last.Version
	} else if err != gorm.ErrRecordNotFound {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range all {
		if m.version <= current {
			continue
		}
		log.Printf("Applying migration %d (%s)...", m.version, m.name)
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.run(tx); err != nil {
				return err
			}
			return tx.Create(&SchemaVersion{
				Version:   m.version,
				Name:      m.name,
				AppliedAt: time.Now(),
			}).Error
		})
		if err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.name, err)
		}
	}
	return nil
}
