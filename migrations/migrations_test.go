package migrations

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestRunAppliesAllVersionsOnce(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, Run(db))

	var versions []SchemaVersion
	require.NoError(t, db.Order("version ASC").Find(&versions).Error)
	require.Len(t, versions, len(all))
	for i, v := range versions {
		assert.Equal(t, all[i].version, v.Version)
		assert.Equal(t, all[i].name, v.Name)
	}

	assert.True(t, db.Migrator().HasTable("accounts"))
	assert.True(t, db.Migrator().HasTable("ledger_entries"))
	assert.True(t, db.Migrator().HasTable("notifications"))

	// A second run finds nothing newer and records nothing extra.
	require.NoError(t, Run(db))
	var count int64
	require.NoError(t, db.Model(&SchemaVersion{}).Count(&count).Error)
	assert.Equal(t, int64(len(all)), count)
}
