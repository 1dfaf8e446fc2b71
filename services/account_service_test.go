package services

import (
	"testing"

	"engagement-engine/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureAccountIdempotent(t *testing.T) {
	db := testDB(t)
	svc := NewAccountService(db, NewLedgerService(db, testConfig()))

	first, err := svc.EnsureAccount("tg-1001", "Dana")
	require.NoError(t, err)
	assert.Equal(t, models.RoleNovice, first.Role)
	assert.Equal(t, models.EnergyMax, first.Energy)
	assert.False(t, first.Registered)

	again, err := svc.EnsureAccount("tg-1001", "Dana Renamed")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "Dana", again.DisplayName)

	var count int64
	require.NoError(t, db.Model(&models.Account{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEnsureAccountRequiresIdentity(t *testing.T) {
	db := testDB(t)
	svc := NewAccountService(db, NewLedgerService(db, testConfig()))

	_, err := svc.EnsureAccount("", "Dana")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRegisterFlipsFlag(t *testing.T) {
	db := testDB(t)
	svc := NewAccountService(db, NewLedgerService(db, testConfig()))

	acc, err := svc.Register("tg-1001", "Dana")
	require.NoError(t, err)

	var fresh models.Account
	require.NoError(t, db.First(&fresh, "id = ?", acc.ID).Error)
	assert.True(t, fresh.Registered)
	assert.Equal(t, "Dana", fresh.DisplayName)
}

func TestSummary(t *testing.T) {
	db := testDB(t)
	ledger := NewLedgerService(db, testConfig())
	svc := NewAccountService(db, ledger)
	tasks := NewTaskService(db, ledger)
	acc := seedAccount(t, db, "dana", 100, models.EnergyMax)
	creator := seedAccount(t, db, "creator", 0, models.EnergyMax)

	_, err := ledger.Reserve(db, acc.ID, 20, models.ReasonBattleStake, "b1")
	require.NoError(t, err)
	_, err = tasks.CreateTask(creator.ID, acc.ID, "Review PRs", "", 10, nil)
	require.NoError(t, err)

	summary, err := svc.Summary(acc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(80), summary.Account.Coins)
	assert.Len(t, summary.OpenHolds, 1)
	assert.Equal(t, int64(1), summary.PendingTasks)
	assert.NotEmpty(t, summary.RecentLedger)

	_, err = svc.Summary("no-such-account")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
