package services

import (
	"testing"

	"engagement-engine/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGiftFixture(t *testing.T) (*GiftService, *models.Account, *models.Account) {
	db := testDB(t)
	ledger := NewLedgerService(db, testConfig())
	svc := NewGiftService(db, ledger, testConfig()) // cap 50, minimum 5
	sender := seedAccount(t, db, "sender", 200, models.EnergyMax)
	receiver := seedAccount(t, db, "receiver", 0, models.EnergyMax)
	return svc, sender, receiver
}

func TestSendGift(t *testing.T) {
	svc, sender, receiver := newGiftFixture(t)

	gift, err := svc.Send(sender, receiver.ID, 20, "great demo!")
	require.NoError(t, err)
	assert.Equal(t, int64(20), gift.Amount)

	assert.Equal(t, int64(180), accountCoins(t, svc.DB, sender.ID))
	assert.Equal(t, int64(20), accountCoins(t, svc.DB, receiver.ID))
	assert.Equal(t, int64(1), notificationCount(t, svc.DB, receiver.ID, "gift_received"))
}

func TestGiftMinimum(t *testing.T) {
	svc, sender, receiver := newGiftFixture(t)

	_, err := svc.Send(sender, receiver.ID, 4, "")
	assert.ErrorIs(t, err, ErrBelowMinimum)
	assert.Equal(t, int64(200), accountCoins(t, svc.DB, sender.ID))
}

func TestGiftSelfRejected(t *testing.T) {
	svc, sender, _ := newGiftFixture(t)

	_, err := svc.Send(sender, sender.ID, 20, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGiftUnknownReceiver(t *testing.T) {
	svc, sender, _ := newGiftFixture(t)

	_, err := svc.Send(sender, "no-such-account", 20, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, int64(200), accountCoins(t, svc.DB, sender.ID))
}

func TestGiftDailyCap(t *testing.T) {
	svc, sender, receiver := newGiftFixture(t)

	_, err := svc.Send(sender, receiver.ID, 20, "")
	require.NoError(t, err)
	_, err = svc.Send(sender, receiver.ID, 20, "")
	require.NoError(t, err)

	// 40 of 50 gifted; a third 20 breaches the rolling cap and rolls back.
	_, err = svc.Send(sender, receiver.ID, 20, "")
	assert.ErrorIs(t, err, ErrDailyCapExceeded)

	assert.Equal(t, int64(160), accountCoins(t, svc.DB, sender.ID))
	assert.Equal(t, int64(40), accountCoins(t, svc.DB, receiver.ID))

	// A smaller gift that fits under the cap still goes through.
	_, err = svc.Send(sender, receiver.ID, 10, "")
	require.NoError(t, err)
	assert.Equal(t, int64(150), accountCoins(t, svc.DB, sender.ID))
	assert.Equal(t, int64(50), accountCoins(t, svc.DB, receiver.ID))
}

func TestGiftInsufficientFunds(t *testing.T) {
	db := testDB(t)
	ledger := NewLedgerService(db, testConfig())
	svc := NewGiftService(db, ledger, testConfig())
	poor := seedAccount(t, db, "poor", 3, models.EnergyMax)
	receiver := seedAccount(t, db, "receiver", 0, models.EnergyMax)

	_, err := svc.Send(poor, receiver.ID, 5, "")
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, int64(3), accountCoins(t, db, poor.ID))
}
