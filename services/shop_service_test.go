package services

import (
	"testing"

	"engagement-engine/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedItem(t *testing.T, svc *ShopService, price int64, stock *int) *models.ShopItem {
	t.Helper()
	item := &models.ShopItem{
		ID:     uuid.NewString(),
		Title:  "Sticker pack",
		Price:  price,
		Stock:  stock,
		Active: true,
	}
	require.NoError(t, svc.DB.Create(item).Error)
	return item
}

func TestBuyDebitsPrice(t *testing.T) {
	db := testDB(t)
	svc := NewShopService(db, NewLedgerService(db, testConfig()))
	buyer := seedAccount(t, db, "buyer", 100, models.EnergyMax)
	item := seedItem(t, svc, 30, nil) // unlimited stock

	purchase, err := svc.Buy(buyer.ID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(30), purchase.PricePaid)
	assert.Equal(t, int64(70), accountCoins(t, db, buyer.ID))
	assert.Len(t, ledgerEntries(t, db, buyer.ID, models.ReasonPurchase), 1)
}

func TestBuyInsufficientFunds(t *testing.T) {
	db := testDB(t)
	svc := NewShopService(db, NewLedgerService(db, testConfig()))
	buyer := seedAccount(t, db, "buyer", 10, models.EnergyMax)
	item := seedItem(t, svc, 30, nil)

	_, err := svc.Buy(buyer.ID, item.ID)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, int64(10), accountCoins(t, db, buyer.ID))
}

func TestBuyLastUnitSellsOnce(t *testing.T) {
	db := testDB(t)
	svc := NewShopService(db, NewLedgerService(db, testConfig()))
	alice := seedAccount(t, db, "alice", 100, models.EnergyMax)
	bob := seedAccount(t, db, "bob", 100, models.EnergyMax)
	one := 1
	item := seedItem(t, svc, 30, &one)

	_, err := svc.Buy(alice.ID, item.ID)
	require.NoError(t, err)

	_, err = svc.Buy(bob.ID, item.ID)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, int64(100), accountCoins(t, db, bob.ID))

	var fresh models.ShopItem
	require.NoError(t, db.First(&fresh, "id = ?", item.ID).Error)
	require.NotNil(t, fresh.Stock)
	assert.Equal(t, 0, *fresh.Stock)
}

func TestBuyInactiveItem(t *testing.T) {
	db := testDB(t)
	svc := NewShopService(db, NewLedgerService(db, testConfig()))
	buyer := seedAccount(t, db, "buyer", 100, models.EnergyMax)
	item := seedItem(t, svc, 30, nil)
	require.NoError(t, db.Model(item).Update("active", false).Error)

	_, err := svc.Buy(buyer.ID, item.ID)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
