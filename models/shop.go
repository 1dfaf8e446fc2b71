package models

import "time"

// ShopItem is something coins buy (merch, perks, raffle tickets). Stock is
// decremented with a conditional update so the last unit sells exactly once;
// a nil-stock item never sells out.
type ShopItem struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	Title  string `gorm:"not null" json:"title"`
	Price  int64  `gorm:"not null" json:"price"`
	Stock  *int   `json:"stock,omitempty"`
	Active bool   `gorm:"not null;default:true" json:"active"`

	Timestamps
}

// Purchase links a buyer to an item at the price actually paid.
type Purchase struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	AccountID string    `gorm:"index;not null" json:"account_id"`
	ItemID    string    `gorm:"index;not null" json:"item_id"`
	PricePaid int64     `gorm:"not null" json:"price_paid"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
