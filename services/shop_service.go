// services/shop_service.go
package services

import (
	"errors"
	"fmt"
	"log"

	"engagement-engine/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ShopService struct {
	DB     *gorm.DB
	Ledger *LedgerService
}

func NewShopService(db *gorm.DB, ledger *LedgerService) *ShopService {
	return &ShopService{DB: db, Ledger: ledger}
}

// Buy debits the price and decrements stock as one unit. The conditional
// stock update means the last unit sells exactly once.
func (s *ShopService) Buy(accountID, itemID string) (*models.Purchase, error) {
	purchase := &models.Purchase{
		ID:        uuid.NewString(),
		AccountID: accountID,
		ItemID:    itemID,
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var item models.ShopItem
		if err := tx.First(&item, "id = ?", itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: unknown item", ErrInvalidInput)
			}
			return storeErr(err)
		}
		if !item.Active {
			return fmt.Errorf("%w: item is not for sale", ErrInvalidInput)
		}
		if item.Stock != nil {
			res := tx.Model(&models.ShopItem{}).
				Where("id = ? AND stock > 0", itemID).
				Update("stock", gorm.Expr("stock - 1"))
			if res.Error != nil {
				return storeErr(res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%w: item is sold out", ErrInvalidInput)
			}
		}
		if _, err := s.Ledger.Debit(tx, accountID, item.Price, models.ReasonPurchase, purchase.ID); err != nil {
			return err
		}
		purchase.PricePaid = item.Price
		if err := tx.Create(purchase).Error; err != nil {
			return storeErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

// --- HTTP handlers ---

func (s *ShopService) GetItems(c *fiber.Ctx) error {
	var items []models.ShopItem
	if err := s.DB.Where("active = ?", true).Order("price ASC").Find(&items).Error; err != nil {
		log.Printf("DB Error fetching shop items: %v", err)
		return respondErr(c, storeErr(err))
	}
	return c.JSON(items)
}

func (s *ShopService) PostBuy(c *fiber.Ctx) error {
	purchase, err := s.Buy(c.Locals("account_id").(string), c.Params("item_id"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(purchase)
}

// --- Admin handlers ---

func (s *ShopService) PostCreateItem(c *fiber.Ctx) error {
	var req struct {
		Title string `json:"title"`
		Price int64  `json:"price"`
		Stock *int   `json:"stock"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Title == "" || req.Price <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title and a positive price are required"})
	}
	item := &models.ShopItem{
		ID:     uuid.NewString(),
		Title:  req.Title,
		Price:  req.Price,
		Stock:  req.Stock,
		Active: true,
	}
	if err := s.DB.Create(item).Error; err != nil {
		log.Printf("DB Error creating shop item: %v", err)
		return respondErr(c, storeErr(err))
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}
