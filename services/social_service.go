// services/social_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"engagement-engine/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type SocialService struct {
	DB *gorm.DB
}

func NewSocialService(db *gorm.DB) *SocialService {
	return &SocialService{DB: db}
}

func (s *SocialService) CreateAchievement(accountID, title, description string) (*models.Achievement, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: achievement title is required", ErrInvalidInput)
	}
	ach := &models.Achievement{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		Title:       title,
		Code:        slug.Make(title),
		Description: description,
	}
	if err := s.DB.Create(ach).Error; err != nil {
		return nil, storeErr(err)
	}
	return ach, nil
}

// Like is idempotent: the unique (achievement, account) index makes the
// second like from the same member a detected no-op, never an error and
// never a doubled count.
func (s *SocialService) Like(accountID, achievementID string) (liked bool, err error) {
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var ach models.Achievement
		if err := tx.First(&ach, "id = ?", achievementID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: unknown achievement", ErrInvalidInput)
			}
			return storeErr(err)
		}
		like := models.AchievementLike{
			ID:            uuid.NewString(),
			AchievementID: achievementID,
			AccountID:     accountID,
		}
		if err := tx.Create(&like).Error; err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "unique") ||
				strings.Contains(strings.ToLower(err.Error()), "duplicate") {
				return nil // already liked, no-op
			}
			return storeErr(err)
		}
		if err := tx.Model(&models.Achievement{}).
			Where("id = ?", achievementID).
			Update("like_count", gorm.Expr("like_count + 1")).Error; err != nil {
			return storeErr(err)
		}
		if ach.AccountID != accountID {
			enqueueNotification(tx, ach.AccountID, "achievement_liked", fiber.Map{
				"achievement_id": achievementID, "title": ach.Title,
			})
		}
		liked = true
		return nil
	})
	return liked, err
}

func (s *SocialService) Comment(accountID, achievementID, text string) (*models.AchievementComment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: comment text is required", ErrInvalidInput)
	}
	comment := &models.AchievementComment{
		ID:            uuid.NewString(),
		AchievementID: achievementID,
		AccountID:     accountID,
		Text:          text,
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var ach models.Achievement
		if err := tx.First(&ach, "id = ?", achievementID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: unknown achievement", ErrInvalidInput)
			}
			return storeErr(err)
		}
		if err := tx.Create(comment).Error; err != nil {
			return storeErr(err)
		}
		if ach.AccountID != accountID {
			enqueueNotification(tx, ach.AccountID, "achievement_commented", fiber.Map{
				"achievement_id": achievementID, "title": ach.Title,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// --- HTTP handlers ---

func (s *SocialService) PostAchievement(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(string)
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	ach, err := s.CreateAchievement(accountID, req.Title, req.Description)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ach)
}

func (s *SocialService) PostLike(c *fiber.Ctx) error {
	liked, err := s.Like(c.Locals("account_id").(string), c.Params("id"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"liked": liked})
}

func (s *SocialService) PostComment(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	comment, err := s.Comment(c.Locals("account_id").(string), c.Params("id"), req.Text)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// GetFeed returns recent achievements with their comments.
func (s *SocialService) GetFeed(c *fiber.Ctx) error {
	var achievements []models.Achievement
	if err := s.DB.Order("created_at DESC").Limit(50).Find(&achievements).Error; err != nil {
		log.Printf("DB Error fetching achievement feed: %v", err)
		return respondErr(c, storeErr(err))
	}
	return c.JSON(achievements)
}

func (s *SocialService) GetComments(c *fiber.Ctx) error {
	var comments []models.AchievementComment
	if err := s.DB.Where("achievement_id = ?", c.Params("id")).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		log.Printf("DB Error fetching comments: %v", err)
		return respondErr(c, storeErr(err))
	}
	return c.JSON(comments)
}
