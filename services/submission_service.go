// services/submission_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"engagement-engine/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubmissionService struct {
	DB     *gorm.DB
	Ledger *LedgerService
}

func NewSubmissionService(db *gorm.DB, ledger *LedgerService) *SubmissionService {
	return &SubmissionService{DB: db, Ledger: ledger}
}

// CreateSubmission files a point claim. The evidence key is an opaque blob
// reference from the transport layer; the engine only requires it to exist.
func (s *SubmissionService) CreateSubmission(accountID, testName string, claimedPoints int64, evidenceKey string) (*models.Submission, error) {
	if testName == "" {
		return nil, fmt.Errorf("%w: test name is required", ErrInvalidInput)
	}
	if claimedPoints <= 0 {
		return nil, fmt.Errorf("%w: claimed points must be positive", ErrInvalidInput)
	}
	if evidenceKey == "" {
		return nil, fmt.Errorf("%w: evidence reference is required", ErrInvalidInput)
	}
	sub := &models.Submission{
		ID:            uuid.NewString(),
		AccountID:     accountID,
		TestName:      testName,
		ClaimedPoints: claimedPoints,
		EvidenceKey:   evidenceKey,
		Status:        models.SubmissionPending,
	}
	if err := s.DB.Create(sub).Error; err != nil {
		return nil, storeErr(err)
	}
	return sub, nil
}

// Approve credits the claimant. awardedPoints lets the reviewer adjust the
// claim; pass nil to award exactly what was claimed. The credited amount, not
// the claim, is what persists as authoritative. The conditional flip out of
// pending makes approval exactly-once.
func (s *SubmissionService) Approve(submissionID string, reviewer *models.Account, awardedPoints *int64) (*models.Submission, error) {
	if !reviewer.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins review submissions", ErrUnauthorized)
	}
	var sub models.Submission
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&sub, "id = ?", submissionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: unknown submission", ErrInvalidInput)
			}
			return storeErr(err)
		}
		points := sub.ClaimedPoints
		if awardedPoints != nil {
			points = *awardedPoints
		}
		if points <= 0 {
			return fmt.Errorf("%w: awarded points must be positive", ErrInvalidInput)
		}

		now := time.Now()
		res := tx.Model(&models.Submission{}).
			Where("id = ? AND status = ?", submissionID, models.SubmissionPending).
			Updates(map[string]interface{}{
				"status":         models.SubmissionApproved,
				"awarded_points": points,
				"reviewer_id":    reviewer.ID,
				"reviewed_at":    now,
			})
		if res.Error != nil {
			return storeErr(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyReviewed
		}
		if _, err := s.Ledger.Credit(tx, sub.AccountID, points, models.ReasonSubmission, sub.ID); err != nil {
			return err
		}
		enqueueNotification(tx, sub.AccountID, "submission_approved", fiber.Map{
			"submission_id": sub.ID, "test_name": sub.TestName, "points": points,
		})
		sub.Status = models.SubmissionApproved
		sub.AwardedPoints = &points
		sub.ReviewerID = &reviewer.ID
		sub.ReviewedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Reject records the reason; no balance moves.
func (s *SubmissionService) Reject(submissionID string, reviewer *models.Account, reason string) (*models.Submission, error) {
	if !reviewer.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins review submissions", ErrUnauthorized)
	}
	var sub models.Submission
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&sub, "id = ?", submissionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: unknown submission", ErrInvalidInput)
			}
			return storeErr(err)
		}
		now := time.Now()
		res := tx.Model(&models.Submission{}).
			Where("id = ? AND status = ?", submissionID, models.SubmissionPending).
			Updates(map[string]interface{}{
				"status":          models.SubmissionRejected,
				"rejected_reason": reason,
				"reviewer_id":     reviewer.ID,
				"reviewed_at":     now,
			})
		if res.Error != nil {
			return storeErr(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyReviewed
		}
		enqueueNotification(tx, sub.AccountID, "submission_rejected", fiber.Map{
			"submission_id": sub.ID, "test_name": sub.TestName, "reason": reason,
		})
		sub.Status = models.SubmissionRejected
		sub.RejectedReason = reason
		sub.ReviewerID = &reviewer.ID
		sub.ReviewedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// --- HTTP handlers ---

func (s *SubmissionService) PostCreate(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(string)
	var req struct {
		TestName      string `json:"test_name"`
		ClaimedPoints int64  `json:"claimed_points"`
		EvidenceKey   string `json:"evidence_key"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	sub, err := s.CreateSubmission(accountID, req.TestName, req.ClaimedPoints, req.EvidenceKey)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sub)
}

func (s *SubmissionService) GetMine(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(string)
	var subs []models.Submission
	if err := s.DB.Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&subs).Error; err != nil {
		log.Printf("DB Error fetching submissions: %v", err)
		return respondErr(c, storeErr(err))
	}
	return c.JSON(subs)
}

// --- Admin handlers ---

func (s *SubmissionService) GetPending(c *fiber.Ctx) error {
	var subs []models.Submission
	if err := s.DB.Where("status = ?", models.SubmissionPending).
		Order("created_at ASC").
		Find(&subs).Error; err != nil {
		log.Printf("DB Error fetching pending submissions: %v", err)
		return respondErr(c, storeErr(err))
	}
	return c.JSON(subs)
}

func (s *SubmissionService) PostReview(c *fiber.Ctx) error {
	reviewer := c.Locals("account").(*models.Account)
	var req struct {
		Decision      string `json:"decision"` // "approve" | "reject"
		AwardedPoints *int64 `json:"awarded_points"`
		Reason        string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	var (
		sub *models.Submission
		err error
	)
	switch req.Decision {
	case "approve":
		sub, err = s.Approve(c.Params("id"), reviewer, req.AwardedPoints)
	case "reject":
		sub, err = s.Reject(c.Params("id"), reviewer, req.Reason)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "decision must be approve or reject"})
	}
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(sub)
}
