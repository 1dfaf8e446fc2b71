// services/task_service.go
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

type TaskService struct {
	DB     *gorm.DB
	Ledger *LedgerService
}

func NewTaskService(db *gorm.DB, ledger *LedgerService) *TaskService {
	return &TaskService{DB: db, Ledger: ledger}
}

// CreateTask registers a pending task and tells the assignee about it.
func (s *TaskService) CreateTask(creatorID, assigneeID, title string, priority models.TaskPriority, reward int64, dueAt *time.Time) (*models.Task, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: task title is required", ErrInvalidInput)
	}
	if reward < 0 {
		return nil, fmt.Errorf("%w: reward cannot be negative", ErrInvalidInput)
	}
	if assigneeID == "" {
		return nil, fmt.Errorf("%w: assignee is required", ErrInvalidInput)
	}
	switch priority {
	case models.PriorityLow, models.PriorityNormal, models.PriorityHigh:
	case "":
		priority = models.PriorityNormal
	default:
		return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, priority)
	}

	task := &models.Task{
		ID:           uuid.NewString(),
		CreatorID:    creatorID,
		AssigneeID:   assigneeID,
		Title:        title,
		Status:       models.TaskPending,
		Priority:     priority,
		Reward:       reward,
		DueAt:        dueAt,
		LastActionAt: time.Now(),
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var assignee models.Account
		if err := tx.Where("id = ? AND is_active = ?", assigneeID, true).First(&assignee).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: unknown assignee", ErrInvalidInput)
			}
			return storeErr(err)
		}
		if err := tx.Create(task).Error; err != nil {
			return storeErr(err)
		}
		enqueueNotification(tx, assigneeID, "task_assigned", fiber.Map{
			"task_id": task.ID, "title": task.Title, "reward": task.Reward,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// StartTask moves pending → in_progress. Only the assignee may start.
func (s *TaskService) StartTask(taskID, actorID string) (*models.Task, error) {
	return s.transition(taskID, actorID, transitionSpec{
		from:      []models.TaskStatus{models.TaskPending},
		to:        models.TaskInProgress,
		actorRole: actorAssignee,
	})
}

// CompleteTask moves pending/in_progress → completed and pays the reward in
// the same transaction. The conditional status flip is what makes the payout
// exactly-once: a second complete finds zero matching rows.
func (s *TaskService) CompleteTask(taskID, actorID string) (*models.Task, error) {
	var task models.Task
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&task, "id = ?", taskID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: unknown task", ErrInvalidInput)
			}
			return storeErr(err)
		}
		if task.AssigneeID != actorID {
			return fmt.Errorf("%w: only the assignee may complete a task", ErrUnauthorized)
		}
		if err := s.reactivateIfDue(tx, &task); err != nil {
			return err
		}
		now := time.Now()
		res := tx.Model(&models.Task{}).
			Where("id = ? AND status IN ?", taskID, []models.TaskStatus{models.TaskPending, models.TaskInProgress}).
			Updates(map[string]interface{}{
				"status":         models.TaskCompleted,
				"reward_paid_at": now,
				"last_action_at": now,
			})
		if res.Error != nil {
			return storeErr(res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: task is %s", ErrInvalidTransition, task.Status)
		}
		if task.Reward > 0 {
			if _, err := s.Ledger.Credit(tx, task.AssigneeID, task.Reward, models.ReasonTaskReward, task.ID); err != nil {
				return err
			}
		}
		enqueueNotification(tx, task.CreatorID, "task_completed", fiber.Map{
			"task_id": task.ID, "title": task.Title,
		})
		task.Status = models.TaskCompleted
		task.RewardPaidAt = &now
		task.LastActionAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// CancelTask moves pending/in_progress → cancelled. Creator or admin only;
// no reward moves.
func (s *TaskService) CancelTask(taskID, actorID string, actorIsAdmin bool, reason string) (*models.Task, error) {
	var task models.Task
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&task, "id = ?", taskID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: unknown task", ErrInvalidInput)
			}
			return storeErr(err)
		}
		if task.CreatorID != actorID && !actorIsAdmin {
			return fmt.Errorf("%w: only the creator or an admin may cancel", ErrUnauthorized)
		}
		if err := s.reactivateIfDue(tx, &task); err != nil {
			return err
		}
		now := time.Now()
		res := tx.Model(&models.Task{}).
			Where("id = ? AND status IN ?", taskID, []models.TaskStatus{models.TaskPending, models.TaskInProgress}).
			Updates(map[string]interface{}{
				"status":         models.TaskCancelled,
				"cancel_reason":  reason,
				"last_action_at": now,
			})
		if res.Error != nil {
			return storeErr(res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: task is %s", ErrInvalidTransition, task.Status)
		}
		enqueueNotification(tx, task.AssigneeID, "task_cancelled", fiber.Map{
			"task_id": task.ID, "title": task.Title, "reason": reason,
		})
		task.Status = models.TaskCancelled
		task.CancelReason = reason
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// PostponeTask parks the task until resumeAt; the scheduler (or the next
// read) returns it to pending once the date passes.
func (s *TaskService) PostponeTask(taskID, actorID string, resumeAt time.Time) (*models.Task, error) {
	if resumeAt.Before(time.Now()) {
		return nil, fmt.Errorf("%w: resume date must be in the future", ErrInvalidInput)
	}
	var task models.Task
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&task, "id = ?", taskID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: unknown task", ErrInvalidInput)
			}
			return storeErr(err)
		}
		if task.AssigneeID != actorID && task.CreatorID != actorID {
			return fmt.Errorf("%w: not a participant of this task", ErrUnauthorized)
		}
		res := tx.Model(&models.Task{}).
			Where("id = ? AND status IN ?", taskID, []models.TaskStatus{models.TaskPending, models.TaskInProgress}).
			Updates(map[string]interface{}{
				"status":         models.TaskPostponed,
				"resume_at":      resumeAt,
				"last_action_at": time.Now(),
			})
		if res.Error != nil {
			return storeErr(res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: task is %s", ErrInvalidTransition, task.Status)
		}
		task.Status = models.TaskPostponed
		task.ResumeAt = &resumeAt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// reactivateIfDue flips a postponed task back to pending once its resume date
// has passed, so a due task is usable immediately instead of waiting for the
// next scheduler tick.
func (s *TaskService) reactivateIfDue(tx *gorm.DB, task *models.Task) error {
	if task.Status != models.TaskPostponed || task.ResumeAt == nil || task.ResumeAt.After(time.Now()) {
		return nil
	}
	res := tx.Model(&models.Task{}).
		Where("id = ? AND status = ?", task.ID, models.TaskPostponed).
		Updates(map[string]interface{}{
			"status":         models.TaskPending,
			"resume_at":      nil,
			"last_action_at": time.Now(),
		})
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected > 0 {
		task.Status = models.TaskPending
		task.ResumeAt = nil
	}
	return nil
}

// ReactivateDueTasks flips postponed tasks whose resume date arrived back to
// pending. Driven by the scheduler; safe to run any number of times.
func (s *TaskService) ReactivateDueTasks() (int64, error) {
	res := s.DB.Model(&models.Task{}).
		Where("status = ? AND resume_at <= ?", models.TaskPostponed, time.Now()).
		Updates(map[string]interface{}{
			"status":         models.TaskPending,
			"resume_at":      nil,
			"last_action_at": time.Now(),
		})
	if res.Error != nil {
		return 0, storeErr(res.Error)
	}
	return res.RowsAffected, nil
}

type transitionSpec struct {
	from      []models.TaskStatus
	to        models.TaskStatus
	actorRole int
}

const (
	actorAssignee = iota
	actorCreator
)

func (s *TaskService) transition(taskID, actorID string, spec transitionSpec) (*models.Task, error) {
	var task models.Task
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&task, "id = ?", taskID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: unknown task", ErrInvalidInput)
			}
			return storeErr(err)
		}
		switch spec.actorRole {
		case actorAssignee:
			if task.AssigneeID != actorID {
				return fmt.Errorf("%w: only the assignee may do this", ErrUnauthorized)
			}
		case actorCreator:
			if task.CreatorID != actorID {
				return fmt.Errorf("%w: only the creator may do this", ErrUnauthorized)
			}
		}
		if err := s.reactivateIfDue(tx, &task); err != nil {
			return err
		}
		res := tx.Model(&models.Task{}).
			Where("id = ? AND status IN ?", taskID, spec.from).
			Updates(map[string]interface{}{
				"status":         spec.to,
				"last_action_at": time.Now(),
			})
		if res.Error != nil {
			return storeErr(res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: task is %s", ErrInvalidTransition, task.Status)
		}
		task.Status = spec.to
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// --- HTTP handlers ---

func (s *TaskService) PostCreate(c *fiber.Ctx) error {
	creatorID := c.Locals("account_id").(string)
	var req struct {
		AssigneeID string              `json:"assignee_id"`
		Title      string              `json:"title"`
		Priority   models.TaskPriority `json:"priority"`
		Reward     int64               `json:"reward"`
		DueAt      *time.Time          `json:"due_at"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	task, err := s.CreateTask(creatorID, req.AssigneeID, req.Title, req.Priority, req.Reward, req.DueAt)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

func (s *TaskService) PostStart(c *fiber.Ctx) error {
	task, err := s.StartTask(c.Params("id"), c.Locals("account_id").(string))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(task)
}

func (s *TaskService) PostComplete(c *fiber.Ctx) error {
	task, err := s.CompleteTask(c.Params("id"), c.Locals("account_id").(string))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(task)
}

func (s *TaskService) PostCancel(c *fiber.Ctx) error {
	actor := c.Locals("account").(*models.Account)
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	task, err := s.CancelTask(c.Params("id"), actor.ID, actor.IsAdmin(), req.Reason)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(task)
}

func (s *TaskService) PostPostpone(c *fiber.Ctx) error {
	var req struct {
		ResumeAt time.Time `json:"resume_at"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	task, err := s.PostponeTask(c.Params("id"), c.Locals("account_id").(string), req.ResumeAt)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(task)
}

// GetMine lists tasks the caller created or is assigned to. Due postponed
// tasks are swept back to pending first so the listing never shows stale
// postponements.
func (s *TaskService) GetMine(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(string)
	if _, err := s.ReactivateDueTasks(); err != nil {
		log.Printf("Failed to reactivate due tasks: %v", err)
	}
	var tasks []models.Task
	if err := s.DB.
		Where("assignee_id = ? OR creator_id = ?", accountID, accountID).
		Order("last_action_at DESC").
		Find(&tasks).Error; err != nil {
		log.Printf("DB Error fetching tasks: %v", err)
		return respondErr(c, storeErr(err))
	}
	return c.JSON(tasks)
}
