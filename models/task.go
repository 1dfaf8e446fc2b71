package models

import "time"

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
	TaskPostponed  TaskStatus = "postponed"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityNormal TaskPriority = "normal"
	PriorityHigh   TaskPriority = "high"
)

// Task is a creator/assignee work item. The reward is paid exactly once, on
// the transition into completed, in the same transaction as the status flip.
type Task struct {
	ID         string       `gorm:"primaryKey;type:uuid" json:"id"`
	CreatorID  string       `gorm:"index;not null" json:"creator_id"`
	AssigneeID string       `gorm:"index;not null" json:"assignee_id"`
	Title      string       `gorm:"not null" json:"title"`
	Status     TaskStatus   `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	Priority   TaskPriority `gorm:"type:varchar(8);not null;default:'normal'" json:"priority"`
	Reward     int64        `gorm:"not null;default:0" json:"reward"`
	DueAt      *time.Time   `json:"due_at,omitempty"`

	// Postpone bookkeeping: the task returns to pending once ResumeAt passes.
	ResumeAt     *time.Time `json:"resume_at,omitempty"`
	CancelReason string     `json:"cancel_reason,omitempty"`
	RewardPaidAt *time.Time `json:"reward_paid_at,omitempty"`
	LastActionAt time.Time  `gorm:"not null" json:"last_action_at"`

	Timestamps
}
