package models

import "time"

// Achievement is an append-only brag post (earned badge, milestone, personal
// win) other members can like and comment on.
type Achievement struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	AccountID   string `gorm:"index;not null" json:"account_id"`
	Title       string `gorm:"not null" json:"title"`
	Code        string `gorm:"index;not null" json:"code"` // slug of Title
	Description string `gorm:"type:text" json:"description,omitempty"`

	LikeCount int64 `gorm:"not null;default:0" json:"like_count"` // denormalized for rendering

	Timestamps
}

// AchievementLike is unique per (achievement, account); a duplicate like is a
// detected no-op, never an error.
type AchievementLike struct {
	ID            string    `gorm:"primaryKey;type:uuid" json:"id"`
	AchievementID string    `gorm:"not null;uniqueIndex:idx_likes_achievement_account" json:"achievement_id"`
	AccountID     string    `gorm:"not null;uniqueIndex:idx_likes_achievement_account" json:"account_id"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// AchievementComment is append-only; empty text is rejected at the service.
type AchievementComment struct {
	ID            string    `gorm:"primaryKey;type:uuid" json:"id"`
	AchievementID string    `gorm:"index;not null" json:"achievement_id"`
	AccountID     string    `gorm:"index;not null" json:"account_id"`
	Text          string    `gorm:"type:text;not null" json:"text"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}
