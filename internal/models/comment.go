package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommentFilter selects which comments the moderation list shows.
type CommentFilter string

const (
	CommentFilterAll      CommentFilter = "all"
	CommentFilterPending  CommentFilter = "pending"
	CommentFilterApproved CommentFilter = "approved"
)

// ParseCommentFilter returns the filter for s; empty defaults to pending, like the moderation screen.
func ParseCommentFilter(s string) (CommentFilter, bool) {
	switch CommentFilter(s) {
	case "":
		return CommentFilterPending, true
	case CommentFilterAll, CommentFilterPending, CommentFilterApproved:
		return CommentFilter(s), true
	}
	return "", false
}

// Comment is a reader comment on a post. It stays hidden until approved.
type Comment struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	PostID    string    `gorm:"size:36;not null;index" json:"post_id"`
	UserID    string    `gorm:"size:36;not null;index" json:"user_id"`
	UserName  string    `gorm:"not null" json:"user_name"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Approved  bool      `gorm:"not null;default:false;index" json:"approved"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (Comment) TableName() string { return "comments" }

// BeforeCreate assigns a UUID when the caller did not supply one.
func (c *Comment) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// ModerationComment is a comment joined with its parent post title for the moderation list.
type ModerationComment struct {
	Comment
	PostTitle string `json:"post_title"`
}
