package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Moderation actions recorded in the audit trail.
const (
	ActionPostCreated        = "post.created"
	ActionPostUpdated        = "post.updated"
	ActionPostDeleted        = "post.deleted"
	ActionPostPublished      = "post.published"
	ActionPostUnpublished    = "post.unpublished"
	ActionPostFeatured       = "post.featured"
	ActionPostUnfeatured     = "post.unfeatured"
	ActionCommentSubmitted   = "comment.submitted"
	ActionCommentApproved    = "comment.approved"
	ActionCommentRejected    = "comment.rejected"
	ActionProfileRoleChanged = "profile.role_changed"
)

// Audit target types.
const (
	TargetPost    = "post"
	TargetComment = "comment"
	TargetProfile = "profile"
)

// ModerationEvent is an append-only audit row for a privileged mutation.
// Deleted records keep a snapshot of what was removed in Detail.
type ModerationEvent struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	ActorID    string    `gorm:"size:36;not null;index" json:"actor_id"`
	Action     string    `gorm:"size:64;not null;index" json:"action"`
	TargetType string    `gorm:"size:32;not null" json:"target_type"`
	TargetID   string    `gorm:"size:36;not null;index" json:"target_id"`
	Detail     string    `gorm:"type:text" json:"detail,omitempty"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (ModerationEvent) TableName() string { return "moderation_events" }

func (e *ModerationEvent) BeforeCreate(_ *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
