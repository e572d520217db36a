package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Blog categories offered by the post editor.
const (
	CategoryTeaching    = "enseignement"
	CategoryTestimony   = "temoignage"
	CategoryMeditation  = "meditation"
	CategoryNews        = "actualites"
	DefaultPostCategory = CategoryTeaching
)

// Categories lists the accepted post categories in editor order.
var Categories = []string{CategoryTeaching, CategoryTestimony, CategoryMeditation, CategoryNews}

// Post is a blog article. Readers without the admin role only ever see published posts.
type Post struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	Title      string    `gorm:"not null" json:"title"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Excerpt    string    `gorm:"type:text;not null" json:"excerpt"`
	Category   string    `gorm:"not null;index" json:"category"`
	AuthorID   string    `gorm:"size:36;not null;index" json:"author_id"`
	AuthorName string    `gorm:"not null" json:"author_name"`
	Featured   bool      `gorm:"not null;default:false" json:"featured"`
	Published  bool      `gorm:"not null;default:false;index" json:"published"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Post) TableName() string { return "blog_posts" }

// BeforeCreate assigns a UUID when the caller did not supply one.
func (p *Post) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Category == "" {
		p.Category = DefaultPostCategory
	}
	return nil
}

// PostInput is the editor payload for a new post.
type PostInput struct {
	Title     string `json:"title" validate:"required,max=300"`
	Content   string `json:"content" validate:"required,max=50000"`
	Excerpt   string `json:"excerpt" validate:"required,max=1000"`
	Category  string `json:"category" validate:"omitempty,oneof=enseignement temoignage meditation actualites"`
	Featured  bool   `json:"featured"`
	Published bool   `json:"published"`
}

// PostPatch is a partial post update; nil fields are left untouched.
type PostPatch struct {
	Title     *string `json:"title,omitempty" validate:"omitempty,min=1,max=300"`
	Content   *string `json:"content,omitempty" validate:"omitempty,min=1,max=50000"`
	Excerpt   *string `json:"excerpt,omitempty" validate:"omitempty,min=1,max=1000"`
	Category  *string `json:"category,omitempty" validate:"omitempty,oneof=enseignement temoignage meditation actualites"`
	Featured  *bool   `json:"featured,omitempty"`
	Published *bool   `json:"published,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p PostPatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Excerpt == nil &&
		p.Category == nil && p.Featured == nil && p.Published == nil
}

// Columns returns the column/value map gorm should write.
func (p PostPatch) Columns() map[string]any {
	cols := map[string]any{}
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Content != nil {
		cols["content"] = *p.Content
	}
	if p.Excerpt != nil {
		cols["excerpt"] = *p.Excerpt
	}
	if p.Category != nil {
		cols["category"] = *p.Category
	}
	if p.Featured != nil {
		cols["featured"] = *p.Featured
	}
	if p.Published != nil {
		cols["published"] = *p.Published
	}
	return cols
}

// Apply copies the non-nil fields of the patch onto post.
func (p PostPatch) Apply(post *Post) {
	if p.Title != nil {
		post.Title = *p.Title
	}
	if p.Content != nil {
		post.Content = *p.Content
	}
	if p.Excerpt != nil {
		post.Excerpt = *p.Excerpt
	}
	if p.Category != nil {
		post.Category = *p.Category
	}
	if p.Featured != nil {
		post.Featured = *p.Featured
	}
	if p.Published != nil {
		post.Published = *p.Published
	}
}

// PostFilter narrows the public post listing.
type PostFilter struct {
	Category string
}
