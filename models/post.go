package models

import "time"

// Post is a blog entry with a scheduled publication date. Category and
// Location are optional; Image holds the public URL of an uploaded file.
type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AuthorID    uint      `gorm:"index;not null" json:"author_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	PubDate     time.Time `gorm:"index;not null" json:"pub_date"`
	IsPublished bool      `gorm:"not null" json:"is_published"`
	CategoryID  *uint     `gorm:"index" json:"category_id"`
	LocationID  *uint     `json:"location_id"`
	Image       string    `gorm:"size:512" json:"image"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Author   User      `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Category *Category `json:"category"`
	Location *Location `json:"location"`
	Comments []Comment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"comments,omitempty"`

	// CommentCount is annotated by listing queries, never stored.
	CommentCount int64 `gorm:"->;-:migration" json:"comment_count"`
}
