package models

// Category groups posts under a unique URL slug. Unpublished categories hide
// every post filed under them from public listings.
type Category struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Slug        string `gorm:"size:64;uniqueIndex;not null" json:"slug"`
	IsPublished bool   `gorm:"not null" json:"is_published"`
	Posts       []Post `json:"-"`
}
