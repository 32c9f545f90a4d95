package models

// Location is an optional place attribute of a post.
type Location struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"size:255;not null" json:"name"`
	Posts []Post `json:"-"`
}
