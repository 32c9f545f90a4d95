package models

import (
	"time"

	"gorm.io/gorm"
)

// Visible is the public visibility predicate for posts: the post is published,
// its category exists and is published, and the publication date has passed.
// A post without a category is never publicly visible.
//
// Profile listings intentionally do not apply this scope: an author sees all
// of their own posts, drafts and future-dated ones included.
func Visible(now time.Time) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.
			Joins("JOIN categories ON categories.id = posts.category_id").
			Where("posts.is_published = ? AND categories.is_published = ? AND posts.pub_date <= ?", true, true, now)
	}
}

// WithCommentCount annotates each selected post with the number of comments
// persisted against it.
func WithCommentCount(tx *gorm.DB) *gorm.DB {
	return tx.Select("posts.*, (SELECT COUNT(1) FROM comments WHERE comments.post_id = posts.id) AS comment_count")
}
