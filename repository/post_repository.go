package repository

import (
	"time"

	"gorm.io/gorm"

	"blogium/models"
	"blogium/utils"
)

// PostRepository composes the listing and detail queries for posts. All
// methods are read-only; mutations stay in the controllers.
type PostRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a repository bound to the given connection.
func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

// listing returns the shared select for listing pages: comment_count
// annotated, associations preloaded, newest publication first.
func (r *PostRepository) listing() *gorm.DB {
	return r.db.Model(&models.Post{}).
		Scopes(models.WithCommentCount).
		Preload("Author").
		Preload("Category").
		Preload("Location").
		Order("posts.pub_date DESC")
}

// ListIndex returns the page of publicly visible posts for the front page.
func (r *PostRepository) ListIndex(now time.Time, page int) ([]models.Post, utils.Pagination, error) {
	var total int64
	if err := r.db.Model(&models.Post{}).Scopes(models.Visible(now)).Count(&total).Error; err != nil {
		return nil, utils.Pagination{}, err
	}

	pg, offset := utils.Paginate(page, total)
	var posts []models.Post
	err := r.listing().
		Scopes(models.Visible(now)).
		Offset(offset).Limit(utils.PageSize).
		Find(&posts).Error
	return posts, pg, err
}

// ListByCategory resolves a published category by slug and returns its page of
// visible posts. A missing or unpublished category yields gorm.ErrRecordNotFound.
func (r *PostRepository) ListByCategory(slug string, now time.Time, page int) (models.Category, []models.Post, utils.Pagination, error) {
	var category models.Category
	if err := r.db.Where("slug = ? AND is_published = ?", slug, true).First(&category).Error; err != nil {
		return models.Category{}, nil, utils.Pagination{}, err
	}

	var total int64
	if err := r.db.Model(&models.Post{}).
		Scopes(models.Visible(now)).
		Where("posts.category_id = ?", category.ID).
		Count(&total).Error; err != nil {
		return category, nil, utils.Pagination{}, err
	}

	pg, offset := utils.Paginate(page, total)
	var posts []models.Post
	err := r.listing().
		Scopes(models.Visible(now)).
		Where("posts.category_id = ?", category.ID).
		Offset(offset).Limit(utils.PageSize).
		Find(&posts).Error
	return category, posts, pg, err
}

// ListByProfile resolves a user by username and returns a page of ALL their
// posts. The visibility filter is deliberately not applied: an author sees
// their own drafts and future-dated posts on the profile page.
func (r *PostRepository) ListByProfile(username string, page int) (models.User, []models.Post, utils.Pagination, error) {
	var user models.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return models.User{}, nil, utils.Pagination{}, err
	}

	var total int64
	if err := r.db.Model(&models.Post{}).Where("author_id = ?", user.ID).Count(&total).Error; err != nil {
		return user, nil, utils.Pagination{}, err
	}

	pg, offset := utils.Paginate(page, total)
	var posts []models.Post
	err := r.listing().
		Where("posts.author_id = ?", user.ID).
		Offset(offset).Limit(utils.PageSize).
		Find(&posts).Error
	return user, posts, pg, err
}

// GetDetail loads a single post with author, category, location and the full
// comment thread in creation order.
func (r *PostRepository) GetDetail(id uint) (models.Post, error) {
	var post models.Post
	err := r.db.Model(&models.Post{}).
		Scopes(models.WithCommentCount).
		Preload("Author").
		Preload("Category").
		Preload("Location").
		Preload("Comments", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("comments.created_at ASC")
		}).
		Preload("Comments.Author").
		First(&post, id).Error
	return post, err
}

// ListCategories returns the published categories for the directory endpoint.
func (r *PostRepository) ListCategories() ([]models.Category, error) {
	var categories []models.Category
	err := r.db.Where("is_published = ?", true).Order("title ASC").Find(&categories).Error
	return categories, err
}
