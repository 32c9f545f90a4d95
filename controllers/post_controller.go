package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"blogium/models"
	"blogium/repository"
	"blogium/utils"
)

// pubDateLayouts are the accepted publication date formats. The short form is
// what the creation form asks for; the long form is what listings render.
var pubDateLayouts = []string{
	"02.01.2006 15:04:05",
	"02.01.2006",
}

// PostController serves listings, post detail and the owner-gated post
// mutations.
type PostController struct {
	db    *gorm.DB
	posts *repository.PostRepository
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB) *PostController {
	return &PostController{db: db, posts: repository.NewPostRepository(db)}
}

// responseWrapper mirrors the JSON envelope for cached full responses.
type responseWrapper struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// ListIndex returns the paginated front page: visible posts only.
func (p *PostController) ListIndex(ctx *gin.Context) {
	page := utils.ParsePage(ctx.Query("page"))

	cacheKey := fmt.Sprintf("cache:posts:index:page=%d", page)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	posts, pg, err := p.posts.ListIndex(time.Now(), page)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to list posts")
		return
	}

	payload := gin.H{"items": posts, "pagination": pg}
	utils.CacheSetJSON(cacheKey, responseWrapper{Code: 0, Message: "success", Data: payload}, time.Hour)
	utils.Success(ctx, payload)
}

// ListCategoryPosts returns the paginated listing for one published category.
// Missing and unpublished categories are indistinguishable: both 404.
func (p *PostController) ListCategoryPosts(ctx *gin.Context) {
	slug := strings.TrimSpace(ctx.Param("slug"))
	page := utils.ParsePage(ctx.Query("page"))

	cacheKey := fmt.Sprintf("cache:posts:cat=%s:page=%d", slug, page)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	category, posts, pg, err := p.posts.ListByCategory(slug, time.Now(), page)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40405, "category not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to list category posts")
		return
	}

	payload := gin.H{"category": category, "items": posts, "pagination": pg}
	utils.CacheSetJSON(cacheKey, responseWrapper{Code: 0, Message: "success", Data: payload}, time.Hour)
	utils.Success(ctx, payload)
}

// ListCategories returns the published category directory.
func (p *PostController) ListCategories(ctx *gin.Context) {
	categories, err := p.posts.ListCategories()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to list categories")
		return
	}
	utils.Success(ctx, gin.H{"items": categories})
}

// GetProfile returns a user's public profile together with a page of ALL
// their posts, drafts and future-dated included.
func (p *PostController) GetProfile(ctx *gin.Context) {
	username := strings.TrimSpace(ctx.Param("username"))
	page := utils.ParsePage(ctx.Query("page"))

	cacheKey := fmt.Sprintf("cache:profile:%s:page=%d", username, page)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	user, posts, pg, err := p.posts.ListByProfile(username, page)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load profile")
		return
	}

	payload := gin.H{"profile": publicUser(user), "items": posts, "pagination": pg}
	utils.CacheSetJSON(cacheKey, responseWrapper{Code: 0, Message: "success", Data: payload}, time.Hour)
	utils.Success(ctx, payload)
}

// GetPost returns a single post with its comment thread. Detail pages are not
// visibility-filtered; drafts are reachable by direct link, matching the
// listing/detail split of the product.
func (p *PostController) GetPost(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	cacheKey := "cache:post:detail:" + strconv.FormatUint(uint64(id), 10)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	post, err := p.posts.GetDetail(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load post")
		return
	}

	payload := gin.H{"post": post}
	utils.CacheSetJSON(cacheKey, responseWrapper{Code: 0, Message: "success", Data: payload}, time.Hour)
	utils.Success(ctx, payload)
}

type postForm struct {
	Title      string `json:"title" binding:"required,min=1"`
	Text       string `json:"text" binding:"required"`
	PubDate    string `json:"pub_date" binding:"required"`
	CategoryID *uint  `json:"category_id"`
	LocationID *uint  `json:"location_id"`
	Image      string `json:"image"`
}

// bindPostForm validates the creation/update form and applies it to post.
// It writes the error response itself and reports success.
func (p *PostController) bindPostForm(ctx *gin.Context, post *models.Post) bool {
	var req postForm
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return false
	}

	title := utils.Sanitize(strings.TrimSpace(req.Title))
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "title cannot be empty")
		return false
	}

	pubDate, err := parsePubDate(req.PubDate)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "pub_date must use DD.MM.YYYY format")
		return false
	}

	if req.CategoryID != nil {
		var count int64
		if err := p.db.Model(&models.Category{}).Where("id = ?", *req.CategoryID).Count(&count).Error; err != nil || count == 0 {
			utils.Error(ctx, http.StatusBadRequest, 40023, "invalid category")
			return false
		}
	}
	if req.LocationID != nil {
		var count int64
		if err := p.db.Model(&models.Location{}).Where("id = ?", *req.LocationID).Count(&count).Error; err != nil || count == 0 {
			utils.Error(ctx, http.StatusBadRequest, 40024, "invalid location")
			return false
		}
	}

	post.Title = title
	post.Text = utils.Sanitize(req.Text)
	post.PubDate = pubDate
	post.CategoryID = req.CategoryID
	post.LocationID = req.LocationID
	post.Image = strings.TrimSpace(req.Image)
	return true
}

// CreatePost allows authenticated users to schedule new posts. The author is
// always the requesting user.
func (p *PostController) CreatePost(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	post := models.Post{AuthorID: userID, IsPublished: true}
	if !p.bindPostForm(ctx, &post) {
		return
	}

	if err := p.db.Create(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to create post")
		return
	}

	username := currentUsername(ctx)
	p.invalidatePostCaches(post.ID, username)

	utils.Success(ctx, gin.H{
		"post":     post,
		"redirect": fmt.Sprintf("/profile/%s/", username),
	})
}

// UpdatePost allows the author to edit their post. Non-owners are rejected
// and the post stays unchanged.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var post models.Post
	if err := p.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load post")
		return
	}

	if !ownerGate(ctx, post.AuthorID) {
		return
	}

	if !p.bindPostForm(ctx, &post) {
		return
	}

	if err := p.db.Save(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to update post")
		return
	}

	p.invalidatePostCaches(post.ID, currentUsername(ctx))

	utils.Success(ctx, gin.H{
		"post":     post,
		"redirect": fmt.Sprintf("/posts/%d/", post.ID),
	})
}

// DeletePost allows the author to delete their post together with its
// comments. The comment cleanup is explicit, in one transaction.
func (p *PostController) DeletePost(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var post models.Post
	if err := p.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load post")
		return
	}

	if !ownerGate(ctx, post.AuthorID) {
		return
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to delete post")
		return
	}

	p.invalidatePostCaches(post.ID, currentUsername(ctx))

	utils.Success(ctx, gin.H{
		"message":  "post deleted",
		"redirect": "/",
	})
}

// UploadImage stores a post image under static/uploads and returns its URL.
func (p *PostController) UploadImage(ctx *gin.Context) {
	if _, ok := getUserID(ctx); !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "no file uploaded")
		return
	}
	defer file.Close()

	const maxSize = 10 * 1024 * 1024
	if header.Size > maxSize {
		utils.Error(ctx, http.StatusBadRequest, 40041, "file size exceeds 10MB")
		return
	}

	now := time.Now()
	baseDir := filepath.Join(".", "static", "uploads", now.Format("2006"), now.Format("01"), now.Format("02"))
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to create upload directory")
		return
	}

	safeName := uuid.NewString() + strings.ToLower(filepath.Ext(header.Filename))
	dstPath := filepath.Join(baseDir, safeName)

	out, err := os.Create(dstPath)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to save file")
		return
	}
	defer out.Close()

	lr := &io.LimitedReader{R: file, N: maxSize + 1}
	written, err := io.Copy(out, lr)
	if err != nil || written > maxSize {
		_ = out.Close()
		_ = os.Remove(dstPath)
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to write file")
		} else {
			utils.Error(ctx, http.StatusBadRequest, 40041, "file size exceeds 10MB")
		}
		return
	}

	url := fmt.Sprintf("/static/uploads/%s/%s/%s/%s", now.Format("2006"), now.Format("01"), now.Format("02"), safeName)
	utils.Success(ctx, gin.H{"url": url})
}

// invalidatePostCaches drops every cached view a post mutation can affect:
// listings (comment counts included), the detail page, and the author profile.
func (p *PostController) invalidatePostCaches(postID uint, username string) {
	utils.InvalidateByPrefix("cache:posts:")
	utils.InvalidateByPrefix("cache:post:detail:" + strconv.FormatUint(uint64(postID), 10))
	if username != "" {
		utils.InvalidateByPrefix("cache:profile:" + username + ":")
	}
}

func parsePubDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	var lastErr error
	for _, layout := range pubDateLayouts {
		t, err := time.ParseInLocation(layout, raw, time.Local)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// parseID reads a numeric path parameter, answering 404 for garbage input so
// /posts/abc/ behaves like a missing post.
func parseID(ctx *gin.Context, name string) (uint, bool) {
	raw := ctx.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		utils.Error(ctx, http.StatusNotFound, 40400, "not found")
		return 0, false
	}
	return uint(id), true
}
