package controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"blogium/config"
	"blogium/models"
	"blogium/routes"
	"blogium/utils"
)

// newTestServer boots the full router against a fresh in-memory database.
// Redis points at a dead port so every cache lookup is a miss and tests stay
// hermetic.
func newTestServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	config.SetForTesting(config.AppConfig{
		AppPort:            "0",
		JWTSecret:          "test-secret",
		RateLimitPerMinute: 100000,
		AllowedOrigins:     []string{"*"},
		GinMode:            "test",
		GinPath:            filepath.Join(t.TempDir(), "gin.log"),
		RedisHost:          "127.0.0.1",
		RedisPort:          1,
		LogLevel:           "error",
		LogMaxSizeMB:       1,
		LogMaxBackups:      1,
		LogMaxAgeDays:      1,
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.User{}, &models.Category{}, &models.Location{}, &models.Post{}, &models.Comment{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return routes.SetupRouter(db), db
}

// createUser persists a user with a known password and returns it with a
// valid bearer token.
func createUser(t *testing.T, db *gorm.DB, username string) (models.User, string) {
	t.Helper()
	hash, err := utils.HashPassword("password123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{Username: username, Email: username + "@example.com", PasswordHash: hash}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	token, err := utils.GenerateToken(user.ID, user.Username, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return user, token
}

func createCategory(t *testing.T, db *gorm.DB, slug string, published bool) models.Category {
	t.Helper()
	category := models.Category{Title: slug, Slug: slug, IsPublished: published}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("create category %s: %v", slug, err)
	}
	return category
}

func createPost(t *testing.T, db *gorm.DB, author models.User, category *models.Category, published bool, pubDate time.Time) models.Post {
	t.Helper()
	post := models.Post{
		AuthorID:    author.ID,
		Title:       "seeded post",
		Text:        "seeded text",
		PubDate:     pubDate,
		IsPublished: published,
	}
	if category != nil {
		post.CategoryID = &category.ID
	}
	if err := db.Create(&post).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post
}

// doJSON performs a request with an optional bearer token and JSON body.
func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return env
}

// listTitles extracts post titles from a listing payload.
func listTitles(t *testing.T, env envelope) []string {
	t.Helper()
	items, ok := env.Data["items"].([]interface{})
	if !ok {
		t.Fatalf("payload has no items: %+v", env.Data)
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		m := it.(map[string]interface{})
		out = append(out, m["title"].(string))
	}
	return out
}

func hasTitle(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, want, w.Body.String())
	}
}
