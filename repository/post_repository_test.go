package repository_test

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"blogium/models"
	"blogium/repository"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
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
	// a single connection keeps the in-memory database alive and shared
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.User{}, &models.Category{}, &models.Location{}, &models.Post{}, &models.Comment{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type fixture struct {
	db    *gorm.DB
	alice models.User
	news  models.Category
	now   time.Time
}

func seed(t *testing.T, db *gorm.DB) *fixture {
	t.Helper()
	f := &fixture{db: db, now: time.Now()}

	f.alice = models.User{Username: "alice", Email: "alice@example.com"}
	if err := db.Create(&f.alice).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	f.news = models.Category{Title: "News", Slug: "news", IsPublished: true}
	if err := db.Create(&f.news).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return f
}

func (f *fixture) post(t *testing.T, title string, published bool, pubDate time.Time, categoryID *uint) models.Post {
	t.Helper()
	p := models.Post{
		AuthorID:    f.alice.ID,
		Title:       title,
		Text:        "body of " + title,
		PubDate:     pubDate,
		IsPublished: published,
		CategoryID:  categoryID,
	}
	if err := f.db.Create(&p).Error; err != nil {
		t.Fatalf("seed post %s: %v", title, err)
	}
	return p
}

func titles(posts []models.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Title)
	}
	return out
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func TestUnpublishedFlagRoundTrips(t *testing.T) {
	f := seed(t, openTestDB(t))

	hidden := models.Category{Title: "Hidden", Slug: "hidden", IsPublished: false}
	if err := f.db.Create(&hidden).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	var category models.Category
	if err := f.db.First(&category, hidden.ID).Error; err != nil {
		t.Fatalf("reload category: %v", err)
	}
	if category.IsPublished {
		t.Error("category created with IsPublished=false must persist as false")
	}

	catID := f.news.ID
	draft := f.post(t, "draft", false, f.now, &catID)
	var post models.Post
	if err := f.db.First(&post, draft.ID).Error; err != nil {
		t.Fatalf("reload post: %v", err)
	}
	if post.IsPublished {
		t.Error("post created with IsPublished=false must persist as false")
	}
}

func TestListIndexHidesDraftsAndFuturePosts(t *testing.T) {
	f := seed(t, openTestDB(t))
	repo := repository.NewPostRepository(f.db)

	catID := f.news.ID
	f.post(t, "live", true, f.now.Add(-time.Hour), &catID)
	f.post(t, "draft", false, f.now.Add(-time.Hour), &catID)
	f.post(t, "scheduled", true, f.now.Add(48*time.Hour), &catID)
	f.post(t, "uncategorized", true, f.now.Add(-time.Hour), nil)

	posts, pg, err := repo.ListIndex(f.now, 1)
	if err != nil {
		t.Fatalf("ListIndex: %v", err)
	}
	got := titles(posts)
	if len(got) != 1 || got[0] != "live" {
		t.Fatalf("index = %v, want [live]", got)
	}
	if pg.Total != 1 {
		t.Errorf("total = %d, want 1", pg.Total)
	}
}

func TestListIndexHidesUnpublishedCategory(t *testing.T) {
	f := seed(t, openTestDB(t))
	repo := repository.NewPostRepository(f.db)

	hidden := models.Category{Title: "Hidden", Slug: "hidden", IsPublished: false}
	if err := f.db.Create(&hidden).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	f.post(t, "in-hidden-category", true, f.now.Add(-time.Hour), &hidden.ID)

	posts, _, err := repo.ListIndex(f.now, 1)
	if err != nil {
		t.Fatalf("ListIndex: %v", err)
	}
	if len(posts) != 0 {
		t.Fatalf("index = %v, want empty", titles(posts))
	}
}

func TestListIndexOrdersByPubDateDescending(t *testing.T) {
	f := seed(t, openTestDB(t))
	repo := repository.NewPostRepository(f.db)

	catID := f.news.ID
	f.post(t, "older", true, f.now.Add(-3*time.Hour), &catID)
	f.post(t, "newest", true, f.now.Add(-time.Minute), &catID)
	f.post(t, "middle", true, f.now.Add(-time.Hour), &catID)

	posts, _, err := repo.ListIndex(f.now, 1)
	if err != nil {
		t.Fatalf("ListIndex: %v", err)
	}
	got := titles(posts)
	want := []string{"newest", "middle", "older"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestCommentCountAnnotation(t *testing.T) {
	f := seed(t, openTestDB(t))
	repo := repository.NewPostRepository(f.db)

	catID := f.news.ID
	commented := f.post(t, "commented", true, f.now.Add(-time.Hour), &catID)
	f.post(t, "silent", true, f.now.Add(-2*time.Hour), &catID)

	for i := 0; i < 3; i++ {
		c := models.Comment{PostID: commented.ID, AuthorID: f.alice.ID, Text: "nice"}
		if err := f.db.Create(&c).Error; err != nil {
			t.Fatalf("seed comment: %v", err)
		}
	}

	posts, _, err := repo.ListIndex(f.now, 1)
	if err != nil {
		t.Fatalf("ListIndex: %v", err)
	}
	counts := map[string]int64{}
	for _, p := range posts {
		counts[p.Title] = p.CommentCount
	}
	if counts["commented"] != 3 {
		t.Errorf("comment_count = %d, want 3", counts["commented"])
	}
	if counts["silent"] != 0 {
		t.Errorf("comment_count = %d, want 0", counts["silent"])
	}
}

func TestListByCategoryNotFound(t *testing.T) {
	f := seed(t, openTestDB(t))
	repo := repository.NewPostRepository(f.db)

	hidden := models.Category{Title: "Hidden", Slug: "hidden", IsPublished: false}
	if err := f.db.Create(&hidden).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}

	if _, _, _, err := repo.ListByCategory("missing", f.now, 1); err != gorm.ErrRecordNotFound {
		t.Errorf("missing slug: err = %v, want ErrRecordNotFound", err)
	}
	if _, _, _, err := repo.ListByCategory("hidden", f.now, 1); err != gorm.ErrRecordNotFound {
		t.Errorf("unpublished slug: err = %v, want ErrRecordNotFound", err)
	}
}

func TestListByCategoryRestrictsToCategory(t *testing.T) {
	f := seed(t, openTestDB(t))
	repo := repository.NewPostRepository(f.db)

	other := models.Category{Title: "Tech", Slug: "tech", IsPublished: true}
	if err := f.db.Create(&other).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	newsID, techID := f.news.ID, other.ID
	f.post(t, "news-post", true, f.now.Add(-time.Hour), &newsID)
	f.post(t, "tech-post", true, f.now.Add(-time.Hour), &techID)

	category, posts, _, err := repo.ListByCategory("news", f.now, 1)
	if err != nil {
		t.Fatalf("ListByCategory: %v", err)
	}
	if category.Slug != "news" {
		t.Errorf("resolved category = %s", category.Slug)
	}
	got := titles(posts)
	if len(got) != 1 || got[0] != "news-post" {
		t.Fatalf("category listing = %v, want [news-post]", got)
	}
}

func TestListByProfileBypassesVisibility(t *testing.T) {
	f := seed(t, openTestDB(t))
	repo := repository.NewPostRepository(f.db)

	catID := f.news.ID
	f.post(t, "live", true, f.now.Add(-time.Hour), &catID)
	f.post(t, "draft", false, f.now.Add(-time.Hour), &catID)
	f.post(t, "scheduled", true, f.now.Add(48*time.Hour), &catID)

	user, posts, pg, err := repo.ListByProfile("alice", 1)
	if err != nil {
		t.Fatalf("ListByProfile: %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("resolved user = %s", user.Username)
	}
	got := titles(posts)
	for _, want := range []string{"live", "draft", "scheduled"} {
		if !contains(got, want) {
			t.Errorf("profile listing %v missing %q", got, want)
		}
	}
	if pg.Total != 3 {
		t.Errorf("total = %d, want 3", pg.Total)
	}

	if _, _, _, err := repo.ListByProfile("nobody", 1); err != gorm.ErrRecordNotFound {
		t.Errorf("unknown user: err = %v, want ErrRecordNotFound", err)
	}
}

func TestListIndexPagination(t *testing.T) {
	f := seed(t, openTestDB(t))
	repo := repository.NewPostRepository(f.db)

	catID := f.news.ID
	for i := 0; i < 25; i++ {
		f.post(t, "post", true, f.now.Add(-time.Duration(i+1)*time.Minute), &catID)
	}

	posts, pg, err := repo.ListIndex(f.now, 1)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if len(posts) != 10 || !pg.HasNext {
		t.Errorf("page 1: %d items has_next=%v, want 10 items has_next=true", len(posts), pg.HasNext)
	}

	posts, pg, err = repo.ListIndex(f.now, 3)
	if err != nil {
		t.Fatalf("page 3: %v", err)
	}
	if len(posts) != 5 || pg.HasNext {
		t.Errorf("page 3: %d items has_next=%v, want 5 items has_next=false", len(posts), pg.HasNext)
	}
	if !pg.HasPrevious || pg.TotalPages != 3 {
		t.Errorf("page 3 metadata: %+v", pg)
	}
}

func TestGetDetailLoadsThread(t *testing.T) {
	f := seed(t, openTestDB(t))
	repo := repository.NewPostRepository(f.db)

	catID := f.news.ID
	post := f.post(t, "threaded", true, f.now.Add(-time.Hour), &catID)
	first := models.Comment{PostID: post.ID, AuthorID: f.alice.ID, Text: "first", CreatedAt: f.now.Add(-2 * time.Minute)}
	second := models.Comment{PostID: post.ID, AuthorID: f.alice.ID, Text: "second", CreatedAt: f.now.Add(-time.Minute)}
	if err := f.db.Create(&first).Error; err != nil {
		t.Fatalf("seed comment: %v", err)
	}
	if err := f.db.Create(&second).Error; err != nil {
		t.Fatalf("seed comment: %v", err)
	}

	got, err := repo.GetDetail(post.ID)
	if err != nil {
		t.Fatalf("GetDetail: %v", err)
	}
	if len(got.Comments) != 2 {
		t.Fatalf("comments = %d, want 2", len(got.Comments))
	}
	if got.Comments[0].Text != "first" || got.Comments[1].Text != "second" {
		t.Errorf("thread order: %s then %s", got.Comments[0].Text, got.Comments[1].Text)
	}
	if got.Comments[0].Author.Username != "alice" {
		t.Errorf("comment author not preloaded: %+v", got.Comments[0].Author)
	}
	if got.CommentCount != 2 {
		t.Errorf("comment_count = %d, want 2", got.CommentCount)
	}

	if _, err := repo.GetDetail(9999); err != gorm.ErrRecordNotFound {
		t.Errorf("missing post: err = %v, want ErrRecordNotFound", err)
	}
}
