package controllers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"blogium/models"
)

func TestAddComment(t *testing.T) {
	r, db := newTestServer(t)
	alice, _ := createUser(t, db, "alice")
	_, bobToken := createUser(t, db, "bob")
	news := createCategory(t, db, "news", true)
	post := createPost(t, db, alice, &news, true, time.Now().Add(-time.Hour))

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/comments", post.ID), bobToken, map[string]string{
		"text": "nice",
	})
	expectStatus(t, w, http.StatusOK)
	env := decode(t, w)
	if want := fmt.Sprintf("/posts/%d/", post.ID); env.Data["redirect"] != want {
		t.Errorf("redirect = %v, want %s", env.Data["redirect"], want)
	}

	var count int64
	db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&count)
	if count != 1 {
		t.Errorf("comment count = %d, want 1", count)
	}

	// detail listing now annotates one comment
	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", post.ID), "", nil)
	env = decode(t, w)
	detail := env.Data["post"].(map[string]interface{})
	if detail["comment_count"] != float64(1) {
		t.Errorf("comment_count = %v, want 1", detail["comment_count"])
	}
}

// Blank comment input is skipped without an error: the response still carries
// the post redirect and nothing is persisted.
func TestAddCommentBlankTextIsSilentlySkipped(t *testing.T) {
	r, db := newTestServer(t)
	alice, token := createUser(t, db, "alice")
	news := createCategory(t, db, "news", true)
	post := createPost(t, db, alice, &news, true, time.Now().Add(-time.Hour))

	for _, body := range []interface{}{
		map[string]string{"text": ""},
		map[string]string{"text": "   "},
		map[string]string{},
	} {
		w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/comments", post.ID), token, body)
		expectStatus(t, w, http.StatusOK)
		env := decode(t, w)
		if want := fmt.Sprintf("/posts/%d/", post.ID); env.Data["redirect"] != want {
			t.Errorf("redirect = %v, want %s", env.Data["redirect"], want)
		}
	}

	var count int64
	db.Model(&models.Comment{}).Count(&count)
	if count != 0 {
		t.Errorf("comment count = %d, blank input must not persist", count)
	}
}

func TestAddCommentTargetChecks(t *testing.T) {
	r, db := newTestServer(t)
	alice, token := createUser(t, db, "alice")
	news := createCategory(t, db, "news", true)
	draft := createPost(t, db, alice, &news, false, time.Now().Add(-time.Hour))

	w := doJSON(t, r, http.MethodPost, "/api/v1/posts/9999/comments", token, map[string]string{"text": "hello"})
	expectStatus(t, w, http.StatusNotFound)

	// a draft still accepts comments: the gate is existence, not visibility
	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/comments", draft.ID), token, map[string]string{"text": "hello"})
	expectStatus(t, w, http.StatusOK)

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/comments", draft.ID), "", map[string]string{"text": "anon"})
	expectStatus(t, w, http.StatusUnauthorized)

	var count int64
	db.Model(&models.Comment{}).Count(&count)
	if count != 1 {
		t.Errorf("comment count = %d, want only the authenticated one", count)
	}
}

func TestOnlyAuthorMayEditComment(t *testing.T) {
	r, db := newTestServer(t)
	alice, aliceToken := createUser(t, db, "alice")
	_, bobToken := createUser(t, db, "bob")
	news := createCategory(t, db, "news", true)
	post := createPost(t, db, alice, &news, true, time.Now().Add(-time.Hour))

	comment := models.Comment{PostID: post.ID, AuthorID: alice.ID, Text: "original"}
	if err := db.Create(&comment).Error; err != nil {
		t.Fatalf("seed comment: %v", err)
	}
	path := fmt.Sprintf("/api/v1/posts/%d/comments/%d", post.ID, comment.ID)

	w := doJSON(t, r, http.MethodPut, path, bobToken, map[string]string{"text": "defaced"})
	expectStatus(t, w, http.StatusForbidden)

	var reloaded models.Comment
	db.First(&reloaded, comment.ID)
	if reloaded.Text != "original" {
		t.Errorf("text = %q, non-owner edit must not apply", reloaded.Text)
	}

	w = doJSON(t, r, http.MethodPut, path, aliceToken, map[string]string{"text": "revised"})
	expectStatus(t, w, http.StatusOK)
	env := decode(t, w)
	if want := fmt.Sprintf("/posts/%d/", post.ID); env.Data["redirect"] != want {
		t.Errorf("redirect = %v, want %s", env.Data["redirect"], want)
	}
	db.First(&reloaded, comment.ID)
	if reloaded.Text != "revised" {
		t.Errorf("text = %q after owner edit", reloaded.Text)
	}
}

func TestOnlyAuthorMayDeleteComment(t *testing.T) {
	r, db := newTestServer(t)
	alice, aliceToken := createUser(t, db, "alice")
	_, bobToken := createUser(t, db, "bob")
	news := createCategory(t, db, "news", true)
	post := createPost(t, db, alice, &news, true, time.Now().Add(-time.Hour))

	comment := models.Comment{PostID: post.ID, AuthorID: alice.ID, Text: "keep me"}
	if err := db.Create(&comment).Error; err != nil {
		t.Fatalf("seed comment: %v", err)
	}
	path := fmt.Sprintf("/api/v1/posts/%d/comments/%d", post.ID, comment.ID)

	w := doJSON(t, r, http.MethodDelete, path, bobToken, nil)
	expectStatus(t, w, http.StatusForbidden)

	var count int64
	db.Model(&models.Comment{}).Count(&count)
	if count != 1 {
		t.Fatalf("comment deleted by non-owner")
	}

	w = doJSON(t, r, http.MethodDelete, path, aliceToken, nil)
	expectStatus(t, w, http.StatusOK)
	db.Model(&models.Comment{}).Count(&count)
	if count != 0 {
		t.Errorf("comment count = %d after owner delete", count)
	}
}

func TestUpdateCommentRejectsBlankText(t *testing.T) {
	r, db := newTestServer(t)
	alice, token := createUser(t, db, "alice")
	news := createCategory(t, db, "news", true)
	post := createPost(t, db, alice, &news, true, time.Now().Add(-time.Hour))

	comment := models.Comment{PostID: post.ID, AuthorID: alice.ID, Text: "original"}
	if err := db.Create(&comment).Error; err != nil {
		t.Fatalf("seed comment: %v", err)
	}
	path := fmt.Sprintf("/api/v1/posts/%d/comments/%d", post.ID, comment.ID)

	for _, body := range []interface{}{map[string]string{"text": ""}, map[string]string{"text": "   "}} {
		w := doJSON(t, r, http.MethodPut, path, token, body)
		expectStatus(t, w, http.StatusBadRequest)
	}

	var reloaded models.Comment
	db.First(&reloaded, comment.ID)
	if reloaded.Text != "original" {
		t.Errorf("text = %q, blank edit must not apply", reloaded.Text)
	}
}
