package dedup

import (
	"encoding/json"
	"testing"

	"horse.fit/curio/internal/db"
)

// Well-known SHA-256 digest of the empty input.
const emptyDigest = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

func strptr(s string) *string { return &s }

func TestHash_EmptyInput(t *testing.T) {
	t.Parallel()

	if got := Hash(""); got != emptyDigest {
		t.Fatalf("unexpected empty-input digest: %q", got)
	}
}

func TestNormalize_CollidesAcrossPunctuation(t *testing.T) {
	t.Parallel()

	left := Normalize(" HELLO world! ")
	right := Normalize("hello world")
	if left != right {
		t.Fatalf("expected normalized forms to collide: %q vs %q", left, right)
	}
	if Hash(left) != Hash(right) {
		t.Fatalf("expected hashes to collide after normalization")
	}
}

func TestForPost_FreeformPrefersContent(t *testing.T) {
	t.Parallel()

	post := &db.Post{
		Type:    db.PostTypeFreeform,
		Title:   strptr("Some title"),
		Content: strptr("Body text"),
	}
	key := ForPost(post, nil)
	if key == nil {
		t.Fatalf("expected a dedup key")
	}
	if *key != Hash(Normalize("Body text")) {
		t.Fatalf("expected key from content, got %q", *key)
	}
}

func TestForPost_FreeformFallsBackToTitle(t *testing.T) {
	t.Parallel()

	post := &db.Post{
		Type:    db.PostTypeFreeform,
		Title:   strptr("Only title"),
		Content: strptr("!!! 🎉 ..."),
	}
	key := ForPost(post, nil)
	if key == nil {
		t.Fatalf("expected a dedup key")
	}
	if *key != Hash(Normalize("Only title")) {
		t.Fatalf("expected key from title fallback, got %q", *key)
	}
}

func TestForPost_FreeformBothEmpty(t *testing.T) {
	t.Parallel()

	post := &db.Post{Type: db.PostTypeFreeform}
	if key := ForPost(post, nil); key != nil {
		t.Fatalf("expected no key for empty freeform, got %q", *key)
	}
}

func TestForPost_SharePrefersTargetKey(t *testing.T) {
	t.Parallel()

	targetID := "11111111-1111-1111-1111-111111111111"
	post := &db.Post{Type: db.PostTypeShare, SharedPostID: &targetID}
	target := &db.Post{
		ID:    targetID,
		Flags: json.RawMessage(`{"dedupKey":"abc123"}`),
	}

	key := ForPost(post, target)
	if key == nil || *key != "abc123" {
		t.Fatalf("expected target's dedup key, got %v", key)
	}

	key = ForPost(post, &db.Post{ID: targetID})
	if key == nil || *key != targetID {
		t.Fatalf("expected raw target id fallback, got %v", key)
	}
}

func TestForPost_ArticleHasNoKey(t *testing.T) {
	t.Parallel()

	post := &db.Post{Type: db.PostTypeArticle, Title: strptr("t"), Content: strptr("c")}
	if key := ForPost(post, nil); key != nil {
		t.Fatalf("expected no key for article, got %q", *key)
	}
}
