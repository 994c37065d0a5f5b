package pipeline

import (
	"encoding/json"
	"testing"
	"time"

	"horse.fit/curio/internal/db"
	"horse.fit/curio/internal/normalize"
)

func strPtr(value string) *string { return &value }

func TestBuildUpdateColumnsOmitsMissingPointerFields(t *testing.T) {
	t.Parallel()

	stamp := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 1, 10, 0, 5, 0, time.UTC)
	out := &normalize.Output{
		Post: db.Post{
			Title:             strPtr("A title"),
			URL:               strPtr("https://example.com/a"),
			MetadataChangedAt: stamp,
		},
	}

	columns := buildUpdateColumns(out, now)

	if got := columns["title"]; got != "A title" {
		t.Fatalf("title = %v, want %q", got, "A title")
	}
	if got := columns["url"]; got != "https://example.com/a" {
		t.Fatalf("url = %v, want %q", got, "https://example.com/a")
	}
	if got := columns["metadata_changed_at"]; got != stamp {
		t.Fatalf("metadata_changed_at = %v, want %v", got, stamp)
	}
	if got := columns["updated_at"]; got != now {
		t.Fatalf("updated_at = %v, want %v", got, now)
	}
	for _, absent := range []string{"content", "content_html", "image", "description", "summary", "read_time", "source_id", "toc", "content_meta"} {
		if _, ok := columns[absent]; ok {
			t.Fatalf("column %q present for a payload that never carried it", absent)
		}
	}
}

func TestBuildUpdateColumnsWritesEmptyTitle(t *testing.T) {
	t.Parallel()

	out := &normalize.Output{Post: db.Post{Title: nil}}
	columns := buildUpdateColumns(out, time.Now().UTC())

	if got, ok := columns["title"]; !ok || got != "" {
		t.Fatalf("title = %v (present %t), want empty string", got, ok)
	}
}

func TestBuildUpdateColumnsProjectsAllowList(t *testing.T) {
	t.Parallel()

	out := &normalize.Output{
		Post: db.Post{
			Title:        strPtr("thread title"),
			Content:      strPtr("body"),
			URL:          strPtr("https://example.com/t"),
			Description:  strPtr("should not survive"),
			Summary:      strPtr("should not survive"),
			SubType:      strPtr("tweet"),
			SharedPostID: strPtr("other"),
		},
		AllowedColumns: []string{"title", "content", "sub_type", "shared_post_id"},
	}

	columns := buildUpdateColumns(out, time.Now().UTC())

	for _, want := range []string{"title", "content", "sub_type", "shared_post_id"} {
		if _, ok := columns[want]; !ok {
			t.Fatalf("allow-listed column %q missing", want)
		}
	}
	for _, banned := range []string{"url", "description", "summary"} {
		if _, ok := columns[banned]; ok {
			t.Fatalf("column %q leaked past the allow-list", banned)
		}
	}
	// Core bookkeeping always survives projection.
	for _, core := range []string{"metadata_changed_at", "updated_at"} {
		if _, ok := columns[core]; !ok {
			t.Fatalf("core column %q missing after projection", core)
		}
	}
}

func TestBuildUpdateColumnsFoldsSmartTitle(t *testing.T) {
	t.Parallel()

	out := &normalize.Output{
		Post:       db.Post{ContentMeta: []byte(`{"origin_quality":0.8}`)},
		SmartTitle: strPtr("clearer title"),
	}
	columns := buildUpdateColumns(out, time.Now().UTC())

	meta, ok := columns["content_meta"].(json.RawMessage)
	if !ok {
		t.Fatalf("content_meta column = %v, want merged JSON", columns["content_meta"])
	}
	var bag map[string]any
	if err := json.Unmarshal(meta, &bag); err != nil {
		t.Fatalf("unmarshal content_meta: %v", err)
	}
	if bag["smart_title"] != "clearer title" {
		t.Fatalf("smart_title = %v, want %q", bag["smart_title"], "clearer title")
	}
	if bag["origin_quality"] != 0.8 {
		t.Fatalf("origin_quality = %v, the stored bag content must survive the merge", bag["origin_quality"])
	}
}

func TestProjectColumnsNilMeansUnrestricted(t *testing.T) {
	t.Parallel()

	columns := map[string]any{"anything": 1, "else": 2}
	got := projectColumns(columns, nil)
	if len(got) != 2 {
		t.Fatalf("projected %d columns, want 2", len(got))
	}
}

func TestTitleAfterUpdate(t *testing.T) {
	t.Parallel()

	stored := &db.Post{Title: strPtr("stored")}

	if got := titleAfterUpdate(map[string]any{"title": "incoming"}, stored); got != "incoming" {
		t.Fatalf("titleAfterUpdate = %q, want %q", got, "incoming")
	}
	if got := titleAfterUpdate(map[string]any{}, stored); got != "stored" {
		t.Fatalf("titleAfterUpdate = %q, want %q", got, "stored")
	}
	if got := titleAfterUpdate(map[string]any{"title": ""}, stored); got != "" {
		t.Fatalf("titleAfterUpdate = %q, want empty", got)
	}
}

func TestTagsChanged(t *testing.T) {
	t.Parallel()

	if tagsChanged(nil, nil) {
		t.Fatal("nil vs nil reported as changed")
	}
	if tagsChanged(strPtr("go,db"), strPtr("go,db")) {
		t.Fatal("equal tag strings reported as changed")
	}
	if !tagsChanged(strPtr("go"), strPtr("go,db")) {
		t.Fatal("different tag strings reported as unchanged")
	}
	if !tagsChanged(nil, strPtr("go")) {
		t.Fatal("nil vs value reported as unchanged")
	}
}
