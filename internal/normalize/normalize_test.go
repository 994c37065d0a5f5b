package normalize

import (
	"testing"
	"time"

	"horse.fit/curio/internal/db"
	"horse.fit/curio/internal/event"
	"horse.fit/curio/internal/keywords"
	"horse.fit/curio/internal/social"
)

func intptr(i int) *int { return &i }

func baseEvent(contentType string) *event.IngestionEvent {
	return &event.IngestionEvent{
		UpstreamID:  "yg-1",
		URL:         "https://example.com/post",
		Title:       "Title &amp; more",
		ContentType: contentType,
		SourceID:    "devblog",
		Origin:      "crawler",
		UpdatedAt:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestBuildCommon_Fields(t *testing.T) {
	t.Parallel()

	ev := baseEvent(event.TypeArticle)
	ev.Extra.Duration = intptr(150)

	out, err := ForTypeMust(t, event.TypeArticle).Normalize(Input{Event: ev, Now: time.Now()})
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}

	if out.Post.Title == nil || *out.Post.Title != "Title & more" {
		t.Fatalf("expected HTML entities decoded in title, got %v", out.Post.Title)
	}
	if out.Post.CanonicalURL == nil || *out.Post.CanonicalURL != "https://example.com/post" {
		t.Fatalf("expected canonical url fallback to url, got %v", out.Post.CanonicalURL)
	}
	if out.Post.ReadTime == nil || *out.Post.ReadTime != 2 {
		t.Fatalf("expected read time from duration/60, got %v", out.Post.ReadTime)
	}
	if !out.Post.ShowOnFeed {
		t.Fatalf("expected showOnFeed=true without ordering hint")
	}
	if out.Flags.SentAnalyticsReport == nil || !*out.Flags.SentAnalyticsReport {
		t.Fatalf("expected sentAnalyticsReport=true without author")
	}
	if !out.Post.MetadataChangedAt.Equal(ev.UpdatedAt) {
		t.Fatalf("expected metadataChangedAt from updated_at, got %v", out.Post.MetadataChangedAt)
	}
}

func TestBuildCommon_OrderingHintDisablesFeed(t *testing.T) {
	t.Parallel()

	ev := baseEvent(event.TypeArticle)
	order := 3
	ev.Order = &order

	out, err := ForTypeMust(t, event.TypeArticle).Normalize(Input{Event: ev})
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if out.Post.ShowOnFeed {
		t.Fatalf("expected curated placement to be hidden from feed")
	}
}

func TestBuildCommon_ExplicitReadTimeWins(t *testing.T) {
	t.Parallel()

	ev := baseEvent(event.TypeArticle)
	ev.Extra.ReadTime = intptr(7)
	ev.Extra.Duration = intptr(600)

	out, err := ForTypeMust(t, event.TypeArticle).Normalize(Input{Event: ev})
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if out.Post.ReadTime == nil || *out.Post.ReadTime != 7 {
		t.Fatalf("expected explicit read time, got %v", out.Post.ReadTime)
	}
}

func TestVideoNormalizer(t *testing.T) {
	t.Parallel()

	ev := baseEvent(event.TypeVideo)
	ev.Extra.VideoID = "yt-abc"

	out, err := ForTypeMust(t, event.TypeVideo).Normalize(Input{Event: ev})
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if out.Post.Type != db.PostTypeVideo {
		t.Fatalf("unexpected post type: %q", out.Post.Type)
	}
	if out.Post.VideoID == nil || *out.Post.VideoID != "yt-abc" {
		t.Fatalf("expected video id, got %v", out.Post.VideoID)
	}
}

func TestFreeformNormalizer_RendersMarkdown(t *testing.T) {
	t.Parallel()

	ev := baseEvent(event.TypeFreeform)
	ev.Extra.Content = "some *markdown* text"

	out, err := ForTypeMust(t, event.TypeFreeform).Normalize(Input{Event: ev})
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if out.Post.ContentHTML == nil || *out.Post.ContentHTML == "" {
		t.Fatalf("expected rendered content html")
	}
}

func TestCollectionNormalizer_RelatedPosts(t *testing.T) {
	t.Parallel()

	ev := baseEvent(event.TypeCollection)
	ev.Extra.RelatedPostIDs = []string{"p1", "p2"}

	out, err := ForTypeMust(t, event.TypeCollection).Normalize(Input{Event: ev})
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if len(out.RelatedPostIDs) != 2 {
		t.Fatalf("expected related post ids, got %v", out.RelatedPostIDs)
	}
}

func TestSocialNormalizer_OverlayAndScope(t *testing.T) {
	t.Parallel()

	ev := baseEvent(event.TypeSocialThread)
	image := "https://m.example.com/1.jpg"
	mapped := &social.Mapped{
		Title:          "@gopher: hello",
		Content:        "hello",
		ContentHTML:    "<p>hello</p>",
		SubType:        social.SubtypeTweet,
		Image:          &image,
		AuthorUsername: "gopher",
	}

	out, err := ForTypeMust(t, event.TypeSocialThread).Normalize(Input{Event: ev, Thread: mapped})
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if out.Post.ShowOnFeed {
		t.Fatalf("social thread must never auto-surface on the feed")
	}
	if out.Post.Title == nil || *out.Post.Title != "@gopher: hello" {
		t.Fatalf("expected mapped title overlay, got %v", out.Post.Title)
	}
	if out.Post.SubType == nil || *out.Post.SubType != social.SubtypeTweet {
		t.Fatalf("expected subtype, got %v", out.Post.SubType)
	}
	if len(out.AllowedColumns) == 0 {
		t.Fatalf("expected a restricted update scope for social threads")
	}
	for _, column := range out.AllowedColumns {
		if column == "tags_str" {
			t.Fatalf("tags must not be in the social update scope")
		}
	}
}

func TestSocialNormalizer_DropsGenericImage(t *testing.T) {
	t.Parallel()

	ev := baseEvent(event.TypeSocialThread)
	ev.Extra.Image = "https://cdn.example.com/profile_images/gopher.png"
	mapped := &social.Mapped{
		Title:          "@gopher: hello",
		SubType:        social.SubtypeTweet,
		AuthorUsername: "gopher",
	}

	out, err := ForTypeMust(t, event.TypeSocialThread).Normalize(Input{Event: ev, Thread: mapped})
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if out.Post.Image != nil {
		t.Fatalf("expected no image when the mapper selected none, got %v", *out.Post.Image)
	}
}

func TestSocialNormalizer_RequiresMappedPayload(t *testing.T) {
	t.Parallel()

	if _, err := ForTypeMust(t, event.TypeSocialThread).Normalize(Input{Event: baseEvent(event.TypeSocialThread)}); err == nil {
		t.Fatalf("expected error without mapped thread")
	}
}

func TestForType_Unknown(t *testing.T) {
	t.Parallel()

	if _, err := ForType("podcast"); err == nil {
		t.Fatalf("expected error for unknown content type")
	}
}

func TestTagsFlowIntoPost(t *testing.T) {
	t.Parallel()

	ev := baseEvent(event.TypeArticle)
	out, err := ForTypeMust(t, event.TypeArticle).Normalize(Input{
		Event: ev,
		Tags:  keywords.Resolved{All: []string{"go", "db"}, Allowed: []string{"go"}},
	})
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if out.Post.TagsStr == nil || *out.Post.TagsStr != "go" {
		t.Fatalf("unexpected tags string: %v", out.Post.TagsStr)
	}
}

func ForTypeMust(t *testing.T, contentType string) Normalizer {
	t.Helper()
	normalizer, err := ForType(contentType)
	if err != nil {
		t.Fatalf("normalizer lookup failed: %v", err)
	}
	return normalizer
}
