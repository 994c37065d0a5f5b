package normalize

import (
	"bytes"
	"html"
	"strings"

	"horse.fit/curio/internal/db"
	"horse.fit/curio/internal/langdetect"
)

// buildCommon fills the field set every content type shares. Type-specific
// normalizers overlay their own fields on the result.
func buildCommon(in Input, postType string) *Output {
	ev := in.Event
	extra := ev.Extra

	title := strings.TrimSpace(html.UnescapeString(ev.Title))
	url := strings.TrimSpace(ev.URL)
	canonical := strings.TrimSpace(extra.CanonicalURL)
	if canonical == "" {
		canonical = url
	}

	// Posts carrying an explicit ordering hint are curated placements and
	// never auto-surface on the feed.
	showOnFeed := ev.Order == nil

	post := db.Post{
		UpstreamID:        optional(ev.UpstreamID),
		Type:              postType,
		SourceID:          ev.SourceID,
		AuthorID:          in.AuthorID,
		SubmissionID:      optional(ev.SubmissionID),
		Title:             &title,
		URL:               optional(url),
		CanonicalURL:      optional(canonical),
		Image:             optional(strings.TrimSpace(extra.Image)),
		ReadTime:          readTime(extra.ReadTime, extra.Duration),
		Description:       optional(strings.TrimSpace(extra.Description)),
		Summary:           optional(strings.TrimSpace(extra.Summary)),
		TOC:               compactJSON(extra.TOC),
		TagsStr:           in.Tags.TagsStr(),
		Language:          optional(langdetect.Resolve(extra.Language, extra.Content+" "+title)),
		Origin:            strings.TrimSpace(ev.Origin),
		Private:           in.SourcePrivate,
		ShowOnFeed:        showOnFeed,
		ContentMeta:       compactJSON(ev.Meta),
		ContentQuality:    compactJSON(ev.ContentQuality),
		MetadataChangedAt: ev.UpdatedAt.UTC(),
	}
	if extra.Private != nil {
		post.Private = post.Private || *extra.Private
	}

	sentAnalyticsReport := in.AuthorID == nil

	return &Output{
		Post: post,
		Flags: db.PostFlags{
			Private:             &post.Private,
			ShowOnFeed:          &showOnFeed,
			SentAnalyticsReport: &sentAnalyticsReport,
		},
		Questions:  ev.Extra.Questions,
		SmartTitle: optional(strings.TrimSpace(extra.SmartTitle)),
	}
}

func readTime(explicit *int, durationSeconds *int) *int {
	if explicit != nil && *explicit > 0 {
		value := *explicit
		return &value
	}
	if durationSeconds != nil && *durationSeconds > 0 {
		minutes := *durationSeconds / 60
		if minutes < 1 {
			minutes = 1
		}
		return &minutes
	}
	return nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func compactJSON(raw []byte) []byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("{}")) || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return trimmed
}
