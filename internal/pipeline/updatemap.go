package pipeline

import (
	"encoding/json"
	"time"

	"github.com/samber/lo"

	"horse.fit/curio/internal/normalize"
)

// coreColumns are always writable regardless of a type's update scope:
// identity, visibility bookkeeping, the flags bag, and the ordering stamp.
var coreColumns = []string{
	"upstream_id",
	"visible",
	"visible_at",
	"flags",
	"metadata_changed_at",
	"updated_at",
}

// buildUpdateColumns turns a normalized record into the column map for the
// update path. Pointer fields are included only when the payload carried
// them, so partial payloads never null out stored values. Title is the
// exception: every event declares it, and an empty title is a real
// overwrite subject to the type's update scope.
func buildUpdateColumns(out *normalize.Output, now time.Time) map[string]any {
	post := &out.Post
	columns := map[string]any{
		"title":               derefOrEmpty(post.Title),
		"private":             post.Private,
		"show_on_feed":        post.ShowOnFeed,
		"tags_str":            post.TagsStr,
		"metadata_changed_at": post.MetadataChangedAt,
		"updated_at":          now,
	}

	setIfPresent(columns, "content", post.Content)
	setIfPresent(columns, "content_html", post.ContentHTML)
	setIfPresent(columns, "url", post.URL)
	setIfPresent(columns, "canonical_url", post.CanonicalURL)
	setIfPresent(columns, "image", post.Image)
	setIfPresent(columns, "video_id", post.VideoID)
	setIfPresent(columns, "description", post.Description)
	setIfPresent(columns, "summary", post.Summary)
	setIfPresent(columns, "language", post.Language)
	setIfPresent(columns, "sub_type", post.SubType)
	setIfPresent(columns, "author_id", post.AuthorID)
	setIfPresent(columns, "shared_post_id", post.SharedPostID)
	if post.ReadTime != nil {
		columns["read_time"] = *post.ReadTime
	}
	if post.SourceID != "" {
		columns["source_id"] = post.SourceID
	}
	if post.Origin != "" {
		columns["origin"] = post.Origin
	}
	if len(post.TOC) > 0 {
		columns["toc"] = post.TOC
	}
	// JSON bags: an update that omits a bag keeps the stored one.
	if meta := withSmartTitle(post.ContentMeta, out.SmartTitle); len(meta) > 0 {
		columns["content_meta"] = meta
	}
	if len(post.ContentQuality) > 0 {
		columns["content_quality"] = post.ContentQuality
	}

	return projectColumns(columns, out.AllowedColumns)
}

// projectColumns keeps only the allow-listed columns plus the core set.
// A nil allow-list means the type is unrestricted.
func projectColumns(columns map[string]any, allowed []string) map[string]any {
	if allowed == nil {
		return columns
	}
	keep := make(map[string]struct{}, len(allowed)+len(coreColumns))
	for _, column := range allowed {
		keep[column] = struct{}{}
	}
	for _, column := range coreColumns {
		keep[column] = struct{}{}
	}
	return lo.PickBy(columns, func(column string, _ any) bool {
		_, ok := keep[column]
		return ok
	})
}

// withSmartTitle folds the machine-suggested alternative title into the
// content meta bag, where downstream surfaces pick it up.
func withSmartTitle(meta json.RawMessage, smartTitle *string) json.RawMessage {
	if smartTitle == nil {
		return meta
	}
	bag := map[string]any{}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &bag); err != nil {
			return meta
		}
	}
	bag["smart_title"] = *smartTitle
	merged, err := json.Marshal(bag)
	if err != nil {
		return meta
	}
	return merged
}

func setIfPresent(columns map[string]any, name string, value *string) {
	if value != nil {
		columns[name] = *value
	}
}

func derefOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
