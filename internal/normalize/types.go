package normalize

import (
	"fmt"
	"strings"

	"github.com/russross/blackfriday/v2"

	"horse.fit/curio/internal/db"
	"horse.fit/curio/internal/event"
)

type articleNormalizer struct{}

func (articleNormalizer) ContentType() string { return event.TypeArticle }

func (articleNormalizer) Normalize(in Input) (*Output, error) {
	return buildCommon(in, db.PostTypeArticle), nil
}

type videoNormalizer struct{}

func (videoNormalizer) ContentType() string { return event.TypeVideo }

func (videoNormalizer) Normalize(in Input) (*Output, error) {
	out := buildCommon(in, db.PostTypeVideo)
	if id := strings.TrimSpace(in.Event.Extra.VideoID); id != "" {
		out.Post.VideoID = &id
	}
	return out, nil
}

type freeformNormalizer struct{}

func (freeformNormalizer) ContentType() string { return event.TypeFreeform }

func (freeformNormalizer) Normalize(in Input) (*Output, error) {
	out := buildCommon(in, db.PostTypeFreeform)
	applyContent(out, in.Event.Extra.Content, in.Event.Extra.ContentHTML)
	return out, nil
}

type collectionNormalizer struct{}

func (collectionNormalizer) ContentType() string { return event.TypeCollection }

func (collectionNormalizer) Normalize(in Input) (*Output, error) {
	out := buildCommon(in, db.PostTypeCollection)
	applyContent(out, in.Event.Extra.Content, in.Event.Extra.ContentHTML)
	out.RelatedPostIDs = in.Event.Extra.RelatedPostIDs
	return out, nil
}

type socialNormalizer struct{}

func (socialNormalizer) ContentType() string { return event.TypeSocialThread }

// socialAllowedColumns is the fixed update scope for social threads.
// Repeated partial social updates must never null out stored fields the
// payload does not carry.
var socialAllowedColumns = []string{
	"title",
	"content",
	"content_html",
	"image",
	"video_id",
	"sub_type",
	"shared_post_id",
	"source_id",
	"private",
	"show_on_feed",
}

func (socialNormalizer) Normalize(in Input) (*Output, error) {
	if in.Thread == nil {
		return nil, fmt.Errorf("social thread input requires a mapped payload")
	}

	out := buildCommon(in, db.PostTypeSocialThread)
	mapped := in.Thread

	if title := strings.TrimSpace(mapped.Title); title != "" {
		out.Post.Title = &title
	}
	if mapped.Content != "" {
		out.Post.Content = &mapped.Content
	}
	if mapped.ContentHTML != "" {
		out.Post.ContentHTML = &mapped.ContentHTML
	}
	// The mapper owns image selection, including the avatar-pattern
	// exclusion; the event's generic image never overrides its verdict.
	out.Post.Image = mapped.Image
	if mapped.VideoID != nil {
		out.Post.VideoID = mapped.VideoID
	}
	out.Post.SubType = &mapped.SubType

	// Thread-origin content is never auto-surfaced.
	out.Post.ShowOnFeed = false
	out.Flags.ShowOnFeed = db.BoolFlag(false)

	out.AllowedColumns = socialAllowedColumns
	return out, nil
}

func applyContent(out *Output, content, contentHTML string) {
	content = strings.TrimSpace(content)
	contentHTML = strings.TrimSpace(contentHTML)
	if content != "" && contentHTML == "" {
		contentHTML = strings.TrimSpace(string(blackfriday.Run([]byte(content))))
	}
	if content != "" {
		out.Post.Content = &content
	}
	if contentHTML != "" {
		out.Post.ContentHTML = &contentHTML
	}
}
