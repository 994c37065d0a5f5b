package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Content types declared by the upstream enrichment pipeline.
const (
	TypeArticle      = "article"
	TypeFreeform     = "freeform"
	TypeCollection   = "collection"
	TypeVideo        = "video:youtube"
	TypeSocialThread = "social:thread"
)

// IngestionEvent is one "content published/updated" message. UpstreamID is
// stable across re-crawls and drives idempotent identity resolution;
// UpdatedAt is the ordering authority, not a wall-clock write time.
type IngestionEvent struct {
	UpstreamID     string          `json:"id"`
	PostID         string          `json:"post_id,omitempty"`
	URL            string          `json:"url"`
	Title          string          `json:"title"`
	ContentType    string          `json:"content_type"`
	SourceID       string          `json:"source_id"`
	Origin         string          `json:"origin,omitempty"`
	PublishedAt    *time.Time      `json:"published_at,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Order          *int            `json:"order,omitempty"`
	RejectReason   string          `json:"reject_reason,omitempty"`
	SubmissionID   string          `json:"submission_id,omitempty"`
	RequestIP      string          `json:"request_ip,omitempty"`
	Extra          Extra           `json:"extra"`
	Meta           json.RawMessage `json:"meta,omitempty"`
	ContentQuality json.RawMessage `json:"content_quality,omitempty"`
}

// Extra is the type-specific field bag. Individual normalizers read only
// the subset their content type carries.
type Extra struct {
	CanonicalURL   string          `json:"canonical_url,omitempty"`
	Image          string          `json:"image,omitempty"`
	Keywords       []string        `json:"keywords,omitempty"`
	Description    string          `json:"description,omitempty"`
	Summary        string          `json:"summary,omitempty"`
	TOC            json.RawMessage `json:"toc,omitempty"`
	Content        string          `json:"content,omitempty"`
	ContentHTML    string          `json:"content_html,omitempty"`
	ReadTime       *int            `json:"read_time,omitempty"`
	Duration       *int            `json:"duration,omitempty"`
	VideoID        string          `json:"video_id,omitempty"`
	Language       string          `json:"language,omitempty"`
	CreatorHandle  string          `json:"creator_handle,omitempty"`
	Private        *bool           `json:"private,omitempty"`
	Questions      []string        `json:"questions,omitempty"`
	RelatedPostIDs []string        `json:"related_post_ids,omitempty"`
	SmartTitle     string          `json:"smart_title,omitempty"`
	Thread         json.RawMessage `json:"thread,omitempty"`
}

// Decode parses one event payload, rejecting empty or trailing content.
func Decode(raw []byte) (*IngestionEvent, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("event payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	var ev IngestionEvent
	if err := decoder.Decode(&ev); err != nil {
		return nil, fmt.Errorf("decode event JSON: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("event payload contains trailing content")
	}

	ev.UpstreamID = strings.TrimSpace(ev.UpstreamID)
	ev.PostID = strings.TrimSpace(ev.PostID)
	ev.URL = strings.TrimSpace(ev.URL)
	ev.SourceID = strings.TrimSpace(ev.SourceID)

	if ev.RejectReason == "" {
		if ev.UpstreamID == "" {
			return nil, fmt.Errorf("event id is required")
		}
		if ev.UpdatedAt.IsZero() {
			return nil, fmt.Errorf("event updated_at is required")
		}
	}
	return &ev, nil
}

// Rejected reports whether the upstream pipeline refused this content.
func (e *IngestionEvent) Rejected() bool {
	return strings.TrimSpace(e.RejectReason) != ""
}
