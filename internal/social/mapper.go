package social

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/russross/blackfriday/v2"

	payloadschema "horse.fit/curio/schema"
)

// Post subtypes after normalization.
const (
	SubtypeTweet  = "tweet"
	SubtypeRepost = "repost"
	SubtypeQuote  = "quote"
	SubtypeThread = "thread"
	SubtypeMedia  = "media"
)

// Reference kinds.
const (
	ReferenceRepost = "repost"
	ReferenceQuote  = "quote"
)

// viewerURLFormat synthesizes a canonical viewer URL when a reference
// carries only an id.
const viewerURLFormat = "https://x.com/i/status/%s"

// Mapped is the normalized form of one social payload.
type Mapped struct {
	Title          string
	Content        string
	ContentHTML    string
	SubType        string
	Image          *string
	VideoID        *string
	Reference      *Reference
	AuthorUsername string
}

// Reference describes the quoted or reposted post. URL is always set;
// UpstreamID only when the payload carried an id.
type Reference struct {
	Kind       string
	UpstreamID string
	URL        string
	Handle     string
	Title      string
}

// Mapper parses a single social payload into normalized post fields. The
// avatar pattern identifies fallback images that are account avatars
// rather than content media.
type Mapper struct {
	avatarPattern string
}

func NewMapper(avatarPattern string) *Mapper {
	return &Mapper{avatarPattern: avatarPattern}
}

// Map validates and normalizes one raw payload. A schema violation fails
// with a validation error before any persistence.
func (m *Mapper) Map(raw json.RawMessage) (*Mapped, error) {
	payload, err := payloadschema.ValidateSocialThreadPayload(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid social payload: %w", err)
	}
	return m.mapPayload(payload), nil
}

func (m *Mapper) mapPayload(payload *payloadschema.SocialThread) *Mapped {
	reference := extractReference(payload)
	subtype := resolveSubtype(payload, reference)

	mapped := &Mapped{
		SubType:        subtype,
		Reference:      reference,
		AuthorUsername: strings.TrimSpace(payload.Handle),
	}
	mapped.Title = formatTitle(payload.Handle, payload.Text, subtype)
	mapped.Content, mapped.ContentHTML = assembleThread(payload)
	mapped.Image = m.selectImage(payload)
	mapped.VideoID = selectVideo(payload)
	return mapped
}

func resolveSubtype(payload *payloadschema.SocialThread, reference *Reference) string {
	if explicit := strings.ToLower(strings.TrimSpace(payload.Subtype)); explicit != "" {
		if explicit == "retweet" {
			return SubtypeRepost
		}
		return explicit
	}
	if reference != nil {
		return reference.Kind
	}
	if len(payload.ThreadItems) > 0 {
		return SubtypeThread
	}
	if len(payload.Attachments) > 0 {
		return SubtypeMedia
	}
	return SubtypeTweet
}

// extractReference prefers repost-shaped fields over quote-shaped ones. A
// nested object or a standalone URL/id is enough; an id alone gets a
// synthesized viewer URL.
func extractReference(payload *payloadschema.SocialThread) *Reference {
	if ref := referenceFrom(ReferenceRepost, payload.Repost, payload.RepostURL, payload.RepostID); ref != nil {
		return ref
	}
	return referenceFrom(ReferenceQuote, payload.Quote, payload.QuoteURL, payload.QuoteID)
}

func referenceFrom(kind string, nested *payloadschema.Reference, rawURL, rawID string) *Reference {
	url := strings.TrimSpace(rawURL)
	id := strings.TrimSpace(rawID)
	var handle, title string

	if nested != nil {
		if nested.URL != "" {
			url = strings.TrimSpace(nested.URL)
		}
		if nested.ID != "" {
			id = strings.TrimSpace(nested.ID)
		}
		handle = strings.TrimSpace(nested.Handle)
		title = strings.TrimSpace(nested.Title)
	}

	if url == "" && id == "" {
		return nil
	}
	if url == "" {
		url = fmt.Sprintf(viewerURLFormat, id)
	}
	return &Reference{
		Kind:       kind,
		UpstreamID: id,
		URL:        url,
		Handle:     handle,
		Title:      title,
	}
}

func formatTitle(handle, text, subtype string) string {
	handle = strings.TrimSpace(handle)
	body := stripLeadingMentions(text)

	if handle == "" {
		return body
	}
	if body == "" && subtype == SubtypeRepost {
		return fmt.Sprintf("@%s: reposted", handle)
	}
	return strings.TrimSpace(fmt.Sprintf("@%s: %s", handle, body))
}

func stripLeadingMentions(text string) string {
	body := strings.TrimSpace(text)
	for strings.HasPrefix(body, "@") {
		rest := strings.TrimLeft(body, "@")
		fields := strings.SplitN(rest, " ", 2)
		if len(fields) < 2 {
			return ""
		}
		body = strings.TrimSpace(fields[1])
	}
	return body
}

func (m *Mapper) selectImage(payload *payloadschema.SocialThread) *string {
	for _, attachment := range payload.Attachments {
		if attachment.Type != "photo" && attachment.Type != "image" {
			continue
		}
		if url := strings.TrimSpace(attachment.URL); url != "" {
			return &url
		}
	}

	fallback := strings.TrimSpace(payload.Image)
	if fallback == "" {
		return nil
	}
	if m.avatarPattern != "" && strings.Contains(fallback, m.avatarPattern) {
		// The only remaining image is the account avatar, not content.
		return nil
	}
	return &fallback
}

func selectVideo(payload *payloadschema.SocialThread) *string {
	for _, attachment := range payload.Attachments {
		if attachment.Type != "video" && attachment.Type != "gif" {
			continue
		}
		if id := strings.TrimSpace(attachment.ID); id != "" {
			return &id
		}
		if url := strings.TrimSpace(attachment.URL); url != "" {
			return &url
		}
	}
	if id := strings.TrimSpace(payload.VideoID); id != "" {
		return &id
	}
	return nil
}

// assembleThread concatenates the root text with each thread item,
// blank-line separated, and builds the matching HTML, rendering markdown
// per item when no pre-rendered HTML is supplied.
func assembleThread(payload *payloadschema.SocialThread) (string, string) {
	texts := make([]string, 0, len(payload.ThreadItems)+1)
	htmls := make([]string, 0, len(payload.ThreadItems)+1)

	appendPart := func(text, html string) {
		text = strings.TrimSpace(text)
		html = strings.TrimSpace(html)
		if text == "" && html == "" {
			return
		}
		if html == "" {
			html = renderMarkdown(text)
		}
		if text != "" {
			texts = append(texts, text)
		}
		htmls = append(htmls, html)
	}

	appendPart(payload.Text, payload.TextHTML)
	for _, item := range payload.ThreadItems {
		appendPart(item.Text, item.TextHTML)
	}

	return strings.Join(texts, "\n\n"), strings.Join(htmls, "\n")
}

func renderMarkdown(text string) string {
	return strings.TrimSpace(string(blackfriday.Run([]byte(text))))
}
