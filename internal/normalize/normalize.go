package normalize

import (
	"fmt"
	"time"

	"horse.fit/curio/internal/db"
	"horse.fit/curio/internal/event"
	"horse.fit/curio/internal/keywords"
	"horse.fit/curio/internal/social"
)

// Input is everything a normalizer needs besides the event itself: the
// entry point resolves author, source privacy, and keywords up front so the
// normalizers stay pure.
type Input struct {
	Event         *event.IngestionEvent
	SourcePrivate bool
	AuthorID      *string
	Tags          keywords.Resolved
	Thread        *social.Mapped
	Now           time.Time
}

// Output is the uniform intermediate record plus type-specific side
// channels. Post carries no identity yet; the upsert engine assigns ids on
// create and resolves them on update.
type Output struct {
	Post           db.Post
	Flags          db.PostFlags
	Questions      []string
	RelatedPostIDs []string
	SmartTitle     *string

	// AllowedColumns restricts which columns an update may touch for this
	// type. nil means unrestricted.
	AllowedColumns []string
}

type Normalizer interface {
	ContentType() string
	Normalize(in Input) (*Output, error)
}

var registry = map[string]Normalizer{
	event.TypeArticle:      articleNormalizer{},
	event.TypeFreeform:     freeformNormalizer{},
	event.TypeCollection:   collectionNormalizer{},
	event.TypeVideo:        videoNormalizer{},
	event.TypeSocialThread: socialNormalizer{},
}

// ForType returns the normalizer for a declared content type.
func ForType(contentType string) (Normalizer, error) {
	normalizer, ok := registry[contentType]
	if !ok {
		return nil, fmt.Errorf("no normalizer for content type %q", contentType)
	}
	return normalizer, nil
}

// PostTypeFor maps a declared content type onto the stored discriminator.
func PostTypeFor(contentType string) (string, bool) {
	switch contentType {
	case event.TypeArticle:
		return db.PostTypeArticle, true
	case event.TypeFreeform:
		return db.PostTypeFreeform, true
	case event.TypeCollection:
		return db.PostTypeCollection, true
	case event.TypeVideo:
		return db.PostTypeVideo, true
	case event.TypeSocialThread:
		return db.PostTypeSocialThread, true
	default:
		return "", false
	}
}
