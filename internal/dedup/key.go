package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"horse.fit/curio/internal/db"
)

// ForPost derives the content fingerprint for a post, type-specific. The
// key feeds downstream duplicate detection; uniqueness is not enforced
// here. target is the wrapped post for share-shaped posts, ignored
// otherwise. Returns nil when the type carries no fingerprint.
func ForPost(post *db.Post, target *db.Post) *string {
	if post == nil {
		return nil
	}
	switch post.Type {
	case db.PostTypeShare:
		return shareKey(post, target)
	case db.PostTypeFreeform, db.PostTypeWelcome:
		return freeformKey(deref(post.Title), deref(post.Content))
	default:
		return nil
	}
}

func shareKey(post *db.Post, target *db.Post) *string {
	if post.SharedPostID == nil {
		return nil
	}
	if target != nil {
		if key := flagsDedupKey(target); key != nil {
			return key
		}
	}
	id := *post.SharedPostID
	return &id
}

func freeformKey(title, content string) *string {
	text := Normalize(content)
	if text == "" {
		text = Normalize(title)
	}
	if text == "" {
		return nil
	}
	key := Hash(text)
	return &key
}

// Normalize lowercases, trims, and strips every non-letter rune. More
// aggressive than generic sanitization on purpose: two drafts differing
// only in punctuation or emoji must collide.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(strings.TrimSpace(text)) {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Hash returns the hex SHA-256 of text.
func Hash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func flagsDedupKey(post *db.Post) *string {
	flags, err := db.DecodeFlags(post.Flags)
	if err != nil || flags.DedupKey == nil || *flags.DedupKey == "" {
		return nil
	}
	return flags.DedupKey
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
