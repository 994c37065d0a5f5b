package pipeline

import (
	"fmt"

	"gorm.io/gorm"

	"horse.fit/curio/internal/db"
)

// resolveSourcePrivacy determines whether the owning source of a post is
// private. A concrete source id is looked up directly and must exist:
// a missing row is an upstream data integrity problem that aborts the
// transaction. The sentinel "unknown" source defers to the existing post's
// source when one is available.
func (s *Service) resolveSourcePrivacy(tx *gorm.DB, sourceID string, fallbackPostID string) (bool, error) {
	if sourceID != "" && sourceID != s.unknownSourceID {
		source, err := db.GetSource(tx, sourceID)
		if err != nil {
			return false, err
		}
		if source == nil {
			return false, fmt.Errorf("failed to find source for post: source %q", sourceID)
		}
		return source.Private, nil
	}

	if fallbackPostID != "" {
		if private, ok, err := s.privacyViaPost(tx, fallbackPostID); err != nil {
			return false, err
		} else if ok {
			return private, nil
		}
	}

	if sourceID == "" {
		return false, fmt.Errorf("failed to find source for post: no source reference")
	}

	// Sentinel source with no usable fallback post: use its own privacy.
	source, err := db.GetSource(tx, sourceID)
	if err != nil {
		return false, err
	}
	if source == nil {
		return false, fmt.Errorf("failed to find source for post: source %q", sourceID)
	}
	return source.Private, nil
}

func (s *Service) privacyViaPost(tx *gorm.DB, postID string) (bool, bool, error) {
	post, err := db.FindPostByID(tx, postID)
	if err != nil {
		return false, false, err
	}
	if post == nil {
		return false, false, nil
	}
	source, err := db.GetSource(tx, post.SourceID)
	if err != nil {
		return false, false, err
	}
	if source == nil {
		return false, false, fmt.Errorf("failed to find source for post: source %q of post %q", post.SourceID, postID)
	}
	return source.Private, true, nil
}
