package db

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FindPostByID loads a post regardless of type.
func FindPostByID(tx *gorm.DB, id string) (*Post, error) {
	var post Post
	err := tx.Where("id = ?", id).Take(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select post by id: %w", err)
	}
	return &post, nil
}

// FindPostByIDAndType is the type-scoped repository read used by the
// update path.
func FindPostByIDAndType(tx *gorm.DB, id, postType string) (*Post, error) {
	var post Post
	err := tx.Where("id = ? AND type = ?", id, postType).Take(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select post by id and type: %w", err)
	}
	return &post, nil
}

// FindPostByUpstreamID resolves identity for at-least-once delivery.
func FindPostByUpstreamID(tx *gorm.DB, upstreamID string) (*Post, error) {
	var post Post
	err := tx.Where("upstream_id = ? AND deleted = false", upstreamID).Take(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select post by upstream id: %w", err)
	}
	return &post, nil
}

// FindPostClaimingURL returns a non-deleted post already holding either
// URL, excluding excludeID when set.
func FindPostClaimingURL(tx *gorm.DB, url, canonicalURL, excludeID string) (*Post, error) {
	urls := make([]string, 0, 2)
	if trimmed := strings.TrimSpace(url); trimmed != "" {
		urls = append(urls, trimmed)
	}
	if trimmed := strings.TrimSpace(canonicalURL); trimmed != "" {
		urls = append(urls, trimmed)
	}
	if len(urls) == 0 {
		return nil, nil
	}

	query := tx.Where("deleted = false").
		Where("url IN ? OR canonical_url IN ?", urls, urls)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var post Post
	err := query.Take(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select post by url: %w", err)
	}
	return &post, nil
}

// FindPostByURL resolves a post by either URL form.
func FindPostByURL(tx *gorm.DB, url string) (*Post, error) {
	return FindPostClaimingURL(tx, url, url, "")
}

// SetPostType corrects the stored discriminator when an event re-declares
// a post's content type.
func SetPostType(tx *gorm.DB, id, postType string) error {
	err := tx.Model(&Post{}).Where("id = ?", id).Update("type", postType).Error
	if err != nil {
		return fmt.Errorf("set post type: %w", err)
	}
	return nil
}

// PropagateShareVisibility mirrors a post's visibility and privacy onto
// the share posts wrapping it. Their visibility is gated on the target's.
func PropagateShareVisibility(tx *gorm.DB, targetID string, visible, private bool) error {
	err := tx.Model(&Post{}).
		Where("shared_post_id = ? AND type = ?", targetID, PostTypeShare).
		Updates(map[string]any{
			"visible": visible,
			"private": private,
			"flags":   gorm.Expr("flags || ?::jsonb", fmt.Sprintf(`{"visible":%t,"private":%t}`, visible, private)),
		}).Error
	if err != nil {
		return fmt.Errorf("propagate share visibility: %w", err)
	}
	return nil
}

// ReplacePostRelations syncs relation rows of one type for a post.
func ReplacePostRelations(tx *gorm.DB, postID, relationType string, relatedIDs []string) error {
	if err := tx.Where("post_id = ? AND type = ?", postID, relationType).Delete(&PostRelation{}).Error; err != nil {
		return fmt.Errorf("delete post relations: %w", err)
	}
	if len(relatedIDs) == 0 {
		return nil
	}
	rows := make([]PostRelation, 0, len(relatedIDs))
	for _, relatedID := range relatedIDs {
		rows = append(rows, PostRelation{PostID: postID, RelatedPostID: relatedID, Type: relationType})
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return fmt.Errorf("insert post relations: %w", err)
	}
	return nil
}

// PostQuestionExists reports whether any question row is stored for a post.
func PostQuestionExists(tx *gorm.DB, postID string) (bool, error) {
	var count int64
	err := tx.Model(&PostQuestion{}).Where("post_id = ?", postID).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count post questions: %w", err)
	}
	return count > 0, nil
}

// GetSource loads one source row.
func GetSource(tx *gorm.DB, id string) (*Source, error) {
	var source Source
	err := tx.Where("id = ?", id).Take(&source).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select source: %w", err)
	}
	return &source, nil
}

// FindUserByUsername resolves an author handle to an account.
func FindUserByUsername(tx *gorm.DB, username string) (*User, error) {
	trimmed := strings.TrimSpace(username)
	if trimmed == "" {
		return nil, nil
	}
	var user User
	err := tx.Where("lower(username) = lower(?)", trimmed).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select user by username: %w", err)
	}
	return &user, nil
}

// GetSubmission loads one submission row.
func GetSubmission(tx *gorm.DB, id string) (*Submission, error) {
	var submission Submission
	err := tx.Where("id = ?", id).Take(&submission).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select submission: %w", err)
	}
	return &submission, nil
}

// UpdateSubmissionStatus transitions a submission, optionally recording a
// reason. Only rows still in fromStatus are touched.
func UpdateSubmissionStatus(tx *gorm.DB, id, fromStatus, toStatus string, reason *string) (bool, error) {
	updates := map[string]any{
		"status":     toStatus,
		"updated_at": gorm.Expr("now()"),
	}
	if reason != nil {
		updates["reason"] = *reason
	}
	result := tx.Model(&Submission{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("update submission status: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
