package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KeywordStore adapts a gorm handle (pool or transaction) to the read side
// of the keyword dictionary.
type KeywordStore struct {
	gdb *gorm.DB
}

func NewKeywordStore(gdb *gorm.DB) *KeywordStore {
	return &KeywordStore{gdb: gdb}
}

func (s *KeywordStore) SynonymKeywords(ctx context.Context, values []string) ([]Keyword, error) {
	if len(values) == 0 {
		return nil, nil
	}
	var out []Keyword
	err := s.gdb.WithContext(ctx).
		Where("status = ? AND value IN ?", KeywordStatusSynonym, values).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("select synonym keywords: %w", err)
	}
	return out, nil
}

func (s *KeywordStore) AllowedKeywords(ctx context.Context, values []string) ([]Keyword, error) {
	if len(values) == 0 {
		return nil, nil
	}
	var out []Keyword
	err := s.gdb.WithContext(ctx).
		Where("status = ? AND value IN ?", KeywordStatusAllow, values).
		Order("occurrences DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("select allowed keywords: %w", err)
	}
	return out, nil
}

// UpsertKeywordOccurrences bumps the occurrence counter for every keyword,
// inserting missing ones as pending.
func UpsertKeywordOccurrences(tx *gorm.DB, values []string) error {
	if len(values) == 0 {
		return nil
	}
	rows := make([]Keyword, 0, len(values))
	for _, value := range values {
		rows = append(rows, Keyword{Value: value, Status: KeywordStatusPending, Occurrences: 1})
	}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "value"}},
		DoUpdates: clause.Assignments(map[string]any{
			"occurrences": gorm.Expr("curio.keywords.occurrences + 1"),
			"updated_at":  gorm.Expr("now()"),
		}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("upsert keyword occurrences: %w", err)
	}
	return nil
}

// ReplacePostKeywords swaps the join rows for a post with the given set.
func ReplacePostKeywords(tx *gorm.DB, postID string, values []string) error {
	if err := tx.Where("post_id = ?", postID).Delete(&PostKeyword{}).Error; err != nil {
		return fmt.Errorf("delete post keywords: %w", err)
	}
	if len(values) == 0 {
		return nil
	}
	rows := make([]PostKeyword, 0, len(values))
	for _, value := range values {
		rows = append(rows, PostKeyword{PostID: postID, Keyword: value})
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return fmt.Errorf("insert post keywords: %w", err)
	}
	return nil
}
