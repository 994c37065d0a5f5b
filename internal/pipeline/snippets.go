package pipeline

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"horse.fit/curio/internal/db"
)

type codeSnippet struct {
	language string
	content  string
}

// extractCodeSnippets pulls fenced code blocks out of markdown content.
func extractCodeSnippets(markdown string) []codeSnippet {
	var snippets []codeSnippet
	lines := strings.Split(markdown, "\n")

	var (
		inFence  bool
		language string
		body     []string
	)
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if inFence {
				content := strings.TrimSpace(strings.Join(body, "\n"))
				if content != "" {
					snippets = append(snippets, codeSnippet{language: language, content: content})
				}
				inFence = false
				body = body[:0]
				continue
			}
			inFence = true
			language = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
			continue
		}
		if inFence {
			body = append(body, line)
		}
	}
	return snippets
}

// syncCodeSnippets replaces the stored snippet rows for a post.
func syncCodeSnippets(tx *gorm.DB, postID, markdown string) error {
	snippets := extractCodeSnippets(markdown)

	if err := tx.Where("post_id = ?", postID).Delete(&db.PostCodeSnippet{}).Error; err != nil {
		return err
	}
	if len(snippets) == 0 {
		return nil
	}

	rows := make([]db.PostCodeSnippet, 0, len(snippets))
	for i, snippet := range snippets {
		row := db.PostCodeSnippet{PostID: postID, Order: i, Content: snippet.content}
		if snippet.language != "" {
			language := snippet.language
			row.Language = &language
		}
		rows = append(rows, row)
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}
