package keywords

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/samber/lo"

	"horse.fit/curio/internal/db"
)

// Store is the read side of the keyword dictionary. Population of the
// dictionary is an external concern.
type Store interface {
	SynonymKeywords(ctx context.Context, values []string) ([]db.Keyword, error)
	AllowedKeywords(ctx context.Context, values []string) ([]db.Keyword, error)
}

// Resolved carries both keyword sets a post needs: All is persisted as join
// rows so synonym occurrences keep being counted, Allowed feeds the
// human-facing tag string.
type Resolved struct {
	All     []string
	Allowed []string
}

// TagsStr joins the allow-listed subset into the stored tag string.
func (r Resolved) TagsStr() *string {
	if len(r.Allowed) == 0 {
		return nil
	}
	joined := strings.Join(r.Allowed, ",")
	return &joined
}

type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve cleans and dedupes the candidates, expands synonyms, drops purely
// numeric tokens, and filters against the allow-list ranked by occurrence
// count. Read-only; occurrence counters are incremented at persistence time.
func (r *Resolver) Resolve(ctx context.Context, candidates []string) (Resolved, error) {
	cleaned := lo.Uniq(lo.FilterMap(candidates, func(raw string, _ int) (string, bool) {
		value := Clean(raw)
		return value, value != ""
	}))
	if len(cleaned) == 0 {
		return Resolved{}, nil
	}

	synonyms, err := r.store.SynonymKeywords(ctx, cleaned)
	if err != nil {
		return Resolved{}, fmt.Errorf("look up synonym keywords: %w", err)
	}
	for _, keyword := range synonyms {
		if keyword.Synonym == nil {
			continue
		}
		if target := Clean(*keyword.Synonym); target != "" {
			cleaned = append(cleaned, target)
		}
	}

	merged := lo.Uniq(lo.Filter(cleaned, func(value string, _ int) bool {
		return !isNumeric(value)
	}))
	if len(merged) == 0 {
		return Resolved{}, nil
	}

	allowed, err := r.store.AllowedKeywords(ctx, merged)
	if err != nil {
		return Resolved{}, fmt.Errorf("look up allowed keywords: %w", err)
	}

	return Resolved{
		All: merged,
		Allowed: lo.Map(allowed, func(keyword db.Keyword, _ int) string {
			return keyword.Value
		}),
	}, nil
}

// Clean lowercases a candidate and strips characters that are not letters,
// digits, spaces, or the handful of symbols that occur in technology names.
func Clean(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '+' || r == '#' || r == '.':
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func isNumeric(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
