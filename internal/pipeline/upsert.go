package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"horse.fit/curio/internal/db"
	"horse.fit/curio/internal/dedup"
	"horse.fit/curio/internal/event"
	"horse.fit/curio/internal/globaltime"
	"horse.fit/curio/internal/keywords"
	"horse.fit/curio/internal/moderation"
	"horse.fit/curio/internal/normalize"
)

const defaultOrigin = "crawler"

// planCreate assembles the row for a brand-new post. An explicit post id
// from the event is kept so redelivered creation events converge on the
// same row; the published timestamp, when carried, becomes the creation
// time so feed ordering reflects original publication.
func planCreate(out *normalize.Output, ev *event.IngestionEvent, suppress bool, now time.Time) (db.Post, error) {
	post := out.Post
	flags := out.Flags

	if suppress {
		post.ShowOnFeed = false
		flags.ShowOnFeed = db.BoolFlag(false)
		flags.Suppressed = db.BoolFlag(true)
		flags.Banned = db.BoolFlag(true)
	}

	post.ID = ev.PostID
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	shortID, err := newShortID()
	if err != nil {
		return db.Post{}, err
	}
	post.ShortID = shortID
	post.CreatedAt = now
	if ev.PublishedAt != nil && !ev.PublishedAt.IsZero() {
		post.CreatedAt = ev.PublishedAt.UTC()
	}
	post.UpdatedAt = now
	post.Score = globaltime.UnixMillis(now)
	if post.Origin == "" {
		post.Origin = defaultOrigin
	}

	post.Visible = deref(post.Title) != ""
	if post.Visible {
		post.VisibleAt = &now
	}
	flags.Visible = &post.Visible

	if key := dedup.ForPost(&post, nil); key != nil {
		flags.DedupKey = key
	}
	post.Flags, err = db.EncodeFlags(flags)
	if err != nil {
		return db.Post{}, err
	}
	post.ContentMeta = withSmartTitle(post.ContentMeta, out.SmartTitle)
	if post.ContentMeta == nil {
		post.ContentMeta = []byte("{}")
	}
	if post.ContentQuality == nil {
		post.ContentQuality = []byte("{}")
	}
	if post.Translations == nil {
		post.Translations = []byte("{}")
	}
	return post, nil
}

// updatePlan is the pure reconciliation of one normalized event onto a
// stored post: the column map, the flags patch, and the follow-up writes
// the event earns.
type updatePlan struct {
	stale           bool
	columns         map[string]any
	patch           db.PostFlags
	flipVisibility  bool
	replaceKeywords bool
}

func planUpdate(stored *db.Post, out *normalize.Output, suppress bool, now time.Time) updatePlan {
	if !stored.MetadataChangedAt.Before(out.Post.MetadataChangedAt) {
		return updatePlan{stale: true}
	}

	columns := buildUpdateColumns(out, now)
	patch := out.Flags

	if suppress {
		patch.Suppressed = db.BoolFlag(true)
		patch.Banned = db.BoolFlag(true)
		patch.ShowOnFeed = db.BoolFlag(false)
		columns["show_on_feed"] = false
	}

	plan := updatePlan{columns: columns}

	// Visibility is monotonic: only the false->true flip is ever written,
	// and visible_at is stamped exactly once.
	if !stored.Visible {
		title := titleAfterUpdate(columns, stored)
		if strings.TrimSpace(title) != "" {
			plan.flipVisibility = true
			columns["visible"] = true
			columns["visible_at"] = now
			patch.Visible = db.BoolFlag(true)
		}
	}

	if key := recomputeDedupKey(stored, columns); key != nil {
		patch.DedupKey = key
	}
	plan.patch = patch

	// Join rows follow tags_str: a type whose update scope drops the tag
	// string keeps its stored keyword rows untouched too.
	if _, ok := columns["tags_str"]; ok {
		plan.replaceKeywords = tagsChanged(stored.TagsStr, out.Post.TagsStr)
	}
	return plan
}

// create persists a brand-new post with its side-effect rows.
func (s *Service) create(tx *gorm.DB, out *normalize.Output, ev *event.IngestionEvent, tags keywords.Resolved, author *db.User) (Outcome, error) {
	claimed, err := db.FindPostClaimingURL(tx, deref(out.Post.URL), deref(out.Post.CanonicalURL), "")
	if err != nil {
		return OutcomeFailed, err
	}
	if claimed != nil {
		s.logger.Warn().
			Str("upstream_id", ev.UpstreamID).
			Str("claimed_by", claimed.ID).
			Msg("create rejected: url already claimed")
		return OutcomeDuplicateURL, nil
	}

	suppress, _ := s.gate.ShouldSuppress(
		moderation.Candidate{Title: deref(out.Post.Title), Content: deref(out.Post.Content)},
		moderation.Requester{IP: ev.RequestIP, Account: author},
	)

	post, err := planCreate(out, ev, suppress, globaltime.UTC())
	if err != nil {
		return OutcomeFailed, err
	}

	if err := tx.Create(&post).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			// Duplicate delivery raced us to the insert.
			s.logger.Warn().
				Str("upstream_id", ev.UpstreamID).
				Msg("create rejected: unique constraint")
			return OutcomeDuplicateURL, nil
		}
		return OutcomeFailed, fmt.Errorf("insert post: %w", err)
	}
	out.Post.ID = post.ID

	if err := writeKeywords(tx, post.ID, tags); err != nil {
		return OutcomeFailed, err
	}
	if err := writeQuestions(tx, post.ID, out.Questions); err != nil {
		return OutcomeFailed, err
	}
	if ev.SubmissionID != "" {
		if err := s.acceptSubmission(tx, ev.SubmissionID); err != nil {
			return OutcomeFailed, err
		}
	}

	return OutcomeCreated, nil
}

// update applies one accepted event onto a stored post. The ordering guard
// is a single conditional UPDATE verified by affected-row count, so a
// concurrent newer write turns this event into a no-op instead of a
// regression.
func (s *Service) update(tx *gorm.DB, stored *db.Post, out *normalize.Output, ev *event.IngestionEvent, tags keywords.Resolved, author *db.User) (Outcome, error) {
	incoming := out.Post.MetadataChangedAt

	if stored.Type != out.Post.Type {
		if err := db.SetPostType(tx, stored.ID, out.Post.Type); err != nil {
			return OutcomeFailed, err
		}
		reread, err := db.FindPostByIDAndType(tx, stored.ID, out.Post.Type)
		if err != nil {
			return OutcomeFailed, err
		}
		if reread == nil {
			return OutcomeFailed, fmt.Errorf("post %s vanished during type correction", stored.ID)
		}
		stored = reread
	}

	storedFlags, err := db.DecodeFlags(stored.Flags)
	if err != nil {
		return OutcomeFailed, err
	}

	// Suppression is one-way: a suppressed post is never re-moderated.
	suppress := false
	alreadySuppressed := storedFlags.Suppressed != nil && *storedFlags.Suppressed
	if !alreadySuppressed {
		suppress, _ = s.gate.ShouldSuppress(
			moderation.Candidate{Title: deref(out.Post.Title), Content: deref(out.Post.Content)},
			moderation.Requester{IP: ev.RequestIP, Account: author},
		)
	}

	plan := planUpdate(stored, out, suppress, globaltime.UTC())
	if plan.stale {
		s.logger.Info().
			Str("post_id", stored.ID).
			Time("stored", stored.MetadataChangedAt).
			Time("incoming", incoming).
			Msg("update skipped: stale metadata timestamp")
		return OutcomeStale, nil
	}

	claimed, err := db.FindPostClaimingURL(tx, deref(out.Post.URL), deref(out.Post.CanonicalURL), stored.ID)
	if err != nil {
		return OutcomeFailed, err
	}
	if claimed != nil {
		s.logger.Warn().
			Str("post_id", stored.ID).
			Str("claimed_by", claimed.ID).
			Msg("update rejected: url already claimed")
		return OutcomeDuplicateURL, nil
	}

	patchJSON, err := db.EncodeFlags(plan.patch)
	if err != nil {
		return OutcomeFailed, err
	}
	plan.columns["flags"] = gorm.Expr("flags || ?::jsonb", string(patchJSON))

	result := tx.Model(&db.Post{}).
		Where("id = ? AND metadata_changed_at < ?", stored.ID, incoming).
		Updates(plan.columns)
	if result.Error != nil {
		if db.IsUniqueViolation(result.Error, "") {
			s.logger.Warn().Str("post_id", stored.ID).Msg("update rejected: unique constraint")
			return OutcomeDuplicateURL, nil
		}
		return OutcomeFailed, fmt.Errorf("update post: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		s.logger.Info().
			Str("post_id", stored.ID).
			Time("incoming", incoming).
			Msg("update skipped: lost ordering race")
		return OutcomeStale, nil
	}

	if plan.flipVisibility {
		if err := db.PropagateShareVisibility(tx, stored.ID, true, out.Post.Private); err != nil {
			return OutcomeFailed, err
		}
	}

	if plan.replaceKeywords {
		if err := writeKeywords(tx, stored.ID, tags); err != nil {
			return OutcomeFailed, err
		}
	}

	if len(out.Questions) > 0 {
		exists, err := db.PostQuestionExists(tx, stored.ID)
		if err != nil {
			return OutcomeFailed, err
		}
		if !exists {
			if err := writeQuestions(tx, stored.ID, out.Questions); err != nil {
				return OutcomeFailed, err
			}
		}
	}

	return OutcomeUpdated, nil
}

// acceptSubmission transitions the submission backing a created post. A
// missing row is upstream data loss worth a warning, not an abort.
func (s *Service) acceptSubmission(tx *gorm.DB, submissionID string) error {
	submission, err := db.GetSubmission(tx, submissionID)
	if err != nil {
		return err
	}
	if submission == nil {
		s.logger.Warn().Str("submission_id", submissionID).Msg("created post references unknown submission")
		return nil
	}
	if _, err := db.UpdateSubmissionStatus(tx, submissionID, db.SubmissionStatusStarted, db.SubmissionStatusAccepted, nil); err != nil {
		return err
	}
	return nil
}

func writeKeywords(tx *gorm.DB, postID string, tags keywords.Resolved) error {
	if err := db.UpsertKeywordOccurrences(tx, tags.All); err != nil {
		return err
	}
	return db.ReplacePostKeywords(tx, postID, tags.All)
}

func writeQuestions(tx *gorm.DB, postID string, questions []string) error {
	for _, question := range questions {
		trimmed := strings.TrimSpace(question)
		if trimmed == "" {
			continue
		}
		row := db.PostQuestion{ID: uuid.NewString(), PostID: postID, Question: trimmed}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("insert post question: %w", err)
		}
	}
	return nil
}

// titleAfterUpdate resolves what the title will be once columns apply.
func titleAfterUpdate(columns map[string]any, stored *db.Post) string {
	if value, ok := columns["title"]; ok {
		if title, ok := value.(string); ok {
			return title
		}
	}
	return deref(stored.Title)
}

// recomputeDedupKey rebuilds the freeform fingerprint from the post as it
// will look after the update.
func recomputeDedupKey(stored *db.Post, columns map[string]any) *string {
	merged := *stored
	if value, ok := columns["title"].(string); ok {
		merged.Title = &value
	}
	if value, ok := columns["content"].(string); ok {
		merged.Content = &value
	}
	return dedup.ForPost(&merged, nil)
}

func tagsChanged(stored, incoming *string) bool {
	return deref(stored) != deref(incoming)
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
