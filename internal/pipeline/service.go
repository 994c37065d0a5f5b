package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"horse.fit/curio/internal/db"
	"horse.fit/curio/internal/event"
	"horse.fit/curio/internal/globaltime"
	"horse.fit/curio/internal/keywords"
	"horse.fit/curio/internal/moderation"
	"horse.fit/curio/internal/normalize"
	"horse.fit/curio/internal/social"
)

// Service drives one ingestion event through decode, identity resolution,
// normalization, and the upsert engine, all inside a single transaction.
type Service struct {
	pool            *db.Pool
	gate            moderation.Checker
	mapper          *social.Mapper
	unknownSourceID string
	logger          zerolog.Logger
	stats           *Stats
}

func NewService(pool *db.Pool, gate moderation.Checker, mapper *social.Mapper, unknownSourceID string, logger zerolog.Logger) *Service {
	return &Service{
		pool:            pool,
		gate:            gate,
		mapper:          mapper,
		unknownSourceID: unknownSourceID,
		logger:          logger,
		stats:           NewStats(),
	}
}

// Stats counts handled events per outcome.
type Stats struct {
	mu     sync.Mutex
	counts map[Outcome]int64
}

func NewStats() *Stats {
	return &Stats{counts: make(map[Outcome]int64)}
}

func (s *Stats) record(outcome Outcome) {
	s.mu.Lock()
	s.counts[outcome]++
	s.mu.Unlock()
}

// Snapshot returns the current counters keyed by outcome name.
func (s *Stats) Snapshot() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(Outcomes))
	for _, outcome := range Outcomes {
		out[string(outcome)] = s.counts[outcome]
	}
	return out
}

// Stats exposes the outcome counters for the ops endpoints.
func (s *Service) Stats() *Stats { return s.stats }

// HandleEvent processes one raw payload. Domain conditions come back as
// outcomes with a nil error; a non-nil error means the event should be
// redelivered.
func (s *Service) HandleEvent(ctx context.Context, raw []byte) (Outcome, error) {
	ev, err := event.Decode(raw)
	if err != nil {
		s.logger.Warn().Err(err).Bytes("payload", raw).Msg("discarding undecodable event")
		s.stats.record(OutcomeRejectedValidation)
		return OutcomeRejectedValidation, nil
	}

	outcome, err := s.process(ctx, ev)
	if err != nil {
		if db.IsDeadlock(err) {
			s.logger.Warn().
				Err(err).
				Str("upstream_id", ev.UpstreamID).
				Msg("deadlock during ingestion, requeueing event")
			s.stats.record(OutcomeFailed)
			return OutcomeFailed, err
		}
		s.logger.Error().
			Err(err).
			Str("upstream_id", ev.UpstreamID).
			Bytes("payload", raw).
			Msg("ingestion failed")
		outcome = OutcomeFailed
	}

	s.stats.record(outcome)
	s.logger.Info().
		Str("upstream_id", ev.UpstreamID).
		Str("outcome", string(outcome)).
		Msg("event handled")
	return outcome, nil
}

// HandleAndAck adapts HandleEvent to the transport handler contract: only
// errors worth a redelivery propagate.
func (s *Service) HandleAndAck(ctx context.Context, payload []byte) error {
	_, err := s.HandleEvent(ctx, payload)
	return err
}

func (s *Service) process(ctx context.Context, ev *event.IngestionEvent) (Outcome, error) {
	var outcome Outcome
	err := s.pool.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		outcome, err = s.processTx(ctx, tx, ev)
		return err
	})
	if err != nil {
		return OutcomeFailed, err
	}
	return outcome, nil
}

func (s *Service) processTx(ctx context.Context, tx *gorm.DB, ev *event.IngestionEvent) (Outcome, error) {
	if ev.Rejected() {
		return s.handleRejection(tx, ev)
	}

	postType, ok := normalize.PostTypeFor(ev.ContentType)
	if !ok {
		s.logger.Warn().
			Str("upstream_id", ev.UpstreamID).
			Str("content_type", ev.ContentType).
			Msg("discarding event with unknown content type")
		return OutcomeRejectedValidation, nil
	}

	stored, err := s.resolveIdentity(tx, ev)
	if err != nil {
		return OutcomeFailed, err
	}

	var thread *social.Mapped
	if postType == db.PostTypeSocialThread {
		thread, err = s.mapper.Map(ev.Extra.Thread)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("upstream_id", ev.UpstreamID).
				Msg("discarding social event with invalid payload")
			return OutcomeRejectedValidation, nil
		}
	}

	author, err := s.resolveAuthor(tx, ev, thread)
	if err != nil {
		return OutcomeFailed, err
	}

	resolver := keywords.NewResolver(db.NewKeywordStore(tx))
	tags, err := resolver.Resolve(ctx, ev.Extra.Keywords)
	if err != nil {
		return OutcomeFailed, err
	}

	fallbackPostID := ev.PostID
	if stored != nil {
		fallbackPostID = stored.ID
	}
	sourcePrivate, err := s.resolveSourcePrivacy(tx, ev.SourceID, fallbackPostID)
	if err != nil {
		return OutcomeFailed, err
	}

	normalizer, err := normalize.ForType(ev.ContentType)
	if err != nil {
		return OutcomeFailed, err
	}
	var authorID *string
	if author != nil {
		authorID = &author.ID
	}
	out, err := normalizer.Normalize(normalize.Input{
		Event:         ev,
		SourcePrivate: sourcePrivate,
		AuthorID:      authorID,
		Tags:          tags,
		Thread:        thread,
		Now:           globaltime.UTC(),
	})
	if err != nil {
		return OutcomeFailed, err
	}

	if thread != nil && thread.Reference != nil {
		sharedID, err := s.resolveReferencePost(tx, thread.Reference)
		if err != nil {
			return OutcomeFailed, err
		}
		out.Post.SharedPostID = &sharedID
	}

	var outcome Outcome
	if stored == nil {
		outcome, err = s.create(tx, out, ev, tags, author)
	} else {
		outcome, err = s.update(tx, stored, out, ev, tags, author)
	}
	if err != nil {
		return OutcomeFailed, err
	}

	if outcome == OutcomeCreated || outcome == OutcomeUpdated {
		postID := out.Post.ID
		if postID == "" && stored != nil {
			postID = stored.ID
		}
		s.applySideEffects(tx, postID, out)
	}

	return outcome, nil
}

// resolveIdentity prefers the direct post id and falls back to the stable
// upstream id, so re-crawls of known content update instead of duplicating.
func (s *Service) resolveIdentity(tx *gorm.DB, ev *event.IngestionEvent) (*db.Post, error) {
	if ev.PostID != "" {
		post, err := db.FindPostByID(tx, ev.PostID)
		if err != nil {
			return nil, err
		}
		if post != nil {
			return post, nil
		}
	}
	return db.FindPostByUpstreamID(tx, ev.UpstreamID)
}

func (s *Service) resolveAuthor(tx *gorm.DB, ev *event.IngestionEvent, thread *social.Mapped) (*db.User, error) {
	handle := ev.Extra.CreatorHandle
	if handle == "" && thread != nil {
		handle = thread.AuthorUsername
	}
	return db.FindUserByUsername(tx, handle)
}

// resolveReferencePost finds the post a share wraps, creating a stub when
// the referenced content has not been ingested yet. The stub stays
// invisible until its own event arrives.
func (s *Service) resolveReferencePost(tx *gorm.DB, ref *social.Reference) (string, error) {
	if ref.UpstreamID != "" {
		post, err := db.FindPostByUpstreamID(tx, ref.UpstreamID)
		if err != nil {
			return "", err
		}
		if post != nil {
			return post.ID, nil
		}
	}
	post, err := db.FindPostByURL(tx, ref.URL)
	if err != nil {
		return "", err
	}
	if post != nil {
		return post.ID, nil
	}

	shortID, err := newShortID()
	if err != nil {
		return "", err
	}
	now := globaltime.UTC()
	stub := db.Post{
		ID:                uuid.NewString(),
		ShortID:           shortID,
		Type:              db.PostTypeSocialThread,
		SourceID:          s.unknownSourceID,
		URL:               &ref.URL,
		CanonicalURL:      &ref.URL,
		Origin:            defaultOrigin,
		Visible:           false,
		ShowOnFeed:        false,
		Flags:             []byte(`{"visible":false,"showOnFeed":false}`),
		ContentMeta:       []byte("{}"),
		ContentQuality:    []byte("{}"),
		Translations:      []byte("{}"),
		MetadataChangedAt: now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if ref.UpstreamID != "" {
		stub.UpstreamID = &ref.UpstreamID
	}
	if ref.Title != "" {
		stub.Title = &ref.Title
	}
	if err := tx.Create(&stub).Error; err != nil {
		return "", fmt.Errorf("insert referenced post stub: %w", err)
	}
	return stub.ID, nil
}

// applySideEffects runs the best-effort writes that must not abort an
// otherwise successful upsert. Failures are logged and dropped.
func (s *Service) applySideEffects(tx *gorm.DB, postID string, out *normalize.Output) {
	if postID == "" {
		return
	}
	if out.Post.Type == db.PostTypeCollection {
		if err := db.ReplacePostRelations(tx, postID, db.PostRelationCollection, out.RelatedPostIDs); err != nil {
			s.logger.Error().Err(err).Str("post_id", postID).Msg("failed to sync collection relations")
		}
	}
	if out.Post.Type == db.PostTypeFreeform && out.Post.Content != nil {
		if err := syncCodeSnippets(tx, postID, *out.Post.Content); err != nil {
			s.logger.Error().Err(err).Str("post_id", postID).Msg("failed to sync code snippets")
		}
	}
}

func (s *Service) handleRejection(tx *gorm.DB, ev *event.IngestionEvent) (Outcome, error) {
	if ev.SubmissionID == "" {
		s.logger.Info().
			Str("upstream_id", ev.UpstreamID).
			Str("reason", ev.RejectReason).
			Msg("dropping rejected event without submission")
		return OutcomeSubmissionRejected, nil
	}
	reason := ev.RejectReason
	transitioned, err := db.UpdateSubmissionStatus(tx, ev.SubmissionID, db.SubmissionStatusStarted, db.SubmissionStatusRejected, &reason)
	if err != nil {
		return OutcomeFailed, err
	}
	if !transitioned {
		s.logger.Warn().
			Str("submission_id", ev.SubmissionID).
			Msg("rejection received for submission no longer in started state")
	}
	return OutcomeSubmissionRejected, nil
}
