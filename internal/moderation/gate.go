package moderation

import (
	"net/netip"
	"strings"

	"github.com/rs/zerolog"

	"horse.fit/curio/internal/db"
)

// Checker is the suppression decision consulted once at creation and once
// per update. Implementations must be safe for concurrent use.
type Checker interface {
	ShouldSuppress(candidate Candidate, requester Requester) (bool, string)
}

// Candidate is the content under review.
type Candidate struct {
	Title   string
	Content string
}

// Requester describes who pushed the content.
type Requester struct {
	IP      string
	Account *db.User
}

// Gate is the config-driven Checker: suppression subnets, banned words, and
// account standing, checked in order with a short circuit on first match.
type Gate struct {
	subnets         []netip.Prefix
	words           []string
	reputationFloor int
	logger          zerolog.Logger
}

func NewGate(subnets []netip.Prefix, words []string, reputationFloor int, logger zerolog.Logger) *Gate {
	lowered := make([]string, 0, len(words))
	for _, word := range words {
		if trimmed := strings.ToLower(strings.TrimSpace(word)); trimmed != "" {
			lowered = append(lowered, trimmed)
		}
	}
	return &Gate{
		subnets:         subnets,
		words:           lowered,
		reputationFloor: reputationFloor,
		logger:          logger,
	}
}

// ShouldSuppress returns the decision plus the first matching reason.
// Callers skip this entirely when the stored record is already suppressed;
// suppression is one-way.
func (g *Gate) ShouldSuppress(candidate Candidate, requester Requester) (bool, string) {
	if reason := g.evaluate(candidate, requester); reason != "" {
		g.logger.Warn().
			Str("reason", reason).
			Str("request_ip", requester.IP).
			Msg("content suppressed by moderation gate")
		return true, reason
	}
	return false, ""
}

func (g *Gate) evaluate(candidate Candidate, requester Requester) string {
	if g.ipSuppressed(requester.IP) {
		return "ip"
	}
	if word := g.matchBannedWord(candidate); word != "" {
		return "word:" + word
	}
	if requester.Account == nil {
		return ""
	}
	if requester.Account.Flagged {
		return "account_flagged"
	}
	if requester.Account.TrustScore <= 0 {
		return "trust_score"
	}
	if requester.Account.Reputation < g.reputationFloor {
		return "reputation"
	}
	return ""
}

func (g *Gate) ipSuppressed(raw string) bool {
	addr, err := netip.ParseAddr(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	for _, prefix := range g.subnets {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func (g *Gate) matchBannedWord(candidate Candidate) string {
	if len(g.words) == 0 {
		return ""
	}
	haystack := strings.ToLower(candidate.Title + "\n" + candidate.Content)
	for _, word := range g.words {
		if strings.Contains(haystack, word) {
			return word
		}
	}
	return ""
}
