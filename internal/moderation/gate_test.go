package moderation

import (
	"net/netip"
	"testing"

	"github.com/rs/zerolog"

	"horse.fit/curio/internal/db"
)

func testGate(t *testing.T) *Gate {
	t.Helper()
	return NewGate(
		[]netip.Prefix{netip.MustParsePrefix("10.13.0.0/16")},
		[]string{"Spamword"},
		5,
		zerolog.Nop(),
	)
}

func TestShouldSuppress_IPSubnet(t *testing.T) {
	t.Parallel()

	suppress, reason := testGate(t).ShouldSuppress(Candidate{}, Requester{IP: "10.13.9.4"})
	if !suppress || reason != "ip" {
		t.Fatalf("expected ip suppression, got suppress=%t reason=%q", suppress, reason)
	}
}

func TestShouldSuppress_BannedWordCaseInsensitive(t *testing.T) {
	t.Parallel()

	suppress, reason := testGate(t).ShouldSuppress(
		Candidate{Content: "buy SPAMWORD today"},
		Requester{IP: "192.0.2.1"},
	)
	if !suppress || reason != "word:spamword" {
		t.Fatalf("expected banned-word suppression, got suppress=%t reason=%q", suppress, reason)
	}
}

func TestShouldSuppress_AccountChecksInOrder(t *testing.T) {
	t.Parallel()

	gate := testGate(t)

	flagged := &db.User{ID: "u1", Flagged: true, TrustScore: 3, Reputation: 100}
	if suppress, reason := gate.ShouldSuppress(Candidate{}, Requester{Account: flagged}); !suppress || reason != "account_flagged" {
		t.Fatalf("expected flagged account suppression, got suppress=%t reason=%q", suppress, reason)
	}

	untrusted := &db.User{ID: "u2", TrustScore: 0, Reputation: 100}
	if suppress, reason := gate.ShouldSuppress(Candidate{}, Requester{Account: untrusted}); !suppress || reason != "trust_score" {
		t.Fatalf("expected trust suppression, got suppress=%t reason=%q", suppress, reason)
	}

	newcomer := &db.User{ID: "u3", TrustScore: 1, Reputation: 2}
	if suppress, reason := gate.ShouldSuppress(Candidate{}, Requester{Account: newcomer}); !suppress || reason != "reputation" {
		t.Fatalf("expected reputation suppression, got suppress=%t reason=%q", suppress, reason)
	}
}

func TestShouldSuppress_CleanContent(t *testing.T) {
	t.Parallel()

	account := &db.User{ID: "u4", TrustScore: 1, Reputation: 50}
	suppress, reason := testGate(t).ShouldSuppress(
		Candidate{Title: "A fine post", Content: "nothing to see"},
		Requester{IP: "192.0.2.1", Account: account},
	)
	if suppress || reason != "" {
		t.Fatalf("expected no suppression, got suppress=%t reason=%q", suppress, reason)
	}
}

func TestShouldSuppress_NoAccount(t *testing.T) {
	t.Parallel()

	if suppress, _ := testGate(t).ShouldSuppress(Candidate{}, Requester{IP: "192.0.2.1"}); suppress {
		t.Fatalf("crawler content without an account must not be suppressed by account checks")
	}
}
