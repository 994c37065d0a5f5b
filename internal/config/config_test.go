package config

import "testing"

func validConfig() *Config {
	return &Config{
		Environment:        "local",
		LogLevel:           "info",
		DatabaseURL:        "postgres://localhost/curio",
		DBMinConns:         1,
		DBMaxConns:         4,
		KafkaBroker:        "localhost:9092",
		KafkaGroupID:       "curio-ingest",
		KafkaContentTopic:  "content-published",
		UnknownSourceID:    "unknown",
		AvatarImagePattern: "/profile_images/",
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	t.Parallel()

	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidateRejectsMissingDatabaseURL(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.DatabaseURL = "  "
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() accepted a blank DATABASE_URL")
	}
}

func TestValidateRejectsInvertedConnBounds(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.DBMinConns = 8
	cfg.DBMaxConns = 2
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() accepted min conns above max conns")
	}
}

func TestModerationSubnetList(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.ModerationSubnets = "10.0.0.0/8, 192.168.1.0/24"
	prefixes, err := cfg.ModerationSubnetList()
	if err != nil {
		t.Fatalf("ModerationSubnetList() = %v", err)
	}
	if len(prefixes) != 2 {
		t.Fatalf("parsed %d prefixes, want 2", len(prefixes))
	}
	if got := prefixes[0].String(); got != "10.0.0.0/8" {
		t.Fatalf("first prefix = %q, want %q", got, "10.0.0.0/8")
	}
}

func TestModerationSubnetListRejectsGarbage(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.ModerationSubnets = "not-a-cidr"
	if _, err := cfg.ModerationSubnetList(); err == nil {
		t.Fatal("ModerationSubnetList() accepted a non-CIDR entry")
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() accepted a non-CIDR moderation subnet")
	}
}

func TestModerationWordList(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.ModerationWords = "Spam, , CASINO, spam"
	words := cfg.ModerationWordList()
	if len(words) != 2 {
		t.Fatalf("parsed %d words, want 2: %v", len(words), words)
	}
	if words[0] != "spam" || words[1] != "casino" {
		t.Fatalf("words = %v, want [spam casino]", words)
	}
}
