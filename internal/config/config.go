package config

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"CURIO_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"CURIO_DB_MAX_CONNS" default:"8"`

	KafkaBroker       string `envconfig:"KAFKA_BROKER" default:"localhost:9092"`
	KafkaGroupID      string `envconfig:"KAFKA_GROUP_ID" default:"curio-ingest"`
	KafkaContentTopic string `envconfig:"KAFKA_CONTENT_TOPIC" default:"content-published"`

	HTTPAddr string `envconfig:"CURIO_HTTP_ADDR" default:":8080"`

	UnknownSourceID    string `envconfig:"CURIO_UNKNOWN_SOURCE_ID" default:"unknown"`
	ModerationSubnets  string `envconfig:"CURIO_MODERATION_SUBNETS" default:""`
	ModerationWords    string `envconfig:"CURIO_MODERATION_WORDS" default:""`
	ReputationFloor    int    `envconfig:"CURIO_REPUTATION_FLOOR" default:"0"`
	AvatarImagePattern string `envconfig:"CURIO_AVATAR_IMAGE_PATTERN" default:"/profile_images/"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("CURIO_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("CURIO_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("CURIO_DB_MIN_CONNS (%d) cannot exceed CURIO_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if strings.TrimSpace(c.KafkaBroker) == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}
	if strings.TrimSpace(c.KafkaGroupID) == "" {
		return fmt.Errorf("KAFKA_GROUP_ID is required")
	}
	if strings.TrimSpace(c.KafkaContentTopic) == "" {
		return fmt.Errorf("KAFKA_CONTENT_TOPIC is required")
	}
	if strings.TrimSpace(c.UnknownSourceID) == "" {
		return fmt.Errorf("CURIO_UNKNOWN_SOURCE_ID is required")
	}
	if _, err := c.ModerationSubnetList(); err != nil {
		return err
	}
	return nil
}

// ModerationSubnetList parses CURIO_MODERATION_SUBNETS into CIDR prefixes.
func (c *Config) ModerationSubnetList() ([]netip.Prefix, error) {
	if c == nil {
		return nil, nil
	}

	parts := strings.Split(c.ModerationSubnets, ",")
	prefixes := make([]netip.Prefix, 0, len(parts))
	for _, part := range parts {
		raw := strings.TrimSpace(part)
		if raw == "" {
			continue
		}
		prefix, err := netip.ParsePrefix(raw)
		if err != nil {
			return nil, fmt.Errorf("CURIO_MODERATION_SUBNETS entry %q is not a CIDR: %w", raw, err)
		}
		prefixes = append(prefixes, prefix)
	}
	return prefixes, nil
}

// ModerationWordList splits CURIO_MODERATION_WORDS into lowercased terms.
func (c *Config) ModerationWordList() []string {
	if c == nil {
		return nil
	}

	parts := strings.Split(c.ModerationWords, ",")
	words := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		word := strings.ToLower(strings.TrimSpace(part))
		if word == "" {
			continue
		}
		if _, exists := seen[word]; exists {
			continue
		}
		seen[word] = struct{}{}
		words = append(words, word)
	}
	return words
}
