package app

import (
	"fmt"

	"github.com/rs/zerolog"

	"horse.fit/curio/internal/config"
	"horse.fit/curio/internal/db"
	"horse.fit/curio/internal/moderation"
	"horse.fit/curio/internal/pipeline"
	"horse.fit/curio/internal/social"
)

// buildService wires the ingestion service from configuration.
func buildService(cfg *config.Config, pool *db.Pool, logger zerolog.Logger) (*pipeline.Service, error) {
	subnets, err := cfg.ModerationSubnetList()
	if err != nil {
		return nil, fmt.Errorf("parse moderation subnets: %w", err)
	}
	gate := moderation.NewGate(subnets, cfg.ModerationWordList(), cfg.ReputationFloor, logger)
	mapper := social.NewMapper(cfg.AvatarImagePattern)
	return pipeline.NewService(pool, gate, mapper, cfg.UnknownSourceID, logger), nil
}
