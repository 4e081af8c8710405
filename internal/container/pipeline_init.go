package container

import (
	"fmt"

	"exportdecl/importer"
	"exportdecl/internal/config"
	"exportdecl/normalization"
)

// initPipeline собирает конвейер: координатор загрузки, снимок справочников
// (PostgreSQL если задан, иначе SQLite; зеркало в Redis если есть), движок агрегации
func (c *Container) initPipeline() error {
	pc := c.Config.Pipeline

	aliases, err := importer.AliasTableFromConfig(pc.ColumnAliases)
	if err != nil {
		return fmt.Errorf("invalid column aliases: %w", err)
	}
	coordinator := importer.NewCoordinator(importer.NewFileReader(), aliases, pc.Workers, c.Logger)

	var store normalization.LookupStore = c.LookupDB
	if c.Postgres != nil {
		store = c.Postgres
	}
	var mirror normalization.SnapshotMirror
	if c.Redis != nil {
		mirror = normalization.NewRedisSnapshotMirror(c.Redis, c.Config.Redis.KeyPrefix, c.Config.Redis.SnapshotTTL)
	}
	snapshots := normalization.NewSnapshotLoader(store, mirror, c.Logger)

	engine := normalization.NewAggregationEngine(normalization.NewDescriptionBuilder(ClauseRules(pc.Clauses)))

	c.Pipeline = normalization.NewPipeline(coordinator, snapshots, engine,
		normalization.WithGrossRatio(normalization.NewGrossRatioPolicy(pc.GrossRatioMin, pc.GrossRatioMax, pc.GrossRatioFixed, nil)),
		normalization.WithObserver(c.Metrics),
		normalization.WithLogger(c.Logger),
	)
	return nil
}

// ClauseRules переводит правила описания из конфигурации
func ClauseRules(rules []config.ClauseRule) []normalization.ClauseRule {
	out := make([]normalization.ClauseRule, 0, len(rules))
	for _, r := range rules {
		out = append(out, normalization.ClauseRule{
			Name:       r.Name,
			Categories: r.Categories,
			Clause:     r.Clause,
		})
	}
	return out
}
