package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jayclim/CR-Data/internal/aggregate"
	"github.com/jayclim/CR-Data/internal/config"
	"github.com/jayclim/CR-Data/internal/domain"
	"github.com/jayclim/CR-Data/internal/metrics"
	"github.com/jayclim/CR-Data/internal/snapshot"
)

// MetaService runs the whole pipeline: ladder, battle logs, aggregation, report.
type MetaService struct {
	upstream Upstream
	catalog  *CatalogService
	cfg      *config.Config
	logger   zerolog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewMetaService(upstream Upstream, catalog *CatalogService, cfg *config.Config, logger zerolog.Logger, m *metrics.Metrics) *MetaService {
	return &MetaService{
		upstream: upstream,
		catalog:  catalog,
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}
}

// Run builds one report. Upstream failures degrade the report; only ctx
// cancellation aborts the run.
func (s *MetaService) Run(ctx context.Context) (*snapshot.Report, error) {
	runID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate run id: %w", err)
	}
	log := s.logger.With().Str("run_id", runID).Logger()
	start := s.now()
	log.Info().Int("player_limit", s.cfg.PlayerLimit).Msg("starting meta snapshot run")

	cat, err := s.catalog.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("card catalog unavailable, continuing without it")
		cat = domain.Catalog{}
	}

	players := s.topPlayers(ctx, log)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.Info().Int("players", len(players)).Msg("players to analyze")

	engine := aggregate.NewEngine(cat)
	clans := NewClanLocationCache(s.upstream, log)
	collector := NewPlayerBattleCollector(s.upstream, clans, s.cfg.BattleLimit, log)
	scheduler := NewScheduler(s.cfg.MaxConcurrency, s.cfg.ProgressEvery, log, s.metrics)

	stats := scheduler.Run(ctx, players, collector.Collect, func(pb PlayerBattles) {
		engine.ObservePlayer(pb.Region)
		for _, rec := range pb.Records {
			s.fold(engine, rec, log)
		}
		s.metrics.BattlesFolded(len(pb.Records))
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tables := engine.Tables()
	log.Info().
		Int("decks", tables.TotalDecks).
		Int("players_ok", stats.Succeeded).
		Int("players_failed", stats.Failed).
		Int("clans_resolved", clans.Len()).
		Msg("analysis complete")

	profiles := s.sampleProfiles(ctx, players, log)
	clanBoard := s.clanLeaderboard(ctx, log)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw := make([]json.RawMessage, 0, len(players))
	for _, p := range players {
		if len(p.Raw) > 0 {
			raw = append(raw, p.Raw)
		}
	}

	report := snapshot.Assemble(snapshot.Input{
		Tables:       tables,
		Catalog:      cat,
		TotalPlayers: len(players),
		Profiles:     profiles,
		TopPlayers:   raw,
		Clans:        clanBoard,
		RunID:        runID,
		Now:          s.now(),
	}, snapshot.OptionsFromConfig(s.cfg))

	log.Info().
		Int("decks", report.TotalDecks).
		Int("archetypes", len(report.Archetypes)).
		Dur("took", s.now().Sub(start)).
		Msg("meta snapshot assembled")
	return report, nil
}

func (s *MetaService) fold(e *aggregate.Engine, rec domain.BattleRecord, log zerolog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("failed to fold battle record")
		}
	}()
	e.Fold(rec)
}

// topPlayers pages through the ladder until PlayerLimit, an empty page or no cursor.
func (s *MetaService) topPlayers(ctx context.Context, log zerolog.Logger) []domain.RankedPlayer {
	var players []domain.RankedPlayer
	cursor := ""
	for len(players) < s.cfg.PlayerLimit {
		page, err := s.upstream.ListTopPlayers(ctx, s.cfg.PlayerPageSize, cursor)
		if err != nil {
			log.Warn().Err(err).Int("fetched", len(players)).Msg("player ranking page unavailable, stopping pagination")
			break
		}
		if len(page.Items) == 0 {
			break
		}
		for _, p := range page.Items {
			rp := domain.RankedPlayer{Tag: p.Tag, Name: p.Name, Raw: p.Raw}
			if p.Clan != nil {
				rp.ClanTag = p.Clan.Tag
			}
			players = append(players, rp)
		}
		log.Debug().Int("fetched", len(players)).Msg("fetched ranking page")

		cursor = page.Paging.Cursors.After
		if cursor == "" {
			break
		}
	}
	if len(players) > s.cfg.PlayerLimit {
		players = players[:s.cfg.PlayerLimit]
	}
	return players
}

func (s *MetaService) sampleProfiles(ctx context.Context, players []domain.RankedPlayer, log zerolog.Logger) []domain.PlayerProfile {
	sample := players
	if len(sample) > s.cfg.ProfileSampleSize {
		sample = sample[:s.cfg.ProfileSampleSize]
	}

	results := make([]*domain.PlayerProfile, len(sample))
	g := new(errgroup.Group)
	g.SetLimit(s.cfg.MaxConcurrency)
	for i, p := range sample {
		g.Go(func() error {
			prof, err := s.upstream.GetPlayer(ctx, p.Tag)
			if err != nil {
				log.Debug().Err(err).Str("player_tag", p.Tag).Msg("profile unavailable")
				return nil
			}
			results[i] = &domain.PlayerProfile{
				Tag:               prof.Tag,
				Wins:              prof.Wins,
				ThreeCrownWins:    prof.ThreeCrownWins,
				BestTrophies:      prof.BestTrophies,
				WarDayWins:        prof.WarDayWins,
				ChallengeCardsWon: prof.ChallengeCardsWon,
			}
			return nil
		})
	}
	_ = g.Wait()

	profiles := make([]domain.PlayerProfile, 0, len(results))
	for _, p := range results {
		if p != nil {
			profiles = append(profiles, *p)
		}
	}
	log.Info().Int("sampled", len(sample)).Int("profiles", len(profiles)).Msg("profile sample collected")
	return profiles
}

func (s *MetaService) clanLeaderboard(ctx context.Context, log zerolog.Logger) []json.RawMessage {
	resp, err := s.upstream.GetClanRankings(ctx, s.cfg.LeaderboardLocation, s.cfg.LeaderboardSize)
	if err != nil {
		log.Warn().Err(err).Msg("clan leaderboard unavailable")
		return nil
	}
	return resp.Items
}
