package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jayclim/CR-Data/internal/api"
	"github.com/jayclim/CR-Data/internal/constants"
	"github.com/jayclim/CR-Data/internal/domain"
)

type PlayerBattles struct {
	Tag     string
	Region  string
	Records []domain.BattleRecord
}

// PlayerBattleCollector turns one player's battle log into records.
type PlayerBattleCollector struct {
	upstream    Upstream
	clans       *ClanLocationCache
	battleLimit int
	logger      zerolog.Logger
}

func NewPlayerBattleCollector(upstream Upstream, clans *ClanLocationCache, battleLimit int, logger zerolog.Logger) *PlayerBattleCollector {
	return &PlayerBattleCollector{upstream: upstream, clans: clans, battleLimit: battleLimit, logger: logger}
}

// Collect never fails on upstream errors; it returns an error only when ctx is done.
func (c *PlayerBattleCollector) Collect(ctx context.Context, player domain.RankedPlayer) (PlayerBattles, error) {
	out := PlayerBattles{Tag: player.Tag, Region: domain.UnknownRegion}

	battles, err := c.upstream.GetBattleLog(ctx, player.Tag)
	if err != nil {
		c.logger.Debug().Err(err).Str("player_tag", player.Tag).Msg("battle log unavailable")
	}
	if err := ctx.Err(); err != nil {
		return PlayerBattles{}, err
	}

	for _, b := range battles {
		if len(out.Records) >= c.battleLimit {
			break
		}
		rec, ok := toRecord(b)
		if !ok {
			continue
		}
		out.Records = append(out.Records, rec)
	}

	out.Region = c.clans.Resolve(ctx, player.ClanTag)
	if err := ctx.Err(); err != nil {
		return PlayerBattles{}, err
	}
	for i := range out.Records {
		out.Records[i].Region = out.Region
	}

	return out, nil
}

func toRecord(b api.Battle) (domain.BattleRecord, bool) {
	if !constants.RankedBattleTypes[b.Type] || len(b.Team) == 0 {
		return domain.BattleRecord{}, false
	}
	team := b.Team[0]
	rec := domain.BattleRecord{
		Team:       toDeck(team.Cards),
		TeamCrowns: team.Crowns,
	}
	if len(b.Opponent) > 0 {
		opp := b.Opponent[0]
		rec.Opponent = toDeck(opp.Cards)
		rec.OpponentCrowns = opp.Crowns
	}
	rec.Win = rec.TeamCrowns > rec.OpponentCrowns
	return rec, true
}

func toDeck(cards []api.BattleCard) domain.Deck {
	d := make(domain.Deck, 0, len(cards))
	for _, c := range cards {
		d = append(d, domain.DeckCard{
			Name:           c.Name,
			Elixir:         c.ElixirCost,
			EvolutionLevel: c.EvolutionLevel,
			IconURL:        c.IconURLs.Medium,
		})
	}
	return d
}
