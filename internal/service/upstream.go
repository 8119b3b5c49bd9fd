package service

import (
	"context"

	"github.com/jayclim/CR-Data/internal/api"
)

// Upstream is the read-only game data source.
type Upstream interface {
	ListTopPlayers(ctx context.Context, limit int, after string) (*api.PlayerRankingPage, error)
	GetBattleLog(ctx context.Context, tag string) ([]api.Battle, error)
	GetClan(ctx context.Context, tag string) (*api.Clan, error)
	GetPlayer(ctx context.Context, tag string) (*api.PlayerProfile, error)
	GetCards(ctx context.Context) (*api.CardsResponse, error)
	GetClanRankings(ctx context.Context, location string, limit int) (*api.ClanRankings, error)
}

var _ Upstream = (*api.RoyaleClient)(nil)
