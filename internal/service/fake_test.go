package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jayclim/CR-Data/internal/api"
	"github.com/jayclim/CR-Data/internal/config"
)

type fakeUpstream struct {
	mu sync.Mutex

	pages        map[string]*api.PlayerRankingPage
	battles      map[string][]api.Battle
	clans        map[string]*api.Clan
	profiles     map[string]*api.PlayerProfile
	cards        *api.CardsResponse
	clanRankings *api.ClanRankings
	clanErrs     map[string]error

	clanCalls map[string]int
	cardCalls int
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		pages:     map[string]*api.PlayerRankingPage{},
		battles:   map[string][]api.Battle{},
		clans:     map[string]*api.Clan{},
		profiles:  map[string]*api.PlayerProfile{},
		clanCalls: map[string]int{},
		clanErrs:  map[string]error{},
	}
}

func unavailable(route string) error {
	return fmt.Errorf("%w: %s: not found", api.ErrUnavailable, route)
}

func (f *fakeUpstream) ListTopPlayers(_ context.Context, _ int, after string) (*api.PlayerRankingPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pages[after]
	if !ok {
		return nil, unavailable("rankings")
	}
	return p, nil
}

func (f *fakeUpstream) GetBattleLog(_ context.Context, tag string) ([]api.Battle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.battles[tag]
	if !ok {
		return nil, unavailable("battlelog")
	}
	return b, nil
}

func (f *fakeUpstream) GetClan(_ context.Context, tag string) (*api.Clan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clanCalls[tag]++
	if err := f.clanErrs[tag]; err != nil {
		return nil, err
	}
	c, ok := f.clans[tag]
	if !ok {
		return nil, unavailable("clan")
	}
	return c, nil
}

func (f *fakeUpstream) GetPlayer(_ context.Context, tag string) (*api.PlayerProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[tag]
	if !ok {
		return nil, unavailable("player")
	}
	return p, nil
}

func (f *fakeUpstream) GetCards(context.Context) (*api.CardsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cardCalls++
	if f.cards == nil {
		return nil, unavailable("cards")
	}
	return f.cards, nil
}

func (f *fakeUpstream) GetClanRankings(context.Context, string, int) (*api.ClanRankings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clanRankings == nil {
		return nil, unavailable("clanrankings")
	}
	return f.clanRankings, nil
}

func (f *fakeUpstream) clanCallCount(tag string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clanCalls[tag]
}

var (
	golemCards = []string{"Golem", "Night Witch", "Baby Dragon", "Lightning", "Tornado", "Mega Minion", "Lumberjack", "Barbarian Barrel"}
	hogCards   = []string{"Hog Rider", "Musketeer", "Cannon", "Ice Golem", "Skeletons", "Ice Spirit", "Fireball", "The Log"}
	plainCards = []string{"Knight", "Archers", "Musketeer", "Valkyrie", "Fireball", "Zap", "Skeletons", "Ice Spirit"}
)

var testCosts = map[string]int{
	"Golem": 8, "Night Witch": 4, "Baby Dragon": 4, "Lightning": 6, "Tornado": 3,
	"Mega Minion": 3, "Lumberjack": 4, "Barbarian Barrel": 2,
	"Hog Rider": 4, "Musketeer": 4, "Cannon": 3, "Ice Golem": 2, "Skeletons": 1,
	"Ice Spirit": 1, "Fireball": 4, "The Log": 2,
	"Knight": 3, "Archers": 3, "Valkyrie": 4, "Zap": 2,
}

func cards(names []string) []api.BattleCard {
	out := make([]api.BattleCard, len(names))
	for i, n := range names {
		out[i] = api.BattleCard{Name: n, ElixirCost: testCosts[n]}
	}
	return out
}

func battle(kind string, team, opponent []string, teamCrowns, oppCrowns int) api.Battle {
	b := api.Battle{Type: kind}
	b.Team = []api.Participant{{Crowns: teamCrowns, Cards: cards(team)}}
	if opponent != nil {
		b.Opponent = []api.Participant{{Crowns: oppCrowns, Cards: cards(opponent)}}
	}
	return b
}

func rankedPlayer(tag, name, clanTag string) api.RankedPlayer {
	p := api.RankedPlayer{Tag: tag, Name: name}
	if clanTag != "" {
		p.Clan = &api.PlayerClan{Tag: clanTag}
	}
	raw, _ := json.Marshal(map[string]string{"tag": tag, "name": name})
	p.Raw = raw
	return p
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.ProxyAPIKey = "test"
	cfg.PlayerLimit = 10
	cfg.PlayerPageSize = 2
	cfg.MaxConcurrency = 2
	cfg.ProgressEvery = 1
	cfg.ProfileSampleSize = 2
	cfg.MinMatchupSample = 1
	cfg.MinRegionDecks = 0
	cfg.MinElixirSample = 0
	cfg.OutputPath = ""
	return cfg
}
