package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jayclim/CR-Data/internal/aggregate"
	"github.com/jayclim/CR-Data/internal/api"
	"github.com/jayclim/CR-Data/internal/cache"
	"github.com/jayclim/CR-Data/internal/config"
	"github.com/jayclim/CR-Data/internal/metrics"
	"github.com/jayclim/CR-Data/internal/snapshot"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.Local)

// ladderUpstream: #P1 plays Golem into Hog, #P2 plays Hog into a deck with no
// win condition, #P3 plays that deck into Golem. Two battles each.
func ladderUpstream() *fakeUpstream {
	up := newFakeUpstream()

	first := &api.PlayerRankingPage{Items: []api.RankedPlayer{
		rankedPlayer("#P1", "one", "#C1"),
		rankedPlayer("#P2", "two", "#C2"),
	}}
	first.Paging.Cursors.After = "page2"
	up.pages[""] = first
	up.pages["page2"] = &api.PlayerRankingPage{Items: []api.RankedPlayer{
		rankedPlayer("#P3", "three", ""),
	}}

	up.battles["#P1"] = []api.Battle{
		battle("PvP", golemCards, hogCards, 3, 0),
		battle("pathOfLegend", golemCards, hogCards, 0, 1),
		battle("friendly", golemCards, hogCards, 1, 0),
	}
	up.battles["#P2"] = []api.Battle{
		battle("PvP", hogCards, plainCards, 1, 0),
		battle("PvP", hogCards, plainCards, 2, 0),
	}
	up.battles["#P3"] = []api.Battle{
		battle("PvP", plainCards, golemCards, 0, 1),
		battle("PvP", plainCards, golemCards, 1, 0),
	}

	up.clans["#C1"] = &api.Clan{Location: &api.Location{Name: "United States", IsCountry: true, CountryCode: "US"}}
	up.clans["#C2"] = &api.Clan{Location: &api.Location{Name: "Europe"}}

	up.profiles["#P1"] = &api.PlayerProfile{Tag: "#P1", Wins: 100, BestTrophies: 9000}
	up.profiles["#P2"] = &api.PlayerProfile{Tag: "#P2", Wins: 300, BestTrophies: 8000}

	up.clanRankings = &api.ClanRankings{Items: []json.RawMessage{json.RawMessage(`{"tag":"#CLAN","name":"top"}`)}}
	return up
}

func newMetaService(up *fakeUpstream, cfg *config.Config) *MetaService {
	m := metrics.New()
	catalog := NewCatalogService(up, cache.NewMemory(), cfg, zerolog.Nop(), m)
	s := NewMetaService(up, catalog, cfg, zerolog.Nop(), m)
	s.now = func() time.Time { return fixedNow }
	return s
}

func shareCounts(shares []snapshot.ArchetypeShare) map[string]int {
	out := map[string]int{}
	for _, s := range shares {
		out[s.Name] = s.Count
	}
	return out
}

func TestMetaServiceRun(t *testing.T) {
	up := ladderUpstream()
	up.cards = testCards()

	report, err := newMetaService(up, testConfig()).Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "2026-03-14 09:30:00", report.Timestamp)
	assert.Equal(t, 3, report.TotalPlayers)
	assert.Equal(t, 6, report.TotalDecks)

	assert.Equal(t, map[string]int{"Golem": 2, "Hog Cycle": 2, "Unknown": 2}, shareCounts(report.Archetypes))
	for _, s := range report.Archetypes {
		assert.InDelta(t, 33.33, s.Share, 0.01)
	}

	require.Len(t, report.MatchupsSpecific, 2)
	byPair := map[[2]string]aggregate.MatchupRow{}
	for _, row := range report.MatchupsSpecific {
		byPair[[2]string{row.Archetype, row.Opponent}] = row
	}
	golemVsHog := byPair[[2]string{"Golem", "Hog Cycle"}]
	assert.Equal(t, 2, golemVsHog.Total)
	assert.Equal(t, 1, golemVsHog.Wins)
	hogVsGolem := byPair[[2]string{"Hog Cycle", "Golem"}]
	assert.Equal(t, 2, hogVsGolem.Total)
	assert.Equal(t, 1, hogVsGolem.Wins)

	locs := map[string]int{}
	for _, l := range report.PlayerLocations {
		locs[l.ID] = l.Value
	}
	assert.Equal(t, map[string]int{"US": 1, "Europe": 1}, locs)
	assert.Equal(t, map[string]int{"Golem": 2}, report.RegionalSpecific["US"])
	assert.Equal(t, map[string]int{"Hog Cycle": 2}, report.RegionalSpecific["Europe"])

	assert.Equal(t, 200, report.GlobalAverages.Wins)
	assert.Equal(t, 8500, report.GlobalAverages.BestTrophies)

	assert.Len(t, report.Leaderboards.Players, 3)
	assert.JSONEq(t, `{"tag":"#P1","name":"one"}`, string(report.Leaderboards.Players[0]))
	assert.Len(t, report.Leaderboards.Clans, 1)

	assert.Equal(t, 1, up.clanCallCount("#C1"))
}

func TestMetaServiceDegradesWithoutCatalog(t *testing.T) {
	up := ladderUpstream()
	up.clanRankings = nil

	report, err := newMetaService(up, testConfig()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, report.TotalDecks)
	assert.NotEmpty(t, report.TopCards)
	assert.Empty(t, report.Leaderboards.Clans)
}

func TestMetaServicePlayerLimit(t *testing.T) {
	cfg := testConfig()
	cfg.PlayerLimit = 1

	report, err := newMetaService(ladderUpstream(), cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.TotalPlayers)
	assert.Equal(t, 2, report.TotalDecks)
	assert.Equal(t, map[string]int{"Golem": 2}, shareCounts(report.Archetypes))
}

func TestMetaServiceRankingUnavailable(t *testing.T) {
	up := ladderUpstream()
	delete(up.pages, "")

	report, err := newMetaService(up, testConfig()).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.TotalPlayers)
	assert.Zero(t, report.TotalDecks)
	assert.Empty(t, report.TopDecks)
}

func TestMetaServiceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newMetaService(ladderUpstream(), testConfig()).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
