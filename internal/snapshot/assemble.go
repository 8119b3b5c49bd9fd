package snapshot

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/jayclim/CR-Data/internal/aggregate"
	"github.com/jayclim/CR-Data/internal/archetype"
	"github.com/jayclim/CR-Data/internal/config"
	"github.com/jayclim/CR-Data/internal/domain"
)

const heatmapCardsPerCell = 3

type Options struct {
	TopCards         int
	TopDecks         int
	TopSynergies     int
	MinRegionDecks   int
	MinMatchupSample int
	MinElixirSample  int
	LeaderboardSize  int
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		TopCards:         cfg.TopCards,
		TopDecks:         cfg.TopDecks,
		TopSynergies:     cfg.TopSynergies,
		MinRegionDecks:   cfg.MinRegionDecks,
		MinMatchupSample: cfg.MinMatchupSample,
		MinElixirSample:  cfg.MinElixirSample,
		LeaderboardSize:  cfg.LeaderboardSize,
	}
}

type Input struct {
	Tables       *aggregate.Tables
	Catalog      domain.Catalog
	TotalPlayers int
	Profiles     []domain.PlayerProfile
	// TopPlayers are upstream ladder entries in rank order.
	TopPlayers []json.RawMessage
	Clans      []json.RawMessage
	RunID      string
	Now        time.Time
}

// Assemble ranks and truncates the tables into a report. It never fails;
// empty tables give a zero-count report.
func Assemble(in Input, opts Options) *Report {
	t := in.Tables
	if t == nil {
		t = aggregate.NewTables()
	}

	r := &Report{
		Timestamp:    in.Now.Format(TimestampLayout),
		RunID:        in.RunID,
		TotalPlayers: in.TotalPlayers,
		TotalDecks:   t.TotalDecks,
	}

	r.TopCards = topCards(t, in.Catalog, opts.TopCards)
	r.TopDecks = topDecks(t, in.Catalog, opts.TopDecks)
	r.TopSynergies = topSynergies(t, in.Catalog, opts.TopSynergies)

	r.Archetypes = shares(t.Specific, t.TotalDecks)
	r.ArchetypesGeneric = shares(t.Generic, t.TotalDecks)
	r.MatchupsSpecific = aggregate.EstimateSignificance(t.MatchupsSpecific, opts.MinMatchupSample)
	r.MatchupsGeneric = aggregate.EstimateSignificance(t.MatchupsGeneric, opts.MinMatchupSample)

	r.PlayerLocations = make([]LocationEntry, 0, len(t.Locations))
	for _, e := range t.Locations.MostCommon(0) {
		r.PlayerLocations = append(r.PlayerLocations, LocationEntry{ID: e.Key, Value: e.Count})
	}
	r.RegionalSpecific = regions(t.RegionalSpecific, opts.MinRegionDecks)
	r.RegionalGeneric = regions(t.RegionalGeneric, opts.MinRegionDecks)

	r.ElixirHeatmap = heatmap(r.TopCards)
	r.DeckElixirStats = elixirCurve(t.Elixir, opts.MinElixirSample)

	r.GlobalAverages, r.GlobalQ3 = SummarizeProfiles(in.Profiles)

	players := in.TopPlayers
	if len(players) > opts.LeaderboardSize {
		players = players[:opts.LeaderboardSize]
	}
	r.Leaderboards = Leaderboards{
		Players: append([]json.RawMessage{}, players...),
		Clans:   append([]json.RawMessage{}, in.Clans...),
	}

	return r
}

func percent(n, total int, places int) float64 {
	if total == 0 {
		return 0
	}
	return aggregate.Round(float64(n)/float64(total)*100, places)
}

func cardInfo(cat domain.Catalog, name string) domain.Card {
	if c, ok := cat.Lookup(name); ok {
		return c
	}
	return domain.Card{Name: name}
}

func topCards(t *aggregate.Tables, cat domain.Catalog, n int) []CardEntry {
	ranked := t.Cards.MostCommon(n)
	out := make([]CardEntry, 0, len(ranked))
	for _, e := range ranked {
		out = append(out, CardEntry{
			Card:      cardInfo(cat, e.Key),
			Count:     e.Count,
			UsageRate: percent(e.Count, t.TotalDecks, 2),
			WinRate:   percent(t.CardWins[e.Key], e.Count, 2),
		})
	}
	return out
}

func topDecks(t *aggregate.Tables, cat domain.Catalog, n int) []DeckEntry {
	decks := t.TopDecks(n)
	out := make([]DeckEntry, 0, len(decks))
	for _, d := range decks {
		evos := map[string]bool{}
		heroes := map[string]bool{}
		if best := d.BestVariant(); best != nil {
			for _, name := range best.Evos {
				evos[name] = true
			}
			for _, name := range best.Heroes {
				heroes[name] = true
			}
		}

		cards := make([]DeckCardEntry, 0, len(d.Cards))
		deck := make(domain.Deck, 0, len(d.Cards))
		cost := 0
		for _, name := range d.Cards {
			info := cardInfo(cat, name)
			entry := DeckCardEntry{Card: info}
			switch {
			case evos[name]:
				entry.IsEvo = true
				if info.EvoIcon != "" {
					entry.Icon = info.EvoIcon
				}
			case heroes[name]:
				entry.IsHero = true
				if info.HeroIcon != "" {
					entry.Icon = info.HeroIcon
				}
			}
			cards = append(cards, entry)
			deck = append(deck, domain.DeckCard{Name: name, Elixir: info.Elixir})
			cost += info.Elixir
		}

		arch := archetype.Classify(deck)
		out = append(out, DeckEntry{
			Cards:     cards,
			AvgElixir: aggregate.Round(float64(cost)/archetype.DeckSize, 1),
			Count:     d.Count,
			UsageRate: percent(d.Count, t.TotalDecks, 2),
			WinRate:   percent(d.Wins, d.Count, 1),
			Archetype: arch.Specific,
			Family:    arch.Family,
		})
	}
	return out
}

func topSynergies(t *aggregate.Tables, cat domain.Catalog, n int) []SynergyEntry {
	ranked := t.TopSynergies(n)
	out := make([]SynergyEntry, 0, len(ranked))
	for _, e := range ranked {
		out = append(out, SynergyEntry{
			Cards:       [2]domain.Card{cardInfo(cat, e.Key.A), cardInfo(cat, e.Key.B)},
			Count:       e.Count,
			SynergyRate: percent(e.Count, t.TotalDecks, 2),
		})
	}
	return out
}

func shares(c aggregate.Counter, total int) []ArchetypeShare {
	ranked := c.MostCommon(0)
	out := make([]ArchetypeShare, 0, len(ranked))
	for _, e := range ranked {
		out = append(out, ArchetypeShare{Name: e.Key, Count: e.Count, Share: percent(e.Count, total, 2)})
	}
	return out
}

// regions keeps regions with more than minDecks classified decks.
func regions(m map[string]aggregate.Counter, minDecks int) map[string]map[string]int {
	out := make(map[string]map[string]int)
	for region, counts := range m {
		if counts.Total() <= minDecks {
			continue
		}
		out[region] = map[string]int(counts)
	}
	return out
}

type heatKey struct {
	typ    domain.CardType
	elixir int
}

func heatmap(cards []CardEntry) []HeatmapCell {
	type acc struct {
		weighted float64
		count    int
		names    []string
	}
	cells := map[heatKey]*acc{}
	for _, c := range cards {
		if c.Elixir == 0 {
			continue
		}
		typ := c.Type
		if typ == "" {
			typ = domain.CardTypeByName(c.Name)
		}
		k := heatKey{typ: typ, elixir: c.Elixir}
		a, ok := cells[k]
		if !ok {
			a = &acc{}
			cells[k] = a
		}
		a.weighted += c.WinRate * float64(c.Count)
		a.count += c.Count
		a.names = append(a.names, c.Name)
	}

	out := make([]HeatmapCell, 0, len(cells))
	for k, a := range cells {
		if a.count == 0 {
			continue
		}
		names := a.names
		if len(names) > heatmapCardsPerCell {
			names = names[:heatmapCardsPerCell]
		}
		out = append(out, HeatmapCell{
			Type:   k.typ,
			Elixir: k.elixir,
			Value:  aggregate.Round(a.weighted/float64(a.count), 1),
			Cards:  names,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Elixir < out[j].Elixir
	})
	return out
}

func elixirCurve(buckets map[int]*aggregate.WinLoss, minSample int) []ElixirBucket {
	keys := make([]int, 0, len(buckets))
	for k, b := range buckets {
		if b.Total > minSample {
			keys = append(keys, k)
		}
	}
	sort.Ints(keys)

	out := make([]ElixirBucket, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		out = append(out, ElixirBucket{
			Elixir:  float64(k) / 10,
			WinRate: percent(b.Wins, b.Total, 1),
			Count:   b.Total,
		})
	}
	return out
}

// SummarizeProfiles returns the truncated mean and the upper quartile
// (sorted[int(n*0.75)]) of each profile statistic.
func SummarizeProfiles(profiles []domain.PlayerProfile) (avg, q3 ProfileStats) {
	if len(profiles) == 0 {
		return ProfileStats{}, ProfileStats{}
	}
	field := func(get func(domain.PlayerProfile) int) (int, int) {
		vals := make([]int, len(profiles))
		sum := 0
		for i, p := range profiles {
			vals[i] = get(p)
			sum += vals[i]
		}
		sort.Ints(vals)
		return sum / len(vals), vals[len(vals)*3/4]
	}

	avg.Wins, q3.Wins = field(func(p domain.PlayerProfile) int { return p.Wins })
	avg.ThreeCrownWins, q3.ThreeCrownWins = field(func(p domain.PlayerProfile) int { return p.ThreeCrownWins })
	avg.BestTrophies, q3.BestTrophies = field(func(p domain.PlayerProfile) int { return p.BestTrophies })
	avg.WarDayWins, q3.WarDayWins = field(func(p domain.PlayerProfile) int { return p.WarDayWins })
	avg.ChallengeCardsWon, q3.ChallengeCardsWon = field(func(p domain.PlayerProfile) int { return p.ChallengeCardsWon })
	return avg, q3
}
