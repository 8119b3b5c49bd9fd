package aggregate

import (
	"math"
	"sort"
	"strings"

	"github.com/jayclim/CR-Data/internal/archetype"
	"github.com/jayclim/CR-Data/internal/domain"
)

// Engine owns the tables of one run. It is not safe for concurrent use;
// callers fold from a single goroutine.
type Engine struct {
	catalog domain.Catalog
	tables  *Tables
}

func NewEngine(catalog domain.Catalog) *Engine {
	return &Engine{catalog: catalog, tables: NewTables()}
}

func (e *Engine) Tables() *Tables { return e.tables }

// ObservePlayer counts one processed player in its region.
func (e *Engine) ObservePlayer(region string) {
	if region == "" || region == domain.UnknownRegion {
		return
	}
	e.tables.Locations[region]++
}

// Fold applies every table update for one battle.
func (e *Engine) Fold(rec domain.BattleRecord) {
	t := e.tables
	team := e.withCosts(rec.Team)
	opponent := e.withCosts(rec.Opponent)

	win := 0
	if rec.Win {
		win = 1
	}

	names := team.Names()
	for _, n := range names {
		t.Cards[n]++
		t.CardWins[n] += win
	}

	cost := 0
	for _, c := range team {
		cost += c.Elixir
	}
	bucket := int(math.RoundToEven(float64(cost) * 10 / archetype.DeckSize))
	cell, ok := t.Elixir[bucket]
	if !ok {
		cell = &WinLoss{}
		t.Elixir[bucket] = cell
	}
	cell.Total++
	cell.Wins += win

	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	if len(team) == archetype.DeckSize {
		e.foldDeck(team, sorted, win)
	}

	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[i] == sorted[j] {
				continue
			}
			t.Synergies[NewPair(sorted[i], sorted[j])]++
		}
	}

	arch := archetype.Classify(team)
	t.Specific[arch.Specific]++
	t.Generic[arch.Family]++
	t.TotalDecks++

	if arch.Known() && len(opponent) > 0 {
		opp := archetype.Classify(opponent)
		if opp.Known() {
			t.MatchupsSpecific.add(arch.Specific, opp.Specific, win)
			t.MatchupsSpecific.add(opp.Specific, arch.Specific, 1-win)
			t.MatchupsGeneric.add(arch.Family, opp.Family, win)
			t.MatchupsGeneric.add(opp.Family, arch.Family, 1-win)
		}
	}

	if rec.Region != "" && rec.Region != domain.UnknownRegion && arch.Known() {
		counterFor(t.RegionalSpecific, rec.Region)[arch.Specific]++
		counterFor(t.RegionalGeneric, rec.Region)[arch.Family]++
	}
}

func (e *Engine) foldDeck(team domain.Deck, sorted []string, win int) {
	key := strings.Join(sorted, "|")
	stats, ok := e.tables.Decks[key]
	if !ok {
		stats = &DeckStats{Cards: sorted, Variants: map[string]*Variant{}}
		e.tables.Decks[key] = stats
	}
	stats.Count++
	stats.Wins += win

	var evos, heroes []string
	for _, c := range team {
		evo, hero := e.variantOf(c)
		switch {
		case evo:
			evos = append(evos, c.Name)
		case hero:
			heroes = append(heroes, c.Name)
		}
	}
	sort.Strings(evos)
	sort.Strings(heroes)

	vk := variantKey(evos, heroes)
	v, ok := stats.Variants[vk]
	if !ok {
		v = &Variant{Evos: evos, Heroes: heroes}
		stats.Variants[vk] = v
	}
	v.Count++
	v.Wins += win
}

// variantOf reads the per-battle evolution level, falling back to the icon
// URL for level 0. A card that can only be a hero is never reported as evo.
func (e *Engine) variantOf(c domain.DeckCard) (evo, hero bool) {
	switch c.EvolutionLevel {
	case domain.EvolutionEvo:
		evo = true
	case domain.EvolutionHero:
		hero = true
	case domain.EvolutionBase:
		if strings.Contains(c.IconURL, "evo") {
			evo = true
		} else if strings.Contains(c.IconURL, "hero") {
			hero = true
		}
	}

	if card, ok := e.catalog.Lookup(c.Name); ok && evo && card.CanBeHero() && !card.CanEvolve() {
		return false, true
	}
	return evo, hero
}

// withCosts fills cards the battle reported without a cost from the catalog.
func (e *Engine) withCosts(deck domain.Deck) domain.Deck {
	var out domain.Deck
	for i, c := range deck {
		if c.Elixir > 0 {
			continue
		}
		card, ok := e.catalog.Lookup(c.Name)
		if !ok || card.Elixir == 0 {
			continue
		}
		if out == nil {
			out = append(domain.Deck(nil), deck...)
		}
		out[i].Elixir = card.Elixir
	}
	if out == nil {
		return deck
	}
	return out
}

func counterFor(m map[string]Counter, key string) Counter {
	c, ok := m[key]
	if !ok {
		c = Counter{}
		m[key] = c
	}
	return c
}
