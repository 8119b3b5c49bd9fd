// Package archetype maps an 8-card deck onto a strategic archetype label.
package archetype

import (
	"fmt"
	"sort"

	"github.com/jayclim/CR-Data/internal/domain"
)

// DeckSize is the fixed divisor used for average elixir.
const DeckSize = 8

const (
	FamilyBeatdown   = "Beatdown"
	FamilySiege      = "Siege"
	FamilySpellBait  = "Spell Bait"
	FamilyBridgeSpam = "Bridge Spam"
	FamilyCycle      = "Cycle"
	FamilyControl    = "Control"
)

// Features are the deck measurements the rules read.
type Features struct {
	names      set
	AvgElixir  float64
	CycleScore int
	BaitScore  int
	SpamScore  int

	HasHeavyTank bool
	HasSiege     bool
	HasBuilding  bool

	// PrimaryWinCondition is empty when the deck has none.
	PrimaryWinCondition string
}

func (f *Features) Has(name string) bool { return f.names.has(name) }

func (f *Features) hasAny(names ...string) bool {
	for _, n := range names {
		if f.names.has(n) {
			return true
		}
	}
	return false
}

// Extract computes the feature vector of a deck.
func Extract(deck domain.Deck) Features {
	f := Features{names: make(set, len(deck))}

	total := 0
	for _, c := range deck {
		f.names[c.Name] = struct{}{}
		total += c.Elixir
		if c.Elixir <= 2 {
			f.CycleScore++
		}
	}
	f.AvgElixir = float64(total) / DeckSize

	var winCons []string
	for name := range f.names {
		if baitCards.has(name) {
			f.BaitScore++
		}
		if spamCards.has(name) {
			f.SpamScore++
		}
		if heavyTankSet.has(name) {
			f.HasHeavyTank = true
		}
		if siegeSet.has(name) {
			f.HasSiege = true
		}
		if buildings.has(name) {
			f.HasBuilding = true
		}
		if winConditions.has(name) {
			winCons = append(winCons, name)
		}
	}

	sort.Strings(winCons)
	sort.SliceStable(winCons, func(i, j int) bool {
		return winConditionWeight(winCons[i]) > winConditionWeight(winCons[j])
	})
	if len(winCons) > 0 {
		f.PrimaryWinCondition = winCons[0]
	}

	return f
}

func winConditionWeight(name string) int {
	switch {
	case heavyTankSet.has(name):
		return 10
	case siegeSet.has(name):
		return 5
	default:
		return 1
	}
}

// A rule returns ok=false to hand the deck to the next rule.
type rule func(f *Features) (domain.Archetype, bool)

// Evaluated top to bottom; fallback always matches.
var rules = []rule{
	beatdown,
	siege,
	spellBait,
	bridgeSpam,
	byWinCondition,
	fallback,
}

// Classify returns the archetype of a deck. Every deck gets exactly one label;
// card order does not matter.
func Classify(deck domain.Deck) domain.Archetype {
	f := Extract(deck)
	for _, r := range rules {
		if a, ok := r(&f); ok {
			return a
		}
	}
	return domain.UnknownArchetype
}

func label(specific, family string) (domain.Archetype, bool) {
	return domain.Archetype{Specific: specific, Family: family}, true
}

func beatdown(f *Features) (domain.Archetype, bool) {
	if !f.HasHeavyTank {
		return domain.Archetype{}, false
	}
	for _, tank := range heavyTanks {
		if f.Has(tank) {
			return label(tank, FamilyBeatdown)
		}
	}
	return label(FamilyBeatdown, FamilyBeatdown)
}

func siege(f *Features) (domain.Archetype, bool) {
	if !f.HasSiege {
		return domain.Archetype{}, false
	}
	if f.Has("X-Bow") {
		return label("Siege (X-Bow)", FamilySiege)
	}
	if f.Has("Mortar") {
		if f.hasAny("Hog Rider", "Miner") {
			return label("Siege Hybrid", FamilySiege)
		}
		if f.BaitScore >= 2 {
			return label("Siege Bait", FamilySiege)
		}
		return label("Siege (Mortar)", FamilySiege)
	}
	return domain.Archetype{}, false
}

func spellBait(f *Features) (domain.Archetype, bool) {
	if f.hasAny("Goblin Barrel", "Goblin Drill", "Princess") && f.BaitScore >= 2 {
		return label("Log Bait", FamilySpellBait)
	}
	if f.Has("Three Musketeers") {
		return label("Fireball Bait", FamilySpellBait)
	}
	return domain.Archetype{}, false
}

func bridgeSpam(f *Features) (domain.Archetype, bool) {
	if f.hasAny("Battle Ram", "Ram Rider") {
		switch {
		case f.Has("P.E.K.K.A"):
			return label("Pekka Bridge Spam", FamilyBridgeSpam)
		case f.Has("Mega Knight"):
			return label("MK Bridge Spam", FamilyBridgeSpam)
		case f.SpamScore >= 2:
			return label("Bridge Spam", FamilyBridgeSpam)
		}
	}
	if f.Has("Royal Hogs") {
		if f.Has("Three Musketeers") {
			return label("Fireball Bait", FamilySpellBait)
		}
		return label("Royal Hogs Cycle", FamilyCycle)
	}
	return domain.Archetype{}, false
}

func byWinCondition(f *Features) (domain.Archetype, bool) {
	switch f.PrimaryWinCondition {
	case "Hog Rider":
		if f.AvgElixir <= 3.1 {
			return label("Hog Cycle", FamilyCycle)
		}
		return label("Hog Control", FamilyControl)
	case "Balloon":
		if f.AvgElixir <= 3.0 {
			return label("Balloon Cycle", FamilyCycle)
		}
		return label("Loon Control", FamilyControl)
	case "Miner":
		if f.Has("Wall Breakers") {
			return label("Miner WB", FamilyCycle)
		}
		if f.Has("Poison") && f.HasBuilding {
			return label("Miner Control", FamilyControl)
		}
		return label("Miner Cycle", FamilyCycle)
	case "Graveyard":
		return label("SplashYard", FamilyControl)
	case "Wall Breakers":
		if f.Has("Miner") {
			return label("Miner WB", FamilyCycle)
		}
		if f.Has("Goblin Drill") {
			return label("Drill WB", FamilyCycle)
		}
		return label("Wall Breakers Cycle", FamilyCycle)
	}
	return domain.Archetype{}, false
}

func fallback(f *Features) (domain.Archetype, bool) {
	if f.Has("P.E.K.K.A") {
		return label("Pekka Control", FamilyControl)
	}
	if f.Has("Mega Knight") {
		return label("Mega Knight Control", FamilyControl)
	}
	if f.PrimaryWinCondition != "" {
		return label(fmt.Sprintf("%s (Generic)", f.PrimaryWinCondition), FamilyControl)
	}
	return domain.UnknownArchetype, true
}
