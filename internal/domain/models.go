package domain

import (
	"encoding/json"
	"time"
)

const UnknownRegion = "Unknown"

type CardType string

const (
	CardTypeTroop    CardType = "Troop"
	CardTypeBuilding CardType = "Building"
	CardTypeSpell    CardType = "Spell"
)

type Card struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Elixir   int      `json:"elixir"`
	Type     CardType `json:"type"`
	Rarity   string   `json:"rarity,omitempty"`
	Icon     string   `json:"icon"`
	EvoIcon  string   `json:"evo_icon,omitempty"`
	HeroIcon string   `json:"hero_icon,omitempty"`
}

func (c Card) CanEvolve() bool { return c.EvoIcon != "" }
func (c Card) CanBeHero() bool { return c.HeroIcon != "" }

// Catalog is the read-only card lookup keyed by card name.
type Catalog map[string]Card

func (c Catalog) Lookup(name string) (Card, bool) {
	card, ok := c[name]
	return card, ok
}

// Evolution levels reported per card instance in a battle.
const (
	EvolutionBase = 0
	EvolutionEvo  = 1
	EvolutionHero = 2
)

type DeckCard struct {
	Name           string
	Elixir         int
	EvolutionLevel int
	IconURL        string
}

type Deck []DeckCard

func (d Deck) Names() []string {
	names := make([]string, len(d))
	for i, c := range d {
		names[i] = c.Name
	}
	return names
}

type BattleRecord struct {
	Team           Deck
	Opponent       Deck
	TeamCrowns     int
	OpponentCrowns int
	Win            bool
	Region         string
}

type Archetype struct {
	Specific string
	Family   string
}

var UnknownArchetype = Archetype{Specific: "Unknown", Family: "Unknown"}

func (a Archetype) Known() bool { return a.Specific != UnknownArchetype.Specific }

type RankedPlayer struct {
	Tag     string
	Name    string
	ClanTag string
	// Raw is the upstream entry, kept verbatim for leaderboards.
	Raw json.RawMessage
}

type PlayerProfile struct {
	Tag               string
	Wins              int
	ThreeCrownWins    int
	BestTrophies      int
	WarDayWins        int
	ChallengeCardsWon int
}

type Snapshot struct {
	ID           string
	RunID        string
	CreatedAt    time.Time
	TotalPlayers int
	TotalDecks   int
	Payload      []byte
}

type SnapshotSummary struct {
	ID           string    `json:"id"`
	RunID        string    `json:"run_id"`
	CreatedAt    time.Time `json:"created_at"`
	TotalPlayers int       `json:"total_players"`
	TotalDecks   int       `json:"total_decks"`
}
