// Package snapshot turns aggregation tables into the dashboard report.
package snapshot

import (
	"encoding/json"

	"github.com/jayclim/CR-Data/internal/aggregate"
	"github.com/jayclim/CR-Data/internal/domain"
)

// TimestampLayout is the report's local timestamp format.
const TimestampLayout = "2006-01-02 15:04:05"

type CardEntry struct {
	domain.Card
	Count     int     `json:"count"`
	UsageRate float64 `json:"usage_rate"`
	WinRate   float64 `json:"win_rate"`
}

type DeckCardEntry struct {
	domain.Card
	IsEvo  bool `json:"is_evo,omitempty"`
	IsHero bool `json:"is_hero,omitempty"`
}

type DeckEntry struct {
	Cards     []DeckCardEntry `json:"cards"`
	AvgElixir float64         `json:"avg_elixir"`
	Count     int             `json:"count"`
	UsageRate float64         `json:"usage_rate"`
	WinRate   float64         `json:"win_rate"`
	Archetype string          `json:"archetype"`
	Family    string          `json:"family"`
}

type SynergyEntry struct {
	Cards       [2]domain.Card `json:"cards"`
	Count       int            `json:"count"`
	SynergyRate float64        `json:"synergy_rate"`
}

type ArchetypeShare struct {
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Share float64 `json:"share"`
}

type LocationEntry struct {
	ID    string `json:"id"`
	Value int    `json:"value"`
}

type HeatmapCell struct {
	Type   domain.CardType `json:"type"`
	Elixir int             `json:"elixir"`
	// Value is the usage-weighted win rate of the cell's cards.
	Value float64  `json:"value"`
	Cards []string `json:"cards"`
}

type ElixirBucket struct {
	Elixir  float64 `json:"elixir"`
	WinRate float64 `json:"win_rate"`
	Count   int     `json:"count"`
}

type ProfileStats struct {
	Wins              int `json:"wins"`
	ThreeCrownWins    int `json:"threeCrownWins"`
	BestTrophies      int `json:"bestTrophies"`
	WarDayWins        int `json:"warDayWins"`
	ChallengeCardsWon int `json:"challengeCardsWon"`
}

type Leaderboards struct {
	Players []json.RawMessage `json:"players"`
	Clans   []json.RawMessage `json:"clans"`
}

type Report struct {
	Timestamp    string `json:"timestamp"`
	RunID        string `json:"run_id"`
	TotalPlayers int    `json:"total_players"`
	TotalDecks   int    `json:"total_decks"`

	TopCards     []CardEntry    `json:"top_cards"`
	TopDecks     []DeckEntry    `json:"top_decks"`
	TopSynergies []SynergyEntry `json:"top_synergies"`

	Archetypes        []ArchetypeShare       `json:"archetypes"`
	ArchetypesGeneric []ArchetypeShare       `json:"archetypes_generic"`
	MatchupsSpecific  []aggregate.MatchupRow `json:"archetype_matchups_specific"`
	MatchupsGeneric   []aggregate.MatchupRow `json:"archetype_matchups_generic"`

	PlayerLocations  []LocationEntry           `json:"player_locations"`
	RegionalSpecific map[string]map[string]int `json:"regional_archetypes_specific"`
	RegionalGeneric  map[string]map[string]int `json:"regional_archetypes_generic"`

	ElixirHeatmap   []HeatmapCell  `json:"elixir_heatmap"`
	DeckElixirStats []ElixirBucket `json:"deck_elixir_stats"`

	GlobalAverages ProfileStats `json:"global_averages"`
	GlobalQ3       ProfileStats `json:"global_q3"`

	Leaderboards Leaderboards `json:"leaderboards"`
}
