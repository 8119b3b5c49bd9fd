package api

import "encoding/json"

type Paging struct {
	Cursors struct {
		After  string `json:"after"`
		Before string `json:"before"`
	} `json:"cursors"`
}

type PlayerClan struct {
	Tag  string `json:"tag"`
	Name string `json:"name"`
}

type RankedPlayer struct {
	Tag      string      `json:"tag"`
	Name     string      `json:"name"`
	EloScore int         `json:"eloRating"`
	Rank     int         `json:"rank"`
	Clan     *PlayerClan `json:"clan,omitempty"`

	// Raw keeps the full upstream entry for leaderboards.
	Raw json.RawMessage `json:"-"`
}

func (p *RankedPlayer) UnmarshalJSON(b []byte) error {
	type plain RankedPlayer
	var v plain
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = RankedPlayer(v)
	p.Raw = append(json.RawMessage(nil), b...)
	return nil
}

type PlayerRankingPage struct {
	Items  []RankedPlayer `json:"items"`
	Paging Paging         `json:"paging"`
}

type IconURLs struct {
	Medium          string `json:"medium"`
	EvolutionMedium string `json:"evolutionMedium,omitempty"`
	HeroMedium      string `json:"heroMedium,omitempty"`
}

type BattleCard struct {
	Name           string   `json:"name"`
	ID             int      `json:"id"`
	Level          int      `json:"level"`
	ElixirCost     int      `json:"elixirCost"`
	EvolutionLevel int      `json:"evolutionLevel"`
	IconURLs       IconURLs `json:"iconUrls"`
}

type Participant struct {
	Tag    string       `json:"tag"`
	Name   string       `json:"name"`
	Crowns int          `json:"crowns"`
	Clan   *PlayerClan  `json:"clan,omitempty"`
	Cards  []BattleCard `json:"cards"`
}

type Battle struct {
	Type       string `json:"type"`
	BattleTime string `json:"battleTime"`
	GameMode   struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"gameMode"`
	Team     []Participant `json:"team"`
	Opponent []Participant `json:"opponent"`
}

type Location struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	IsCountry   bool   `json:"isCountry"`
	CountryCode string `json:"countryCode,omitempty"`
}

type Clan struct {
	Tag      string    `json:"tag"`
	Name     string    `json:"name"`
	Location *Location `json:"location,omitempty"`
}

type PlayerProfile struct {
	Tag               string `json:"tag"`
	Name              string `json:"name"`
	Wins              int    `json:"wins"`
	ThreeCrownWins    int    `json:"threeCrownWins"`
	BestTrophies      int    `json:"bestTrophies"`
	WarDayWins        int    `json:"warDayWins"`
	ChallengeCardsWon int    `json:"challengeCardsWon"`
}

type CatalogCard struct {
	Name       string   `json:"name"`
	ID         int      `json:"id"`
	ElixirCost int      `json:"elixirCost"`
	Rarity     string   `json:"rarity"`
	IconURLs   IconURLs `json:"iconUrls"`
}

type CardsResponse struct {
	Items        []CatalogCard `json:"items"`
	SupportItems []CatalogCard `json:"supportItems,omitempty"`
}

type ClanRankings struct {
	Items  []json.RawMessage `json:"items"`
	Paging Paging            `json:"paging"`
}
