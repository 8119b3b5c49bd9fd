package aggregate

import (
	"math"
	"sort"
)

// SignificanceThreshold is the two-sided 95% critical value.
const SignificanceThreshold = 1.96

type MatchupRow struct {
	Archetype   string  `json:"archetype"`
	Opponent    string  `json:"opponent"`
	WinRate     float64 `json:"win_rate"`
	Wins        int     `json:"wins"`
	Total       int     `json:"total"`
	ZScore      float64 `json:"z_score"`
	Significant bool    `json:"significant"`
}

// ZScore tests an observed win ratio against a 50% null hypothesis.
func ZScore(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	p := float64(wins) / float64(total)
	return (p - 0.5) / math.Sqrt(0.25/float64(total))
}

// EstimateSignificance returns one row per cell with at least minSample games,
// ordered by archetype then opponent.
func EstimateSignificance(table MatchupTable, minSample int) []MatchupRow {
	rows := make([]MatchupRow, 0, len(table))
	for k, cell := range table {
		if cell.Total == 0 || cell.Total < minSample {
			continue
		}
		z := ZScore(cell.Wins, cell.Total)
		rows = append(rows, MatchupRow{
			Archetype:   k.Archetype,
			Opponent:    k.Opponent,
			WinRate:     Round(cell.Rate()*100, 1),
			Wins:        cell.Wins,
			Total:       cell.Total,
			ZScore:      Round(z, 2),
			Significant: math.Abs(z) > SignificanceThreshold,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Archetype != rows[j].Archetype {
			return rows[i].Archetype < rows[j].Archetype
		}
		return rows[i].Opponent < rows[j].Opponent
	})
	return rows
}

// Round rounds half away from zero to the given number of decimals.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
