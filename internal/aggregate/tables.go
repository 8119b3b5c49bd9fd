// Package aggregate folds classified battle records into usage and win tables.
package aggregate

import (
	"sort"
	"strings"
)

type Counter map[string]int

// Ranked is one entry of a table ordered by count.
type Ranked[K any] struct {
	Key   K
	Count int
}

// MostCommon returns the n highest counts, ties by key ascending. n <= 0 returns all.
func (c Counter) MostCommon(n int) []Ranked[string] {
	return topN(c, n, func(a, b string) bool { return a < b })
}

func (c Counter) Total() int {
	total := 0
	for _, v := range c {
		total += v
	}
	return total
}

func topN[K comparable](m map[K]int, n int, less func(a, b K) bool) []Ranked[K] {
	out := make([]Ranked[K], 0, len(m))
	for k, v := range m {
		out = append(out, Ranked[K]{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return less(out[i].Key, out[j].Key)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

type WinLoss struct {
	Wins  int
	Total int
}

// Rate is wins/total, 0 for an empty cell.
func (w WinLoss) Rate() float64 {
	if w.Total == 0 {
		return 0
	}
	return float64(w.Wins) / float64(w.Total)
}

// Pair is an unordered card pair stored with A < B.
type Pair struct {
	A string
	B string
}

func NewPair(x, y string) Pair {
	if y < x {
		x, y = y, x
	}
	return Pair{A: x, B: y}
}

func (p Pair) String() string { return p.A + " + " + p.B }

// MatchupKey is a directed cell: Archetype played against Opponent.
type MatchupKey struct {
	Archetype string
	Opponent  string
}

type MatchupTable map[MatchupKey]*WinLoss

func (t MatchupTable) add(a, b string, win int) {
	k := MatchupKey{Archetype: a, Opponent: b}
	cell, ok := t[k]
	if !ok {
		cell = &WinLoss{}
		t[k] = cell
	}
	cell.Total++
	cell.Wins += win
}

type Variant struct {
	Evos   []string
	Heroes []string
	Count  int
	Wins   int
}

func variantKey(evos, heroes []string) string {
	return strings.Join(evos, "|") + "#" + strings.Join(heroes, "|")
}

// DeckStats tracks one deck identity (sorted names of an 8-card deck).
type DeckStats struct {
	Cards    []string
	Count    int
	Wins     int
	Variants map[string]*Variant
}

// BestVariant is the variant with the highest count, then wins.
func (d *DeckStats) BestVariant() *Variant {
	keys := make([]string, 0, len(d.Variants))
	for k := range d.Variants {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var best *Variant
	for _, k := range keys {
		v := d.Variants[k]
		if best == nil || v.Count > best.Count || (v.Count == best.Count && v.Wins > best.Wins) {
			best = v
		}
	}
	return best
}

type Tables struct {
	Cards     Counter
	CardWins  Counter
	Synergies map[Pair]int
	Decks     map[string]*DeckStats
	// Elixir buckets are keyed by average deck cost in tenths.
	Elixir map[int]*WinLoss

	Specific Counter
	Generic  Counter

	RegionalSpecific map[string]Counter
	RegionalGeneric  map[string]Counter
	Locations        Counter

	MatchupsSpecific MatchupTable
	MatchupsGeneric  MatchupTable

	TotalDecks int
}

func NewTables() *Tables {
	return &Tables{
		Cards:            Counter{},
		CardWins:         Counter{},
		Synergies:        map[Pair]int{},
		Decks:            map[string]*DeckStats{},
		Elixir:           map[int]*WinLoss{},
		Specific:         Counter{},
		Generic:          Counter{},
		RegionalSpecific: map[string]Counter{},
		RegionalGeneric:  map[string]Counter{},
		Locations:        Counter{},
		MatchupsSpecific: MatchupTable{},
		MatchupsGeneric:  MatchupTable{},
	}
}

func (t *Tables) TopSynergies(n int) []Ranked[Pair] {
	return topN(t.Synergies, n, func(a, b Pair) bool {
		if a.A != b.A {
			return a.A < b.A
		}
		return a.B < b.B
	})
}

// TopDecks orders deck identities by count, ties by identity key.
func (t *Tables) TopDecks(n int) []*DeckStats {
	counts := make(map[string]int, len(t.Decks))
	for k, d := range t.Decks {
		counts[k] = d.Count
	}
	ranked := topN(counts, n, func(a, b string) bool { return a < b })
	out := make([]*DeckStats, len(ranked))
	for i, r := range ranked {
		out[i] = t.Decks[r.Key]
	}
	return out
}
