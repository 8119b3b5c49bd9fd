package snapshot

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// PrintSummary writes archetype shares, significant matchups and top decks.
// limit caps the rows of each table; 0 prints everything.
func PrintSummary(w io.Writer, r *Report, limit int) {
	fmt.Fprintf(w, "\nSnapshot: %s  |  Run: %s  |  Players: %d  |  Decks: %d\n\n",
		r.Timestamp, r.RunID, r.TotalPlayers, r.TotalDecks)

	PrintArchetypes(w, r.Archetypes, limit)
	fmt.Fprintln(w)
	PrintMatchups(w, r, limit)
	fmt.Fprintln(w)
	PrintDecks(w, r.TopDecks, limit)
}

func PrintArchetypes(w io.Writer, shares []ArchetypeShare, limit int) {
	table := newTable(w)
	table.Header("#", "ARCHETYPE", "DECKS", "SHARE%")
	for i, s := range capRows(shares, limit) {
		table.Append(
			strconv.Itoa(i+1),
			s.Name,
			strconv.Itoa(s.Count),
			fmt.Sprintf("%.2f", s.Share),
		)
	}
	table.Render()
}

// PrintMatchups lists only matchups whose z-score is significant.
func PrintMatchups(w io.Writer, r *Report, limit int) {
	table := newTable(w)
	table.Header("ARCHETYPE", "VS", "WIN%", "GAMES", "Z")
	rows := 0
	for _, m := range r.MatchupsSpecific {
		if !m.Significant {
			continue
		}
		if limit > 0 && rows >= limit {
			break
		}
		table.Append(
			m.Archetype,
			m.Opponent,
			fmt.Sprintf("%.1f", m.WinRate),
			strconv.Itoa(m.Total),
			fmt.Sprintf("%+.2f", m.ZScore),
		)
		rows++
	}
	table.Render()
}

func PrintDecks(w io.Writer, decks []DeckEntry, limit int) {
	table := newTable(w)
	table.Header("#", "ARCHETYPE", "CARDS", "AVG", "USE%", "WIN%")
	for i, d := range capRows(decks, limit) {
		names := make([]string, len(d.Cards))
		for j, c := range d.Cards {
			switch {
			case c.IsEvo:
				names[j] = c.Name + "*"
			case c.IsHero:
				names[j] = c.Name + "^"
			default:
				names[j] = c.Name
			}
		}
		table.Append(
			strconv.Itoa(i+1),
			d.Archetype,
			strings.Join(names, ", "),
			fmt.Sprintf("%.1f", d.AvgElixir),
			fmt.Sprintf("%.2f", d.UsageRate),
			fmt.Sprintf("%.1f", d.WinRate),
		)
	}
	table.Render()
}

func capRows[T any](rows []T, limit int) []T {
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}
