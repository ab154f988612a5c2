package simulator

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/okian/wicket/internal/domain/model"
	"github.com/okian/wicket/internal/domain/scoring"
)

// InningsTitle renders a key as "m1, 2nd innings".
func InningsTitle(key model.InningsKey) string {
	return fmt.Sprintf("%s, %s innings", key.MatchID, humanize.Ordinal(key.InningsNo))
}

// WriteScorecard prints the score line followed by batting and bowling tables.
func WriteScorecard(w io.Writer, title string, snap scoring.Snapshot) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d/%d (%s overs)\n", title, snap.TotalRuns, snap.TotalWickets, snap.Overs)
	fmt.Fprintf(&b, "Extras: %d wides, %d no-balls, %d byes, %d leg-byes\n\n",
		snap.Extras.Wides, snap.Extras.NoBalls, snap.Extras.Byes, snap.Extras.LegByes)

	bat := newTable()
	bat.AppendHeader(table.Row{"Batter", "R", "B", "4s", "6s", "SR", ""})
	for _, name := range sortedKeys(snap.Batting) {
		f := snap.Batting[name]
		status := "not out"
		if f.Dismissed {
			status = "out"
		}
		bat.AppendRow(table.Row{name, f.Runs, f.BallsFaced, f.Fours, f.Sixes, fmt.Sprintf("%.2f", f.StrikeRate()), status})
	}
	b.WriteString(bat.Render())
	b.WriteString("\n\n")

	bowl := newTable()
	bowl.AppendHeader(table.Row{"Bowler", "O", "R", "W", "Econ"})
	for _, name := range sortedKeys(snap.Bowling) {
		f := snap.Bowling[name]
		bowl.AppendRow(table.Row{name, f.Overs(), f.RunsConceded, f.Wickets, fmt.Sprintf("%.2f", f.Economy())})
	}
	b.WriteString(bowl.Render())
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteReport prints the run statistics and any problems found.
func WriteReport(w io.Writer, r *Report) error {
	s := r.Stats
	t := newTable()
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Innings", humanize.Comma(int64(s.Innings))},
		{"Deliveries sent", humanize.Comma(int64(s.DeliveriesSent))},
		{"Accepted", humanize.Comma(int64(s.DeliveriesAccepted))},
		{"Duplicates", humanize.Comma(int64(s.Duplicates))},
		{"Rejected", humanize.Comma(int64(s.Rejected))},
		{"Scoreboard mismatches", humanize.Comma(int64(s.Mismatches))},
		{"Duration", s.Duration.Round(time.Millisecond).String()},
		{"Deliveries/sec", humanize.CommafWithDigits(rate(s.DeliveriesSent, s.Duration.Seconds()), 1)},
	})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})

	var b strings.Builder
	b.WriteString(t.Render())
	b.WriteString("\n")
	if r.OK() {
		b.WriteString("All scoreboards match the local aggregation.\n")
	} else {
		fmt.Fprintf(&b, "%s problems:\n", humanize.Comma(int64(len(r.Problems))))
		for _, p := range r.Problems {
			fmt.Fprintf(&b, "  - %s\n", p)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func rate(n int, seconds float64) float64 {
	if seconds <= 0 {
		return 0
	}
	return float64(n) / seconds
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	return t
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
