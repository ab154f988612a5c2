package simulator

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/okian/wicket/internal/domain/scoring"
)

// Compare lists every difference between the locally aggregated snapshot and
// the one served. An empty result means they agree.
func Compare(want, got scoring.Snapshot) []string {
	var diffs []string
	check := func(field string, w, g any) {
		if !reflect.DeepEqual(w, g) {
			diffs = append(diffs, fmt.Sprintf("%s: want %v, got %v", field, w, g))
		}
	}

	check("total_runs", want.TotalRuns, got.TotalRuns)
	check("total_wickets", want.TotalWickets, got.TotalWickets)
	check("legal_balls", want.LegalBalls, got.LegalBalls)
	check("overs", want.Overs, got.Overs)
	check("deliveries", want.Deliveries, got.Deliveries)
	check("extras", want.Extras, got.Extras)

	for _, name := range unionKeys(want.Batting, got.Batting) {
		check("batting["+name+"]", want.Batting[name], got.Batting[name])
	}
	for _, name := range unionKeys(want.Bowling, got.Bowling) {
		check("bowling["+name+"]", want.Bowling[name], got.Bowling[name])
	}
	return diffs
}

func unionKeys[V any](a, b map[string]V) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		seen[k] = struct{}{}
	}
	for k := range b {
		seen[k] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
