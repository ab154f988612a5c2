package simulator

import (
	"fmt"
	"math/rand"

	"github.com/okian/wicket/internal/domain/model"
	"github.com/okian/wicket/internal/domain/scoring"
)

const (
	battingOrder = 11
	bowlers      = 5
	maxWickets   = battingOrder - 1
)

// outcome is one weighted delivery result.
type outcome struct {
	weight int
	runs   int
	extras model.Extra
	wicket string
}

var outcomes = []outcome{
	{weight: 34, runs: 0, extras: model.ExtraNone},
	{weight: 28, runs: 1, extras: model.ExtraNone},
	{weight: 9, runs: 2, extras: model.ExtraNone},
	{weight: 1, runs: 3, extras: model.ExtraNone},
	{weight: 11, runs: 4, extras: model.ExtraNone},
	{weight: 4, runs: 6, extras: model.ExtraNone},
	{weight: 3, runs: 0, extras: model.ExtraWide},
	{weight: 1, runs: 0, extras: model.ExtraNoBall},
	{weight: 2, runs: 1, extras: model.ExtraBye},
	{weight: 2, runs: 1, extras: model.ExtraLegBye},
	{weight: 2, runs: 0, extras: model.ExtraNone, wicket: "bowled"},
	{weight: 2, runs: 0, extras: model.ExtraNone, wicket: "caught"},
	{weight: 1, runs: 0, extras: model.ExtraNone, wicket: "lbw"},
}

var totalWeight = func() int {
	n := 0
	for _, o := range outcomes {
		n += o.weight
	}
	return n
}()

func pick(rng *rand.Rand) outcome {
	n := rng.Intn(totalWeight)
	for _, o := range outcomes {
		if n < o.weight {
			return o
		}
		n -= o.weight
	}
	return outcomes[0]
}

// Generate returns a plausible delivery log for key: six legal balls per
// over, wides and no-balls re-bowled under the same ball number, the strike
// rotating on odd runs and at the end of each over, and bowlers changing
// every over. The innings stops after overs or when all out.
func Generate(rng *rand.Rand, key model.InningsKey, overs int) []model.Delivery {
	prefix := fmt.Sprintf("%s-%d", key.MatchID, key.InningsNo)
	batter := func(n int) string { return fmt.Sprintf("%s-bat%d", prefix, n) }
	bowler := func(over int) string { return fmt.Sprintf("%s-bowl%d", prefix, (over-1)%bowlers+1) }

	striker, nonStriker, next := batter(1), batter(2), 3
	wickets := 0
	var out []model.Delivery

	for over := 1; over <= overs && wickets < maxWickets; over++ {
		ball := 1
		for ball <= scoring.BallsPerOver && wickets < maxWickets {
			o := pick(rng)
			d := model.Delivery{
				DeliveryID: fmt.Sprintf("%s-%d", prefix, len(out)+1),
				OverNo:     over,
				BallNo:     ball,
				Striker:    striker,
				NonStriker: nonStriker,
				Bowler:     bowler(over),
				Runs:       o.runs,
				Extras:     o.extras,
				Wicket:     model.WicketNone,
			}
			if o.wicket != "" {
				d.Wicket = o.wicket
				d.Commentary = fmt.Sprintf("%s %s", striker, o.wicket)
			}
			out = append(out, d)

			if d.IsWicket() {
				wickets++
				striker = batter(next)
				next++
			} else if o.runs%2 == 1 {
				striker, nonStriker = nonStriker, striker
			}
			if scoring.IsLegal(o.extras) {
				ball++
			}
		}
		striker, nonStriker = nonStriker, striker
	}
	return out
}

// GenerateAll builds the innings of cfg.Matches matches.
func GenerateAll(rng *rand.Rand, cfg Config) []Innings {
	out := make([]Innings, 0, cfg.Matches*cfg.InningsPerMatch)
	for m := 1; m <= cfg.Matches; m++ {
		for n := 1; n <= cfg.InningsPerMatch; n++ {
			key := model.InningsKey{MatchID: fmt.Sprintf("%s%d", cfg.MatchPrefix, m), InningsNo: n}
			out = append(out, Innings{Key: key, Deliveries: Generate(rng, key, cfg.Overs)})
		}
	}
	return out
}
