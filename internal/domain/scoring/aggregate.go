package scoring

import "github.com/okian/wicket/internal/domain/model"

// BattingFigures are one batsman's accumulated numbers.
type BattingFigures struct {
	Runs       int  `json:"runs" msgpack:"runs"`
	BallsFaced int  `json:"balls_faced" msgpack:"balls_faced"`
	Fours      int  `json:"fours" msgpack:"fours"`
	Sixes      int  `json:"sixes" msgpack:"sixes"`
	Dismissed  bool `json:"dismissed" msgpack:"dismissed"`
}

// StrikeRate is runs per hundred balls faced, 0 before the first legal ball.
func (b BattingFigures) StrikeRate() float64 {
	if b.BallsFaced == 0 {
		return 0
	}
	return float64(b.Runs) * 100 / float64(b.BallsFaced)
}

// BowlingFigures are one bowler's accumulated numbers.
type BowlingFigures struct {
	RunsConceded int `json:"runs_conceded" msgpack:"runs_conceded"`
	BallsBowled  int `json:"balls_bowled" msgpack:"balls_bowled"`
	Wickets      int `json:"wickets" msgpack:"wickets"`
}

// Overs renders the bowler's legal balls in over notation.
func (b BowlingFigures) Overs() string {
	return FormatOvers(b.BallsBowled)
}

// Economy is runs conceded per six legal balls, 0 before the first legal ball.
func (b BowlingFigures) Economy() float64 {
	if b.BallsBowled == 0 {
		return 0
	}
	return float64(b.RunsConceded) * BallsPerOver / float64(b.BallsBowled)
}

// ExtrasBreakdown counts deliveries flagged with each extras kind.
type ExtrasBreakdown struct {
	Wides   int `json:"wides" msgpack:"wides"`
	NoBalls int `json:"no_balls" msgpack:"no_balls"`
	Byes    int `json:"byes" msgpack:"byes"`
	LegByes int `json:"leg_byes" msgpack:"leg_byes"`
}

// Snapshot is the scoreboard projected from a delivery log. It is never
// stored as a source of truth.
type Snapshot struct {
	TotalRuns    int                       `json:"total_runs" msgpack:"total_runs"`
	TotalWickets int                       `json:"total_wickets" msgpack:"total_wickets"`
	LegalBalls   int                       `json:"legal_balls" msgpack:"legal_balls"`
	Overs        string                    `json:"overs" msgpack:"overs"`
	OverComplete bool                      `json:"over_complete" msgpack:"over_complete"`
	CurrentOver  int                       `json:"current_over_balls" msgpack:"current_over_balls"`
	Deliveries   int                       `json:"deliveries" msgpack:"deliveries"`
	Extras       ExtrasBreakdown           `json:"extras" msgpack:"extras"`
	Batting      map[string]BattingFigures `json:"batting" msgpack:"batting"`
	Bowling      map[string]BowlingFigures `json:"bowling" msgpack:"bowling"`
}

// Aggregate folds deliveries, in the order given, into a Snapshot.
//
// It never fails: a delivery without a striker or bowler simply leaves that
// side's figures untouched. Runs with four or six are counted as boundaries
// regardless of extras; callers must not record boundary byes as runs of 4.
func Aggregate(deliveries []model.Delivery) Snapshot {
	s := Snapshot{
		Batting: make(map[string]BattingFigures),
		Bowling: make(map[string]BowlingFigures),
	}

	for _, d := range deliveries {
		legal := IsLegal(d.Extras)
		out := d.IsWicket()
		conceded := d.Runs + Penalty(d.Extras)

		s.Deliveries++
		s.TotalRuns += conceded
		if out {
			s.TotalWickets++
		}
		if legal {
			s.LegalBalls++
		}
		countExtra(&s.Extras, d.Extras)

		if d.Striker != "" {
			b := s.Batting[d.Striker]
			b.Runs += d.Runs
			if legal {
				b.BallsFaced++
			}
			switch d.Runs {
			case 4:
				b.Fours++
			case 6:
				b.Sixes++
			}
			if out {
				b.Dismissed = true
			}
			s.Batting[d.Striker] = b
		}

		if d.Bowler != "" {
			w := s.Bowling[d.Bowler]
			w.RunsConceded += conceded
			if legal {
				w.BallsBowled++
			}
			if out {
				w.Wickets++
			}
			s.Bowling[d.Bowler] = w
		}
	}

	s.Overs = FormatOvers(s.LegalBalls)
	s.OverComplete = OverComplete(s.LegalBalls)
	s.CurrentOver = s.LegalBalls % BallsPerOver
	return s
}

func countExtra(e *ExtrasBreakdown, extra model.Extra) {
	switch extra {
	case model.ExtraWide:
		e.Wides++
	case model.ExtraNoBall:
		e.NoBalls++
	case model.ExtraBye:
		e.Byes++
	case model.ExtraLegBye:
		e.LegByes++
	}
}
