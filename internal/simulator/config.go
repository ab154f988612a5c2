// Package simulator drives a running scoring server with synthetic innings
// and checks the served scoreboards against a local aggregation.
package simulator

import (
	"time"

	"github.com/okian/wicket/internal/domain/model"
	"github.com/okian/wicket/internal/domain/scoring"
)

// Config holds the settings of one simulation run.
type Config struct {
	BaseURL         string        // Base URL of the service
	Matches         int           // Number of matches to simulate
	InningsPerMatch int           // Innings per match, 1 or 2
	Overs           int           // Overs per innings
	Workers         int           // Innings posted concurrently
	Timeout         time.Duration // HTTP request timeout
	Seed            int64         // Generator seed; 0 picks one from the clock
	OutputFile      string        // Where generated deliveries are saved; empty skips saving
	MatchPrefix     string        // Prefix of generated match IDs
}

// Innings is one generated innings and the deliveries sent for it.
type Innings struct {
	Key        model.InningsKey `json:"key"`
	Deliveries []model.Delivery `json:"deliveries"`
}

// Expected aggregates the deliveries locally.
func (i Innings) Expected() scoring.Snapshot {
	return scoring.Aggregate(i.Deliveries)
}

// Stats holds run statistics.
type Stats struct {
	Innings            int
	DeliveriesSent     int
	DeliveriesAccepted int
	Duplicates         int
	Rejected           int
	Mismatches         int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}

// Report is the outcome of Run.
type Report struct {
	Stats    Stats
	Innings  []Innings
	Problems []string
}

// OK reports whether every scoreboard matched and nothing was rejected.
func (r *Report) OK() bool {
	return len(r.Problems) == 0
}
