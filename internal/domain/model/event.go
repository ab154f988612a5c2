// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Extra is the extras category of a delivery.
type Extra string

// Known extras. ExtraNone is the default for an omitted field.
const (
	ExtraNone   Extra = "none"
	ExtraWide   Extra = "wide"
	ExtraNoBall Extra = "no_ball"
	ExtraBye    Extra = "bye"
	ExtraLegBye Extra = "leg_bye"
)

// Extras lists every accepted extras value.
var Extras = []Extra{ExtraNone, ExtraWide, ExtraNoBall, ExtraBye, ExtraLegBye}

// Valid reports whether e is one of the known extras.
func (e Extra) Valid() bool {
	for _, k := range Extras {
		if e == k {
			return true
		}
	}
	return false
}

// WicketNone marks a delivery without a dismissal. Any other value names the
// dismissal kind (bowled, caught, lbw, run_out, ...).
const WicketNone = "none"

// Delivery is one ball bowled. It is immutable once appended to an innings.
type Delivery struct {
	DeliveryID string    `json:"delivery_id" msgpack:"delivery_id"`
	OverNo     int       `json:"over_no" msgpack:"over_no"`
	BallNo     int       `json:"ball_no" msgpack:"ball_no"`
	Striker    string    `json:"striker,omitempty" msgpack:"striker,omitempty"`
	NonStriker string    `json:"non_striker,omitempty" msgpack:"non_striker,omitempty"`
	Bowler     string    `json:"bowler" msgpack:"bowler"`
	Runs       int       `json:"runs" msgpack:"runs"`
	Extras     Extra     `json:"extras" msgpack:"extras"`
	Wicket     string    `json:"wicket" msgpack:"wicket"`
	Commentary string    `json:"commentary,omitempty" msgpack:"commentary,omitempty"`
	RecordedAt time.Time `json:"recorded_at" msgpack:"recorded_at"`
}

// Normalize fills omitted sentinels and trims identifiers.
func (d Delivery) Normalize() Delivery {
	d.Striker = strings.TrimSpace(d.Striker)
	d.NonStriker = strings.TrimSpace(d.NonStriker)
	d.Bowler = strings.TrimSpace(d.Bowler)
	d.Extras = Extra(strings.ToLower(strings.TrimSpace(string(d.Extras))))
	if d.Extras == "" {
		d.Extras = ExtraNone
	}
	d.Wicket = strings.ToLower(strings.TrimSpace(d.Wicket))
	if d.Wicket == "" {
		d.Wicket = WicketNone
	}
	return d
}

// IsWicket reports whether the delivery records a dismissal.
func (d Delivery) IsWicket() bool {
	return d.Wicket != "" && d.Wicket != WicketNone
}

// Validate checks the boundary contract. The aggregator itself never rejects.
func (d Delivery) Validate() error {
	switch {
	case d.Bowler == "":
		return fmt.Errorf("%w: missing bowler", ErrValidation)
	case d.OverNo < 1:
		return fmt.Errorf("%w: over_no must be positive", ErrValidation)
	case d.BallNo < 1:
		return fmt.Errorf("%w: ball_no must be positive", ErrValidation)
	case d.Runs < 0:
		return fmt.Errorf("%w: runs must not be negative", ErrValidation)
	case !d.Extras.Valid():
		return fmt.Errorf("%w: unknown extras %q", ErrValidation, d.Extras)
	}
	return nil
}

// Position renders the caller-supplied over.ball label.
func (d Delivery) Position() string {
	return strconv.Itoa(d.OverNo) + "." + strconv.Itoa(d.BallNo)
}

// Before reports whether d sits strictly earlier than o in over/ball order.
func (d Delivery) Before(o Delivery) bool {
	if d.OverNo != o.OverNo {
		return d.OverNo < o.OverNo
	}
	return d.BallNo < o.BallNo
}
