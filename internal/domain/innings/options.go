package innings

import "time"

// Option applies a configuration option to an Innings.
type Option func(*Innings)

// WithStrictBallOrder rejects deliveries whose over/ball position is earlier
// than the last recorded one. Equal positions are allowed so that wides and
// no-balls can be re-bowled under the same number.
func WithStrictBallOrder(strict bool) Option {
	return func(i *Innings) {
		i.strictOrder = strict
	}
}

// WithClock overrides the time source used to stamp transitions and deliveries.
func WithClock(now func() time.Time) Option {
	return func(i *Innings) {
		if now != nil {
			i.now = now
		}
	}
}
