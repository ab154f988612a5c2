// Package scoring derives scoreboard state from an ordered delivery log.
//
// Everything here is a pure function of its input: the same delivery slice
// always folds into the same Snapshot.
package scoring

import "github.com/okian/wicket/internal/domain/model"

// IsLegal reports whether a delivery with the given extras counts toward the
// six-ball over. Wides and no-balls do not; byes and leg-byes do.
//
// Balls faced, balls bowled and team overs are all derived from this one
// decision.
func IsLegal(extra model.Extra) bool {
	return extra != model.ExtraWide && extra != model.ExtraNoBall
}

// Penalty returns the runs a delivery adds on top of its recorded runs. A
// wide or no-ball concedes one run to the team and the bowler, never to the
// striker.
func Penalty(extra model.Extra) int {
	if IsLegal(extra) {
		return 0
	}
	return 1
}
