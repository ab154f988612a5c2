package scoring

import "strconv"

// BallsPerOver is the number of legal deliveries in an over.
const BallsPerOver = 6

// FormatOvers renders a legal-ball count as "<completed overs>.<balls into over>".
func FormatOvers(legalBalls int) string {
	if legalBalls < 0 {
		legalBalls = 0
	}
	return strconv.Itoa(legalBalls/BallsPerOver) + "." + strconv.Itoa(legalBalls%BallsPerOver)
}

// OverComplete reports whether the legal ball count sits exactly on an over
// boundary, i.e. the last legal delivery finished an over.
func OverComplete(legalBalls int) bool {
	return legalBalls > 0 && legalBalls%BallsPerOver == 0
}

// NextBall suggests the caller-facing over/ball position following the last
// recorded one. With nothing recorded yet it returns 1.1.
func NextBall(lastOver, lastBall int) (int, int) {
	switch {
	case lastOver < 1:
		return 1, 1
	case lastBall >= BallsPerOver:
		return lastOver + 1, 1
	default:
		return lastOver, lastBall + 1
	}
}
