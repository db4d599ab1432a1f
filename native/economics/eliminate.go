package economics

import "github.com/holiman/uint256"

const (
	// minimumQuorum is the combined vote count that must be strictly
	// exceeded before the elimination test may be evaluated.
	minimumQuorum = 5
)

var (
	// zScore is 1.96 (the 95% confidence z value) at a 10^9 scale.
	zScore = uint256.NewInt(1_960_000_000)

	zScoreScale = uint256.NewInt(1_000_000_000)

	// halfScale is 0.5 at the 10^18 scale, the disapproval share the
	// conservative lower bound must exceed before content is flagged.
	halfScale = uint256.NewInt(500_000_000_000_000_000)
)

// ShouldEliminate evaluates an approximate Wilson lower confidence bound on
// the disapproval share. Content is flagged only when even the statistically
// conservative estimate of the dislike proportion exceeds one half, which
// resists elimination from small samples with a lucky run of dislikes.
func ShouldEliminate(likes, dislikes uint64) (bool, error) {
	total := likes + dislikes
	if total <= minimumQuorum {
		return false, ErrQuorumNotMet
	}
	if dislikes == 0 {
		return false, nil
	}
	totalWord := uint256.NewInt(total)

	// p = dislikes/total at the 10^18 scale.
	p := new(uint256.Int).Mul(uint256.NewInt(dislikes), Scale)
	p.Div(p, totalWord)

	// varTerm = p*(1-p)/total, carried at the 10^36 scale so its square
	// root lands back on the 10^18 scale.
	varTerm := new(uint256.Int).Sub(Scale, p)
	varTerm.Mul(varTerm, p)
	varTerm.Div(varTerm, totalWord)

	margin := new(uint256.Int).Sqrt(varTerm)
	margin.Mul(margin, zScore)
	margin.Div(margin, zScoreScale)

	// The subtraction wraps modulo 2^256. A wrapped result larger than the
	// minuend is conclusive evidence the margin exceeded p, i.e. the true
	// lower bound is at or below zero.
	lower := new(uint256.Int).Sub(p, margin)
	if lower.Gt(p) {
		return false, nil
	}
	return lower.Gt(halfScale), nil
}
