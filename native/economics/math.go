// Package economics holds the platform's pure pricing and moderation math.
// Everything here is deterministic, stateless, and computed in fixed-point
// integer arithmetic with an implicit 10^18 scale.
package economics

import "github.com/holiman/uint256"

var (
	// Scale is the fixed-point unit: one whole token in base units.
	Scale = uint256.NewInt(1_000_000_000_000_000_000)

	// baseReward is the whole-token payout per harvested like at MAU == 1.
	baseReward = uint256.NewInt(1_000)

	// commissionConstant is the precomputed product of the 1% commission
	// rate and the base reward, already at the 10^18 scale. Keeping it as a
	// constant avoids a multiply on every fee quote.
	commissionConstant = new(uint256.Int).Mul(uint256.NewInt(10), Scale)

	// strikeSurcharge is the flat multiplier applied on top of the normal
	// per-action fee for every strike a repeat offender carries.
	strikeSurcharge = uint256.NewInt(3)
)

func mauSquared(mau uint64) *uint256.Int {
	m := uint256.NewInt(mau)
	return new(uint256.Int).Mul(m, m)
}

// Reward quotes the payout per harvested net like. The payout shrinks
// quadratically with the active user base, which bounds long-run issuance
// while paying early adopters disproportionately more.
func Reward(mau uint64) (*uint256.Int, error) {
	if mau == 0 {
		return nil, ErrDivisionByZero
	}
	amount := new(uint256.Int).Mul(Scale, baseReward)
	return amount.Div(amount, mauSquared(mau)), nil
}

// Fee quotes the per-action platform fee at the given MAU.
func Fee(mau uint64) (*uint256.Int, error) {
	if mau == 0 {
		return nil, ErrDivisionByZero
	}
	return new(uint256.Int).Div(commissionConstant, mauSquared(mau)), nil
}

// FeeForStrikes quotes the escalated publishing fee for an account carrying
// strikes: linear in the strike count with a flat 3x surcharge over Fee.
func FeeForStrikes(strikes uint64, mau uint64) (*uint256.Int, error) {
	if strikes == 0 {
		return nil, ErrNoStrikes
	}
	fee, err := Fee(mau)
	if err != nil {
		return nil, err
	}
	fee.Mul(fee, strikeSurcharge)
	return fee.Mul(fee, uint256.NewInt(strikes)), nil
}
