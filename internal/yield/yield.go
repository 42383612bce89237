package yield

import (
	"math"
	"math/big"

	"stakewatch/internal/model"
)

const secondsPerYear = 86400 * 365

// ComputeAPR returns the annualized percentage yield implied by a
// pool's emission rate and TVL. Zero stake, a zero stake price, or a
// degenerate division all yield exactly 0 rather than an error: they
// mean "no meaningful yield", not a failure.
func ComputeAPR(econ model.PoolEconomics) float64 {
	if econ.TotalStaked == nil || econ.TotalStaked.Sign() == 0 {
		return 0
	}
	if econ.StakeTokenPriceUSD <= 0 {
		return 0
	}

	stakePrice, ok := ratFromFloat(econ.StakeTokenPriceUSD)
	if !ok {
		return 0
	}
	rewardPrice, ok := ratFromFloat(econ.RewardTokenPriceUSD)
	if !ok {
		return 0
	}

	staked := humanRat(econ.TotalStaked, econ.StakeDecimals)
	tvl := new(big.Rat).Mul(staked, stakePrice)
	if tvl.Sign() == 0 {
		return 0
	}

	rps := humanRat(econ.RewardPerSecond, econ.RewardDecimals)
	yearly := new(big.Rat).Mul(rps, big.NewRat(secondsPerYear, 1))
	yearly.Mul(yearly, rewardPrice)

	apr := new(big.Rat).Quo(yearly, tvl)
	apr.Mul(apr, big.NewRat(100, 1))

	return finiteFloat(apr)
}

// ComputeTVL returns the USD value of a raw staked amount.
func ComputeTVL(totalStaked *big.Int, priceUSD float64, decimals uint8) float64 {
	if totalStaked == nil || totalStaked.Sign() == 0 {
		return 0
	}
	price, ok := ratFromFloat(priceUSD)
	if !ok {
		return 0
	}
	tvl := new(big.Rat).Mul(humanRat(totalStaked, decimals), price)
	return finiteFloat(tvl)
}

// Compute derives the full yield summary for one pool.
func Compute(econ model.PoolEconomics) model.YieldResult {
	return model.YieldResult{
		APRPercent: ComputeAPR(econ),
		TVLUSD:     ComputeTVL(econ.TotalStaked, econ.StakeTokenPriceUSD, econ.StakeDecimals),
	}
}

// FormatAmount renders a raw fixed-point integer as a decimal string.
func FormatAmount(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	if decimals == 0 {
		return value.String()
	}
	sign := value.Sign()
	abs := new(big.Int).Abs(value)
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	text := new(big.Rat).SetFrac(abs, denom).FloatString(int(decimals))
	if sign < 0 {
		return "-" + text
	}
	return text
}

func humanRat(value *big.Int, decimals uint8) *big.Rat {
	if value == nil {
		return new(big.Rat)
	}
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Rat).SetFrac(value, denom)
}

func ratFromFloat(value float64) (*big.Rat, bool) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, false
	}
	rat := new(big.Rat).SetFloat64(value)
	if rat == nil {
		return nil, false
	}
	return rat, true
}

func finiteFloat(rat *big.Rat) float64 {
	val, _ := rat.Float64()
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return 0
	}
	return val
}
