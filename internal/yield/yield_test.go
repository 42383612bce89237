package yield

import (
	"math"
	"math/big"
	"testing"

	"stakewatch/internal/model"
)

func scaled(human int64, decimals uint8) *big.Int {
	base := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Int).Mul(big.NewInt(human), base)
}

func TestComputeAPRZeroStake(t *testing.T) {
	econ := model.PoolEconomics{
		RewardPerSecond:     scaled(5, 18),
		TotalStaked:         big.NewInt(0),
		RewardTokenPriceUSD: 2.5,
		StakeTokenPriceUSD:  1.0,
		RewardDecimals:      18,
		StakeDecimals:       18,
	}
	if got := ComputeAPR(econ); got != 0 {
		t.Fatalf("apr with zero stake: %v", got)
	}
	econ.TotalStaked = nil
	if got := ComputeAPR(econ); got != 0 {
		t.Fatalf("apr with nil stake: %v", got)
	}
}

func TestComputeAPRZeroStakePrice(t *testing.T) {
	econ := model.PoolEconomics{
		RewardPerSecond:     scaled(5, 18),
		TotalStaked:         scaled(1000, 18),
		RewardTokenPriceUSD: 2.5,
		StakeTokenPriceUSD:  0,
		RewardDecimals:      18,
		StakeDecimals:       18,
	}
	if got := ComputeAPR(econ); got != 0 {
		t.Fatalf("apr with zero stake price: %v", got)
	}
}

func TestComputeAPRBasic(t *testing.T) {
	// 1 reward token per second at $1, 31,536,000 tokens staked at $1:
	// yearly rewards equal TVL, so APR is exactly 100%.
	econ := model.PoolEconomics{
		RewardPerSecond:     scaled(1, 18),
		TotalStaked:         scaled(31_536_000, 18),
		RewardTokenPriceUSD: 1,
		StakeTokenPriceUSD:  1,
		RewardDecimals:      18,
		StakeDecimals:       18,
	}
	if got := ComputeAPR(econ); got != 100 {
		t.Fatalf("apr mismatch: %v", got)
	}
}

func TestComputeAPRScaleInvariant(t *testing.T) {
	wide := model.PoolEconomics{
		RewardPerSecond:     scaled(3, 18),
		TotalStaked:         scaled(12345, 18),
		RewardTokenPriceUSD: 0.42,
		StakeTokenPriceUSD:  1.37,
		RewardDecimals:      18,
		StakeDecimals:       18,
	}
	narrow := model.PoolEconomics{
		RewardPerSecond:     scaled(3, 6),
		TotalStaked:         scaled(12345, 6),
		RewardTokenPriceUSD: 0.42,
		StakeTokenPriceUSD:  1.37,
		RewardDecimals:      6,
		StakeDecimals:       6,
	}
	if ComputeAPR(wide) != ComputeAPR(narrow) {
		t.Fatalf("apr not scale invariant: %v != %v", ComputeAPR(wide), ComputeAPR(narrow))
	}
}

func TestComputeAPRNonFinitePrice(t *testing.T) {
	econ := model.PoolEconomics{
		RewardPerSecond:     scaled(1, 18),
		TotalStaked:         scaled(10, 18),
		RewardTokenPriceUSD: math.Inf(1),
		StakeTokenPriceUSD:  1,
		RewardDecimals:      18,
		StakeDecimals:       18,
	}
	if got := ComputeAPR(econ); got != 0 {
		t.Fatalf("apr with infinite reward price: %v", got)
	}
	econ.RewardTokenPriceUSD = 1
	econ.StakeTokenPriceUSD = math.NaN()
	if got := ComputeAPR(econ); got != 0 {
		t.Fatalf("apr with NaN stake price: %v", got)
	}
}

func TestComputeTVL(t *testing.T) {
	if got := ComputeTVL(big.NewInt(0), 123.45, 9); got != 0 {
		t.Fatalf("tvl of zero stake: %v", got)
	}
	if got := ComputeTVL(nil, 123.45, 9); got != 0 {
		t.Fatalf("tvl of nil stake: %v", got)
	}
	if got := ComputeTVL(scaled(200, 18), 2.5, 18); got != 500 {
		t.Fatalf("tvl mismatch: %v", got)
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(nil, 18); got != "0" {
		t.Fatalf("nil amount: %s", got)
	}
	if got := FormatAmount(big.NewInt(1234), 0); got != "1234" {
		t.Fatalf("zero decimals: %s", got)
	}
	if got := FormatAmount(big.NewInt(-1500000), 6); got != "-1.500000" {
		t.Fatalf("negative amount: %s", got)
	}
	if got := FormatAmount(scaled(80, 18), 18); got != "80.000000000000000000" {
		t.Fatalf("18 decimals: %s", got)
	}
}
