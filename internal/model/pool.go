package model

import "math/big"

// PoolEconomics is the per-pool input to the yield calculator.
// Amounts are raw fixed-point integers scaled by their decimals.
type PoolEconomics struct {
	RewardPerSecond     *big.Int
	TotalStaked         *big.Int
	RewardTokenPriceUSD float64
	StakeTokenPriceUSD  float64
	RewardDecimals      uint8
	StakeDecimals       uint8
}

// YieldResult is the derived display-ready summary for one pool.
type YieldResult struct {
	APRPercent float64 `json:"apr_percent"`
	TVLUSD     float64 `json:"tvl_usd"`
}

// PoolState is a decoded poolInfo tuple. Label and per-user lock-end
// exist only on some protocol versions.
type PoolState struct {
	StakeToken        string
	RewardToken       string
	AccRewardPerShare *big.Int
	LastUpdateTime    uint64
	RewardPerSecond   *big.Int
	EndTime           uint64
	TotalStaked       *big.Int
	Paused            bool
	Label             string
}

// UserStake is a decoded userInfo tuple. LockEnd is zero on versions
// without lock periods.
type UserStake struct {
	Amount     *big.Int
	RewardDebt *big.Int
	LockEnd    uint64
}

// PoolYield pairs a pool's decoded state with its derived yield.
type PoolYield struct {
	PoolID  uint64      `json:"pool_id"`
	Version int         `json:"version"`
	State   PoolState   `json:"state"`
	Yield   YieldResult `json:"yield"`
}
