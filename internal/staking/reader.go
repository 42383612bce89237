package staking

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"stakewatch/internal/chain"
	"stakewatch/internal/model"
)

// Reader reads pool and user state from one staking contract. The
// schema carries the version-specific tuple layout.
type Reader struct {
	chain    *chain.Client
	contract common.Address
	schema   Schema
	abi      abi.ABI
}

// NewReader builds a reader for a contract at the given version.
func NewReader(chainClient *chain.Client, contract common.Address, schema Schema) (*Reader, error) {
	if chainClient == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	parsed, err := abi.JSON(strings.NewReader(schema.abiJSON))
	if err != nil {
		return nil, fmt.Errorf("parse v%d pool abi: %w", schema.Version, err)
	}
	return &Reader{
		chain:    chainClient,
		contract: contract,
		schema:   schema,
		abi:      parsed,
	}, nil
}

// Schema exposes the reader's layout descriptor.
func (r *Reader) Schema() Schema {
	return r.schema
}

// PoolState reads and decodes poolInfo for one pool id.
func (r *Reader) PoolState(ctx context.Context, pid uint64) (model.PoolState, error) {
	values, err := r.call(ctx, "poolInfo", new(big.Int).SetUint64(pid))
	if err != nil {
		return model.PoolState{}, err
	}
	return r.schema.DecodePool(values)
}

// UserStake reads and decodes userInfo for one pool id and wallet.
func (r *Reader) UserStake(ctx context.Context, pid uint64, user common.Address) (model.UserStake, error) {
	values, err := r.call(ctx, "userInfo", new(big.Int).SetUint64(pid), user)
	if err != nil {
		return model.UserStake{}, err
	}
	return r.schema.DecodeUser(values)
}

func (r *Reader) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := r.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &r.contract, Data: data}
	resp, err := r.chain.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := r.abi.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

// Economics assembles the yield-calculator input from a pool state and
// the token prices. Both staking tokens here are 18-decimal unless the
// caller says otherwise.
func Economics(state model.PoolState, stakePriceUSD, rewardPriceUSD float64, stakeDecimals, rewardDecimals uint8) model.PoolEconomics {
	return model.PoolEconomics{
		RewardPerSecond:     state.RewardPerSecond,
		TotalStaked:         state.TotalStaked,
		RewardTokenPriceUSD: rewardPriceUSD,
		StakeTokenPriceUSD:  stakePriceUSD,
		RewardDecimals:      rewardDecimals,
		StakeDecimals:       stakeDecimals,
	}
}
