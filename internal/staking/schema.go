package staking

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"stakewatch/internal/model"
)

// poolIndexes maps each pool field to its position in the version's
// poolInfo tuple. label is -1 where the version has none.
type poolIndexes struct {
	stakeToken  int
	rewardToken int
	accPerShare int
	lastUpdate  int
	rps         int
	endTime     int
	totalStaked int
	paused      int
	label       int
}

// Schema describes one protocol version's tuple layout. One reader
// parameterized by a schema replaces three near-identical readers.
type Schema struct {
	Version    int
	HasLockEnd bool
	HasLabel   bool

	abiJSON string
	poolLen int
	userLen int
	idx     poolIndexes
}

var (
	// SchemaV1: original layout, no label, no lock periods.
	SchemaV1 = Schema{
		Version: 1,
		abiJSON: poolV1ABIJSON,
		poolLen: 8,
		userLen: 2,
		idx:     poolIndexes{stakeToken: 0, rewardToken: 1, accPerShare: 2, lastUpdate: 3, rps: 4, endTime: 5, totalStaked: 6, paused: 7, label: -1},
	}

	// SchemaV2: V1 layout plus a trailing label and per-user lock-end.
	SchemaV2 = Schema{
		Version:    2,
		HasLockEnd: true,
		HasLabel:   true,
		abiJSON:    poolV2ABIJSON,
		poolLen:    9,
		userLen:    3,
		idx:        poolIndexes{stakeToken: 0, rewardToken: 1, accPerShare: 2, lastUpdate: 3, rps: 4, endTime: 5, totalStaked: 6, paused: 7, label: 8},
	}

	// SchemaV3: reordered accounting fields, label and lock-end kept.
	SchemaV3 = Schema{
		Version:    3,
		HasLockEnd: true,
		HasLabel:   true,
		abiJSON:    poolV3ABIJSON,
		poolLen:    9,
		userLen:    3,
		idx:        poolIndexes{stakeToken: 0, rewardToken: 1, rps: 2, accPerShare: 3, lastUpdate: 4, endTime: 5, totalStaked: 6, paused: 7, label: 8},
	}
)

// SchemaForVersion resolves a configured version number to its schema.
func SchemaForVersion(version int) (Schema, error) {
	switch version {
	case 1:
		return SchemaV1, nil
	case 2:
		return SchemaV2, nil
	case 3:
		return SchemaV3, nil
	default:
		return Schema{}, fmt.Errorf("unsupported pool version: %d", version)
	}
}

// DecodePool converts an unpacked poolInfo tuple into PoolState.
func (s Schema) DecodePool(values []interface{}) (model.PoolState, error) {
	if len(values) != s.poolLen {
		return model.PoolState{}, fmt.Errorf("expected %d pool fields, got %d", s.poolLen, len(values))
	}

	stakeToken, err := asAddress(values[s.idx.stakeToken])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("stake token: %w", err)
	}
	rewardToken, err := asAddress(values[s.idx.rewardToken])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("reward token: %w", err)
	}
	accPerShare, err := asBigInt(values[s.idx.accPerShare])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("acc reward per share: %w", err)
	}
	lastUpdate, err := asBigInt(values[s.idx.lastUpdate])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("last update: %w", err)
	}
	rps, err := asBigInt(values[s.idx.rps])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("reward per second: %w", err)
	}
	endTime, err := asBigInt(values[s.idx.endTime])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("end time: %w", err)
	}
	totalStaked, err := asBigInt(values[s.idx.totalStaked])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("total staked: %w", err)
	}
	paused, ok := values[s.idx.paused].(bool)
	if !ok {
		return model.PoolState{}, fmt.Errorf("paused: unsupported type %T", values[s.idx.paused])
	}

	state := model.PoolState{
		StakeToken:        stakeToken.Hex(),
		RewardToken:       rewardToken.Hex(),
		AccRewardPerShare: accPerShare,
		LastUpdateTime:    lastUpdate.Uint64(),
		RewardPerSecond:   rps,
		EndTime:           endTime.Uint64(),
		TotalStaked:       totalStaked,
		Paused:            paused,
	}

	if s.HasLabel {
		label, ok := values[s.idx.label].(string)
		if !ok {
			return model.PoolState{}, fmt.Errorf("label: unsupported type %T", values[s.idx.label])
		}
		state.Label = label
	}

	return state, nil
}

// DecodeUser converts an unpacked userInfo tuple into UserStake.
func (s Schema) DecodeUser(values []interface{}) (model.UserStake, error) {
	if len(values) != s.userLen {
		return model.UserStake{}, fmt.Errorf("expected %d user fields, got %d", s.userLen, len(values))
	}

	amount, err := asBigInt(values[0])
	if err != nil {
		return model.UserStake{}, fmt.Errorf("amount: %w", err)
	}
	rewardDebt, err := asBigInt(values[1])
	if err != nil {
		return model.UserStake{}, fmt.Errorf("reward debt: %w", err)
	}

	stake := model.UserStake{Amount: amount, RewardDebt: rewardDebt}
	if s.HasLockEnd {
		lockEnd, err := asBigInt(values[2])
		if err != nil {
			return model.UserStake{}, fmt.Errorf("lock end: %w", err)
		}
		stake.LockEnd = lockEnd.Uint64()
	}

	return stake, nil
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}
