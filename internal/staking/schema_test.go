package staking

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var (
	stakeToken  = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	rewardToken = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

func TestSchemaForVersion(t *testing.T) {
	for _, version := range []int{1, 2, 3} {
		schema, err := SchemaForVersion(version)
		if err != nil {
			t.Fatalf("version %d: %v", version, err)
		}
		if schema.Version != version {
			t.Fatalf("version mismatch: %d != %d", schema.Version, version)
		}
	}
	if _, err := SchemaForVersion(4); err == nil {
		t.Fatalf("expected error for unknown version")
	}
}

func TestDecodePoolV1(t *testing.T) {
	values := []interface{}{
		stakeToken,
		rewardToken,
		big.NewInt(1000),
		big.NewInt(1700000000),
		big.NewInt(5000),
		big.NewInt(1800000000),
		big.NewInt(42),
		false,
	}

	state, err := SchemaV1.DecodePool(values)
	if err != nil {
		t.Fatalf("decode v1 pool: %v", err)
	}
	if state.StakeToken != stakeToken.Hex() || state.RewardToken != rewardToken.Hex() {
		t.Fatalf("token mismatch: %+v", state)
	}
	if state.RewardPerSecond.Cmp(big.NewInt(5000)) != 0 {
		t.Fatalf("rps mismatch: %s", state.RewardPerSecond)
	}
	if state.TotalStaked.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("total staked mismatch: %s", state.TotalStaked)
	}
	if state.Label != "" {
		t.Fatalf("v1 has no label: %q", state.Label)
	}
}

func TestDecodePoolV2Label(t *testing.T) {
	values := []interface{}{
		stakeToken,
		rewardToken,
		big.NewInt(1000),
		big.NewInt(1700000000),
		big.NewInt(5000),
		big.NewInt(1800000000),
		big.NewInt(42),
		true,
		"CORN/WPLS",
	}

	state, err := SchemaV2.DecodePool(values)
	if err != nil {
		t.Fatalf("decode v2 pool: %v", err)
	}
	if !state.Paused {
		t.Fatalf("paused flag lost")
	}
	if state.Label != "CORN/WPLS" {
		t.Fatalf("label mismatch: %q", state.Label)
	}
}

func TestDecodePoolV3Reorder(t *testing.T) {
	// V3 moves rewardPerSecond to position 2.
	values := []interface{}{
		stakeToken,
		rewardToken,
		big.NewInt(5000),
		big.NewInt(1000),
		big.NewInt(1700000000),
		big.NewInt(1800000000),
		big.NewInt(42),
		false,
		"Farm 3",
	}

	state, err := SchemaV3.DecodePool(values)
	if err != nil {
		t.Fatalf("decode v3 pool: %v", err)
	}
	if state.RewardPerSecond.Cmp(big.NewInt(5000)) != 0 {
		t.Fatalf("rps not read from reordered slot: %s", state.RewardPerSecond)
	}
	if state.AccRewardPerShare.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("acc per share mismatch: %s", state.AccRewardPerShare)
	}
}

func TestDecodePoolLengthMismatch(t *testing.T) {
	if _, err := SchemaV1.DecodePool([]interface{}{stakeToken}); err == nil {
		t.Fatalf("expected length error")
	}
	if _, err := SchemaV2.DecodePool(make([]interface{}, 8)); err == nil {
		t.Fatalf("v2 must reject v1-length tuples")
	}
}

func TestDecodeUser(t *testing.T) {
	v1, err := SchemaV1.DecodeUser([]interface{}{big.NewInt(10), big.NewInt(2)})
	if err != nil {
		t.Fatalf("decode v1 user: %v", err)
	}
	if v1.LockEnd != 0 {
		t.Fatalf("v1 has no lock end: %d", v1.LockEnd)
	}

	v2, err := SchemaV2.DecodeUser([]interface{}{big.NewInt(10), big.NewInt(2), big.NewInt(1900000000)})
	if err != nil {
		t.Fatalf("decode v2 user: %v", err)
	}
	if v2.LockEnd != 1900000000 {
		t.Fatalf("lock end mismatch: %d", v2.LockEnd)
	}

	if _, err := SchemaV2.DecodeUser([]interface{}{big.NewInt(10), big.NewInt(2)}); err == nil {
		t.Fatalf("v2 user tuple requires lock end")
	}
}
