package helpers

import (
	"testing"

	"github.com/zephyrchain/zephyr/shared/params"
	"github.com/zephyrchain/zephyr/shared/testutil/assert"
	"github.com/zephyrchain/zephyr/types"
)

func TestTotalBalance_OK(t *testing.T) {
	state := &types.BeaconState{Validators: []*types.Validator{
		{EffectiveBalance: 27 * 1e9},
		{EffectiveBalance: 28 * 1e9},
		{EffectiveBalance: 32 * 1e9},
		{EffectiveBalance: 40 * 1e9},
	}}

	balance := TotalBalance(state, []uint64{0, 1, 2, 3})
	wanted := state.Validators[0].EffectiveBalance + state.Validators[1].EffectiveBalance +
		state.Validators[2].EffectiveBalance + state.Validators[3].EffectiveBalance
	assert.Equal(t, wanted, balance, "Incorrect total balance")
}

func TestTotalBalance_ReturnsOneWhenZero(t *testing.T) {
	state := &types.BeaconState{Validators: []*types.Validator{}}
	assert.Equal(t, uint64(1), TotalBalance(state, []uint64{}), "Total balance should never be zero")
}

func TestTotalActiveBalance_OK(t *testing.T) {
	state := &types.BeaconState{
		Slot: 0,
		Validators: []*types.Validator{
			{EffectiveBalance: 32 * 1e9, ExitEpoch: params.BeaconConfig().FarFutureEpoch},
			{EffectiveBalance: 30 * 1e9, ExitEpoch: params.BeaconConfig().FarFutureEpoch},
			// Exited, not counted.
			{EffectiveBalance: 32 * 1e9, ExitEpoch: 0},
		},
	}
	assert.Equal(t, uint64(62*1e9), TotalActiveBalance(state))
}

func TestIncreaseBalance_OK(t *testing.T) {
	tests := []struct {
		i  uint64
		b  []uint64
		nb uint64
		eb uint64
	}{
		{i: 0, b: []uint64{27 * 1e9, 28 * 1e9, 32 * 1e9}, nb: 1, eb: 27*1e9 + 1},
		{i: 1, b: []uint64{27 * 1e9, 28 * 1e9, 32 * 1e9}, nb: 0, eb: 28 * 1e9},
		{i: 2, b: []uint64{27 * 1e9, 28 * 1e9, 32 * 1e9}, nb: 33 * 1e9, eb: 65 * 1e9},
	}
	for _, test := range tests {
		state := &types.BeaconState{Balances: test.b}
		IncreaseBalance(state, test.i, test.nb)
		assert.Equal(t, test.eb, state.Balances[test.i], "Incorrect balance")
	}
}

func TestDecreaseBalance_OK(t *testing.T) {
	tests := []struct {
		i  uint64
		b  []uint64
		nb uint64
		eb uint64
	}{
		{i: 0, b: []uint64{2, 28 * 1e9, 32 * 1e9}, nb: 1, eb: 1},
		{i: 1, b: []uint64{27 * 1e9, 28 * 1e9, 32 * 1e9}, nb: 28 * 1e9, eb: 0},
		// Underflow protected.
		{i: 2, b: []uint64{27 * 1e9, 28 * 1e9, 1}, nb: 2, eb: 0},
	}
	for _, test := range tests {
		state := &types.BeaconState{Balances: test.b}
		DecreaseBalance(state, test.i, test.nb)
		assert.Equal(t, test.eb, state.Balances[test.i], "Incorrect balance")
	}
}
