package helpers

import (
	"testing"

	"github.com/zephyrchain/zephyr/shared/params"
	"github.com/zephyrchain/zephyr/shared/testutil/assert"
	"github.com/zephyrchain/zephyr/shared/testutil/require"
	"github.com/zephyrchain/zephyr/types"
)

func TestIsActiveValidator_OK(t *testing.T) {
	tests := []struct {
		a uint64
		b bool
	}{
		{a: 0, b: false},
		{a: 10, b: true},
		{a: 100, b: false},
		{a: 1000, b: false},
		{a: 64, b: true},
	}
	for _, test := range tests {
		validator := &types.Validator{ActivationEpoch: 10, ExitEpoch: 100}
		assert.Equal(t, test.b, IsActiveValidator(validator, test.a), "IsActiveValidator(%d)", test.a)
	}
}

func TestIsSlashableValidator_OK(t *testing.T) {
	tests := []struct {
		name      string
		validator *types.Validator
		epoch     uint64
		slashable bool
	}{
		{
			name: "before withdrawable",
			validator: &types.Validator{
				WithdrawableEpoch: 5,
			},
			epoch:     3,
			slashable: true,
		},
		{
			name: "after withdrawable",
			validator: &types.Validator{
				WithdrawableEpoch: 3,
			},
			epoch:     3,
			slashable: false,
		},
		{
			name: "not yet active",
			validator: &types.Validator{
				ActivationEpoch:   5,
				WithdrawableEpoch: 10,
			},
			epoch:     3,
			slashable: false,
		},
		{
			name: "already slashed",
			validator: &types.Validator{
				Slashed:           true,
				WithdrawableEpoch: 10,
			},
			epoch:     3,
			slashable: false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.slashable, IsSlashableValidator(test.validator, test.epoch))
		})
	}
}

func TestActiveValidatorIndices_OK(t *testing.T) {
	state := &types.BeaconState{
		Validators: []*types.Validator{
			{ActivationEpoch: 0, ExitEpoch: params.BeaconConfig().FarFutureEpoch},
			{ActivationEpoch: 0, ExitEpoch: 5},
			{ActivationEpoch: 3, ExitEpoch: params.BeaconConfig().FarFutureEpoch},
			{ActivationEpoch: 0, ExitEpoch: params.BeaconConfig().FarFutureEpoch},
		},
	}
	indices := ActiveValidatorIndices(state, 5)
	assert.DeepEqual(t, []uint64{0, 2, 3}, indices)
	assert.Equal(t, uint64(3), ActiveValidatorCount(state, 5))
}

func TestActivationExitEpoch_OK(t *testing.T) {
	assert.Equal(t, 5+1+params.BeaconConfig().MaxSeedLookahead, ActivationExitEpoch(5))
}

func TestValidatorChurnLimit_OK(t *testing.T) {
	tests := []struct {
		validatorCount uint64
		wantedChurn    uint64
	}{
		{validatorCount: 1000, wantedChurn: 4},
		{validatorCount: 100000, wantedChurn: 4},
		{validatorCount: 1000000, wantedChurn: 15 /* validatorCount/churnLimitQuotient */},
		{validatorCount: 2000000, wantedChurn: 30 /* validatorCount/churnLimitQuotient */},
	}
	for _, test := range tests {
		assert.Equal(t, test.wantedChurn, ValidatorChurnLimit(test.validatorCount))
	}
}

func TestBeaconProposerIndex_OK(t *testing.T) {
	state := buildState(0, 128)

	index, err := BeaconProposerIndex(state)
	require.NoError(t, err)
	require.Equal(t, true, index < 128, "Proposer index out of range")

	// The computation is deterministic for a given state.
	index2, err := BeaconProposerIndex(state)
	require.NoError(t, err)
	assert.Equal(t, index, index2)

	// A different slot samples with a different seed.
	state.Slot = 5
	index3, err := BeaconProposerIndex(state)
	require.NoError(t, err)
	require.Equal(t, true, index3 < 128, "Proposer index out of range")
}

func TestComputeProposerIndex_EmptyIndices(t *testing.T) {
	_, err := ComputeProposerIndex([]*types.Validator{}, []uint64{}, [32]byte{})
	assert.ErrorContains(t, "empty active indices list", err)
}

func TestComputeProposerIndex_SkipsLowBalanceCandidates(t *testing.T) {
	validators := []*types.Validator{
		{EffectiveBalance: 0},
		{EffectiveBalance: 0},
		{EffectiveBalance: params.BeaconConfig().MaxEffectiveBalance},
	}
	// Zero effective balance never satisfies the sampling condition unless the
	// random byte is zero, so the max balance validator dominates.
	counts := make(map[uint64]int)
	for i := byte(0); i < 10; i++ {
		idx, err := ComputeProposerIndex(validators, []uint64{0, 1, 2}, [32]byte{i})
		require.NoError(t, err)
		counts[idx]++
	}
	assert.Equal(t, true, counts[2] > 5, "Max effective balance validator should win most seeds, got %v", counts)
}

func TestIsEligibleForActivationQueue_OK(t *testing.T) {
	tests := []struct {
		name      string
		validator *types.Validator
		want      bool
	}{
		{
			name: "eligible",
			validator: &types.Validator{
				ActivationEligibilityEpoch: params.BeaconConfig().FarFutureEpoch,
				EffectiveBalance:           params.BeaconConfig().MaxEffectiveBalance,
			},
			want: true,
		},
		{
			name: "already marked",
			validator: &types.Validator{
				ActivationEligibilityEpoch: 1,
				EffectiveBalance:           params.BeaconConfig().MaxEffectiveBalance,
			},
			want: false,
		},
		{
			name: "incorrect balance",
			validator: &types.Validator{
				ActivationEligibilityEpoch: params.BeaconConfig().FarFutureEpoch,
				EffectiveBalance:           params.BeaconConfig().MaxEffectiveBalance - 1,
			},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsEligibleForActivationQueue(tt.validator))
		})
	}
}
