package state_test

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/go-ssz"
	"github.com/zephyrchain/zephyr/beacon-chain/core/blocks"
	"github.com/zephyrchain/zephyr/beacon-chain/core/state"
	"github.com/zephyrchain/zephyr/shared/params"
	"github.com/zephyrchain/zephyr/shared/testutil"
	"github.com/zephyrchain/zephyr/shared/testutil/assert"
	"github.com/zephyrchain/zephyr/shared/testutil/require"
)

func TestGenesisBeaconState_OK(t *testing.T) {
	numValidators := uint64(64)
	deposits, _, err := testutil.DeterministicDepositsAndKeys(numValidators)
	require.NoError(t, err)
	eth1Data, err := testutil.DeterministicEth1Data(len(deposits))
	require.NoError(t, err)

	genesisTime := params.BeaconConfig().MinGenesisTime
	genesisState, err := state.GenesisBeaconState(context.Background(), deposits, genesisTime, eth1Data)
	require.NoError(t, err)

	assert.Equal(t, genesisTime, genesisState.GenesisTime)
	assert.Equal(t, uint64(0), genesisState.Slot)
	require.Equal(t, int(numValidators), len(genesisState.Validators))
	require.Equal(t, int(numValidators), len(genesisState.Balances))
	assert.Equal(t, numValidators, genesisState.Eth1DepositIndex)

	for i, validator := range genesisState.Validators {
		assert.Equal(t, uint64(0), validator.ActivationEpoch, "validator %d not activated at genesis", i)
		assert.Equal(t, uint64(0), validator.ActivationEligibilityEpoch, "validator %d not eligible at genesis", i)
		assert.Equal(t, params.BeaconConfig().MaxEffectiveBalance, validator.EffectiveBalance)
		assert.Equal(t, params.BeaconConfig().MaxEffectiveBalance, genesisState.Balances[i])
	}

	// Every randao mix is seeded with the eth1 block hash.
	require.Equal(t, int(params.BeaconConfig().EpochsPerHistoricalVector), len(genesisState.RandaoMixes))
	assert.DeepEqual(t, eth1Data.BlockHash, genesisState.RandaoMixes[0])
	assert.DeepEqual(t, eth1Data.BlockHash, genesisState.RandaoMixes[len(genesisState.RandaoMixes)-1])

	// The stored header commits to the same empty body the genesis block carries.
	emptyBody := blocks.NewGenesisBlock(nil).Block.Body
	bodyRoot, err := ssz.HashTreeRoot(emptyBody)
	require.NoError(t, err)
	assert.DeepEqual(t, bodyRoot[:], genesisState.LatestBlockHeader.BodyRoot)
	assert.DeepEqual(t, params.BeaconConfig().ZeroHash[:], genesisState.LatestBlockHeader.ParentRoot)
	assert.DeepEqual(t, params.BeaconConfig().ZeroHash[:], genesisState.LatestBlockHeader.StateRoot)
}

func TestGenesisBeaconState_NilEth1Data(t *testing.T) {
	_, err := state.GenesisBeaconState(context.Background(), nil, 0, nil)
	assert.ErrorContains(t, "no eth1data provided for genesis state", err)
}

func TestEmptyGenesisState_ZeroFilled(t *testing.T) {
	genesisState := state.EmptyGenesisState()

	assert.Equal(t, uint64(0), genesisState.Slot)
	assert.Equal(t, 0, len(genesisState.Validators))
	assert.Equal(t, 0, len(genesisState.Balances))
	assert.Equal(t, uint64(0), genesisState.Eth1DepositIndex)
	assert.Equal(t, int(params.BeaconConfig().SlotsPerHistoricalRoot), len(genesisState.BlockRoots))
	assert.Equal(t, int(params.BeaconConfig().SlotsPerHistoricalRoot), len(genesisState.StateRoots))
	assert.Equal(t, int(params.BeaconConfig().EpochsPerSlashingsVector), len(genesisState.Slashings))
	assert.DeepEqual(t, params.BeaconConfig().GenesisForkVersion, genesisState.Fork.PreviousVersion)
	assert.DeepEqual(t, params.BeaconConfig().GenesisForkVersion, genesisState.Fork.CurrentVersion)
	assert.DeepEqual(t, params.BeaconConfig().ZeroHash[:], genesisState.FinalizedCheckpoint.Root)
}

func TestIsValidGenesisState(t *testing.T) {
	tests := []struct {
		name  string
		count uint64
		time  uint64
		valid bool
	}{
		{
			name:  "enough deposits after min genesis time",
			count: params.BeaconConfig().MinGenesisActiveValidatorCount,
			time:  params.BeaconConfig().MinGenesisTime + 1,
			valid: true,
		},
		{
			name:  "not enough deposits",
			count: params.BeaconConfig().MinGenesisActiveValidatorCount - 1,
			time:  params.BeaconConfig().MinGenesisTime + 1,
			valid: false,
		},
		{
			name:  "before min genesis time",
			count: params.BeaconConfig().MinGenesisActiveValidatorCount,
			time:  params.BeaconConfig().MinGenesisTime - 1,
			valid: false,
		},
		{
			name:  "exactly min genesis time",
			count: params.BeaconConfig().MinGenesisActiveValidatorCount,
			time:  params.BeaconConfig().MinGenesisTime,
			valid: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, state.IsValidGenesisState(tt.count, tt.time))
		})
	}
}
