package interop_test

import (
	"context"
	"testing"

	coreState "github.com/zephyrchain/zephyr/beacon-chain/core/state"
	"github.com/zephyrchain/zephyr/shared/interop"
	"github.com/zephyrchain/zephyr/shared/params"
	"github.com/zephyrchain/zephyr/shared/testutil/assert"
	"github.com/zephyrchain/zephyr/shared/testutil/require"
	"github.com/zephyrchain/zephyr/shared/trieutil"
	"github.com/zephyrchain/zephyr/types"
)

func TestGenerateGenesisState(t *testing.T) {
	numValidators := uint64(64)
	privKeys, pubKeys, err := interop.DeterministicallyGenerateKeys(0 /*startIndex*/, numValidators)
	require.NoError(t, err)
	depositDataItems, depositDataRoots, err := interop.DepositDataFromKeys(privKeys, pubKeys)
	require.NoError(t, err)
	trie, err := trieutil.GenerateTrieFromItems(
		depositDataRoots,
		int(params.BeaconConfig().DepositContractTreeDepth),
	)
	require.NoError(t, err)
	deposits, err := interop.GenerateDepositsFromData(depositDataItems, trie)
	require.NoError(t, err)
	root := trie.HashTreeRoot()
	genesisState, err := coreState.GenesisBeaconState(context.Background(), deposits, 0, &types.Eth1Data{
		DepositRoot:  root[:],
		DepositCount: uint64(len(deposits)),
		BlockHash:    make([]byte, 32),
	})
	require.NoError(t, err)
	assert.Equal(t, int(numValidators), len(genesisState.Validators))
	assert.Equal(t, uint64(0), genesisState.GenesisTime)

	for i, val := range genesisState.Validators {
		assert.Equal(t, params.BeaconConfig().MaxEffectiveBalance, val.EffectiveBalance, "validator %d not fully funded", i)
		assert.Equal(t, uint64(0), val.ActivationEpoch, "validator %d not active at genesis", i)
	}
}

func TestGenerateGenesisState_DeterministicAcrossRuns(t *testing.T) {
	ctx := context.Background()
	st1, dps1, err := interop.GenerateGenesisState(ctx, 1024, 32)
	require.NoError(t, err)
	st2, dps2, err := interop.GenerateGenesisState(ctx, 1024, 32)
	require.NoError(t, err)
	require.Equal(t, len(dps1), len(dps2))
	assert.DeepEqual(t, st1.Validators, st2.Validators)
	assert.DeepEqual(t, st1.Eth1Data, st2.Eth1Data)
}
