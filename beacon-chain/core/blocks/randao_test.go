package blocks_test

import (
	"context"
	"testing"

	"github.com/zephyrchain/zephyr/beacon-chain/core/blocks"
	"github.com/zephyrchain/zephyr/beacon-chain/core/helpers"
	"github.com/zephyrchain/zephyr/shared/bls"
	"github.com/zephyrchain/zephyr/shared/hashutil"
	"github.com/zephyrchain/zephyr/shared/params"
	"github.com/zephyrchain/zephyr/shared/testutil"
	"github.com/zephyrchain/zephyr/shared/testutil/assert"
	"github.com/zephyrchain/zephyr/shared/testutil/require"
	"github.com/zephyrchain/zephyr/types"
)

func TestProcessRandao_IncorrectProposerFailsVerification(t *testing.T) {
	beaconState, _ := testutil.DeterministicGenesisState(t, 64)
	epoch := helpers.CurrentEpoch(beaconState)
	domain := helpers.Domain(beaconState.Fork, epoch, params.BeaconConfig().DomainRandao)
	root, err := helpers.ComputeSigningRoot(epoch, domain)
	require.NoError(t, err)
	// Signing with a throwaway key should fail proposer verification.
	reveal := bls.RandKey().Sign(root[:]).Marshal()

	body := &types.BeaconBlockBody{RandaoReveal: reveal}
	_, err = blocks.ProcessRandao(context.Background(), beaconState, body)
	assert.ErrorContains(t, "could not verify block randao", err)
}

func TestProcessRandao_SignedCorrectly(t *testing.T) {
	beaconState, privKeys := testutil.DeterministicGenesisState(t, 64)
	epoch := helpers.CurrentEpoch(beaconState)
	reveal, err := testutil.RandaoReveal(beaconState, epoch, privKeys)
	require.NoError(t, err)

	mix := helpers.RandaoMix(beaconState, epoch)
	revealHash := hashutil.Hash(reveal)
	expectedMix := make([]byte, 32)
	for i, x := range mix {
		expectedMix[i] = x ^ revealHash[i]
	}

	body := &types.BeaconBlockBody{RandaoReveal: reveal}
	newState, err := blocks.ProcessRandao(context.Background(), beaconState, body)
	require.NoError(t, err)

	updatedMix := newState.RandaoMixes[epoch%params.BeaconConfig().EpochsPerHistoricalVector]
	assert.DeepEqual(t, expectedMix, updatedMix)
}
