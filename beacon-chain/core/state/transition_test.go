package state_test

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/go-bitfield"
	"github.com/prysmaticlabs/go-ssz"
	"github.com/zephyrchain/zephyr/beacon-chain/core/helpers"
	"github.com/zephyrchain/zephyr/beacon-chain/core/state"
	"github.com/zephyrchain/zephyr/shared/bytesutil"
	"github.com/zephyrchain/zephyr/shared/copyutil"
	"github.com/zephyrchain/zephyr/shared/params"
	"github.com/zephyrchain/zephyr/shared/testutil"
	"github.com/zephyrchain/zephyr/shared/testutil/assert"
	"github.com/zephyrchain/zephyr/shared/testutil/require"
	"github.com/zephyrchain/zephyr/types"
)

func TestExecuteStateTransition_FullProcess(t *testing.T) {
	beaconState, privKeys := testutil.DeterministicGenesisState(t, 64)

	block, err := testutil.GenerateFullBlock(beaconState, privKeys, testutil.DefaultBlockGenConfig(), 1)
	require.NoError(t, err)

	newState, err := state.ExecuteStateTransition(context.Background(), beaconState, block)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), newState.Slot)
	require.Equal(t, 1, len(newState.CurrentEpochAttestations))

	postStateRoot, err := ssz.HashTreeRoot(newState)
	require.NoError(t, err)
	assert.DeepEqual(t, block.Block.StateRoot, postStateRoot[:])
}

func TestExecuteStateTransition_NilBlock(t *testing.T) {
	beaconState, _ := testutil.DeterministicGenesisState(t, 64)
	_, err := state.ExecuteStateTransition(context.Background(), beaconState, nil)
	assert.ErrorContains(t, "nil block", err)
}

func TestExecuteStateTransition_InvalidBlockSignature(t *testing.T) {
	beaconState, privKeys := testutil.DeterministicGenesisState(t, 64)

	block, err := testutil.GenerateFullBlock(beaconState, privKeys, testutil.DefaultBlockGenConfig(), 1)
	require.NoError(t, err)
	block.Signature = params.BeaconConfig().EmptySignature[:]

	_, err = state.ExecuteStateTransition(context.Background(), beaconState, block)
	assert.ErrorContains(t, "could not verify block signature", err)
}

func TestExecuteStateTransition_IncorrectStateRoot(t *testing.T) {
	beaconState, privKeys := testutil.DeterministicGenesisState(t, 64)

	block, err := testutil.GenerateFullBlock(beaconState, privKeys, testutil.DefaultBlockGenConfig(), 1)
	require.NoError(t, err)
	block.Block.StateRoot = bytesutil.PadTo([]byte{'b', 'a', 'd'}, 32)

	// Re-sign the tampered block with the correct proposer key so the state
	// root check is the one that fails.
	copied := copyutil.CopyBeaconState(beaconState)
	copied.Slot = block.Block.Slot
	proposerIdx, err := helpers.BeaconProposerIndex(copied)
	require.NoError(t, err)
	domain := helpers.Domain(copied.Fork, helpers.CurrentEpoch(copied), params.BeaconConfig().DomainBeaconProposer)
	root, err := helpers.ComputeSigningRoot(block.Block, domain)
	require.NoError(t, err)
	block.Signature = privKeys[proposerIdx].Sign(root[:]).Marshal()

	_, err = state.ExecuteStateTransition(context.Background(), beaconState, block)
	assert.ErrorIs(t, state.ErrStateRootMismatch, err)
}

func TestExecuteStateTransition_DepositActivatesValidator(t *testing.T) {
	beaconState, privKeys := testutil.DeterministicGenesisState(t, 64)

	// A deposit only verifies once the state's eth1 data covers its leaf.
	newCount := beaconState.Eth1DepositIndex + 1
	_, _, err := testutil.DeterministicDepositsAndKeys(newCount)
	require.NoError(t, err)
	eth1Data, err := testutil.DeterministicEth1Data(int(newCount))
	require.NoError(t, err)
	beaconState.Eth1Data = eth1Data

	conf := &testutil.BlockGenConfig{NumDeposits: 1}
	block, err := testutil.GenerateFullBlock(beaconState, privKeys, conf, 1)
	require.NoError(t, err)

	beaconState, err = state.ExecuteStateTransition(context.Background(), beaconState, block)
	require.NoError(t, err)

	require.Equal(t, 65, len(beaconState.Validators))
	require.Equal(t, 65, len(beaconState.Balances))
	deposited := beaconState.Validators[64]
	assert.Equal(t, params.BeaconConfig().MaxEffectiveBalance, deposited.EffectiveBalance)
	assert.Equal(t, params.BeaconConfig().FarFutureEpoch, deposited.ActivationEpoch, "Deposited validator should await activation")

	// Crossing the epoch boundary runs registry updates, which mark the
	// validator eligible and schedule its activation.
	beaconState, err = state.ProcessSlots(context.Background(), beaconState, helpers.StartSlot(1))
	require.NoError(t, err)

	deposited = beaconState.Validators[64]
	assert.Equal(t, uint64(0), deposited.ActivationEligibilityEpoch)
	assert.Equal(t, helpers.ActivationExitEpoch(0), deposited.ActivationEpoch)

	// By its activation epoch the validator joins the active set.
	beaconState, err = state.ProcessSlots(context.Background(), beaconState, helpers.StartSlot(deposited.ActivationEpoch))
	require.NoError(t, err)
	assert.Equal(t, true, helpers.IsActiveValidator(beaconState.Validators[64], helpers.CurrentEpoch(beaconState)))
}

func TestCalculateStateRoot_DoesNotMutate(t *testing.T) {
	beaconState, privKeys := testutil.DeterministicGenesisState(t, 64)

	block, err := testutil.GenerateFullBlock(beaconState, privKeys, testutil.DefaultBlockGenConfig(), 1)
	require.NoError(t, err)

	root, err := state.CalculateStateRoot(context.Background(), beaconState, block)
	require.NoError(t, err)

	assert.Equal(t, uint64(0), beaconState.Slot, "state was mutated while calculating the root")
	assert.DeepEqual(t, block.Block.StateRoot, root[:])
}

func TestProcessSlot_CachesRootsAndBackfillsHeader(t *testing.T) {
	beaconState, _ := testutil.DeterministicGenesisState(t, 64)

	prevStateRoot, err := ssz.HashTreeRoot(beaconState)
	require.NoError(t, err)

	newState, err := state.ProcessSlot(context.Background(), beaconState)
	require.NoError(t, err)

	assert.DeepEqual(t, prevStateRoot[:], newState.StateRoots[0])
	// The zeroed header state root is backfilled before the block root is recorded.
	assert.DeepEqual(t, prevStateRoot[:], newState.LatestBlockHeader.StateRoot)
	headerRoot, err := ssz.HashTreeRoot(newState.LatestBlockHeader)
	require.NoError(t, err)
	assert.DeepEqual(t, headerRoot[:], newState.BlockRoots[0])
}

func TestProcessSlots_SameSlot(t *testing.T) {
	beaconState, _ := testutil.DeterministicGenesisState(t, 64)
	beaconState.Slot = 2

	newState, err := state.ProcessSlots(context.Background(), beaconState, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), newState.Slot)
}

func TestProcessSlots_LowerSlotFails(t *testing.T) {
	beaconState, _ := testutil.DeterministicGenesisState(t, 64)
	beaconState.Slot = 2

	_, err := state.ProcessSlots(context.Background(), beaconState, 1)
	assert.ErrorContains(t, "expected state.slot 2 <= slot 1", err)
}

func TestProcessSlots_CrossesEpochBoundary(t *testing.T) {
	beaconState, _ := testutil.DeterministicGenesisState(t, 64)

	target := 2 * params.BeaconConfig().SlotsPerEpoch
	newState, err := state.ProcessSlots(context.Background(), beaconState, target)
	require.NoError(t, err)
	assert.Equal(t, target, newState.Slot)
}

func TestCanProcessEpoch_TrueOnEpochEnd(t *testing.T) {
	tests := []struct {
		slot uint64
		can  bool
	}{
		{slot: 0, can: false},
		{slot: params.BeaconConfig().SlotsPerEpoch - 1, can: true},
		{slot: params.BeaconConfig().SlotsPerEpoch, can: false},
		{slot: 2*params.BeaconConfig().SlotsPerEpoch - 1, can: true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.can, state.CanProcessEpoch(&types.BeaconState{Slot: tt.slot}), "wrong answer for slot %d", tt.slot)
	}
}

func TestProcessEpoch_RotatesAttestations(t *testing.T) {
	beaconState, _ := testutil.DeterministicGenesisState(t, 64)
	beaconState.Slot = 2*params.BeaconConfig().SlotsPerEpoch - 1

	attSlot := params.BeaconConfig().SlotsPerEpoch
	committee, err := helpers.BeaconCommittee(beaconState, attSlot, 0)
	require.NoError(t, err)
	bits := bitfield.NewBitlist(uint64(len(committee)))
	for i := range committee {
		bits.SetBitAt(uint64(i), true)
	}
	beaconState.CurrentEpochAttestations = []*types.PendingAttestation{
		{
			Data: &types.AttestationData{
				Slot:            attSlot,
				CommitteeIndex:  0,
				BeaconBlockRoot: params.BeaconConfig().ZeroHash[:],
				Source:          &types.Checkpoint{Root: params.BeaconConfig().ZeroHash[:]},
				Target:          &types.Checkpoint{Root: params.BeaconConfig().ZeroHash[:]},
			},
			AggregationBits: bits,
			InclusionDelay:  1,
		},
	}

	newState, err := state.ProcessEpoch(context.Background(), beaconState)
	require.NoError(t, err)

	require.Equal(t, 1, len(newState.PreviousEpochAttestations))
	assert.Equal(t, 0, len(newState.CurrentEpochAttestations))
}

func TestProcessOperations_TooManyProposerSlashings(t *testing.T) {
	beaconState, _ := testutil.DeterministicGenesisState(t, 64)

	slashings := make([]*types.ProposerSlashing, params.BeaconConfig().MaxProposerSlashings+1)
	body := &types.BeaconBlockBody{
		Eth1Data:          beaconState.Eth1Data,
		ProposerSlashings: slashings,
	}
	_, err := state.ProcessOperations(context.Background(), beaconState, body)
	assert.ErrorContains(t, "number of proposer slashings (17) in block body exceeds allowed threshold of 16", err)
}

func TestProcessOperations_IncorrectOutstandingDeposits(t *testing.T) {
	beaconState, _ := testutil.DeterministicGenesisState(t, 64)
	beaconState.Eth1Data.DepositCount = beaconState.Eth1DepositIndex + 1

	body := &types.BeaconBlockBody{
		Eth1Data: beaconState.Eth1Data,
	}
	_, err := state.ProcessOperations(context.Background(), beaconState, body)
	assert.ErrorContains(t, "incorrect outstanding deposits in block body, wanted: 1, got: 0", err)
}
