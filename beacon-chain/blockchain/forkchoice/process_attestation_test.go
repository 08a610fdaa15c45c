package forkchoice

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/go-bitfield"
	"github.com/prysmaticlabs/go-ssz"
	"github.com/zephyrchain/zephyr/beacon-chain/core/blocks"
	"github.com/zephyrchain/zephyr/beacon-chain/core/helpers"
	"github.com/zephyrchain/zephyr/shared/bytesutil"
	"github.com/zephyrchain/zephyr/shared/params"
	"github.com/zephyrchain/zephyr/shared/testutil"
	"github.com/zephyrchain/zephyr/shared/testutil/assert"
	"github.com/zephyrchain/zephyr/shared/testutil/require"
	"github.com/zephyrchain/zephyr/types"
)

func TestStore_OnAttestationNilChecks(t *testing.T) {
	ctx := context.Background()
	genesisState := &types.BeaconState{}
	genesisStateRoot, err := ssz.HashTreeRoot(genesisState)
	require.NoError(t, err)
	store, err := NewStore(genesisState, blocks.NewGenesisBlock(genesisStateRoot[:]))
	require.NoError(t, err)

	assert.ErrorContains(t, "nil attestation", store.OnAttestation(ctx, nil))
	assert.ErrorContains(t, "nil attestation", store.OnAttestation(ctx, &types.Attestation{}))
	assert.ErrorContains(t, "nil attestation", store.OnAttestation(ctx, &types.Attestation{Data: &types.AttestationData{}}))
}

func TestStore_OnAttestationDropsStaleTarget(t *testing.T) {
	ctx := context.Background()
	genesisState := &types.BeaconState{}
	genesisStateRoot, err := ssz.HashTreeRoot(genesisState)
	require.NoError(t, err)
	store, err := NewStore(genesisState, blocks.NewGenesisBlock(genesisStateRoot[:]))
	require.NoError(t, err)

	store.slot = helpers.StartSlot(3)
	a := &types.Attestation{Data: &types.AttestationData{Target: &types.Checkpoint{Epoch: 0}}}
	require.NoError(t, store.OnAttestation(ctx, a))
	assert.Equal(t, 0, len(store.latestMessages))
	assert.Equal(t, 0, store.delayedSlotObjects)
	assert.Equal(t, 0, store.delayedBlockObjects)
}

func TestStore_OnAttestationDefersFutureTarget(t *testing.T) {
	ctx := context.Background()
	genesisState := &types.BeaconState{}
	genesisStateRoot, err := ssz.HashTreeRoot(genesisState)
	require.NoError(t, err)
	store, err := NewStore(genesisState, blocks.NewGenesisBlock(genesisStateRoot[:]))
	require.NoError(t, err)

	a := &types.Attestation{Data: &types.AttestationData{
		Slot:   helpers.StartSlot(1),
		Target: &types.Checkpoint{Epoch: 1},
	}}
	require.NoError(t, store.OnAttestation(ctx, a))
	assert.Equal(t, 1, store.delayedSlotObjects)
	assert.Equal(t, 0, len(store.latestMessages))
}

func TestStore_OnAttestationTargetEpochMismatch(t *testing.T) {
	ctx := context.Background()
	genesisState := &types.BeaconState{}
	genesisStateRoot, err := ssz.HashTreeRoot(genesisState)
	require.NoError(t, err)
	store, err := NewStore(genesisState, blocks.NewGenesisBlock(genesisStateRoot[:]))
	require.NoError(t, err)

	store.slot = helpers.StartSlot(1)
	a := &types.Attestation{Data: &types.AttestationData{
		Slot:   0,
		Target: &types.Checkpoint{Epoch: 1},
	}}
	err = store.OnAttestation(ctx, a)
	assert.ErrorIs(t, ErrTargetEpochMismatch, err)
	assert.ErrorContains(t, "target epoch 1, slot epoch 0", err)
}

func TestStore_OnAttestationDefersUnknownTargetRoot(t *testing.T) {
	ctx := context.Background()
	genesisState := &types.BeaconState{}
	genesisStateRoot, err := ssz.HashTreeRoot(genesisState)
	require.NoError(t, err)
	store, err := NewStore(genesisState, blocks.NewGenesisBlock(genesisStateRoot[:]))
	require.NoError(t, err)

	store.slot = 1
	a := &types.Attestation{Data: &types.AttestationData{
		Slot:   0,
		Target: &types.Checkpoint{Epoch: 0, Root: bytesutil.PadTo([]byte{'z'}, 32)},
	}}
	require.NoError(t, store.OnAttestation(ctx, a))
	assert.Equal(t, 1, store.delayedBlockObjects)
	assert.Equal(t, 0, len(store.latestMessages))
}

func TestStore_OnAttestationDefersUnknownVotedBlock(t *testing.T) {
	ctx := context.Background()
	genesisState := &types.BeaconState{}
	genesisStateRoot, err := ssz.HashTreeRoot(genesisState)
	require.NoError(t, err)
	genesisBlk := blocks.NewGenesisBlock(genesisStateRoot[:])
	anchorRoot, err := ssz.HashTreeRoot(genesisBlk.Block)
	require.NoError(t, err)
	store, err := NewStore(genesisState, genesisBlk)
	require.NoError(t, err)

	store.slot = 1
	a := &types.Attestation{Data: &types.AttestationData{
		Slot:            0,
		BeaconBlockRoot: bytesutil.PadTo([]byte{'z'}, 32),
		Target:          &types.Checkpoint{Epoch: 0, Root: anchorRoot[:]},
	}}
	require.NoError(t, store.OnAttestation(ctx, a))
	assert.Equal(t, 1, store.delayedBlockObjects)
	assert.Equal(t, 0, len(store.latestMessages))
}

func TestStore_OnAttestationForFutureBlock(t *testing.T) {
	ctx := context.Background()
	genesisState := &types.BeaconState{}
	genesisStateRoot, err := ssz.HashTreeRoot(genesisState)
	require.NoError(t, err)
	genesisBlk := blocks.NewGenesisBlock(genesisStateRoot[:])
	anchorRoot, err := ssz.HashTreeRoot(genesisBlk.Block)
	require.NoError(t, err)
	store, err := NewStore(genesisState, genesisBlk)
	require.NoError(t, err)

	// A block from slot 5 cannot be voted for by an attestation from slot 3.
	blk := &types.BeaconBlock{Slot: 5, ParentRoot: anchorRoot[:]}
	blkRoot, err := ssz.HashTreeRoot(blk)
	require.NoError(t, err)
	store.blocks[blkRoot] = &types.SignedBeaconBlock{Block: blk}

	store.slot = 6
	a := &types.Attestation{Data: &types.AttestationData{
		Slot:            3,
		BeaconBlockRoot: blkRoot[:],
		Target:          &types.Checkpoint{Epoch: 0, Root: anchorRoot[:]},
	}}
	err = store.OnAttestation(ctx, a)
	assert.ErrorIs(t, ErrAttestationForFutureBlock, err)
	assert.ErrorContains(t, "block slot 5 > attestation slot 3", err)
}

func TestStore_OnAttestationDefersOwnSlot(t *testing.T) {
	ctx := context.Background()
	genesisState := &types.BeaconState{}
	genesisStateRoot, err := ssz.HashTreeRoot(genesisState)
	require.NoError(t, err)
	genesisBlk := blocks.NewGenesisBlock(genesisStateRoot[:])
	anchorRoot, err := ssz.HashTreeRoot(genesisBlk.Block)
	require.NoError(t, err)
	store, err := NewStore(genesisState, genesisBlk)
	require.NoError(t, err)

	// An attestation from the current slot only counts from the next one.
	store.slot = 1
	a := &types.Attestation{Data: &types.AttestationData{
		Slot:            1,
		BeaconBlockRoot: anchorRoot[:],
		Target:          &types.Checkpoint{Epoch: 0, Root: anchorRoot[:]},
	}}
	require.NoError(t, store.OnAttestation(ctx, a))
	assert.Equal(t, 1, store.delayedSlotObjects)
	assert.Equal(t, 0, len(store.latestMessages))
}

func TestStore_OnAttestationBadAggregationBits(t *testing.T) {
	ctx := context.Background()
	genesisState, privs := testutil.DeterministicGenesisState(t, 64)
	genesisStateRoot, err := ssz.HashTreeRoot(genesisState)
	require.NoError(t, err)
	store, err := NewStore(genesisState, blocks.NewGenesisBlock(genesisStateRoot[:]))
	require.NoError(t, err)

	atts, err := testutil.GenerateAttestations(genesisState, privs, 1, 0)
	require.NoError(t, err)
	require.Equal(t, 1, len(atts))
	a := atts[0]
	a.AggregationBits = bitfield.NewBitlist(5)

	require.NoError(t, store.OnSlot(ctx, 1))
	err = store.OnAttestation(ctx, a)
	assert.ErrorContains(t, "could not verify aggregation bitfield", err)
}

func TestStore_OnAttestationBadSignature(t *testing.T) {
	ctx := context.Background()
	genesisState, privs := testutil.DeterministicGenesisState(t, 64)
	genesisStateRoot, err := ssz.HashTreeRoot(genesisState)
	require.NoError(t, err)
	store, err := NewStore(genesisState, blocks.NewGenesisBlock(genesisStateRoot[:]))
	require.NoError(t, err)

	atts, err := testutil.GenerateAttestations(genesisState, privs, 1, 0)
	require.NoError(t, err)
	require.Equal(t, 1, len(atts))
	a := atts[0]
	a.Signature = bytesutil.PadTo([]byte{'x'}, 96)

	require.NoError(t, store.OnSlot(ctx, 1))
	err = store.OnAttestation(ctx, a)
	assert.ErrorContains(t, "could not verify indexed attestation", err)
}

func TestStore_OnAttestationOK(t *testing.T) {
	ctx := context.Background()
	genesisState, privs := testutil.DeterministicGenesisState(t, 64)
	genesisStateRoot, err := ssz.HashTreeRoot(genesisState)
	require.NoError(t, err)
	genesisBlk := blocks.NewGenesisBlock(genesisStateRoot[:])
	anchorRoot, err := ssz.HashTreeRoot(genesisBlk.Block)
	require.NoError(t, err)
	store, err := NewStore(genesisState, genesisBlk)
	require.NoError(t, err)

	atts, err := testutil.GenerateAttestations(genesisState, privs, 1, 0)
	require.NoError(t, err)
	require.Equal(t, 1, len(atts))
	a := atts[0]

	require.NoError(t, store.OnSlot(ctx, 1))
	require.NoError(t, store.OnAttestation(ctx, a))

	committee, err := helpers.BeaconCommittee(genesisState, a.Data.Slot, a.Data.CommitteeIndex)
	require.NoError(t, err)
	assert.Equal(t, len(committee), len(store.latestMessages))
	for _, i := range committee {
		msg := store.latestMessages[i]
		require.NotNil(t, msg)
		assert.Equal(t, uint64(0), msg.Epoch)
		assert.Equal(t, anchorRoot, msg.Root)
	}

	balance, err := store.latestAttestingBalance(ctx, anchorRoot)
	require.NoError(t, err)
	assert.Equal(t, uint64(len(committee))*params.BeaconConfig().MaxEffectiveBalance, balance)

	head, err := store.Head(ctx)
	require.NoError(t, err)
	assert.DeepEqual(t, anchorRoot[:], head)
}

func TestStore_OnAttestationKeepsNewerMessage(t *testing.T) {
	ctx := context.Background()
	genesisState, privs := testutil.DeterministicGenesisState(t, 64)
	genesisStateRoot, err := ssz.HashTreeRoot(genesisState)
	require.NoError(t, err)
	store, err := NewStore(genesisState, blocks.NewGenesisBlock(genesisStateRoot[:]))
	require.NoError(t, err)

	atts, err := testutil.GenerateAttestations(genesisState, privs, 1, 0)
	require.NoError(t, err)
	require.Equal(t, 1, len(atts))
	a := atts[0]

	require.NoError(t, store.OnSlot(ctx, 1))
	require.NoError(t, store.OnAttestation(ctx, a))

	committee, err := helpers.BeaconCommittee(genesisState, a.Data.Slot, a.Data.CommitteeIndex)
	require.NoError(t, err)
	require.NotEqual(t, 0, len(committee))

	// A message from a later epoch never downgrades to an older target.
	newer := &LatestMessage{Epoch: 5, Root: bytesutil.ToBytes32([]byte{'y'})}
	store.latestMessages[committee[0]] = newer
	require.NoError(t, store.OnAttestation(ctx, a))
	assert.DeepEqual(t, newer, store.latestMessages[committee[0]])
}

func TestStore_CheckpointState(t *testing.T) {
	ctx := context.Background()
	genesisState, _ := testutil.DeterministicGenesisState(t, 64)
	genesisStateRoot, err := ssz.HashTreeRoot(genesisState)
	require.NoError(t, err)
	genesisBlk := blocks.NewGenesisBlock(genesisStateRoot[:])
	anchorRoot, err := ssz.HashTreeRoot(genesisBlk.Block)
	require.NoError(t, err)
	store, err := NewStore(genesisState, genesisBlk)
	require.NoError(t, err)

	// The anchor checkpoint state is seeded at construction.
	cached, err := store.checkpointState(ctx, &types.Checkpoint{Epoch: 0, Root: anchorRoot[:]})
	require.NoError(t, err)
	assert.Equal(t, genesisState.Slot, cached.Slot)

	// A later epoch checkpoint replays empty slots up to its start slot on a
	// copy, the stored block state stays put.
	advanced, err := store.checkpointState(ctx, &types.Checkpoint{Epoch: 1, Root: anchorRoot[:]})
	require.NoError(t, err)
	assert.Equal(t, helpers.StartSlot(1), advanced.Slot)
	assert.Equal(t, uint64(0), store.blockStates[anchorRoot].Slot)

	// The advanced state is memoized for the next caller.
	again, err := store.checkpointState(ctx, &types.Checkpoint{Epoch: 1, Root: anchorRoot[:]})
	require.NoError(t, err)
	assert.Equal(t, helpers.StartSlot(1), again.Slot)

	// Unknown checkpoint roots surface as errors.
	_, err = store.checkpointState(ctx, &types.Checkpoint{Epoch: 1, Root: bytesutil.PadTo([]byte{'z'}, 32)})
	assert.ErrorIs(t, errUnknownBlock, err)
}
