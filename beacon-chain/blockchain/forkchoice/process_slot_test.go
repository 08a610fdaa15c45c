package forkchoice

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/go-ssz"
	logTest "github.com/sirupsen/logrus/hooks/test"
	"github.com/zephyrchain/zephyr/beacon-chain/core/blocks"
	"github.com/zephyrchain/zephyr/beacon-chain/core/helpers"
	"github.com/zephyrchain/zephyr/shared/testutil"
	"github.com/zephyrchain/zephyr/shared/testutil/assert"
	"github.com/zephyrchain/zephyr/shared/testutil/require"
	"github.com/zephyrchain/zephyr/types"
)

func TestStore_OnSlotNotLater(t *testing.T) {
	ctx := context.Background()
	genesisState := &types.BeaconState{}
	genesisStateRoot, err := ssz.HashTreeRoot(genesisState)
	require.NoError(t, err)
	store, err := NewStore(genesisState, blocks.NewGenesisBlock(genesisStateRoot[:]))
	require.NoError(t, err)

	assert.ErrorContains(t, "slot 0 is not later than the current slot 0", store.OnSlot(ctx, 0))
	require.NoError(t, store.OnSlot(ctx, 5))
	assert.ErrorContains(t, "slot 3 is not later than the current slot 5", store.OnSlot(ctx, 3))
}

func TestStore_OnSlotPromotesBestJustified(t *testing.T) {
	ctx := context.Background()
	hook := logTest.NewGlobal()
	genesisState := &types.BeaconState{}
	genesisStateRoot, err := ssz.HashTreeRoot(genesisState)
	require.NoError(t, err)
	store, err := NewStore(genesisState, blocks.NewGenesisBlock(genesisStateRoot[:]))
	require.NoError(t, err)

	roots, err := blockTree1(store, []byte{'g'})
	require.NoError(t, err)

	store.bestJustifiedCheckpt = &types.Checkpoint{Epoch: 1, Root: roots[1]}

	// Mid epoch nothing moves.
	require.NoError(t, store.OnSlot(ctx, helpers.StartSlot(1)-1))
	assert.Equal(t, uint64(0), store.justifiedCheckpt.Epoch)

	// The epoch boundary promotes the best justified checkpoint.
	require.NoError(t, store.OnSlot(ctx, helpers.StartSlot(1)))
	assert.DeepEqual(t, &types.Checkpoint{Epoch: 1, Root: roots[1]}, store.justifiedCheckpt)
	testutil.AssertLogsContain(t, hook, "Promoted best justified checkpoint")
}

func TestStore_OnSlotReplaysDelayedAttestation(t *testing.T) {
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

	// Arriving during its own slot the attestation has to wait.
	require.NoError(t, store.OnAttestation(ctx, a))
	assert.Equal(t, 1, store.delayedSlotObjects)
	assert.Equal(t, 0, len(store.latestMessages))

	// The next slot replays it and the votes land.
	require.NoError(t, store.OnSlot(ctx, 1))
	assert.Equal(t, 0, store.delayedSlotObjects)
	committee, err := helpers.BeaconCommittee(genesisState, a.Data.Slot, a.Data.CommitteeIndex)
	require.NoError(t, err)
	assert.Equal(t, len(committee), len(store.latestMessages))
}
