package cache

import (
	"testing"

	"github.com/zephyrchain/zephyr/shared/bytesutil"
	"github.com/zephyrchain/zephyr/shared/testutil/assert"
	"github.com/zephyrchain/zephyr/shared/testutil/require"
	"github.com/zephyrchain/zephyr/types"
)

func TestCheckpointStateCache_StateByCheckpoint(t *testing.T) {
	c, err := NewCheckpointStateCache()
	require.NoError(t, err)

	cp1 := &types.Checkpoint{Epoch: 1, Root: bytesutil.PadTo([]byte{'A'}, 32)}
	st1 := &types.BeaconState{Slot: 64}

	state, err := c.StateByCheckpoint(cp1)
	require.NoError(t, err)
	assert.Equal(t, (*types.BeaconState)(nil), state, "Expected state not to exist in empty cache")

	require.NoError(t, c.AddCheckpointState(&CheckpointState{
		Checkpoint: cp1,
		State:      st1,
	}))
	state, err = c.StateByCheckpoint(cp1)
	require.NoError(t, err)
	assert.DeepEqual(t, st1, state, "Incorrect state returned")

	cp2 := &types.Checkpoint{Epoch: 2, Root: bytesutil.PadTo([]byte{'B'}, 32)}
	st2 := &types.BeaconState{Slot: 128}
	require.NoError(t, c.AddCheckpointState(&CheckpointState{
		Checkpoint: cp2,
		State:      st2,
	}))
	state, err = c.StateByCheckpoint(cp2)
	require.NoError(t, err)
	assert.DeepEqual(t, st2, state, "Incorrect state returned")

	state, err = c.StateByCheckpoint(cp1)
	require.NoError(t, err)
	assert.DeepEqual(t, st1, state, "Incorrect state returned")
}

func TestCheckpointStateCache_NilEntry(t *testing.T) {
	c, err := NewCheckpointStateCache()
	require.NoError(t, err)

	require.ErrorIs(t, ErrNilCheckpointState, c.AddCheckpointState(nil))
	require.ErrorIs(t, ErrNilCheckpointState, c.AddCheckpointState(&CheckpointState{
		Checkpoint: &types.Checkpoint{Epoch: 1, Root: bytesutil.PadTo([]byte{'A'}, 32)},
	}))
}

func TestCheckpointStateCache_MaxSizeEviction(t *testing.T) {
	c, err := NewCheckpointStateCache()
	require.NoError(t, err)

	var first *types.Checkpoint
	for i := uint64(0); i < uint64(maxCheckpointStateSize)+1; i++ {
		cp := &types.Checkpoint{Epoch: i, Root: bytesutil.PadTo(bytesutil.Bytes8(i), 32)}
		require.NoError(t, c.AddCheckpointState(&CheckpointState{
			Checkpoint: cp,
			State:      &types.BeaconState{Slot: i * 32},
		}))
		if i == 0 {
			first = cp
		}
	}

	assert.Equal(t, maxCheckpointStateSize, len(c.CheckpointStateKeys()), "Incorrect cache size")

	state, err := c.StateByCheckpoint(first)
	require.NoError(t, err)
	assert.Equal(t, (*types.BeaconState)(nil), state, "Expected oldest entry to be evicted")
}

func TestCheckpointStateCache_PruneByEpoch(t *testing.T) {
	c, err := NewCheckpointStateCache()
	require.NoError(t, err)

	for i := uint64(1); i <= 3; i++ {
		require.NoError(t, c.AddCheckpointState(&CheckpointState{
			Checkpoint: &types.Checkpoint{Epoch: i, Root: bytesutil.PadTo(bytesutil.Bytes8(i), 32)},
			State:      &types.BeaconState{Slot: i * 32},
		}))
	}

	c.PruneByEpoch(3)
	assert.Equal(t, 1, len(c.CheckpointStateKeys()), "Incorrect cache size after prune")

	state, err := c.StateByCheckpoint(&types.Checkpoint{Epoch: 3, Root: bytesutil.PadTo(bytesutil.Bytes8(3), 32)})
	require.NoError(t, err)
	assert.Equal(t, uint64(96), state.Slot, "Wrong entry survived the prune")
}
