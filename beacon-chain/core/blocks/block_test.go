package blocks_test

import (
	"testing"

	"github.com/zephyrchain/zephyr/beacon-chain/core/blocks"
	"github.com/zephyrchain/zephyr/shared/params"
	"github.com/zephyrchain/zephyr/shared/testutil/assert"
	"github.com/zephyrchain/zephyr/shared/testutil/require"
)

func TestNewGenesisBlock(t *testing.T) {
	stateRoot := []byte{'t', 'e', 's', 't'}
	b := blocks.NewGenesisBlock(stateRoot)
	require.NotNil(t, b.Block)

	assert.Equal(t, uint64(0), b.Block.Slot)
	assert.DeepEqual(t, stateRoot, b.Block.StateRoot)
	assert.DeepEqual(t, params.BeaconConfig().ZeroHash[:], b.Block.ParentRoot)
	assert.DeepEqual(t, params.BeaconConfig().EmptySignature[:], b.Signature)
}
