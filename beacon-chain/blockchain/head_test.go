package blockchain

import (
	"bytes"
	"context"
	"testing"

	"github.com/prysmaticlabs/go-ssz"
	logTest "github.com/sirupsen/logrus/hooks/test"
	"github.com/zephyrchain/zephyr/shared/testutil"
	"github.com/zephyrchain/zephyr/shared/testutil/assert"
	"github.com/zephyrchain/zephyr/shared/testutil/require"
)

func TestService_UpdateHeadNoChange(t *testing.T) {
	s, _, _ := setupService(t)
	anchorRoot := s.HeadRoot()

	require.NoError(t, s.updateHead(context.Background()))
	assert.DeepEqual(t, anchorRoot, s.HeadRoot())
}

func TestService_ChainReorgDetected(t *testing.T) {
	hook := logTest.NewGlobal()
	ctx := context.Background()
	s, genesisState, privKeys := setupService(t)

	// Two competing forks off the anchor, both without any votes.
	blkA, err := testutil.GenerateFullBlock(genesisState, privKeys, &testutil.BlockGenConfig{}, 1)
	require.NoError(t, err)
	rootA, err := ssz.HashTreeRoot(blkA.Block)
	require.NoError(t, err)
	blkB, err := testutil.GenerateFullBlock(genesisState, privKeys, &testutil.BlockGenConfig{}, 2)
	require.NoError(t, err)
	rootB, err := ssz.HashTreeRoot(blkB.Block)
	require.NoError(t, err)

	// Without votes the tie breaks toward the larger root. Deliver the
	// losing block first so the winner arrives as a non descendant of the
	// current head.
	first, second, want := blkA, blkB, rootB
	if bytes.Compare(rootA[:], rootB[:]) > 0 {
		first, second, want = blkB, blkA, rootA
	}

	s.onTick(ctx, 2)
	require.NoError(t, s.ReceiveBlock(ctx, first))
	require.NoError(t, s.ReceiveBlock(ctx, second))

	assert.DeepEqual(t, want[:], s.HeadRoot())
	testutil.AssertLogsContain(t, hook, "Chain reorg occurred")
}
