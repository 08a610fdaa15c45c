package blockchain

import (
	"context"
	"testing"
	"time"

	"github.com/prysmaticlabs/go-ssz"
	"github.com/zephyrchain/zephyr/shared/params"
	"github.com/zephyrchain/zephyr/shared/testutil/assert"
	"github.com/zephyrchain/zephyr/shared/testutil/require"
	"github.com/zephyrchain/zephyr/types"
)

// Ensure Service implements chain info interfaces.
var _ = ChainInfoFetcher(&Service{})
var _ = TimeFetcher(&Service{})
var _ = BlockReceiver(&Service{})
var _ = AttestationReceiver(&Service{})

func TestService_HeadAccessors(t *testing.T) {
	s, genesisBlk := minimalService(t, 0)
	blkRoot, err := ssz.HashTreeRoot(genesisBlk.Block)
	require.NoError(t, err)

	assert.Equal(t, uint64(0), s.HeadSlot())
	assert.DeepEqual(t, blkRoot[:], s.HeadRoot())
	assert.DeepEqual(t, genesisBlk, s.HeadBlock())

	headState, err := s.HeadState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), headState.Slot)
}

func TestService_HeadAccessorsNoHead(t *testing.T) {
	s := &Service{}

	assert.Equal(t, uint64(0), s.HeadSlot())
	assert.DeepEqual(t, make([]byte, 32), s.HeadRoot())
	if s.HeadBlock() != nil {
		t.Error("Expected nil head block without a head")
	}
	_, err := s.HeadState(context.Background())
	assert.ErrorContains(t, "head state does not exist", err)
}

func TestService_CheckpointAccessors(t *testing.T) {
	s, genesisBlk := minimalService(t, 0)
	blkRoot, err := ssz.HashTreeRoot(genesisBlk.Block)
	require.NoError(t, err)

	want := &types.Checkpoint{Epoch: 0, Root: blkRoot[:]}
	assert.DeepEqual(t, want, s.FinalizedCheckpt())
	assert.DeepEqual(t, want, s.CurrentJustifiedCheckpt())
}

func TestService_GenesisTime(t *testing.T) {
	s, _ := minimalService(t, 1606824023)
	assert.Equal(t, int64(1606824023), s.GenesisTime().Unix())
}

func TestService_CurrentSlot(t *testing.T) {
	genesisTime := uint64(time.Now().Unix()) - 5*params.BeaconConfig().SecondsPerSlot
	s, _ := minimalService(t, genesisTime)
	assert.Equal(t, uint64(5), s.CurrentSlot())

	// Before genesis the current slot pins to zero.
	s.genesisTime = time.Now().Add(time.Hour)
	assert.Equal(t, uint64(0), s.CurrentSlot())
}

func TestService_CurrentFork(t *testing.T) {
	want := &types.Fork{
		PreviousVersion: params.BeaconConfig().GenesisForkVersion,
		CurrentVersion:  params.BeaconConfig().GenesisForkVersion,
		Epoch:           0,
	}

	// A bare anchor state carries no fork, the genesis fork stands in.
	s, _ := minimalService(t, 0)
	assert.DeepEqual(t, want, s.CurrentFork())

	full, _, _ := setupService(t)
	assert.DeepEqual(t, want, full.CurrentFork())
}

func TestService_HeadStatus(t *testing.T) {
	s, genesisBlk := minimalService(t, 0)
	blkRoot, err := ssz.HashTreeRoot(genesisBlk.Block)
	require.NoError(t, err)

	status := s.HeadStatus()
	assert.DeepEqual(t, params.BeaconConfig().GenesisForkVersion, status.ForkVersion)
	assert.DeepEqual(t, blkRoot[:], status.FinalizedRoot)
	assert.Equal(t, uint64(0), status.FinalizedEpoch)
	assert.DeepEqual(t, blkRoot[:], status.HeadRoot)
	assert.Equal(t, uint64(0), status.HeadSlot)
}
