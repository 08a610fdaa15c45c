package blockchain

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/zephyrchain/zephyr/shared/bytesutil"
	"github.com/zephyrchain/zephyr/shared/copyutil"
	"github.com/zephyrchain/zephyr/shared/params"
	"github.com/zephyrchain/zephyr/types"
)

// ChainInfoFetcher defines a common interface for methods in blockchain service
// which directly retrieves chain info related data.
type ChainInfoFetcher interface {
	HeadFetcher
	FinalizationFetcher
}

// TimeFetcher retrieves the beacon chain data that's related to time.
type TimeFetcher interface {
	GenesisTime() time.Time
	CurrentSlot() uint64
}

// HeadFetcher defines a common interface for methods in blockchain service
// which directly retrieves head related data.
type HeadFetcher interface {
	HeadSlot() uint64
	HeadRoot() []byte
	HeadBlock() *types.SignedBeaconBlock
	HeadState(ctx context.Context) (*types.BeaconState, error)
}

// FinalizationFetcher defines a common interface for methods in blockchain
// service which directly retrieves finalization related data.
type FinalizationFetcher interface {
	FinalizedCheckpt() *types.Checkpoint
	CurrentJustifiedCheckpt() *types.Checkpoint
}

// HeadStatus summarizes the canonical chain view a node advertises to its
// peers during handshakes.
type HeadStatus struct {
	ForkVersion    []byte
	FinalizedRoot  []byte
	FinalizedEpoch uint64
	HeadRoot       []byte
	HeadSlot       uint64
}

// HeadSlot returns the slot of the cached head block.
func (s *Service) HeadSlot() uint64 {
	s.headLock.RLock()
	defer s.headLock.RUnlock()
	if s.head == nil {
		return 0
	}
	return s.head.slot
}

// HeadRoot returns the root of the cached head block.
func (s *Service) HeadRoot() []byte {
	root := s.headRoot()
	return root[:]
}

// HeadBlock returns a copy of the cached head block.
func (s *Service) HeadBlock() *types.SignedBeaconBlock {
	s.headLock.RLock()
	defer s.headLock.RUnlock()
	if s.head == nil {
		return nil
	}
	return copyutil.CopySignedBeaconBlock(s.head.block)
}

// HeadState returns a copy of the post state of the cached head block.
func (s *Service) HeadState(_ context.Context) (*types.BeaconState, error) {
	s.headLock.RLock()
	defer s.headLock.RUnlock()
	if s.head == nil || s.head.state == nil {
		return nil, errors.New("head state does not exist")
	}
	return copyutil.CopyBeaconState(s.head.state), nil
}

// FinalizedCheckpt returns the latest finalized checkpoint of the fork choice store.
func (s *Service) FinalizedCheckpt() *types.Checkpoint {
	return s.store.FinalizedCheckpt()
}

// CurrentJustifiedCheckpt returns the current justified checkpoint of the fork
// choice store.
func (s *Service) CurrentJustifiedCheckpt() *types.Checkpoint {
	return s.store.JustifiedCheckpt()
}

// GenesisTime returns the genesis time of the beacon chain.
func (s *Service) GenesisTime() time.Time {
	return s.genesisTime
}

// CurrentSlot returns the current slot based on the genesis time.
func (s *Service) CurrentSlot() uint64 {
	now := time.Now().Unix()
	genesis := s.genesisTime.Unix()
	if now < genesis {
		return 0
	}
	return uint64(now-genesis) / params.BeaconConfig().SecondsPerSlot
}

// CurrentFork returns the fork of the head state.
func (s *Service) CurrentFork() *types.Fork {
	s.headLock.RLock()
	defer s.headLock.RUnlock()
	if s.head == nil || s.head.state == nil || s.head.state.Fork == nil {
		return &types.Fork{
			PreviousVersion: params.BeaconConfig().GenesisForkVersion,
			CurrentVersion:  params.BeaconConfig().GenesisForkVersion,
		}
	}
	return &types.Fork{
		PreviousVersion: bytesutil.SafeCopyBytes(s.head.state.Fork.PreviousVersion),
		CurrentVersion:  bytesutil.SafeCopyBytes(s.head.state.Fork.CurrentVersion),
		Epoch:           s.head.state.Fork.Epoch,
	}
}

// HeadStatus assembles the handshake summary for the current canonical head.
func (s *Service) HeadStatus() *HeadStatus {
	finalized := s.store.FinalizedCheckpt()
	fork := s.CurrentFork()

	s.headLock.RLock()
	defer s.headLock.RUnlock()
	status := &HeadStatus{
		ForkVersion:    fork.CurrentVersion,
		FinalizedRoot:  bytesutil.SafeCopyBytes(finalized.Root),
		FinalizedEpoch: finalized.Epoch,
	}
	if s.head != nil {
		status.HeadRoot = bytesutil.SafeCopyBytes(s.head.root[:])
		status.HeadSlot = s.head.slot
	}
	return status
}
