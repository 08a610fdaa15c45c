// Package blockchain defines the life cycle of the beacon chain service and
// the chain information it serves to the rest of the node.
package blockchain

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/go-ssz"
	"github.com/sirupsen/logrus"
	"github.com/zephyrchain/zephyr/beacon-chain/blockchain/forkchoice"
	"github.com/zephyrchain/zephyr/shared/copyutil"
	"github.com/zephyrchain/zephyr/shared/params"
	"github.com/zephyrchain/zephyr/types"
)

// Service represents a service that handles the internal
// logic of managing the full PoS beacon chain.
type Service struct {
	ctx         context.Context
	cancel      context.CancelFunc
	store       *forkchoice.Store
	genesisTime time.Time
	anchorRoot  [32]byte
	head        *head
	headLock    sync.RWMutex
}

// Config options for the chain service.
type Config struct {
	AnchorState *types.BeaconState
	AnchorBlock *types.SignedBeaconBlock
}

// NewService instantiates a new chain service instance that will
// be registered into a running beacon node. The anchor pair seeds the
// fork choice store, it is the genesis pair on a fresh start or a
// finalized pair when resuming from a checkpoint.
func NewService(ctx context.Context, cfg *Config) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("nil service config")
	}
	store, err := forkchoice.NewStore(cfg.AnchorState, cfg.AnchorBlock)
	if err != nil {
		return nil, errors.Wrap(err, "could not initialize fork choice store")
	}
	root, err := ssz.HashTreeRoot(cfg.AnchorBlock.Block)
	if err != nil {
		return nil, errors.Wrap(err, "could not tree hash anchor block")
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Service{
		ctx:         ctx,
		cancel:      cancel,
		store:       store,
		genesisTime: time.Unix(int64(cfg.AnchorState.GenesisTime), 0),
		anchorRoot:  root,
	}
	s.head = &head{
		slot:  cfg.AnchorBlock.Block.Slot,
		root:  root,
		block: copyutil.CopySignedBeaconBlock(cfg.AnchorBlock),
		state: copyutil.CopyBeaconState(cfg.AnchorState),
	}
	return s, nil
}

// Start fires up the chain service. The fork choice store advances with the
// wall clock from here on.
func (s *Service) Start() {
	log.WithFields(logrus.Fields{
		"slot":           s.store.Slot(),
		"justifiedEpoch": s.store.JustifiedCheckpt().Epoch,
		"finalizedEpoch": s.store.FinalizedCheckpt().Epoch,
	}).Info("Starting blockchain service")
	go s.runSlotTicker()
}

// Stop the blockchain service's main event loop and associated goroutines.
func (s *Service) Stop() error {
	defer s.cancel()
	log.Info("Stopping blockchain service")
	return nil
}

// Status always returns nil unless there is an error condition that causes the
// service to be unhealthy.
func (s *Service) Status() error {
	if time.Now().Before(s.genesisTime) {
		return errors.New("waiting for genesis time to arrive")
	}
	return nil
}

// runSlotTicker advances the fork choice store as wall clock slots tick by.
func (s *Service) runSlotTicker() {
	// Catch the store up to the wall clock before ticking slot by slot.
	if current := s.CurrentSlot(); current > s.store.Slot() {
		s.onTick(s.ctx, current)
	}

	slotDuration := time.Duration(params.BeaconConfig().SecondsPerSlot) * time.Second
	for {
		nextTick := s.genesisTime.Add(slotDuration * time.Duration(s.CurrentSlot()+1))
		select {
		case <-time.After(time.Until(nextTick)):
			s.onTick(s.ctx, s.CurrentSlot())
		case <-s.ctx.Done():
			log.Debug("Context closed, exiting slot ticker")
			return
		}
	}
}

// onTick moves the fork choice store to the given slot and refreshes the
// cached head, a promoted justified checkpoint or a replayed delayed object
// can change it.
func (s *Service) onTick(ctx context.Context, slot uint64) {
	if slot <= s.store.Slot() {
		return
	}
	if err := s.store.OnSlot(ctx, slot); err != nil {
		log.WithError(err).Error("Could not advance fork choice to the current slot")
		return
	}
	if err := s.updateHead(ctx); err != nil {
		log.WithError(err).Warn("Could not update head")
	}
}
