package blockchain

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/zephyrchain/zephyr/shared/bytesutil"
	"github.com/zephyrchain/zephyr/types"
	"go.opencensus.io/trace"
)

// head is the cached canonical head, it lets chain info requests answer
// without recomputing fork choice.
type head struct {
	slot  uint64
	root  [32]byte
	block *types.SignedBeaconBlock
	state *types.BeaconState
}

// updateHead resolves the canonical head from the fork choice store and
// refreshes the cached copy when it changed.
func (s *Service) updateHead(ctx context.Context) error {
	ctx, span := trace.StartSpan(ctx, "blockchain.updateHead")
	defer span.End()

	root, err := s.store.Head(ctx)
	if err != nil {
		return errors.Wrap(err, "could not get head from fork choice")
	}
	newRoot := bytesutil.ToBytes32(root)
	if newRoot == s.headRoot() {
		return nil
	}

	newBlock := s.store.Block(newRoot)
	if newBlock == nil || newBlock.Block == nil {
		return errors.Errorf("head %#x has no block in the fork choice store", bytesutil.Trunc(root))
	}
	newState := s.store.BlockState(newRoot)
	if newState == nil {
		return errors.Errorf("head %#x has no state in the fork choice store", bytesutil.Trunc(root))
	}

	s.headLock.Lock()
	defer s.headLock.Unlock()
	if s.head != nil && bytesutil.ToBytes32(newBlock.Block.ParentRoot) != s.head.root {
		log.WithFields(logrus.Fields{
			"oldSlot": s.head.slot,
			"newSlot": newBlock.Block.Slot,
			"oldRoot": fmt.Sprintf("%#x", bytesutil.Trunc(s.head.root[:])),
			"newRoot": fmt.Sprintf("%#x", bytesutil.Trunc(newRoot[:])),
		}).Debug("Chain reorg occurred")
		chainReorgCount.Inc()
	}
	s.head = &head{
		slot:  newBlock.Block.Slot,
		root:  newRoot,
		block: newBlock,
		state: newState,
	}
	beaconHeadSlot.Set(float64(newBlock.Block.Slot))
	return nil
}

// headRoot returns the root of the cached head block.
func (s *Service) headRoot() [32]byte {
	s.headLock.RLock()
	defer s.headLock.RUnlock()
	if s.head == nil {
		return s.anchorRoot
	}
	return s.head.root
}
