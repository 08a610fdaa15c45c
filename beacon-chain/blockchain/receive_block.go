package blockchain

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/zephyrchain/zephyr/shared/copyutil"
	"github.com/zephyrchain/zephyr/types"
	"go.opencensus.io/trace"
)

// BlockReceiver interface defines the methods of chain service for receiving
// new blocks.
type BlockReceiver interface {
	ReceiveBlock(ctx context.Context, block *types.SignedBeaconBlock) error
}

// ReceiveBlock is a function that defines the operations that are performed on
// any block that comes in from regular sync:
//   1. Apply the fork choice block handler, running the state transition.
//   2. Recompute the canonical head and refresh the cached copy.
//   3. Prune the fork choice store when finalization advanced.
func (s *Service) ReceiveBlock(ctx context.Context, block *types.SignedBeaconBlock) error {
	ctx, span := trace.StartSpan(ctx, "blockchain.ReceiveBlock")
	defer span.End()

	if block == nil || block.Block == nil {
		return errors.New("nil block")
	}
	preFinalizedEpoch := s.store.FinalizedCheckpt().Epoch

	blockCopy := copyutil.CopySignedBeaconBlock(block)
	if err := s.store.OnBlock(ctx, blockCopy); err != nil {
		return errors.Wrap(err, "could not process block")
	}
	processedBlockCount.Inc()

	if err := s.updateHead(ctx); err != nil {
		log.WithError(err).Warn("Could not update head")
	}

	if s.store.FinalizedCheckpt().Epoch > preFinalizedEpoch {
		s.store.Prune(ctx)
	}

	log.WithFields(logrus.Fields{
		"slot":         blockCopy.Block.Slot,
		"attestations": len(blockCopy.Block.Body.Attestations),
		"deposits":     len(blockCopy.Block.Body.Deposits),
	}).Info("Finished applying block")
	return nil
}
