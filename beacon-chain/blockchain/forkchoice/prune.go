package forkchoice

import (
	"bytes"
	"context"

	"github.com/sirupsen/logrus"
	"github.com/zephyrchain/zephyr/beacon-chain/core/helpers"
	"go.opencensus.io/trace"
)

// Prune removes blocks and states that do not descend from the finalized
// checkpoint, along with checkpoint states from epochs before it. Latest
// votes and the delay queues are left alone, a vote for a pruned block simply
// stops contributing weight.
func (s *Store) Prune(ctx context.Context) {
	_, span := trace.StartSpan(ctx, "forkchoice.prune")
	defer span.End()

	s.lock.Lock()
	defer s.lock.Unlock()

	finalizedRoot := s.finalizedCheckpt.Root
	finalizedSlot := helpers.StartSlot(s.finalizedCheckpt.Epoch)

	pruned := make([][32]byte, 0)
	for root := range s.blocks {
		if bytes.Equal(root[:], finalizedRoot) {
			continue
		}
		ancestorRoot, err := s.ancestor(root, finalizedSlot)
		if err != nil || !bytes.Equal(ancestorRoot[:], finalizedRoot) {
			pruned = append(pruned, root)
		}
	}
	for _, root := range pruned {
		delete(s.blocks, root)
		delete(s.blockStates, root)
	}
	s.checkpointStates.PruneByEpoch(s.finalizedCheckpt.Epoch)

	log.WithFields(logrus.Fields{
		"prunedBlocks":    len(pruned),
		"remainingBlocks": len(s.blocks),
		"finalizedEpoch":  s.finalizedCheckpt.Epoch,
	}).Info("Pruned fork choice store")
}
