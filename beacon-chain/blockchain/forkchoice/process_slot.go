package forkchoice

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/zephyrchain/zephyr/beacon-chain/core/helpers"
	"github.com/zephyrchain/zephyr/shared/copyutil"
	"go.opencensus.io/trace"
)

// OnSlot advances the store to the given slot. At an epoch boundary a best
// justified checkpoint from a later epoch than the justified checkpoint is
// promoted. Objects waiting in the until-slot queue for a slot at or before
// the new one are replayed before returning.
//
// Spec pseudocode definition:
//   def on_tick(store: Store, time: uint64) -> None:
//    previous_slot = get_current_slot(store)
//
//    # update store time
//    store.time = time
//
//    current_slot = get_current_slot(store)
//    # Not a new epoch, return
//    if not (current_slot > previous_slot and compute_slots_since_epoch_start(current_slot) == 0):
//        return
//    # Update store.justified_checkpoint if a better checkpoint is known
//    if store.best_justified_checkpoint.epoch > store.justified_checkpoint.epoch:
//        store.justified_checkpoint = store.best_justified_checkpoint
func (s *Store) OnSlot(ctx context.Context, slot uint64) error {
	ctx, span := trace.StartSpan(ctx, "forkchoice.onSlot")
	defer span.End()

	s.lock.Lock()
	defer s.lock.Unlock()

	if slot <= s.slot {
		return fmt.Errorf("slot %d is not later than the current slot %d", slot, s.slot)
	}
	s.slot = slot

	if helpers.IsEpochStart(slot) && s.bestJustifiedCheckpt.Epoch > s.justifiedCheckpt.Epoch {
		s.justifiedCheckpt = copyutil.CopyCheckpoint(s.bestJustifiedCheckpt)
		log.WithFields(logrus.Fields{
			"epoch": s.justifiedCheckpt.Epoch,
		}).Info("Promoted best justified checkpoint")
	}

	s.retryDelayed(ctx, s.dueBySlot(slot))
	return nil
}
