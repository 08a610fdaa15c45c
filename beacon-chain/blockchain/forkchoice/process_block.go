package forkchoice

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/go-ssz"
	"github.com/sirupsen/logrus"
	"github.com/zephyrchain/zephyr/beacon-chain/core/helpers"
	"github.com/zephyrchain/zephyr/beacon-chain/core/state"
	"github.com/zephyrchain/zephyr/shared/bytesutil"
	"github.com/zephyrchain/zephyr/shared/copyutil"
	"github.com/zephyrchain/zephyr/shared/params"
	"github.com/zephyrchain/zephyr/types"
	"go.opencensus.io/trace"
)

// OnBlock is called when a block is received. It runs the regular state
// transition on the block and updates the fork choice store. A block whose
// parent is unknown or whose slot has not started is parked and replayed
// later, a block at or before the finalized slot is accepted as a no-op.
// Whatever the inserted block frees from the delay queues is replayed before
// returning.
//
// Spec pseudocode definition:
//   def on_block(store: Store, signed_block: SignedBeaconBlock) -> None:
//    block = signed_block.message
//    # Parent block must be known
//    assert block.parent_root in store.block_states
//    # Make a copy of the state to avoid mutability issues
//    pre_state = copy(store.block_states[block.parent_root])
//    # Blocks cannot be in the future. If they are, their consideration must be delayed until they are in the past.
//    assert get_current_slot(store) >= block.slot
//    # Check that block is later than the finalized epoch slot (optimization to reduce calls to get_ancestor)
//    finalized_slot = compute_start_slot_at_epoch(store.finalized_checkpoint.epoch)
//    assert block.slot > finalized_slot
//    # Check block is a descendant of the finalized block at the checkpoint finalized slot
//    assert get_ancestor(store, block.parent_root, finalized_slot) == store.finalized_checkpoint.root
//    # Check the block is valid and compute the post-state
//    state = state_transition(pre_state, signed_block, True)
//    # Add new block to the store
//    store.blocks[hash_tree_root(block)] = block
//    # Add new state for this block to the store
//    store.block_states[hash_tree_root(block)] = state
//
//    # Update justified checkpoint
//    if state.current_justified_checkpoint.epoch > store.justified_checkpoint.epoch:
//        if state.current_justified_checkpoint.epoch > store.best_justified_checkpoint.epoch:
//            store.best_justified_checkpoint = state.current_justified_checkpoint
//        if should_update_justified_checkpoint(store, state.current_justified_checkpoint):
//            store.justified_checkpoint = state.current_justified_checkpoint
//
//    # Update finalized checkpoint
//    if state.finalized_checkpoint.epoch > store.finalized_checkpoint.epoch:
//        store.finalized_checkpoint = state.finalized_checkpoint
//        finalized_slot = compute_start_slot_at_epoch(store.finalized_checkpoint.epoch)
//
//        # Update justified if new justified is later than store justified
//        # or if store justified is not in chain with finalized checkpoint
//        if (
//            state.current_justified_checkpoint.epoch > store.justified_checkpoint.epoch
//            or get_ancestor(store, store.justified_checkpoint.root, finalized_slot) != store.finalized_checkpoint.root
//        ):
//            store.justified_checkpoint = state.current_justified_checkpoint
func (s *Store) OnBlock(ctx context.Context, signed *types.SignedBeaconBlock) error {
	ctx, span := trace.StartSpan(ctx, "forkchoice.onBlock")
	defer span.End()

	if signed == nil || signed.Block == nil {
		return errors.New("nil block")
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	freed, err := s.processBlock(ctx, signed)
	if err != nil {
		return err
	}
	s.retryDelayed(ctx, freed)
	return nil
}

// processBlock runs the block ladder under the store lock and returns the
// objects an insertion freed from the until-block queue.
func (s *Store) processBlock(ctx context.Context, signed *types.SignedBeaconBlock) ([]*delayedObject, error) {
	b := signed.Block

	// Blocks at or before the finalized slot are either already part of the
	// finalized chain or can never become canonical. Accepting them as a
	// no-op keeps redelivery idempotent.
	finalizedSlot := helpers.StartSlot(s.finalizedCheckpt.Epoch)
	if b.Slot <= finalizedSlot {
		return nil, nil
	}

	parentRoot := bytesutil.ToBytes32(b.ParentRoot)
	preState, ok := s.blockStates[parentRoot]
	if !ok {
		s.deferUntilBlock(&delayedObject{block: signed}, parentRoot)
		return nil, nil
	}

	// Blocks from a slot the store has not reached wait for their slot.
	if s.slot < b.Slot {
		s.deferUntilSlot(&delayedObject{block: signed}, b.Slot)
		return nil, nil
	}

	ancestorRoot, err := s.ancestor(parentRoot, finalizedSlot)
	if err != nil {
		return nil, errors.Wrap(err, "could not get finalized ancestor of block")
	}
	if !bytes.Equal(ancestorRoot[:], s.finalizedCheckpt.Root) {
		return nil, errors.Wrapf(ErrNotDescendantOfFinalized, "block from slot %d, %#x != %#x",
			b.Slot, bytesutil.Trunc(ancestorRoot[:]), bytesutil.Trunc(s.finalizedCheckpt.Root))
	}

	root, err := ssz.HashTreeRoot(b)
	if err != nil {
		return nil, errors.Wrapf(err, "could not tree hash block from slot %d", b.Slot)
	}
	log.WithFields(logrus.Fields{
		"slot": b.Slot,
		"root": fmt.Sprintf("0x%s...", hex.EncodeToString(root[:])[:8]),
	}).Info("Executing state transition on block")

	postState, err := state.ExecuteStateTransition(ctx, copyutil.CopyBeaconState(preState), signed)
	if err != nil {
		return nil, errors.Wrap(err, "could not execute state transition")
	}

	s.blockStates[root] = postState
	s.blocks[root] = signed

	if cpt := postState.CurrentJustifiedCheckpoint; cpt != nil && cpt.Epoch > s.justifiedCheckpt.Epoch {
		if err := s.updateJustified(cpt); err != nil {
			return nil, err
		}
	}
	if cpt := postState.FinalizedCheckpoint; cpt != nil && cpt.Epoch > s.finalizedCheckpt.Epoch {
		s.updateFinalized(postState)
	}

	// Epoch boundary bookkeeping such as reporting epoch summaries.
	if postState.Slot >= s.nextEpochBoundarySlot {
		reportEpochMetrics(postState)
		s.nextEpochBoundarySlot = helpers.StartSlot(helpers.NextEpoch(postState))
	}

	return s.dueByBlock(root), nil
}

// updateJustified raises the best justified checkpoint and, when the bouncing
// attack guard allows, the justified checkpoint itself.
func (s *Store) updateJustified(cpt *types.Checkpoint) error {
	if cpt.Epoch > s.bestJustifiedCheckpt.Epoch {
		s.bestJustifiedCheckpt = copyutil.CopyCheckpoint(cpt)
	}
	canUpdate, err := s.shouldUpdateCurrentJustified(cpt)
	if err != nil {
		return err
	}
	if canUpdate {
		s.justifiedCheckpt = copyutil.CopyCheckpoint(cpt)
		log.WithFields(logrus.Fields{
			"epoch": cpt.Epoch,
			"root":  fmt.Sprintf("%#x", bytesutil.Trunc(cpt.Root)),
		}).Info("Updated justified checkpoint")
	}
	return nil
}

// shouldUpdateCurrentJustified prevents bouncing attacks by only updating
// conflicting justified checkpoints in the fork choice during the early slots
// of an epoch. Otherwise the new checkpoint must descend from the current
// justified checkpoint, or its incorporation waits for the next epoch
// boundary via the best justified checkpoint.
//
// Spec pseudocode definition:
//   def should_update_justified_checkpoint(store: Store, new_justified_checkpoint: Checkpoint) -> bool:
//    if compute_slots_since_epoch_start(get_current_slot(store)) < SAFE_SLOTS_TO_UPDATE_JUSTIFIED:
//        return True
//    justified_slot = compute_start_slot_at_epoch(store.justified_checkpoint.epoch)
//    if not get_ancestor(store, new_justified_checkpoint.root, justified_slot) == store.justified_checkpoint.root:
//        return False
//    return True
func (s *Store) shouldUpdateCurrentJustified(newJustified *types.Checkpoint) (bool, error) {
	if helpers.SlotsSinceEpochStarts(s.slot) < params.BeaconConfig().SafeSlotsToUpdateJustified {
		return true, nil
	}
	justifiedSlot := helpers.StartSlot(s.justifiedCheckpt.Epoch)
	ancestorRoot, err := s.ancestor(bytesutil.ToBytes32(newJustified.Root), justifiedSlot)
	if err != nil {
		return false, errors.Wrap(err, "could not get ancestor of new justified checkpoint")
	}
	return bytes.Equal(ancestorRoot[:], s.justifiedCheckpt.Root), nil
}

// updateFinalized raises the finalized checkpoint to the post state's and
// re-derives the justified checkpoint when the stored one is older than the
// state's or no longer sits on the finalized chain.
func (s *Store) updateFinalized(postState *types.BeaconState) {
	cpt := postState.FinalizedCheckpoint
	s.finalizedCheckpt = copyutil.CopyCheckpoint(cpt)
	finalizedSlot := helpers.StartSlot(cpt.Epoch)

	justified := postState.CurrentJustifiedCheckpoint
	if justified != nil {
		if justified.Epoch > s.justifiedCheckpt.Epoch {
			s.justifiedCheckpt = copyutil.CopyCheckpoint(justified)
		} else if ancestorRoot, err := s.ancestor(bytesutil.ToBytes32(s.justifiedCheckpt.Root), finalizedSlot); err != nil || !bytes.Equal(ancestorRoot[:], cpt.Root) {
			s.justifiedCheckpt = copyutil.CopyCheckpoint(justified)
		}
	}

	log.WithFields(logrus.Fields{
		"epoch": cpt.Epoch,
		"root":  fmt.Sprintf("%#x", bytesutil.Trunc(cpt.Root)),
	}).Info("Updated finalized checkpoint")
}
