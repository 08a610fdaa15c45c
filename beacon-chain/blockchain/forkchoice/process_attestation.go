package forkchoice

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/zephyrchain/zephyr/beacon-chain/cache"
	"github.com/zephyrchain/zephyr/beacon-chain/core/blocks"
	"github.com/zephyrchain/zephyr/beacon-chain/core/helpers"
	"github.com/zephyrchain/zephyr/beacon-chain/core/state"
	"github.com/zephyrchain/zephyr/shared/attestationutil"
	"github.com/zephyrchain/zephyr/shared/bytesutil"
	"github.com/zephyrchain/zephyr/shared/copyutil"
	"github.com/zephyrchain/zephyr/types"
	"go.opencensus.io/trace"
)

// OnAttestation is called when an attestation is received. It checks the
// attestation against the store, verifies its committee signature against the
// target checkpoint state and records the attesters' latest votes. An
// attestation that references a block or slot the store has not reached is
// parked and replayed later, one from before the previous epoch is dropped.
//
// Spec pseudocode definition:
//   def on_attestation(store: Store, attestation: Attestation) -> None:
//    target = attestation.data.target
//
//    # Attestations must be from the current or previous epoch
//    current_epoch = compute_epoch_at_slot(get_current_slot(store))
//    # Use GENESIS_EPOCH for previous when genesis to avoid underflow
//    previous_epoch = current_epoch - 1 if current_epoch > GENESIS_EPOCH else GENESIS_EPOCH
//    assert target.epoch in [current_epoch, previous_epoch]
//    assert target.epoch == compute_epoch_at_slot(attestation.data.slot)
//
//    # Attestations target be for a known block. If target block is unknown, delay consideration until the block is found
//    assert target.root in store.blocks
//    # Attestations cannot be from future epochs. If they are, delay consideration until the epoch arrives
//    base_state = store.block_states[target.root].copy()
//    assert get_current_slot(store) >= compute_start_slot_at_epoch(target.epoch)
//
//    # Attestations must be for a known block. If block is unknown, delay consideration until the block is found
//    assert attestation.data.beacon_block_root in store.blocks
//    # Attestations must not be for blocks in the future. If not, the attestation should not be considered
//    assert store.blocks[attestation.data.beacon_block_root].slot <= attestation.data.slot
//
//    # Store target checkpoint state if not yet seen
//    if target not in store.checkpoint_states:
//        process_slots(base_state, compute_start_slot_at_epoch(target.epoch))
//        store.checkpoint_states[target] = base_state
//    target_state = store.checkpoint_states[target]
//
//    # Attestations can only affect the fork choice of subsequent slots.
//    # Delay consideration in the fork choice until their slot is in the past.
//    assert get_current_slot(store) >= attestation.data.slot + 1
//
//    # Get state at the `target` to validate attestation and calculate the committees
//    indexed_attestation = get_indexed_attestation(target_state, attestation)
//    assert is_valid_indexed_attestation(target_state, indexed_attestation)
//
//    # Update latest messages
//    for i in indexed_attestation.attesting_indices:
//        if i not in store.latest_messages or target.epoch > store.latest_messages[i].epoch:
//            store.latest_messages[i] = LatestMessage(epoch=target.epoch, root=attestation.data.beacon_block_root)
func (s *Store) OnAttestation(ctx context.Context, a *types.Attestation) error {
	ctx, span := trace.StartSpan(ctx, "forkchoice.onAttestation")
	defer span.End()

	if a == nil || a.Data == nil || a.Data.Target == nil {
		return errors.New("nil attestation")
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	return s.processAttestation(ctx, a)
}

// processAttestation runs the attestation ladder under the store lock.
func (s *Store) processAttestation(ctx context.Context, a *types.Attestation) error {
	data := a.Data
	target := data.Target

	currentEpoch := helpers.SlotToEpoch(s.slot)
	prevEpoch := currentEpoch
	if currentEpoch > 0 {
		prevEpoch = currentEpoch - 1
	}
	// Attestations older than the previous epoch can no longer affect the
	// fork choice and are dropped silently.
	if target.Epoch < prevEpoch {
		log.WithFields(logrus.Fields{
			"targetEpoch":  target.Epoch,
			"currentEpoch": currentEpoch,
		}).Debug("Dropping attestation with stale target")
		return nil
	}
	// Attestations from future epochs wait for their epoch to start.
	if currentEpoch < target.Epoch {
		s.deferUntilSlot(&delayedObject{att: a}, helpers.StartSlot(target.Epoch))
		return nil
	}

	if target.Epoch != helpers.SlotToEpoch(data.Slot) {
		return errors.Wrapf(ErrTargetEpochMismatch, "target epoch %d, slot epoch %d",
			target.Epoch, helpers.SlotToEpoch(data.Slot))
	}

	targetRoot := bytesutil.ToBytes32(target.Root)
	if _, ok := s.blockStates[targetRoot]; !ok {
		s.deferUntilBlock(&delayedObject{att: a}, targetRoot)
		return nil
	}

	if s.slot < helpers.StartSlot(target.Epoch) {
		s.deferUntilSlot(&delayedObject{att: a}, helpers.StartSlot(target.Epoch))
		return nil
	}

	votedRoot := bytesutil.ToBytes32(data.BeaconBlockRoot)
	voted, ok := s.blocks[votedRoot]
	if !ok {
		s.deferUntilBlock(&delayedObject{att: a}, votedRoot)
		return nil
	}
	if voted.Block.Slot > data.Slot {
		return errors.Wrapf(ErrAttestationForFutureBlock, "block slot %d > attestation slot %d",
			voted.Block.Slot, data.Slot)
	}

	// Attestations can only affect the fork choice of later slots.
	if s.slot <= data.Slot {
		s.deferUntilSlot(&delayedObject{att: a}, data.Slot)
		return nil
	}

	baseState, err := s.checkpointState(ctx, target)
	if err != nil {
		return errors.Wrap(err, "could not get target checkpoint state")
	}
	committee, err := helpers.BeaconCommittee(baseState, data.Slot, data.CommitteeIndex)
	if err != nil {
		return errors.Wrap(err, "could not get committee for attestation")
	}
	if err := helpers.VerifyBitfieldLength(a.AggregationBits, uint64(len(committee))); err != nil {
		return errors.Wrap(err, "could not verify aggregation bitfield")
	}
	indexed := attestationutil.ConvertToIndexed(ctx, a, committee)
	if err := blocks.VerifyIndexedAttestation(ctx, baseState, indexed); err != nil {
		return errors.Wrap(err, "could not verify indexed attestation")
	}

	for _, i := range indexed.AttestingIndices {
		msg, ok := s.latestMessages[i]
		if !ok || target.Epoch > msg.Epoch {
			s.latestMessages[i] = &LatestMessage{Epoch: target.Epoch, Root: votedRoot}
		}
	}
	return nil
}

// checkpointState returns the state advanced to the start slot of the
// checkpoint's epoch, memoized per checkpoint. The advanced copy is what the
// committee shuffling and attestation signatures are verified against.
func (s *Store) checkpointState(ctx context.Context, c *types.Checkpoint) (*types.BeaconState, error) {
	cached, err := s.checkpointStates.StateByCheckpoint(c)
	if err != nil {
		return nil, errors.Wrap(err, "could not get cached checkpoint state")
	}
	if cached != nil {
		return cached, nil
	}

	base, ok := s.blockStates[bytesutil.ToBytes32(c.Root)]
	if !ok {
		return nil, errors.Wrapf(errUnknownBlock, "%#x", bytesutil.Trunc(c.Root))
	}
	base = copyutil.CopyBeaconState(base)
	if base.Slot < helpers.StartSlot(c.Epoch) {
		base, err = state.ProcessSlots(ctx, base, helpers.StartSlot(c.Epoch))
		if err != nil {
			return nil, errors.Wrapf(err, "could not process slots up to %d", helpers.StartSlot(c.Epoch))
		}
	}
	if err := s.checkpointStates.AddCheckpointState(&cache.CheckpointState{
		Checkpoint: copyutil.CopyCheckpoint(c),
		State:      base,
	}); err != nil {
		return nil, errors.Wrap(err, "could not save checkpoint state to cache")
	}
	return base, nil
}
