// Package state implements the whole state transition
// function which consists of per slot, per-epoch transitions.
// It also bootstraps the genesis beacon state for slot 0.
package state

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/go-ssz"
	b "github.com/zephyrchain/zephyr/beacon-chain/core/blocks"
	e "github.com/zephyrchain/zephyr/beacon-chain/core/epoch"
	"github.com/zephyrchain/zephyr/beacon-chain/core/helpers"
	"github.com/zephyrchain/zephyr/shared/copyutil"
	"github.com/zephyrchain/zephyr/shared/mathutil"
	"github.com/zephyrchain/zephyr/shared/params"
	"github.com/zephyrchain/zephyr/types"
	"go.opencensus.io/trace"
)

// ErrStateRootMismatch is returned by ExecuteStateTransition when the post
// state root computed locally disagrees with the state root the block carries.
var ErrStateRootMismatch = errors.New("could not validate state root")

// ExecuteStateTransition defines the procedure for a state transition function.
//
// Spec pseudocode definition:
//  def state_transition(state: BeaconState, signed_block: SignedBeaconBlock, validate_state_root: bool=False) -> BeaconState:
//    block = signed_block.message
//    # Process slots (including those with no blocks) since block
//    process_slots(state, block.slot)
//    # Verify signature
//    assert verify_block_signature(state, signed_block)
//    # Process block
//    process_block(state, block)
//    # Validate state root
//    assert block.state_root == hash_tree_root(state)
//    # Return post-state
//    return state
func ExecuteStateTransition(
	ctx context.Context,
	state *types.BeaconState,
	signed *types.SignedBeaconBlock,
) (*types.BeaconState, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if signed == nil || signed.Block == nil {
		return nil, errors.New("nil block")
	}

	ctx, span := trace.StartSpan(ctx, "state.ExecuteStateTransition")
	defer span.End()
	var err error

	// Execute per slots transition.
	state, err = ProcessSlots(ctx, state, signed.Block.Slot)
	if err != nil {
		return nil, errors.Wrap(err, "could not process slots")
	}

	// Verify block signature.
	if err := b.VerifyBlockSignature(state, signed); err != nil {
		return nil, errors.Wrap(err, "could not verify block signature")
	}

	// Execute per block transition.
	state, err = ProcessBlock(ctx, state, signed.Block)
	if err != nil {
		return nil, errors.Wrapf(err, "could not process block in slot %d", signed.Block.Slot)
	}

	// Validate the processed state root matches the one the block committed to.
	postStateRoot, err := ssz.HashTreeRoot(state)
	if err != nil {
		return nil, errors.Wrap(err, "could not tree hash processed state")
	}
	if !bytes.Equal(postStateRoot[:], signed.Block.StateRoot) {
		return nil, errors.Wrapf(ErrStateRootMismatch, "wanted %#x, received %#x",
			postStateRoot[:], signed.Block.StateRoot)
	}

	return state, nil
}

// CalculateStateRoot defines the procedure for a state transition function.
// This does not validate any BLS signatures in a block, it is used for
// calculating the state root of the state for the block proposer to use.
func CalculateStateRoot(
	ctx context.Context,
	state *types.BeaconState,
	signed *types.SignedBeaconBlock,
) ([32]byte, error) {
	ctx, span := trace.StartSpan(ctx, "state.CalculateStateRoot")
	defer span.End()
	if ctx.Err() != nil {
		return [32]byte{}, ctx.Err()
	}
	if signed == nil || signed.Block == nil {
		return [32]byte{}, errors.New("nil block")
	}

	// Copy state to avoid mutating the state reference the caller holds.
	stateCopy := copyutil.CopyBeaconState(state)

	var err error
	stateCopy, err = ProcessSlots(ctx, stateCopy, signed.Block.Slot)
	if err != nil {
		return [32]byte{}, errors.Wrap(err, "could not process slots")
	}

	stateCopy, err = ProcessBlock(ctx, stateCopy, signed.Block)
	if err != nil {
		return [32]byte{}, errors.Wrapf(err, "could not process block in slot %d", signed.Block.Slot)
	}

	return ssz.HashTreeRoot(stateCopy)
}

// ProcessSlot happens every slot and focuses on the slot counter and block roots record updates.
// It happens regardless if there's an incoming block or not.
//
// Spec pseudocode definition:
//  def process_slot(state: BeaconState) -> None:
//    # Cache state root
//    previous_state_root = hash_tree_root(state)
//    state.state_roots[state.slot % SLOTS_PER_HISTORICAL_ROOT] = previous_state_root
//
//    # Cache latest block header state root
//    if state.latest_block_header.state_root == Bytes32():
//        state.latest_block_header.state_root = previous_state_root
//
//    # Cache block root
//    previous_block_root = hash_tree_root(state.latest_block_header)
//    state.block_roots[state.slot % SLOTS_PER_HISTORICAL_ROOT] = previous_block_root
func ProcessSlot(ctx context.Context, state *types.BeaconState) (*types.BeaconState, error) {
	ctx, span := trace.StartSpan(ctx, "state.ProcessSlot")
	defer span.End()
	span.AddAttributes(trace.Int64Attribute("slot", int64(state.Slot)))

	prevStateRoot, err := ssz.HashTreeRoot(state)
	if err != nil {
		return nil, errors.Wrap(err, "could not tree hash prev state root")
	}
	state.StateRoots[state.Slot%params.BeaconConfig().SlotsPerHistoricalRoot] = prevStateRoot[:]

	zeroHash := params.BeaconConfig().ZeroHash
	// Cache latest block header state root.
	if bytes.Equal(state.LatestBlockHeader.StateRoot, zeroHash[:]) {
		state.LatestBlockHeader.StateRoot = prevStateRoot[:]
	}
	prevBlockRoot, err := ssz.HashTreeRoot(state.LatestBlockHeader)
	if err != nil {
		return nil, errors.Wrap(err, "could not determine prev block root")
	}
	// Cache the block root.
	state.BlockRoots[state.Slot%params.BeaconConfig().SlotsPerHistoricalRoot] = prevBlockRoot[:]
	return state, nil
}

// ProcessSlots process through skip slots and apply epoch transition when it's needed.
//
// Spec pseudocode definition:
//  def process_slots(state: BeaconState, slot: Slot) -> None:
//    assert state.slot <= slot
//    while state.slot < slot:
//        process_slot(state)
//        # Process epoch on the start slot of the next epoch
//        if (state.slot + 1) % SLOTS_PER_EPOCH == 0:
//            process_epoch(state)
//        state.slot += Slot(1)
func ProcessSlots(ctx context.Context, state *types.BeaconState, slot uint64) (*types.BeaconState, error) {
	ctx, span := trace.StartSpan(ctx, "state.ProcessSlots")
	defer span.End()
	span.AddAttributes(trace.Int64Attribute("slots", int64(slot)-int64(state.Slot)))

	if state.Slot > slot {
		return nil, fmt.Errorf("expected state.slot %d <= slot %d", state.Slot, slot)
	}

	var err error
	for state.Slot < slot {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		state, err = ProcessSlot(ctx, state)
		if err != nil {
			return nil, errors.Wrap(err, "could not process slot")
		}
		if CanProcessEpoch(state) {
			state, err = ProcessEpoch(ctx, state)
			if err != nil {
				return nil, errors.Wrap(err, "could not process epoch")
			}
		}
		state.Slot++
	}
	return state, nil
}

// CanProcessEpoch checks the eligibility to process epoch.
// The epoch can be processed at the end of the last slot of every epoch.
//
// Spec pseudocode definition:
//    If (state.slot + 1) % SLOTS_PER_EPOCH == 0:
func CanProcessEpoch(state *types.BeaconState) bool {
	return (state.Slot+1)%params.BeaconConfig().SlotsPerEpoch == 0
}

// ProcessEpoch describes the per epoch operations that are performed on the
// beacon state. It focuses on the validator registry, adjusting balances, and finalizing slots.
//
// Spec pseudocode definition:
//  def process_epoch(state: BeaconState) -> None:
//    process_justification_and_finalization(state)
//    process_rewards_and_penalties(state)
//    process_registry_updates(state)
//    process_slashings(state)
//    process_final_updates(state)
func ProcessEpoch(ctx context.Context, state *types.BeaconState) (*types.BeaconState, error) {
	ctx, span := trace.StartSpan(ctx, "state.ProcessEpoch")
	defer span.End()
	span.AddAttributes(trace.Int64Attribute("epoch", int64(helpers.CurrentEpoch(state))))

	prevEpochAtts, err := e.MatchAttestations(state, helpers.PrevEpoch(state))
	if err != nil {
		return nil, errors.Wrap(err, "could not get target atts prev epoch")
	}
	currentEpochAtts, err := e.MatchAttestations(state, helpers.CurrentEpoch(state))
	if err != nil {
		return nil, errors.Wrap(err, "could not get target atts current epoch")
	}
	prevEpochAttestedBalance, err := e.AttestingBalance(state, prevEpochAtts.Target)
	if err != nil {
		return nil, errors.Wrap(err, "could not get attesting balance prev epoch")
	}
	currentEpochAttestedBalance, err := e.AttestingBalance(state, currentEpochAtts.Target)
	if err != nil {
		return nil, errors.Wrap(err, "could not get attesting balance current epoch")
	}

	state, err = e.ProcessJustificationAndFinalization(state, prevEpochAttestedBalance, currentEpochAttestedBalance)
	if err != nil {
		return nil, errors.Wrap(err, "could not process justification")
	}

	state, err = e.ProcessRewardsAndPenalties(state)
	if err != nil {
		return nil, errors.Wrap(err, "could not process rewards and penalties")
	}

	state, err = e.ProcessRegistryUpdates(state)
	if err != nil {
		return nil, errors.Wrap(err, "could not process registry updates")
	}

	state = e.ProcessSlashings(state)

	state, err = e.ProcessFinalUpdates(state)
	if err != nil {
		return nil, errors.Wrap(err, "could not process final updates")
	}

	return state, nil
}

// ProcessBlock creates a new, modified beacon state by applying block operation
// transformations as defined in the consensus rules, including processing proposer slashings,
// processing block attestations, and more.
//
// Spec pseudocode definition:
//  def process_block(state: BeaconState, block: BeaconBlock) -> None:
//    process_block_header(state, block)
//    process_randao(state, block.body)
//    process_eth1_data(state, block.body)
//    process_operations(state, block.body)
func ProcessBlock(
	ctx context.Context,
	state *types.BeaconState,
	block *types.BeaconBlock,
) (*types.BeaconState, error) {
	ctx, span := trace.StartSpan(ctx, "state.ProcessBlock")
	defer span.End()

	state, err := b.ProcessBlockHeader(ctx, state, block)
	if err != nil {
		return nil, errors.Wrap(err, "could not process block header")
	}

	state, err = b.ProcessRandao(ctx, state, block.Body)
	if err != nil {
		return nil, errors.Wrap(err, "could not verify and process randao")
	}

	state, err = b.ProcessEth1DataInBlock(ctx, state, block.Body)
	if err != nil {
		return nil, errors.Wrap(err, "could not process eth1 data")
	}

	state, err = ProcessOperations(ctx, state, block.Body)
	if err != nil {
		return nil, errors.Wrap(err, "could not process block operation")
	}

	return state, nil
}

// ProcessOperations processes the operations in the beacon block and updates beacon state
// with the operations in block.
//
// Spec pseudocode definition:
//  def process_operations(state: BeaconState, body: BeaconBlockBody) -> None:
//    # Verify that outstanding deposits are processed up to the maximum number of deposits
//    assert len(body.deposits) == min(MAX_DEPOSITS, state.eth1_data.deposit_count - state.eth1_deposit_index)
//
//    for operations, function in (
//        (body.proposer_slashings, process_proposer_slashing),
//        (body.attester_slashings, process_attester_slashing),
//        (body.attestations, process_attestation),
//        (body.deposits, process_deposit),
//        (body.voluntary_exits, process_voluntary_exit),
//    ):
//        for operation in operations:
//            function(state, operation)
func ProcessOperations(
	ctx context.Context,
	state *types.BeaconState,
	body *types.BeaconBlockBody,
) (*types.BeaconState, error) {
	ctx, span := trace.StartSpan(ctx, "state.ProcessOperations")
	defer span.End()

	if err := verifyOperationLengths(state, body); err != nil {
		return nil, errors.Wrap(err, "could not verify operation lengths")
	}

	state, err := b.ProcessProposerSlashings(ctx, state, body)
	if err != nil {
		return nil, errors.Wrap(err, "could not process block proposer slashings")
	}
	state, err = b.ProcessAttesterSlashings(ctx, state, body)
	if err != nil {
		return nil, errors.Wrap(err, "could not process block attester slashings")
	}
	state, err = b.ProcessAttestations(ctx, state, body)
	if err != nil {
		return nil, errors.Wrap(err, "could not process block attestations")
	}
	state, err = b.ProcessDeposits(ctx, state, body)
	if err != nil {
		return nil, errors.Wrap(err, "could not process block validator deposits")
	}
	state, err = b.ProcessVoluntaryExits(ctx, state, body)
	if err != nil {
		return nil, errors.Wrap(err, "could not process validator exits")
	}

	return state, nil
}

func verifyOperationLengths(state *types.BeaconState, body *types.BeaconBlockBody) error {
	if uint64(len(body.ProposerSlashings)) > params.BeaconConfig().MaxProposerSlashings {
		return fmt.Errorf(
			"number of proposer slashings (%d) in block body exceeds allowed threshold of %d",
			len(body.ProposerSlashings),
			params.BeaconConfig().MaxProposerSlashings,
		)
	}

	if uint64(len(body.AttesterSlashings)) > params.BeaconConfig().MaxAttesterSlashings {
		return fmt.Errorf(
			"number of attester slashings (%d) in block body exceeds allowed threshold of %d",
			len(body.AttesterSlashings),
			params.BeaconConfig().MaxAttesterSlashings,
		)
	}

	if uint64(len(body.Attestations)) > params.BeaconConfig().MaxAttestations {
		return fmt.Errorf(
			"number of attestations (%d) in block body exceeds allowed threshold of %d",
			len(body.Attestations),
			params.BeaconConfig().MaxAttestations,
		)
	}

	if uint64(len(body.VoluntaryExits)) > params.BeaconConfig().MaxVoluntaryExits {
		return fmt.Errorf(
			"number of voluntary exits (%d) in block body exceeds allowed threshold of %d",
			len(body.VoluntaryExits),
			params.BeaconConfig().MaxVoluntaryExits,
		)
	}

	if state.Eth1Data == nil {
		return errors.New("nil eth1data in state")
	}
	if state.Eth1Data.DepositCount < state.Eth1DepositIndex {
		return fmt.Errorf("expected state.deposit_index %d <= eth1data.deposit_count %d",
			state.Eth1DepositIndex, state.Eth1Data.DepositCount)
	}
	maxDeposits := mathutil.Min(params.BeaconConfig().MaxDeposits, state.Eth1Data.DepositCount-state.Eth1DepositIndex)
	// Verify outstanding deposits are processed up to max number of deposits.
	if uint64(len(body.Deposits)) != maxDeposits {
		return fmt.Errorf("incorrect outstanding deposits in block body, wanted: %d, got: %d",
			maxDeposits, len(body.Deposits))
	}

	return nil
}
