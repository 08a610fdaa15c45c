// Package epoch contains epoch processing libraries. These libraries
// process new balance for the validators, justify and finalize new
// check points, and update the validator registry between epochs.
package epoch

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/go-ssz"
	"github.com/zephyrchain/zephyr/beacon-chain/core/helpers"
	"github.com/zephyrchain/zephyr/beacon-chain/core/validators"
	"github.com/zephyrchain/zephyr/shared/attestationutil"
	"github.com/zephyrchain/zephyr/shared/mathutil"
	"github.com/zephyrchain/zephyr/shared/params"
	"github.com/zephyrchain/zephyr/types"
)

// MatchedAttestations is an object that contains the correctly
// voted attestations based on source, target and head criteria.
type MatchedAttestations struct {
	source []*types.PendingAttestation
	Target []*types.PendingAttestation
	head   []*types.PendingAttestation
}

// MatchAttestations matches the attestations gathered in a span of an epoch period
// and categorize them whether they correctly voted for source, target and head.
// We combined the individual helpers from spec for efficiency and to achieve O(N) run time.
//
// Spec pseudocode definition:
//  def get_matching_source_attestations(state: BeaconState, epoch: Epoch) -> Sequence[PendingAttestation]:
//    assert epoch in (get_previous_epoch(state), get_current_epoch(state))
//    return state.current_epoch_attestations if epoch == get_current_epoch(state) else state.previous_epoch_attestations
//
//  def get_matching_target_attestations(state: BeaconState, epoch: Epoch) -> Sequence[PendingAttestation]:
//    return [
//        a for a in get_matching_source_attestations(state, epoch)
//        if a.data.target.root == get_block_root(state, epoch)
//    ]
//
//  def get_matching_head_attestations(state: BeaconState, epoch: Epoch) -> Sequence[PendingAttestation]:
//    return [
//        a for a in get_matching_source_attestations(state, epoch)
//        if a.data.beacon_block_root == get_block_root_at_slot(state, a.data.slot)
//    ]
func MatchAttestations(state *types.BeaconState, epoch uint64) (*MatchedAttestations, error) {
	currentEpoch := helpers.CurrentEpoch(state)
	previousEpoch := helpers.PrevEpoch(state)

	// Input epoch for matching could only be current and previous epoch.
	if epoch != currentEpoch && epoch != previousEpoch {
		return nil, fmt.Errorf("input epoch: %d != current epoch: %d or previous epoch: %d",
			epoch, currentEpoch, previousEpoch)
	}

	srcAtts := state.CurrentEpochAttestations
	if epoch == previousEpoch {
		srcAtts = state.PreviousEpochAttestations
	}
	targetRoot, err := helpers.BlockRoot(state, epoch)
	if err != nil {
		return nil, errors.Wrapf(err, "could not get block root for epoch %d", epoch)
	}

	tgtAtts := make([]*types.PendingAttestation, 0, len(srcAtts))
	headAtts := make([]*types.PendingAttestation, 0, len(srcAtts))
	for _, srcAtt := range srcAtts {
		// If the target root of an attestation matches the block root at the
		// start slot of the target epoch, then it is a correct target vote.
		if bytes.Equal(srcAtt.Data.Target.Root, targetRoot) {
			tgtAtts = append(tgtAtts, srcAtt)
		}

		// If the beacon block root of an attestation matches the block root
		// at the attestation's own slot, then it is a correct head vote.
		headRoot, err := helpers.BlockRootAtSlot(state, srcAtt.Data.Slot)
		if err != nil {
			return nil, errors.Wrapf(err, "could not get block root for slot %d", srcAtt.Data.Slot)
		}
		if bytes.Equal(srcAtt.Data.BeaconBlockRoot, headRoot) {
			headAtts = append(headAtts, srcAtt)
		}
	}

	return &MatchedAttestations{
		source: srcAtts,
		Target: tgtAtts,
		head:   headAtts,
	}, nil
}

// AttestingBalance returns the total balance from all the attesting indices.
//
// Spec pseudocode definition:
//  def get_attesting_balance(state: BeaconState, attestations: Sequence[PendingAttestation]) -> Gwei:
//    return get_total_balance(state, get_unslashed_attesting_indices(state, attestations))
func AttestingBalance(state *types.BeaconState, atts []*types.PendingAttestation) (uint64, error) {
	indices, err := unslashedAttestingIndices(state, atts)
	if err != nil {
		return 0, errors.Wrap(err, "could not get attesting indices")
	}
	return helpers.TotalBalance(state, indices), nil
}

// BaseReward takes state and validator index and calculate
// individual validator's base reward quotient.
//
// Spec pseudocode definition:
//  def get_base_reward(state: BeaconState, index: ValidatorIndex) -> Gwei:
//      total_balance = get_total_active_balance(state)
//      effective_balance = state.validators[index].effective_balance
//      return Gwei(effective_balance * BASE_REWARD_FACTOR // integer_squareroot(total_balance) // BASE_REWARDS_PER_EPOCH)
func BaseReward(state *types.BeaconState, index uint64) (uint64, error) {
	if index >= uint64(len(state.Validators)) {
		return 0, fmt.Errorf("validator index %d out of range %d", index, len(state.Validators))
	}
	totalBalance := helpers.TotalActiveBalance(state)
	effectiveBalance := state.Validators[index].EffectiveBalance
	baseReward := effectiveBalance * params.BeaconConfig().BaseRewardFactor /
		mathutil.IntegerSquareRoot(totalBalance) / params.BeaconConfig().BaseRewardsPerEpoch
	return baseReward, nil
}

// ProcessJustificationAndFinalization processes justification and finalization during
// epoch processing. This is where a beacon node can justify and finalize a new epoch.
//
// Spec pseudocode definition:
//  def process_justification_and_finalization(state: BeaconState) -> None:
//    if get_current_epoch(state) <= GENESIS_EPOCH + 1:
//        return
//
//    previous_epoch = get_previous_epoch(state)
//    current_epoch = get_current_epoch(state)
//    old_previous_justified_checkpoint = state.previous_justified_checkpoint
//    old_current_justified_checkpoint = state.current_justified_checkpoint
//
//    # Process justifications
//    state.previous_justified_checkpoint = state.current_justified_checkpoint
//    state.justification_bits[1:] = state.justification_bits[:-1]
//    state.justification_bits[0] = 0b0
//    matching_target_attestations = get_matching_target_attestations(state, previous_epoch)  # Previous epoch
//    if get_attesting_balance(state, matching_target_attestations) * 3 >= get_total_active_balance(state) * 2:
//        state.current_justified_checkpoint = Checkpoint(epoch=previous_epoch,
//                                                        root=get_block_root(state, previous_epoch))
//        state.justification_bits[1] = 0b1
//    matching_target_attestations = get_matching_target_attestations(state, current_epoch)  # Current epoch
//    if get_attesting_balance(state, matching_target_attestations) * 3 >= get_total_active_balance(state) * 2:
//        state.current_justified_checkpoint = Checkpoint(epoch=current_epoch,
//                                                        root=get_block_root(state, current_epoch))
//        state.justification_bits[0] = 0b1
//
//    # Process finalizations
//    bits = state.justification_bits
//    # The 2nd/3rd/4th most recent epochs are justified, the 2nd using the 4th as source
//    if all(bits[1:4]) and old_previous_justified_checkpoint.epoch + 3 == current_epoch:
//        state.finalized_checkpoint = old_previous_justified_checkpoint
//    # The 2nd/3rd most recent epochs are justified, the 2nd using the 3rd as source
//    if all(bits[1:3]) and old_previous_justified_checkpoint.epoch + 2 == current_epoch:
//        state.finalized_checkpoint = old_previous_justified_checkpoint
//    # The 1st/2nd/3rd most recent epochs are justified, the 1st using the 3rd as source
//    if all(bits[0:3]) and old_current_justified_checkpoint.epoch + 2 == current_epoch:
//        state.finalized_checkpoint = old_current_justified_checkpoint
//    # The 1st/2nd most recent epochs are justified, the 1st using the 2nd as source
//    if all(bits[0:2]) and old_current_justified_checkpoint.epoch + 1 == current_epoch:
//        state.finalized_checkpoint = old_current_justified_checkpoint
func ProcessJustificationAndFinalization(
	state *types.BeaconState,
	prevAttestedBal uint64,
	currAttestedBal uint64,
) (*types.BeaconState, error) {
	// The first two epochs are not justifiable.
	if state.Slot <= helpers.StartSlot(2) {
		return state, nil
	}

	prevEpoch := helpers.PrevEpoch(state)
	currentEpoch := helpers.CurrentEpoch(state)
	oldPrevJustifiedCheckpoint := state.PreviousJustifiedCheckpoint
	oldCurrJustifiedCheckpoint := state.CurrentJustifiedCheckpoint

	totalBal := helpers.TotalActiveBalance(state)

	// Process justifications.
	state.PreviousJustifiedCheckpoint = state.CurrentJustifiedCheckpoint
	state.JustificationBits.Shift(1)

	// If 2/3 or more of total balance attested in the previous epoch.
	if 3*prevAttestedBal >= 2*totalBal {
		blockRoot, err := helpers.BlockRoot(state, prevEpoch)
		if err != nil {
			return nil, errors.Wrapf(err, "could not get block root for previous epoch %d", prevEpoch)
		}
		state.CurrentJustifiedCheckpoint = &types.Checkpoint{Epoch: prevEpoch, Root: blockRoot}
		state.JustificationBits.SetBitAt(1, true)
	}

	// If 2/3 or more of the total balance attested in the current epoch.
	if 3*currAttestedBal >= 2*totalBal {
		blockRoot, err := helpers.BlockRoot(state, currentEpoch)
		if err != nil {
			return nil, errors.Wrapf(err, "could not get block root for current epoch %d", currentEpoch)
		}
		state.CurrentJustifiedCheckpoint = &types.Checkpoint{Epoch: currentEpoch, Root: blockRoot}
		state.JustificationBits.SetBitAt(0, true)
	}

	// Process finalization.
	justification := state.JustificationBits.Bytes()[0]

	// 2nd/3rd/4th (0b1110) most recent epochs are justified, the 2nd using the 4th as source.
	if justification&0x0E == 0x0E && (oldPrevJustifiedCheckpoint.Epoch+3) == currentEpoch {
		state.FinalizedCheckpoint = oldPrevJustifiedCheckpoint
	}

	// 2nd/3rd (0b0110) most recent epochs are justified, the 2nd using the 3rd as source.
	if justification&0x06 == 0x06 && (oldPrevJustifiedCheckpoint.Epoch+2) == currentEpoch {
		state.FinalizedCheckpoint = oldPrevJustifiedCheckpoint
	}

	// 1st/2nd/3rd (0b0111) most recent epochs are justified, the 1st using the 3rd as source.
	if justification&0x07 == 0x07 && (oldCurrJustifiedCheckpoint.Epoch+2) == currentEpoch {
		state.FinalizedCheckpoint = oldCurrJustifiedCheckpoint
	}

	// 1st/2nd (0b0011) most recent epochs are justified, the 1st using the 2nd as source.
	if justification&0x03 == 0x03 && (oldCurrJustifiedCheckpoint.Epoch+1) == currentEpoch {
		state.FinalizedCheckpoint = oldCurrJustifiedCheckpoint
	}

	return state, nil
}

// ProcessRewardsAndPenalties processes the rewards and penalties of individual validator.
//
// Spec pseudocode definition:
//  def process_rewards_and_penalties(state: BeaconState) -> None:
//    if get_current_epoch(state) == GENESIS_EPOCH:
//        return
//
//    rewards, penalties = get_attestation_deltas(state)
//    for index in range(len(state.validators)):
//        increase_balance(state, ValidatorIndex(index), rewards[index])
//        decrease_balance(state, ValidatorIndex(index), penalties[index])
func ProcessRewardsAndPenalties(state *types.BeaconState) (*types.BeaconState, error) {
	// Can't process rewards and penalties in genesis epoch.
	if helpers.CurrentEpoch(state) == params.BeaconConfig().GenesisEpoch {
		return state, nil
	}
	rewards, penalties, err := attestationDeltas(state)
	if err != nil {
		return nil, errors.Wrap(err, "could not get attestation deltas")
	}
	for i := 0; i < len(state.Validators); i++ {
		helpers.IncreaseBalance(state, uint64(i), rewards[i])
		helpers.DecreaseBalance(state, uint64(i), penalties[i])
	}
	return state, nil
}

// ProcessRegistryUpdates rotates validators in and out of active pool.
// The amount to rotate is determined by the churn limit.
//
// Spec pseudocode definition:
//  def process_registry_updates(state: BeaconState) -> None:
//    # Process activation eligibility and ejections
//    for index, validator in enumerate(state.validators):
//        if (
//            validator.activation_eligibility_epoch == FAR_FUTURE_EPOCH
//            and validator.effective_balance == MAX_EFFECTIVE_BALANCE
//        ):
//            validator.activation_eligibility_epoch = get_current_epoch(state)
//
//        if is_active_validator(validator, get_current_epoch(state)) and validator.effective_balance <= EJECTION_BALANCE:
//            initiate_validator_exit(state, ValidatorIndex(index))
//
//    # Queue validators eligible for activation and not dequeued for activation prior to finalized epoch
//    activation_queue = sorted([
//        index for index, validator in enumerate(state.validators)
//        if validator.activation_eligibility_epoch != FAR_FUTURE_EPOCH
//        and validator.activation_epoch >= compute_activation_exit_epoch(state.finalized_checkpoint.epoch)
//    ], key=lambda index: state.validators[index].activation_eligibility_epoch)
//    # Dequeued validators for activation up to churn limit (without resetting activation epoch)
//    for index in activation_queue[:get_validator_churn_limit(state)]:
//        validator = state.validators[index]
//        if validator.activation_epoch == FAR_FUTURE_EPOCH:
//            validator.activation_epoch = compute_activation_exit_epoch(get_current_epoch(state))
func ProcessRegistryUpdates(state *types.BeaconState) (*types.BeaconState, error) {
	currentEpoch := helpers.CurrentEpoch(state)

	for idx, validator := range state.Validators {
		// Process validators for activation eligibility.
		if helpers.IsEligibleForActivationQueue(validator) {
			validator.ActivationEligibilityEpoch = currentEpoch
		}

		// Process validators for ejection. A validator ejected in an earlier
		// epoch stays active until its exit epoch, so the exit may already be
		// under way.
		isActive := helpers.IsActiveValidator(validator, currentEpoch)
		belowEjectionBalance := validator.EffectiveBalance <= params.BeaconConfig().EjectionBalance
		if isActive && belowEjectionBalance {
			if _, err := validators.InitiateValidatorExit(state, uint64(idx)); err != nil &&
				!errors.Is(err, validators.ErrValidatorExitAlreadyInitiated) {
				return nil, errors.Wrapf(err, "could not initiate exit for validator %d", idx)
			}
		}
	}

	// Queue validators eligible for activation and not yet dequeued for activation.
	var activationQ []uint64
	for idx, validator := range state.Validators {
		eligibleActivated := validator.ActivationEligibilityEpoch != params.BeaconConfig().FarFutureEpoch
		canBeActive := validator.ActivationEpoch >= helpers.ActivationExitEpoch(state.FinalizedCheckpoint.Epoch)
		if eligibleActivated && canBeActive {
			activationQ = append(activationQ, uint64(idx))
		}
	}
	sort.Sort(sortableIndices{indices: activationQ, validators: state.Validators})

	// Only activate just enough validators according to the activation churn limit.
	limit := uint64(len(activationQ))
	activeValidatorCount := helpers.ActiveValidatorCount(state, currentEpoch)
	churnLimit := helpers.ValidatorChurnLimit(activeValidatorCount)
	if churnLimit < limit {
		limit = churnLimit
	}

	activationExitEpoch := helpers.ActivationExitEpoch(currentEpoch)
	for _, index := range activationQ[:limit] {
		validator := state.Validators[index]
		if validator.ActivationEpoch == params.BeaconConfig().FarFutureEpoch {
			validator.ActivationEpoch = activationExitEpoch
		}
	}
	return state, nil
}

// ProcessSlashings processes the slashed validators during epoch processing. Validators
// halfway to their withdrawable epoch receive a penalty proportional to the total
// slashed balance accumulated in the slashings vector.
//
// Spec pseudocode definition:
//  def process_slashings(state: BeaconState) -> None:
//    epoch = get_current_epoch(state)
//    total_balance = get_total_active_balance(state)
//    for index, validator in enumerate(state.validators):
//        if validator.slashed and epoch + EPOCHS_PER_SLASHINGS_VECTOR // 2 == validator.withdrawable_epoch:
//            increment = EFFECTIVE_BALANCE_INCREMENT  # Factored out from penalty numerator to avoid uint64 overflow
//            penalty_numerator = validator.effective_balance // increment * min(sum(state.slashings) * 3, total_balance)
//            penalty = penalty_numerator // total_balance * increment
//            decrease_balance(state, ValidatorIndex(index), penalty)
func ProcessSlashings(state *types.BeaconState) *types.BeaconState {
	currentEpoch := helpers.CurrentEpoch(state)
	totalBalance := helpers.TotalActiveBalance(state)

	// Compute the sum of state slashings.
	totalSlashing := uint64(0)
	for _, slashing := range state.Slashings {
		totalSlashing += slashing
	}

	// Compute the slashing penalty for each eligible validator.
	for index, validator := range state.Validators {
		correctEpoch := currentEpoch+params.BeaconConfig().EpochsPerSlashingsVector/2 == validator.WithdrawableEpoch
		if validator.Slashed && correctEpoch {
			minSlashing := mathutil.Min(totalSlashing*3, totalBalance)
			increment := params.BeaconConfig().EffectiveBalanceIncrement
			penaltyNumerator := validator.EffectiveBalance / increment * minSlashing
			penalty := penaltyNumerator / totalBalance * increment
			helpers.DecreaseBalance(state, uint64(index), penalty)
		}
	}
	return state
}

// ProcessFinalUpdates processes the final updates during epoch processing. This function
// resets the eth1 data votes, updates effective balances with hysteresis, rotates the
// slashings vector and randao mixes, accumulates historical roots, and rotates the
// epoch attestation lists for the next epoch.
//
// Spec pseudocode definition:
//  def process_final_updates(state: BeaconState) -> None:
//    current_epoch = get_current_epoch(state)
//    next_epoch = Epoch(current_epoch + 1)
//    # Reset eth1 data votes
//    if (state.slot + 1) % SLOTS_PER_ETH1_VOTING_PERIOD == 0:
//        state.eth1_data_votes = []
//    # Update effective balances with hysteresis
//    for index, validator in enumerate(state.validators):
//        balance = state.balances[index]
//        HALF_INCREMENT = EFFECTIVE_BALANCE_INCREMENT // 2
//        if balance < validator.effective_balance or validator.effective_balance + 3 * HALF_INCREMENT < balance:
//            validator.effective_balance = min(balance - balance % EFFECTIVE_BALANCE_INCREMENT, MAX_EFFECTIVE_BALANCE)
//    # Reset slashings
//    state.slashings[next_epoch % EPOCHS_PER_SLASHINGS_VECTOR] = Gwei(0)
//    # Set randao mix
//    state.randao_mixes[next_epoch % EPOCHS_PER_HISTORICAL_VECTOR] = get_randao_mix(state, current_epoch)
//    # Set historical root accumulator
//    if next_epoch % (SLOTS_PER_HISTORICAL_ROOT // SLOTS_PER_EPOCH) == 0:
//        historical_batch = HistoricalBatch(block_roots=state.block_roots, state_roots=state.state_roots)
//        state.historical_roots.append(hash_tree_root(historical_batch))
//    # Rotate current/previous epoch attestations
//    state.previous_epoch_attestations = state.current_epoch_attestations
//    state.current_epoch_attestations = []
func ProcessFinalUpdates(state *types.BeaconState) (*types.BeaconState, error) {
	currentEpoch := helpers.CurrentEpoch(state)
	nextEpoch := currentEpoch + 1

	// Reset ETH1 data votes.
	if (state.Slot+1)%params.BeaconConfig().SlotsPerEth1VotingPeriod == 0 {
		state.Eth1DataVotes = []*types.Eth1Data{}
	}

	// Update effective balances with hysteresis.
	for i, v := range state.Validators {
		if v == nil {
			return nil, fmt.Errorf("validator %d is nil in state", i)
		}
		if i >= len(state.Balances) {
			return nil, fmt.Errorf("validator index exceeds validator length in state %d >= %d", i, len(state.Balances))
		}
		balance := state.Balances[i]
		halfInc := params.BeaconConfig().EffectiveBalanceIncrement / 2
		if balance < v.EffectiveBalance || v.EffectiveBalance+3*halfInc < balance {
			v.EffectiveBalance = params.BeaconConfig().MaxEffectiveBalance
			if v.EffectiveBalance > balance-balance%params.BeaconConfig().EffectiveBalanceIncrement {
				v.EffectiveBalance = balance - balance%params.BeaconConfig().EffectiveBalanceIncrement
			}
		}
	}

	// Reset the slashings vector slot for the next epoch.
	slashedExitLength := params.BeaconConfig().EpochsPerSlashingsVector
	state.Slashings[nextEpoch%slashedExitLength] = 0

	// Set RANDAO mix for the next epoch.
	randaoMixLength := params.BeaconConfig().EpochsPerHistoricalVector
	state.RandaoMixes[nextEpoch%randaoMixLength] = helpers.RandaoMix(state, currentEpoch)

	// Set historical root accumulator.
	epochsPerHistoricalRoot := params.BeaconConfig().SlotsPerHistoricalRoot / params.BeaconConfig().SlotsPerEpoch
	if nextEpoch%epochsPerHistoricalRoot == 0 {
		historicalBatch := &types.HistoricalBatch{
			BlockRoots: state.BlockRoots,
			StateRoots: state.StateRoots,
		}
		batchRoot, err := ssz.HashTreeRoot(historicalBatch)
		if err != nil {
			return nil, errors.Wrap(err, "could not hash historical batch")
		}
		state.HistoricalRoots = append(state.HistoricalRoots, batchRoot[:])
	}

	// Rotate current and previous epoch attestations.
	state.PreviousEpochAttestations = state.CurrentEpochAttestations
	state.CurrentEpochAttestations = []*types.PendingAttestation{}

	return state, nil
}

// unslashedAttestingIndices returns all the attesting indices from a list of attestations,
// it sorts the indices and filters out the slashed ones.
//
// Spec pseudocode definition:
//  def get_unslashed_attesting_indices(state: BeaconState,
//                                      attestations: Sequence[PendingAttestation]) -> Set[ValidatorIndex]:
//    output = set()  # type: Set[ValidatorIndex]
//    for a in attestations:
//        output = output.union(get_attesting_indices(state, a.data, a.aggregation_bits))
//    return set(filter(lambda index: not state.validators[index].slashed, output))
func unslashedAttestingIndices(state *types.BeaconState, atts []*types.PendingAttestation) ([]uint64, error) {
	var setIndices []uint64
	seen := make(map[uint64]bool)

	for _, att := range atts {
		committee, err := helpers.BeaconCommittee(state, att.Data.Slot, att.Data.CommitteeIndex)
		if err != nil {
			return nil, errors.Wrap(err, "could not get committee")
		}
		for _, index := range attestationutil.AttestingIndices(att.AggregationBits, committee) {
			if !seen[index] {
				setIndices = append(setIndices, index)
			}
			seen[index] = true
		}
	}
	// Sort the attesting set indices by increasing order.
	sort.Slice(setIndices, func(i, j int) bool { return setIndices[i] < setIndices[j] })
	// Remove the slashed validator indices.
	for i := 0; i < len(setIndices); i++ {
		if state.Validators[setIndices[i]].Slashed {
			setIndices = append(setIndices[:i], setIndices[i+1:]...)
			i--
		}
	}

	return setIndices, nil
}

// attestationDeltas computes and returns the rewards and penalties differences for
// individual validators based on the voting records.
//
// Spec pseudocode definition:
//  def get_attestation_deltas(state: BeaconState) -> Tuple[Sequence[Gwei], Sequence[Gwei]]:
//    previous_epoch = get_previous_epoch(state)
//    total_balance = get_total_active_balance(state)
//    rewards = [Gwei(0) for _ in range(len(state.validators))]
//    penalties = [Gwei(0) for _ in range(len(state.validators))]
//    eligible_validator_indices = [
//        ValidatorIndex(index) for index, v in enumerate(state.validators)
//        if is_active_validator(v, previous_epoch) or (v.slashed and previous_epoch + 1 < v.withdrawable_epoch)
//    ]
//
//    # Micro-incentives for matching FFG source, FFG target, and head
//    matching_source_attestations = get_matching_source_attestations(state, previous_epoch)
//    matching_target_attestations = get_matching_target_attestations(state, previous_epoch)
//    matching_head_attestations = get_matching_head_attestations(state, previous_epoch)
//    for attestations in (matching_source_attestations, matching_target_attestations, matching_head_attestations):
//        unslashed_attesting_indices = get_unslashed_attesting_indices(state, attestations)
//        attesting_balance = get_total_balance(state, unslashed_attesting_indices)
//        for index in eligible_validator_indices:
//            if index in unslashed_attesting_indices:
//                rewards[index] += get_base_reward(state, index) * attesting_balance // total_balance
//            else:
//                penalties[index] += get_base_reward(state, index)
//
//    # Proposer and inclusion delay micro-rewards
//    for index in get_unslashed_attesting_indices(state, matching_source_attestations):
//        attestation = min([
//            a for a in matching_source_attestations
//            if index in get_attesting_indices(state, a.data, a.aggregation_bits)
//        ], key=lambda a: a.inclusion_delay)
//        proposer_reward = Gwei(get_base_reward(state, index) // PROPOSER_REWARD_QUOTIENT)
//        rewards[attestation.proposer_index] += proposer_reward
//        max_attester_reward = get_base_reward(state, index) - proposer_reward
//        rewards[index] += Gwei(max_attester_reward // attestation.inclusion_delay)
//
//    # Inactivity penalty
//    finality_delay = previous_epoch - state.finalized_checkpoint.epoch
//    if finality_delay > MIN_EPOCHS_TO_INACTIVITY_PENALTY:
//        matching_target_attesting_indices = get_unslashed_attesting_indices(state, matching_target_attestations)
//        for index in eligible_validator_indices:
//            penalties[index] += Gwei(BASE_REWARDS_PER_EPOCH * get_base_reward(state, index))
//            if index not in matching_target_attesting_indices:
//                penalties[index] += Gwei(
//                    state.validators[index].effective_balance * finality_delay // INACTIVITY_PENALTY_QUOTIENT
//                )
//
//    return rewards, penalties
func attestationDeltas(state *types.BeaconState) ([]uint64, []uint64, error) {
	prevEpoch := helpers.PrevEpoch(state)
	totalBalance := helpers.TotalActiveBalance(state)

	rewards := make([]uint64, len(state.Validators))
	penalties := make([]uint64, len(state.Validators))

	// A validator is eligible if it was active in the previous epoch or is
	// slashed but not yet withdrawable.
	var eligible []uint64
	for i, v := range state.Validators {
		isActive := helpers.IsActiveValidator(v, prevEpoch)
		isSlashedNotWithdrawn := v.Slashed && prevEpoch+1 < v.WithdrawableEpoch
		if isActive || isSlashedNotWithdrawn {
			eligible = append(eligible, uint64(i))
		}
	}

	atts, err := MatchAttestations(state, prevEpoch)
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not get matching attestations")
	}

	// Micro rewards and penalties for the matching source, target and head votes.
	attsPackage := [][]*types.PendingAttestation{atts.source, atts.Target, atts.head}
	for _, matchAtts := range attsPackage {
		indices, err := unslashedAttestingIndices(state, matchAtts)
		if err != nil {
			return nil, nil, errors.Wrap(err, "could not get attesting indices")
		}
		attested := make(map[uint64]bool, len(indices))
		for _, index := range indices {
			attested[index] = true
		}
		attestedBalance := helpers.TotalBalance(state, indices)

		for _, index := range eligible {
			base, err := BaseReward(state, index)
			if err != nil {
				return nil, nil, errors.Wrap(err, "could not get base reward")
			}
			if attested[index] {
				rewards[index] += base * attestedBalance / totalBalance
			} else {
				penalties[index] += base
			}
		}
	}

	// Proposer and inclusion delay micro rewards. The attestation carrying an
	// attester's vote with the lowest inclusion delay pays its proposer a cut of
	// the attester's base reward and scales the attester's remainder down by the
	// inclusion delay.
	earliestAtts := make(map[uint64]*types.PendingAttestation)
	for _, att := range atts.source {
		committee, err := helpers.BeaconCommittee(state, att.Data.Slot, att.Data.CommitteeIndex)
		if err != nil {
			return nil, nil, errors.Wrap(err, "could not get committee")
		}
		for _, index := range attestationutil.AttestingIndices(att.AggregationBits, committee) {
			earliest, ok := earliestAtts[index]
			if !ok || att.InclusionDelay < earliest.InclusionDelay {
				earliestAtts[index] = att
			}
		}
	}
	srcIndices, err := unslashedAttestingIndices(state, atts.source)
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not get attesting indices")
	}
	for _, index := range srcIndices {
		att, ok := earliestAtts[index]
		if !ok {
			continue
		}
		base, err := BaseReward(state, index)
		if err != nil {
			return nil, nil, errors.Wrap(err, "could not get base reward")
		}
		proposerReward := base / params.BeaconConfig().ProposerRewardQuotient
		rewards[att.ProposerIndex] += proposerReward
		maxAttesterReward := base - proposerReward
		rewards[index] += maxAttesterReward / att.InclusionDelay
	}

	// Apply inactivity penalties when the chain has not finalized for longer
	// than the inactivity threshold.
	finalityDelay := prevEpoch - state.FinalizedCheckpoint.Epoch
	if finalityDelay > params.BeaconConfig().MinEpochsToInactivityPenalty {
		targetIndices, err := unslashedAttestingIndices(state, atts.Target)
		if err != nil {
			return nil, nil, errors.Wrap(err, "could not get attesting indices")
		}
		attestedTarget := make(map[uint64]bool, len(targetIndices))
		for _, index := range targetIndices {
			attestedTarget[index] = true
		}
		for _, index := range eligible {
			base, err := BaseReward(state, index)
			if err != nil {
				return nil, nil, errors.Wrap(err, "could not get base reward")
			}
			penalties[index] += params.BeaconConfig().BaseRewardsPerEpoch * base
			if !attestedTarget[index] {
				penalties[index] += state.Validators[index].EffectiveBalance * finalityDelay /
					params.BeaconConfig().InactivityPenaltyQuotient
			}
		}
	}

	return rewards, penalties, nil
}
