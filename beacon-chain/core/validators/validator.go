// Package validators contains libraries to mutate the validator registry:
// initiating exits through the churn-limited exit queue and slashing
// misbehaving validators.
package validators

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/zephyrchain/zephyr/beacon-chain/core/helpers"
	"github.com/zephyrchain/zephyr/shared/mathutil"
	"github.com/zephyrchain/zephyr/shared/params"
	"github.com/zephyrchain/zephyr/types"
)

// ErrValidatorExitAlreadyInitiated is returned when initiating an exit for
// a validator whose exit epoch has already been set.
var ErrValidatorExitAlreadyInitiated = errors.New("validator exit already initiated")

// InitiateValidatorExit takes in validator index and updates
// validator with correct exit parameters. Exits are subject to the
// per epoch churn limit, validators over the limit spill into the
// next epoch's exit queue.
//
// Spec pseudocode definition:
//  def initiate_validator_exit(state: BeaconState, index: ValidatorIndex) -> None:
//    """
//    Initiate the exit of the validator with index ``index``.
//    """
//    # Return if validator already initiated exit
//    validator = state.validators[index]
//    if validator.exit_epoch != FAR_FUTURE_EPOCH:
//        return
//
//    # Compute exit queue epoch
//    exit_epochs = [v.exit_epoch for v in state.validators if v.exit_epoch != FAR_FUTURE_EPOCH]
//    exit_queue_epoch = max(exit_epochs + [compute_activation_exit_epoch(get_current_epoch(state))])
//    exit_queue_churn = len([v for v in state.validators if v.exit_epoch == exit_queue_epoch])
//    if exit_queue_churn >= get_validator_churn_limit(state):
//        exit_queue_epoch += Epoch(1)
//
//    # Set validator exit epoch and withdrawable epoch
//    validator.exit_epoch = exit_queue_epoch
//    validator.withdrawable_epoch = Epoch(validator.exit_epoch + MIN_VALIDATOR_WITHDRAWABILITY_DELAY)
func InitiateValidatorExit(state *types.BeaconState, idx uint64) (*types.BeaconState, error) {
	if idx >= uint64(len(state.Validators)) {
		return nil, fmt.Errorf("validator index %d out of range %d", idx, len(state.Validators))
	}
	validator := state.Validators[idx]
	if validator.ExitEpoch != params.BeaconConfig().FarFutureEpoch {
		return nil, ErrValidatorExitAlreadyInitiated
	}

	exitQueueEpoch := helpers.ActivationExitEpoch(helpers.CurrentEpoch(state))
	for _, val := range state.Validators {
		if val.ExitEpoch != params.BeaconConfig().FarFutureEpoch && val.ExitEpoch > exitQueueEpoch {
			exitQueueEpoch = val.ExitEpoch
		}
	}

	exitQueueChurn := uint64(0)
	for _, val := range state.Validators {
		if val.ExitEpoch == exitQueueEpoch {
			exitQueueChurn++
		}
	}
	activeCount := helpers.ActiveValidatorCount(state, helpers.CurrentEpoch(state))
	if exitQueueChurn >= helpers.ValidatorChurnLimit(activeCount) {
		exitQueueEpoch++
	}

	validator.ExitEpoch = exitQueueEpoch
	validator.WithdrawableEpoch = exitQueueEpoch + params.BeaconConfig().MinValidatorWithdrawabilityDelay
	return state, nil
}

// SlashValidator slashes the malicious validator's balance and awards
// the whistleblower's reward. The block proposer collects the
// whistleblower reward as no separate whistleblower is tracked.
//
// Spec pseudocode definition:
//  def slash_validator(state: BeaconState,
//                      slashed_index: ValidatorIndex,
//                      whistleblower_index: ValidatorIndex=None) -> None:
//    """
//    Slash the validator with index ``slashed_index``.
//    """
//    epoch = get_current_epoch(state)
//    initiate_validator_exit(state, slashed_index)
//    validator = state.validators[slashed_index]
//    validator.slashed = True
//    validator.withdrawable_epoch = max(validator.withdrawable_epoch, Epoch(epoch + EPOCHS_PER_SLASHINGS_VECTOR))
//    state.slashings[epoch % EPOCHS_PER_SLASHINGS_VECTOR] += validator.effective_balance
//    decrease_balance(state, slashed_index, validator.effective_balance // MIN_SLASHING_PENALTY_QUOTIENT)
//
//    # Apply proposer and whistleblower rewards
//    proposer_index = get_beacon_proposer_index(state)
//    if whistleblower_index is None:
//        whistleblower_index = proposer_index
//    whistleblower_reward = Gwei(validator.effective_balance // WHISTLEBLOWER_REWARD_QUOTIENT)
//    proposer_reward = Gwei(whistleblower_reward // PROPOSER_REWARD_QUOTIENT)
//    increase_balance(state, proposer_index, proposer_reward)
//    increase_balance(state, whistleblower_index, Gwei(whistleblower_reward - proposer_reward))
func SlashValidator(state *types.BeaconState, slashedIdx uint64) (*types.BeaconState, error) {
	if _, err := InitiateValidatorExit(state, slashedIdx); err != nil && !errors.Is(err, ErrValidatorExitAlreadyInitiated) {
		return nil, errors.Wrapf(err, "could not initiate validator %d exit", slashedIdx)
	}
	currentEpoch := helpers.CurrentEpoch(state)
	validator := state.Validators[slashedIdx]
	validator.Slashed = true
	validator.WithdrawableEpoch = mathutil.Max(validator.WithdrawableEpoch, currentEpoch+params.BeaconConfig().EpochsPerSlashingsVector)

	state.Slashings[currentEpoch%params.BeaconConfig().EpochsPerSlashingsVector] += validator.EffectiveBalance
	helpers.DecreaseBalance(state, slashedIdx, validator.EffectiveBalance/params.BeaconConfig().MinSlashingPenaltyQuotient)

	proposerIdx, err := helpers.BeaconProposerIndex(state)
	if err != nil {
		return nil, errors.Wrap(err, "could not get proposer idx")
	}
	whistleBlowerIdx := proposerIdx
	whistleblowerReward := validator.EffectiveBalance / params.BeaconConfig().WhistleBlowerRewardQuotient
	proposerReward := whistleblowerReward / params.BeaconConfig().ProposerRewardQuotient
	helpers.IncreaseBalance(state, proposerIdx, proposerReward)
	helpers.IncreaseBalance(state, whistleBlowerIdx, whistleblowerReward-proposerReward)
	return state, nil
}
