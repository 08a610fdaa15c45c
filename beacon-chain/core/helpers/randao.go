package helpers

import (
	"github.com/zephyrchain/zephyr/shared/bytesutil"
	"github.com/zephyrchain/zephyr/shared/hashutil"
	"github.com/zephyrchain/zephyr/shared/params"
	"github.com/zephyrchain/zephyr/types"
)

// Seed returns the randao seed used for shuffling of a given epoch.
//
// Spec pseudocode definition:
//  def get_seed(state: BeaconState, epoch: Epoch, domain_type: DomainType) -> Hash:
//    """
//    Return the seed at ``epoch``.
//    """
//    mix = get_randao_mix(state, Epoch(epoch + EPOCHS_PER_HISTORICAL_VECTOR - MIN_SEED_LOOKAHEAD - 1))  # Avoid underflow
//    return hash(domain_type + int_to_bytes(epoch, length=8) + mix)
func Seed(state *types.BeaconState, epoch uint64, domain [4]byte) ([32]byte, error) {
	// The offset looks down by one epoch so proposers cannot bias the mix
	// used for their own epoch with a last minute reveal.
	lookAheadEpoch := epoch + params.BeaconConfig().EpochsPerHistoricalVector -
		params.BeaconConfig().MinSeedLookahead - 1

	randaoMix := RandaoMix(state, lookAheadEpoch)
	seed := append(domain[:], bytesutil.Bytes8(epoch)...)
	seed = append(seed, randaoMix...)
	return hashutil.Hash(seed), nil
}

// RandaoMix returns the randao mix (xor'ed seed)
// of a given slot. It is used to shuffle validators.
//
// Spec pseudocode definition:
//  def get_randao_mix(state: BeaconState, epoch: Epoch) -> Hash:
//    """
//    Return the randao mix at a recent ``epoch``.
//    """
//    return state.randao_mixes[epoch % EPOCHS_PER_HISTORICAL_VECTOR]
func RandaoMix(state *types.BeaconState, epoch uint64) []byte {
	return bytesutil.SafeCopyBytes(state.RandaoMixes[epoch%params.BeaconConfig().EpochsPerHistoricalVector])
}
