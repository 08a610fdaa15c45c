package blocks

import (
	"github.com/pkg/errors"
	"github.com/zephyrchain/zephyr/beacon-chain/core/helpers"
	"github.com/zephyrchain/zephyr/shared/params"
	"github.com/zephyrchain/zephyr/types"
)

// VerifyBlockSignature verifies the proposer signature of a beacon block.
//
// Spec pseudocode definition:
//  def verify_block_signature(state: BeaconState, signed_block: SignedBeaconBlock) -> bool:
//    proposer = state.validators[get_beacon_proposer_index(state)]
//    signing_root = compute_signing_root(signed_block.message, get_domain(state, DOMAIN_BEACON_PROPOSER))
//    return bls.Verify(proposer.pubkey, signing_root, signed_block.signature)
func VerifyBlockSignature(beaconState *types.BeaconState, block *types.SignedBeaconBlock) error {
	if block == nil || block.Block == nil {
		return errors.New("nil block cannot have its signature verified")
	}
	proposerIdx, err := helpers.BeaconProposerIndex(beaconState)
	if err != nil {
		return errors.Wrap(err, "could not get beacon proposer index")
	}
	proposerPub := beaconState.Validators[proposerIdx].PublicKey
	currentEpoch := helpers.CurrentEpoch(beaconState)
	domain := helpers.Domain(beaconState.Fork, currentEpoch, params.BeaconConfig().DomainBeaconProposer)
	return helpers.VerifySigningRoot(block.Block, proposerPub, block.Signature, domain)
}
