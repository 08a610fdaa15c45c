package blocks

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/go-ssz"
	"github.com/zephyrchain/zephyr/beacon-chain/core/helpers"
	v "github.com/zephyrchain/zephyr/beacon-chain/core/validators"
	"github.com/zephyrchain/zephyr/shared/params"
	"github.com/zephyrchain/zephyr/types"
)

// ProcessProposerSlashings is one of the operations performed
// on each processed beacon block to slash proposers based on
// slashing conditions if any slashable events occurred.
//
// Spec pseudocode definition:
//  def process_proposer_slashing(state: BeaconState, proposer_slashing: ProposerSlashing) -> None:
//    proposer = state.validators[proposer_slashing.proposer_index]
//    # Verify slots match
//    assert proposer_slashing.header_1.slot == proposer_slashing.header_2.slot
//    # But the headers are different
//    assert proposer_slashing.header_1 != proposer_slashing.header_2
//    # Check proposer is slashable
//    assert is_slashable_validator(proposer, get_current_epoch(state))
//    # Signatures are valid
//    for signed_header in (proposer_slashing.signed_header_1, proposer_slashing.signed_header_2):
//        domain = get_domain(state, DOMAIN_BEACON_PROPOSER, compute_epoch_at_slot(signed_header.message.slot))
//        assert bls_verify(proposer.pubkey, compute_signing_root(signed_header.message, domain), signed_header.signature)
//
//    slash_validator(state, proposer_slashing.proposer_index)
func ProcessProposerSlashings(ctx context.Context, beaconState *types.BeaconState, body *types.BeaconBlockBody) (*types.BeaconState, error) {
	var err error
	for idx, slashing := range body.ProposerSlashings {
		if slashing == nil {
			return nil, errors.New("nil proposer slashing in block body")
		}
		if err = VerifyProposerSlashing(beaconState, slashing); err != nil {
			return nil, errors.Wrapf(err, "could not verify proposer slashing %d", idx)
		}
		beaconState, err = v.SlashValidator(beaconState, slashing.ProposerIndex)
		if err != nil {
			return nil, errors.Wrapf(err, "could not slash proposer index %d", slashing.ProposerIndex)
		}
	}
	return beaconState, nil
}

// VerifyProposerSlashing verifies that the data provided from slashing is valid.
func VerifyProposerSlashing(beaconState *types.BeaconState, slashing *types.ProposerSlashing) error {
	if slashing.Header1 == nil || slashing.Header1.Header == nil || slashing.Header2 == nil || slashing.Header2.Header == nil {
		return errors.New("nil header cannot be verified")
	}
	if slashing.Header1.Header.Slot != slashing.Header2.Header.Slot {
		return fmt.Errorf("mismatched header slots, received %d == %d",
			slashing.Header1.Header.Slot, slashing.Header2.Header.Slot)
	}
	root1, err := ssz.HashTreeRoot(slashing.Header1.Header)
	if err != nil {
		return errors.Wrap(err, "could not tree hash first header")
	}
	root2, err := ssz.HashTreeRoot(slashing.Header2.Header)
	if err != nil {
		return errors.Wrap(err, "could not tree hash second header")
	}
	if root1 == root2 {
		return errors.New("expected slashing headers to differ")
	}
	if slashing.ProposerIndex >= uint64(len(beaconState.Validators)) {
		return fmt.Errorf("validator index %d out of range %d", slashing.ProposerIndex, len(beaconState.Validators))
	}
	proposer := beaconState.Validators[slashing.ProposerIndex]
	if !helpers.IsSlashableValidator(proposer, helpers.CurrentEpoch(beaconState)) {
		return fmt.Errorf("validator with key %#x is not slashable", proposer.PublicKey)
	}
	// Using headerEpoch to get the domain, as both headers share the same slot.
	headerEpoch := helpers.SlotToEpoch(slashing.Header1.Header.Slot)
	for _, signedHeader := range []*types.SignedBeaconBlockHeader{slashing.Header1, slashing.Header2} {
		domain := helpers.Domain(beaconState.Fork, headerEpoch, params.BeaconConfig().DomainBeaconProposer)
		if err := helpers.VerifySigningRoot(signedHeader.Header, proposer.PublicKey, signedHeader.Signature, domain); err != nil {
			return errors.Wrap(err, "could not verify beacon block header")
		}
	}
	return nil
}
