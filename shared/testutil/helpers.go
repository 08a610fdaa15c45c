package testutil

import (
	"bytes"
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/go-ssz"
	"github.com/zephyrchain/zephyr/beacon-chain/core/helpers"
	"github.com/zephyrchain/zephyr/beacon-chain/core/state"
	"github.com/zephyrchain/zephyr/shared/bls"
	"github.com/zephyrchain/zephyr/shared/copyutil"
	"github.com/zephyrchain/zephyr/shared/params"
	"github.com/zephyrchain/zephyr/types"
)

// RandaoReveal returns a signature of the requested epoch using the beacon
// proposer private key.
func RandaoReveal(beaconState *types.BeaconState, epoch uint64, privKeys []bls.SecretKey) ([]byte, error) {
	// We fetch the proposer's index as that is whom the RANDAO will be verified against.
	proposerIdx, err := helpers.BeaconProposerIndex(beaconState)
	if err != nil {
		return []byte{}, errors.Wrap(err, "could not get beacon proposer index")
	}
	domain := helpers.Domain(beaconState.Fork, epoch, params.BeaconConfig().DomainRandao)
	root, err := helpers.ComputeSigningRoot(epoch, domain)
	if err != nil {
		return []byte{}, errors.Wrap(err, "could not compute signing root of epoch")
	}
	return privKeys[proposerIdx].Sign(root[:]).Marshal(), nil
}

// BlockSignature calculates the post-state root of the block and returns the
// proposer signature over the completed block.
func BlockSignature(
	bState *types.BeaconState,
	block *types.BeaconBlock,
	privKeys []bls.SecretKey,
) (bls.Signature, error) {
	s, err := state.CalculateStateRoot(context.Background(), bState, &types.SignedBeaconBlock{Block: block})
	if err != nil {
		return nil, errors.Wrap(err, "could not calculate state root")
	}
	block.StateRoot = s[:]
	// Temporarily increasing the beacon state slot here since BeaconProposerIndex
	// is a function deterministic on beacon state slot.
	currentSlot := bState.Slot
	bState.Slot = block.Slot
	proposerIdx, err := helpers.BeaconProposerIndex(bState)
	if err != nil {
		return nil, errors.Wrap(err, "could not get beacon proposer index")
	}
	domain := helpers.Domain(bState.Fork, helpers.CurrentEpoch(bState), params.BeaconConfig().DomainBeaconProposer)
	bState.Slot = currentSlot
	blockRoot, err := helpers.ComputeSigningRoot(block, domain)
	if err != nil {
		return nil, errors.Wrap(err, "could not compute signing root of block")
	}
	return privKeys[proposerIdx].Sign(blockRoot[:]), nil
}

// HeadRootOf computes the root the latest block header of the state hashes to
// once its state root is filled in, which is the block root process_slot
// records for the current head.
func HeadRootOf(bState *types.BeaconState) ([]byte, error) {
	header := copyutil.CopyBeaconBlockHeader(bState.LatestBlockHeader)
	zeroHash := params.BeaconConfig().ZeroHash
	if bytes.Equal(header.StateRoot, zeroHash[:]) {
		prevStateRoot, err := ssz.HashTreeRoot(bState)
		if err != nil {
			return nil, errors.Wrap(err, "could not hash state")
		}
		header.StateRoot = prevStateRoot[:]
	}
	root, err := ssz.HashTreeRoot(header)
	if err != nil {
		return nil, errors.Wrap(err, "could not hash the latest block header")
	}
	return root[:], nil
}
