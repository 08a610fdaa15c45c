// Package blocks contains block processing libraries. These libraries
// process and verify block specific messages such as the randao reveal,
// eth1 data, proposer and attester slashings, attestations, deposits
// and voluntary exits.
package blocks

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/go-ssz"
	"github.com/zephyrchain/zephyr/beacon-chain/core/helpers"
	"github.com/zephyrchain/zephyr/shared/params"
	"github.com/zephyrchain/zephyr/types"
)

// ProcessBlockHeader validates a block by its header.
//
// Spec pseudocode definition:
//  def process_block_header(state: BeaconState, block: BeaconBlock) -> None:
//    # Verify that the slots match
//    assert block.slot == state.slot
//    # Verify that the parent matches
//    assert block.parent_root == hash_tree_root(state.latest_block_header)
//    # Save current block as the new latest block
//    state.latest_block_header = BeaconBlockHeader(
//        slot=block.slot,
//        parent_root=block.parent_root,
//        # state_root: zeroed, overwritten in the next `process_slot` call
//        body_root=hash_tree_root(block.body),
//    )
//
//    # Verify proposer is not slashed
//    proposer = state.validators[get_beacon_proposer_index(state)]
//    assert not proposer.slashed
func ProcessBlockHeader(ctx context.Context, beaconState *types.BeaconState, block *types.BeaconBlock) (*types.BeaconState, error) {
	if block == nil || block.Body == nil {
		return nil, errors.New("nil block or block body")
	}
	if block.Slot != beaconState.Slot {
		return nil, fmt.Errorf("block.slot %d is not state.slot %d", block.Slot, beaconState.Slot)
	}

	parentRoot, err := ssz.HashTreeRoot(beaconState.LatestBlockHeader)
	if err != nil {
		return nil, errors.Wrap(err, "could not tree hash latest block header")
	}
	if !bytes.Equal(block.ParentRoot, parentRoot[:]) {
		return nil, fmt.Errorf(
			"parent root %#x does not match the latest block header root in state %#x",
			block.ParentRoot, parentRoot)
	}

	bodyRoot, err := ssz.HashTreeRoot(block.Body)
	if err != nil {
		return nil, errors.Wrap(err, "could not tree hash block body")
	}
	beaconState.LatestBlockHeader = &types.BeaconBlockHeader{
		Slot:       block.Slot,
		ParentRoot: block.ParentRoot,
		StateRoot:  params.BeaconConfig().ZeroHash[:],
		BodyRoot:   bodyRoot[:],
	}

	idx, err := helpers.BeaconProposerIndex(beaconState)
	if err != nil {
		return nil, errors.Wrap(err, "could not get beacon proposer index")
	}
	proposer := beaconState.Validators[idx]
	if proposer.Slashed {
		return nil, fmt.Errorf("proposer at index %d was previously slashed", idx)
	}

	return beaconState, nil
}
