package blocks

import (
	"bytes"
	"context"

	"github.com/zephyrchain/zephyr/shared/copyutil"
	"github.com/zephyrchain/zephyr/shared/params"
	"github.com/zephyrchain/zephyr/types"
)

// ProcessEth1DataInBlock is an operation performed on each
// beacon block to ensure the ETH1 data votes are processed
// into the beacon state.
//
// Spec pseudocode definition:
//  def process_eth1_data(state: BeaconState, body: BeaconBlockBody) -> None:
//    state.eth1_data_votes.append(body.eth1_data)
//    if state.eth1_data_votes.count(body.eth1_data) * 2 > SLOTS_PER_ETH1_VOTING_PERIOD:
//        state.eth1_data = body.eth1_data
func ProcessEth1DataInBlock(ctx context.Context, beaconState *types.BeaconState, body *types.BeaconBlockBody) (*types.BeaconState, error) {
	beaconState.Eth1DataVotes = append(beaconState.Eth1DataVotes, body.Eth1Data)
	if Eth1DataHasEnoughSupport(beaconState, body.Eth1Data) {
		beaconState.Eth1Data = copyutil.CopyETH1Data(body.Eth1Data)
	}
	return beaconState, nil
}

// AreEth1DataEqual checks equality between two eth1 data objects.
func AreEth1DataEqual(a, b *types.Eth1Data) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.DepositCount == b.DepositCount &&
		bytes.Equal(a.BlockHash, b.BlockHash) &&
		bytes.Equal(a.DepositRoot, b.DepositRoot)
}

// Eth1DataHasEnoughSupport returns true when the given eth1data has more than
// 50% of the votes in the eth1 voting period. A vote is cast by including
// eth1data in a block and part of state processing appends eth1data to the
// state in the Eth1DataVotes list. Iterating through this list checks the
// votes to see if they match the eth1data.
func Eth1DataHasEnoughSupport(beaconState *types.BeaconState, data *types.Eth1Data) bool {
	voteCount := uint64(0)
	for _, vote := range beaconState.Eth1DataVotes {
		if AreEth1DataEqual(vote, data) {
			voteCount++
		}
	}

	// If 50+% majority converged on the same eth1data, then it has enough
	// support to update the state.
	return voteCount*2 > params.BeaconConfig().SlotsPerEth1VotingPeriod
}
