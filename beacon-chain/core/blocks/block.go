package blocks

import (
	"github.com/zephyrchain/zephyr/shared/params"
	"github.com/zephyrchain/zephyr/types"
)

// NewGenesisBlock returns the canonical, signed genesis block for the beacon chain.
// The genesis block carries the tree hash of the genesis state as its state root,
// a zeroed parent root, and an empty signature.
func NewGenesisBlock(stateRoot []byte) *types.SignedBeaconBlock {
	zeroHash := params.BeaconConfig().ZeroHash[:]
	return &types.SignedBeaconBlock{
		Block: &types.BeaconBlock{
			Slot:       0,
			ParentRoot: zeroHash,
			StateRoot:  stateRoot,
			Body: &types.BeaconBlockBody{
				RandaoReveal: make([]byte, 96),
				Eth1Data: &types.Eth1Data{
					DepositRoot: make([]byte, 32),
					BlockHash:   make([]byte, 32),
				},
				Graffiti: make([]byte, 32),
			},
		},
		Signature: params.BeaconConfig().EmptySignature[:],
	}
}
