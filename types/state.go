package types

import (
	"github.com/prysmaticlabs/go-bitfield"
)

// BeaconState is the full consensus state of the beacon chain at a slot.
type BeaconState struct {
	// Versioning
	GenesisTime uint64 `json:"genesis_time"`
	Slot        uint64 `json:"slot"`
	Fork        *Fork  `json:"fork"`

	// History
	LatestBlockHeader *BeaconBlockHeader `json:"latest_block_header"`
	BlockRoots        [][]byte           `json:"block_roots" ssz-size:"8192,32"`
	StateRoots        [][]byte           `json:"state_roots" ssz-size:"8192,32"`
	HistoricalRoots   [][]byte           `json:"historical_roots" ssz-size:"?,32" ssz-max:"16777216"`

	// Eth1
	Eth1Data         *Eth1Data   `json:"eth1_data"`
	Eth1DataVotes    []*Eth1Data `json:"eth1_data_votes" ssz-max:"1024"`
	Eth1DepositIndex uint64      `json:"eth1_deposit_index"`

	// Registry
	Validators []*Validator `json:"validators" ssz-max:"1099511627776"`
	Balances   []uint64     `json:"balances" ssz-max:"1099511627776"`

	// Randomness
	RandaoMixes [][]byte `json:"randao_mixes" ssz-size:"65536,32"`

	// Slashings
	Slashings []uint64 `json:"slashings" ssz-size:"8192"`

	// Attestations
	PreviousEpochAttestations []*PendingAttestation `json:"previous_epoch_attestations" ssz-max:"4096"`
	CurrentEpochAttestations  []*PendingAttestation `json:"current_epoch_attestations" ssz-max:"4096"`

	// Finality
	JustificationBits           bitfield.Bitvector4 `json:"justification_bits" ssz-size:"1"`
	PreviousJustifiedCheckpoint *Checkpoint         `json:"previous_justified_checkpoint"`
	CurrentJustifiedCheckpoint  *Checkpoint         `json:"current_justified_checkpoint"`
	FinalizedCheckpoint         *Checkpoint         `json:"finalized_checkpoint"`
}
