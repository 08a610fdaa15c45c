package types

import (
	"github.com/prysmaticlabs/go-bitfield"
)

// AttestationData is the vote content shared by a whole committee.
type AttestationData struct {
	Slot            uint64      `json:"slot"`
	CommitteeIndex  uint64      `json:"index"`
	BeaconBlockRoot []byte      `json:"beacon_block_root" ssz-size:"32"`
	Source          *Checkpoint `json:"source"`
	Target          *Checkpoint `json:"target"`
}

// Attestation is an aggregated committee vote as it appears on the wire and
// in blocks. AggregationBits has one bit per committee member.
type Attestation struct {
	AggregationBits bitfield.Bitlist `json:"aggregation_bits" ssz-max:"2048"`
	Data            *AttestationData `json:"data"`
	Signature       []byte           `json:"signature" ssz-size:"96"`
}

// IndexedAttestation carries the explicit sorted validator indices instead of
// committee-relative aggregation bits.
type IndexedAttestation struct {
	AttestingIndices []uint64         `json:"attesting_indices" ssz-max:"2048"`
	Data             *AttestationData `json:"data"`
	Signature        []byte           `json:"signature" ssz-size:"96"`
}

// PendingAttestation is an attestation recorded in state together with its
// inclusion metadata, consumed by epoch processing.
type PendingAttestation struct {
	AggregationBits bitfield.Bitlist `json:"aggregation_bits" ssz-max:"2048"`
	Data            *AttestationData `json:"data"`
	InclusionDelay  uint64           `json:"inclusion_delay"`
	ProposerIndex   uint64           `json:"proposer_index"`
}
