// Package types defines the consensus containers of the beacon chain.
// Field ordering matters: the tree hash of every container is derived from
// the declared order, so fields must not be rearranged.
package types

// Fork carries the version window used for signature domain separation.
type Fork struct {
	PreviousVersion []byte `json:"previous_version" ssz-size:"4"`
	CurrentVersion  []byte `json:"current_version" ssz-size:"4"`
	Epoch           uint64 `json:"epoch"`
}

// Checkpoint is an epoch boundary reference used by the FFG layer.
type Checkpoint struct {
	Epoch uint64 `json:"epoch"`
	Root  []byte `json:"root" ssz-size:"32"`
}

// Eth1Data holds a deposit contract snapshot voted on by block proposers.
type Eth1Data struct {
	DepositRoot  []byte `json:"deposit_root" ssz-size:"32"`
	DepositCount uint64 `json:"deposit_count"`
	BlockHash    []byte `json:"block_hash" ssz-size:"32"`
}

// HistoricalBatch accumulates a full cycle of block and state roots.
type HistoricalBatch struct {
	BlockRoots [][]byte `json:"block_roots" ssz-size:"8192,32"`
	StateRoots [][]byte `json:"state_roots" ssz-size:"8192,32"`
}

// SigningRoot mixes an object root with a signature domain. Signatures are
// made and verified over the tree hash of this container.
type SigningRoot struct {
	ObjectRoot []byte `json:"object_root" ssz-size:"32"`
	Domain     uint64 `json:"domain"`
}
