// Package trieutil defines utilities for sparse Merkle tries, including the
// deposit trie maintained by the deposit contract and the proofs it serves.
package trieutil

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
	"github.com/zephyrchain/zephyr/shared/bytesutil"
	"github.com/zephyrchain/zephyr/shared/hashutil"
	"github.com/zephyrchain/zephyr/shared/params"
)

// ZeroHashes are the roots of subtrees holding only zero leaves, indexed by
// subtree height.
var ZeroHashes [][32]byte

func init() {
	depth := params.BeaconConfig().DepositContractTreeDepth
	ZeroHashes = make([][32]byte, depth+1)
	for i := uint64(0); i < depth; i++ {
		ZeroHashes[i+1] = hashutil.Hash(append(ZeroHashes[i][:], ZeroHashes[i][:]...))
	}
}

// SparseMerkleTrie implements a sparse, general purpose Merkle trie to be used
// for the deposit contract accumulator.
type SparseMerkleTrie struct {
	depth         uint
	branches      [][][]byte
	originalItems [][]byte
}

// NewTrie returns a new Merkle trie filled with zerohashes to use.
func NewTrie(depth int) (*SparseMerkleTrie, error) {
	var zeroBytes [32]byte
	items := [][]byte{zeroBytes[:]}
	return GenerateTrieFromItems(items, depth)
}

// GenerateTrieFromItems constructs a Merkle trie from a sequence of byte slices.
func GenerateTrieFromItems(items [][]byte, depth int) (*SparseMerkleTrie, error) {
	if len(items) == 0 {
		return nil, errors.New("no items provided to generate Merkle trie")
	}
	if depth >= 63 {
		return nil, errors.New("supported merkle trie depth exceeded (max uint64 depth is 63)")
	}
	if uint64(len(items)) > 1<<uint64(depth) {
		return nil, fmt.Errorf("too many items for merkle trie of depth %d: %d", depth, len(items))
	}
	layers := make([][][]byte, depth+1)
	transformedLeaves := make([][]byte, len(items))
	for i := range items {
		arr := bytesutil.ToBytes32(items[i])
		transformedLeaves[i] = arr[:]
	}
	layers[0] = transformedLeaves
	for i := 0; i < depth; i++ {
		if len(layers[i])%2 == 1 {
			layers[i] = append(layers[i], ZeroHashes[i][:])
		}
		updatedValues := make([][]byte, 0, len(layers[i])/2)
		for j := 0; j < len(layers[i]); j += 2 {
			concat := hashutil.Hash(append(layers[i][j], layers[i][j+1]...))
			updatedValues = append(updatedValues, concat[:])
		}
		layers[i+1] = updatedValues
	}
	return &SparseMerkleTrie{
		branches:      layers,
		originalItems: items,
		depth:         uint(depth),
	}, nil
}

// Items returns the original items passed in when creating the Merkle trie.
func (m *SparseMerkleTrie) Items() [][]byte {
	return m.originalItems
}

// HashTreeRoot of the Merkle trie as defined in the deposit contract: the
// plain trie root mixed with the little-endian item count.
func (m *SparseMerkleTrie) HashTreeRoot() [32]byte {
	var zeroBytes [32]byte
	enc := [32]byte{}
	numItems := uint64(len(m.originalItems))
	if len(m.originalItems) == 1 && bytes.Equal(m.originalItems[0], zeroBytes[:]) {
		// Accounting for empty tries.
		numItems = 0
	}
	binary.LittleEndian.PutUint64(enc[:], numItems)
	return hashutil.Hash(append(m.branches[len(m.branches)-1][0], enc[:]...))
}

// Insert an item into the trie at the given leaf index, recomputing the
// branch up to the root.
func (m *SparseMerkleTrie) Insert(item []byte, index int) error {
	if index < 0 {
		return fmt.Errorf("negative index provided: %d", index)
	}
	for index >= len(m.branches[0]) {
		m.branches[0] = append(m.branches[0], ZeroHashes[0][:])
	}
	someItem := bytesutil.ToBytes32(item)
	m.branches[0][index] = someItem[:]
	if index >= len(m.originalItems) {
		m.originalItems = append(m.originalItems, someItem[:])
	} else {
		m.originalItems[index] = someItem[:]
	}
	currentIndex := index
	root := someItem
	for i := 0; i < int(m.depth); i++ {
		isLeft := currentIndex%2 == 0
		neighborIdx := currentIndex ^ 1
		neighbor := ZeroHashes[i][:]
		if neighborIdx < len(m.branches[i]) {
			neighbor = m.branches[i][neighborIdx]
		}
		if isLeft {
			root = hashutil.Hash(append(root[:], neighbor...))
		} else {
			root = hashutil.Hash(append(neighbor, root[:]...))
		}
		parentIdx := currentIndex / 2
		if parentIdx >= len(m.branches[i+1]) {
			newItem := root
			m.branches[i+1] = append(m.branches[i+1], newItem[:])
		} else {
			newItem := root
			m.branches[i+1][parentIdx] = newItem[:]
		}
		currentIndex = parentIdx
	}
	return nil
}

// MerkleProof computes a proof from a trie's branches using a Merkle index.
// The proof contains depth+1 elements, the last one being the little-endian
// item count the deposit contract mixes into its root.
func (m *SparseMerkleTrie) MerkleProof(index int) ([][]byte, error) {
	leaves := m.branches[0]
	if index < 0 || index >= len(leaves) {
		return nil, fmt.Errorf("merkle index out of range in trie, max range: %d, received: %d", len(leaves), index)
	}
	merkleIndex := uint(index)
	proof := make([][]byte, m.depth+1)
	for i := uint(0); i < m.depth; i++ {
		subIndex := (merkleIndex / (1 << i)) ^ 1
		if subIndex < uint(len(m.branches[i])) {
			item := bytesutil.ToBytes32(m.branches[i][subIndex])
			proof[i] = item[:]
		} else {
			proof[i] = ZeroHashes[i][:]
		}
	}
	var enc [32]byte
	binary.LittleEndian.PutUint64(enc[:], uint64(len(m.originalItems)))
	proof[len(proof)-1] = enc[:]
	return proof, nil
}

// VerifyMerkleBranch verifies a Merkle branch against a root of a trie. The
// branch length determines the depth walked, so count-mixed deposit proofs
// verify directly against the contract root.
func VerifyMerkleBranch(root, item []byte, merkleIndex int, proof [][]byte) bool {
	node := bytesutil.ToBytes32(item)
	currentIndex := merkleIndex
	for i := 0; i < len(proof); i++ {
		if currentIndex%2 == 0 {
			node = hashutil.Hash(append(node[:], proof[i]...))
		} else {
			node = hashutil.Hash(append(proof[i], node[:]...))
		}
		currentIndex = currentIndex / 2
	}
	return bytes.Equal(root, node[:])
}

